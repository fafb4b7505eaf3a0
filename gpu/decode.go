// SPDX-License-Identifier: Unlicense OR MIT

package gpu

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"

	"github.com/david7a68/plinth/internal/arena"
)

// CreateTextureEncoded decodes an encoded image (PNG or JPEG) and
// uploads it as an RGBA texture. The decoded pixels are staged in
// scratch, which is reset first; arena.ErrFull is reported when the
// image does not fit.
func (d *Device) CreateTextureEncoded(data []byte, scratch *arena.Arena) (TextureKey, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return TextureKey{}, fmt.Errorf("gpu: image decode: %w", err)
	}
	b := img.Bounds()
	if b.Dx() > 0xffff || b.Dy() > 0xffff {
		return TextureKey{}, fmt.Errorf("gpu: image %dx%d exceeds the texture size limit", b.Dx(), b.Dy())
	}
	scratch.Reset()
	pix, err := scratch.Alloc(4*b.Dx()*b.Dy(), 4)
	if err != nil {
		return TextureKey{}, err
	}
	staging := &image.RGBA{
		Pix:    pix,
		Stride: 4 * b.Dx(),
		Rect:   image.Rect(0, 0, b.Dx(), b.Dy()),
	}
	draw.Draw(staging, staging.Rect, img, b.Min, draw.Src)
	extent := Extent{Width: uint16(b.Dx()), Height: uint16(b.Dy())}
	return d.CreateTexture(extent, FormatRGBA8, staging.Pix)
}
