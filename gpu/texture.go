// SPDX-License-Identifier: Unlicense OR MIT

package gpu

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/david7a68/plinth/internal/pool"
)

// TextureKey refers to a texture owned by a Device. The zero key
// refers to the device's default texture, a 1x1 opaque white pixel
// that is always present and cannot be destroyed.
type TextureKey struct {
	index uint32
	epoch uint32
}

func (TextureKey) FromParts(index, epoch uint32) TextureKey {
	return TextureKey{index: index, epoch: epoch}
}

func (k TextureKey) Index() uint32 { return k.index }
func (k TextureKey) Epoch() uint32 { return k.epoch }

// texture is the device-side record of one texture.
type texture struct {
	backendID uint64
	extent    Extent
	format    TextureFormat
}

// maxTextures bounds the per-device texture table.
const maxTextures = 4096

// CreateTexture uploads pixels as a texture of the given extent and
// format. The pixel slice is tightly packed rows.
func (d *Device) CreateTexture(extent Extent, format TextureFormat, pixels []byte) (TextureKey, error) {
	if want := int(extent.Width) * int(extent.Height) * format.Bytes(); len(pixels) != want {
		return TextureKey{}, fmt.Errorf("gpu: pixel data is %d bytes, want %d", len(pixels), want)
	}
	id, err := d.backend.CreateTexture(extent, format, pixels)
	if err != nil {
		return TextureKey{}, err
	}
	d.mu.Lock()
	key, err := d.textures.Insert(texture{backendID: id, extent: extent, format: format})
	d.mu.Unlock()
	if err != nil {
		d.backend.DestroyTexture(id)
		return TextureKey{}, ErrTextureLimit
	}
	return key, nil
}

// CreateTextureImage uploads img, converting to RGBA as needed.
func (d *Device) CreateTextureImage(img image.Image) (TextureKey, error) {
	b := img.Bounds()
	if b.Dx() > 0xffff || b.Dy() > 0xffff {
		return TextureKey{}, fmt.Errorf("gpu: image %dx%d exceeds the texture size limit", b.Dx(), b.Dy())
	}
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != 4*b.Dx() {
		converted := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(converted, converted.Bounds(), img, b.Min, draw.Src)
		rgba = converted
	}
	extent := Extent{Width: uint16(b.Dx()), Height: uint16(b.Dy())}
	return d.CreateTexture(extent, FormatRGBA8, rgba.Pix)
}

// DestroyTexture releases the texture key refers to. Stale keys and
// the default texture are ignored.
func (d *Device) DestroyTexture(key TextureKey) {
	d.mu.Lock()
	t, ok := d.textures.Remove(key)
	d.mu.Unlock()
	if !ok {
		return
	}
	d.backend.DestroyTexture(t.backendID)
}

// TextureExtent returns the size of the texture key refers to.
func (d *Device) TextureExtent(key TextureKey) (Extent, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.textures.Get(key)
	if !ok {
		return Extent{}, false
	}
	return t.extent, true
}

// textureTable builds the device texture slot map with the default
// white texture in slot 0.
func textureTable(def texture) *pool.SlotMap[TextureKey, texture] {
	return pool.NewSlotMap[TextureKey, texture](maxTextures, def)
}
