// SPDX-License-Identifier: Unlicense OR MIT

/*
Package gpu implements the rendering half of the runtime: draw list
recording, command submission with fence-based recycling, swapchain
management and texture storage.

A Device wraps one of the registered backends. Rendering a frame
acquires a recycled command list, records draw commands into it,
submits the list and presents the swapchain. Submissions are
tracked by monotonically increasing ids so command lists are reused
as soon as the device has finished with them.
*/
package gpu

import "errors"

var (
	// ErrNoBackend is reported when no registered backend could be
	// initialized.
	ErrNoBackend = errors.New("gpu: no backend available")
	// ErrDeviceLost is reported when the device became unusable.
	// Work submitted afterwards is discarded.
	ErrDeviceLost = errors.New("gpu: device lost")
	// ErrTextureLimit is reported when the texture table is full.
	ErrTextureLimit = errors.New("gpu: out of texture slots")
)

// PowerPreference selects between adapters on multi-GPU machines.
type PowerPreference uint8

const (
	PowerDefault PowerPreference = iota
	PowerLowPower
	PowerHighPerformance
)

// Config selects and configures a backend. The zero value picks the
// best available backend with default settings.
type Config struct {
	// Backend names a registered backend. Empty selects by
	// priority.
	Backend string
	// DebugLayer enables backend validation where supported.
	DebugLayer      bool
	PowerPreference PowerPreference
}

// Extent is a surface or texture size in pixels.
type Extent struct {
	Width, Height uint16
}

// Bounds is an axis-aligned rectangle in logical pixels.
type Bounds struct {
	X, Y, W, H float32
}

// BoundsOf returns bounds at the origin covering e.
func BoundsOf(e Extent) Bounds {
	return Bounds{W: float32(e.Width), H: float32(e.Height)}
}

// Color is a straight-alpha linear RGBA color.
type Color struct {
	R, G, B, A float32
}

// Sampler selects how a texture is filtered.
type Sampler uint8

const (
	SamplerLinear Sampler = iota
	SamplerNearest
)

// TextureFormat is the pixel layout of a texture.
type TextureFormat uint8

const (
	FormatRGBA8 TextureFormat = iota
	FormatBGRA8
	FormatA8
)

// Bytes returns the pixel size of f in bytes.
func (f TextureFormat) Bytes() int {
	if f == FormatA8 {
		return 1
	}
	return 4
}
