// SPDX-License-Identifier: Unlicense OR MIT

package gpu

import "github.com/david7a68/plinth/internal/debug"

// maxSurfaceDim caps how far a flex surface can grow.
const maxSurfaceDim = 0xffff

// ResizeOp selects how a swapchain follows a window size change.
type ResizeOp interface {
	implementsResizeOp()
}

// ResizeAuto sizes the surface to the window extent exactly.
type ResizeAuto struct {
	Extent Extent
}

// ResizeFixed pins the surface to an explicit extent.
type ResizeFixed struct {
	Extent Extent
}

// ResizeFlex overprovisions the surface while a live resize is in
// progress: the backing only grows, by Factor beyond the requested
// extent, and the visible region is clipped to the extent. Frames
// during a drag then avoid reallocating the surface.
type ResizeFlex struct {
	Extent Extent
	// Factor scales the backing allocation, typically 1.5 to 2.
	Factor float32
}

func (ResizeAuto) implementsResizeOp()  {}
func (ResizeFixed) implementsResizeOp() {}
func (ResizeFlex) implementsResizeOp()  {}

// Swapchain presents rendered frames to one window surface.
type Swapchain struct {
	device  *Device
	surface SurfaceID
	// Allocated backing size and visible size.
	backing Extent
	visible Extent
	// Submission presented last, waited on before resizing.
	lastPresent SubmissionID
	wasResized  bool
}

// NewSwapchain creates a swapchain for the given window at the
// given extent.
func NewSwapchain(d *Device, win WindowHandle, extent Extent) (*Swapchain, error) {
	s, err := d.backend.CreateSurface(win, extent)
	if err != nil {
		return nil, err
	}
	return &Swapchain{
		device:  d,
		surface: s,
		backing: extent,
		visible: extent,
	}, nil
}

// Surface returns the backend surface id for submission.
func (sc *Swapchain) Surface() SurfaceID {
	return sc.surface
}

// Extent returns the visible surface size.
func (sc *Swapchain) Extent() Extent {
	return sc.visible
}

// Backing returns the allocated surface size, which may exceed the
// visible size during a flex resize.
func (sc *Swapchain) Backing() Extent {
	return sc.backing
}

// Resize applies op to the surface. The swapchain waits for the
// last presented frame before touching the backing.
func (sc *Swapchain) Resize(op ResizeOp) error {
	if err := sc.device.Wait(sc.lastPresent); err != nil {
		return err
	}
	switch op := op.(type) {
	case ResizeAuto:
		return sc.resizeExact(op.Extent)
	case ResizeFixed:
		return sc.resizeExact(op.Extent)
	case ResizeFlex:
		target := op.Extent
		if target.Width <= sc.backing.Width && target.Height <= sc.backing.Height {
			// Backing is large enough; just move the visible
			// region.
			if err := sc.device.backend.SetSurfaceSource(sc.surface, target); err != nil {
				return err
			}
			sc.visible = target
			sc.wasResized = true
			return nil
		}
		grown := Extent{
			Width:  flexDim(target.Width, op.Factor),
			Height: flexDim(target.Height, op.Factor),
		}
		if err := sc.device.backend.ResizeSurface(sc.surface, grown); err != nil {
			return err
		}
		if err := sc.device.backend.SetSurfaceSource(sc.surface, target); err != nil {
			return err
		}
		debug.Log().Debug().
			Int("width", int(grown.Width)).
			Int("height", int(grown.Height)).
			Log("flex surface grown")
		sc.backing = grown
		sc.visible = target
		sc.wasResized = true
		return nil
	default:
		panic("gpu: unknown resize op")
	}
}

// Present presents the frame produced by submission id. The first
// present after a resize restarts the presentation queue so stale
// frames are dropped.
func (sc *Swapchain) Present(id SubmissionID) error {
	restart := sc.wasResized
	sc.wasResized = false
	sc.lastPresent = id
	return sc.device.backend.Present(sc.surface, restart)
}

// Close releases the surface after the last presented frame
// completes.
func (sc *Swapchain) Close() {
	if err := sc.device.Wait(sc.lastPresent); err != nil {
		debug.Log().Err().
			Err(err).
			Log("wait before swapchain close")
	}
	sc.device.backend.DestroySurface(sc.surface)
}

func (sc *Swapchain) resizeExact(extent Extent) error {
	if extent == sc.backing && extent == sc.visible {
		return nil
	}
	if err := sc.device.backend.ResizeSurface(sc.surface, extent); err != nil {
		return err
	}
	if err := sc.device.backend.SetSurfaceSource(sc.surface, extent); err != nil {
		return err
	}
	sc.backing = extent
	sc.visible = extent
	sc.wasResized = true
	return nil
}

func flexDim(v uint16, factor float32) uint16 {
	if factor < 1 {
		factor = 1
	}
	f := float32(v) * factor
	if f > maxSurfaceDim {
		return maxSurfaceDim
	}
	return uint16(f)
}
