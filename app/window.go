// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"errors"

	"github.com/david7a68/plinth/gpu"
	"github.com/david7a68/plinth/internal/debug"
)

// flexFactor overprovisions swapchain backings during interactive
// resizes so drag frames avoid surface reallocation.
const flexFactor = 1.5

// Handler receives a window's events on the window's handler
// goroutine. Embed BaseHandler to implement only the callbacks of
// interest.
type Handler interface {
	// OnCreate runs once, before any other callback. The window's
	// swapchain is ready.
	OnCreate(w *Window)
	// OnCloseRequest decides whether a user close request destroys
	// the window.
	OnCloseRequest(w *Window) bool
	// OnDestroy runs last; the OS window is already gone.
	OnDestroy(w *Window)
	OnVisible(w *Window, shown bool)
	OnBeginResize(w *Window)
	OnResize(w *Window, extent gpu.Extent)
	OnEndResize(w *Window)
	// OnRepaint records the frame into canvas. Begin and Finish
	// are handled by the window.
	OnRepaint(w *Window, canvas *gpu.DrawList, timing PresentTiming)
	OnPointer(w *Window, e PointerEvent)
	OnKey(w *Window, e KeyEvent)
}

// BaseHandler is a Handler that does nothing and agrees to close.
type BaseHandler struct{}

func (BaseHandler) OnCreate(*Window)                                {}
func (BaseHandler) OnCloseRequest(*Window) bool                     { return true }
func (BaseHandler) OnDestroy(*Window)                               {}
func (BaseHandler) OnVisible(*Window, bool)                         {}
func (BaseHandler) OnBeginResize(*Window)                           {}
func (BaseHandler) OnResize(*Window, gpu.Extent)                    {}
func (BaseHandler) OnEndResize(*Window)                             {}
func (BaseHandler) OnRepaint(*Window, *gpu.DrawList, PresentTiming) {}
func (BaseHandler) OnPointer(*Window, PointerEvent)                 {}
func (BaseHandler) OnKey(*Window, KeyEvent)                         {}

// Window pairs an OS window with a handler goroutine. The event
// thread owns the OS window and feeds the queue; the handler
// goroutine drains it, drives the swapchain and runs the Handler.
type Window struct {
	app *App
	drv driver
	q   *eventQueue
	cfg Config

	// Handler goroutine state.
	swapchain  *gpu.Swapchain
	cl         *gpu.CommandList
	lastSubmit gpu.SubmissionID
	isResizing bool
	created    bool
	extent     gpu.Extent
	scale      float32
}

// App returns the owning application.
func (w *Window) App() *App {
	return w.app
}

// Extent returns the client area size as of the last event
// processed. Only meaningful on the handler goroutine.
func (w *Window) Extent() gpu.Extent {
	return w.extent
}

// DpiScale returns the display scale factor as of the last resize
// processed. Only meaningful on the handler goroutine.
func (w *Window) DpiScale() float32 {
	return w.scale
}

// SetTitle changes the window title.
func (w *Window) SetTitle(title string) {
	if len(title) > maxTitleLen {
		title = title[:maxTitleLen]
	}
	w.drv.setTitle(title)
}

// Show makes the window visible or hides it.
func (w *Window) Show(shown bool) {
	w.drv.show(shown)
}

// RequestRepaint schedules a RepaintEvent.
func (w *Window) RequestRepaint() {
	w.drv.requestRepaint()
}

// Close requests a close, as if the user clicked the close button.
// The handler's OnCloseRequest decides whether it proceeds.
func (w *Window) Close() {
	w.drv.requestClose()
}

// Destroy tears the window down unconditionally.
func (w *Window) Destroy() {
	w.drv.destroy()
}

// run is the handler goroutine. It exits when the event thread
// closes the queue after DestroyEvent.
func (w *Window) run(h Handler) {
	defer w.app.windowClosed()
	defer w.cleanup()
	first := true
	for {
		ev, ok := w.q.next()
		if !ok {
			return
		}
		if first {
			if _, isCreate := ev.(CreateEvent); !isCreate {
				panic("app: first window event must be CreateEvent")
			}
			first = false
		}
		switch e := ev.(type) {
		case CreateEvent:
			if w.created {
				panic("app: duplicate CreateEvent for the same window")
			}
			w.created = true
			w.extent = e.Extent
			sc, err := gpu.NewSwapchain(w.app.device, w.drv.handle(), e.Extent)
			if err != nil {
				debug.Log().Err().
					Err(err).
					Log("swapchain creation failed")
				w.drv.destroy()
				continue
			}
			w.swapchain = sc
			// Armed closed: the first repaint begins recording on
			// a list that is already valid to submit empty.
			w.cl = w.app.device.AcquireCommandList()
			h.OnCreate(w)
		case CloseRequestEvent:
			if h.OnCloseRequest(w) {
				w.drv.destroy()
			}
		case DestroyEvent:
			h.OnDestroy(w)
			w.cleanup()
		case VisibleEvent:
			h.OnVisible(w, e.Shown)
		case BeginResizeEvent:
			w.isResizing = true
			h.OnBeginResize(w)
		case ResizeEvent:
			if e.DpiScale > 0 {
				w.scale = e.DpiScale
			}
			w.applyResize(e.Extent)
			h.OnResize(w, e.Extent)
		case EndResizeEvent:
			w.isResizing = false
			if w.swapchain != nil {
				// Snap back from the flexed backing.
				if err := w.swapchain.Resize(gpu.ResizeAuto{Extent: w.extent}); err != nil {
					debug.Log().Err().
						Err(err).
						Log("snap-back resize failed")
				}
			}
			h.OnEndResize(w)
		case RepaintEvent:
			w.repaint(h, e.Timing)
		case PointerEvent:
			h.OnPointer(w, e)
		case KeyEvent:
			h.OnKey(w, e)
		}
	}
}

func (w *Window) applyResize(extent gpu.Extent) {
	w.extent = extent
	if w.swapchain == nil {
		return
	}
	var op gpu.ResizeOp
	if w.isResizing {
		op = gpu.ResizeFlex{Extent: extent, Factor: flexFactor}
	} else {
		op = gpu.ResizeAuto{Extent: extent}
	}
	if err := w.swapchain.Resize(op); err != nil {
		debug.Log().Err().
			Err(err).
			Log("swapchain resize failed")
	}
}

func (w *Window) repaint(h Handler, timing PresentTiming) {
	if w.swapchain == nil {
		return
	}
	// One submission deep: wait for the previous frame before
	// recording over its command list.
	if err := w.app.device.Wait(w.lastSubmit); err != nil {
		debug.Log().Err().
			Err(err).
			Log("wait for previous frame")
		return
	}
	cl := w.cl
	if cl == nil {
		cl = w.app.device.AcquireCommandList()
	}
	w.cl = nil
	view := gpu.BoundsOf(w.extent)
	cl.Begin(view, view)
	h.OnRepaint(w, &cl.DrawList, timing)
	cl.Finish()
	id, err := w.app.device.Submit(cl, w.swapchain.Surface())
	if err != nil {
		if errors.Is(err, gpu.ErrDeviceLost) {
			w.drv.destroy()
		}
		debug.Log().Err().
			Err(err).
			Log("frame submission failed")
		return
	}
	if err := w.swapchain.Present(id); err != nil {
		debug.Log().Err().
			Err(err).
			Log("present failed")
	}
	w.lastSubmit = id
	w.cl = w.app.device.AcquireCommandList()
}

// cleanup releases the swapchain after the window's last frame
// completes. Safe to call more than once.
func (w *Window) cleanup() {
	if w.swapchain == nil {
		return
	}
	if err := w.app.device.Wait(w.lastSubmit); err != nil {
		debug.Log().Err().
			Err(err).
			Log("wait before window teardown")
	}
	w.swapchain.Close()
	w.swapchain = nil
	w.cl = nil
}
