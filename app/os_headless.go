// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"sync"
	"time"

	"github.com/david7a68/plinth/gpu"
)

// headlessWindow is a driver with no OS window behind it. It backs
// windows on platforms without a native driver and lets tests steer
// the event stream directly.
type headlessWindow struct {
	q *eventQueue

	mu        sync.Mutex
	extent    gpu.Extent
	destroyed bool
}

func newHeadlessWindow(cfg Config, q *eventQueue) *headlessWindow {
	w := &headlessWindow{q: q, extent: cfg.Size}
	q.push(CreateEvent{Extent: cfg.Size})
	if cfg.Visible {
		q.push(VisibleEvent{Shown: true})
	}
	return w
}

func (w *headlessWindow) handle() gpu.WindowHandle { return 0 }

func (w *headlessWindow) setTitle(string) {}

func (w *headlessWindow) show(shown bool) {
	w.deliver(VisibleEvent{Shown: shown})
}

func (w *headlessWindow) requestRepaint() {
	w.deliver(RepaintEvent{Timing: headlessTiming()})
}

func (w *headlessWindow) requestClose() {
	w.deliver(CloseRequestEvent{})
}

func (w *headlessWindow) destroy() {
	w.mu.Lock()
	if w.destroyed {
		w.mu.Unlock()
		return
	}
	w.destroyed = true
	w.mu.Unlock()
	w.q.push(DestroyEvent{})
	w.q.close()
}

// beginResize, resizeTo and endResize synthesize an interactive
// resize sequence.
func (w *headlessWindow) beginResize() {
	w.deliver(BeginResizeEvent{})
}

func (w *headlessWindow) resizeTo(extent gpu.Extent) {
	w.mu.Lock()
	w.extent = extent
	w.mu.Unlock()
	w.deliver(ResizeEvent{Extent: extent, DpiScale: 1})
}

// rescale reports a display scale change, as when the window moves
// to a monitor with a different DPI.
func (w *headlessWindow) rescale(scale float32) {
	w.mu.Lock()
	extent := w.extent
	w.mu.Unlock()
	w.deliver(ResizeEvent{Extent: extent, DpiScale: scale})
}

func (w *headlessWindow) endResize() {
	w.deliver(EndResizeEvent{})
}

func (w *headlessWindow) pointer(e PointerEvent) {
	w.deliver(e)
}

func (w *headlessWindow) key(e KeyEvent) {
	w.deliver(e)
}

func (w *headlessWindow) deliver(e Event) {
	w.mu.Lock()
	dead := w.destroyed
	w.mu.Unlock()
	if dead {
		return
	}
	w.q.push(e)
}

func headlessTiming() PresentTiming {
	const refresh = time.Second / 60
	return PresentTiming{
		Target:  time.Now().Add(refresh),
		Refresh: refresh,
	}
}
