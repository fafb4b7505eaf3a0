// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"context"
	"testing"
	"time"

	"github.com/david7a68/plinth/gpu"
)

// recorder is a Handler that reports callback names on a channel.
type recorder struct {
	BaseHandler
	calls     chan string
	denyClose bool
}

func newRecorder() *recorder {
	return &recorder{calls: make(chan string, 128)}
}

func (r *recorder) OnCreate(*Window) { r.calls <- "create" }
func (r *recorder) OnCloseRequest(*Window) bool {
	r.calls <- "closerequest"
	return !r.denyClose
}
func (r *recorder) OnDestroy(*Window)        { r.calls <- "destroy" }
func (r *recorder) OnVisible(*Window, bool)  { r.calls <- "visible" }
func (r *recorder) OnBeginResize(*Window)    { r.calls <- "beginresize" }
func (r *recorder) OnResize(*Window, gpu.Extent) {
	r.calls <- "resize"
}
func (r *recorder) OnEndResize(*Window) { r.calls <- "endresize" }
func (r *recorder) OnRepaint(_ *Window, canvas *gpu.DrawList, _ PresentTiming) {
	canvas.Clear(gpu.Color{A: 1})
	r.calls <- "repaint"
}

func (r *recorder) expect(t *testing.T, names ...string) {
	t.Helper()
	for _, want := range names {
		select {
		case got := <-r.calls:
			if got != want {
				t.Fatalf("callback %q, want %q", got, want)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for %q", want)
		}
	}
}

// newTestApp returns an app on the null backend whose windows are
// headless, along with the drivers it creates.
func newTestApp(t *testing.T) (*App, chan *headlessWindow) {
	t.Helper()
	a, err := New(gpu.Config{Backend: gpu.BackendNull})
	if err != nil {
		t.Fatal(err)
	}
	drivers := make(chan *headlessWindow, 8)
	a.newDriver = func(cfg Config, q *eventQueue) (driver, error) {
		w := newHeadlessWindow(cfg, q)
		drivers <- w
		return w, nil
	}
	return a, drivers
}

func runApp(t *testing.T, a *App) chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() {
		done <- a.Run(context.Background())
	}()
	return done
}

func waitRun(t *testing.T, done chan error) {
	t.Helper()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
}

func TestWindowLifecycle(t *testing.T) {
	a, _ := newTestApp(t)
	r := newRecorder()
	w, err := a.NewWindow(r, Title("lifecycle"), Size(320, 240))
	if err != nil {
		t.Fatal(err)
	}
	done := runApp(t, a)

	r.expect(t, "create", "visible")
	w.RequestRepaint()
	r.expect(t, "repaint")
	w.Close()
	r.expect(t, "closerequest", "destroy")
	waitRun(t, done)
}

func TestResizeEventOrder(t *testing.T) {
	a, drivers := newTestApp(t)
	r := newRecorder()
	if _, err := a.NewWindow(r, Size(400, 300)); err != nil {
		t.Fatal(err)
	}
	done := runApp(t, a)
	drv := <-drivers
	r.expect(t, "create", "visible")

	drv.beginResize()
	drv.resizeTo(gpu.Extent{Width: 500, Height: 400})
	drv.resizeTo(gpu.Extent{Width: 600, Height: 450})
	drv.requestRepaint()
	drv.endResize()
	r.expect(t, "beginresize", "resize", "resize", "repaint", "endresize")

	drv.destroy()
	r.expect(t, "destroy")
	waitRun(t, done)
}

// backingRecorder samples the swapchain backing from the resize
// callbacks.
type backingRecorder struct {
	*recorder
	backings chan gpu.Extent
}

func (h *backingRecorder) OnResize(w *Window, e gpu.Extent) {
	h.backings <- w.swapchain.Backing()
	h.recorder.OnResize(w, e)
}

func (h *backingRecorder) OnEndResize(w *Window) {
	h.backings <- w.swapchain.Backing()
	h.recorder.OnEndResize(w)
}

func TestFlexBackingDuringDrag(t *testing.T) {
	a, drivers := newTestApp(t)
	r := &backingRecorder{recorder: newRecorder(), backings: make(chan gpu.Extent, 8)}
	if _, err := a.NewWindow(r, Size(400, 300)); err != nil {
		t.Fatal(err)
	}
	done := runApp(t, a)
	drv := <-drivers
	r.expect(t, "create", "visible")

	drv.beginResize()
	drv.resizeTo(gpu.Extent{Width: 900, Height: 700})
	r.expect(t, "beginresize", "resize")
	// Drag frames overprovision the backing by half.
	if got := <-r.backings; got != (gpu.Extent{Width: 1350, Height: 1050}) {
		t.Fatalf("backing during drag = %v, want 1350x1050", got)
	}
	// Shrinking within the flexed backing reuses it.
	drv.resizeTo(gpu.Extent{Width: 500, Height: 400})
	r.expect(t, "resize")
	if got := <-r.backings; got != (gpu.Extent{Width: 1350, Height: 1050}) {
		t.Fatalf("backing after shrink = %v, want 1350x1050", got)
	}
	drv.endResize()
	r.expect(t, "endresize")
	// Ending the drag snaps the backing to the window extent.
	if got := <-r.backings; got != (gpu.Extent{Width: 500, Height: 400}) {
		t.Fatalf("backing after drag = %v, want 500x400", got)
	}

	drv.destroy()
	r.expect(t, "destroy")
	waitRun(t, done)
}

// scaleRecorder samples the window's DPI scale at each resize.
type scaleRecorder struct {
	*recorder
	scales chan float32
}

func (h *scaleRecorder) OnResize(w *Window, e gpu.Extent) {
	h.scales <- w.DpiScale()
	h.recorder.OnResize(w, e)
}

func TestDpiScaleTracksResizes(t *testing.T) {
	a, drivers := newTestApp(t)
	r := &scaleRecorder{recorder: newRecorder(), scales: make(chan float32, 8)}
	if _, err := a.NewWindow(r, Size(400, 300)); err != nil {
		t.Fatal(err)
	}
	done := runApp(t, a)
	drv := <-drivers
	r.expect(t, "create", "visible")

	drv.resizeTo(gpu.Extent{Width: 500, Height: 400})
	r.expect(t, "resize")
	if got := <-r.scales; got != 1 {
		t.Fatalf("scale = %v, want 1", got)
	}
	// Moving to a 2x display doubles the factor.
	drv.rescale(2)
	r.expect(t, "resize")
	if got := <-r.scales; got != 2 {
		t.Fatalf("scale after rescale = %v, want 2", got)
	}
	// A zero DpiScale means unchanged.
	drv.rescale(0)
	r.expect(t, "resize")
	if got := <-r.scales; got != 2 {
		t.Fatalf("scale after zero-scale resize = %v, want 2", got)
	}

	drv.destroy()
	r.expect(t, "destroy")
	waitRun(t, done)
}

func TestDuplicateCreatePanics(t *testing.T) {
	a, _ := newTestApp(t)
	q := newEventQueue()
	drv := newHeadlessWindow(Config{Size: gpu.Extent{Width: 100, Height: 100}}, q)
	// A second creation for the same window is a programming error.
	q.push(CreateEvent{Extent: gpu.Extent{Width: 100, Height: 100}})
	q.close()
	w := &Window{app: a, drv: drv, q: q, scale: 1}
	a.ctl <- msgWindowCreated
	defer func() {
		if recover() == nil {
			t.Error("second CreateEvent did not panic")
		}
	}()
	w.run(BaseHandler{})
}

func TestCloseRequestDenied(t *testing.T) {
	a, _ := newTestApp(t)
	r := newRecorder()
	r.denyClose = true
	w, err := a.NewWindow(r)
	if err != nil {
		t.Fatal(err)
	}
	done := runApp(t, a)
	r.expect(t, "create", "visible")

	w.Close()
	r.expect(t, "closerequest")
	// The window survived the denied request.
	w.RequestRepaint()
	r.expect(t, "repaint")

	w.Destroy()
	r.expect(t, "destroy")
	waitRun(t, done)
}

func TestTwoWindowsIndependent(t *testing.T) {
	a, _ := newTestApp(t)
	r1 := newRecorder()
	r2 := newRecorder()
	w1, err := a.NewWindow(r1, Title("one"))
	if err != nil {
		t.Fatal(err)
	}
	w2, err := a.NewWindow(r2, Title("two"))
	if err != nil {
		t.Fatal(err)
	}
	done := runApp(t, a)
	r1.expect(t, "create", "visible")
	r2.expect(t, "create", "visible")

	// Closing one window must not stall the other.
	w1.Close()
	r1.expect(t, "closerequest", "destroy")
	for i := 0; i < 3; i++ {
		w2.RequestRepaint()
		r2.expect(t, "repaint")
	}

	w2.Close()
	r2.expect(t, "closerequest", "destroy")
	waitRun(t, done)
}

func TestWindowSpawnsWindow(t *testing.T) {
	a, _ := newTestApp(t)
	child := newRecorder()
	var parentWin *Window
	parent := &spawnHandler{recorder: newRecorder(), child: child}
	w, err := a.NewWindow(parent)
	if err != nil {
		t.Fatal(err)
	}
	parentWin = w
	done := runApp(t, a)
	parent.expect(t, "create", "visible")
	child.expect(t, "create", "visible")

	parentWin.Destroy()
	parent.expect(t, "destroy")
	// The app keeps running while the child lives.
	select {
	case <-done:
		t.Fatal("Run returned while a window was open")
	case <-time.After(50 * time.Millisecond):
	}
	parent.spawned.Destroy()
	child.expect(t, "destroy")
	waitRun(t, done)
}

// spawnHandler opens a child window from OnCreate.
type spawnHandler struct {
	*recorder
	child   Handler
	spawned *Window
}

func (h *spawnHandler) OnCreate(w *Window) {
	child, err := w.App().NewWindow(h.child, Title("child"))
	if err == nil {
		h.spawned = child
	}
	h.recorder.OnCreate(w)
}

func TestRunCancel(t *testing.T) {
	a, _ := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- a.Run(ctx)
	}()
	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("Run = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not observe cancellation")
	}
}

func TestPointerAndKeyDelivery(t *testing.T) {
	a, drivers := newTestApp(t)
	events := make(chan Event, 16)
	h := &inputHandler{events: events}
	if _, err := a.NewWindow(h); err != nil {
		t.Fatal(err)
	}
	done := runApp(t, a)
	drv := <-drivers

	drv.pointer(PointerEvent{Kind: PointerEnter, X: 1, Y: 2})
	drv.pointer(PointerEvent{Kind: PointerPress, Button: ButtonLeft, X: 1, Y: 2})
	drv.pointer(PointerEvent{Kind: PointerDoubleTap, Button: ButtonLeft, X: 1, Y: 2})
	drv.key(KeyEvent{Code: 0x41, Pressed: true})

	want := []Event{
		PointerEvent{Kind: PointerEnter, X: 1, Y: 2},
		PointerEvent{Kind: PointerPress, Button: ButtonLeft, X: 1, Y: 2},
		PointerEvent{Kind: PointerDoubleTap, Button: ButtonLeft, X: 1, Y: 2},
		KeyEvent{Code: 0x41, Pressed: true},
	}
	for i, wantE := range want {
		select {
		case got := <-events:
			if got != wantE {
				t.Errorf("event %d = %#v, want %#v", i, got, wantE)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}
	drv.destroy()
	waitRun(t, done)
}

type inputHandler struct {
	BaseHandler
	events chan Event
}

func (h *inputHandler) OnPointer(_ *Window, e PointerEvent) { h.events <- e }
func (h *inputHandler) OnKey(_ *Window, e KeyEvent)         { h.events <- e }
