// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"time"

	"github.com/david7a68/plinth/gpu"
)

// Event is the interface for normalized window events. The event
// thread translates raw OS messages into these before handing them
// to the window's handler.
type Event interface {
	ImplementsEvent()
}

// CreateEvent is always the first event a window delivers. The
// window is not yet visible.
type CreateEvent struct {
	Extent gpu.Extent
}

// CloseRequestEvent reports that the user asked to close the
// window. The window is only destroyed if the handler agrees.
type CloseRequestEvent struct{}

// DestroyEvent is the last event a window delivers. The OS window
// is gone once it arrives.
type DestroyEvent struct{}

// VisibleEvent reports the window being shown or hidden.
type VisibleEvent struct {
	Shown bool
}

// BeginResizeEvent marks the start of an interactive resize.
type BeginResizeEvent struct{}

// ResizeEvent reports a new client area size. During an interactive
// resize it arrives between BeginResizeEvent and EndResizeEvent.
// DpiScale is the display scale factor, or 0 when unchanged.
type ResizeEvent struct {
	Extent   gpu.Extent
	DpiScale float32
}

// EndResizeEvent marks the end of an interactive resize.
type EndResizeEvent struct{}

// RepaintEvent asks the window to produce a frame.
type RepaintEvent struct {
	Timing PresentTiming
}

// PresentTiming estimates when the frame being requested will reach
// the screen.
type PresentTiming struct {
	// Target is the estimated presentation time.
	Target time.Time
	// Refresh is the display refresh interval.
	Refresh time.Duration
}

// PointerKind discriminates pointer events.
type PointerKind uint8

const (
	PointerMove PointerKind = iota
	PointerEnter
	PointerLeave
	PointerPress
	PointerRelease
	PointerDoubleTap
	PointerScroll
)

// PointerButton identifies a mouse button.
type PointerButton uint8

const (
	ButtonNone PointerButton = iota
	ButtonLeft
	ButtonRight
	ButtonMiddle
)

// PointerEvent reports pointer motion, buttons and scrolling in
// client coordinates.
type PointerEvent struct {
	Kind    PointerKind
	X, Y    float32
	Button  PointerButton
	ScrollX float32
	ScrollY float32
}

// KeyEvent reports a key press or release by virtual key code.
type KeyEvent struct {
	Code    uint32
	Pressed bool
}

func (CreateEvent) ImplementsEvent()       {}
func (CloseRequestEvent) ImplementsEvent() {}
func (DestroyEvent) ImplementsEvent()      {}
func (VisibleEvent) ImplementsEvent()      {}
func (BeginResizeEvent) ImplementsEvent()  {}
func (ResizeEvent) ImplementsEvent()       {}
func (EndResizeEvent) ImplementsEvent()    {}
func (RepaintEvent) ImplementsEvent()      {}
func (PointerEvent) ImplementsEvent()      {}
func (KeyEvent) ImplementsEvent()          {}
