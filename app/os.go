// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"errors"

	"github.com/david7a68/plinth/gpu"
)

// driver is the OS side of one window. A driver owns its event
// thread: all window state lives there, and these methods marshal
// requests to it, so they are safe to call from the handler.
//
// The driver delivers normalized events to the window's queue. The
// first event is always CreateEvent; DestroyEvent is the last, after
// which the driver closes the queue.
type driver interface {
	handle() gpu.WindowHandle
	setTitle(title string)
	show(shown bool)
	// requestRepaint schedules a RepaintEvent.
	requestRepaint()
	// requestClose delivers a CloseRequestEvent, as if the user
	// clicked the close button.
	requestClose()
	// destroy tears the OS window down unconditionally.
	destroy()
}

// transient reports whether a platform query error is worth
// retrying. Display configuration queries can fail spuriously while
// the display set is changing.
type transientError interface {
	error
	Transient() bool
}

// retryQuery runs query up to attempts times, stopping early on
// success or a non-transient error.
func retryQuery[T any](attempts int, query func() (T, error)) (T, error) {
	var (
		v   T
		err error
	)
	for i := 0; i < attempts; i++ {
		v, err = query()
		if err == nil {
			return v, nil
		}
		var te transientError
		if !(errors.As(err, &te) && te.Transient()) {
			return v, err
		}
	}
	return v, err
}
