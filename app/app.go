// SPDX-License-Identifier: Unlicense OR MIT

/*
Package app runs native windows over the gpu package.

Each window is served by two concurrent loops: an event thread that
owns the OS window and pumps its messages into a queue, and a
handler goroutine that drains the queue, drives the swapchain and
invokes the application's Handler. An App ties the windows to one
shared GPU device and runs until the last window closes.

	a, err := app.New(gpu.Config{})
	if err != nil {
		log.Fatal(err)
	}
	a.NewWindow(&myHandler{}, app.Title("hello"))
	if err := a.Run(context.Background()); err != nil {
		log.Fatal(err)
	}
*/
package app

import (
	"context"

	"github.com/david7a68/plinth/gpu"
	"github.com/david7a68/plinth/internal/debug"
)

type ctlMsg uint8

const (
	msgWindowCreated ctlMsg = iota
	msgWindowClosed
)

// App owns the GPU device and the set of open windows.
type App struct {
	device *gpu.Device
	ctl    chan ctlMsg

	// Swapped by tests to drive windows headlessly.
	newDriver func(Config, *eventQueue) (driver, error)
}

// New initializes the GPU device and returns an application with no
// windows.
func New(cfg gpu.Config) (*App, error) {
	device, err := gpu.NewDevice(cfg)
	if err != nil {
		return nil, err
	}
	return &App{
		device:    device,
		ctl:       make(chan ctlMsg, 64),
		newDriver: newPlatformWindow,
	}, nil
}

// Device returns the shared GPU device.
func (a *App) Device() *gpu.Device {
	return a.device
}

// NewWindow opens a window served by h. It may be called before Run
// and from handler callbacks, so windows can spawn windows.
func (a *App) NewWindow(h Handler, opts ...Option) (*Window, error) {
	cfg := buildConfig(opts)
	q := newEventQueue()
	drv, err := a.newDriver(cfg, q)
	if err != nil {
		return nil, err
	}
	w := &Window{app: a, drv: drv, q: q, cfg: cfg, scale: 1}
	a.ctl <- msgWindowCreated
	debug.Log().Info().
		Str("title", cfg.Title).
		Log("window created")
	go w.run(h)
	return w, nil
}

// Run blocks until every window has closed, then releases the
// device. At least one window must be created, before or during the
// run. Cancelling ctx stops the loop without waiting for windows.
func (a *App) Run(ctx context.Context) error {
	count := 0
	opened := false
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-a.ctl:
			switch msg {
			case msgWindowCreated:
				count++
				opened = true
			case msgWindowClosed:
				count--
				debug.Log().Info().
					Int("remaining", count).
					Log("window closed")
			}
		}
		if opened && count == 0 {
			return a.device.Close()
		}
	}
}

func (a *App) windowClosed() {
	a.ctl <- msgWindowClosed
}
