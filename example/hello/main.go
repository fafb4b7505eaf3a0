// SPDX-License-Identifier: Unlicense OR MIT

// A simple window that clears to a dark background and draws a few
// colored rectangles and a shaped line of text.
package main

import (
	"context"
	"log"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/david7a68/plinth/app"
	"github.com/david7a68/plinth/gpu"
	"github.com/david7a68/plinth/text"
)

func main() {
	a, err := app.New(gpu.Config{})
	if err != nil {
		log.Fatal(err)
	}
	face, err := text.ParseFont(goregular.TTF)
	if err != nil {
		log.Fatal(err)
	}
	h := &hello{shaper: text.NewShaper(), face: face}
	if _, err := a.NewWindow(h, app.Title("hello, plinth"), app.Size(640, 480)); err != nil {
		log.Fatal(err)
	}
	if err := a.Run(context.Background()); err != nil {
		log.Fatal(err)
	}
}

type hello struct {
	app.BaseHandler
	shaper *text.Shaper
	face   *text.Face
}

func (h *hello) OnCreate(w *app.Window) {
	w.RequestRepaint()
}

func (h *hello) OnRepaint(w *app.Window, canvas *gpu.DrawList, _ app.PresentTiming) {
	canvas.Clear(gpu.Color{R: 0.1, G: 0.1, B: 0.12, A: 1})
	for i := 0; i < 3; i++ {
		f := float32(i)
		// The zero texture key is the device's white default, so
		// solid-color rectangles need no texture of their own.
		canvas.DrawRect(gpu.Rect{
			X: 40 + 120*f, Y: 60, W: 100, H: 100,
			UW: 1, VH: 1,
			Color: gpu.Color{R: 1 - 0.3*f, G: 0.3 * f, B: 0.5, A: 1},
		})
	}
	run := h.shaper.Shape(h.face, 18, "hello, plinth")
	canvas.DrawChars(text.Quads(run, 40, 220, gpu.Color{R: 1, G: 1, B: 1, A: 1}, gpu.TextureKey{},
		func(uint32) (text.GlyphPlacement, bool) {
			// Without a rasterized atlas, stand in with small
			// fixed-size quads.
			return text.GlyphPlacement{W: 8, H: 14, UW: 1, VH: 1}, true
		}))
}

func (h *hello) OnResize(w *app.Window, _ gpu.Extent) {
	w.RequestRepaint()
}
