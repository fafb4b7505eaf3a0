// SPDX-License-Identifier: Unlicense OR MIT

package text

import (
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/david7a68/plinth/gpu"
)

func testFace(t *testing.T) *Face {
	t.Helper()
	face, err := ParseFont(goregular.TTF)
	if err != nil {
		t.Fatal(err)
	}
	return face
}

func TestShapeBasic(t *testing.T) {
	s := NewShaper()
	face := testFace(t)
	run := s.Shape(face, 16, "hello")
	if len(run.Glyphs) != 5 {
		t.Fatalf("got %d glyphs, want 5", len(run.Glyphs))
	}
	if run.Advance <= 0 {
		t.Errorf("Advance = %f", run.Advance)
	}
	var last float32 = -1
	for i, g := range run.Glyphs {
		if g.X < last {
			t.Errorf("glyph %d at x=%f moved backwards", i, g.X)
		}
		last = g.X
		if g.Advance <= 0 {
			t.Errorf("glyph %d has advance %f", i, g.Advance)
		}
	}
}

func TestShapeEmpty(t *testing.T) {
	s := NewShaper()
	if run := s.Shape(testFace(t), 16, ""); len(run.Glyphs) != 0 {
		t.Errorf("got %d glyphs for empty string", len(run.Glyphs))
	}
	if run := s.Shape(nil, 16, "x"); len(run.Glyphs) != 0 {
		t.Errorf("got %d glyphs for nil face", len(run.Glyphs))
	}
}

func TestShapeCached(t *testing.T) {
	s := NewShaper()
	face := testFace(t)
	first := s.Shape(face, 16, "cached")
	second := s.Shape(face, 16, "cached")
	if len(first.Glyphs) != len(second.Glyphs) || first.Advance != second.Advance {
		t.Error("cache hit differs from miss")
	}
	// A different size is a different run.
	larger := s.Shape(face, 32, "cached")
	if larger.Advance <= first.Advance {
		t.Errorf("advance at 32px (%f) not larger than at 16px (%f)", larger.Advance, first.Advance)
	}
}

func TestShapeKerning(t *testing.T) {
	s := NewShaper()
	face := testFace(t)
	// Shaping, unlike naive advance summing, may tighten pairs such
	// as AV. At minimum the run must not be wider than the parts.
	av := s.Shape(face, 16, "AV")
	a := s.Shape(face, 16, "A")
	v := s.Shape(face, 16, "V")
	if av.Advance > a.Advance+v.Advance+0.01 {
		t.Errorf("AV (%f) wider than A (%f) + V (%f)", av.Advance, a.Advance, v.Advance)
	}
}

func TestQuads(t *testing.T) {
	s := NewShaper()
	run := s.Shape(testFace(t), 16, "ab")
	atlas := gpu.TextureKey{}.FromParts(1, 1)
	quads := Quads(run, 100, 50, gpu.Color{A: 1}, atlas, func(uint32) (GlyphPlacement, bool) {
		return GlyphPlacement{W: 8, H: 16, UW: 0.1, VH: 0.2}, true
	})
	if len(quads.Glyphs) != len(run.Glyphs) {
		t.Fatalf("got %d quads, want %d", len(quads.Glyphs), len(run.Glyphs))
	}
	if quads.Texture != atlas {
		t.Error("atlas texture not carried")
	}
	if quads.Glyphs[0].X != 100+run.Glyphs[0].X {
		t.Errorf("quad origin %f, want offset by 100", quads.Glyphs[0].X)
	}
	// Missing glyphs are skipped.
	none := Quads(run, 0, 0, gpu.Color{}, atlas, func(uint32) (GlyphPlacement, bool) {
		return GlyphPlacement{}, false
	})
	if len(none.Glyphs) != 0 {
		t.Errorf("got %d quads for a missing glyph", len(none.Glyphs))
	}
}
