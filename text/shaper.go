// SPDX-License-Identifier: Unlicense OR MIT

/*
Package text shapes strings into positioned glyph runs for the draw
list's character command.

Shaping goes through go-text/typesetting's HarfBuzz implementation,
so kerning, ligatures and complex scripts come out right. Shaped
runs are cached in a fixed-capacity LRU keyed by face, size and
content.
*/
package text

import (
	"bytes"
	"sync"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"

	"github.com/david7a68/plinth/gpu"
	"github.com/david7a68/plinth/internal/lru"
)

// Face is a parsed font ready for shaping. It is safe for
// concurrent use.
type Face struct {
	fnt *font.Font
}

// ParseFont parses TTF or OTF font data.
func ParseFont(data []byte) (*Face, error) {
	f, err := font.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return &Face{fnt: f.Font}, nil
}

// ShapedGlyph is one glyph of a shaped run, positioned relative to
// the run origin in pixels.
type ShapedGlyph struct {
	ID      uint32
	Cluster int
	X, Y    float32
	Advance float32
}

// Run is a shaped string. Advance is the total horizontal extent.
type Run struct {
	Glyphs  []ShapedGlyph
	Advance float32
}

type runKey struct {
	face *Face
	size fixed.Int26_6
	text string
}

// cacheSize bounds the shaped-run cache.
const cacheSize = 1024

// Shaper shapes strings. It is safe for concurrent use; shaping
// state is pooled and the run cache is locked.
type Shaper struct {
	pool sync.Pool

	mu    sync.Mutex
	cache *lru.Cache[runKey, Run]
}

// NewShaper returns a shaper with an empty run cache.
func NewShaper() *Shaper {
	return &Shaper{
		pool: sync.Pool{
			New: func() any {
				return &shaping.HarfbuzzShaper{}
			},
		},
		cache: lru.New[runKey, Run](cacheSize),
	}
}

// Shape lays out text in face at size pixels, left to right.
// Repeated calls with the same arguments hit the cache.
func (s *Shaper) Shape(face *Face, size float32, text string) Run {
	if face == nil || text == "" {
		return Run{}
	}
	key := runKey{face: face, size: toFixed(size), text: text}
	s.mu.Lock()
	if r, ok := s.cache.Get(key); ok {
		run := *r
		s.mu.Unlock()
		return run
	}
	s.mu.Unlock()

	run := s.shape(face, key.size, text)

	s.mu.Lock()
	s.cache.Insert(key, run)
	s.mu.Unlock()
	return run
}

func (s *Shaper) shape(face *Face, size fixed.Int26_6, text string) Run {
	runes := []rune(text)
	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      font.NewFace(face.fnt),
		Size:      size,
		Script:    detectScript(runes),
		Language:  language.NewLanguage("en"),
	}
	hb := s.pool.Get().(*shaping.HarfbuzzShaper)
	output := hb.Shape(input)
	s.pool.Put(hb)

	glyphs := make([]ShapedGlyph, len(output.Glyphs))
	var x float32
	for i, g := range output.Glyphs {
		adv := fromFixed(g.Advance)
		glyphs[i] = ShapedGlyph{
			ID:      uint32(g.GlyphID),
			Cluster: g.TextIndex(),
			X:       x + fromFixed(g.XOffset),
			Y:       fromFixed(g.YOffset),
			Advance: adv,
		}
		x += adv
	}
	return Run{Glyphs: glyphs, Advance: x}
}

// GlyphPlacement locates one glyph in an atlas texture: the quad
// size in pixels and the normalized UV rectangle.
type GlyphPlacement struct {
	W, H         float32
	U, V, UW, VH float32
}

// Quads converts a shaped run into a draw-list glyph run placed at
// (x, y). The place function resolves each glyph against the atlas;
// glyphs it reports missing are skipped.
func Quads(run Run, x, y float32, color gpu.Color, atlas gpu.TextureKey, place func(id uint32) (GlyphPlacement, bool)) gpu.GlyphRun {
	out := gpu.GlyphRun{
		Texture: atlas,
		Sampler: gpu.SamplerLinear,
	}
	for _, g := range run.Glyphs {
		p, ok := place(g.ID)
		if !ok {
			continue
		}
		out.Glyphs = append(out.Glyphs, gpu.Glyph{
			X: x + g.X, Y: y + g.Y,
			W: p.W, H: p.H,
			U: p.U, V: p.V, UW: p.UW, VH: p.VH,
			Color: color,
		})
	}
	return out
}

func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		switch r {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}

func toFixed(v float32) fixed.Int26_6 {
	return fixed.Int26_6(v * 64)
}

func fromFixed(v fixed.Int26_6) float32 {
	return float32(v) / 64
}
