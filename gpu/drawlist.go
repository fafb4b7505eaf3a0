// SPDX-License-Identifier: Unlicense OR MIT

package gpu

import "iter"

// Rect is a textured, colored quad. The UV rectangle addresses the
// bound texture in normalized coordinates.
type Rect struct {
	X, Y, W, H   float32
	U, V, UW, VH float32
	Color        Color
	Texture      TextureKey
	Sampler      Sampler
}

// Glyph is one quad of a text run, positioned in pixels and
// addressing the glyph atlas in normalized coordinates.
type Glyph struct {
	X, Y, W, H   float32
	U, V, UW, VH float32
	Color        Color
}

// GlyphRun is a shaped sequence of glyphs sharing one atlas page.
type GlyphRun struct {
	Texture TextureKey
	Sampler Sampler
	Glyphs  []Glyph
}

// CommandKind discriminates decoded draw commands.
type CommandKind uint8

const (
	CmdBegin CommandKind = iota
	CmdClear
	CmdRects
	CmdChars
	CmdClose
)

// Command is one decoded entry of a finished draw list. Rects and
// Glyphs alias the list's storage and are valid until the next
// Begin. View and Clip are set on CmdBegin only.
type Command struct {
	Kind    CommandKind
	Color   Color
	Texture TextureKey
	Sampler Sampler
	Rects   []Rect
	Glyphs  []Glyph
	View    Bounds
	Clip    Bounds
}

type packedCmd struct {
	kind         CommandKind
	start, count uint32
	texture      TextureKey
	sampler      Sampler
	color        Color
}

type listState uint8

const (
	stateIdle listState = iota
	stateRecording
	stateClosed
)

// DrawList records one frame's draw commands into flat, reusable
// storage. Recording runs Begin, any number of Clear, DrawRect and
// DrawChars calls, then Finish. Lists are reused across frames
// without reallocating.
type DrawList struct {
	rects  []Rect
	glyphs []Glyph
	cmds   []packedCmd
	state  listState

	// Render target bounds and clip for the frame being recorded.
	view Bounds
	clip Bounds

	// Pending same-texture rect batch.
	batchStart   uint32
	batchTexture TextureKey
	batchSampler Sampler
	batchOpen    bool
}

// Begin starts recording, discarding any previous contents. view is
// the render target's logical bounds and clip restricts drawing to a
// rectangle within it; both are carried on the CmdBegin command.
func (l *DrawList) Begin(view, clip Bounds) {
	l.rects = l.rects[:0]
	l.glyphs = l.glyphs[:0]
	l.cmds = l.cmds[:0]
	l.view = view
	l.clip = clip
	l.batchOpen = false
	l.state = stateRecording
	l.cmds = append(l.cmds, packedCmd{kind: CmdBegin})
}

// Clear records a clear to color. A clear recorded before any draw
// replaces a directly preceding clear instead of accumulating.
func (l *DrawList) Clear(color Color) {
	l.mustRecord("Clear")
	l.flushBatch()
	if n := len(l.cmds); n > 0 && l.cmds[n-1].kind == CmdClear {
		l.cmds[n-1].color = color
		return
	}
	l.cmds = append(l.cmds, packedCmd{kind: CmdClear, color: color})
}

// DrawRect records r. Consecutive rects with the same texture and
// sampler coalesce into a single command.
func (l *DrawList) DrawRect(r Rect) {
	l.mustRecord("DrawRect")
	if l.batchOpen && (r.Texture != l.batchTexture || r.Sampler != l.batchSampler) {
		l.flushBatch()
	}
	if !l.batchOpen {
		l.batchOpen = true
		l.batchStart = uint32(len(l.rects))
		l.batchTexture = r.Texture
		l.batchSampler = r.Sampler
	}
	l.rects = append(l.rects, r)
}

// DrawChars records a glyph run.
func (l *DrawList) DrawChars(run GlyphRun) {
	l.mustRecord("DrawChars")
	if len(run.Glyphs) == 0 {
		return
	}
	l.flushBatch()
	start := uint32(len(l.glyphs))
	l.glyphs = append(l.glyphs, run.Glyphs...)
	l.cmds = append(l.cmds, packedCmd{
		kind:    CmdChars,
		start:   start,
		count:   uint32(len(run.Glyphs)),
		texture: run.Texture,
		sampler: run.Sampler,
	})
}

// Finish flushes the pending batch and closes the list. Finishing a
// closed list is a no-op, so a list can be armed closed before its
// first frame.
func (l *DrawList) Finish() {
	if l.state == stateClosed {
		return
	}
	l.mustRecord("Finish")
	l.flushBatch()
	l.cmds = append(l.cmds, packedCmd{kind: CmdClose})
	l.state = stateClosed
}

// Discard abandons the current recording, leaving the list closed
// and empty.
func (l *DrawList) Discard() {
	l.rects = l.rects[:0]
	l.glyphs = l.glyphs[:0]
	l.cmds = l.cmds[:0]
	l.batchOpen = false
	l.state = stateClosed
}

// Closed reports whether the list is ready for submission.
func (l *DrawList) Closed() bool {
	return l.state == stateClosed
}

// Commands iterates over the recorded commands of a closed list,
// decoding each lazily. The yielded slices alias the list.
func (l *DrawList) Commands() iter.Seq[Command] {
	if l.state != stateClosed {
		panic("gpu: Commands on an unfinished draw list")
	}
	return func(yield func(Command) bool) {
		for _, c := range l.cmds {
			cmd := Command{
				Kind:    c.kind,
				Color:   c.color,
				Texture: c.texture,
				Sampler: c.sampler,
			}
			switch c.kind {
			case CmdBegin:
				cmd.View = l.view
				cmd.Clip = l.clip
			case CmdRects:
				cmd.Rects = l.rects[c.start : c.start+c.count]
			case CmdChars:
				cmd.Glyphs = l.glyphs[c.start : c.start+c.count]
			}
			if !yield(cmd) {
				return
			}
		}
	}
}

func (l *DrawList) flushBatch() {
	if !l.batchOpen {
		return
	}
	l.cmds = append(l.cmds, packedCmd{
		kind:    CmdRects,
		start:   l.batchStart,
		count:   uint32(len(l.rects)) - l.batchStart,
		texture: l.batchTexture,
		sampler: l.batchSampler,
	})
	l.batchOpen = false
}

func (l *DrawList) mustRecord(op string) {
	if l.state != stateRecording {
		panic("gpu: " + op + " outside Begin/Finish")
	}
}
