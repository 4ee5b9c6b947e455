package sequencer

import "go-daw/debug"

// DefaultNoteLength is the length in steps of a note created by double-click.
const DefaultNoteLength = 4

// Geometry maps device coordinates onto the note grid.
type Geometry struct {
	GridSize  int // pixels per step and per pitch row
	Threshold int // edge zone width for resizing

	OriginX, OriginY int // grid container position on screen
	ScrollX, ScrollY int
	Invert           bool // pitch increases upward
	Height           int  // grid height in pixels, used when Invert is set
}

// DefaultGeometry is a 16 px grid with an 8 px edge zone covering all 128 pitches.
func DefaultGeometry() Geometry {
	return Geometry{GridSize: 16, Threshold: 8, Invert: true, Height: 128 * 16}
}

// ToGrid converts device coordinates to grid-space pixels.
func (g Geometry) ToGrid(px, py int) (x, y int) {
	x = px - g.OriginX + g.ScrollX
	y = py - g.OriginY + g.ScrollY
	if g.Invert {
		y = g.Height - 1 - y
	}
	return x, y
}

// Cell returns the step and pitch under grid-space point (x, y).
func (g Geometry) Cell(x, y int) (step, pitch int) {
	return floorDiv(x, g.GridSize), floorDiv(y, g.GridSize)
}

// HitTest returns the note under (x, y) in grid space. Later notes win,
// matching draw order.
func (g Geometry) HitTest(notes []*TrackPatternNote, x, y int) *TrackPatternNote {
	row := floorDiv(y, g.GridSize)
	for i := len(notes) - 1; i >= 0; i-- {
		n := notes[i]
		if n.NoteIndex != row {
			continue
		}
		if x >= n.StartTime*g.GridSize && x <= (n.StartTime+n.NoteLength)*g.GridSize {
			return n
		}
	}
	return nil
}

// Zone says what dragging a note from a given point does.
type Zone int

const (
	ZoneMove Zone = iota
	ZoneStart
	ZoneEnd
)

func (z Zone) String() string {
	switch z {
	case ZoneStart:
		return "start"
	case ZoneEnd:
		return "end"
	default:
		return "move"
	}
}

// ZoneAt classifies x against n: within Threshold of an edge resizes that
// edge, strictly inside moves. On a note narrower than two thresholds the
// nearer edge wins.
func (g Geometry) ZoneAt(n *TrackPatternNote, x int) Zone {
	left := x - n.StartTime*g.GridSize
	right := (n.StartTime+n.NoteLength)*g.GridSize - x
	switch {
	case left <= g.Threshold && left <= right:
		return ZoneStart
	case right <= g.Threshold:
		return ZoneEnd
	case left <= g.Threshold:
		return ZoneStart
	}
	return ZoneMove
}

// PointerKind is the type of a piano-roll pointer event
type PointerKind int

const (
	PointerMove PointerKind = iota
	PointerDown
	PointerUp
	PointerDoubleClick
)

// PointerEvent is a pointer event in device coordinates.
type PointerEvent struct {
	Kind PointerKind
	X, Y int
}

type drag struct {
	note  *TrackPatternNote
	zone  Zone
	grabX int // pointer x minus note start, in pixels
}

// PianoRoll turns pointer gestures into scheduler edits.
type PianoRoll struct {
	Geometry
	// Resizing is set while the pointer hovers over (or drags) a note edge.
	Resizing bool

	drag *drag
}

func NewPianoRoll(g Geometry) *PianoRoll {
	return &PianoRoll{Geometry: g}
}

// Dragging reports whether a note is grabbed.
func (r *PianoRoll) Dragging() bool { return r.drag != nil }

// Handle applies one pointer event to pattern p of track t.
func (r *PianoRoll) Handle(ev PointerEvent, t *Track, p *TrackPattern, s *Scheduler) {
	if p == nil {
		r.drag = nil
		return
	}
	x, y := r.ToGrid(ev.X, ev.Y)
	hit := r.HitTest(p.Notes, x, y)

	switch ev.Kind {
	case PointerDoubleClick:
		r.drag = nil
		if hit != nil {
			s.Delete(p, hit)
			debug.Log("sched", "track %d: note deleted", t.ID)
			return
		}
		step, pitch := r.Cell(x, y)
		s.Create(t, p, pitch, step, DefaultNoteLength)

	case PointerDown:
		if hit == nil {
			r.drag = nil
			return
		}
		r.drag = &drag{note: hit, zone: r.ZoneAt(hit, x), grabX: x - hit.StartTime*r.GridSize}
		r.Resizing = r.drag.zone != ZoneMove

	case PointerMove:
		if r.drag == nil {
			r.Resizing = hit != nil && r.ZoneAt(hit, x) != ZoneMove
			return
		}
		r.dragTo(x, y, t, p, s)

	case PointerUp:
		if r.drag != nil {
			r.dragTo(x, y, t, p, s)
		}
		r.drag = nil
		r.Resizing = hit != nil && r.ZoneAt(hit, x) != ZoneMove
	}
}

func (r *PianoRoll) dragTo(x, y int, t *Track, p *TrackPattern, s *Scheduler) {
	d := r.drag
	if p.IndexOf(d.note) < 0 {
		r.drag = nil
		return
	}
	n := d.note
	g := r.GridSize
	switch d.zone {
	case ZoneMove:
		start := floorDiv(x-d.grabX+g/2, g)
		if start < 0 {
			start = 0
		}
		s.Move(t, p, n, floorDiv(y, g), start)
	case ZoneStart:
		end := n.StartTime + n.NoteLength
		start := floorDiv(x+g/2, g)
		s.Resize(t, p, n, start, end-start)
	case ZoneEnd:
		end := floorDiv(x+g/2, g)
		s.Resize(t, p, n, n.StartTime, end-n.StartTime)
	}
}

func floorDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}
