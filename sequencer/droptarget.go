package sequencer

import (
	"math"

	"go-daw/debug"
)

// Span is the horizontal extent of one rendered chain item.
type Span struct {
	X, Width float64
}

// Mid is the horizontal midpoint
func (s Span) Mid() float64 { return s.X + s.Width/2 }

// Side is which side of the nearest item the pointer is on
type Side int

const (
	SideNone Side = iota
	SideBefore
	SideAfter
)

func (s Side) String() string {
	switch s {
	case SideBefore:
		return "before"
	case SideAfter:
		return "after"
	default:
		return "none"
	}
}

// DropTarget is a proposed insertion point.
type DropTarget struct {
	Index int
	Side  Side
}

// Insert returns the list index a drop should insert at.
func (d DropTarget) Insert() int {
	if d.Side == SideAfter {
		return d.Index + 1
	}
	return d.Index
}

// DropResolver tracks the insertion point during a drag. It never touches
// the chain; the drop handler reads Target when the item is released.
type DropResolver struct {
	target DropTarget
	active bool
}

// Over resolves the pointer at x against the rendered spans, in one pass.
func (r *DropResolver) Over(spans []Span, x float64) DropTarget {
	t := DropTarget{Index: 0, Side: SideBefore}
	best := math.Inf(1)
	for i, s := range spans {
		if d := math.Abs(x - s.Mid()); d < best {
			best = d
			t.Index = i
			if x > s.Mid() {
				t.Side = SideAfter
			} else {
				t.Side = SideBefore
			}
		}
	}
	r.target, r.active = t, true
	debug.LogEvery(20, "drop", "over x=%.0f -> %d %s", x, t.Index, t.Side)
	return t
}

// Target returns the last resolved point, if a drag is in progress.
func (r *DropResolver) Target() (DropTarget, bool) {
	return r.target, r.active
}

// Reset clears the candidate (drag end or leave).
func (r *DropResolver) Reset() {
	r.target, r.active = DropTarget{}, false
}
