package sequencer

import (
	"strings"

	"go-daw/audio"
	"go-daw/debug"
)

// InstrumentSlot addresses the instrument in SetParam; effects use their index.
const InstrumentSlot = -1

// Chain keeps each track's graph wiring in step with its instrument and
// effect list. Every structural change ends in rewire.
type Chain struct {
	graph audio.Graph
}

func NewChain(g audio.Graph) *Chain {
	return &Chain{graph: g}
}

// SetInstrument builds an instrument of tag and replaces the current one,
// disposing the old node. Unknown tags are ignored without touching the graph.
func (c *Chain) SetInstrument(t *Track, tag, name string) bool {
	kind, ok := audio.Lookup(audio.RoleInstrument, tag)
	if !ok {
		debug.Log("chain", "track %d: ignoring instrument %q", t.ID, tag)
		return false
	}
	node := audio.Own(kind.Build(c.graph))
	if node == nil {
		debug.Log("chain", "track %d: graph refused instrument %q", t.ID, tag)
		return false
	}
	if name == "" {
		name = kind.Name
	}

	if t.Instrument != nil {
		t.Instrument.Node.Dispose()
	}
	t.Instrument = &TrackInstrument{Kind: kind, Name: name, Node: node}
	debug.Log("chain", "track %d: instrument %s", t.ID, tag)
	c.rewire(t)
	return true
}

// RemoveInstrument disposes the instrument, leaving the channel unfed.
func (c *Chain) RemoveInstrument(t *Track) bool {
	if t.Instrument == nil {
		return false
	}
	t.Instrument.Node.Dispose()
	t.Instrument = nil
	debug.Log("chain", "track %d: instrument removed", t.ID)
	c.rewire(t)
	return true
}

// InsertEffect builds an effect of tag at index, clamped to [0, len].
func (c *Chain) InsertEffect(t *Track, index int, tag, name string) bool {
	kind, ok := audio.Lookup(audio.RoleEffect, tag)
	if !ok {
		debug.Log("chain", "track %d: ignoring effect %q", t.ID, tag)
		return false
	}
	node := audio.Own(kind.Build(c.graph))
	if node == nil {
		debug.Log("chain", "track %d: graph refused effect %q", t.ID, tag)
		return false
	}
	if name == "" {
		name = kind.Name
	}

	index = clamp(index, 0, len(t.Effects))
	fx := &TrackEffect{Kind: kind, Name: name, Node: node}
	t.Effects = append(t.Effects, nil)
	copy(t.Effects[index+1:], t.Effects[index:])
	t.Effects[index] = fx
	debug.Log("chain", "track %d: effect %s at %d", t.ID, tag, index)
	c.rewire(t)
	return true
}

// RemoveEffect disposes the effect at index.
func (c *Chain) RemoveEffect(t *Track, index int) bool {
	if index < 0 || index >= len(t.Effects) {
		return false
	}
	t.Effects[index].Node.Dispose()
	t.Effects = append(t.Effects[:index], t.Effects[index+1:]...)
	debug.Log("chain", "track %d: effect %d removed", t.ID, index)
	c.rewire(t)
	return true
}

// MoveEffect moves the effect at from to the insertion point to, where to
// is an index into the list as it was before the move (what the drop
// resolver reports).
func (c *Chain) MoveEffect(t *Track, from, to int) bool {
	n := len(t.Effects)
	if from < 0 || from >= n {
		return false
	}
	to = clamp(to, 0, n)
	if to > from {
		to--
	}
	if to == from {
		return false
	}
	fx := t.Effects[from]
	t.Effects = append(t.Effects[:from], t.Effects[from+1:]...)
	t.Effects = append(t.Effects, nil)
	copy(t.Effects[to+1:], t.Effects[to:])
	t.Effects[to] = fx
	debug.Log("chain", "track %d: effect %d -> %d", t.ID, from, to)
	c.rewire(t)
	return true
}

// SetParam sets a dotted attribute ("oscillator.type") on the instrument
// (slot InstrumentSlot) or the effect at slot.
func (c *Chain) SetParam(t *Track, slot int, name string, value any) bool {
	var ref audio.Ref
	switch {
	case slot == InstrumentSlot && t.Instrument != nil:
		ref = t.Instrument.Node.Ref()
	case slot >= 0 && slot < len(t.Effects):
		ref = t.Effects[slot].Node.Ref()
	}
	update := AttributeUpdate(name, value)
	if !ref.Valid() || update == nil {
		return false
	}
	ref.Set(update)
	return true
}

// Teardown disposes every node the track owns: effects, then the
// instrument, then the channel. Notes must already be cancelled.
func (c *Chain) Teardown(t *Track) {
	for _, fx := range t.Effects {
		fx.Node.Dispose()
	}
	t.Effects = nil
	if t.Instrument != nil {
		t.Instrument.Node.Dispose()
		t.Instrument = nil
	}
	t.Channel.Dispose()
	debug.Log("chain", "track %d: torn down", t.ID)
}

// rewire drops every outgoing connection of the instrument and effects and
// reconnects instrument -> effects... -> channel. Without an instrument
// nothing is connected.
func (c *Chain) rewire(t *Track) {
	if t.Instrument != nil {
		t.Instrument.Node.Ref().DisconnectAll()
	}
	for _, fx := range t.Effects {
		fx.Node.Ref().DisconnectAll()
	}
	if t.Instrument == nil {
		return
	}

	prev := t.Instrument.Node.Ref()
	for _, fx := range t.Effects {
		next := fx.Node.Ref()
		prev.Connect(next)
		prev = next
	}
	prev.Connect(t.Channel.Ref())
}

// AttributeUpdate turns "a.b.c" = v into {"a": {"b": {"c": v}}}.
func AttributeUpdate(name string, value any) audio.Params {
	if name == "" {
		return nil
	}
	parts := strings.Split(name, ".")
	p := audio.Params{parts[len(parts)-1]: value}
	for i := len(parts) - 2; i >= 0; i-- {
		p = audio.Params{parts[i]: p}
	}
	return p
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
