package sequencer

import (
	"sort"

	"go-daw/audio"
	"go-daw/debug"
	"go-daw/midi"
)

// Aggregator merges note events from every input source into one
// active-notes snapshot and turns the difference between consecutive
// snapshots into attack and release calls on the bound tracks.
type Aggregator struct {
	notes midi.ActiveNotes

	// FixedVelocity plays every attack at full gain.
	FixedVelocity bool
}

func NewAggregator() *Aggregator {
	return &Aggregator{notes: midi.ActiveNotes{}}
}

// Notes returns the current snapshot. Callers must not modify it.
func (a *Aggregator) Notes() midi.ActiveNotes {
	return a.notes
}

// Apply folds e into the snapshot and dispatches the resulting edges.
// It returns the number of attack/release calls made.
func (a *Aggregator) Apply(e midi.Event, tracks []*Track, selected int) int {
	return a.Update(a.notes.With(e), tracks, selected)
}

// Disconnect drops a source, releasing everything it still held.
func (a *Aggregator) Disconnect(source string, tracks []*Track, selected int) int {
	if _, ok := a.notes[source]; !ok {
		return 0
	}
	n := a.Update(a.notes.Without(source), tracks, selected)
	debug.Log("input", "%s disconnected, %d releases", source, n)
	return n
}

// Update replaces the snapshot with next and dispatches, per source, an
// attack for each pitch that appeared and a release for each that went away.
func (a *Aggregator) Update(next midi.ActiveNotes, tracks []*Track, selected int) int {
	prev := a.notes
	a.notes = next

	calls := 0
	for _, src := range sources(prev, next) {
		before, after := prev[src], next[src]
		for _, t := range tracks {
			if !t.Listens(src, t.ID == selected) || t.Instrument == nil {
				continue
			}
			for _, p := range pitches(after) {
				if _, held := before[p]; !held {
					a.attack(t, p, after[p])
					calls++
				}
			}
			for _, p := range pitches(before) {
				if _, held := after[p]; !held {
					release(t, p)
					calls++
				}
			}
		}
	}
	return calls
}

// ReleaseFor releases every held note that t currently hears. The manager
// calls it before t stops listening (selection or binding change) so no
// voice is left hanging.
func (a *Aggregator) ReleaseFor(t *Track, selected bool) int {
	if t.Instrument == nil {
		return 0
	}
	calls := 0
	for _, src := range sources(a.notes, nil) {
		if !t.Listens(src, selected) {
			continue
		}
		for _, p := range pitches(a.notes[src]) {
			release(t, p)
			calls++
		}
	}
	return calls
}

func (a *Aggregator) attack(t *Track, pitch, velocity uint8) {
	gain := audio.Gain(velocity)
	if a.FixedVelocity {
		gain = 1
	}
	inst := t.Instrument
	inst.Kind.Attack(inst.Node.Ref(), audio.Frequency(int(pitch)), gain)
	debug.Log("input", "track %d attack %d vel=%d", t.ID, pitch, velocity)
}

func release(t *Track, pitch uint8) {
	inst := t.Instrument
	inst.Kind.Release(inst.Node.Ref(), audio.Frequency(int(pitch)))
	debug.Log("input", "track %d release %d", t.ID, pitch)
}

// sources returns the union of source ids, sorted for stable dispatch order.
func sources(a, b midi.ActiveNotes) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, m := range []midi.ActiveNotes{a, b} {
		for src := range m {
			if !seen[src] {
				seen[src] = true
				out = append(out, src)
			}
		}
	}
	sort.Strings(out)
	return out
}

func pitches(m map[uint8]uint8) []uint8 {
	out := make([]uint8, 0, len(m))
	for p := range m {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
