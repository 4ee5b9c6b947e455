package sequencer

import (
	"reflect"
	"testing"

	"go-daw/audio/audiotest"
	"go-daw/midi"
)

func TestEdgeTriggering(t *testing.T) {
	g := audiotest.NewGraph()
	tr := newTestTrack(t, g, 1)
	NewChain(g).SetInstrument(tr, "sampler", "")
	inst := fake(tr.Instrument.Node.Ref())
	tracks := []*Track{tr}

	a := NewAggregator()
	frames := []struct {
		notes    midi.ActiveNotes
		attacks  int
		releases int
	}{
		{midi.ActiveNotes{}, 0, 0},
		{midi.ActiveNotes{"kb": {60: 100}}, 1, 0},
		{midi.ActiveNotes{"kb": {60: 100}}, 1, 0},
		{midi.ActiveNotes{"kb": {}}, 1, 1},
	}
	for i, f := range frames {
		a.Update(f.notes, tracks, tr.ID)
		if len(inst.Attacks) != f.attacks || len(inst.Releases) != f.releases {
			t.Fatalf("frame %d: attacks=%d releases=%d, want %d/%d",
				i, len(inst.Attacks), len(inst.Releases), f.attacks, f.releases)
		}
	}
	if f := inst.Attacks[0]; f < 261.62 || f > 261.64 {
		t.Errorf("attack frequency = %v", f)
	}
}

func TestReleaseArgumentShape(t *testing.T) {
	tests := []struct {
		tag  string
		want []float64
	}{
		{"synth", nil},
		{"sampler", []float64{440}},
	}
	for _, tt := range tests {
		g := audiotest.NewGraph()
		tr := newTestTrack(t, g, 1)
		NewChain(g).SetInstrument(tr, tt.tag, "")
		a := NewAggregator()
		a.Apply(midi.Event{Source: "kb", Type: midi.NoteOn, Note: 69, Velocity: 127}, []*Track{tr}, 1)
		a.Apply(midi.Event{Source: "kb", Type: midi.NoteOff, Note: 69}, []*Track{tr}, 1)

		rel := fake(tr.Instrument.Node.Ref()).Releases
		if len(rel) != 1 || !reflect.DeepEqual(rel[0], tt.want) {
			t.Errorf("%s release args = %v, want %v", tt.tag, rel, tt.want)
		}
	}
}

func TestInputBinding(t *testing.T) {
	g := audiotest.NewGraph()
	c := NewChain(g)
	bound := newTestTrack(t, g, 1)
	bound.MIDIInputID = "port-a"
	free := newTestTrack(t, g, 2)
	other := newTestTrack(t, g, 3)
	for _, tr := range []*Track{bound, free, other} {
		c.SetInstrument(tr, "synth", "")
	}
	tracks := []*Track{bound, free, other}
	a := NewAggregator()

	a.Apply(midi.Event{Source: "port-a", Type: midi.NoteOn, Note: 60, Velocity: 90}, tracks, free.ID)
	a.Apply(midi.Event{Source: midi.KeyboardSource, Type: midi.NoteOn, Note: 64, Velocity: 90}, tracks, free.ID)

	count := func(tr *Track) int { return len(fake(tr.Instrument.Node.Ref()).Attacks) }
	if got := count(bound); got != 1 {
		t.Errorf("bound track attacks = %d, want 1", got)
	}
	if got := count(free); got != 2 {
		t.Errorf("selected unbound track attacks = %d, want 2", got)
	}
	if got := count(other); got != 0 {
		t.Errorf("unselected unbound track attacks = %d, want 0", got)
	}
}

func TestFixedVelocity(t *testing.T) {
	for _, fixed := range []bool{false, true} {
		g := audiotest.NewGraph()
		tr := newTestTrack(t, g, 1)
		NewChain(g).SetInstrument(tr, "synth", "")
		g.Reset()

		a := NewAggregator()
		a.FixedVelocity = fixed
		a.Apply(midi.Event{Source: "kb", Type: midi.NoteOn, Note: 60, Velocity: 127 / 2}, []*Track{tr}, 1)

		want := "attack synth#2 261.63 0.50"
		if fixed {
			want = "attack synth#2 261.63 1.00"
		}
		if got := g.Ops("attack"); len(got) != 1 || got[0] != want {
			t.Errorf("fixed=%v: %v, want %s", fixed, got, want)
		}
	}
}

func TestDisconnectReleasesHeldNotes(t *testing.T) {
	g := audiotest.NewGraph()
	tr := newTestTrack(t, g, 1)
	NewChain(g).SetInstrument(tr, "sampler", "")
	a := NewAggregator()
	tracks := []*Track{tr}

	a.Apply(midi.Event{Source: "port-a", Type: midi.NoteOn, Note: 60, Velocity: 100}, tracks, 1)
	a.Apply(midi.Event{Source: "port-a", Type: midi.NoteOn, Note: 67, Velocity: 100}, tracks, 1)
	a.Apply(midi.Event{Source: "kb", Type: midi.NoteOn, Note: 72, Velocity: 100}, tracks, 1)

	if n := a.Disconnect("port-a", tracks, 1); n != 2 {
		t.Fatalf("releases = %d, want 2", n)
	}
	if _, ok := a.Notes()["port-a"]; ok {
		t.Fatal("source still present")
	}
	if len(a.Notes()["kb"]) != 1 {
		t.Fatal("other source affected")
	}
	if a.Disconnect("port-a", tracks, 1) != 0 {
		t.Fatal("second disconnect should do nothing")
	}
}

func TestReleaseFor(t *testing.T) {
	g := audiotest.NewGraph()
	tr := newTestTrack(t, g, 1)
	NewChain(g).SetInstrument(tr, "sampler", "")
	a := NewAggregator()
	a.Apply(midi.Event{Source: "kb", Type: midi.NoteOn, Note: 60, Velocity: 100}, []*Track{tr}, 1)

	if n := a.ReleaseFor(tr, false); n != 0 {
		t.Fatalf("unselected unbound track released %d", n)
	}
	if n := a.ReleaseFor(tr, true); n != 1 {
		t.Fatalf("released %d, want 1", n)
	}
}
