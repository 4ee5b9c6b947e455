package sequencer

import (
	"reflect"
	"testing"

	"go-daw/audio"
	"go-daw/audio/audiotest"
)

func fake(r audio.Ref) *audiotest.Node {
	if !r.Valid() {
		return nil
	}
	return r.Node().(*audiotest.Node)
}

func newTestTrack(t *testing.T, g *audiotest.Graph, id int) *Track {
	t.Helper()
	tr := NewTrack(g, id, "test")
	if tr == nil {
		t.Fatal("NewTrack returned nil")
	}
	return tr
}

// checkWiring asserts the graph holds exactly instrument -> effects -> channel.
func checkWiring(t *testing.T, tr *Track) {
	t.Helper()
	ch := fake(tr.Channel.Ref())
	if len(ch.Outputs) != 0 {
		t.Fatalf("channel has outputs %v", ch.Outputs)
	}
	if tr.Instrument == nil {
		for i, fx := range tr.Effects {
			if n := fake(fx.Node.Ref()); len(n.Outputs) != 0 {
				t.Fatalf("effect %d connected without instrument", i)
			}
		}
		return
	}

	inst := fake(tr.Instrument.Node.Ref())
	want := []string{inst.Name}
	for _, fx := range tr.Effects {
		n := fake(fx.Node.Ref())
		if len(n.Outputs) != 1 {
			t.Fatalf("%s has %d outputs", n.Name, len(n.Outputs))
		}
		want = append(want, n.Name)
	}
	want = append(want, ch.Name)
	if len(inst.Outputs) != 1 {
		t.Fatalf("instrument has %d outputs", len(inst.Outputs))
	}
	if got := audiotest.Path(inst); !reflect.DeepEqual(got, want) {
		t.Fatalf("wiring = %v, want %v", got, want)
	}
}

func TestRewireAfterEveryEdit(t *testing.T) {
	g := audiotest.NewGraph()
	c := NewChain(g)
	tr := newTestTrack(t, g, 1)

	steps := []struct {
		name string
		do   func()
	}{
		{"effect before instrument", func() { c.InsertEffect(tr, 0, "reverb", "") }},
		{"instrument", func() { c.SetInstrument(tr, "synth", "") }},
		{"append", func() { c.InsertEffect(tr, 5, "distortion", "") }},
		{"prepend", func() { c.InsertEffect(tr, -3, "tremolo", "") }},
		{"middle", func() { c.InsertEffect(tr, 1, "bit-crusher", "") }},
		{"remove middle", func() { c.RemoveEffect(tr, 2) }},
		{"move first to end", func() { c.MoveEffect(tr, 0, len(tr.Effects)) }},
		{"replace instrument", func() { c.SetInstrument(tr, "sampler", "") }},
		{"remove instrument", func() { c.RemoveInstrument(tr) }},
		{"insert without instrument", func() { c.InsertEffect(tr, 1, "feedback-delay", "") }},
		{"instrument again", func() { c.SetInstrument(tr, "synth", "") }},
		{"remove all effects", func() {
			for len(tr.Effects) > 0 {
				c.RemoveEffect(tr, 0)
			}
		}},
	}
	for _, s := range steps {
		s.do()
		t.Run(s.name, func(t *testing.T) { checkWiring(t, tr) })
	}
}

func TestUnsupportedTagTouchesNothing(t *testing.T) {
	g := audiotest.NewGraph()
	c := NewChain(g)
	tr := newTestTrack(t, g, 1)
	c.SetInstrument(tr, "synth", "")
	c.InsertEffect(tr, 0, "reverb", "")
	g.Reset()

	inst, fx := tr.Instrument, len(tr.Effects)
	if c.SetInstrument(tr, "theremin", "") {
		t.Error("unknown instrument accepted")
	}
	if c.InsertEffect(tr, 0, "phaser", "") {
		t.Error("unbuildable effect accepted")
	}
	if c.SetInstrument(tr, "reverb", "") {
		t.Error("effect accepted as instrument")
	}
	if len(g.Calls) != 0 {
		t.Fatalf("graph calls: %v", g.Calls)
	}
	if tr.Instrument != inst || len(tr.Effects) != fx {
		t.Fatal("track changed")
	}
}

func TestReplaceInstrumentDisposesOldOnce(t *testing.T) {
	g := audiotest.NewGraph()
	c := NewChain(g)
	tr := newTestTrack(t, g, 1)

	c.SetInstrument(tr, "synth", "")
	first := fake(tr.Instrument.Node.Ref())
	c.SetInstrument(tr, "sampler", "")
	second := fake(tr.Instrument.Node.Ref())

	if first.Disposed != 1 {
		t.Errorf("first disposed %d times", first.Disposed)
	}
	if second.Disposed != 0 {
		t.Errorf("second disposed %d times", second.Disposed)
	}
	if tr.Instrument.Kind.Tag != "sampler" || tr.Instrument.Name != "Sampler" {
		t.Errorf("instrument = %+v", tr.Instrument)
	}
}

func TestRefusedNodeKeepsInstrument(t *testing.T) {
	g := audiotest.NewGraph()
	c := NewChain(g)
	tr := newTestTrack(t, g, 1)
	c.SetInstrument(tr, "synth", "")
	g.Refuse["sampler"] = true

	if c.SetInstrument(tr, "sampler", "") {
		t.Fatal("refused build reported success")
	}
	if fake(tr.Instrument.Node.Ref()).Disposed != 0 {
		t.Fatal("old instrument disposed although replacement failed")
	}
}

func TestMoveEffect(t *testing.T) {
	g := audiotest.NewGraph()
	c := NewChain(g)
	tr := newTestTrack(t, g, 1)
	for _, tag := range []string{"reverb", "tremolo", "distortion"} {
		c.InsertEffect(tr, len(tr.Effects), tag, "")
	}
	order := func() []string {
		var out []string
		for _, fx := range tr.Effects {
			out = append(out, fx.Kind.Tag)
		}
		return out
	}

	tests := []struct {
		from, to int
		ok       bool
		want     []string
	}{
		{0, 3, true, []string{"tremolo", "distortion", "reverb"}},
		{2, 0, true, []string{"reverb", "tremolo", "distortion"}},
		{1, 1, false, []string{"reverb", "tremolo", "distortion"}},
		{1, 2, false, []string{"reverb", "tremolo", "distortion"}},
		{5, 0, false, []string{"reverb", "tremolo", "distortion"}},
		{2, 1, true, []string{"reverb", "distortion", "tremolo"}},
	}
	for _, tt := range tests {
		if ok := c.MoveEffect(tr, tt.from, tt.to); ok != tt.ok {
			t.Errorf("MoveEffect(%d, %d) = %v", tt.from, tt.to, ok)
		}
		if got := order(); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("after MoveEffect(%d, %d) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestSetParam(t *testing.T) {
	g := audiotest.NewGraph()
	c := NewChain(g)
	tr := newTestTrack(t, g, 1)
	c.SetInstrument(tr, "synth", "")
	c.InsertEffect(tr, 0, "reverb", "")

	if !c.SetParam(tr, InstrumentSlot, "oscillator.type", "square") {
		t.Fatal("instrument param rejected")
	}
	osc, _ := tr.Instrument.Node.Ref().Get()["oscillator"].(audio.Params)
	if osc["type"] != "square" {
		t.Fatalf("params = %v", tr.Instrument.Node.Ref().Get())
	}
	if !c.SetParam(tr, 0, "decay", 2.5) {
		t.Fatal("effect param rejected")
	}
	if c.SetParam(tr, 3, "decay", 1.0) || c.SetParam(tr, 0, "", 1.0) {
		t.Fatal("bad slot or name accepted")
	}
}

func TestAttributeUpdate(t *testing.T) {
	got := AttributeUpdate("envelope.attack.curve", "linear")
	want := audio.Params{"envelope": audio.Params{"attack": audio.Params{"curve": "linear"}}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v", got)
	}
	if AttributeUpdate("", 1) != nil {
		t.Fatal("empty name should give nil")
	}
}

func TestTeardownOrder(t *testing.T) {
	g := audiotest.NewGraph()
	c := NewChain(g)
	tr := newTestTrack(t, g, 1) // channel#1
	c.SetInstrument(tr, "synth", "")
	c.InsertEffect(tr, 0, "reverb", "")
	c.InsertEffect(tr, 1, "tremolo", "")
	g.Reset()

	c.Teardown(tr)
	want := []string{"dispose reverb#3", "dispose tremolo#4", "dispose synth#2", "dispose channel#1"}
	if got := g.Ops("dispose"); !reflect.DeepEqual(got, want) {
		t.Fatalf("dispose order = %v, want %v", got, want)
	}
	for _, n := range g.Nodes {
		if n.Disposed != 1 {
			t.Errorf("%s disposed %d times", n.Name, n.Disposed)
		}
	}
}
