package engine

import (
	"math"
	"testing"

	"go-daw/audio"
	"go-daw/sequencer"
)

func peak(buf []float32) float64 {
	var m float64
	for _, s := range buf {
		m = math.Max(m, math.Abs(float64(s)))
	}
	return m
}

func render(e *Engine, frames int) []float32 {
	out := make([]float32, frames*2)
	e.Render(out)
	return out
}

func TestUnknownTags(t *testing.T) {
	e := New(8000)
	if e.CreateInstrument("organ") != nil || e.CreateEffect("phaser") != nil {
		t.Fatal("unknown tag built")
	}
	if e.CreateInstrument("reverb") != nil {
		t.Fatal("effect built as instrument")
	}
	for _, k := range audio.Kinds(audio.RoleInstrument) {
		if e.CreateInstrument(k.Tag) == nil {
			t.Errorf("cannot build instrument %s", k.Tag)
		}
	}
	for _, k := range audio.Kinds(audio.RoleEffect) {
		if e.CreateEffect(k.Tag) == nil {
			t.Errorf("cannot build effect %s", k.Tag)
		}
	}
}

func TestSynthThroughChannel(t *testing.T) {
	e := New(8000)
	inst := e.CreateInstrument("synth")
	ch := e.CreateChannel()

	inst.TriggerAttack(440, 0, 1)
	if peak(render(e, 800)) != 0 {
		t.Fatal("unconnected instrument reached the master")
	}
	inst.Connect(ch)
	if peak(render(e, 800)) == 0 {
		t.Fatal("no signal")
	}

	inst.TriggerRelease()
	render(e, 8000*2) // release is 1s
	if p := peak(render(e, 800)); p != 0 {
		t.Fatalf("still sounding after release: %v", p)
	}
}

func TestChannelMuteAndVolume(t *testing.T) {
	e := New(8000)
	inst := e.CreateInstrument("synth")
	ch := e.CreateChannel()
	inst.Connect(ch)
	inst.TriggerAttack(220, 0, 1)
	loud := peak(render(e, 800))

	ch.Set(audio.Params{"volume": -20.0})
	quiet := peak(render(e, 800))
	if quiet >= loud {
		t.Fatalf("volume had no effect: %v >= %v", quiet, loud)
	}
	ch.Set(audio.Params{"mute": true})
	if peak(render(e, 800)) != 0 {
		t.Fatal("muted channel audible")
	}
}

func TestSamplerReleasesOneVoice(t *testing.T) {
	e := New(8000)
	n := e.CreateInstrument("sampler").(*node)
	s := n.proc.(*sampler)
	n.TriggerAttack(440, 0, 1)
	n.TriggerAttack(660, 0, 1)
	n.TriggerRelease(440)

	if s.voices[440].env.stage != releasing {
		t.Fatal("440 not releasing")
	}
	if s.voices[660].env.stage == releasing {
		t.Fatal("660 released too")
	}
}

func TestDisposeUnlinks(t *testing.T) {
	e := New(8000)
	inst := e.CreateInstrument("synth")
	fx := e.CreateEffect("tremolo")
	ch := e.CreateChannel()
	inst.Connect(fx)
	fx.Connect(ch)
	if e.Live() != 3 {
		t.Fatalf("live = %d", e.Live())
	}

	fx.Dispose()
	fx.Dispose()
	if e.Live() != 2 {
		t.Fatalf("live after dispose = %d", e.Live())
	}
	if len(inst.(*node).outputs) != 0 || len(ch.(*node).inputs) != 0 {
		t.Fatal("disposed node still linked")
	}
	ch.Dispose()
	if len(e.channels) != 0 {
		t.Fatal("channel still mixed")
	}
}

func TestSetMergesNested(t *testing.T) {
	e := New(8000)
	n := e.CreateInstrument("synth")
	n.Set(audio.Params{"oscillator": audio.Params{"type": "square"}})
	n.Set(audio.Params{"envelope": audio.Params{"attack": 0.1}})
	n.Set(audio.Params{"envelope": audio.Params{"release": 0.2}})

	got := n.Get()
	env := got["envelope"].(audio.Params)
	if env["attack"] != 0.1 || env["release"] != 0.2 {
		t.Fatalf("params = %v", got)
	}
	env["attack"] = 9.0
	if n.Get()["envelope"].(audio.Params)["attack"] != 0.1 {
		t.Fatal("Get leaked internal state")
	}
	s := n.(*node).proc.(*synth)
	if s.wave != square || s.voice.env.attack != 0.1 {
		t.Fatalf("synth not configured: %+v", s)
	}
}

func TestEffects(t *testing.T) {
	t.Run("bit-crusher", func(t *testing.T) {
		b := newBitCrusher(8000)
		b.configure(audio.Params{"bits": 2})
		buf := []float32{0.3, -0.8, 0.1}
		b.process(buf)
		for i, want := range []float32{0.5, -1, 0} {
			if buf[i] != want {
				t.Fatalf("crushed = %v", buf)
			}
		}
	})
	t.Run("distortion", func(t *testing.T) {
		d := newDistortion(8000)
		buf := []float32{5, -5, 0.01}
		d.process(buf)
		if peak(buf) > 1 || buf[2] <= 0.01 {
			t.Fatalf("distorted = %v", buf)
		}
	})
	t.Run("feedback-delay", func(t *testing.T) {
		d := newFeedbackDelay(100)
		d.configure(audio.Params{"delayTime": 0.1, "wet": 1.0})
		buf := make([]float32, 30)
		buf[0] = 1
		d.process(buf)
		if buf[0] != 0 || buf[10] != 1 || buf[20] != 0.5 {
			t.Fatalf("echoes = %v", buf)
		}
	})
	t.Run("tremolo", func(t *testing.T) {
		tr := newTremolo(100)
		tr.configure(audio.Params{"depth": 1.0, "frequency": 25})
		buf := []float32{1, 1, 1, 1}
		tr.process(buf)
		if buf[0] != 0.5 || buf[1] > 0.01 {
			t.Fatalf("tremolo = %v", buf)
		}
	})
	t.Run("reverb", func(t *testing.T) {
		r := newReverb(44100)
		buf := make([]float32, 4000)
		buf[0] = 1
		r.process(buf)
		if peak(buf[1500:]) == 0 {
			t.Fatal("no tail")
		}
	})
}

func TestReadFrames(t *testing.T) {
	e := New(8000)
	p := make([]byte, 8*10+3)
	n, err := e.Read(p)
	if err != nil || n != 80 {
		t.Fatalf("Read = %d, %v", n, err)
	}

	block := &e.out[0]
	e.Read(p)
	e.Read(p[:40])
	if &e.out[0] != block {
		t.Fatal("Read reallocated its block")
	}
	if len(e.out) != 10 {
		t.Fatalf("block len = %d, want 10", len(e.out))
	}
}

func TestChainOnEngine(t *testing.T) {
	e := New(8000)
	c := sequencer.NewChain(e)
	tr := sequencer.NewTrack(e, 1, "lead")
	c.SetInstrument(tr, "sampler", "")
	c.InsertEffect(tr, 0, "reverb", "")
	c.InsertEffect(tr, 1, "distortion", "")

	tr.Instrument.Kind.Attack(tr.Instrument.Node.Ref(), audio.Frequency(60), 1)
	if peak(render(e, 400)) == 0 {
		t.Fatal("chain silent")
	}
	c.Teardown(tr)
	if e.Live() != 0 {
		t.Fatalf("live after teardown = %d", e.Live())
	}
}
