package engine

import (
	"math"

	"go-daw/audio"
)

type waveform int

const (
	sine waveform = iota
	square
	sawtooth
	triangle
)

var waveforms = map[string]waveform{
	"sine":     sine,
	"square":   square,
	"sawtooth": sawtooth,
	"triangle": triangle,
}

func (w waveform) at(phase float64) float64 {
	switch w {
	case square:
		if phase < 0.5 {
			return 1
		}
		return -1
	case sawtooth:
		return 2*phase - 1
	case triangle:
		return 1 - 4*math.Abs(phase-0.5)
	default:
		return math.Sin(2 * math.Pi * phase)
	}
}

type stage int

const (
	idle stage = iota
	attacking
	decaying
	sustaining
	releasing
)

// envelope is a linear ADSR. Times are in seconds.
type envelope struct {
	attack, decay, sustain, release float64

	stage stage
	level float64
}

func (e *envelope) gateOn() { e.stage = attacking }

func (e *envelope) gateOff() {
	if e.stage != idle {
		e.stage = releasing
	}
}

func (e *envelope) next(sr float64) float64 {
	step := func(t float64) float64 {
		if t <= 0 {
			return 1
		}
		return 1 / (t * sr)
	}
	switch e.stage {
	case attacking:
		e.level += step(e.attack)
		if e.level >= 1 {
			e.level, e.stage = 1, decaying
		}
	case decaying:
		e.level -= step(e.decay) * (1 - e.sustain)
		if e.level <= e.sustain {
			e.level, e.stage = e.sustain, sustaining
		}
	case releasing:
		e.level -= step(e.release)
		if e.level <= 0 {
			e.level, e.stage = 0, idle
		}
	}
	return e.level
}

func (e *envelope) configure(p audio.Params) {
	if p == nil {
		return
	}
	if v, ok := number(p, "attack"); ok && v >= 0 {
		e.attack = v
	}
	if v, ok := number(p, "decay"); ok && v >= 0 {
		e.decay = v
	}
	if v, ok := number(p, "sustain"); ok && v >= 0 && v <= 1 {
		e.sustain = v
	}
	if v, ok := number(p, "release"); ok && v >= 0 {
		e.release = v
	}
}

type voice struct {
	freq, gain float64
	phase      float64
	env        envelope
}

func (v *voice) render(buf []float32, w waveform, sr, volume float64) {
	inc := v.freq / sr
	for i := range buf {
		lvl := v.env.next(sr)
		buf[i] += float32(w.at(v.phase) * v.gain * lvl * volume)
		v.phase += inc
		if v.phase >= 1 {
			v.phase -= math.Floor(v.phase)
		}
	}
}

// synth is monophonic: a new attack retunes the one voice and a release
// stops it whatever its pitch.
type synth struct {
	sr     float64
	wave   waveform
	volume float64
	voice  voice
}

func newSynth(sr float64) player {
	s := &synth{sr: sr, wave: triangle, volume: 0.3}
	s.voice.env = envelope{attack: 0.005, decay: 0.1, sustain: 0.3, release: 1}
	return s
}

func (s *synth) attack(freq, gain float64) {
	s.voice.freq, s.voice.gain = freq, gain
	s.voice.env.gateOn()
}

func (s *synth) release(_ float64, _ bool) {
	s.voice.env.gateOff()
}

func (s *synth) process(buf []float32) {
	if s.voice.env.stage == idle {
		return
	}
	s.voice.render(buf, s.wave, s.sr, s.volume)
}

func (s *synth) configure(p audio.Params) {
	if osc := sub(p, "oscillator"); osc != nil {
		if name, ok := osc["type"].(string); ok {
			if w, ok := waveforms[name]; ok {
				s.wave = w
			}
		}
	}
	s.voice.env.configure(sub(p, "envelope"))
	if db, ok := number(p, "volume"); ok {
		s.volume = 0.3 * dbToGain(db)
	}
}

// sampler is polyphonic with one voice per frequency. Without sample data
// it plays a short plucked tone.
type sampler struct {
	sr     float64
	volume float64
	env    envelope
	voices map[float64]*voice
}

const maxVoices = 32

func newSampler(sr float64) player {
	return &sampler{
		sr:     sr,
		volume: 0.3,
		env:    envelope{attack: 0.002, decay: 0.4, sustain: 0.1, release: 0.3},
		voices: make(map[float64]*voice),
	}
}

func (s *sampler) attack(freq, gain float64) {
	v, ok := s.voices[freq]
	if !ok {
		if len(s.voices) >= maxVoices {
			return
		}
		v = &voice{freq: freq}
		s.voices[freq] = v
	}
	v.gain = gain
	v.env = s.env
	v.env.level = 0
	v.env.gateOn()
}

func (s *sampler) release(freq float64, all bool) {
	for f, v := range s.voices {
		if all || f == freq {
			v.env.gateOff()
		}
	}
}

func (s *sampler) process(buf []float32) {
	for f, v := range s.voices {
		v.render(buf, sine, s.sr, s.volume)
		if v.env.stage == idle {
			delete(s.voices, f)
		}
	}
}

func (s *sampler) configure(p audio.Params) {
	s.env.configure(sub(p, "envelope"))
	if db, ok := number(p, "volume"); ok {
		s.volume = 0.3 * dbToGain(db)
	}
}
