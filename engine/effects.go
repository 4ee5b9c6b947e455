package engine

import (
	"math"

	"go-daw/audio"
)

// wet mixes processed signal y into dry x.
func wet(x, y, mix float32) float32 {
	return x*(1-mix) + y*mix
}

func configureWet(p audio.Params, dst *float32) {
	if v, ok := number(p, "wet"); ok && v >= 0 && v <= 1 {
		*dst = float32(v)
	}
}

type feedbackDelay struct {
	sr       float64
	line     []float32
	pos      int
	delay    int
	feedback float32
	mix      float32
}

const maxDelay = 2 // seconds

func newFeedbackDelay(sr float64) processor {
	return &feedbackDelay{
		sr:       sr,
		line:     make([]float32, int(sr*maxDelay)),
		delay:    int(sr * 0.25),
		feedback: 0.5,
		mix:      0.5,
	}
}

func (d *feedbackDelay) process(buf []float32) {
	n := len(d.line)
	for i, x := range buf {
		read := (d.pos - d.delay + n) % n
		y := d.line[read]
		d.line[d.pos] = x + y*d.feedback
		d.pos = (d.pos + 1) % n
		buf[i] = wet(x, y, d.mix)
	}
}

func (d *feedbackDelay) configure(p audio.Params) {
	if v, ok := number(p, "delayTime"); ok && v > 0 && v < maxDelay {
		d.delay = int(v * d.sr)
	}
	if v, ok := number(p, "feedback"); ok && v >= 0 && v < 1 {
		d.feedback = float32(v)
	}
	configureWet(p, &d.mix)
}

type distortion struct {
	amount float64
	mix    float32
}

func newDistortion(float64) processor {
	return &distortion{amount: 0.4, mix: 1}
}

func (d *distortion) process(buf []float32) {
	k := 1 + d.amount*20
	for i, x := range buf {
		buf[i] = wet(x, float32(math.Tanh(k*float64(x))), d.mix)
	}
}

func (d *distortion) configure(p audio.Params) {
	if v, ok := number(p, "distortion"); ok && v >= 0 && v <= 1 {
		d.amount = v
	}
	configureWet(p, &d.mix)
}

type tremolo struct {
	sr          float64
	freq, depth float64
	phase       float64
	mix         float32
}

func newTremolo(sr float64) processor {
	return &tremolo{sr: sr, freq: 10, depth: 0.5, mix: 1}
}

func (t *tremolo) process(buf []float32) {
	inc := t.freq / t.sr
	for i, x := range buf {
		g := 1 - t.depth*(0.5+0.5*math.Sin(2*math.Pi*t.phase))
		buf[i] = wet(x, x*float32(g), t.mix)
		t.phase += inc
		if t.phase >= 1 {
			t.phase--
		}
	}
}

func (t *tremolo) configure(p audio.Params) {
	if v, ok := number(p, "frequency"); ok && v > 0 {
		t.freq = v
	}
	if v, ok := number(p, "depth"); ok && v >= 0 && v <= 1 {
		t.depth = v
	}
	configureWet(p, &t.mix)
}

type bitCrusher struct {
	bits float64
	mix  float32
}

func newBitCrusher(float64) processor {
	return &bitCrusher{bits: 4, mix: 1}
}

func (b *bitCrusher) process(buf []float32) {
	q := math.Pow(2, b.bits-1)
	for i, x := range buf {
		buf[i] = wet(x, float32(math.Round(float64(x)*q)/q), b.mix)
	}
}

func (b *bitCrusher) configure(p audio.Params) {
	if v, ok := number(p, "bits"); ok && v >= 1 && v <= 16 {
		b.bits = v
	}
	configureWet(p, &b.mix)
}

// reverb is a Schroeder reverberator: parallel combs into series allpasses.
type reverb struct {
	sr    float64
	combs []comb
	allps []allpass
	decay float64
	mix   float32
}

type comb struct {
	line []float32
	pos  int
	g    float32
}

type allpass struct {
	line []float32
	pos  int
}

var (
	combTunings    = []int{1116, 1188, 1277, 1356}
	allpassTunings = []int{556, 441}
)

func newReverb(sr float64) processor {
	r := &reverb{sr: sr, decay: 1.5, mix: 0.3}
	scale := sr / 44100
	for _, n := range combTunings {
		r.combs = append(r.combs, comb{line: make([]float32, int(float64(n)*scale))})
	}
	for _, n := range allpassTunings {
		r.allps = append(r.allps, allpass{line: make([]float32, int(float64(n)*scale))})
	}
	r.tune()
	return r
}

// tune sets each comb's feedback so it decays by 60 dB in r.decay seconds.
func (r *reverb) tune() {
	for i := range r.combs {
		c := &r.combs[i]
		delay := float64(len(c.line)) / r.sr
		c.g = float32(math.Pow(10, -3*delay/r.decay))
	}
}

func (r *reverb) process(buf []float32) {
	for i, x := range buf {
		var y float32
		for j := range r.combs {
			c := &r.combs[j]
			out := c.line[c.pos]
			c.line[c.pos] = x + out*c.g
			c.pos = (c.pos + 1) % len(c.line)
			y += out
		}
		y /= float32(len(r.combs))
		for j := range r.allps {
			a := &r.allps[j]
			out := a.line[a.pos]
			a.line[a.pos] = y + out*0.5
			a.pos = (a.pos + 1) % len(a.line)
			y = out - y*0.5
		}
		buf[i] = wet(x, y, r.mix)
	}
}

func (r *reverb) configure(p audio.Params) {
	if v, ok := number(p, "decay"); ok && v > 0 {
		r.decay = v
		r.tune()
	}
	configureWet(p, &r.mix)
}
