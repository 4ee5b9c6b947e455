// Package engine is a small pull-based audio graph. Nodes are rendered on
// demand from the channels backwards, mixed into a stereo master bus and
// handed to the sound card as float32 frames.
package engine

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/viterin/vek/vek32"

	"go-daw/audio"
	"go-daw/debug"
)

// processor transforms (or, for instruments, adds to) one block in place.
type processor interface {
	process(buf []float32)
	configure(p audio.Params)
}

// player is a processor that can be played.
type player interface {
	processor
	attack(freq, gain float64)
	release(freq float64, all bool)
}

var instruments = map[string]func(sr float64) player{
	"synth":   newSynth,
	"sampler": newSampler,
}

var effects = map[string]func(sr float64) processor{
	"feedback-delay": newFeedbackDelay,
	"distortion":     newDistortion,
	"tremolo":        newTremolo,
	"bit-crusher":    newBitCrusher,
	"reverb":         newReverb,
}

// Engine implements audio.Graph. It is safe to call node methods from one
// goroutine while the audio device pulls frames from another.
type Engine struct {
	mu         sync.Mutex
	sampleRate float64
	master     float32
	channels   []*node
	stamp      uint64
	mix        []float32
	live       int

	out []float32 // Read's interleaved block; the player reads from one goroutine
}

// New creates an engine rendering at sampleRate.
func New(sampleRate int) *Engine {
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	return &Engine{sampleRate: float64(sampleRate), master: 0.8}
}

// SampleRate in Hz
func (e *Engine) SampleRate() int { return int(e.sampleRate) }

// Live returns the number of undisposed nodes.
func (e *Engine) Live() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.live
}

// SetMaster sets the master gain (linear).
func (e *Engine) SetMaster(gain float64) {
	e.mu.Lock()
	e.master = float32(gain)
	e.mu.Unlock()
}

func (e *Engine) CreateInstrument(tag string) audio.Node {
	mk, ok := instruments[tag]
	if !ok {
		return nil
	}
	return e.add(tag, mk(e.sampleRate), false)
}

func (e *Engine) CreateEffect(tag string) audio.Node {
	mk, ok := effects[tag]
	if !ok {
		return nil
	}
	return e.add(tag, mk(e.sampleRate), false)
}

func (e *Engine) CreateChannel() audio.Node {
	return e.add("channel", &channel{gain: 1}, true)
}

func (e *Engine) add(tag string, p processor, isChannel bool) *node {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := &node{engine: e, tag: tag, proc: p, params: audio.Params{}}
	if isChannel {
		e.channels = append(e.channels, n)
	}
	e.live++
	debug.Log("engine", "create %s", tag)
	return n
}

// Render fills out with interleaved stereo frames.
func (e *Engine) Render(out []float32) {
	frames := len(out) / 2
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stamp++
	e.mix = vek32.Zeros_Into(grow(e.mix, frames), frames)
	for _, ch := range e.channels {
		vek32.Add_Inplace(e.mix, e.pull(ch, frames))
	}
	vek32.MulNumber_Inplace(e.mix, e.master)

	for i, s := range e.mix {
		s = clip(s)
		out[2*i], out[2*i+1] = s, s
	}
}

// Read implements io.Reader over Render as float32 little-endian stereo,
// which is what the output device consumes.
func (e *Engine) Read(p []byte) (int, error) {
	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	e.out = grow(e.out, frames*2)
	e.Render(e.out)
	for i, s := range e.out {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(s))
	}
	return frames * 8, nil
}

// pull renders n once per block: the sum of its inputs, then its processor.
// Caller holds e.mu.
func (e *Engine) pull(n *node, frames int) []float32 {
	if n.stamp == e.stamp {
		return n.buf
	}
	n.stamp = e.stamp
	n.buf = vek32.Zeros_Into(grow(n.buf, frames), frames)
	for _, in := range n.inputs {
		vek32.Add_Inplace(n.buf, e.pull(in, frames))
	}
	n.proc.process(n.buf)
	return n.buf
}

func grow(b []float32, n int) []float32 {
	if cap(b) < n {
		return make([]float32, n)
	}
	return b[:n]
}

func clip(s float32) float32 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}

// node is the engine's audio.Node.
type node struct {
	engine   *Engine
	tag      string
	proc     processor
	params   audio.Params
	inputs   []*node
	outputs  []*node
	disposed bool

	buf   []float32
	stamp uint64
}

func (n *node) Connect(to audio.Node) {
	t, ok := to.(*node)
	if !ok || t.engine != n.engine {
		return
	}
	e := n.engine
	e.mu.Lock()
	defer e.mu.Unlock()
	if n.disposed || t.disposed {
		return
	}
	n.outputs = append(n.outputs, t)
	t.inputs = append(t.inputs, n)
}

func (n *node) Disconnect(to ...audio.Node) {
	e := n.engine
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(to) == 0 {
		for _, t := range n.outputs {
			t.inputs = remove(t.inputs, n)
		}
		n.outputs = nil
		return
	}
	for _, x := range to {
		if t, ok := x.(*node); ok {
			n.outputs = remove(n.outputs, t)
			t.inputs = remove(t.inputs, n)
		}
	}
}

func (n *node) Dispose() {
	e := n.engine
	e.mu.Lock()
	defer e.mu.Unlock()
	if n.disposed {
		return
	}
	for _, t := range n.outputs {
		t.inputs = remove(t.inputs, n)
	}
	for _, s := range n.inputs {
		s.outputs = remove(s.outputs, n)
	}
	n.inputs, n.outputs = nil, nil
	e.channels = remove(e.channels, n)
	n.disposed = true
	e.live--
	debug.Log("engine", "dispose %s", n.tag)
}

func (n *node) TriggerAttack(frequency, _ float64, gain float64) {
	p, ok := n.proc.(player)
	if !ok {
		return
	}
	n.engine.mu.Lock()
	p.attack(frequency, gain)
	n.engine.mu.Unlock()
}

func (n *node) TriggerRelease(frequency ...float64) {
	p, ok := n.proc.(player)
	if !ok {
		return
	}
	n.engine.mu.Lock()
	if len(frequency) == 0 {
		p.release(0, true)
	} else {
		for _, f := range frequency {
			p.release(f, false)
		}
	}
	n.engine.mu.Unlock()
}

func (n *node) Get() audio.Params {
	n.engine.mu.Lock()
	defer n.engine.mu.Unlock()
	return clone(n.params)
}

func (n *node) Set(p audio.Params) {
	n.engine.mu.Lock()
	defer n.engine.mu.Unlock()
	merge(n.params, p)
	n.proc.configure(n.params)
}

func remove(list []*node, n *node) []*node {
	for i, x := range list {
		if x == n {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// channel is a track's output strip.
type channel struct {
	gain float32
	mute bool
}

func (c *channel) process(buf []float32) {
	if c.mute {
		vek32.Zeros_Into(buf, len(buf))
		return
	}
	vek32.MulNumber_Inplace(buf, c.gain)
}

func (c *channel) configure(p audio.Params) {
	if db, ok := number(p, "volume"); ok {
		c.gain = float32(dbToGain(db))
	}
	if m, ok := p["mute"].(bool); ok {
		c.mute = m
	}
}

func dbToGain(db float64) float64 {
	return math.Pow(10, db/20)
}
