// Package transport is the shared musical clock: tempo plus scheduling of
// callbacks at offsets from the start of playback.
package transport

import (
	"context"
	"sort"
	"sync"
	"time"

	"go-daw/debug"
)

// EventID identifies a scheduled callback. Zero is never issued.
type EventID int

// Clock is what the sequencer needs from a transport.
type Clock interface {
	BPM() float64
	// Position is the playback position that offsets are measured against.
	Position() time.Duration
	ScheduleRepeating(cb func(), every, offset time.Duration) EventID
	ScheduleOnce(cb func(), offset time.Duration) EventID
	Cancel(id EventID) bool
}

// Tempo limits
const (
	MinBPM = 20
	MaxBPM = 300
)

type entry struct {
	id     EventID
	cb     func()
	every  time.Duration // 0 = one-shot
	offset time.Duration
	next   time.Duration // next fire position, relative to start
}

// Transport is a wall-clock backed Clock. Callbacks are handed to the
// dispatcher, which lets the owner run them on its own event loop.
type Transport struct {
	mu       sync.Mutex
	bpm      float64
	playing  bool
	t0       time.Time
	entries  map[EventID]*entry
	nextID   EventID
	dispatch func(func())
	now      func() time.Time
	wake     chan struct{}
}

// Option configures a Transport
type Option func(*Transport)

// WithDispatcher routes callbacks through fn instead of calling them on
// the transport goroutine.
func WithDispatcher(fn func(func())) Option {
	return func(t *Transport) { t.dispatch = fn }
}

// New creates a stopped transport at bpm.
func New(bpm float64, opts ...Option) *Transport {
	t := &Transport{
		bpm:      clampBPM(bpm),
		entries:  make(map[EventID]*entry),
		dispatch: func(fn func()) { fn() },
		now:      time.Now,
		wake:     make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

func clampBPM(bpm float64) float64 {
	if bpm < MinBPM {
		return MinBPM
	}
	if bpm > MaxBPM {
		return MaxBPM
	}
	return bpm
}

// BPM returns the current tempo
func (t *Transport) BPM() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.bpm
}

// SetBPM changes the tempo (clamped). Already scheduled offsets are not
// rescaled; the scheduler reschedules its notes.
func (t *Transport) SetBPM(bpm float64) float64 {
	t.mu.Lock()
	t.bpm = clampBPM(bpm)
	bpm = t.bpm
	t.mu.Unlock()
	debug.Log("transport", "bpm=%.1f", bpm)
	return bpm
}

// Playing reports whether the transport is running
func (t *Transport) Playing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.playing
}

// Position returns the time since Start, or 0 when stopped.
func (t *Transport) Position() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.playing {
		return 0
	}
	return t.now().Sub(t.t0)
}

// Start begins playback from position zero.
func (t *Transport) Start() {
	t.mu.Lock()
	if t.playing {
		t.mu.Unlock()
		return
	}
	t.playing = true
	t.t0 = t.now()
	for _, e := range t.entries {
		e.next = e.offset
	}
	t.mu.Unlock()
	debug.Log("transport", "start")
	t.interrupt()
}

// Stop halts playback. Repeating entries are kept and restart from their
// offsets on the next Start; one-shots belong to the run that scheduled
// them and are dropped.
func (t *Transport) Stop() {
	t.mu.Lock()
	t.playing = false
	for id, e := range t.entries {
		if e.every == 0 {
			delete(t.entries, id)
		}
	}
	t.mu.Unlock()
	debug.Log("transport", "stop")
	t.interrupt()
}

func (t *Transport) ScheduleRepeating(cb func(), every, offset time.Duration) EventID {
	return t.schedule(cb, every, offset)
}

func (t *Transport) ScheduleOnce(cb func(), offset time.Duration) EventID {
	return t.schedule(cb, 0, offset)
}

func (t *Transport) schedule(cb func(), every, offset time.Duration) EventID {
	if offset < 0 {
		offset = 0
	}
	if every < 0 {
		every = 0
	}
	t.mu.Lock()
	t.nextID++
	e := &entry{id: t.nextID, cb: cb, every: every, offset: offset, next: offset}
	if t.playing {
		// Skip repetitions that are already in the past.
		pos := t.now().Sub(t.t0)
		if every > 0 && e.next < pos {
			n := (pos - e.next + every - 1) / every
			e.next += n * every
		}
	}
	t.entries[e.id] = e
	id := e.id
	t.mu.Unlock()
	t.interrupt()
	return id
}

// Cancel removes a scheduled callback. It reports whether id was live.
func (t *Transport) Cancel(id EventID) bool {
	t.mu.Lock()
	_, ok := t.entries[id]
	delete(t.entries, id)
	t.mu.Unlock()
	if ok {
		t.interrupt()
	}
	return ok
}

// Scheduled returns the number of live entries.
func (t *Transport) Scheduled() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

func (t *Transport) interrupt() {
	select {
	case t.wake <- struct{}{}:
	default:
	}
}

// collect pops every callback due at or before pos, advancing repeating
// entries and dropping one-shots. It returns the callbacks in fire order
// and the position of the next pending fire (-1 if none).
func (t *Transport) collect(pos time.Duration) ([]func(), time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	type due struct {
		at time.Duration
		id EventID
		cb func()
	}
	var fired []due
	next := time.Duration(-1)
	for id, e := range t.entries {
		for e.next <= pos {
			fired = append(fired, due{at: e.next, id: id, cb: e.cb})
			if e.every == 0 {
				delete(t.entries, id)
				break
			}
			e.next += e.every
		}
		if _, live := t.entries[id]; live && (next < 0 || e.next < next) {
			next = e.next
		}
	}
	sort.Slice(fired, func(i, j int) bool {
		if fired[i].at != fired[j].at {
			return fired[i].at < fired[j].at
		}
		return fired[i].id < fired[j].id
	})
	cbs := make([]func(), len(fired))
	for i, f := range fired {
		cbs[i] = f.cb
	}
	return cbs, next
}

// Run drives the transport until ctx is cancelled (blocking - run in goroutine)
func (t *Transport) Run(ctx context.Context) {
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		wait := time.Hour
		if t.Playing() {
			cbs, next := t.collect(t.Position())
			for _, cb := range cbs {
				t.dispatch(cb)
			}
			if next >= 0 {
				wait = next - t.Position()
				if wait < 0 {
					wait = 0
				}
			}
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-ctx.Done():
			return
		case <-t.wake:
		case <-timer.C:
		}
	}
}
