// Package transporttest provides a manual transport.Clock for tests.
package transporttest

import (
	"sort"
	"time"

	"go-daw/transport"
)

// Event is a live scheduled callback.
type Event struct {
	ID     transport.EventID
	Every  time.Duration
	Offset time.Duration
	CB     func()
}

// Clock never fires on its own; tests call Fire.
type Clock struct {
	Tempo     float64
	Now       time.Duration
	Running   bool
	Events    map[transport.EventID]*Event
	Cancelled []transport.EventID
	// Log records "schedule N" and "cancel N" in call order.
	Log []string

	next transport.EventID
}

func NewClock(bpm float64) *Clock {
	return &Clock{Tempo: bpm, Events: make(map[transport.EventID]*Event)}
}

func (c *Clock) BPM() float64 { return c.Tempo }

func (c *Clock) Position() time.Duration { return c.Now }

// SetBPM clamps like the real transport.
func (c *Clock) SetBPM(bpm float64) float64 {
	switch {
	case bpm < transport.MinBPM:
		bpm = transport.MinBPM
	case bpm > transport.MaxBPM:
		bpm = transport.MaxBPM
	}
	c.Tempo = bpm
	return bpm
}

func (c *Clock) Start()        { c.Running = true }
func (c *Clock) Playing() bool { return c.Running }

// Stop drops pending one-shots like the real transport.
func (c *Clock) Stop() {
	c.Running = false
	for id, e := range c.Events {
		if e.Every == 0 {
			delete(c.Events, id)
		}
	}
}

func (c *Clock) ScheduleRepeating(cb func(), every, offset time.Duration) transport.EventID {
	c.next++
	c.Events[c.next] = &Event{ID: c.next, Every: every, Offset: offset, CB: cb}
	c.Log = append(c.Log, "schedule")
	return c.next
}

func (c *Clock) ScheduleOnce(cb func(), offset time.Duration) transport.EventID {
	return c.ScheduleRepeating(cb, 0, offset)
}

func (c *Clock) Cancel(id transport.EventID) bool {
	if _, ok := c.Events[id]; !ok {
		return false
	}
	delete(c.Events, id)
	c.Cancelled = append(c.Cancelled, id)
	c.Log = append(c.Log, "cancel")
	return true
}

// Live returns the number of scheduled events.
func (c *Clock) Live() int { return len(c.Events) }

// Fire runs the callback of id if it is live.
func (c *Clock) Fire(id transport.EventID) bool {
	e, ok := c.Events[id]
	if !ok {
		return false
	}
	e.CB()
	if e.Every == 0 {
		delete(c.Events, id)
	}
	return true
}

// IDs returns the live ids in ascending order.
func (c *Clock) IDs() []transport.EventID {
	ids := make([]transport.EventID, 0, len(c.Events))
	for id := range c.Events {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
