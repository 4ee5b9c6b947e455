package sequencer

import (
	"sort"
	"time"

	"go-daw/audio"
	"go-daw/debug"
	"go-daw/midi"
	"go-daw/transport"
)

// StepsPerBeat is the grid resolution: a step is 60/(16*bpm) seconds.
const StepsPerBeat = 16

// DefaultPatternLength is one bar of four beats.
const DefaultPatternLength = 4 * StepsPerBeat

// StepDuration converts grid steps to transport time at bpm.
func StepDuration(steps int, bpm float64) time.Duration {
	if bpm <= 0 {
		return 0
	}
	return time.Duration(float64(steps) * 60 / (StepsPerBeat * bpm) * float64(time.Second))
}

// Sender forwards a note to a MIDI output port.
type Sender func(portID string, e midi.Event) error

type pendingRelease struct {
	track *Track
	pitch int
}

// Scheduler keeps exactly one live transport callback per note of every
// loaded pattern. Any change to a note's timing cancels its handle before
// the new one is scheduled.
type Scheduler struct {
	clock   transport.Clock
	send    Sender
	loaded  map[*TrackPattern]*Track
	pending map[transport.EventID]pendingRelease
	stopped bool
}

func NewScheduler(clock transport.Clock) *Scheduler {
	return &Scheduler{
		clock:   clock,
		loaded:  make(map[*TrackPattern]*Track),
		pending: make(map[transport.EventID]pendingRelease),
	}
}

// SetSender enables MIDI output forwarding for tracks with an output port.
func (s *Scheduler) SetSender(send Sender) {
	s.send = send
}

// Loaded reports whether p's notes are scheduled.
func (s *Scheduler) Loaded(p *TrackPattern) bool {
	_, ok := s.loaded[p]
	return ok
}

// Create adds a note and schedules it if the pattern is loaded.
func (s *Scheduler) Create(t *Track, p *TrackPattern, pitch, start, length int) *TrackPatternNote {
	if length <= 0 || start < 0 || pitch < 0 || pitch > 127 {
		debug.Log("sched", "create rejected pitch=%d start=%d len=%d", pitch, start, length)
		return nil
	}
	n := &TrackPatternNote{NoteIndex: pitch, StartTime: start, NoteLength: length}
	p.Notes = append(p.Notes, n)
	if s.Loaded(p) {
		s.schedule(t, p, n)
	}
	debug.Log("sched", "track %d: note %d @%d len %d", t.ID, pitch, start, length)
	return n
}

// Delete cancels the note's callback and removes it.
func (s *Scheduler) Delete(p *TrackPattern, n *TrackPatternNote) bool {
	i := p.IndexOf(n)
	if i < 0 {
		return false
	}
	s.cancel(n)
	p.Notes = append(p.Notes[:i], p.Notes[i+1:]...)
	return true
}

// Move changes a note's pitch and start.
func (s *Scheduler) Move(t *Track, p *TrackPattern, n *TrackPatternNote, pitch, start int) bool {
	if start < 0 || pitch < 0 || pitch > 127 {
		return false
	}
	if pitch == n.NoteIndex && start == n.StartTime {
		return false
	}
	s.cancel(n)
	n.NoteIndex, n.StartTime = pitch, start
	if s.Loaded(p) {
		s.schedule(t, p, n)
	}
	return true
}

// Resize changes a note's start and length. A length <= 0 is rejected
// before anything is cancelled, leaving the note as it was.
func (s *Scheduler) Resize(t *Track, p *TrackPattern, n *TrackPatternNote, start, length int) bool {
	if length <= 0 || start < 0 {
		debug.Log("sched", "resize rejected start=%d len=%d", start, length)
		return false
	}
	if start == n.StartTime && length == n.NoteLength {
		return false
	}
	s.cancel(n)
	n.StartTime, n.NoteLength = start, length
	if s.Loaded(p) {
		s.schedule(t, p, n)
	}
	return true
}

// Load schedules every note of p.
func (s *Scheduler) Load(t *Track, p *TrackPattern) {
	if p == nil || s.Loaded(p) {
		return
	}
	s.loaded[p] = t
	for _, n := range p.Notes {
		s.schedule(t, p, n)
	}
	debug.Log("sched", "track %d: loaded pattern %d (%d notes)", t.ID, p.ID, len(p.Notes))
}

// Unload cancels every note of p.
func (s *Scheduler) Unload(p *TrackPattern) {
	if p == nil || !s.Loaded(p) {
		return
	}
	for _, n := range p.Notes {
		s.cancel(n)
	}
	delete(s.loaded, p)
}

// UnloadTrack cancels all of t's notes and flushes its pending releases.
func (s *Scheduler) UnloadTrack(t *Track) {
	for _, p := range t.Patterns {
		s.Unload(p)
	}
	s.flush(t)
}

// Stop releases every sounding note now and ignores triggers until Start.
// Note callbacks stay scheduled so playback resumes where the transport
// restarts them.
func (s *Scheduler) Stop() {
	s.stopped = true
	s.flush(nil)
}

// Start re-enables triggers after Stop.
func (s *Scheduler) Start() {
	s.stopped = false
}

// Pending returns the number of notes waiting for their release.
func (s *Scheduler) Pending() int {
	return len(s.pending)
}

// flush cancels and runs the pending releases of t, or of every track
// when t is nil.
func (s *Scheduler) flush(t *Track) {
	for _, id := range s.pendingIDs() {
		if r := s.pending[id]; t == nil || r.track == t {
			s.clock.Cancel(id)
			s.release(id)
		}
	}
}

// Retime reschedules every loaded note at the current tempo.
func (s *Scheduler) Retime() {
	for _, p := range s.loadedPatterns() {
		t := s.loaded[p]
		for _, n := range p.Notes {
			s.cancel(n)
			s.schedule(t, p, n)
		}
	}
}

func (s *Scheduler) schedule(t *Track, p *TrackPattern, n *TrackPatternNote) {
	bpm := s.clock.BPM()
	length := p.Length
	if length <= 0 {
		length = DefaultPatternLength
	}
	var id transport.EventID
	id = s.clock.ScheduleRepeating(func() { s.fire(id, t, p, n) },
		StepDuration(length, bpm), StepDuration(n.StartTime, bpm))
	n.Event = id
}

func (s *Scheduler) cancel(n *TrackPatternNote) {
	if n.Event == 0 {
		return
	}
	s.clock.Cancel(n.Event)
	n.Event = 0
}

// fire runs a note callback unless it went stale while queued on the
// dispatcher: the note was deleted, rescheduled or unloaded in between.
func (s *Scheduler) fire(id transport.EventID, t *Track, p *TrackPattern, n *TrackPatternNote) {
	if s.stopped || n.Event != id || !s.Loaded(p) || p.IndexOf(n) < 0 {
		debug.Log("sched", "track %d: stale trigger %d dropped", t.ID, id)
		return
	}
	s.trigger(t, n)
}

// trigger plays n and schedules its release NoteLength steps later.
func (s *Scheduler) trigger(t *Track, n *TrackPatternNote) {
	if inst := t.Instrument; inst != nil {
		inst.Kind.Attack(inst.Node.Ref(), audio.Frequency(n.NoteIndex), 1)
	}
	s.forward(t, midi.Event{Type: midi.NoteOn, Note: uint8(n.NoteIndex), Velocity: 127})

	var id transport.EventID
	id = s.clock.ScheduleOnce(func() { s.release(id) },
		s.clock.Position()+StepDuration(n.NoteLength, s.clock.BPM()))
	s.pending[id] = pendingRelease{track: t, pitch: n.NoteIndex}
}

func (s *Scheduler) release(id transport.EventID) {
	r, ok := s.pending[id]
	if !ok {
		return
	}
	delete(s.pending, id)
	if inst := r.track.Instrument; inst != nil {
		inst.Kind.Release(inst.Node.Ref(), audio.Frequency(r.pitch))
	}
	s.forward(r.track, midi.Event{Type: midi.NoteOff, Note: uint8(r.pitch)})
}

func (s *Scheduler) forward(t *Track, e midi.Event) {
	if s.send == nil || t.MIDIOutputID == "" {
		return
	}
	if err := s.send(t.MIDIOutputID, e); err != nil {
		debug.Log("sched", "track %d: send to %s: %v", t.ID, t.MIDIOutputID, err)
	}
}

func (s *Scheduler) pendingIDs() []transport.EventID {
	ids := make([]transport.EventID, 0, len(s.pending))
	for id := range s.pending {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *Scheduler) loadedPatterns() []*TrackPattern {
	out := make([]*TrackPattern, 0, len(s.loaded))
	for p := range s.loaded {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		ti, tj := s.loaded[out[i]].ID, s.loaded[out[j]].ID
		if ti != tj {
			return ti < tj
		}
		return out[i].ID < out[j].ID
	})
	return out
}
