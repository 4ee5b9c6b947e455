package sequencer

import (
	"fmt"

	"go-daw/audio"
	"go-daw/debug"
	"go-daw/library"
	"go-daw/midi"
	"go-daw/transport"
)

// Clock is the transport as the manager uses it: scheduling, tempo and
// play state.
type Clock interface {
	transport.Clock
	SetBPM(bpm float64) float64
	Start()
	Stop()
	Playing() bool
}

// Command is a state change request. Every mutation of tracks, chains and
// patterns goes through Manager.Update with one of the types below.
type Command interface{ command() }

type (
	AddTrack       struct{ Name string }
	RemoveTrack    struct{ Track int }
	SelectTrack    struct{ Track int }
	RenameTrack    struct {
		Track int
		Name  string
	}
	SetTrackInput struct {
		Track int
		Port  string
	}
	SetTrackOutput struct {
		Track int
		Port  string
	}

	// Drop commits a drag onto the selected track's chain. Instrument
	// payloads replace the instrument; effect payloads insert (or move, when
	// Index is set) at the resolver's current target.
	Drop             struct{ Payload library.Payload }
	RemoveInstrument struct{ Track int }
	RemoveEffect     struct{ Track, Index int }
	MoveEffect       struct{ Track, From, To int }
	SetParam         struct {
		Track, Slot int
		Name        string
		Value       any
	}

	AddPattern    struct{ Name string }
	SelectPattern struct{ Pattern int }
	RenamePattern struct {
		Pattern int
		Name    string
	}
	Pointer     struct{ Event PointerEvent }
	NoteInput   struct{ Event midi.Event }
	PortChanged struct{ Event midi.PortEvent }
	SetTempo    struct{ BPM float64 }
	Play        struct{ On bool }

	DragOver struct {
		Spans []Span
		X     float64
	}
	DragEnd struct{}
)

func (AddTrack) command()         {}
func (RemoveTrack) command()      {}
func (SelectTrack) command()      {}
func (RenameTrack) command()      {}
func (SetTrackInput) command()    {}
func (SetTrackOutput) command()   {}
func (Drop) command()             {}
func (RemoveInstrument) command() {}
func (RemoveEffect) command()     {}
func (MoveEffect) command()       {}
func (SetParam) command()         {}
func (AddPattern) command()       {}
func (SelectPattern) command()    {}
func (RenamePattern) command()    {}
func (Pointer) command()          {}
func (NoteInput) command()        {}
func (PortChanged) command()      {}
func (SetTempo) command()         {}
func (Play) command()             {}
func (DragOver) command()         {}
func (DragEnd) command()          {}

// Manager owns the track list and is the single place it changes. It is
// not safe for concurrent use: transport, MIDI and UI events must all be
// delivered on one goroutine.
type Manager struct {
	Chain *Chain
	Input *Aggregator
	Sched *Scheduler
	Roll  *PianoRoll
	Drops DropResolver

	clock         Clock
	graph         audio.Graph
	tracks        []*Track
	selected      int
	nextID        int
	patternLength int
	ports         map[string]midi.Port
}

// Option configures a Manager
type Option func(*Manager)

// WithGeometry sets the piano-roll grid geometry.
func WithGeometry(g Geometry) Option {
	return func(m *Manager) { m.Roll = NewPianoRoll(g) }
}

// WithPatternLength sets the loop length in steps of new patterns.
func WithPatternLength(steps int) Option {
	return func(m *Manager) {
		if steps > 0 {
			m.patternLength = steps
		}
	}
}

// WithFixedVelocity plays live input at full gain.
func WithFixedVelocity(on bool) Option {
	return func(m *Manager) { m.Input.FixedVelocity = on }
}

// WithSender forwards pattern notes to tracks' MIDI output ports.
func WithSender(send Sender) Option {
	return func(m *Manager) { m.Sched.SetSender(send) }
}

func NewManager(g audio.Graph, clock Clock, opts ...Option) *Manager {
	m := &Manager{
		Chain:         NewChain(g),
		Input:         NewAggregator(),
		Sched:         NewScheduler(clock),
		Roll:          NewPianoRoll(DefaultGeometry()),
		clock:         clock,
		graph:         g,
		patternLength: DefaultPatternLength,
		ports:         make(map[string]midi.Port),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Tracks returns the track list in display order
func (m *Manager) Tracks() []*Track { return m.tracks }

// Track finds a track by id
func (m *Manager) Track(id int) *Track {
	for _, t := range m.tracks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// Selected returns the selected track, or nil.
func (m *Manager) Selected() *Track { return m.Track(m.selected) }

// SelectedID returns the selected track id (0 = none).
func (m *Manager) SelectedID() int { return m.selected }

// Ports returns the known MIDI ports by id.
func (m *Manager) Ports() map[string]midi.Port { return m.ports }

// BPM is the current tempo
func (m *Manager) BPM() float64 { return m.clock.BPM() }

// Update applies one command.
func (m *Manager) Update(c Command) {
	switch c := c.(type) {
	case AddTrack:
		m.addTrack(c.Name)
	case RemoveTrack:
		m.removeTrack(c.Track)
	case SelectTrack:
		m.selectTrack(c.Track)
	case RenameTrack:
		if t := m.Track(c.Track); t != nil && c.Name != "" {
			t.Name = c.Name
		}
	case SetTrackInput:
		if t := m.Track(c.Track); t != nil && t.MIDIInputID != c.Port {
			m.Input.ReleaseFor(t, t.ID == m.selected)
			t.MIDIInputID = c.Port
			debug.Log("input", "track %d: input %q", t.ID, c.Port)
		}
	case SetTrackOutput:
		if t := m.Track(c.Track); t != nil {
			t.MIDIOutputID = c.Port
		}
	case Drop:
		m.drop(c.Payload)
	case RemoveInstrument:
		if t := m.Track(c.Track); t != nil {
			m.Chain.RemoveInstrument(t)
		}
	case RemoveEffect:
		if t := m.Track(c.Track); t != nil {
			m.Chain.RemoveEffect(t, c.Index)
		}
	case MoveEffect:
		if t := m.Track(c.Track); t != nil {
			m.Chain.MoveEffect(t, c.From, c.To)
		}
	case SetParam:
		if t := m.Track(c.Track); t != nil {
			m.Chain.SetParam(t, c.Slot, c.Name, c.Value)
		}
	case AddPattern:
		m.addPattern(c.Name)
	case SelectPattern:
		if t := m.Selected(); t != nil {
			m.selectPattern(t, c.Pattern)
		}
	case RenamePattern:
		if t := m.Selected(); t != nil {
			if p := t.Pattern(c.Pattern); p != nil && c.Name != "" {
				p.Name = c.Name
			}
		}
	case Pointer:
		if t := m.Selected(); t != nil {
			m.Roll.Handle(c.Event, t, t.Selected(), m.Sched)
		}
	case NoteInput:
		m.Input.Apply(c.Event, m.tracks, m.selected)
	case PortChanged:
		m.portChanged(c.Event)
	case SetTempo:
		bpm := m.clock.SetBPM(c.BPM)
		m.Sched.Retime()
		debug.Log("sched", "tempo %.1f, notes retimed", bpm)
	case Play:
		m.play(c.On)
	case DragOver:
		m.Drops.Over(c.Spans, c.X)
	case DragEnd:
		m.Drops.Reset()
	default:
		debug.Log("manager", "unhandled command %T", c)
	}
}

// play starts or stops the transport. Stopping releases every note that
// is still waiting for its release, on the instruments and MIDI outputs.
func (m *Manager) play(on bool) {
	if on {
		if !m.clock.Playing() {
			m.Sched.Start()
			m.clock.Start()
		}
		return
	}
	m.clock.Stop()
	m.Sched.Stop()
	debug.Log("sched", "stopped, releases flushed")
}

// Playing reports whether the transport is running.
func (m *Manager) Playing() bool { return m.clock.Playing() }

func (m *Manager) addTrack(name string) {
	m.nextID++
	if name == "" {
		name = fmt.Sprintf("Track %d", m.nextID)
	}
	t := NewTrack(m.graph, m.nextID, name)
	if t == nil {
		debug.Log("manager", "no channel for track %q", name)
		return
	}
	m.tracks = append(m.tracks, t)
	if m.selected == 0 {
		m.selected = t.ID
	}
	debug.Log("manager", "track %d added", t.ID)
}

// removeTrack cancels the track's notes, then disposes effects,
// instrument and channel in that order.
func (m *Manager) removeTrack(id int) {
	idx := -1
	for i, t := range m.tracks {
		if t.ID == id {
			idx = i
		}
	}
	if idx < 0 {
		return
	}
	t := m.tracks[idx]
	m.Input.ReleaseFor(t, t.ID == m.selected)
	m.Sched.UnloadTrack(t)
	m.Chain.Teardown(t)
	m.tracks = append(m.tracks[:idx], m.tracks[idx+1:]...)

	if m.selected == id {
		m.selected = 0
		if len(m.tracks) > 0 {
			m.selected = m.tracks[clamp(idx, 0, len(m.tracks)-1)].ID
		}
	}
	debug.Log("manager", "track %d removed", id)
}

func (m *Manager) selectTrack(id int) {
	if id == m.selected || m.Track(id) == nil {
		return
	}
	if old := m.Selected(); old != nil && old.MIDIInputID == "" {
		m.Input.ReleaseFor(old, true)
	}
	m.selected = id
}

func (m *Manager) drop(p library.Payload) {
	defer m.Drops.Reset()
	t := m.Selected()
	if t == nil {
		return
	}
	switch p.Type {
	case library.TypeInstrument, library.TypeGenerator:
		m.Chain.SetInstrument(t, p.ID, p.Name)
	case library.TypeEffect:
		target, ok := m.Drops.Target()
		index := len(t.Effects)
		if ok {
			index = target.Insert()
		}
		if p.Index != nil {
			m.Chain.MoveEffect(t, *p.Index, index)
			return
		}
		m.Chain.InsertEffect(t, index, p.ID, p.Name)
	default:
		debug.Log("drop", "ignoring %s %q", p.Type, p.ID)
	}
}

func (m *Manager) addPattern(name string) {
	t := m.Selected()
	if t == nil {
		return
	}
	p := &TrackPattern{ID: t.nextPatternID(), Length: m.patternLength}
	p.Name = name
	if p.Name == "" {
		p.Name = fmt.Sprintf("Pattern %d", p.ID)
	}
	t.Patterns = append(t.Patterns, p)
	m.selectPattern(t, p.ID)
}

func (m *Manager) selectPattern(t *Track, id int) {
	p := t.Pattern(id)
	if p == nil || id == t.SelectedPattern {
		return
	}
	m.Sched.Unload(t.Selected())
	t.SelectedPattern = id
	m.Sched.Load(t, p)
}

func (m *Manager) portChanged(ev midi.PortEvent) {
	switch ev.State {
	case midi.Connected:
		m.ports[ev.Port.ID] = ev.Port
	case midi.Disconnected:
		delete(m.ports, ev.Port.ID)
		if ev.Port.Kind == midi.PortInput {
			m.Input.Disconnect(ev.Port.ID, m.tracks, m.selected)
		}
	}
	debug.Log("midi", "%s %s %s", ev.Port.Kind, ev.Port.Name, ev.State)
}
