package sequencer

import (
	"go-daw/audio"
	"go-daw/transport"
)

// Track is one lane: an instrument -> effects -> channel chain plus the
// patterns that play through it. The channel is created with the track
// and lives until the track is torn down.
type Track struct {
	ID           int
	Name         string
	MIDIInputID  string // "" = follow selection
	MIDIOutputID string // "" = no MIDI out

	Channel    *audio.Owned
	Instrument *TrackInstrument
	Effects    []*TrackEffect

	Patterns        []*TrackPattern
	SelectedPattern int // pattern id, 0 = none
}

// TrackInstrument is the sound source at the head of a chain.
type TrackInstrument struct {
	Kind audio.Kind
	Name string
	Node *audio.Owned
}

// TrackEffect is one processing stage; slice order is signal order.
type TrackEffect struct {
	Kind audio.Kind
	Name string
	Node *audio.Owned
}

// TrackPattern is a loop of notes, Length grid steps long.
type TrackPattern struct {
	ID     int
	Name   string
	Length int
	Notes  []*TrackPatternNote
}

// TrackPatternNote is a note on the grid. Event is the live transport
// handle while the pattern is loaded, 0 otherwise.
type TrackPatternNote struct {
	NoteIndex  int
	StartTime  int
	NoteLength int
	Event      transport.EventID
}

// NewTrack creates a track with its output channel. It returns nil if the
// graph cannot build a channel.
func NewTrack(g audio.Graph, id int, name string) *Track {
	ch := audio.Own(g.CreateChannel())
	if ch == nil {
		return nil
	}
	return &Track{ID: id, Name: name, Channel: ch}
}

// Listens reports whether input from source should play this track.
// A track without an input binding plays whatever comes in while selected.
func (t *Track) Listens(source string, selected bool) bool {
	if t.MIDIInputID == "" {
		return selected
	}
	return t.MIDIInputID == source
}

// Pattern finds a pattern by id
func (t *Track) Pattern(id int) *TrackPattern {
	for _, p := range t.Patterns {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Selected returns the pattern being edited, or nil.
func (t *Track) Selected() *TrackPattern {
	return t.Pattern(t.SelectedPattern)
}

func (t *Track) nextPatternID() int {
	id := 0
	for _, p := range t.Patterns {
		if p.ID > id {
			id = p.ID
		}
	}
	return id + 1
}

// IndexOf returns the position of n in the pattern, or -1.
func (p *TrackPattern) IndexOf(n *TrackPatternNote) int {
	for i, x := range p.Notes {
		if x == n {
			return i
		}
	}
	return -1
}
