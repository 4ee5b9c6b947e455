package midi

import (
	gomidi "gitlab.com/gomidi/midi/v2"
)

// MIDI status bytes (channel 1)
const (
	NoteOn  uint8 = 0x90
	NoteOff uint8 = 0x80
)

// KeyboardSource is the input source id of the computer keyboard.
const KeyboardSource = "keyboard"

// Event is a note transition from one input source
type Event struct {
	Source   string // port id, or KeyboardSource
	Type     uint8  // NoteOn, NoteOff
	Channel  uint8
	Note     uint8
	Velocity uint8
}

// On reports whether the event starts a note
func (e Event) On() bool {
	return e.Type == NoteOn && e.Velocity > 0
}

// Decode extracts a note event from a raw message. Only note-on and
// note-off are recognized; a note-on with velocity 0 counts as note-off.
func Decode(source string, raw []byte) (Event, bool) {
	msg := gomidi.Message(raw)
	var channel, key, velocity uint8

	switch {
	case msg.GetNoteOn(&channel, &key, &velocity):
		typ := NoteOn
		if velocity == 0 {
			typ = NoteOff
		}
		return Event{Source: source, Type: typ, Channel: channel, Note: key, Velocity: velocity}, true
	case msg.GetNoteOff(&channel, &key, &velocity):
		return Event{Source: source, Type: NoteOff, Channel: channel, Note: key, Velocity: velocity}, true
	}
	return Event{}, false
}

// Encode renders e as a raw message.
func Encode(e Event) []byte {
	if e.On() {
		return gomidi.NoteOn(e.Channel, e.Note, e.Velocity).Bytes()
	}
	return gomidi.NoteOff(e.Channel, e.Note).Bytes()
}
