package midi

import "time"

// KeyOffsets is the chromatic layout of the computer keyboard: the bottom
// letter row plays white keys, the home row between them plays black keys.
var KeyOffsets = []string{
	"z", "s", "x", "d", "c", "v",
	"g", "b", "h", "n", "j", "m",
}

// Keyboard turns key presses into note events for KeyboardSource.
type Keyboard struct {
	Octave   int
	Velocity uint8
	Hold     time.Duration // terminals report no key-up; release after this long
}

// NewKeyboard returns the default layout: octave 5 (C = 60), velocity 127.
func NewKeyboard() Keyboard {
	return Keyboard{Octave: 5, Velocity: 127, Hold: 300 * time.Millisecond}
}

// Note maps a key to a pitch.
func (k Keyboard) Note(key string) (uint8, bool) {
	for i, s := range KeyOffsets {
		if s == key {
			n := k.Octave*12 + i
			if n < 0 || n > 127 {
				return 0, false
			}
			return uint8(n), true
		}
	}
	return 0, false
}

// Press returns the note-on event for key.
func (k Keyboard) Press(key string) (Event, bool) {
	n, ok := k.Note(key)
	if !ok {
		return Event{}, false
	}
	return Event{Source: KeyboardSource, Type: NoteOn, Note: n, Velocity: k.Velocity}, true
}

// Lift returns the note-off event for key.
func (k Keyboard) Lift(key string) (Event, bool) {
	n, ok := k.Note(key)
	if !ok {
		return Event{}, false
	}
	return Event{Source: KeyboardSource, Type: NoteOff, Note: n}, true
}
