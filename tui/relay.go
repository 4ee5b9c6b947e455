package tui

import (
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"go-daw/midi"
)

// CallbackMsg carries a transport callback onto the UI goroutine.
type CallbackMsg func()

// NoteMsg is a note event from a MIDI input.
type NoteMsg midi.Event

// PortMsg is a MIDI port hot-plug event.
type PortMsg midi.PortEvent

// Relay forwards events from background goroutines into the program so the
// manager only ever runs on the bubbletea event loop. Events sent before
// Attach are dropped.
type Relay struct {
	p atomic.Pointer[tea.Program]
}

// Attach starts delivery to p.
func (r *Relay) Attach(p *tea.Program) { r.p.Store(p) }

// Dispatch is a transport dispatcher.
func (r *Relay) Dispatch(fn func()) {
	if p := r.p.Load(); p != nil {
		p.Send(CallbackMsg(fn))
	}
}

// Note is a midi.DeviceManager note callback.
func (r *Relay) Note(e midi.Event) {
	if p := r.p.Load(); p != nil {
		p.Send(NoteMsg(e))
	}
}

// ListenForPorts waits for the next hot-plug event.
func ListenForPorts(d *midi.DeviceManager) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-d.Events()
		if !ok {
			return nil
		}
		return PortMsg(ev)
	}
}
