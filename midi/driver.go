package midi

import (
	"fmt"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
)

// PortKind is "input" or "output"
type PortKind string

const (
	PortInput  PortKind = "input"
	PortOutput PortKind = "output"
)

// Port is a MIDI port as seen by the DAW. ID is stable while the port is
// plugged in.
type Port struct {
	ID   string
	Name string
	Kind PortKind
}

// Driver is the host MIDI capability.
type Driver interface {
	Ports() (ins, outs []Port, err error)
	Listen(id string, fn func(raw []byte)) (stop func(), err error)
	Sender(id string) (func(raw []byte) error, error)
	Close()
}

// RTMIDIDriver is the Driver backed by the registered gomidi driver.
type RTMIDIDriver struct {
	// Timeout bounds port enumeration (CoreMIDI can hang)
	Timeout time.Duration

	closeOnce   sync.Once
	closeDriver func()
}

func NewRTMIDIDriver() *RTMIDIDriver {
	return &RTMIDIDriver{Timeout: 3 * time.Second, closeDriver: gomidi.CloseDriver}
}

func (d *RTMIDIDriver) Ports() (ins, outs []Port, err error) {
	type result struct {
		ins  []drivers.In
		outs []drivers.Out
	}
	ch := make(chan result, 1)
	go func() {
		ch <- result{ins: gomidi.GetInPorts(), outs: gomidi.GetOutPorts()}
	}()

	select {
	case r := <-ch:
		for _, p := range r.ins {
			ins = append(ins, Port{ID: p.String(), Name: p.String(), Kind: PortInput})
		}
		for _, p := range r.outs {
			outs = append(outs, Port{ID: p.String(), Name: p.String(), Kind: PortOutput})
		}
		return ins, outs, nil
	case <-time.After(d.Timeout):
		return nil, nil, fmt.Errorf("midi port scan timed out after %v", d.Timeout)
	}
}

func (d *RTMIDIDriver) Listen(id string, fn func(raw []byte)) (func(), error) {
	for _, in := range gomidi.GetInPorts() {
		if in.String() != id {
			continue
		}
		stop, err := gomidi.ListenTo(in, func(msg gomidi.Message, timestampms int32) {
			fn(msg.Bytes())
		})
		if err != nil {
			return nil, fmt.Errorf("listen to %s: %w", id, err)
		}
		return stop, nil
	}
	return nil, fmt.Errorf("midi input %q not found", id)
}

func (d *RTMIDIDriver) Sender(id string) (func(raw []byte) error, error) {
	for _, out := range gomidi.GetOutPorts() {
		if out.String() != id {
			continue
		}
		send, err := gomidi.SendTo(out)
		if err != nil {
			return nil, fmt.Errorf("open output %s: %w", id, err)
		}
		return func(raw []byte) error { return send(gomidi.Message(raw)) }, nil
	}
	return nil, fmt.Errorf("midi output %q not found", id)
}

// Close shuts the driver down. Only the first call does anything.
func (d *RTMIDIDriver) Close() {
	d.closeOnce.Do(func() {
		if d.closeDriver != nil {
			d.closeDriver()
		}
	})
}
