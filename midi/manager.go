package midi

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go-daw/debug"
)

// PortState is "connected" or "disconnected"
type PortState string

const (
	Connected    PortState = "connected"
	Disconnected PortState = "disconnected"
)

// PortEvent is emitted when a port appears or goes away
type PortEvent struct {
	Port  Port
	State PortState
}

// DeviceManager handles hot-plug detection of MIDI ports and forwards note
// messages from every open input.
type DeviceManager struct {
	driver   Driver
	onNote   func(Event)
	prefix   string
	pollRate time.Duration

	mu        sync.RWMutex
	ins       map[string]Port
	outs      map[string]Port
	listeners map[string]func()
	senders   map[string]func([]byte) error
	events    chan PortEvent
}

// Option configures a DeviceManager
type Option func(*DeviceManager)

// WithInputPrefix only opens inputs whose name starts with prefix.
func WithInputPrefix(prefix string) Option {
	return func(dm *DeviceManager) { dm.prefix = prefix }
}

// WithPollRate overrides the one-second scan interval.
func WithPollRate(d time.Duration) Option {
	return func(dm *DeviceManager) { dm.pollRate = d }
}

// NewDeviceManager creates a device manager. onNote is called from the
// driver's goroutine for every decoded note message.
func NewDeviceManager(driver Driver, onNote func(Event), opts ...Option) *DeviceManager {
	dm := &DeviceManager{
		driver:    driver,
		onNote:    onNote,
		pollRate:  time.Second,
		ins:       make(map[string]Port),
		outs:      make(map[string]Port),
		listeners: make(map[string]func()),
		senders:   make(map[string]func([]byte) error),
		events:    make(chan PortEvent, 16),
	}
	for _, o := range opts {
		o(dm)
	}
	return dm
}

// Events returns a channel of port connect/disconnect events
func (dm *DeviceManager) Events() <-chan PortEvent {
	return dm.events
}

// Inputs returns a snapshot of the known input ports
func (dm *DeviceManager) Inputs() []Port {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return sortedPorts(dm.ins)
}

// Outputs returns a snapshot of the known output ports
func (dm *DeviceManager) Outputs() []Port {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return sortedPorts(dm.outs)
}

// Run starts the polling loop (blocking - run in goroutine). Until the first
// scan completes there are simply no ports.
func (dm *DeviceManager) Run(ctx context.Context) {
	defer close(dm.events)
	defer dm.closeAll()

	if dm.driver == nil {
		debug.Log("midi", "no driver, MIDI input disabled")
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(dm.pollRate)
	defer ticker.Stop()

	dm.scan(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			dm.scan(ctx)
		}
	}
}

func (dm *DeviceManager) scan(ctx context.Context) {
	ins, outs, err := dm.driver.Ports()
	if err != nil {
		// Skip this scan; a hung host usually recovers.
		debug.Log("midi", "scan: %v", err)
		return
	}

	var changes []PortEvent

	dm.mu.Lock()
	seen := make(map[string]bool)
	for _, p := range ins {
		seen[p.ID] = true
		if _, ok := dm.ins[p.ID]; ok {
			continue
		}
		dm.ins[p.ID] = p
		changes = append(changes, PortEvent{Port: p, State: Connected})
		if dm.prefix == "" || strings.HasPrefix(p.Name, dm.prefix) {
			dm.listen(p)
		}
	}
	for id, p := range dm.ins {
		if seen[id] {
			continue
		}
		if stop, ok := dm.listeners[id]; ok {
			stop()
			delete(dm.listeners, id)
		}
		delete(dm.ins, id)
		changes = append(changes, PortEvent{Port: p, State: Disconnected})
	}

	seen = make(map[string]bool)
	for _, p := range outs {
		seen[p.ID] = true
		if _, ok := dm.outs[p.ID]; !ok {
			dm.outs[p.ID] = p
			changes = append(changes, PortEvent{Port: p, State: Connected})
		}
	}
	for id, p := range dm.outs {
		if !seen[id] {
			delete(dm.outs, id)
			delete(dm.senders, id)
			changes = append(changes, PortEvent{Port: p, State: Disconnected})
		}
	}
	dm.mu.Unlock()

	for _, ev := range changes {
		debug.Log("midi", "%s %s %s", ev.Port.Kind, ev.Port.ID, ev.State)
		select {
		case dm.events <- ev:
		case <-ctx.Done():
			return
		}
	}
}

// caller holds dm.mu
func (dm *DeviceManager) listen(p Port) {
	source := p.ID
	stop, err := dm.driver.Listen(p.ID, func(raw []byte) {
		if ev, ok := Decode(source, raw); ok && dm.onNote != nil {
			dm.onNote(ev)
		}
	})
	if err != nil {
		debug.Log("midi", "listen %s: %v", p.ID, err)
		return
	}
	dm.listeners[p.ID] = stop
}

// Send writes a note event to an output port, opening it lazily.
func (dm *DeviceManager) Send(portID string, ev Event) error {
	send, err := dm.sender(portID)
	if err != nil {
		return err
	}
	return send(Encode(ev))
}

func (dm *DeviceManager) sender(portID string) (func([]byte) error, error) {
	dm.mu.RLock()
	if s, ok := dm.senders[portID]; ok {
		dm.mu.RUnlock()
		return s, nil
	}
	dm.mu.RUnlock()

	dm.mu.Lock()
	defer dm.mu.Unlock()

	// Double-check after acquiring write lock
	if s, ok := dm.senders[portID]; ok {
		return s, nil
	}
	s, err := dm.driver.Sender(portID)
	if err != nil {
		return nil, err
	}
	dm.senders[portID] = s
	return s, nil
}

func (dm *DeviceManager) closeAll() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	for id, stop := range dm.listeners {
		stop()
		delete(dm.listeners, id)
	}
	dm.senders = make(map[string]func([]byte) error)
	if dm.driver != nil {
		dm.driver.Close()
	}
}

func sortedPorts(m map[string]Port) []Port {
	out := make([]Port, 0, len(m))
	for _, p := range m {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
