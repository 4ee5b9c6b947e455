// Package audio defines the contracts between the sequencer and whatever
// engine actually produces sound, plus the table of instrument and effect
// kinds the sequencer knows how to build and play.
package audio

// Params is a (possibly nested) attribute map, e.g.
// {"oscillator": {"type": "square"}, "volume": -6}.
type Params map[string]any

// Node is an opaque processing unit owned by an engine.
type Node interface {
	// Connect routes this node's output into to.
	Connect(to Node)
	// Disconnect removes the route to each of the given nodes, or every
	// outgoing route when called without arguments.
	Disconnect(to ...Node)
	// Dispose releases the node. Calling it twice is undefined.
	Dispose()

	TriggerAttack(frequency, time, gain float64)
	// TriggerRelease stops the voice playing frequency, or every voice
	// when called without arguments.
	TriggerRelease(frequency ...float64)

	Get() Params
	Set(p Params)
}

// Graph creates nodes. Create* returns nil for tags it cannot build.
type Graph interface {
	CreateInstrument(tag string) Node
	CreateEffect(tag string) Node
	CreateChannel() Node
}
