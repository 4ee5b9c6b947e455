// Package audiotest provides an in-memory audio.Graph that records every
// call made against it.
package audiotest

import (
	"fmt"

	"go-daw/audio"
)

// Call is one recorded graph or node operation.
type Call struct {
	Op   string // create, connect, disconnect, dispose, attack, release, set
	Node string
	Arg  string
}

func (c Call) String() string {
	if c.Arg == "" {
		return c.Op + " " + c.Node
	}
	return c.Op + " " + c.Node + " " + c.Arg
}

// Graph builds Nodes for every tag in audio's capability table and rejects
// anything else.
type Graph struct {
	Calls []Call
	Nodes []*Node

	// Refuse makes Create* return nil for these tags even if supported.
	Refuse map[string]bool

	seq int
}

func NewGraph() *Graph {
	return &Graph{Refuse: make(map[string]bool)}
}

func (g *Graph) record(op string, n *Node, arg string) {
	g.Calls = append(g.Calls, Call{Op: op, Node: n.Name, Arg: arg})
}

func (g *Graph) create(tag string) *Node {
	g.seq++
	n := &Node{
		Name:   fmt.Sprintf("%s#%d", tag, g.seq),
		Tag:    tag,
		graph:  g,
		params: audio.Params{},
	}
	g.Nodes = append(g.Nodes, n)
	g.record("create", n, "")
	return n
}

func (g *Graph) CreateInstrument(tag string) audio.Node {
	if _, ok := audio.Lookup(audio.RoleInstrument, tag); !ok || g.Refuse[tag] {
		return nil
	}
	return g.create(tag)
}

func (g *Graph) CreateEffect(tag string) audio.Node {
	if _, ok := audio.Lookup(audio.RoleEffect, tag); !ok || g.Refuse[tag] {
		return nil
	}
	return g.create(tag)
}

func (g *Graph) CreateChannel() audio.Node {
	return g.create("channel")
}

// Reset forgets recorded calls but keeps nodes.
func (g *Graph) Reset() { g.Calls = nil }

// Ops returns the recorded calls of one op as strings.
func (g *Graph) Ops(op string) []string {
	var out []string
	for _, c := range g.Calls {
		if c.Op == op {
			out = append(out, c.String())
		}
	}
	return out
}

// Node records its outgoing connections so tests can walk the wiring.
type Node struct {
	Name     string
	Tag      string
	Outputs  []*Node
	Disposed int
	Attacks  []float64
	Releases [][]float64

	graph  *Graph
	params audio.Params
}

func (n *Node) Connect(to audio.Node) {
	t := to.(*Node)
	n.graph.record("connect", n, t.Name)
	n.Outputs = append(n.Outputs, t)
}

func (n *Node) Disconnect(to ...audio.Node) {
	if len(to) == 0 {
		n.graph.record("disconnect", n, "")
		n.Outputs = nil
		return
	}
	for _, x := range to {
		t := x.(*Node)
		n.graph.record("disconnect", n, t.Name)
		for i, o := range n.Outputs {
			if o == t {
				n.Outputs = append(n.Outputs[:i], n.Outputs[i+1:]...)
				break
			}
		}
	}
}

func (n *Node) Dispose() {
	n.graph.record("dispose", n, "")
	n.Disposed++
}

func (n *Node) TriggerAttack(frequency, time, gain float64) {
	n.graph.record("attack", n, fmt.Sprintf("%.2f %.2f", frequency, gain))
	n.Attacks = append(n.Attacks, frequency)
}

func (n *Node) TriggerRelease(frequency ...float64) {
	n.graph.record("release", n, fmt.Sprint(frequency))
	n.Releases = append(n.Releases, frequency)
}

func (n *Node) Get() audio.Params { return n.params }

func (n *Node) Set(p audio.Params) {
	n.graph.record("set", n, fmt.Sprint(p))
	merge(n.params, p)
}

func merge(dst, src audio.Params) {
	for k, v := range src {
		if sub, ok := v.(audio.Params); ok {
			d, ok := dst[k].(audio.Params)
			if !ok {
				d = audio.Params{}
				dst[k] = d
			}
			merge(d, sub)
			continue
		}
		dst[k] = v
	}
}

// Path follows the first output of each node starting at from and returns
// the visited names, stopping at a node with no outputs.
func Path(from *Node) []string {
	var out []string
	seen := map[*Node]bool{}
	for n := from; n != nil && !seen[n]; {
		seen[n] = true
		out = append(out, n.Name)
		if len(n.Outputs) == 0 {
			break
		}
		n = n.Outputs[0]
	}
	return out
}
