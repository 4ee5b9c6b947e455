package audio

// Owned holds the only disposing reference to a node. Records that own a
// node (a track's channel, instrument, effects) keep an *Owned; everything
// else gets a Ref.
type Owned struct {
	node     Node
	disposed bool
}

// Own takes ownership of n. It returns nil for a nil node so callers can
// test construction failure with a single comparison.
func Own(n Node) *Owned {
	if n == nil {
		return nil
	}
	return &Owned{node: n}
}

// Ref returns a non-owning view of the node.
func (o *Owned) Ref() Ref {
	if o == nil || o.disposed {
		return Ref{}
	}
	return Ref{node: o.node}
}

// Live reports whether the node is still usable.
func (o *Owned) Live() bool {
	return o != nil && !o.disposed
}

// Dispose releases the node once. Later calls do nothing and return false.
func (o *Owned) Dispose() bool {
	if o == nil || o.disposed {
		return false
	}
	o.disposed = true
	o.node.Dispose()
	return true
}

// Ref is a borrowed node: it can be wired and played but not disposed.
type Ref struct {
	node Node
}

// Valid reports whether the ref points at a node.
func (r Ref) Valid() bool { return r.node != nil }

// Node exposes the underlying node for identity checks in tests and engines.
func (r Ref) Node() Node { return r.node }

// Connect routes r into to.
func (r Ref) Connect(to Ref) {
	if r.node == nil || to.node == nil {
		return
	}
	r.node.Connect(to.node)
}

// DisconnectAll removes every outgoing route from r.
func (r Ref) DisconnectAll() {
	if r.node == nil {
		return
	}
	r.node.Disconnect()
}

func (r Ref) Get() Params {
	if r.node == nil {
		return nil
	}
	return r.node.Get()
}

func (r Ref) Set(p Params) {
	if r.node == nil {
		return
	}
	r.node.Set(p)
}
