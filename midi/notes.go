package midi

// ActiveNotes maps input source -> pitch -> velocity for every note that is
// currently held. A missing pitch means the note is off.
type ActiveNotes map[string]map[uint8]uint8

// Clone copies both levels of the map.
func (a ActiveNotes) Clone() ActiveNotes {
	out := make(ActiveNotes, len(a))
	for src, notes := range a {
		m := make(map[uint8]uint8, len(notes))
		for k, v := range notes {
			m[k] = v
		}
		out[src] = m
	}
	return out
}

// With returns a copy of a with e applied. a itself is not modified, so a
// previous snapshot stays valid for diffing.
func (a ActiveNotes) With(e Event) ActiveNotes {
	next := make(ActiveNotes, len(a)+1)
	for src, notes := range a {
		next[src] = notes // shared: only e.Source is rewritten below
	}

	cur := a[e.Source]
	m := make(map[uint8]uint8, len(cur)+1)
	for k, v := range cur {
		m[k] = v
	}
	if e.On() {
		m[e.Note] = e.Velocity
	} else {
		delete(m, e.Note)
	}
	next[e.Source] = m
	return next
}

// Without returns a copy of a with source removed.
func (a ActiveNotes) Without(source string) ActiveNotes {
	next := make(ActiveNotes, len(a))
	for src, notes := range a {
		if src != source {
			next[src] = notes
		}
	}
	return next
}
