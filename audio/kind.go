package audio

import "sort"

// Role says where in a chain a kind may sit.
type Role int

const (
	RoleInstrument Role = iota
	RoleEffect
)

func (r Role) String() string {
	switch r {
	case RoleInstrument:
		return "instrument"
	case RoleEffect:
		return "effect"
	default:
		return "unknown"
	}
}

// ReleaseShape is the argument shape an instrument expects on release.
type ReleaseShape int

const (
	// ReleaseAll: monophonic, release takes no argument.
	ReleaseAll ReleaseShape = iota
	// ReleaseVoice: polyphonic, release needs the frequency of the voice.
	ReleaseVoice
)

// Kind is one entry of the capability table. The zero Kind is "unsupported".
type Kind struct {
	Tag   string
	Name  string
	Role  Role
	Shape ReleaseShape
}

var kinds = map[string]Kind{
	"synth":   {Tag: "synth", Name: "Synth", Role: RoleInstrument, Shape: ReleaseAll},
	"sampler": {Tag: "sampler", Name: "Sampler", Role: RoleInstrument, Shape: ReleaseVoice},

	"feedback-delay": {Tag: "feedback-delay", Name: "FeedbackDelay", Role: RoleEffect},
	"distortion":     {Tag: "distortion", Name: "Distortion", Role: RoleEffect},
	"tremolo":        {Tag: "tremolo", Name: "Tremolo", Role: RoleEffect},
	"bit-crusher":    {Tag: "bit-crusher", Name: "BitCrusher", Role: RoleEffect},
	"reverb":         {Tag: "reverb", Name: "Reverb", Role: RoleEffect},
}

// Lookup finds the kind for tag within role.
func Lookup(role Role, tag string) (Kind, bool) {
	k, ok := kinds[tag]
	if !ok || k.Role != role {
		return Kind{}, false
	}
	return k, true
}

// Kinds lists every supported kind of a role, sorted by tag.
func Kinds(role Role) []Kind {
	var out []Kind
	for _, k := range kinds {
		if k.Role == role {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tag < out[j].Tag })
	return out
}

// Supported reports whether k came from the table.
func (k Kind) Supported() bool { return k.Tag != "" }

// Build asks g for a node of this kind. Nil means the engine refused it.
func (k Kind) Build(g Graph) Node {
	switch {
	case !k.Supported():
		return nil
	case k.Role == RoleInstrument:
		return g.CreateInstrument(k.Tag)
	default:
		return g.CreateEffect(k.Tag)
	}
}

// Attack starts a note on an instrument of this kind.
func (k Kind) Attack(r Ref, frequency, gain float64) {
	if r.node == nil || k.Role != RoleInstrument {
		return
	}
	r.node.TriggerAttack(frequency, 0, gain)
}

// Release stops a note using the argument shape the kind expects.
func (k Kind) Release(r Ref, frequency float64) {
	if r.node == nil || k.Role != RoleInstrument {
		return
	}
	switch k.Shape {
	case ReleaseVoice:
		r.node.TriggerRelease(frequency)
	default:
		r.node.TriggerRelease()
	}
}
