// Package library holds the catalog of droppable instruments, effects and
// utilities, and the drag payload that carries one of them.
package library

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"go-daw/audio"
)

// ItemType is the payload "type" field
type ItemType string

const (
	TypeInstrument ItemType = "instrument"
	TypeEffect     ItemType = "effect"
	TypeGenerator  ItemType = "generator" // older name for instrument
	TypeUtility    ItemType = "utility"
)

// Item is one catalog entry
type Item struct {
	ID   string   `yaml:"id" json:"id"`
	Name string   `yaml:"name" json:"name"`
	Type ItemType `yaml:"-" json:"type"`
}

// Playable reports whether the item maps to a kind the engine can build.
func (it Item) Playable() bool {
	_, ok := it.Kind()
	return ok
}

// Kind resolves the item against the capability table.
func (it Item) Kind() (audio.Kind, bool) {
	switch it.Type {
	case TypeInstrument, TypeGenerator:
		return audio.Lookup(audio.RoleInstrument, it.ID)
	case TypeEffect:
		return audio.Lookup(audio.RoleEffect, it.ID)
	}
	return audio.Kind{}, false
}

// Catalog groups the items by section
type Catalog struct {
	Instruments []Item `yaml:"instruments"`
	Effects     []Item `yaml:"effects"`
	Utilities   []Item `yaml:"utilities"`
}

//go:embed catalog.yaml
var catalogYAML []byte

// Default parses the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(catalogYAML)
}

// Parse reads a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for i := range c.Instruments {
		c.Instruments[i].Type = TypeInstrument
	}
	for i := range c.Effects {
		c.Effects[i].Type = TypeEffect
	}
	for i := range c.Utilities {
		c.Utilities[i].Type = TypeUtility
	}
	return &c, nil
}

// All returns every item in display order
func (c *Catalog) All() []Item {
	out := make([]Item, 0, len(c.Instruments)+len(c.Effects)+len(c.Utilities))
	out = append(out, c.Instruments...)
	out = append(out, c.Effects...)
	return append(out, c.Utilities...)
}

// Find looks an item up by type and id
func (c *Catalog) Find(t ItemType, id string) (Item, bool) {
	for _, it := range c.All() {
		if it.ID == id && (it.Type == t || t == TypeGenerator && it.Type == TypeInstrument) {
			return it, true
		}
	}
	return Item{}, false
}

// Payload is the record carried by a drag gesture. Index is set when the
// dragged thing is an existing chain item being reordered.
type Payload struct {
	Item
	Index *int `json:"index,omitempty"`
}

// Encode serializes a payload for the drag data transfer.
func (p Payload) Encode() string {
	b, _ := json.Marshal(p)
	return string(b)
}

// ParsePayload reads a drag payload. Unknown item types are an error so the
// drop handler can ignore them.
func ParsePayload(data string) (Payload, error) {
	var p Payload
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return Payload{}, fmt.Errorf("parse payload: %w", err)
	}
	switch p.Type {
	case TypeInstrument, TypeEffect, TypeGenerator, TypeUtility:
	default:
		return Payload{}, fmt.Errorf("parse payload: unknown type %q", p.Type)
	}
	if p.ID == "" {
		return Payload{}, fmt.Errorf("parse payload: missing id")
	}
	return p, nil
}
