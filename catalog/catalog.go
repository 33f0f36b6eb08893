// Package catalog describes the piece types: how they look and which ability their Giant form triggers.
package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"squishies/types"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Entry is the catalog data for one piece type.
type Entry struct {
	Type    types.PieceType `yaml:"-" json:"type"`
	Name    string          `yaml:"name" json:"name"`
	Display string          `yaml:"display" json:"display"`
	Colour  int             `yaml:"colour" json:"colour"`
	Glyph   string          `yaml:"glyph" json:"glyph"`
	Ability string          `yaml:"ability" json:"ability"`

	ability types.Ability
}

// Catalog maps every piece type to its entry.
type Catalog struct {
	entries [types.NumPieceTypes]Entry
}

type document struct {
	Types []Entry `yaml:"types"`
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(err)
	}
	return c
}

// Parse decodes a YAML catalog. Every piece type must appear exactly once.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	c := &Catalog{}
	seen := make(map[types.PieceType]bool)
	for _, e := range doc.Types {
		t, ok := types.ParsePieceType(e.Name)
		if !ok {
			return nil, fmt.Errorf("catalog: unknown piece type %q", e.Name)
		}
		if seen[t] {
			return nil, fmt.Errorf("catalog: duplicate piece type %q", e.Name)
		}
		a, ok := types.ParseAbility(e.Ability)
		if !ok {
			return nil, fmt.Errorf("catalog: %s has unknown ability %q", e.Name, e.Ability)
		}
		if e.Display == "" {
			e.Display = t.String()
		}
		if e.Glyph == "" {
			e.Glyph = "●"
		}
		e.Type = t
		e.ability = a
		seen[t] = true
		c.entries[t] = e
	}
	if len(seen) != types.NumPieceTypes {
		return nil, fmt.Errorf("catalog: %d of %d piece types defined", len(seen), types.NumPieceTypes)
	}
	return c, nil
}

// Ability returns the ability triggered by a Giant of type t.
func (c *Catalog) Ability(t types.PieceType) types.Ability {
	if int(t) >= len(c.entries) {
		return types.AbilityNone
	}
	return c.entries[t].ability
}

// Entry returns the catalog entry for t.
func (c *Catalog) Entry(t types.PieceType) Entry {
	if int(t) >= len(c.entries) {
		return Entry{Type: t, Name: t.String(), Display: t.String(), Glyph: "?"}
	}
	return c.entries[t]
}

// Entries returns all entries in type order.
func (c *Catalog) Entries() []Entry {
	return append([]Entry(nil), c.entries[:]...)
}

// Glyph returns the first rune of the type's glyph.
func (c *Catalog) Glyph(t types.PieceType) rune {
	for _, r := range c.Entry(t).Glyph {
		return r
	}
	return '?'
}
