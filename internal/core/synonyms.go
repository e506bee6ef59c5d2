package core

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/goccy/go-yaml"
)

// SynonymTable maps each canonical field to its ordered alternate header
// names. Tables are immutable: constructors copy their input and accessors
// return copies.
type SynonymTable struct {
	synonyms map[Field][]string
}

var defaultSynonyms = map[Field][]string{
	FieldQuantity:    {"quantity", "qty", "count"},
	FieldCardName:    {"card name", "cardname", "name", "card"},
	FieldSet:         {"set"},
	FieldSetCode:     {"set code", "setcode"},
	FieldNumber:      {"number", "no", "num"},
	FieldFoil:        {"foil"},
	FieldUnitPrice:   {"unit price", "unitprice", "custom price", "customprice", "price"},
	FieldTotalPrice:  {"total price", "totalprice"},
	FieldCustomPrice: {"custom price", "customprice"},
	FieldTCGPlayerID: {"tcgplayer productid", "tcgplayerproductid", "tcg id", "tcgplayer id", "tcgplayerid"},
	FieldArtist:      {"artist"},
	FieldRarity:      {"rarity"},
	FieldTypeLine:    {"type line", "typeline"},
	FieldRulesText:   {"rules text", "rulestext", "text"},
}

// DefaultSynonyms returns the built-in synonym table.
func DefaultSynonyms() SynonymTable {
	t, _ := NewSynonymTable(defaultSynonyms)
	return t
}

// NewSynonymTable builds a table from m. Every key must be a canonical field.
func NewSynonymTable(m map[Field][]string) (SynonymTable, error) {
	out := make(map[Field][]string, len(m))
	for f, syns := range m {
		if !f.Valid() {
			return SynonymTable{}, fmt.Errorf("%w: unknown canonical field %q", ErrInvalidField, f)
		}
		out[f] = slices.Clone(syns)
	}
	return SynonymTable{synonyms: out}, nil
}

// Synonyms returns the alternate names registered for f.
func (t SynonymTable) Synonyms(f Field) []string {
	return slices.Clone(t.synonyms[f])
}

// Candidates returns the names tried for f in priority order: the field's
// own name followed by its synonyms.
func (t SynonymTable) Candidates(f Field) []string {
	syns := t.synonyms[f]
	out := make([]string, 0, len(syns)+1)
	out = append(out, string(f))
	return append(out, syns...)
}

// Override returns a new table where every field present in o replaces the
// entry in t. Fields o does not mention keep their current synonyms.
func (t SynonymTable) Override(o SynonymTable) SynonymTable {
	out := make(map[Field][]string, len(t.synonyms)+len(o.synonyms))
	for f, syns := range t.synonyms {
		out[f] = slices.Clone(syns)
	}
	for f, syns := range o.synonyms {
		out[f] = slices.Clone(syns)
	}
	return SynonymTable{synonyms: out}
}

// LoadSynonyms parses a YAML document mapping canonical field names to
// synonym lists:
//
//	Quantity: [quantity, qty, count, amount]
//	"Card Name": [card name, name, title]
func LoadSynonyms(r io.Reader) (SynonymTable, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return SynonymTable{}, fmt.Errorf("read synonyms: %w", err)
	}

	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return SynonymTable{}, fmt.Errorf("parse synonyms: %w", err)
	}

	m := make(map[Field][]string, len(raw))
	for name, syns := range raw {
		m[Field(name)] = syns
	}
	return NewSynonymTable(m)
}

// LoadSynonymsFile reads a synonym override file and layers it over the
// built-in table.
func LoadSynonymsFile(path string) (SynonymTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return SynonymTable{}, fmt.Errorf("open synonyms file: %w", err)
	}
	defer f.Close()

	overrides, err := LoadSynonyms(f)
	if err != nil {
		return SynonymTable{}, fmt.Errorf("%s: %w", path, err)
	}
	return DefaultSynonyms().Override(overrides), nil
}
