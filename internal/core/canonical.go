package core

import (
	"encoding/json"
	"fmt"
)

// CanonicalRow is a row expressed in the canonical schema. Each field holds
// the source text or nil when the input had no value for it. Raw keeps the
// original record untouched.
type CanonicalRow struct {
	values [fieldCount]*string
	Raw    RawRow
}

// fieldCount must equal len(canonicalFields).
const fieldCount = 14

// Value returns the field's value, or nil when it is null.
func (r CanonicalRow) Value(f Field) *string {
	i, ok := fieldIndex[f]
	if !ok {
		return nil
	}
	return r.values[i]
}

// Get returns the field's value and whether it is non-null.
func (r CanonicalRow) Get(f Field) (string, bool) {
	if v := r.Value(f); v != nil {
		return *v, true
	}
	return "", false
}

// Set assigns a value to a canonical field.
func (r *CanonicalRow) Set(f Field, value string) error {
	i, ok := fieldIndex[f]
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidField, f)
	}
	r.values[i] = &value
	return nil
}

// Clear makes the field null.
func (r *CanonicalRow) Clear(f Field) {
	if i, ok := fieldIndex[f]; ok {
		r.values[i] = nil
	}
}

// Clone returns a copy whose Raw map is independent of r.
func (r CanonicalRow) Clone() CanonicalRow {
	r.Raw = r.Raw.Clone()
	return r
}

// MarshalJSON emits every canonical field by name plus the raw record under "_raw".
func (r CanonicalRow) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(canonicalFields)+1)
	for i, f := range canonicalFields {
		out[string(f)] = r.values[i]
	}
	out["_raw"] = r.Raw
	return json.Marshal(out)
}

// UnmarshalJSON accepts the MarshalJSON form. Unknown keys are ignored.
func (r *CanonicalRow) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = CanonicalRow{}
	for i, f := range canonicalFields {
		msg, ok := raw[string(f)]
		if !ok {
			continue
		}
		var v *string
		if err := json.Unmarshal(msg, &v); err != nil {
			return fmt.Errorf("field %q: %w", f, err)
		}
		r.values[i] = v
	}
	if msg, ok := raw["_raw"]; ok {
		if err := json.Unmarshal(msg, &r.Raw); err != nil {
			return fmt.Errorf("field _raw: %w", err)
		}
	}
	return nil
}

// Canonicalize converts a raw row using a precomputed header map. Fields
// whose resolved header is present in the row take that value. Otherwise a
// key spelled exactly like the field name is used. Anything else is null.
func Canonicalize(raw RawRow, hm HeaderMap) CanonicalRow {
	row := CanonicalRow{Raw: raw}
	for i, f := range canonicalFields {
		if src, ok := hm.Source(f); ok {
			if v, ok := raw[src]; ok {
				row.values[i] = &v
				continue
			}
		}
		if v, ok := raw[string(f)]; ok {
			row.values[i] = &v
		}
	}
	return row
}

// CanonicalizeAll applies Canonicalize to every row with the same header map.
func CanonicalizeAll(rows []RawRow, hm HeaderMap) []CanonicalRow {
	out := make([]CanonicalRow, len(rows))
	for i, raw := range rows {
		out[i] = Canonicalize(raw, hm)
	}
	return out
}
