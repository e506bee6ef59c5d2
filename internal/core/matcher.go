package core

import (
	"encoding/json"
	"strings"
)

// HeaderMap records, for each canonical field, the raw header that supplies
// its value. Fields without a source are unmatched.
type HeaderMap struct {
	sources map[Field]string
}

// Source returns the raw header resolved for f.
func (m HeaderMap) Source(f Field) (string, bool) {
	src, ok := m.sources[f]
	return src, ok
}

// Unmatched lists the canonical fields with no source column, in canonical order.
func (m HeaderMap) Unmatched() []Field {
	var out []Field
	for _, f := range canonicalFields {
		if _, ok := m.sources[f]; !ok {
			out = append(out, f)
		}
	}
	return out
}

// MarshalJSON renders the map with every canonical field as a key and null
// for unmatched fields.
func (m HeaderMap) MarshalJSON() ([]byte, error) {
	out := make(map[string]*string, len(canonicalFields))
	for _, f := range canonicalFields {
		if src, ok := m.sources[f]; ok {
			out[string(f)] = &src
		} else {
			out[string(f)] = nil
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON. Unknown fields are ignored.
func (m *HeaderMap) UnmarshalJSON(data []byte) error {
	var raw map[string]*string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.sources = make(map[Field]string, len(raw))
	for name, src := range raw {
		if f := Field(name); f.Valid() && src != nil {
			m.sources[f] = *src
		}
	}
	return nil
}

// MatchHeaders resolves every canonical field against the given raw header
// keys. For each field, its candidates are tried in order and the first whose
// normalized form matches a key wins. Failing that, a key equal to the field
// name ignoring case is used. When two keys normalize identically the later
// key in the slice shadows the earlier one.
func MatchHeaders(keys []string, table SynonymTable) HeaderMap {
	byNorm := make(map[string]string, len(keys))
	for _, k := range keys {
		byNorm[NormalizeHeader(k)] = k
	}

	sources := make(map[Field]string, len(canonicalFields))
	for _, f := range canonicalFields {
		if src, ok := matchField(f, keys, byNorm, table); ok {
			sources[f] = src
		}
	}
	return HeaderMap{sources: sources}
}

func matchField(f Field, keys []string, byNorm map[string]string, table SynonymTable) (string, bool) {
	for _, cand := range table.Candidates(f) {
		norm := NormalizeHeader(cand)
		if norm == "" {
			continue
		}
		if src, ok := byNorm[norm]; ok {
			return src, true
		}
	}
	for _, k := range keys {
		if strings.EqualFold(k, string(f)) {
			return k, true
		}
	}
	return "", false
}

// MatchFirstRow computes the header map from the key set of the first row.
// Every later row is assumed to share those keys. Rows with a different key
// set fall back to same-name lookup in Canonicalize.
func MatchFirstRow(rows []RawRow, table SynonymTable) HeaderMap {
	if len(rows) == 0 {
		return HeaderMap{sources: map[Field]string{}}
	}
	return MatchHeaders(rows[0].Keys(), table)
}
