package core

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestMatchHeaders(t *testing.T) {
	tests := []struct {
		name  string
		keys  []string
		field Field
		want  string // "" means unmatched
	}{
		{"exact canonical name", []string{"Quantity"}, FieldQuantity, "Quantity"},
		{"synonym", []string{"Qty"}, FieldQuantity, "Qty"},
		{"synonym with punctuation", []string{"TCG-ID"}, FieldTCGPlayerID, "TCG-ID"},
		{"normalized canonical name", []string{"set_code"}, FieldSetCode, "set_code"},
		{"earlier candidate wins", []string{"Card", "Name"}, FieldCardName, "Name"},
		{"no candidate present", []string{"Something"}, FieldRarity, ""},
		{"price falls back to custom price column", []string{"Custom Price"}, FieldUnitPrice, "Custom Price"},
		{"text column feeds rules text", []string{"Text"}, FieldRulesText, "Text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hm := MatchHeaders(tt.keys, DefaultSynonyms())
			got, ok := hm.Source(tt.field)
			if tt.want == "" {
				if ok {
					t.Errorf("Source(%q) = %q, want unmatched", tt.field, got)
				}
				return
			}
			if !ok || got != tt.want {
				t.Errorf("Source(%q) = %q, %v; want %q", tt.field, got, ok, tt.want)
			}
		})
	}
}

func TestMatchHeaders_LaterKeyShadowsEarlier(t *testing.T) {
	hm := MatchHeaders([]string{"Set Code", "set-code"}, DefaultSynonyms())
	if got, _ := hm.Source(FieldSetCode); got != "set-code" {
		t.Errorf("Source(Set Code) = %q, want %q", got, "set-code")
	}
}

func TestMatchHeaders_Unmatched(t *testing.T) {
	hm := MatchHeaders([]string{"Qty", "Card Name", "Price"}, DefaultSynonyms())
	unmatched := hm.Unmatched()

	for _, f := range []Field{FieldQuantity, FieldCardName, FieldUnitPrice} {
		for _, u := range unmatched {
			if u == f {
				t.Errorf("Unmatched() contains matched field %q", f)
			}
		}
	}
	if len(unmatched) != len(canonicalFields)-3 {
		t.Errorf("len(Unmatched()) = %d, want %d", len(unmatched), len(canonicalFields)-3)
	}
}

func TestMatchHeaders_Deterministic(t *testing.T) {
	keys := []string{"qty", "Name", "Set", "No", "Price", "Total Price", "Foil"}
	first, _ := json.Marshal(MatchHeaders(keys, DefaultSynonyms()))
	for i := 0; i < 20; i++ {
		again, _ := json.Marshal(MatchHeaders(keys, DefaultSynonyms()))
		if string(again) != string(first) {
			t.Fatalf("run %d produced %s, want %s", i, again, first)
		}
	}
}

func TestMatchFirstRow_UsesOnlyFirstRow(t *testing.T) {
	rows := []RawRow{
		{"Qty": "2", "Card": "Opt"},
		{"Amount": "5", "Card": "Ponder"},
	}
	hm := MatchFirstRow(rows, DefaultSynonyms())
	canon := CanonicalizeAll(rows, hm)

	if got, _ := canon[0].Get(FieldQuantity); got != "2" {
		t.Errorf("row 0 quantity = %q, want %q", got, "2")
	}
	// The second row's quantity header was never matched.
	if v := canon[1].Value(FieldQuantity); v != nil {
		t.Errorf("row 1 quantity = %q, want nil", *v)
	}
	if got, _ := canon[1].Get(FieldCardName); got != "Ponder" {
		t.Errorf("row 1 name = %q, want %q", got, "Ponder")
	}
}

func TestMatchFirstRow_Empty(t *testing.T) {
	hm := MatchFirstRow(nil, DefaultSynonyms())
	if got := len(hm.Unmatched()); got != len(canonicalFields) {
		t.Errorf("len(Unmatched()) = %d, want %d", got, len(canonicalFields))
	}
}

func TestCanonicalize(t *testing.T) {
	raw := RawRow{
		"qty":        "4",
		"Card Name":  "Lightning Bolt",
		"Set":        "",
		"Unit Price": "$1.25",
		"Extra":      "ignored",
	}
	hm := MatchHeaders([]string{"qty", "Card Name", "Set", "Unit Price", "Extra"}, DefaultSynonyms())
	row := Canonicalize(raw, hm)

	checks := []struct {
		field Field
		want  *string
	}{
		{FieldQuantity, ptr("4")},
		{FieldCardName, ptr("Lightning Bolt")},
		{FieldSet, ptr("")},
		{FieldUnitPrice, ptr("$1.25")},
		{FieldRarity, nil},
	}
	for _, c := range checks {
		got := row.Value(c.field)
		switch {
		case c.want == nil && got != nil:
			t.Errorf("%s = %q, want nil", c.field, *got)
		case c.want != nil && (got == nil || *got != *c.want):
			t.Errorf("%s = %v, want %q", c.field, got, *c.want)
		}
	}
	if row.Raw["Extra"] != "ignored" {
		t.Errorf("Raw not preserved: %v", row.Raw)
	}
}

func TestCanonicalize_SameNameFallback(t *testing.T) {
	hm := MatchHeaders([]string{"Qty"}, DefaultSynonyms())
	row := Canonicalize(RawRow{"Rarity": "rare"}, hm)
	if got, _ := row.Get(FieldRarity); got != "rare" {
		t.Errorf("Rarity = %q, want %q", got, "rare")
	}
}

func TestCanonicalRow_JSONRoundTrip(t *testing.T) {
	hm := MatchHeaders([]string{"Qty", "Name"}, DefaultSynonyms())
	row := Canonicalize(RawRow{"Qty": "1", "Name": "Opt"}, hm)

	data, err := json.Marshal(row)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"Card Name":"Opt"`) || !strings.Contains(string(data), `"Set":null`) {
		t.Errorf("unexpected JSON: %s", data)
	}

	var back CanonicalRow
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !equalRows(back, row) {
		t.Errorf("round trip = %+v, want %+v", back, row)
	}
}

func equalRows(a, b CanonicalRow) bool {
	for _, f := range canonicalFields {
		av, bv := a.Value(f), b.Value(f)
		if (av == nil) != (bv == nil) || (av != nil && *av != *bv) {
			return false
		}
	}
	if len(a.Raw) != len(b.Raw) {
		return false
	}
	for k, v := range a.Raw {
		if b.Raw[k] != v {
			return false
		}
	}
	return true
}

func ptr(s string) *string { return &s }
