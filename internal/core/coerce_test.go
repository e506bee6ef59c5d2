package core

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestCoerceQuantity(t *testing.T) {
	tests := []struct {
		name  string
		input *string
		want  int
	}{
		{"nil", nil, 0},
		{"empty", ptr(""), 0},
		{"plain", ptr("3"), 3},
		{"thousands separator", ptr("1,000"), 1000},
		{"negative", ptr("-1"), -1},
		{"fraction truncated", ptr("3.7"), 3},
		{"letters", ptr("abc"), 0},
		{"leading spaces", ptr("  12 "), 12},
		{"trailing text", ptr("4 copies"), 4},
		{"lone minus", ptr("-"), 0},
		{"double minus", ptr("--5"), 0},
		{"leading dot", ptr(".5"), 0},
		{"overflow clamps", ptr("99999999999999"), 2147483647},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CoerceQuantity(tt.input); got != tt.want {
				t.Errorf("CoerceQuantity = %d, want %d", got, tt.want)
			}
		})
	}
}

func priceRow(unit, custom, total *string) CanonicalRow {
	var row CanonicalRow
	for f, v := range map[Field]*string{FieldUnitPrice: unit, FieldCustomPrice: custom, FieldTotalPrice: total} {
		if v != nil {
			row.Set(f, *v)
		}
	}
	return row
}

func TestCoercePrice(t *testing.T) {
	tests := []struct {
		name string
		row  CanonicalRow
		want *float64
	}{
		{"no price columns", priceRow(nil, nil, nil), nil},
		{"unit price", priceRow(ptr("1.25"), ptr("9"), nil), f64(1.25)},
		{"currency symbol", priceRow(ptr("$2.50"), nil, nil), f64(2.5)},
		{"blank unit falls to custom", priceRow(ptr("   "), ptr("3"), ptr("7")), f64(3)},
		{"falls through to total", priceRow(nil, ptr(""), ptr("7.10")), f64(7.1)},
		{"unparseable first non-empty wins", priceRow(ptr("n/a"), ptr("3"), nil), nil},
		{"longest float prefix", priceRow(ptr("1.2.3"), nil, nil), f64(1.2)},
		{"thousands", priceRow(ptr("1,234.5"), nil, nil), f64(1234.5)},
		{"leading dot", priceRow(ptr(".75"), nil, nil), f64(0.75)},
		{"negative", priceRow(ptr("-4"), nil, nil), f64(-4)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CoercePrice(tt.row)
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("CoercePrice = %v, want nil", *got)
			case tt.want != nil && got == nil:
				t.Errorf("CoercePrice = nil, want %v", *tt.want)
			case tt.want != nil && *got != *tt.want:
				t.Errorf("CoercePrice = %v, want %v", *got, *tt.want)
			}
		})
	}
}

func TestCoerceRow(t *testing.T) {
	raw := RawRow{"Qty": "x", "Name": "Opt", "Set Code": "XLN", "Foil": ""}
	hm := MatchHeaders([]string{"Qty", "Name", "Set Code", "Foil"}, DefaultSynonyms())
	item, report := CoerceRow(Canonicalize(raw, hm))

	if item.Name != "Opt" || item.Quantity != 0 || !item.Price.IsZero() {
		t.Errorf("item = %+v", item)
	}
	if !report.QuantityDefaulted || !report.PriceDefaulted {
		t.Errorf("report = %+v, want both defaulted", report)
	}
	if item.SetCode == nil || *item.SetCode != "XLN" {
		t.Errorf("SetCode = %v, want XLN", item.SetCode)
	}
	if item.Foil == nil || *item.Foil != "" {
		t.Errorf("Foil = %v, want empty string kept verbatim", item.Foil)
	}
	if item.Rarity != nil {
		t.Errorf("Rarity = %q, want nil", *item.Rarity)
	}

	var back RawRow
	if err := json.Unmarshal(item.Raw, &back); err != nil || back["Qty"] != "x" {
		t.Errorf("Raw = %s (%v), want original row", item.Raw, err)
	}
}

func TestBuildNewItems_DefaultsAndOrder(t *testing.T) {
	hm := MatchHeaders([]string{"Card Name", "Quantity", "Unit Price"}, DefaultSynonyms())
	rows := CanonicalizeAll([]RawRow{
		{"Card Name": "A", "Quantity": "2", "Unit Price": "0.10"},
		{"Quantity": "1"},
	}, hm)

	items := BuildNewItems(rows)
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2", len(items))
	}
	if items[0].Name != "A" || items[0].Quantity != 2 || !items[0].Price.Equal(decimal.RequireFromString("0.1")) {
		t.Errorf("items[0] = %+v", items[0])
	}
	if items[1].Name != "" || !items[1].Price.IsZero() {
		t.Errorf("items[1] = %+v, want empty name and zero price", items[1])
	}
}

func TestNewItem_Normalized(t *testing.T) {
	n := NewItem{Quantity: -3, Price: decimal.NewFromInt(-2)}.Normalized()
	if n.Quantity != 0 || !n.Price.IsZero() {
		t.Errorf("Normalized = %+v, want zero quantity and price", n)
	}
}

func f64(v float64) *float64 { return &v }
