package core

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// Leading integer after cleanup; later characters are ignored.
	intPrefix = regexp.MustCompile(`^-?[0-9]+`)

	// Longest decimal prefix: "12.5.3" parses as 12.5, ".5" as 0.5.
	floatPrefix = regexp.MustCompile(`^-?(?:[0-9]+\.?[0-9]*|\.[0-9]+)`)
)

// keepNumeric drops every character except digits, '.' and '-'.
// "$1,234.50" becomes "1234.50".
func keepNumeric(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, s)
}

// CoerceQuantity converts a quantity cell to an integer. Separators and
// symbols are stripped, the leading integer is parsed and anything after it
// ignored, so "1,000" is 1000 and "3.7" is 3. Null, empty or unparseable
// input yields 0.
func CoerceQuantity(v *string) int {
	if v == nil {
		return 0
	}
	m := intPrefix.FindString(keepNumeric(*v))
	if m == "" {
		return 0
	}
	n, err := strconv.ParseInt(m, 10, 64)
	if err != nil {
		return 0
	}
	if n > MaxQuantity {
		return MaxQuantity
	}
	if n < math.MinInt32 {
		return math.MinInt32
	}
	return int(n)
}

// CoercePrice picks the first non-empty price column in the order Unit
// Price, Custom Price, Total Price and parses its leading decimal number.
// Nil means no usable price.
func CoercePrice(row CanonicalRow) *float64 {
	for _, f := range []Field{FieldUnitPrice, FieldCustomPrice, FieldTotalPrice} {
		v, ok := row.Get(f)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		return parsePrice(v)
	}
	return nil
}

func parsePrice(v string) *float64 {
	m := floatPrefix.FindString(keepNumeric(v))
	if m == "" {
		return nil
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// CoercionReport records which fields of a row fell back to defaults.
// It is informational only; defaults are applied regardless.
type CoercionReport struct {
	QuantityDefaulted bool `json:"quantity_defaulted,omitempty"`
	PriceDefaulted    bool `json:"price_defaulted,omitempty"`
}

// Defaulted reports whether any field fell back.
func (r CoercionReport) Defaulted() bool {
	return r.QuantityDefaulted || r.PriceDefaulted
}

// CoerceRow builds the proposed record for a staged row and reports which
// values were defaulted.
func CoerceRow(row CanonicalRow) (NewItem, CoercionReport) {
	var report CoercionReport

	qtyCell := row.Value(FieldQuantity)
	qty := CoerceQuantity(qtyCell)
	if qtyCell == nil || intPrefix.FindString(keepNumeric(*qtyCell)) == "" {
		report.QuantityDefaulted = true
	}

	price := decimal.Zero
	if p := CoercePrice(row); p != nil {
		price = decimal.NewFromFloat(*p)
	} else {
		report.PriceDefaulted = true
	}

	name, _ := row.Get(FieldCardName)

	item := NewItem{
		Name:               name,
		Quantity:           qty,
		Price:              price,
		Set:                row.Value(FieldSet),
		SetCode:            row.Value(FieldSetCode),
		Number:             row.Value(FieldNumber),
		Foil:               row.Value(FieldFoil),
		Rarity:             row.Value(FieldRarity),
		TCGPlayerProductID: row.Value(FieldTCGPlayerID),
	}
	if row.Raw != nil {
		if raw, err := json.Marshal(row.Raw); err == nil {
			item.Raw = raw
		}
	}
	return item, report
}

// BuildNewItems converts staged rows into proposed records in order.
func BuildNewItems(rows []CanonicalRow) []NewItem {
	out := make([]NewItem, len(rows))
	for i, row := range rows {
		out[i], _ = CoerceRow(row)
	}
	return out
}
