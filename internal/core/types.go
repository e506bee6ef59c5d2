package core

import (
	"encoding/json"
	"math"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices travel as JSON numbers, matching what browser clients send.
	decimal.MarshalJSONWithoutQuotes = true
}

// Field is one of the canonical inventory columns.
type Field string

const (
	FieldQuantity    Field = "Quantity"
	FieldCardName    Field = "Card Name"
	FieldSet         Field = "Set"
	FieldSetCode     Field = "Set Code"
	FieldNumber      Field = "Number"
	FieldFoil        Field = "Foil"
	FieldUnitPrice   Field = "Unit Price"
	FieldTotalPrice  Field = "Total Price"
	FieldCustomPrice Field = "Custom Price"
	FieldTCGPlayerID Field = "TCGPlayer Product ID"
	FieldArtist      Field = "Artist"
	FieldRarity      Field = "Rarity"
	FieldTypeLine    Field = "Type Line"
	FieldRulesText   Field = "Rules Text"
)

// canonicalFields is the fixed column order used everywhere rows are displayed.
var canonicalFields = []Field{
	FieldQuantity,
	FieldCardName,
	FieldSet,
	FieldSetCode,
	FieldNumber,
	FieldFoil,
	FieldUnitPrice,
	FieldTotalPrice,
	FieldCustomPrice,
	FieldTCGPlayerID,
	FieldArtist,
	FieldRarity,
	FieldTypeLine,
	FieldRulesText,
}

// Hidden in the staging preview but still mapped and committed.
var hiddenInPreview = map[Field]bool{
	FieldTotalPrice:  true,
	FieldCustomPrice: true,
	FieldArtist:      true,
	FieldTypeLine:    true,
	FieldRulesText:   true,
}

var fieldIndex = func() map[Field]int {
	m := make(map[Field]int, len(canonicalFields))
	for i, f := range canonicalFields {
		m[f] = i
	}
	return m
}()

// CanonicalFields returns the canonical columns in display order.
func CanonicalFields() []Field {
	return slices.Clone(canonicalFields)
}

// PreviewFields returns the canonical columns shown in the staging preview.
func PreviewFields() []Field {
	out := make([]Field, 0, len(canonicalFields))
	for _, f := range canonicalFields {
		if !hiddenInPreview[f] {
			out = append(out, f)
		}
	}
	return out
}

// Valid reports whether f is one of the canonical columns.
func (f Field) Valid() bool {
	_, ok := fieldIndex[f]
	return ok
}

// ParseField resolves a column name to its canonical field. Exact names win;
// otherwise the normalized forms are compared, so "set_code" resolves to Set Code.
func ParseField(name string) (Field, bool) {
	if f := Field(name); f.Valid() {
		return f, true
	}
	norm := NormalizeHeader(name)
	if norm == "" {
		return "", false
	}
	for _, f := range canonicalFields {
		if NormalizeHeader(string(f)) == norm {
			return f, true
		}
	}
	return "", false
}

// RawRow is one CSV record keyed by its original header text. A key present
// with an empty value is defined; an absent key is not.
type RawRow map[string]string

// Keys returns the row's keys sorted lexicographically.
func (r RawRow) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Clone returns an independent copy of the row.
func (r RawRow) Clone() RawRow {
	if r == nil {
		return nil
	}
	out := make(RawRow, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Item is a persisted inventory record.
type Item struct {
	ID                 int64           `json:"id"`
	Name               string          `json:"name"`
	Quantity           int             `json:"quantity"`
	Price              decimal.Decimal `json:"price"`
	Set                *string         `json:"set"`
	SetCode            *string         `json:"set_code"`
	Number             *string         `json:"number"`
	Foil               *string         `json:"foil"`
	Rarity             *string         `json:"rarity"`
	TCGPlayerProductID *string         `json:"tcgplayer_product_id"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	Raw                json.RawMessage `json:"_raw,omitempty"`
}

// NewItem is a proposed record that has not been persisted yet.
type NewItem struct {
	Name               string          `json:"name"`
	Quantity           int             `json:"quantity"`
	Price              decimal.Decimal `json:"price"`
	Set                *string         `json:"set"`
	SetCode            *string         `json:"set_code"`
	Number             *string         `json:"number"`
	Foil               *string         `json:"foil"`
	Rarity             *string         `json:"rarity"`
	TCGPlayerProductID *string         `json:"tcgplayer_product_id"`
	Raw                json.RawMessage `json:"_raw,omitempty"`
}

// MaxQuantity is the largest quantity any store can hold.
const MaxQuantity = math.MaxInt32

// Normalized returns the item with quantity clamped to [0, MaxQuantity] and
// negative price clamped to zero, the invariant every store relies on at rest.
func (n NewItem) Normalized() NewItem {
	n.Quantity = min(max(n.Quantity, 0), MaxQuantity)
	if n.Price.IsNegative() {
		n.Price = decimal.Zero
	}
	return n
}

// ItemPatch is a partial update of the editable fields. Nil fields are left
// unchanged.
type ItemPatch struct {
	Name     *string          `json:"name,omitempty" validate:"omitempty,notblank,max=500"`
	Quantity *int             `json:"quantity,omitempty" validate:"omitempty,min=0,max=2147483647"`
	Price    *decimal.Decimal `json:"price,omitempty" validate:"omitempty,gte=0"`
}

// Empty reports whether the patch changes nothing.
func (p ItemPatch) Empty() bool {
	return p.Name == nil && p.Quantity == nil && p.Price == nil
}

// Apply returns item with the patch applied. UpdatedAt is left to the caller.
func (p ItemPatch) Apply(item Item) Item {
	if p.Name != nil {
		item.Name = *p.Name
	}
	if p.Quantity != nil {
		item.Quantity = *p.Quantity
	}
	if p.Price != nil {
		item.Price = *p.Price
	}
	return item
}
