package store

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/cardinventory/internal/core"
)

// sqliteTimeLayout is fixed width so TEXT ordering matches time ordering.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000Z"

func formatSQLiteTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseSQLiteTime(s string) (time.Time, error) {
	t, err := time.Parse(sqliteTimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// parsePrice reads a price column selected as text.
func parsePrice(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse price %q: %w", s, err)
	}
	return d, nil
}

// toPgText converts an optional string; nil becomes NULL, empty stays empty.
func toPgText(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: *s, Valid: true}
}

// toPgInt4 converts an optional int; nil becomes NULL. Values outside the
// int4 range are rejected rather than truncated.
func toPgInt4(i *int) (pgtype.Int4, error) {
	if i == nil {
		return pgtype.Int4{Valid: false}, nil
	}
	if *i < math.MinInt32 || *i > math.MaxInt32 {
		return pgtype.Int4{}, fmt.Errorf("%w: quantity %d out of range", core.ErrInvalidField, *i)
	}
	return pgtype.Int4{Int32: int32(*i), Valid: true}, nil
}

// toPgNumeric converts a decimal through its text form so no precision is
// lost to float conversion.
func toPgNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	if err := n.Scan(d.String()); err != nil {
		return pgtype.Numeric{Valid: false}
	}
	return n
}

func toPgNumericPtr(d *decimal.Decimal) pgtype.Numeric {
	if d == nil {
		return pgtype.Numeric{Valid: false}
	}
	return toPgNumeric(*d)
}

// rawBytes returns the stored raw JSON or nil when the row has none.
func rawBytes(raw json.RawMessage) []byte {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}

func rawText(raw json.RawMessage) *string {
	if len(raw) == 0 {
		return nil
	}
	s := string(raw)
	return &s
}

// itemFields is the column-independent part of a scanned row.
func itemFields(id int64, name string, quantity int, price string, set, setCode, number, foil, rarity, tcg *string, raw []byte) (core.Item, error) {
	p, err := parsePrice(price)
	if err != nil {
		return core.Item{}, err
	}
	item := core.Item{
		ID:                 id,
		Name:               name,
		Quantity:           quantity,
		Price:              p,
		Set:                set,
		SetCode:            setCode,
		Number:             number,
		Foil:               foil,
		Rarity:             rarity,
		TCGPlayerProductID: tcg,
	}
	if len(raw) > 0 {
		item.Raw = json.RawMessage(raw)
	}
	return item, nil
}
