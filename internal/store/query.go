package store

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/JonMunkholm/cardinventory/internal/core"
)

// itemColumns is the select list shared by both SQL stores. Price is read
// as text so it round-trips through decimal without float conversion.
const itemColumns = `id, name, quantity, CAST(price AS TEXT) AS price, set_name, set_code,
	number, foil, rarity, tcgplayer_product_id, raw, created_at, updated_at`

// sortColumns maps sortable fields to ORDER BY expressions. %s receives the
// dialect's collation clause so text orders byte-wise like core.Query.
var sortColumns = map[string]string{
	"id":         "id",
	"name":       "lower(name)%s",
	"quantity":   "quantity",
	"price":      "inventory.price",
	"set":        "COALESCE(lower(set_name), '')%s",
	"set_code":   "COALESCE(lower(set_code), '')%s",
	"number":     "COALESCE(lower(number), '')%s",
	"rarity":     "COALESCE(lower(rarity), '')%s",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

func (d Dialect) bindType() int {
	if d == DialectPostgres {
		return sqlx.DOLLAR
	}
	return sqlx.QUESTION
}

func (d Dialect) collate() string {
	if d == DialectPostgres {
		return ` COLLATE "C"`
	}
	return ""
}

func (d Dialect) like() string {
	if d == DialectPostgres {
		return "ILIKE"
	}
	return "LIKE"
}

// escapeLike escapes LIKE wildcards so the term matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// listQuery is a normalized page request rendered for one dialect.
type listQuery struct {
	Count     string
	CountArgs []any
	Select    string
	Args      []any
}

// buildListQuery renders search, sort and paging the way core.Query applies
// them: substring on name or decimal id, ORDER BY the field then id.
func buildListQuery(d Dialect, q core.QueryState) listQuery {
	q = core.NormalizeQuery(q)

	var where string
	var args []any
	if q.Search != "" {
		pattern := "%" + escapeLike(q.Search) + "%"
		where = fmt.Sprintf(` WHERE (name %[1]s ? ESCAPE '\' OR CAST(id AS TEXT) %[1]s ? ESCAPE '\')`, d.like())
		args = append(args, pattern, pattern)
	}

	expr := sortColumns[q.SortBy]
	if strings.Contains(expr, "%s") {
		expr = fmt.Sprintf(expr, d.collate())
	}
	order := fmt.Sprintf("%s %s", expr, strings.ToUpper(string(q.SortDir)))
	if q.SortBy != "id" {
		order += ", id ASC"
	}

	count := "SELECT COUNT(*) FROM inventory" + where
	sel := fmt.Sprintf("SELECT %s FROM inventory%s ORDER BY %s LIMIT ? OFFSET ?", itemColumns, where, order)

	countArgs := append([]any(nil), args...)
	args = append(args, q.PageSize, q.Offset())

	return listQuery{
		Count:     sqlx.Rebind(d.bindType(), count),
		CountArgs: countArgs,
		Select:    sqlx.Rebind(d.bindType(), sel),
		Args:      args,
	}
}
