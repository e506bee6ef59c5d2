package core

import (
	"cmp"
	"math"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

const (
	// DefaultPageSize is the page size used when a query does not set one.
	DefaultPageSize = 25

	// MaxPageSize caps the page size a caller may request.
	MaxPageSize = 500

	// DefaultSortField is used when a query names no sortable field.
	DefaultSortField = "id"
)

// SortDir is a sort direction.
type SortDir string

const (
	SortAsc  SortDir = "asc"
	SortDesc SortDir = "desc"
)

// QueryState is a caller-owned inventory query. Page is 1-indexed.
type QueryState struct {
	Search   string  `json:"q"`
	SortBy   string  `json:"sortBy"`
	SortDir  SortDir `json:"sortDir"`
	Page     int     `json:"page"`
	PageSize int     `json:"limit"`
}

// Page is one page of query results. Total counts every match, not just
// the items on this page.
type Page struct {
	Items []Item `json:"data"`
	Total int    `json:"total"`
}

// compareItems orders items by one sortable field, ascending.
var compareItems = map[string]func(a, b Item) int{
	"id":         func(a, b Item) int { return cmp.Compare(a.ID, b.ID) },
	"name":       func(a, b Item) int { return compareText(a.Name, b.Name) },
	"quantity":   func(a, b Item) int { return cmp.Compare(a.Quantity, b.Quantity) },
	"price":      func(a, b Item) int { return a.Price.Cmp(b.Price) },
	"set":        func(a, b Item) int { return compareOptional(a.Set, b.Set) },
	"set_code":   func(a, b Item) int { return compareOptional(a.SetCode, b.SetCode) },
	"number":     func(a, b Item) int { return compareOptional(a.Number, b.Number) },
	"rarity":     func(a, b Item) int { return compareOptional(a.Rarity, b.Rarity) },
	"created_at": func(a, b Item) int { return a.CreatedAt.Compare(b.CreatedAt) },
	"updated_at": func(a, b Item) int { return a.UpdatedAt.Compare(b.UpdatedAt) },
}

// SortableFields lists the field names accepted by QueryState.SortBy.
func SortableFields() []string {
	fields := make([]string, 0, len(compareItems))
	for f := range compareItems {
		fields = append(fields, f)
	}
	slices.Sort(fields)
	return fields
}

// compareText compares lowercased text so SQL stores can match the order
// with ORDER BY lower(col).
func compareText(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

// compareOptional treats null as the empty string.
func compareOptional(a, b *string) int {
	var as, bs string
	if a != nil {
		as = *a
	}
	if b != nil {
		bs = *b
	}
	return compareText(as, bs)
}

// NormalizeQuery resolves defaults and invalid values. An unknown sort field
// falls back to id ascending, an unknown direction to ascending. Page sizes
// are clamped to [1, MaxPageSize] with DefaultPageSize for zero. Pages are
// capped so the page offset plus one page still fits in an int.
func NormalizeQuery(q QueryState) QueryState {
	q.Search = strings.TrimSpace(q.Search)

	q.SortBy = strings.ToLower(strings.TrimSpace(q.SortBy))
	q.SortDir = SortDir(strings.ToLower(string(q.SortDir)))
	if _, ok := compareItems[q.SortBy]; !ok {
		q.SortBy = DefaultSortField
		q.SortDir = SortAsc
	}
	if q.SortDir != SortAsc && q.SortDir != SortDesc {
		q.SortDir = SortAsc
	}

	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	q.Page = min(q.Page, maxPage(q.PageSize))
	return q
}

// maxPage is the last page whose end offset does not overflow an int.
func maxPage(pageSize int) int {
	return math.MaxInt / pageSize
}

// Offset returns the number of items before the page.
func (q QueryState) Offset() int {
	if q.PageSize <= 0 {
		return 0
	}
	page := min(max(q.Page, 1), maxPage(q.PageSize))
	return (page - 1) * q.PageSize
}

// TotalPages returns how many pages total items span, at least one.
func (q QueryState) TotalPages(total int) int {
	if q.PageSize <= 0 || total <= 0 {
		return 1
	}
	return (total + q.PageSize - 1) / q.PageSize
}

// ToggleSort applies a column-header click: the current column flips
// direction, a new column sorts ascending. Either way paging restarts.
func (q *QueryState) ToggleSort(field string) {
	if q.SortBy == field {
		if q.SortDir == SortAsc {
			q.SortDir = SortDesc
		} else {
			q.SortDir = SortAsc
		}
	} else {
		q.SortBy = field
		q.SortDir = SortAsc
	}
	q.Page = 1
}

// Query searches, sorts and pages items in memory. Ties keep the order of
// the input slice. A page past the end returns no items and the full total.
func Query(items []Item, q QueryState) Page {
	q = NormalizeQuery(q)

	matches := make([]Item, 0, len(items))
	if q.Search == "" {
		matches = append(matches, items...)
	} else {
		needle := cases.Fold().String(q.Search)
		for _, it := range items {
			if matchesSearch(it, needle) {
				matches = append(matches, it)
			}
		}
	}

	compare := compareItems[q.SortBy]
	slices.SortStableFunc(matches, func(a, b Item) int {
		if q.SortDir == SortDesc {
			return compare(b, a)
		}
		return compare(a, b)
	})

	total := len(matches)
	start := q.Offset()
	if start >= total {
		return Page{Items: []Item{}, Total: total}
	}
	end := min(start+q.PageSize, total)
	return Page{Items: slices.Clone(matches[start:end]), Total: total}
}

// matchesSearch reports whether the folded needle occurs in the item's name
// or decimal id.
func matchesSearch(it Item, needle string) bool {
	if strings.Contains(cases.Fold().String(it.Name), needle) {
		return true
	}
	return strings.Contains(strconv.FormatInt(it.ID, 10), needle)
}
