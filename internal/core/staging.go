package core

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/JonMunkholm/cardinventory/internal/metrics"
)

// DefaultPreviewRowLimit is how many staged rows are shown for review.
// Commits always include every row.
const DefaultPreviewRowLimit = 200

// Session holds the canonical rows of one upload while the operator reviews
// and edits them. All methods are safe for concurrent use.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.RWMutex
	fileName string
	headers  HeaderMap
	rows     []CanonicalRow
}

func newSession(fileName string, hm HeaderMap, rows []CanonicalRow) *Session {
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		fileName:  fileName,
		headers:   hm,
		rows:      rows,
	}
}

// ReplaceAll swaps in the rows of a new upload. Earlier edits are lost.
func (s *Session) ReplaceAll(fileName string, hm HeaderMap, rows []CanonicalRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fileName = fileName
	s.headers = hm
	s.rows = rows
}

// FileName returns the name of the upload currently staged.
func (s *Session) FileName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fileName
}

// UpdateCell sets one field of one staged row.
func (s *Session) UpdateCell(index int, f Field, value string) (CanonicalRow, error) {
	if !f.Valid() {
		return CanonicalRow{}, fmt.Errorf("%w: %q", ErrInvalidField, f)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.rows) {
		return CanonicalRow{}, fmt.Errorf("%w: %d", ErrRowOutOfRange, index)
	}
	if err := s.rows[index].Set(f, value); err != nil {
		return CanonicalRow{}, err
	}
	return s.rows[index].Clone(), nil
}

// AdjustQuantity adds delta to the row's coerced quantity and stores the
// result back as text.
func (s *Session) AdjustQuantity(index, delta int) (CanonicalRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.rows) {
		return CanonicalRow{}, fmt.Errorf("%w: %d", ErrRowOutOfRange, index)
	}
	row := &s.rows[index]
	qty := CoerceQuantity(row.Value(FieldQuantity)) + delta
	if err := row.Set(FieldQuantity, strconv.Itoa(qty)); err != nil {
		return CanonicalRow{}, err
	}
	return row.Clone(), nil
}

// Rows returns a copy of every staged row.
func (s *Session) Rows() []CanonicalRow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneRows(s.rows)
}

// Display returns at most limit rows and whether the rest were cut off.
// A limit of zero or less returns every row.
func (s *Session) Display(limit int) ([]CanonicalRow, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || len(s.rows) <= limit {
		return cloneRows(s.rows), false
	}
	return cloneRows(s.rows[:limit]), true
}

// Len returns the number of staged rows.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

// Headers returns the header map computed for the upload.
func (s *Session) Headers() HeaderMap {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.headers
}

// SessionRow is one staged row as presented for review.
type SessionRow struct {
	Index  int            `json:"index"`
	Row    CanonicalRow   `json:"row"`
	Report CoercionReport `json:"report"`
}

// SessionSummary is the reviewable state of a session.
type SessionSummary struct {
	ID        string       `json:"id"`
	FileName  string       `json:"file_name"`
	CreatedAt time.Time    `json:"created_at"`
	Headers   HeaderMap    `json:"headers"`
	Unmatched []Field      `json:"unmatched"`
	Columns   []Field      `json:"columns"`
	TotalRows int          `json:"total_rows"`
	Truncated bool         `json:"truncated"`
	Defaulted int          `json:"defaulted"`
	Rows      []SessionRow `json:"rows"`
}

// Summary renders the first limit rows together with per-row coercion
// reports. Defaulted counts every row, including those not displayed.
func (s *Session) Summary(limit int) SessionSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := SessionSummary{
		ID:        s.ID,
		FileName:  s.fileName,
		CreatedAt: s.CreatedAt,
		Headers:   s.headers,
		Unmatched: s.headers.Unmatched(),
		Columns:   PreviewFields(),
		TotalRows: len(s.rows),
		Rows:      []SessionRow{},
	}
	for i, row := range s.rows {
		_, report := CoerceRow(row)
		if report.Defaulted() {
			sum.Defaulted++
		}
		if limit > 0 && i >= limit {
			sum.Truncated = true
			continue
		}
		sum.Rows = append(sum.Rows, SessionRow{Index: i, Row: row.Clone(), Report: report})
	}
	return sum
}

func cloneRows(rows []CanonicalRow) []CanonicalRow {
	out := make([]CanonicalRow, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out
}

// SessionStore keeps staging sessions by id. Sessions expire after the TTL
// or when the store is full, which stands in for an operator walking away.
type SessionStore struct {
	sessions *expirable.LRU[string, *Session]
}

// NewSessionStore creates a store holding at most size sessions for ttl each.
func NewSessionStore(size int, ttl time.Duration) *SessionStore {
	if size <= 0 {
		size = 64
	}
	onEvict := func(string, *Session) {
		metrics.StagingSessionsClosed.Inc()
	}
	return &SessionStore{sessions: expirable.NewLRU[string, *Session](size, onEvict, ttl)}
}

// Create stages parsed rows. The header map is computed once from the file's
// header row and reused for every row.
func (st *SessionStore) Create(fileName string, table *RawTable, synonyms SynonymTable) *Session {
	hm, rows := canonicalizeTable(table, synonyms)
	s := newSession(fileName, hm, rows)
	st.sessions.Add(s.ID, s)
	metrics.RowsStaged.Add(float64(len(rows)))
	return s
}

// Replace re-matches headers for a new upload and swaps it into an existing
// session. The session keeps its id and its expiry restarts.
func (st *SessionStore) Replace(id, fileName string, table *RawTable, synonyms SynonymTable) (*Session, error) {
	s, err := st.Get(id)
	if err != nil {
		return nil, err
	}
	hm, rows := canonicalizeTable(table, synonyms)
	s.ReplaceAll(fileName, hm, rows)
	st.sessions.Add(s.ID, s)
	metrics.RowsStaged.Add(float64(len(rows)))
	return s, nil
}

func canonicalizeTable(table *RawTable, synonyms SynonymTable) (HeaderMap, []CanonicalRow) {
	var hm HeaderMap
	if len(table.Headers) > 0 {
		hm = MatchHeaders(table.Headers, synonyms)
	} else {
		hm = MatchFirstRow(table.Rows, synonyms)
	}
	return hm, CanonicalizeAll(table.Rows, hm)
}

// Get returns a live session.
func (st *SessionStore) Get(id string) (*Session, error) {
	s, ok := st.sessions.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// Discard drops a session. Unknown ids are ignored.
func (st *SessionStore) Discard(id string) {
	st.sessions.Remove(id)
}

// Len returns the number of live sessions.
func (st *SessionStore) Len() int {
	return st.sessions.Len()
}
