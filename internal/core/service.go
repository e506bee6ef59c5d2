package core

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/JonMunkholm/cardinventory/internal/logging"
	"github.com/JonMunkholm/cardinventory/internal/metrics"
)

// Options configures a Service. Zero values select the defaults.
type Options struct {
	Synonyms             SynonymTable
	PreviewRowLimit      int
	MaxSessions          int
	SessionTTL           time.Duration
	MaxConcurrentImports int
	ImportWaitTime       time.Duration
	ImportTimeout        time.Duration
	ClearTimeout         time.Duration

	// Audit receives an entry for every committed change. Defaults to
	// LogAuditSink.
	Audit AuditSink
}

// DefaultSessionTTL is how long an untouched staging session survives.
const DefaultSessionTTL = 2 * time.Hour

// DefaultImportTimeout bounds a single import commit.
const DefaultImportTimeout = 10 * time.Minute

// DefaultClearTimeout bounds a clear-all.
const DefaultClearTimeout = 30 * time.Second

// Service provides the inventory business logic on top of a Repository.
type Service struct {
	repo      Repository
	sessions  *SessionStore
	synonyms  SynonymTable
	limiter   *ImportLimiter
	validator *Validator

	previewLimit  int
	importTimeout time.Duration
	clearTimeout  time.Duration
	auditSink     AuditSink
}

// NewService creates a Service over repo.
func NewService(repo Repository, opts Options) *Service {
	if opts.Synonyms.synonyms == nil {
		opts.Synonyms = DefaultSynonyms()
	}
	if opts.PreviewRowLimit <= 0 {
		opts.PreviewRowLimit = DefaultPreviewRowLimit
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = DefaultSessionTTL
	}
	if opts.ImportTimeout <= 0 {
		opts.ImportTimeout = DefaultImportTimeout
	}
	if opts.ClearTimeout <= 0 {
		opts.ClearTimeout = DefaultClearTimeout
	}
	if opts.Audit == nil {
		opts.Audit = LogAuditSink{}
	}

	return &Service{
		repo:          repo,
		sessions:      NewSessionStore(opts.MaxSessions, opts.SessionTTL),
		synonyms:      opts.Synonyms,
		limiter:       NewImportLimiter(opts.MaxConcurrentImports, opts.ImportWaitTime),
		validator:     NewValidator(),
		previewLimit:  opts.PreviewRowLimit,
		importTimeout: opts.ImportTimeout,
		clearTimeout:  opts.ClearTimeout,
		auditSink:     opts.Audit,
	}
}

// PreviewLimit returns how many staged rows are displayed for review.
func (s *Service) PreviewLimit() int {
	return s.previewLimit
}

// Synonyms returns the synonym table used for header matching.
func (s *Service) Synonyms() SynonymTable {
	return s.synonyms
}

// PreviewCSV parses an upload into raw rows without staging it.
func (s *Service) PreviewCSV(ctx context.Context, r io.Reader) ([]RawRow, error) {
	table, err := ParseCSV(r)
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Debug("csv parsed", "rows", len(table.Rows), "columns", len(table.Headers))
	if table.Rows == nil {
		return []RawRow{}, nil
	}
	return table.Rows, nil
}

// StageCSV parses an upload and opens a staging session for it.
func (s *Service) StageCSV(ctx context.Context, fileName string, r io.Reader) (*Session, error) {
	table, err := ParseCSV(r)
	if err != nil {
		return nil, err
	}
	if len(table.Rows) == 0 {
		return nil, fmt.Errorf("%w: no data rows", ErrEmptyFile)
	}

	session := s.sessions.Create(fileName, table, s.synonyms)
	ctx = logging.ContextWithSession(ctx, session.ID)
	logging.WithFields(ctx, "file", fileName).Info("upload staged",
		"rows", session.Len(),
		"unmatched", len(session.Headers().Unmatched()),
	)
	return session, nil
}

// ReplaceSessionCSV stages a new upload into an existing session, replacing
// every row and the header map. An empty or unreadable file leaves the
// session untouched.
func (s *Service) ReplaceSessionCSV(ctx context.Context, id, fileName string, r io.Reader) (*Session, error) {
	if _, err := s.sessions.Get(id); err != nil {
		return nil, err
	}
	table, err := ParseCSV(r)
	if err != nil {
		return nil, err
	}
	if len(table.Rows) == 0 {
		return nil, fmt.Errorf("%w: no data rows", ErrEmptyFile)
	}

	session, err := s.sessions.Replace(id, fileName, table, s.synonyms)
	if err != nil {
		return nil, err
	}
	ctx = logging.ContextWithSession(ctx, id)
	logging.WithFields(ctx, "file", fileName).Info("staged upload replaced",
		"rows", session.Len(),
		"unmatched", len(session.Headers().Unmatched()),
	)
	return session, nil
}

// StageRows opens a staging session for rows that were parsed elsewhere.
// Headers are matched from the first row's keys.
func (s *Service) StageRows(ctx context.Context, fileName string, rows []RawRow) (*Session, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no data rows", ErrEmptyFile)
	}
	session := s.sessions.Create(fileName, &RawTable{Rows: rows}, s.synonyms)
	logging.FromContext(logging.ContextWithSession(ctx, session.ID)).Info("rows staged", "rows", len(rows))
	return session, nil
}

// Session returns a live staging session.
func (s *Service) Session(id string) (*Session, error) {
	return s.sessions.Get(id)
}

// UpdateStagedCell edits one cell of a staged row. The field may be given
// by canonical name or any spelling that normalizes to it.
func (s *Service) UpdateStagedCell(id string, index int, field, value string) (CanonicalRow, error) {
	session, err := s.sessions.Get(id)
	if err != nil {
		return CanonicalRow{}, err
	}
	f, ok := ParseField(field)
	if !ok {
		return CanonicalRow{}, fmt.Errorf("%w: unknown column %q", ErrInvalidField, field)
	}
	return session.UpdateCell(index, f, value)
}

// AdjustStagedQuantity applies the +/- quantity control to a staged row.
func (s *Service) AdjustStagedQuantity(id string, index, delta int) (CanonicalRow, error) {
	session, err := s.sessions.Get(id)
	if err != nil {
		return CanonicalRow{}, err
	}
	return session.AdjustQuantity(index, delta)
}

// DiscardSession drops a staging session without importing it.
func (s *Service) DiscardSession(id string) {
	s.sessions.Discard(id)
}

// ImportResult describes a committed import.
type ImportResult struct {
	SessionID string        `json:"session_id,omitempty"`
	Inserted  int           `json:"inserted"`
	Duration  time.Duration `json:"duration_ns"`
}

// CommitSession imports every staged row of a session in one batch. The
// session is discarded on success and kept on failure so the operator can
// retry.
func (s *Service) CommitSession(ctx context.Context, id string) (*ImportResult, error) {
	session, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}

	ctx = logging.ContextWithSession(ctx, id)
	result, err := s.ImportItems(ctx, BuildNewItems(session.Rows()))
	if err != nil {
		return nil, err
	}

	s.sessions.Discard(id)
	result.SessionID = id
	return result, nil
}

// ImportItems inserts proposed records in one atomic batch. Negative
// quantities and prices are clamped to zero first.
func (s *Service) ImportItems(ctx context.Context, items []NewItem) (*ImportResult, error) {
	if len(items) == 0 {
		return nil, ErrNothingToImport
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.importTimeout)
	defer cancel()

	batch := make([]NewItem, len(items))
	for i, it := range items {
		batch[i] = it.Normalized()
	}

	start := time.Now()
	inserted, err := s.repo.InsertBatch(ctx, batch)
	elapsed := time.Since(start)
	metrics.ImportDuration.Observe(elapsed.Seconds())

	logger := logging.WithFields(ctx, "rows", len(batch))
	if err != nil {
		metrics.ImportsTotal.WithLabelValues(metrics.StatusFailed).Inc()
		logger.Error("import failed", "error", err, "duration", elapsed)
		return nil, fmt.Errorf("import: %w", err)
	}

	metrics.ImportsTotal.WithLabelValues(metrics.StatusSuccess).Inc()
	metrics.RowsImported.Add(float64(inserted))
	logger.Info("import committed", "inserted", inserted, "duration", elapsed)
	s.audit(ctx, ActionImport, 0, int64(inserted))

	return &ImportResult{Inserted: inserted, Duration: elapsed}, nil
}

// ListInventory returns one page of inventory.
func (s *Service) ListInventory(ctx context.Context, q QueryState) (Page, error) {
	q = NormalizeQuery(q)
	page, err := s.repo.List(ctx, q)
	if err != nil {
		return Page{}, fmt.Errorf("list inventory: %w", err)
	}
	if page.Items == nil {
		page.Items = []Item{}
	}
	return page, nil
}

// GetItem returns one inventory item.
func (s *Service) GetItem(ctx context.Context, id int64) (Item, error) {
	return s.repo.Get(ctx, id)
}

// UpdateItem applies a validated partial update. The name is trimmed.
func (s *Service) UpdateItem(ctx context.Context, id int64, patch ItemPatch) (Item, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
	}
	if err := s.validator.ValidatePatch(patch); err != nil {
		return Item{}, err
	}

	item, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return Item{}, fmt.Errorf("update item %d: %w", id, err)
	}
	metrics.ItemMutations.WithLabelValues(metrics.MutationUpdate).Inc()
	s.audit(ctx, ActionItemUpdate, id, 1)
	return item, nil
}

// DeleteItem removes one item. Unknown ids return ErrNotFound.
func (s *Service) DeleteItem(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete item %d: %w", id, err)
	}
	metrics.ItemMutations.WithLabelValues(metrics.MutationDelete).Inc()
	s.audit(ctx, ActionItemDelete, id, 1)
	return nil
}

// ClearInventory removes every item. The confirmation token must equal
// ClearConfirmationToken.
func (s *Service) ClearInventory(ctx context.Context, confirm string) (int64, error) {
	if confirm != ClearConfirmationToken {
		return 0, ErrConfirmationRequired
	}

	ctx, cancel := context.WithTimeout(ctx, s.clearTimeout)
	defer cancel()

	deleted, err := s.repo.Clear(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear inventory: %w", err)
	}
	metrics.ItemMutations.WithLabelValues(metrics.MutationClear).Inc()
	s.audit(ctx, ActionInventoryClear, 0, deleted)
	return deleted, nil
}

// ImportStatus reports the import limiter state.
func (s *Service) ImportStatus() ImportLimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until running imports finish or ctx is done.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
