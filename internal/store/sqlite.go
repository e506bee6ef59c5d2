package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/cardinventory/internal/core"
)

// sqliteInsertChunk keeps each multi-row INSERT under SQLite's bind
// variable limit.
const sqliteInsertChunk = 500

// SQLite is a core.Repository backed by a SQLite file through sqlx.
type SQLite struct {
	db  *sqlx.DB
	now func() time.Time
}

type sqliteRow struct {
	ID        int64   `db:"id"`
	Name      string  `db:"name"`
	Quantity  int     `db:"quantity"`
	Price     string  `db:"price"`
	Set       *string `db:"set_name"`
	SetCode   *string `db:"set_code"`
	Number    *string `db:"number"`
	Foil      *string `db:"foil"`
	Rarity    *string `db:"rarity"`
	TCGID     *string `db:"tcgplayer_product_id"`
	Raw       *string `db:"raw"`
	CreatedAt string  `db:"created_at"`
	UpdatedAt string  `db:"updated_at"`
}

func (r sqliteRow) item() (core.Item, error) {
	var raw []byte
	if r.Raw != nil {
		raw = []byte(*r.Raw)
	}
	item, err := itemFields(r.ID, r.Name, r.Quantity, r.Price, r.Set, r.SetCode, r.Number, r.Foil, r.Rarity, r.TCGID, raw)
	if err != nil {
		return core.Item{}, err
	}
	if item.CreatedAt, err = parseSQLiteTime(r.CreatedAt); err != nil {
		return core.Item{}, err
	}
	if item.UpdatedAt, err = parseSQLiteTime(r.UpdatedAt); err != nil {
		return core.Item{}, err
	}
	return item, nil
}

type sqliteNewRow struct {
	Name      string  `db:"name"`
	Quantity  int     `db:"quantity"`
	Price     string  `db:"price"`
	Set       *string `db:"set_name"`
	SetCode   *string `db:"set_code"`
	Number    *string `db:"number"`
	Foil      *string `db:"foil"`
	Rarity    *string `db:"rarity"`
	TCGID     *string `db:"tcgplayer_product_id"`
	Raw       *string `db:"raw"`
	CreatedAt string  `db:"created_at"`
	UpdatedAt string  `db:"updated_at"`
}

// OpenSQLite opens (creating if needed) the database at dsn. ":memory:"
// pins the pool to one connection so every query sees the same database.
func OpenSQLite(ctx context.Context, dsn string) (*SQLite, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure sqlite: %w", err)
	}
	return &SQLite{db: db, now: time.Now}, nil
}

// DB exposes the handle for migrations.
func (s *SQLite) DB() *sql.DB { return s.db.DB }

func (s *SQLite) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLite) Close() error { return s.db.Close() }

// List pushes search, sort and paging into SQL.
func (s *SQLite) List(ctx context.Context, q core.QueryState) (core.Page, error) {
	lq := buildListQuery(DialectSQLite, q)

	var total int
	if err := s.db.GetContext(ctx, &total, lq.Count, lq.CountArgs...); err != nil {
		return core.Page{}, fmt.Errorf("count inventory: %w", err)
	}

	var rows []sqliteRow
	if err := s.db.SelectContext(ctx, &rows, lq.Select, lq.Args...); err != nil {
		return core.Page{}, fmt.Errorf("query inventory: %w", err)
	}

	items := make([]core.Item, 0, len(rows))
	for _, r := range rows {
		item, err := r.item()
		if err != nil {
			return core.Page{}, err
		}
		items = append(items, item)
	}
	return core.Page{Items: items, Total: total}, nil
}

func (s *SQLite) Get(ctx context.Context, id int64) (core.Item, error) {
	var r sqliteRow
	err := s.db.GetContext(ctx, &r, "SELECT "+itemColumns+" FROM inventory WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Item{}, core.ErrNotFound
	}
	if err != nil {
		return core.Item{}, fmt.Errorf("get item %d: %w", id, err)
	}
	return r.item()
}

// Update applies the non-nil patch fields and bumps updated_at.
func (s *SQLite) Update(ctx context.Context, id int64, patch core.ItemPatch) (core.Item, error) {
	var price *string
	if patch.Price != nil {
		p := patch.Price.String()
		price = &p
	}

	var r sqliteRow
	err := s.db.GetContext(ctx, &r, `
		UPDATE inventory SET
			name = COALESCE(?, name),
			quantity = COALESCE(?, quantity),
			price = COALESCE(?, price),
			updated_at = ?
		WHERE id = ?
		RETURNING `+itemColumns,
		patch.Name, patch.Quantity, price, formatSQLiteTime(s.now()), id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Item{}, core.ErrNotFound
	}
	if err != nil {
		return core.Item{}, fmt.Errorf("update item %d: %w", id, err)
	}
	return r.item()
}

func (s *SQLite) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM inventory WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete item %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete item %d: %w", id, err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *SQLite) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM inventory")
	if err != nil {
		return 0, fmt.Errorf("clear inventory: %w", err)
	}
	return res.RowsAffected()
}

// InsertBatch inserts all items in one transaction.
func (s *SQLite) InsertBatch(ctx context.Context, items []core.NewItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := formatSQLiteTime(s.now())
	rows := make([]sqliteNewRow, len(items))
	for i, n := range items {
		rows[i] = sqliteNewRow{
			Name:      n.Name,
			Quantity:  n.Quantity,
			Price:     n.Price.String(),
			Set:       n.Set,
			SetCode:   n.SetCode,
			Number:    n.Number,
			Foil:      n.Foil,
			Rarity:    n.Rarity,
			TCGID:     n.TCGPlayerProductID,
			Raw:       rawText(n.Raw),
			CreatedAt: now,
			UpdatedAt: now,
		}
	}

	const insert = `INSERT INTO inventory
		(name, quantity, price, set_name, set_code, number, foil, rarity, tcgplayer_product_id, raw, created_at, updated_at)
		VALUES
		(:name, :quantity, :price, :set_name, :set_code, :number, :foil, :rarity, :tcgplayer_product_id, :raw, :created_at, :updated_at)`

	for start := 0; start < len(rows); start += sqliteInsertChunk {
		end := min(start+sqliteInsertChunk, len(rows))
		if _, err := tx.NamedExecContext(ctx, insert, rows[start:end]); err != nil {
			return 0, fmt.Errorf("insert rows %d-%d: %w", start, end, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(items), nil
}
