package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/JonMunkholm/cardinventory/internal/core"
)

// PoolOptions tunes the pgx connection pool. Zero values keep pgx defaults.
type PoolOptions struct {
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Postgres is a core.Repository backed by a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
}

type pgRow struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	Quantity  int       `db:"quantity"`
	Price     string    `db:"price"`
	Set       *string   `db:"set_name"`
	SetCode   *string   `db:"set_code"`
	Number    *string   `db:"number"`
	Foil      *string   `db:"foil"`
	Rarity    *string   `db:"rarity"`
	TCGID     *string   `db:"tcgplayer_product_id"`
	Raw       []byte    `db:"raw"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r pgRow) item() (core.Item, error) {
	item, err := itemFields(r.ID, r.Name, r.Quantity, r.Price, r.Set, r.SetCode, r.Number, r.Foil, r.Rarity, r.TCGID, r.Raw)
	if err != nil {
		return core.Item{}, err
	}
	item.CreatedAt = r.CreatedAt
	item.UpdatedAt = r.UpdatedAt
	return item, nil
}

// OpenPostgres connects and pings.
func OpenPostgres(ctx context.Context, url string, opts PoolOptions) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if opts.MaxConns > 0 {
		poolConfig.MaxConns = int32(opts.MaxConns)
	}
	if opts.MinConns > 0 {
		poolConfig.MinConns = int32(opts.MinConns)
	}
	if opts.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = opts.MaxConnLifetime
	}
	if opts.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = opts.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// DB returns a database/sql handle sharing the pool, for migrations. The
// caller closes it; closing does not close the pool.
func (s *Postgres) DB() *sql.DB { return stdlib.OpenDBFromPool(s.pool) }

func (s *Postgres) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Postgres) Close() error {
	s.pool.Close()
	return nil
}

func (s *Postgres) collect(rows pgx.Rows) ([]core.Item, error) {
	scanned, err := pgx.CollectRows(rows, pgx.RowToStructByName[pgRow])
	if err != nil {
		return nil, err
	}
	items := make([]core.Item, 0, len(scanned))
	for _, r := range scanned {
		item, err := r.item()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *Postgres) one(rows pgx.Rows) (core.Item, error) {
	r, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[pgRow])
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Item{}, core.ErrNotFound
	}
	if err != nil {
		return core.Item{}, err
	}
	return r.item()
}

// List pushes search, sort and paging into SQL.
func (s *Postgres) List(ctx context.Context, q core.QueryState) (core.Page, error) {
	lq := buildListQuery(DialectPostgres, q)

	var total int
	if err := s.pool.QueryRow(ctx, lq.Count, lq.CountArgs...).Scan(&total); err != nil {
		return core.Page{}, fmt.Errorf("count inventory: %w", err)
	}

	rows, err := s.pool.Query(ctx, lq.Select, lq.Args...)
	if err != nil {
		return core.Page{}, fmt.Errorf("query inventory: %w", err)
	}
	items, err := s.collect(rows)
	if err != nil {
		return core.Page{}, fmt.Errorf("read inventory: %w", err)
	}
	return core.Page{Items: items, Total: total}, nil
}

func (s *Postgres) Get(ctx context.Context, id int64) (core.Item, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+itemColumns+" FROM inventory WHERE id = $1", id)
	if err != nil {
		return core.Item{}, fmt.Errorf("get item %d: %w", id, err)
	}
	return s.one(rows)
}

// Update applies the non-nil patch fields and bumps updated_at.
func (s *Postgres) Update(ctx context.Context, id int64, patch core.ItemPatch) (core.Item, error) {
	qty, err := toPgInt4(patch.Quantity)
	if err != nil {
		return core.Item{}, err
	}
	rows, err := s.pool.Query(ctx, `
		UPDATE inventory SET
			name = COALESCE($1, name),
			quantity = COALESCE($2, quantity),
			price = COALESCE($3, price),
			updated_at = now()
		WHERE id = $4
		RETURNING `+itemColumns,
		toPgText(patch.Name), qty, toPgNumericPtr(patch.Price), id,
	)
	if err != nil {
		return core.Item{}, fmt.Errorf("update item %d: %w", id, err)
	}
	return s.one(rows)
}

func (s *Postgres) Delete(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM inventory WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete item %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *Postgres) Clear(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, "DELETE FROM inventory")
	if err != nil {
		return 0, fmt.Errorf("clear inventory: %w", err)
	}
	return tag.RowsAffected(), nil
}

var copyColumns = []string{
	"name", "quantity", "price", "set_name", "set_code", "number",
	"foil", "rarity", "tcgplayer_product_id", "raw",
}

// InsertBatch copies all items in one transaction.
func (s *Postgres) InsertBatch(ctx context.Context, items []core.NewItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	n, err := tx.CopyFrom(ctx, pgx.Identifier{"inventory"}, copyColumns,
		pgx.CopyFromSlice(len(items), func(i int) ([]any, error) {
			it := items[i]
			qty, err := toPgInt4(&it.Quantity)
			if err != nil {
				return nil, err
			}
			return []any{
				it.Name,
				qty,
				toPgNumeric(it.Price),
				toPgText(it.Set),
				toPgText(it.SetCode),
				toPgText(it.Number),
				toPgText(it.Foil),
				toPgText(it.Rarity),
				toPgText(it.TCGPlayerProductID),
				rawBytes(it.Raw),
			}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("copy rows: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return int(n), nil
}
