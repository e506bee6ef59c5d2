package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"

	"github.com/JonMunkholm/cardinventory/internal/logging"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrations embed.FS

// Dialect selects the migration set and SQL flavor of a store.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

func (d Dialect) goose() (goose.Dialect, error) {
	switch d {
	case DialectPostgres:
		return goose.DialectPostgres, nil
	case DialectSQLite:
		return goose.DialectSQLite3, nil
	}
	return "", fmt.Errorf("no migrations for dialect %q", d)
}

// Migrate applies every pending migration for the dialect.
func Migrate(ctx context.Context, db *sql.DB, d Dialect) error {
	gd, err := d.goose()
	if err != nil {
		return err
	}

	fsys, err := fs.Sub(migrations, "migrations/"+string(d))
	if err != nil {
		return fmt.Errorf("migrations fs: %w", err)
	}

	provider, err := goose.NewProvider(gd, db, fsys)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	for _, r := range results {
		logging.FromContext(ctx).Info("migration applied",
			"dialect", d,
			"version", r.Source.Version,
			"duration", r.Duration,
		)
	}
	return nil
}
