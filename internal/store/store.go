// Package store opens the inventory repository named by a database URL.
//
// Supported URLs:
//
//	memory:                      in-process, lost on exit
//	sqlite:inventory.db          SQLite file (sqlite::memory: for a scratch database)
//	postgres://user@host/db      PostgreSQL
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/cardinventory/internal/core"
	"github.com/JonMunkholm/cardinventory/internal/store/memory"
)

// ErrUnsupportedURL is returned for database URLs with an unknown scheme.
var ErrUnsupportedURL = errors.New("unsupported database URL")

// Store is a repository with a connection lifecycle.
type Store interface {
	core.Repository
	Ping(ctx context.Context) error
	Close() error
}

// Options configures Open.
type Options struct {
	Pool PoolOptions

	// AutoMigrate applies pending migrations after connecting.
	AutoMigrate bool
}

// Kind reports the dialect named by a database URL.
func Kind(url string) (Dialect, bool, error) {
	switch {
	case url == "memory:" || url == "memory":
		return "", true, nil
	case strings.HasPrefix(url, "sqlite:"):
		return DialectSQLite, false, nil
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return DialectPostgres, false, nil
	}
	return "", false, fmt.Errorf("%w: %q", ErrUnsupportedURL, redact(url))
}

// Open connects to the store named by url.
func Open(ctx context.Context, url string, opts Options) (Store, error) {
	dialect, inMemory, err := Kind(url)
	if err != nil {
		return nil, err
	}
	if inMemory {
		return memory.New(), nil
	}

	switch dialect {
	case DialectSQLite:
		s, err := OpenSQLite(ctx, sqlitePath(url))
		if err != nil {
			return nil, err
		}
		if opts.AutoMigrate {
			if err := Migrate(ctx, s.DB(), DialectSQLite); err != nil {
				s.Close()
				return nil, err
			}
		}
		return s, nil

	default:
		s, err := OpenPostgres(ctx, url, opts.Pool)
		if err != nil {
			return nil, err
		}
		if opts.AutoMigrate {
			db := s.DB()
			err := Migrate(ctx, db, DialectPostgres)
			db.Close()
			if err != nil {
				s.Close()
				return nil, err
			}
		}
		return s, nil
	}
}

// sqlitePath strips the scheme, accepting both sqlite:path and sqlite://path.
func sqlitePath(url string) string {
	path := strings.TrimPrefix(url, "sqlite:")
	return strings.TrimPrefix(path, "//")
}

// redact hides everything after the scheme so credentials are not logged.
func redact(url string) string {
	if i := strings.Index(url, "://"); i >= 0 {
		return url[:i+3] + "..."
	}
	return url
}
