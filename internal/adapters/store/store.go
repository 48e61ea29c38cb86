// Package store implements the persistence adapters of forge: an in-memory store and a
// database/sql store backed by SQLite or PostgreSQL.
package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/zerr"
)

// Supported drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverPgx    = "pgx"
)

// Open returns the store selected by driver. For sqlite the dsn is a file path or a
// "file:" URI; for pgx it is a PostgreSQL connection string.
func Open(ctx context.Context, driver, dsn string) (ports.Store, error) {
	switch driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverSQLite:
		return OpenSQLite(ctx, dsn)
	case DriverPgx:
		return OpenPostgres(ctx, dsn)
	default:
		return nil, zerr.With(zerr.Wrap(domain.ErrUnsupportedStoreDriver, "store rejected"), "driver", driver)
	}
}

// sqliteDSN turns a plain path into a modernc.org/sqlite URI with a busy timeout and WAL
// journaling. The parent directory is created when needed.
func sqliteDSN(dsn string) (string, error) {
	if dsn == "" {
		dsn = domain.DefaultDatabasePath()
	}
	if dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return dsn, nil
	}
	if err := os.MkdirAll(filepath.Dir(dsn), domain.DirPerm); err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrStoreOpenFailed.Error()), "path", dsn)
	}
	return "file:" + dsn + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", nil
}
