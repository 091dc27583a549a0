package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// OpenDB opens a database/sql handle for the named driver. Supported
// drivers are "sqlite", "mysql" and "postgres" (alias "pgx", served by
// pgx's stdlib driver). The connection is verified before returning.
func OpenDB(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3":
		return OpenSQLite(dsn)
	case "mysql":
		return OpenMySQL(dsn)
	case "postgres", "postgresql", "pgx":
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open Postgres connection: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to ping Postgres: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Open returns a result store for driver: "memory", "sqlite" or "mysql".
// The returned close function releases the underlying connection.
func Open[R any](driver, dsn string) (Store[R], func() error, error) {
	switch strings.ToLower(driver) {
	case "", "memory":
		return NewMemStore[R](), func() error { return nil }, nil
	case "sqlite", "sqlite3":
		st, err := NewSQLiteStore[R](dsn)
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	case "mysql":
		st, err := NewMySQLStore[R](dsn)
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store driver %q", driver)
	}
}
