package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a SQLite implementation of Store[R].
//
// It keeps run results in a single-file database and needs no setup, which
// makes it the default persistent backend for the CLI. Tables are created on
// first use; WAL mode allows readers while a run is writing.
//
// Schema:
//   - pipeline_steps: one row per executed node (run_id, step)
//   - pipeline_runs: one summary row per run
type SQLiteStore[R any] struct {
	*sqlStore[R]
	path string
}

var sqliteDialect = sqlDialect{
	name: "sqlite",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS pipeline_steps (
			run_id     TEXT    NOT NULL,
			step       INTEGER NOT NULL,
			node_id    TEXT    NOT NULL,
			result     TEXT    NOT NULL,
			created_at INTEGER NOT NULL,
			PRIMARY KEY (run_id, step)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pipeline_steps_node ON pipeline_steps(run_id, node_id)`,
		`CREATE TABLE IF NOT EXISTS pipeline_runs (
			run_id       TEXT    PRIMARY KEY,
			status       TEXT    NOT NULL,
			node_count   INTEGER NOT NULL,
			failed_count INTEGER NOT NULL,
			started_at   INTEGER NOT NULL,
			finished_at  INTEGER NOT NULL
		)`,
	},
	upsertStep: `
		INSERT INTO pipeline_steps (run_id, step, node_id, result, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id, step) DO UPDATE SET
			node_id = excluded.node_id,
			result = excluded.result,
			created_at = excluded.created_at`,
	upsertRun: `
		INSERT INTO pipeline_runs (run_id, status, node_count, failed_count, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			status = excluded.status,
			node_count = excluded.node_count,
			failed_count = excluded.failed_count,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at`,
}

// NewSQLiteStore opens (or creates) a SQLite database at path.
// Use ":memory:" for a throwaway database.
//
// Example:
//
//	st, err := store.NewSQLiteStore[graph.ExecutionResult]("./runs.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer st.Close()
func NewSQLiteStore[R any](path string) (*SQLiteStore[R], error) {
	db, err := OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	core, err := newSQLStore[R](context.Background(), db, sqliteDialect)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore[R]{sqlStore: core, path: path}, nil
}

// OpenSQLite opens a SQLite database with the connection settings used by
// SQLiteStore: a single connection, WAL journal, foreign keys and a 5s busy
// timeout.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite connection: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite supports one writer at a time
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx := context.Background()
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}
	return db, nil
}

// Path returns the database file path.
func (s *SQLiteStore[R]) Path() string {
	return s.path
}
