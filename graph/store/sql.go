package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

// sqlDialect holds the statements that differ between SQL backends.
type sqlDialect struct {
	name       string
	schema     []string
	upsertStep string
	upsertRun  string
}

// sqlStore implements Store[R] over database/sql. SQLiteStore and
// MySQLStore embed it and contribute their dialect and connection setup.
//
// Results are stored as JSON text; timestamps as Unix milliseconds so the
// schema reads the same on every backend.
type sqlStore[R any] struct {
	db      *sql.DB
	dialect sqlDialect
	mu      sync.RWMutex
	closed  bool
}

func newSQLStore[R any](ctx context.Context, db *sql.DB, d sqlDialect) (*sqlStore[R], error) {
	s := &sqlStore[R]{db: db, dialect: d}
	for _, stmt := range d.schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("failed to create %s tables: %w", d.name, err)
		}
	}
	return s, nil
}

func (s *sqlStore[R]) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// SaveStep persists a node result, replacing an existing record for the
// same run and step.
func (s *sqlStore[R]) SaveStep(ctx context.Context, runID string, step int, nodeID string, result R) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, s.dialect.upsertStep,
		runID, step, nodeID, string(data), time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("failed to save step: %w", err)
	}
	return nil
}

// LoadSteps returns every recorded step of a run ordered by step.
func (s *sqlStore[R]) LoadSteps(ctx context.Context, runID string) ([]StepRecord[R], error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT step, node_id, result FROM pipeline_steps WHERE run_id = ? ORDER BY step ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query steps: %w", err)
	}
	defer rows.Close()

	var out []StepRecord[R]
	for rows.Next() {
		var (
			rec  StepRecord[R]
			data string
		)
		if err := rows.Scan(&rec.Step, &rec.NodeID, &data); err != nil {
			return nil, fmt.Errorf("failed to scan step: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &rec.Result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal result of step %d: %w", rec.Step, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate steps: %w", err)
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

// LoadLatest returns the highest-numbered step of a run.
func (s *sqlStore[R]) LoadLatest(ctx context.Context, runID string) (result R, step int, err error) {
	if err := s.checkOpen(); err != nil {
		return result, 0, err
	}
	var data string
	err = s.db.QueryRowContext(ctx,
		`SELECT step, result FROM pipeline_steps WHERE run_id = ? ORDER BY step DESC LIMIT 1`, runID).
		Scan(&step, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return result, 0, ErrNotFound
	}
	if err != nil {
		return result, 0, fmt.Errorf("failed to load latest step: %w", err)
	}
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return result, 0, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return result, step, nil
}

// SaveRun records or replaces a run summary.
func (s *sqlStore[R]) SaveRun(ctx context.Context, run RunRecord) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if run.RunID == "" {
		return fmt.Errorf("run id cannot be empty")
	}
	if _, err := s.db.ExecContext(ctx, s.dialect.upsertRun,
		run.RunID, run.Status, run.NodeCount, run.FailedCount,
		run.StartedAt.UnixMilli(), run.FinishedAt.UnixMilli()); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// LoadRun returns a run summary.
func (s *sqlStore[R]) LoadRun(ctx context.Context, runID string) (RunRecord, error) {
	if err := s.checkOpen(); err != nil {
		return RunRecord{}, err
	}
	var (
		run              RunRecord
		started, finished int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id, status, node_count, failed_count, started_at, finished_at FROM pipeline_runs WHERE run_id = ?`, runID).
		Scan(&run.RunID, &run.Status, &run.NodeCount, &run.FailedCount, &started, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, ErrNotFound
	}
	if err != nil {
		return RunRecord{}, fmt.Errorf("failed to load run: %w", err)
	}
	run.StartedAt = time.UnixMilli(started)
	run.FinishedAt = time.UnixMilli(finished)
	return run, nil
}

// Ping verifies the database connection is alive.
func (s *sqlStore[R]) Ping(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.db.PingContext(ctx)
}

// Close closes the database connection. Calling Close twice is a no-op.
func (s *sqlStore[R]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
