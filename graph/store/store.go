// Package store provides persistence for pipeline run results.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested run or step does not exist.
var ErrNotFound = errors.New("not found")

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store is closed")

// Run status values recorded in RunRecord.Status.
const (
	RunStatusCompleted = "completed"
	RunStatusRejected  = "rejected"
)

// Store persists node results and run summaries.
//
// Type parameter R is the per-node result type. It must round-trip through
// encoding/json for the SQL-backed implementations.
//
// Implementations must be safe for concurrent use.
type Store[R any] interface {
	// SaveStep records the result of the node executed at the given step
	// (1-based position in the execution order). Saving the same runID and
	// step twice replaces the earlier record.
	SaveStep(ctx context.Context, runID string, step int, nodeID string, result R) error

	// LoadSteps returns every recorded step for runID ordered by step.
	// Returns ErrNotFound if the run has no steps.
	LoadSteps(ctx context.Context, runID string) ([]StepRecord[R], error)

	// LoadLatest returns the result with the highest step number for runID.
	// Returns ErrNotFound if the run has no steps.
	LoadLatest(ctx context.Context, runID string) (result R, step int, err error)

	// SaveRun records or replaces the summary of a run.
	SaveRun(ctx context.Context, run RunRecord) error

	// LoadRun returns the summary of a run, or ErrNotFound.
	LoadRun(ctx context.Context, runID string) (RunRecord, error)
}

// StepRecord is one persisted node result.
type StepRecord[R any] struct {
	Step   int
	NodeID string
	Result R
}

// RunRecord summarizes one run.
type RunRecord struct {
	RunID       string    `json:"runId"`
	Status      string    `json:"status"`
	NodeCount   int       `json:"nodeCount"`
	FailedCount int       `json:"failedCount"`
	StartedAt   time.Time `json:"startedAt"`
	FinishedAt  time.Time `json:"finishedAt"`
}
