// Package graph provides the pipeline graph execution engine: validation,
// topological scheduling, input binding and typed node dispatch.
package graph

import (
	"errors"
	"strings"
)

// ErrInvalidPipeline indicates that structural validation rejected the
// pipeline. No node was executed.
var ErrInvalidPipeline = errors.New("invalid pipeline")

// ErrCycle indicates that the dependency graph contains at least one cycle,
// so no complete topological order exists.
var ErrCycle = errors.New("pipeline contains cycles")

// ErrRegistryFrozen is returned when registering an executor on a registry
// that an engine has already taken ownership of.
var ErrRegistryFrozen = errors.New("executor registry is frozen")

// ErrNilRegistry is returned by New when no executor registry is supplied.
var ErrNilRegistry = errors.New("executor registry cannot be nil")

// EngineError is a run-level failure. Node-level failures never surface as
// an EngineError; they are recorded in the RunReport instead.
type EngineError struct {
	Message string
	Code    string

	// Validation carries the report that caused an INVALID_PIPELINE error.
	Validation *ValidationReport

	cause error
}

func (e *EngineError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

// Unwrap exposes the sentinel so callers can use errors.Is.
func (e *EngineError) Unwrap() error {
	return e.cause
}

func invalidPipelineError(report ValidationReport) *EngineError {
	return &EngineError{
		Message:    "invalid pipeline: " + strings.Join(report.Errors, "; "),
		Code:       "INVALID_PIPELINE",
		Validation: &report,
		cause:      ErrInvalidPipeline,
	}
}

// CycleError reports the nodes the scheduler could not place because they
// sit on, or downstream of, a cycle.
type CycleError struct {
	Unscheduled []string
}

func (e *CycleError) Error() string {
	return "pipeline contains cycles: unscheduled nodes " + strings.Join(e.Unscheduled, ", ")
}

// Unwrap returns ErrCycle.
func (e *CycleError) Unwrap() error {
	return ErrCycle
}
