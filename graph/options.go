package graph

import (
	"errors"
	"time"

	"github.com/dshills/pipeline-go/graph/emit"
	"github.com/dshills/pipeline-go/graph/store"
	"github.com/google/uuid"
)

// Option is a functional option for configuring an Engine.
//
// Example:
//
//	engine, err := graph.New(registry,
//	    graph.WithEmitter(emit.NewLogEmitter(os.Stdout, false)),
//	    graph.WithDefaultNodeTimeout(30*time.Second),
//	    graph.WithResultSink(func(id string, r graph.ExecutionResult) { ... }),
//	)
type Option func(*engineConfig) error

// engineConfig collects options before they are applied to an Engine.
type engineConfig struct {
	emitter            emit.Emitter
	resultSink         ResultSink
	metrics            *PrometheusMetrics
	store              store.Store[ExecutionResult]
	defaultNodeTimeout time.Duration
	runID              func() string
	validator          Validator
}

// ResultSink is notified immediately after each node completes, before the
// next node starts. It is typically used to stream per-node results to a UI.
type ResultSink func(nodeID string, result ExecutionResult)

// WithEmitter sets the observability event receiver.
//
// Default: emit.NullEmitter.
func WithEmitter(emitter emit.Emitter) Option {
	return func(cfg *engineConfig) error {
		if emitter == nil {
			return errors.New("emitter cannot be nil")
		}
		cfg.emitter = emitter
		return nil
	}
}

// WithLogFunc routes the engine's human-readable log lines to fn.
// It is shorthand for WithEmitter(emit.NewFuncEmitter(fn)).
func WithLogFunc(fn func(message string)) Option {
	return func(cfg *engineConfig) error {
		if fn == nil {
			return errors.New("log function cannot be nil")
		}
		cfg.emitter = emit.NewFuncEmitter(fn)
		return nil
	}
}

// WithResultSink registers a callback invoked with each node's result as
// soon as it is recorded.
func WithResultSink(sink ResultSink) Option {
	return func(cfg *engineConfig) error {
		cfg.resultSink = sink
		return nil
	}
}

// WithMetrics enables Prometheus metrics collection.
func WithMetrics(metrics *PrometheusMetrics) Option {
	return func(cfg *engineConfig) error {
		cfg.metrics = metrics
		return nil
	}
}

// WithStore persists every node result and a summary of each run.
// Store failures are reported as events and never fail the run.
func WithStore(st store.Store[ExecutionResult]) Option {
	return func(cfg *engineConfig) error {
		cfg.store = st
		return nil
	}
}

// WithDefaultNodeTimeout bounds each node's execution time.
//
// Default: 0 (no timeout). A node may override it with a positive
// "timeoutMs" config value.
func WithDefaultNodeTimeout(d time.Duration) Option {
	return func(cfg *engineConfig) error {
		if d < 0 {
			return errors.New("default node timeout cannot be negative")
		}
		cfg.defaultNodeTimeout = d
		return nil
	}
}

// WithRunIDGenerator overrides how run identifiers are produced.
//
// Default: random UUIDs.
func WithRunIDGenerator(fn func() string) Option {
	return func(cfg *engineConfig) error {
		if fn == nil {
			return errors.New("run id generator cannot be nil")
		}
		cfg.runID = fn
		return nil
	}
}

// WithSourceTypes overrides which node types count as pipeline entry points
// for validation warnings.
func WithSourceTypes(types ...string) Option {
	return func(cfg *engineConfig) error {
		cfg.validator.SourceTypes = append([]string(nil), types...)
		return nil
	}
}

// WithSinkTypes overrides which node types count as pipeline exit points
// for validation warnings.
func WithSinkTypes(types ...string) Option {
	return func(cfg *engineConfig) error {
		cfg.validator.SinkTypes = append([]string(nil), types...)
		return nil
	}
}

func defaultConfig() engineConfig {
	return engineConfig{
		emitter: emit.NewNullEmitter(),
		runID:   uuid.NewString,
	}
}
