package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dshills/pipeline-go/graph/emit"
	"github.com/dshills/pipeline-go/graph/store"
)

// Engine validates, schedules and executes pipelines.
//
// Run walks the pipeline in topological order, one node at a time:
//   - Validates the graph and rejects it before any node runs
//   - Computes a deterministic Kahn order
//   - Binds each node's inputs from its predecessors' results
//   - Dispatches the node to the executor registered for its type
//   - Records per-node failures without aborting the run
//   - Emits observability events, updates metrics and persists results
//
// The Engine holds only read-only configuration. Everything that changes
// during a run lives in a per-run value, so concurrent Run calls on the
// same Engine are safe.
//
// Example:
//
//	reg, _ := executors.NewDefaultRegistry(executors.Dependencies{})
//	engine, err := graph.New(reg, graph.WithEmitter(emit.NewLogEmitter(os.Stdout, false)))
//	if err != nil {
//	    return err
//	}
//	report, err := engine.Run(ctx, nodes, edges)
type Engine struct {
	registry *Registry
	cfg      engineConfig
}

// New creates an Engine that dispatches nodes through registry.
//
// The registry is frozen: executors must be registered before New is
// called.
func New(registry *Registry, opts ...Option) (*Engine, error) {
	if registry == nil {
		return nil, ErrNilRegistry
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, &EngineError{Message: err.Error(), Code: "INVALID_OPTION"}
		}
	}
	registry.Freeze()
	return &Engine{registry: registry, cfg: cfg}, nil
}

// Registry returns the engine's executor registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// runState is the mutable state of a single run.
type runState struct {
	runID   string
	step    int
	results map[string]ExecutionResult
}

// failure reasons used for metrics and event metadata.
const (
	reasonExecutor        = "executor"
	reasonMissingExecutor = "missing_executor"
	reasonInvalidInputs   = "invalid_inputs"
	reasonTimeout         = "timeout"
	reasonCancelled       = "cancelled"
)

// Run executes a pipeline and returns a report with the execution order and
// one result per node.
//
// Run returns an error only when the pipeline is rejected before execution:
// an *EngineError matching ErrInvalidPipeline when validation fails (with the
// ValidationReport attached), or one matching ErrCycle when the scheduler
// cannot order every node. Once execution starts every node is attempted and
// failures are recorded as error markers in the report. Cancelling ctx makes
// the remaining nodes fail with the context error.
func (e *Engine) Run(ctx context.Context, nodes []Node, edges []Edge) (*RunReport, error) {
	rs := &runState{
		runID:   e.cfg.runID(),
		results: make(map[string]ExecutionResult, len(nodes)),
	}
	started := time.Now()

	e.emit(rs, "", "run_start", emit.LevelInfo, "Starting pipeline execution", map[string]interface{}{
		"nodes": len(nodes),
		"edges": len(edges),
	})

	validation := e.cfg.validator.Validate(nodes, edges)
	for _, w := range validation.Warnings {
		e.emit(rs, "", "validation_warning", emit.LevelWarn, "Warning: "+w, nil)
	}
	if !validation.IsValid {
		err := invalidPipelineError(validation)
		e.emit(rs, "", "run_rejected", emit.LevelError, "Pipeline validation failed: "+strings.Join(validation.Errors, "; "), map[string]interface{}{
			"error": err.Message,
		})
		e.cfg.metrics.RecordRun("rejected")
		e.saveRun(ctx, rs, store.RunStatusRejected, started, 0, 0)
		return nil, err
	}

	order, err := TopologicalOrder(nodes, edges)
	if err != nil {
		e.emit(rs, "", "run_rejected", emit.LevelError, "Pipeline contains cycles", map[string]interface{}{
			"error": err.Error(),
		})
		e.cfg.metrics.RecordRun("rejected")
		e.saveRun(ctx, rs, store.RunStatusRejected, started, 0, 0)
		return nil, &EngineError{Message: err.Error(), Code: "CYCLE_DETECTED", cause: err}
	}
	e.emit(rs, "", "run_scheduled", emit.LevelInfo, "Execution order: "+strings.Join(order, " -> "), map[string]interface{}{
		"order": strings.Join(order, ","),
	})

	e.cfg.metrics.RunStarted()
	defer e.cfg.metrics.RunFinished()

	byID := make(map[string]Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	failed := 0
	for i, id := range order {
		e.cfg.metrics.UpdatePendingNodes(len(order) - i)
		rs.step++

		res := e.executeNode(ctx, rs, byID[id], edges)
		if res.Failed() {
			failed++
		}
		rs.results[id] = res

		if e.cfg.resultSink != nil {
			e.cfg.resultSink(id, res)
		}
		if e.cfg.store != nil {
			if err := e.cfg.store.SaveStep(context.WithoutCancel(ctx), rs.runID, rs.step, id, res); err != nil {
				e.emit(rs, id, "store_error", emit.LevelWarn, "Failed to persist result of node "+id, map[string]interface{}{
					"error": err.Error(),
				})
			}
		}
	}
	e.cfg.metrics.UpdatePendingNodes(0)

	report := &RunReport{
		RunID:          rs.runID,
		ExecutionOrder: order,
		Results:        rs.results,
		Validation:     validation,
		StartedAt:      started,
		FinishedAt:     time.Now(),
	}

	e.emit(rs, "", "run_complete", emit.LevelInfo, "Pipeline execution completed", map[string]interface{}{
		"failed_nodes": failed,
		"duration_ms":  report.Duration().Milliseconds(),
	})
	e.cfg.metrics.RecordRun("completed")
	e.saveRun(ctx, rs, store.RunStatusCompleted, started, len(order), failed)

	return report, nil
}

// executeNode binds inputs, resolves the executor and runs it, converting
// every failure into an error-marker result.
func (e *Engine) executeNode(ctx context.Context, rs *runState, node Node, edges []Edge) ExecutionResult {
	start := time.Now()
	fail := func(reason, msg string, cause error) ExecutionResult {
		nodeErr := &NodeError{Message: msg, Code: strings.ToUpper(reason), NodeID: node.ID, Type: node.Type, Cause: cause}
		e.emit(rs, node.ID, "node_error", emit.LevelError, fmt.Sprintf("Error executing node %s: %s", node.ID, msg), map[string]interface{}{
			"error":       nodeErr.Error(),
			"reason":      reason,
			"node_type":   node.Type,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		e.cfg.metrics.RecordNode(node.Type, time.Since(start), reason)
		return Failure(msg)
	}

	if err := ctx.Err(); err != nil {
		return fail(reasonCancelled, err.Error(), err)
	}

	e.emit(rs, node.ID, "node_start", emit.LevelInfo, fmt.Sprintf("Executing %s node: %s", node.Type, node.ID), map[string]interface{}{
		"node_type": node.Type,
	})

	inputs := CollectInputs(node.ID, edges, rs.results)

	exec, ok := e.registry.Get(node.Type)
	if !ok {
		return fail(reasonMissingExecutor, "no executor found for node type: "+node.Type, nil)
	}

	if v, ok := exec.(InputValidator); ok {
		if check := v.ValidateInputs(inputs); !check.IsValid {
			return fail(reasonInvalidInputs, "invalid inputs: "+strings.Join(check.Errors, "; "), nil)
		}
	}

	out, err := executeWithTimeout(ctx, exec, node, node.configCopy(), inputs, e.cfg.defaultNodeTimeout)
	if err != nil {
		var engErr *EngineError
		switch {
		case errors.As(err, &engErr) && engErr.Code == "NODE_TIMEOUT":
			return fail(reasonTimeout, engErr.Message, err)
		case ctx.Err() != nil:
			return fail(reasonCancelled, err.Error(), err)
		default:
			return fail(reasonExecutor, err.Error(), err)
		}
	}

	res := Succeeded(out)
	e.emit(rs, node.ID, "node_end", emit.LevelInfo, fmt.Sprintf("Node %s executed successfully", node.ID), map[string]interface{}{
		"node_type":   node.Type,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	e.cfg.metrics.RecordNode(node.Type, time.Since(start), "")
	return res
}

func (e *Engine) emit(rs *runState, nodeID, msg string, level emit.Level, text string, meta map[string]interface{}) {
	e.cfg.emitter.Emit(emit.Event{
		RunID:  rs.runID,
		Step:   rs.step,
		NodeID: nodeID,
		Msg:    msg,
		Text:   text,
		Level:  level,
		Meta:   meta,
	})
}

func (e *Engine) saveRun(ctx context.Context, rs *runState, status string, started time.Time, nodes, failed int) {
	if e.cfg.store == nil {
		return
	}
	rec := store.RunRecord{
		RunID:       rs.runID,
		Status:      status,
		NodeCount:   nodes,
		FailedCount: failed,
		StartedAt:   started,
		FinishedAt:  time.Now(),
	}
	// Cancelled runs are still recorded.
	if err := e.cfg.store.SaveRun(context.WithoutCancel(ctx), rec); err != nil {
		e.emit(rs, "", "store_error", emit.LevelWarn, "Failed to persist run summary", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
