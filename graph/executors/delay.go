package executors

import (
	"context"
	"time"

	"github.com/dshills/pipeline-go/graph"
)

// DefaultDelayMs is the delay applied when "duration" is not configured.
const DefaultDelayMs = 1000

// DelayExecutor waits "duration" milliseconds, then passes its bound
// "input" through as output. Negative durations are treated as zero.
// Cancellation while waiting fails the node.
type DelayExecutor struct{}

// Execute implements graph.Executor.
func (DelayExecutor) Execute(ctx context.Context, cfg map[string]any, in graph.Inputs) (graph.Outputs, error) {
	ms := configNumber(cfg, "duration", DefaultDelayMs)
	if ms < 0 {
		ms = 0
	}

	timer := time.NewTimer(time.Duration(ms * float64(time.Millisecond)))
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return graph.Outputs{"output": in["input"], "delayApplied": ms}, nil
}
