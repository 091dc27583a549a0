package graph

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// nodeTimeoutKey is the node config key holding a per-node timeout in
// milliseconds.
const nodeTimeoutKey = "timeoutMs"

// getNodeTimeout determines the timeout for a node based on precedence:
// 1. "timeoutMs" in the node config (per-node override)
// 2. defaultTimeout (engine-wide default)
// 3. 0 (no timeout)
func getNodeTimeout(config map[string]any, defaultTimeout time.Duration) time.Duration {
	if ms, ok := positiveMillis(config[nodeTimeoutKey]); ok {
		return time.Duration(ms * float64(time.Millisecond))
	}
	if defaultTimeout > 0 {
		return defaultTimeout
	}
	return 0
}

func positiveMillis(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case float64:
		f = n
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	return f, f > 0
}

// executeWithTimeout runs the executor under the node's timeout and converts
// panics into errors.
//
// A deadline hit inside the executor is reported as a NODE_TIMEOUT
// EngineError regardless of what the executor itself returned.
func executeWithTimeout(
	ctx context.Context,
	exec Executor,
	node Node,
	config map[string]any,
	inputs Inputs,
	defaultTimeout time.Duration,
) (out Outputs, err error) {
	timeout := getNodeTimeout(config, defaultTimeout)

	execCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("executor panicked: %v", r)
		}
	}()

	out, err = exec.Execute(execCtx, config, inputs)

	if timeout > 0 && errors.Is(execCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return nil, &EngineError{
			Message: fmt.Sprintf("node %s exceeded timeout of %v", node.ID, timeout),
			Code:    "NODE_TIMEOUT",
		}
	}
	return out, err
}
