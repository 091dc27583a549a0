package executors

import (
	"context"
	"fmt"
	"strings"

	"github.com/dshills/pipeline-go/graph"
	"github.com/dshills/pipeline-go/graph/expr"
)

// ConditionalExecutor routes its bound "input" to the "true" or "false"
// output. The other branch gets nil, so downstream nodes on the untaken
// branch see an absent value.
//
// The "condition" config is evaluated with the input bound as value; an
// empty condition tests the input's truthiness. A condition that fails to
// parse or evaluate fails the node.
type ConditionalExecutor struct {
	eval expr.Evaluator
}

// NewConditionalExecutor creates a ConditionalExecutor. A nil evaluator
// uses the HCL evaluator.
func NewConditionalExecutor(eval expr.Evaluator) *ConditionalExecutor {
	if eval == nil {
		eval = expr.NewHCL()
	}
	return &ConditionalExecutor{eval: eval}
}

// ValidateInputs requires a bound input.
func (e *ConditionalExecutor) ValidateInputs(in graph.Inputs) graph.InputValidation {
	if _, ok := in["input"]; !ok {
		return graph.InputValidation{Errors: []string{"input is required"}}
	}
	return graph.InputValidation{IsValid: true}
}

// Execute implements graph.Executor.
func (e *ConditionalExecutor) Execute(_ context.Context, cfg map[string]any, in graph.Inputs) (graph.Outputs, error) {
	value := in["input"]

	met := expr.Truthy(value)
	if condition := strings.TrimSpace(configString(cfg, "condition", "")); condition != "" {
		result, err := e.eval.Evaluate(condition, map[string]any{"value": value})
		if err != nil {
			return nil, fmt.Errorf("condition: %w", err)
		}
		met = expr.Truthy(result)
	}

	out := graph.Outputs{"true": nil, "false": nil, "conditionMet": met}
	if met {
		out["true"] = value
	} else {
		out["false"] = value
	}
	return out, nil
}
