package executors

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dshills/pipeline-go/graph"
	"github.com/dshills/pipeline-go/graph/expr"
)

// Transform operations.
const (
	OpMap    = "Map"
	OpFilter = "Filter"
	OpSort   = "Sort"
	OpReduce = "Reduce"
)

// TransformExecutor applies Map, Filter, Sort or Reduce to its bound "data"
// sequence. The per-item "expression" sees the element as item (and value)
// and its position as index; an empty expression is the element itself.
//
// Bad data is reported in the outputs, not as a node failure:
//
//	{result: <data unchanged>, error: "..."}
type TransformExecutor struct {
	eval expr.Evaluator
}

// NewTransformExecutor creates a TransformExecutor. A nil evaluator uses
// the HCL evaluator.
func NewTransformExecutor(eval expr.Evaluator) *TransformExecutor {
	if eval == nil {
		eval = expr.NewHCL()
	}
	return &TransformExecutor{eval: eval}
}

// Execute implements graph.Executor.
func (e *TransformExecutor) Execute(_ context.Context, cfg map[string]any, in graph.Inputs) (graph.Outputs, error) {
	data := in["data"]
	items, ok := asSlice(data)
	if !ok {
		return graph.Outputs{"result": data, "error": "input must be an array"}, nil
	}

	op := canonicalOperation(configString(cfg, "operation", OpMap))
	expression := strings.TrimSpace(configString(cfg, "expression", ""))

	var result any
	var err error
	switch op {
	case OpMap:
		result, err = e.mapItems(expression, items)
	case OpFilter:
		result, err = e.filterItems(expression, items)
	case OpSort:
		result, err = e.sortItems(expression, items)
	case OpReduce:
		result, err = e.reduceItems(expression, items)
	default:
		result = data
	}
	if err != nil {
		return graph.Outputs{"result": data, "error": err.Error()}, nil
	}
	return graph.Outputs{"result": result, "operation": op}, nil
}

func canonicalOperation(op string) string {
	for _, known := range []string{OpMap, OpFilter, OpSort, OpReduce} {
		if strings.EqualFold(op, known) {
			return known
		}
	}
	return op
}

func (e *TransformExecutor) apply(expression string, item any, index int) (any, error) {
	if expression == "" {
		return item, nil
	}
	v, err := e.eval.Evaluate(expression, map[string]any{"item": item, "value": item, "index": index})
	if err != nil {
		return nil, fmt.Errorf("item %d: %w", index, err)
	}
	return v, nil
}

func (e *TransformExecutor) mapItems(expression string, items []any) ([]any, error) {
	out := make([]any, len(items))
	for i, item := range items {
		v, err := e.apply(expression, item, i)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *TransformExecutor) filterItems(expression string, items []any) ([]any, error) {
	out := []any{}
	for i, item := range items {
		v, err := e.apply(expression, item, i)
		if err != nil {
			return nil, err
		}
		if expr.Truthy(v) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (e *TransformExecutor) sortItems(expression string, items []any) ([]any, error) {
	keys, err := e.mapItems(expression, items)
	if err != nil {
		return nil, err
	}
	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return lessValue(keys[idx[a]], keys[idx[b]])
	})
	out := make([]any, len(items))
	for i, j := range idx {
		out[i] = items[j]
	}
	return out, nil
}

func (e *TransformExecutor) reduceItems(expression string, items []any) (float64, error) {
	var sum float64
	for i, item := range items {
		v, err := e.apply(expression, item, i)
		if err != nil {
			return 0, err
		}
		n, err := expr.ToNumber(v)
		if err != nil {
			return 0, fmt.Errorf("reduce item %d: %w", i, err)
		}
		sum += n
	}
	return sum, nil
}

// lessValue orders numbers numerically and everything else by its text.
func lessValue(a, b any) bool {
	fa, okA := parseNumber(a)
	fb, okB := parseNumber(b)
	if okA && okB {
		return fa < fb
	}
	return stringify(a) < stringify(b)
}
