package executors

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/dshills/pipeline-go/graph"
	"github.com/dshills/pipeline-go/graph/expr"
)

// InputExecutor is a pipeline entry point. It ignores upstream inputs and
// emits its configured value, coerced to its declared inputType, under
// both inputName and "output".
//
// Config:
//   - value (fallback: default): the literal value
//   - inputType: Text (default), Number, Boolean or Array, case-insensitive
//   - inputName: optional extra output key
type InputExecutor struct{}

// Execute implements graph.Executor.
func (InputExecutor) Execute(_ context.Context, cfg map[string]any, _ graph.Inputs) (graph.Outputs, error) {
	raw, ok := cfg["value"]
	if !ok || raw == nil {
		raw = cfg["default"]
	}
	value := coerceInput(raw, configString(cfg, "inputType", "Text"))

	out := graph.Outputs{"output": value}
	if name := configString(cfg, "inputName", ""); name != "" {
		out[name] = value
	}
	return out, nil
}

func coerceInput(v any, inputType string) any {
	switch strings.ToLower(inputType) {
	case "number":
		if f, ok := parseNumber(v); ok {
			return f
		}
		return 0.0

	case "boolean":
		switch x := v.(type) {
		case bool:
			return x
		case string:
			if b, err := strconv.ParseBool(strings.TrimSpace(x)); err == nil {
				return b
			}
		}
		return expr.Truthy(v)

	case "array":
		if s, ok := asSlice(v); ok {
			return s
		}
		if str, ok := v.(string); ok {
			var parsed []any
			if err := json.Unmarshal([]byte(str), &parsed); err == nil && parsed != nil {
				return parsed
			}
		}
		return []any{}

	default:
		return stringify(v)
	}
}

// OutputExecutor is a pipeline exit point. It passes its bound "input"
// through under outputName and "result".
type OutputExecutor struct{}

// Execute implements graph.Executor.
func (OutputExecutor) Execute(_ context.Context, cfg map[string]any, in graph.Inputs) (graph.Outputs, error) {
	value := in["input"]
	out := graph.Outputs{"result": value}
	if name := configString(cfg, "outputName", ""); name != "" {
		out[name] = value
	}
	return out, nil
}
