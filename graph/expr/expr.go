// Package expr evaluates the small per-item expressions used by the
// transform and conditional nodes.
package expr

import (
	"fmt"
	"math"
	"strconv"
)

// Evaluator evaluates expression against vars and returns a plain Go value
// (string, float64, bool, []any, map[string]any or nil).
//
// The transform node binds each element as both "item" and "value"; the
// conditional node binds its input as "value".
type Evaluator interface {
	Evaluate(expression string, vars map[string]any) (any, error)
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(expression string, vars map[string]any) (any, error)

// Evaluate calls f.
func (f EvaluatorFunc) Evaluate(expression string, vars map[string]any) (any, error) {
	return f(expression, vars)
}

// Identity ignores the expression and returns vars["value"]. It reproduces
// pass-through evaluation for callers that do not want an expression
// language.
var Identity Evaluator = EvaluatorFunc(func(_ string, vars map[string]any) (any, error) {
	return vars["value"], nil
})

// Truthy reports whether v is truthy in the loose sense used by pipeline
// documents: nil, false, 0, NaN, "" are false; everything else, including
// empty collections, is true.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0 && !math.IsNaN(x)
	case float32:
		return x != 0 && !math.IsNaN(float64(x))
	case int:
		return x != 0
	case int64:
		return x != 0
	case int32:
		return x != 0
	case uint:
		return x != 0
	case uint64:
		return x != 0
	default:
		return true
	}
}

// ToNumber converts v to a float64 the way a loose numeric context would:
// numbers pass through, numeric strings are parsed, booleans are 0 or 1.
func ToNumber(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case uint:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil || math.IsNaN(f) {
			return 0, fmt.Errorf("%q is not a number", x)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%T is not a number", v)
	}
}
