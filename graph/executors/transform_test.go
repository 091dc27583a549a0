package executors

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/pipeline-go/graph"
	"github.com/dshills/pipeline-go/graph/expr"
)

func TestTransformExecutor(t *testing.T) {
	people := []any{
		map[string]any{"name": "Cy", "age": 41.0},
		map[string]any{"name": "Al", "age": 29.0},
		map[string]any{"name": "Bo", "age": 35.0},
	}

	tests := []struct {
		name string
		cfg  map[string]any
		data any
		want graph.Outputs
	}{
		{
			name: "map defaults to identity",
			cfg:  map[string]any{},
			data: []any{1.0, 2.0},
			want: graph.Outputs{"result": []any{1.0, 2.0}, "operation": OpMap},
		},
		{
			name: "map with expression",
			cfg:  map[string]any{"operation": "Map", "expression": "item * 2"},
			data: []any{1.0, 2.0, 3.0},
			want: graph.Outputs{"result": []any{2.0, 4.0, 6.0}, "operation": OpMap},
		},
		{
			name: "map sees the index",
			cfg:  map[string]any{"operation": "map", "expression": "index"},
			data: []any{"a", "b"},
			want: graph.Outputs{"result": []any{0.0, 1.0}, "operation": OpMap},
		},
		{
			name: "map over objects",
			cfg:  map[string]any{"operation": "Map", "expression": "upper(item.name)"},
			data: people,
			want: graph.Outputs{"result": []any{"CY", "AL", "BO"}, "operation": OpMap},
		},
		{
			name: "filter",
			cfg:  map[string]any{"operation": "FILTER", "expression": "item > 2"},
			data: []any{1.0, 3.0, 2.0, 5.0},
			want: graph.Outputs{"result": []any{3.0, 5.0}, "operation": OpFilter},
		},
		{
			name: "filter without expression drops falsy items",
			cfg:  map[string]any{"operation": "Filter"},
			data: []any{0.0, "", "x", nil, true},
			want: graph.Outputs{"result": []any{"x", true}, "operation": OpFilter},
		},
		{
			name: "sort by value",
			cfg:  map[string]any{"operation": "Sort"},
			data: []any{3.0, 1.0, 2.0},
			want: graph.Outputs{"result": []any{1.0, 2.0, 3.0}, "operation": OpSort},
		},
		{
			name: "sort by key expression",
			cfg:  map[string]any{"operation": "Sort", "expression": "item.age"},
			data: people,
			want: graph.Outputs{"result": []any{people[1], people[2], people[0]}, "operation": OpSort},
		},
		{
			name: "sort is stable",
			cfg:  map[string]any{"operation": "Sort", "expression": "0"},
			data: []any{"b", "a", "c"},
			want: graph.Outputs{"result": []any{"b", "a", "c"}, "operation": OpSort},
		},
		{
			name: "reduce sums",
			cfg:  map[string]any{"operation": "Reduce"},
			data: []any{1.0, "2", true},
			want: graph.Outputs{"result": 4.0, "operation": OpReduce},
		},
		{
			name: "reduce with expression",
			cfg:  map[string]any{"operation": "Reduce", "expression": "item.age"},
			data: people,
			want: graph.Outputs{"result": 105.0, "operation": OpReduce},
		},
		{
			name: "unknown operation passes data through",
			cfg:  map[string]any{"operation": "Shuffle"},
			data: []any{1.0},
			want: graph.Outputs{"result": []any{1.0}, "operation": "Shuffle"},
		},
		{
			name: "non-array input",
			cfg:  map[string]any{"operation": "Map"},
			data: "text",
			want: graph.Outputs{"result": "text", "error": "input must be an array"},
		},
		{
			name: "unbound input",
			cfg:  map[string]any{},
			data: nil,
			want: graph.Outputs{"result": nil, "error": "input must be an array"},
		},
	}

	exec := NewTransformExecutor(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := exec.Execute(context.Background(), tt.cfg, graph.Inputs{"data": tt.data})
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Execute() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTransformExecutor_ExpressionErrors(t *testing.T) {
	exec := NewTransformExecutor(nil)
	data := []any{1.0, "abc"}

	tests := []struct {
		name      string
		cfg       map[string]any
		errPrefix string
	}{
		{"parse error", map[string]any{"expression": "item +"}, "item 0: parse expression"},
		{"evaluation error", map[string]any{"expression": "item * 2"}, "item 1: evaluate expression"},
		{"reduce on text", map[string]any{"operation": "Reduce"}, `reduce item 1: "abc" is not a number`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := exec.Execute(context.Background(), tt.cfg, graph.Inputs{"data": data})
			if err != nil {
				t.Fatalf("Execute() error = %v, want errors reported in outputs", err)
			}
			msg, _ := got["error"].(string)
			if !strings.HasPrefix(msg, tt.errPrefix) {
				t.Errorf("error = %q, want prefix %q", msg, tt.errPrefix)
			}
			if diff := cmp.Diff(data, got["result"]); diff != "" {
				t.Errorf("result should be the unchanged data (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTransformExecutor_CustomEvaluator(t *testing.T) {
	double := expr.EvaluatorFunc(func(_ string, vars map[string]any) (any, error) {
		return vars["item"].(float64) * 2, nil
	})
	got, err := NewTransformExecutor(double).Execute(context.Background(),
		map[string]any{"expression": "anything"},
		graph.Inputs{"data": []float64{1, 2}})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if diff := cmp.Diff([]any{2.0, 4.0}, got["result"]); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
}
