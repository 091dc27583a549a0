// Package executors provides the built-in node strategies and a registry
// pre-populated with them.
package executors

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dshills/pipeline-go/graph"
	"github.com/dshills/pipeline-go/graph/expr"
	"github.com/dshills/pipeline-go/graph/model"
	"github.com/dshills/pipeline-go/graph/tool"
)

// Querier is the subset of *sql.DB the database node needs.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Dependencies are the collaborators the built-in executors call out to.
// Zero fields get offline defaults: the Placeholder model, a plain HTTP
// client, no database (mock results) and the HCL expression evaluator.
type Dependencies struct {
	Model     model.ChatModel
	HTTP      tool.Tool
	DB        Querier
	Evaluator expr.Evaluator
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Model == nil {
		d.Model = model.Placeholder{}
	}
	if d.HTTP == nil {
		d.HTTP = tool.NewHTTPTool()
	}
	if d.Evaluator == nil {
		d.Evaluator = expr.NewHCL()
	}
	return d
}

// NewDefaultRegistry returns a registry with every built-in node type:
//
//	customInput, input    InputExecutor
//	customOutput, output  OutputExecutor
//	text                  TextExecutor
//	llm                   LLMExecutor
//	transform             TransformExecutor
//	conditional           ConditionalExecutor
//	api                   APIExecutor
//	database              DatabaseExecutor
//	delay                 DelayExecutor
//
// The registry is not frozen; callers may add or replace types before
// handing it to graph.New.
func NewDefaultRegistry(deps Dependencies) (*graph.Registry, error) {
	deps = deps.withDefaults()
	reg := graph.NewRegistry()

	input := &InputExecutor{}
	output := &OutputExecutor{}
	builtins := []struct {
		nodeType string
		exec     graph.Executor
	}{
		{"customInput", input},
		{"input", input},
		{"customOutput", output},
		{"output", output},
		{"text", &TextExecutor{}},
		{"llm", NewLLMExecutor(deps.Model)},
		{"transform", NewTransformExecutor(deps.Evaluator)},
		{"conditional", NewConditionalExecutor(deps.Evaluator)},
		{"api", NewAPIExecutor(deps.HTTP)},
		{"database", NewDatabaseExecutor(deps.DB)},
		{"delay", &DelayExecutor{}},
	}
	for _, b := range builtins {
		if err := reg.Register(b.nodeType, b.exec); err != nil {
			return nil, fmt.Errorf("register %s executor: %w", b.nodeType, err)
		}
	}
	return reg, nil
}
