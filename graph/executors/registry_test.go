package executors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/pipeline-go/graph"
	"github.com/dshills/pipeline-go/graph/emit"
	"github.com/dshills/pipeline-go/graph/model"
)

func TestNewDefaultRegistry(t *testing.T) {
	reg, err := NewDefaultRegistry(Dependencies{})
	require.NoError(t, err)

	want := []string{
		"api", "conditional", "customInput", "customOutput", "database",
		"delay", "input", "llm", "output", "text", "transform",
	}
	assert.Equal(t, want, reg.Types())

	// Every registered type has a port schema.
	for _, typ := range reg.Types() {
		_, ok := PortsFor(graph.Node{Type: typ})
		assert.True(t, ok, "no ports for %s", typ)
	}

	// Still open for extension until an engine takes it.
	require.NoError(t, reg.Register("custom", graph.ExecutorFunc(func(context.Context, map[string]any, graph.Inputs) (graph.Outputs, error) {
		return graph.Outputs{}, nil
	})))
}

// A question flows through a template into the placeholder model, then
// through a conditional and a transform to two outputs.
func TestDefaultRegistry_EndToEnd(t *testing.T) {
	reg, err := NewDefaultRegistry(Dependencies{})
	require.NoError(t, err)

	buf := emit.NewBufferedEmitter()
	engine, err := graph.New(reg, graph.WithEmitter(buf), graph.WithRunIDGenerator(func() string { return "e2e" }))
	require.NoError(t, err)

	nodes := []graph.Node{
		{ID: "question", Type: "customInput", Config: map[string]any{"value": "What is Go?", "inputName": "question"}},
		{ID: "numbers", Type: "customInput", Config: map[string]any{"value": "[3, 1, 2]", "inputType": "Array"}},
		{ID: "prompt", Type: "text", Config: map[string]any{"text": "Answer briefly: {{question}}"}},
		{ID: "model", Type: "llm", Config: map[string]any{"temperature": 0.5}},
		{ID: "check", Type: "conditional", Config: map[string]any{"condition": `strlen(value) > 0`}},
		{ID: "sorted", Type: "transform", Config: map[string]any{"operation": "Sort"}},
		{ID: "pause", Type: "delay", Config: map[string]any{"duration": 1}},
		{ID: "answer", Type: "customOutput", Config: map[string]any{"outputName": "answer"}},
		{ID: "list", Type: "customOutput"},
	}
	edges := []graph.Edge{
		{ID: "e1", Source: "question", Target: "prompt", SourcePort: "question", TargetPort: "question"},
		{ID: "e2", Source: "prompt", Target: "model", TargetPort: "prompt"},
		{ID: "e3", Source: "model", Target: "check", SourcePort: "response"},
		{ID: "e4", Source: "check", Target: "answer", SourcePort: "true"},
		{ID: "e5", Source: "numbers", Target: "sorted", TargetPort: "data"},
		{ID: "e6", Source: "sorted", Target: "pause", SourcePort: "result"},
		{ID: "e7", Source: "pause", Target: "list"},
	}
	assert.Empty(t, PortWarnings(nodes, edges))

	report, err := engine.Run(context.Background(), nodes, edges)
	require.NoError(t, err)

	assert.Equal(t, "e2e", report.RunID)
	assert.Equal(t,
		[]string{"question", "numbers", "prompt", "sorted", "model", "pause", "check", "list", "answer"},
		report.ExecutionOrder)
	assert.Empty(t, report.FailedNodes())

	wantAnswer := `[GPT-4] Response to: "Answer briefly: What is Go?" (temp: 0.5)`
	assert.Equal(t, wantAnswer, report.Results["answer"].Outputs["answer"])
	assert.Equal(t, []any{1.0, 2.0, 3.0}, report.Results["list"].Outputs["result"])
	assert.Equal(t, true, report.Results["check"].Outputs["conditionMet"])

	ends := buf.GetHistoryWithFilter("e2e", emit.HistoryFilter{Msg: "node_end"})
	assert.Len(t, ends, len(nodes))
}

func TestDefaultRegistry_FailuresAreIsolated(t *testing.T) {
	mock := &model.MockChatModel{Responses: []model.ChatOut{{Text: "unused"}}}
	reg, err := NewDefaultRegistry(Dependencies{Model: mock})
	require.NoError(t, err)
	engine, err := graph.New(reg)
	require.NoError(t, err)

	nodes := []graph.Node{
		{ID: "in", Type: "customInput", Config: map[string]any{"value": ""}},
		{ID: "model", Type: "llm"},
		{ID: "call", Type: "api"},
		{ID: "out", Type: "customOutput"},
	}
	edges := []graph.Edge{
		{ID: "e1", Source: "in", Target: "model", TargetPort: "prompt"},
		{ID: "e2", Source: "model", Target: "out", SourcePort: "response"},
		{ID: "e3", Source: "call", Target: "out"},
	}

	report, err := engine.Run(context.Background(), nodes, edges)
	require.NoError(t, err)

	assert.Equal(t, []string{"model", "call"}, report.FailedNodes())
	assert.Equal(t, "invalid inputs: prompt input is required", report.Results["model"].Error)
	assert.Equal(t, "url is required", report.Results["call"].Error)
	assert.Equal(t, 0, mock.CallCount())

	// Both upstream results are failures, so nothing is bound.
	out := report.Results["out"]
	require.False(t, out.Failed())
	assert.Nil(t, out.Outputs["result"])
}
