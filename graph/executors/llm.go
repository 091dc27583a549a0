package executors

import (
	"context"
	"fmt"

	"github.com/dshills/pipeline-go/graph"
	"github.com/dshills/pipeline-go/graph/model"
)

// LLMExecutor sends its bound "system" and "prompt" inputs to a chat model.
//
// Config:
//   - modelName: reported model name (default GPT-4)
//   - temperature: sampling temperature (default 0.7)
//   - maxTokens: optional response limit
//
// Outputs: response, model, temperature.
type LLMExecutor struct {
	model model.ChatModel
}

// NewLLMExecutor creates an LLMExecutor. A nil model uses model.Placeholder.
func NewLLMExecutor(m model.ChatModel) *LLMExecutor {
	if m == nil {
		m = model.Placeholder{}
	}
	return &LLMExecutor{model: m}
}

// ValidateInputs requires a non-empty prompt.
func (e *LLMExecutor) ValidateInputs(in graph.Inputs) graph.InputValidation {
	if stringify(in["prompt"]) == "" {
		return graph.InputValidation{Errors: []string{"prompt input is required"}}
	}
	return graph.InputValidation{IsValid: true}
}

// Execute implements graph.Executor.
func (e *LLMExecutor) Execute(ctx context.Context, cfg map[string]any, in graph.Inputs) (graph.Outputs, error) {
	params := model.Params{
		Model:       configString(cfg, "modelName", model.DefaultModelName),
		Temperature: configNumber(cfg, "temperature", 0.7),
		MaxTokens:   int(configNumber(cfg, "maxTokens", 0)),
	}

	var messages []model.Message
	if system := stringify(in["system"]); system != "" {
		messages = append(messages, model.Message{Role: model.RoleSystem, Content: system})
	}
	messages = append(messages, model.Message{Role: model.RoleUser, Content: stringify(in["prompt"])})

	out, err := e.model.Chat(ctx, messages, params)
	if err != nil {
		return nil, fmt.Errorf("model call failed: %w", err)
	}

	return graph.Outputs{
		"response":    out.Text,
		"model":       params.Model,
		"temperature": params.Temperature,
	}, nil
}
