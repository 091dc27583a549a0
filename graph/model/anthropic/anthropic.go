// Package anthropic provides a model.ChatModel backed by Anthropic's
// Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/dshills/pipeline-go/graph/model"
)

const (
	// DefaultModel is used when NewChatModel is given no model name.
	DefaultModel = "claude-3-5-haiku-latest"

	// DefaultMaxTokens is sent when Params.MaxTokens is zero; the API
	// requires a limit on every request.
	DefaultMaxTokens = 1024
)

// ChatModel implements model.ChatModel for Anthropic's Claude API.
//
// System messages are lifted out of the conversation into the request's
// system parameter.
//
// Example usage:
//
//	m := anthropic.NewChatModel(os.Getenv("ANTHROPIC_API_KEY"), "")
//	out, err := m.Chat(ctx, messages, model.Params{Temperature: 0.7})
type ChatModel struct {
	modelName string
	client    anthropicClient
}

type anthropicClient interface {
	createMessage(ctx context.Context, req request) (model.ChatOut, error)
}

// request is the provider-neutral shape handed to the client.
type request struct {
	Model       string
	System      string
	Messages    []model.Message
	Temperature float64
	MaxTokens   int64
}

// NewChatModel creates an Anthropic ChatModel. An empty modelName uses
// DefaultModel.
func NewChatModel(apiKey, modelName string, opts ...option.RequestOption) *ChatModel {
	if modelName == "" {
		modelName = DefaultModel
	}
	return &ChatModel{
		modelName: modelName,
		client:    newSDKClient(apiKey, opts...),
	}
}

// Chat implements model.ChatModel.
func (m *ChatModel) Chat(ctx context.Context, messages []model.Message, params model.Params) (model.ChatOut, error) {
	if ctx.Err() != nil {
		return model.ChatOut{}, ctx.Err()
	}

	system, conversation := model.SplitSystem(messages)
	maxTokens := int64(params.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	out, err := m.client.createMessage(ctx, request{
		Model:       m.modelName,
		System:      system,
		Messages:    conversation,
		Temperature: params.Temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return model.ChatOut{}, &APIError{StatusCode: apiErr.StatusCode, cause: err}
		}
		return model.ChatOut{}, err
	}
	return out, nil
}

// APIError is returned when the API answers with an error status.
type APIError struct {
	StatusCode int
	cause      error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("anthropic API error (status %d): %v", e.StatusCode, e.cause)
}

func (e *APIError) Unwrap() error {
	return e.cause
}

// sdkClient wraps the official anthropic-sdk-go client.
type sdkClient struct {
	client *anthropic.Client
	hasKey bool
}

func newSDKClient(apiKey string, opts ...option.RequestOption) *sdkClient {
	client := anthropic.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &sdkClient{client: &client, hasKey: apiKey != ""}
}

func (c *sdkClient) createMessage(ctx context.Context, req request) (model.ChatOut, error) {
	if !c.hasKey {
		return model.ChatOut{}, errors.New("Anthropic API key is required")
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Model),
		MaxTokens:   req.MaxTokens,
		Messages:    convertMessages(req.Messages),
		Temperature: anthropic.Float(req.Temperature),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return model.ChatOut{}, err
	}

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return model.ChatOut{Text: text.String(), Model: string(message.Model)}, nil
}

func convertMessages(messages []model.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		block := anthropic.NewTextBlock(msg.Content)
		if msg.Role == model.RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(block))
			continue
		}
		out = append(out, anthropic.NewUserMessage(block))
	}
	return out
}
