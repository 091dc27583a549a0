// Package google provides a model.ChatModel adapter for the Google Gemini API.
package google

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/pipeline-go/graph/model"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultModel is used when NewChatModel is given no model name.
const DefaultModel = "gemini-1.5-flash"

// ChatModel implements model.ChatModel for Google's Gemini API.
//
// Content blocked by Gemini's safety filters is reported as a
// *SafetyFilterError.
//
// Example usage:
//
//	m := google.NewChatModel(os.Getenv("GOOGLE_API_KEY"), "")
//	out, err := m.Chat(ctx, messages, model.Params{Temperature: 0.7})
//	var safetyErr *google.SafetyFilterError
//	if errors.As(err, &safetyErr) {
//	    log.Printf("Content blocked: %s", safetyErr.Category())
//	}
type ChatModel struct {
	modelName string
	client    googleClient
}

type googleClient interface {
	generateContent(ctx context.Context, modelName string, messages []model.Message, params model.Params) (model.ChatOut, error)
}

// NewChatModel creates a Google ChatModel. An empty modelName uses
// DefaultModel.
func NewChatModel(apiKey, modelName string) *ChatModel {
	if modelName == "" {
		modelName = DefaultModel
	}
	return &ChatModel{
		modelName: modelName,
		client:    &defaultClient{apiKey: apiKey},
	}
}

// Chat implements model.ChatModel.
func (m *ChatModel) Chat(ctx context.Context, messages []model.Message, params model.Params) (model.ChatOut, error) {
	if ctx.Err() != nil {
		return model.ChatOut{}, ctx.Err()
	}
	return m.client.generateContent(ctx, m.modelName, messages, params)
}

// defaultClient opens a genai client per request.
type defaultClient struct {
	apiKey string
}

func (c *defaultClient) generateContent(ctx context.Context, modelName string, messages []model.Message, params model.Params) (model.ChatOut, error) {
	if c.apiKey == "" {
		return model.ChatOut{}, errors.New("google API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(c.apiKey))
	if err != nil {
		return model.ChatOut{}, fmt.Errorf("failed to create Google client: %w", err)
	}
	defer func() { _ = client.Close() }()

	genModel := client.GenerativeModel(modelName)
	genModel.SetTemperature(float32(params.Temperature))
	if params.MaxTokens > 0 {
		genModel.SetMaxOutputTokens(int32(params.MaxTokens))
	}

	system, conversation := model.SplitSystem(messages)
	if system != "" {
		genModel.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	history, last := convertMessages(conversation)
	if last == "" {
		return model.ChatOut{}, errors.New("google: no user message to send")
	}

	session := genModel.StartChat()
	session.History = history
	resp, err := session.SendMessage(ctx, genai.Text(last))
	if err != nil {
		var blocked *genai.BlockedError
		if errors.As(err, &blocked) {
			return model.ChatOut{}, safetyError(blocked)
		}
		return model.ChatOut{}, fmt.Errorf("google API error: %w", err)
	}

	out := convertResponse(resp)
	out.Model = modelName
	return out, nil
}

// convertMessages splits the conversation into chat history and the final
// user message to send.
func convertMessages(messages []model.Message) ([]*genai.Content, string) {
	if len(messages) == 0 {
		return nil, ""
	}
	lastIdx := len(messages) - 1
	if messages[lastIdx].Role == model.RoleAssistant {
		lastIdx = -1
	}

	var history []*genai.Content
	for i, msg := range messages {
		if i == lastIdx {
			continue
		}
		role := "user"
		if msg.Role == model.RoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(msg.Content)}})
	}
	if lastIdx < 0 {
		return history, ""
	}
	return history, messages[lastIdx].Content
}

func convertResponse(resp *genai.GenerateContentResponse) model.ChatOut {
	out := model.ChatOut{}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return out
	}

	var text []string
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text = append(text, string(t))
		}
	}
	out.Text = strings.Join(text, "\n")
	return out
}

func safetyError(blocked *genai.BlockedError) *SafetyFilterError {
	e := &SafetyFilterError{reason: "SAFETY", category: "unknown"}
	var ratings []*genai.SafetyRating
	switch {
	case blocked.PromptFeedback != nil:
		e.reason = blocked.PromptFeedback.BlockReason.String()
		ratings = blocked.PromptFeedback.SafetyRatings
	case blocked.Candidate != nil:
		e.reason = blocked.Candidate.FinishReason.String()
		ratings = blocked.Candidate.SafetyRatings
	}
	for _, r := range ratings {
		if r.Blocked {
			e.category = r.Category.String()
			break
		}
	}
	return e
}

// SafetyFilterError represents a Google safety filter block.
//
// Use errors.As to check for this error type:
//
//	var safetyErr *google.SafetyFilterError
//	if errors.As(err, &safetyErr) {
//	    log.Printf("Content blocked: %s", safetyErr.Category())
//	}
type SafetyFilterError struct {
	reason   string
	category string
}

// Error implements the error interface.
func (e *SafetyFilterError) Error() string {
	return "content blocked by safety filter: " + e.category
}

// Category returns the safety category that triggered the block.
func (e *SafetyFilterError) Category() string {
	return e.category
}

// Reason returns why the content was blocked.
func (e *SafetyFilterError) Reason() string {
	return e.reason
}
