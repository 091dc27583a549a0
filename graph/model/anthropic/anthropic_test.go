package anthropic

import (
	"context"
	"errors"
	"testing"

	"github.com/dshills/pipeline-go/graph/model"
)

type mockAnthropicClient struct {
	response string
	err      error
	last     request
	calls    int
}

func (m *mockAnthropicClient) createMessage(_ context.Context, req request) (model.ChatOut, error) {
	m.calls++
	m.last = req
	if m.err != nil {
		return model.ChatOut{}, m.err
	}
	return model.ChatOut{Text: m.response, Model: req.Model}, nil
}

func TestChatModel_Chat(t *testing.T) {
	mockClient := &mockAnthropicClient{response: "Bonjour"}
	m := &ChatModel{client: mockClient, modelName: "claude-test"}

	out, err := m.Chat(context.Background(), []model.Message{
		{Role: model.RoleSystem, Content: "Answer in French."},
		{Role: model.RoleUser, Content: "Hello"},
	}, model.Params{Temperature: 0.4})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out.Text != "Bonjour" {
		t.Errorf("Text = %q", out.Text)
	}

	req := mockClient.last
	if req.System != "Answer in French." {
		t.Errorf("System = %q", req.System)
	}
	if len(req.Messages) != 1 || req.Messages[0].Role != model.RoleUser {
		t.Errorf("Messages = %+v, want the user message only", req.Messages)
	}
	if req.MaxTokens != DefaultMaxTokens {
		t.Errorf("MaxTokens = %d, want %d", req.MaxTokens, DefaultMaxTokens)
	}
	if req.Temperature != 0.4 || req.Model != "claude-test" {
		t.Errorf("request = %+v", req)
	}
}

func TestChatModel_Errors(t *testing.T) {
	t.Run("passes through client errors", func(t *testing.T) {
		m := &ChatModel{client: &mockAnthropicClient{err: errors.New("overloaded")}, modelName: "c"}
		if _, err := m.Chat(context.Background(), nil, model.Params{}); err == nil || err.Error() != "overloaded" {
			t.Errorf("error = %v", err)
		}
	})

	t.Run("respects cancellation", func(t *testing.T) {
		mockClient := &mockAnthropicClient{}
		m := &ChatModel{client: mockClient, modelName: "c"}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := m.Chat(ctx, nil, model.Params{}); !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
		if mockClient.calls != 0 {
			t.Errorf("client called %d times", mockClient.calls)
		}
	})

	t.Run("requires an API key", func(t *testing.T) {
		m := NewChatModel("", "")
		if m.modelName != DefaultModel {
			t.Errorf("modelName = %q", m.modelName)
		}
		if _, err := m.Chat(context.Background(), []model.Message{{Role: model.RoleUser, Content: "x"}}, model.Params{}); err == nil {
			t.Error("expected error for empty API key")
		}
	})
}

func TestConvertMessages(t *testing.T) {
	got := convertMessages([]model.Message{
		{Role: model.RoleUser, Content: "q"},
		{Role: model.RoleAssistant, Content: "a"},
	})
	if len(got) != 2 {
		t.Fatalf("len = %d", len(got))
	}
	if got[0].Role != "user" || got[1].Role != "assistant" {
		t.Errorf("roles = %q, %q", got[0].Role, got[1].Role)
	}
}
