package google

import (
	"context"
	"errors"
	"testing"

	"github.com/dshills/pipeline-go/graph/model"
	"github.com/google/generative-ai-go/genai"
)

type mockGoogleClient struct {
	out   model.ChatOut
	err   error
	calls int
}

func (m *mockGoogleClient) generateContent(_ context.Context, _ string, _ []model.Message, _ model.Params) (model.ChatOut, error) {
	m.calls++
	return m.out, m.err
}

func TestChatModel_Chat(t *testing.T) {
	mockClient := &mockGoogleClient{out: model.ChatOut{Text: "hi"}}
	m := &ChatModel{client: mockClient, modelName: "gemini-test"}

	out, err := m.Chat(context.Background(), []model.Message{{Role: model.RoleUser, Content: "hello"}}, model.Params{})
	if err != nil {
		t.Fatal(err)
	}
	if out.Text != "hi" {
		t.Errorf("Text = %q", out.Text)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.Chat(ctx, nil, model.Params{}); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if mockClient.calls != 1 {
		t.Errorf("calls = %d, want 1", mockClient.calls)
	}
}

func TestChatModel_SafetyError(t *testing.T) {
	m := &ChatModel{client: &mockGoogleClient{err: &SafetyFilterError{reason: "SAFETY", category: "HARM_CATEGORY_HARASSMENT"}}}
	_, err := m.Chat(context.Background(), nil, model.Params{})
	var safetyErr *SafetyFilterError
	if !errors.As(err, &safetyErr) {
		t.Fatalf("error %T is not *SafetyFilterError", err)
	}
	if safetyErr.Category() != "HARM_CATEGORY_HARASSMENT" || safetyErr.Reason() != "SAFETY" {
		t.Errorf("safety error = %+v", safetyErr)
	}
}

func TestNewChatModel_RequiresKey(t *testing.T) {
	m := NewChatModel("", "")
	if m.modelName != DefaultModel {
		t.Errorf("modelName = %q", m.modelName)
	}
	if _, err := m.Chat(context.Background(), []model.Message{{Role: model.RoleUser, Content: "x"}}, model.Params{}); err == nil {
		t.Error("expected error for empty API key")
	}
}

func TestConvertMessages(t *testing.T) {
	history, last := convertMessages([]model.Message{
		{Role: model.RoleUser, Content: "one"},
		{Role: model.RoleAssistant, Content: "two"},
		{Role: model.RoleUser, Content: "three"},
	})
	if last != "three" {
		t.Errorf("last = %q, want three", last)
	}
	if len(history) != 2 || history[0].Role != "user" || history[1].Role != "model" {
		t.Errorf("history = %+v", history)
	}

	if _, last := convertMessages([]model.Message{{Role: model.RoleAssistant, Content: "x"}}); last != "" {
		t.Errorf("trailing assistant message should leave nothing to send, got %q", last)
	}
}

func TestConvertResponse(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text("a"), genai.Text("b")}},
		}},
	}
	if got := convertResponse(resp).Text; got != "a\nb" {
		t.Errorf("Text = %q, want a\\nb", got)
	}
	if got := convertResponse(&genai.GenerateContentResponse{}).Text; got != "" {
		t.Errorf("empty response Text = %q", got)
	}
}

func TestSafetyErrorFromBlocked(t *testing.T) {
	blocked := &genai.BlockedError{
		Candidate: &genai.Candidate{
			FinishReason: genai.FinishReasonSafety,
			SafetyRatings: []*genai.SafetyRating{
				{Category: genai.HarmCategoryHarassment, Blocked: false},
				{Category: genai.HarmCategoryDangerousContent, Blocked: true},
			},
		},
	}
	got := safetyError(blocked)
	if got.Category() != genai.HarmCategoryDangerousContent.String() {
		t.Errorf("Category() = %q", got.Category())
	}
	if got.Reason() != genai.FinishReasonSafety.String() {
		t.Errorf("Reason() = %q", got.Reason())
	}
}
