package model

import (
	"context"
	"sync"
)

// MockChatModel replays canned replies for llm node tests.
//
//	m := &model.MockChatModel{Responses: []model.ChatOut{{Text: "yes"}, {Text: "no"}}}
//	exec := executors.NewLLMExecutor(m)
//
// Replies are handed out in order and the final one sticks once the list is
// exhausted. With no replies, Chat returns an empty ChatOut. Every call is
// recorded in Calls, including calls that fail with Err.
type MockChatModel struct {
	Responses []ChatOut
	Err       error
	Calls     []MockChatCall

	mu   sync.Mutex
	next int
}

// MockChatCall is one recorded Chat invocation.
type MockChatCall struct {
	Messages []Message
	Params   Params
}

// Chat implements ChatModel.
func (m *MockChatModel) Chat(ctx context.Context, messages []Message, params Params) (ChatOut, error) {
	if err := ctx.Err(); err != nil {
		return ChatOut{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, MockChatCall{Messages: append([]Message(nil), messages...), Params: params})
	switch {
	case m.Err != nil:
		return ChatOut{}, m.Err
	case len(m.Responses) == 0:
		return ChatOut{}, nil
	}

	out := m.Responses[min(m.next, len(m.Responses)-1)]
	if m.next < len(m.Responses) {
		m.next++
	}
	return out, nil
}

// Reset forgets recorded calls and rewinds the replies.
func (m *MockChatModel) Reset() {
	m.mu.Lock()
	m.Calls, m.next = nil, 0
	m.mu.Unlock()
}

// CallCount reports how many times Chat ran.
func (m *MockChatModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
