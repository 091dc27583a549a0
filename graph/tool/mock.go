package tool

import (
	"context"
	"maps"
	"sync"
)

// MockTool stands in for HTTPTool in api node tests.
//
//	mock := &tool.MockTool{Responses: []map[string]interface{}{
//	    {"status": 200, "data": map[string]interface{}{"ok": true}},
//	}}
//	exec := executors.NewAPIExecutor(mock)
//
// Responses are returned in order, and the last one repeats after the list
// runs out. Each request is copied into Calls before Err is checked.
type MockTool struct {
	ToolName  string
	Responses []map[string]interface{}
	Err       error
	Calls     []MockToolCall

	mu   sync.Mutex
	next int
}

// MockToolCall is one recorded request.
type MockToolCall struct {
	Input map[string]interface{}
}

// Name implements Tool.
func (m *MockTool) Name() string { return m.ToolName }

// Call implements Tool.
func (m *MockTool) Call(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, MockToolCall{Input: maps.Clone(input)})
	switch {
	case m.Err != nil:
		return nil, m.Err
	case len(m.Responses) == 0:
		return map[string]interface{}{}, nil
	}

	out := m.Responses[min(m.next, len(m.Responses)-1)]
	if m.next < len(m.Responses) {
		m.next++
	}
	return out, nil
}

// Reset forgets recorded calls and rewinds the responses.
func (m *MockTool) Reset() {
	m.mu.Lock()
	m.Calls, m.next = nil, 0
	m.mu.Unlock()
}

// CallCount reports how many requests were made.
func (m *MockTool) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
