package tool

import (
	"context"
	"errors"
	"testing"
)

func TestMockTool(t *testing.T) {
	mock := &MockTool{
		ToolName:  "http_request",
		Responses: []map[string]interface{}{{"status": 200}, {"status": 500}},
	}
	ctx := context.Background()

	for _, want := range []int{200, 500, 500} {
		out, err := mock.Call(ctx, map[string]interface{}{"url": "x"})
		if err != nil {
			t.Fatal(err)
		}
		if out["status"] != want {
			t.Errorf("status = %v, want %d", out["status"], want)
		}
	}
	if mock.CallCount() != 3 || mock.Calls[0].Input["url"] != "x" {
		t.Errorf("calls = %+v", mock.Calls)
	}

	mock.Reset()
	mock.Err = errors.New("down")
	if _, err := mock.Call(ctx, nil); err == nil {
		t.Error("expected injected error")
	}
	if mock.CallCount() != 1 {
		t.Errorf("CallCount() = %d, want 1", mock.CallCount())
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := mock.Call(cancelled, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestMockTool_ImplementsTool(t *testing.T) {
	var _ Tool = (*MockTool)(nil)
	var _ Tool = (*HTTPTool)(nil)
}
