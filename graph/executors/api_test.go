package executors

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/pipeline-go/graph"
	"github.com/dshills/pipeline-go/graph/tool"
)

func TestAPIExecutor_HTTP(t *testing.T) {
	var gotMethod, gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 7})
	}))
	defer srv.Close()

	exec := NewAPIExecutor(nil)
	got, err := exec.Execute(context.Background(), map[string]any{
		"url":     srv.URL,
		"method":  "post",
		"headers": `{"Authorization": "Bearer t"}`,
	}, graph.Inputs{"body": map[string]any{"name": "x"}})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if gotMethod != http.MethodPost || gotAuth != "Bearer t" || gotBody != `{"name":"x"}` {
		t.Errorf("request = %s auth=%q body=%q", gotMethod, gotAuth, gotBody)
	}
	if got["error"] != nil {
		t.Errorf("error = %v, want nil", got["error"])
	}
	resp, ok := got["response"].(map[string]any)
	if !ok {
		t.Fatalf("response = %#v, want a map", got["response"])
	}
	if resp["status"] != http.StatusCreated {
		t.Errorf("status = %v, want 201", resp["status"])
	}
	if diff := cmp.Diff(map[string]any{"id": 7.0}, resp["data"]); diff != "" {
		t.Errorf("data mismatch (-want +got):\n%s", diff)
	}
}

func TestAPIExecutor_Mock(t *testing.T) {
	mock := &tool.MockTool{
		ToolName:  "http_request",
		Responses: []map[string]interface{}{{"status": 200, "data": "ok", "headers": map[string]interface{}{}}},
	}
	exec := NewAPIExecutor(mock)

	got, err := exec.Execute(context.Background(),
		map[string]any{"url": " https://example.test/x ", "headers": map[string]string{"X-A": "1"}},
		graph.Inputs{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	want := graph.Outputs{
		"response": map[string]any{"status": 200, "data": "ok", "headers": map[string]interface{}{}},
		"error":    nil,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Execute() mismatch (-want +got):\n%s", diff)
	}

	call := mock.Calls[0].Input
	if call["url"] != "https://example.test/x" || call["method"] != "GET" {
		t.Errorf("call input = %v", call)
	}
	if diff := cmp.Diff(map[string]interface{}{"X-A": "1"}, call["headers"]); diff != "" {
		t.Errorf("headers mismatch (-want +got):\n%s", diff)
	}
}

func TestAPIExecutor_Errors(t *testing.T) {
	t.Run("missing url fails the node", func(t *testing.T) {
		_, err := NewAPIExecutor(&tool.MockTool{}).Execute(context.Background(), map[string]any{}, nil)
		if err == nil || err.Error() != "url is required" {
			t.Fatalf("Execute() error = %v", err)
		}
	})

	t.Run("bad headers land on the error port", func(t *testing.T) {
		mock := &tool.MockTool{}
		got, err := NewAPIExecutor(mock).Execute(context.Background(),
			map[string]any{"url": "http://x", "headers": "{not json"}, nil)
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		msg, _ := got["error"].(string)
		if !strings.HasPrefix(msg, "invalid headers") || got["response"] != nil {
			t.Errorf("outputs = %v", got)
		}
		if mock.CallCount() != 0 {
			t.Error("no request should be sent with bad headers")
		}
	})

	t.Run("transport error lands on the error port", func(t *testing.T) {
		mock := &tool.MockTool{Err: errors.New("connection refused")}
		got, err := NewAPIExecutor(mock).Execute(context.Background(), map[string]any{"url": "http://x"}, nil)
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		want := graph.Outputs{"response": nil, "error": "connection refused"}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Execute() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("cancellation fails the node", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewAPIExecutor(&tool.MockTool{}).Execute(ctx, map[string]any{"url": "http://x"}, nil)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Execute() error = %v, want context.Canceled", err)
		}
	})
}

func TestParseHeaders(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    map[string]interface{}
		wantErr bool
	}{
		{"nil", nil, map[string]interface{}{}, false},
		{"blank string", "  ", map[string]interface{}{}, false},
		{"json object", `{"A":"b"}`, map[string]interface{}{"A": "b"}, false},
		{"json null", `null`, map[string]interface{}{}, false},
		{"json array", `[1]`, nil, true},
		{"wrong type", 12.0, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseHeaders(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseHeaders() error = %v, wantErr %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("parseHeaders() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
