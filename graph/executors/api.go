package executors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/pipeline-go/graph"
	"github.com/dshills/pipeline-go/graph/tool"
)

// APIExecutor calls an HTTP endpoint through a tool.Tool.
//
// Config: url (required), method (default GET), headers (JSON object text
// or a map). The bound "body" input is sent as JSON for non-GET methods.
//
// Transport and decoding failures do not fail the node; they land on the
// error branch:
//
//	{response: {status, data, headers}, error: nil}
//	{response: nil, error: "..."}
type APIExecutor struct {
	http tool.Tool
}

// NewAPIExecutor creates an APIExecutor. A nil tool uses tool.NewHTTPTool().
func NewAPIExecutor(t tool.Tool) *APIExecutor {
	if t == nil {
		t = tool.NewHTTPTool()
	}
	return &APIExecutor{http: t}
}

// Execute implements graph.Executor.
func (e *APIExecutor) Execute(ctx context.Context, cfg map[string]any, in graph.Inputs) (graph.Outputs, error) {
	url := strings.TrimSpace(configString(cfg, "url", ""))
	if url == "" {
		return nil, errors.New("url is required")
	}

	headers, err := parseHeaders(cfg["headers"])
	if err != nil {
		return graph.Outputs{"response": nil, "error": err.Error()}, nil
	}

	resp, err := e.http.Call(ctx, map[string]interface{}{
		"url":     url,
		"method":  strings.ToUpper(configString(cfg, "method", "GET")),
		"headers": headers,
		"body":    in["body"],
	})
	if err != nil {
		// Cancellation is a node failure, not a response.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return graph.Outputs{"response": nil, "error": err.Error()}, nil
	}

	return graph.Outputs{
		"response": map[string]any{
			"status":  resp["status"],
			"data":    resp["data"],
			"headers": resp["headers"],
		},
		"error": nil,
	}, nil
}

func parseHeaders(v any) (map[string]interface{}, error) {
	switch h := v.(type) {
	case nil:
		return map[string]interface{}{}, nil
	case map[string]interface{}:
		return h, nil
	case map[string]string:
		out := make(map[string]interface{}, len(h))
		for k, val := range h {
			out[k] = val
		}
		return out, nil
	case string:
		if strings.TrimSpace(h) == "" {
			return map[string]interface{}{}, nil
		}
		var out map[string]interface{}
		if err := json.Unmarshal([]byte(h), &out); err != nil {
			return nil, fmt.Errorf("invalid headers: %w", err)
		}
		if out == nil {
			out = map[string]interface{}{}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("invalid headers: expected a JSON object, got %T", v)
	}
}
