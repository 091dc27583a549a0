package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// supportedMethods are the HTTP methods HTTPTool will issue.
var supportedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// HTTPTool issues JSON HTTP requests.
//
// Input Parameters:
//   - url: Target URL (required)
//   - method: GET, POST, PUT, PATCH or DELETE (default GET)
//   - headers: map of header values (strings; other values are formatted)
//   - body: any value; JSON-encoded and sent for every method except GET
//
// Output:
//   - status: HTTP status code
//   - data: decoded JSON response body (nil when the body is empty)
//   - headers: response headers (single values as strings)
//
// A response body that is not valid JSON is an error. Non-2xx statuses are
// not errors; callers inspect "status".
type HTTPTool struct {
	client *http.Client
}

// NewHTTPTool creates an HTTPTool using a default client. Timeouts are
// taken from the request context.
func NewHTTPTool() *HTTPTool {
	return &HTTPTool{client: &http.Client{}}
}

// NewHTTPToolWithClient creates an HTTPTool that sends requests through
// client.
func NewHTTPToolWithClient(client *http.Client) *HTTPTool {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPTool{client: client}
}

// Name returns the tool identifier.
func (h *HTTPTool) Name() string {
	return "http_request"
}

// Call executes an HTTP request with the provided parameters.
func (h *HTTPTool) Call(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	urlStr, ok := input["url"].(string)
	if !ok || urlStr == "" {
		return nil, fmt.Errorf("url parameter required (string)")
	}

	method := http.MethodGet
	if m, ok := input["method"].(string); ok && m != "" {
		method = strings.ToUpper(m)
	}
	if !supportedMethods[method] {
		return nil, fmt.Errorf("unsupported HTTP method: %s", method)
	}

	var body io.Reader
	if method != http.MethodGet {
		encoded, err := json.Marshal(input["body"])
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, urlStr, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for key, value := range headerValues(input["headers"]) {
		req.Header.Set(key, value)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var data interface{}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("failed to parse response body: %w", err)
		}
	}

	respHeaders := make(map[string]interface{}, len(resp.Header))
	for key, values := range resp.Header {
		if len(values) == 1 {
			respHeaders[key] = values[0]
		} else {
			respHeaders[key] = values
		}
	}

	return map[string]interface{}{
		"status":  resp.StatusCode,
		"data":    data,
		"headers": respHeaders,
	}, nil
}

func headerValues(v interface{}) map[string]string {
	out := map[string]string{}
	switch h := v.(type) {
	case map[string]string:
		for k, val := range h {
			out[k] = val
		}
	case map[string]interface{}:
		for k, val := range h {
			if s, ok := val.(string); ok {
				out[k] = s
			} else {
				out[k] = fmt.Sprint(val)
			}
		}
	}
	return out
}
