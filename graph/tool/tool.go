// Package tool provides the external-call tools used by pipeline executors.
package tool

import "context"

// Tool is an external operation an executor can delegate to.
//
// Input and output are plain maps so tools can be swapped (a real HTTP
// client, a MockTool in tests) without changing the calling executor.
//
// Implementations should:
//   - Validate input parameters
//   - Respect context cancellation and timeouts
//   - Return descriptive errors instead of panicking
//
// Example:
//
//	var t tool.Tool = tool.NewHTTPTool()
//	out, err := t.Call(ctx, map[string]interface{}{
//	    "method": "POST",
//	    "url":    "https://api.example.com/items",
//	    "body":   map[string]interface{}{"name": "widget"},
//	})
//	fmt.Println(out["status"], out["data"])
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Call executes the tool with the provided input and returns the result.
	Call(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error)
}
