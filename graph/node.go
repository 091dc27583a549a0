package graph

// Node is one processing step in a pipeline.
//
// A node is identified by ID, dispatched by Type to the executor registered
// for that type, and configured by the type-specific Config map. Nodes are
// never mutated during a run; executors receive a shallow copy of Config.
type Node struct {
	// ID uniquely identifies the node within a pipeline.
	ID string `json:"id" yaml:"id"`

	// Type selects the executor (e.g. "customInput", "text", "llm").
	Type string `json:"type" yaml:"type"`

	// Config holds the type-specific configuration, such as a template
	// string, a URL or an expression.
	Config map[string]any `json:"config,omitempty" yaml:"config,omitempty"`
}

// configCopy returns a shallow copy of the node configuration so executors
// cannot mutate the caller's node.
func (n Node) configCopy() map[string]any {
	out := make(map[string]any, len(n.Config))
	for k, v := range n.Config {
		out[k] = v
	}
	return out
}

// Inputs is the port-name to value map handed to an executor.
type Inputs map[string]any

// Outputs is the port-name to value map produced by an executor.
type Outputs map[string]any

// NodeError represents an error that occurred during node execution.
// It provides structured error information for better observability and debugging.
type NodeError struct {
	// Message is the human-readable error description.
	Message string

	// Code is a machine-readable error code for programmatic handling.
	Code string

	// NodeID identifies which node produced this error.
	NodeID string

	// Type is the node type that was being executed.
	Type string

	// Cause is the underlying error that caused this NodeError.
	Cause error
}

// Error implements the error interface.
func (e *NodeError) Error() string {
	if e.NodeID != "" {
		return "node " + e.NodeID + ": " + e.Message
	}
	return e.Message
}

// Unwrap returns the underlying cause error for error wrapping support.
func (e *NodeError) Unwrap() error {
	return e.Cause
}
