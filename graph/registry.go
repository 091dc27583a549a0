package graph

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Executor runs one node type.
//
// Execute receives a copy of the node configuration and the inputs bound
// along incoming edges, and returns the node's named outputs. Executors
// should honor ctx cancellation on any blocking call. A returned error marks
// the node as failed; it never aborts the run.
type Executor interface {
	Execute(ctx context.Context, config map[string]any, inputs Inputs) (Outputs, error)
}

// InputValidation is the verdict of an InputValidator.
type InputValidation struct {
	IsValid bool
	Errors  []string
}

// InputValidator is implemented by executors that require certain inputs to
// be bound. The engine calls ValidateInputs before Execute and records a
// failure without executing when the inputs are invalid.
type InputValidator interface {
	ValidateInputs(inputs Inputs) InputValidation
}

// ExecutorFunc is a function adapter that implements the Executor interface.
//
// Example:
//
//	reg.Register("upper", graph.ExecutorFunc(func(ctx context.Context, cfg map[string]any, in graph.Inputs) (graph.Outputs, error) {
//	    s, _ := in["input"].(string)
//	    return graph.Outputs{"output": strings.ToUpper(s)}, nil
//	}))
type ExecutorFunc func(ctx context.Context, config map[string]any, inputs Inputs) (Outputs, error)

// Execute implements the Executor interface for ExecutorFunc.
func (f ExecutorFunc) Execute(ctx context.Context, config map[string]any, inputs Inputs) (Outputs, error) {
	return f(ctx, config, inputs)
}

// Registry maps node type identifiers to executors.
//
// A registry is filled at startup and frozen when handed to an engine; from
// then on it is read-only and safe to share between concurrent runs.
type Registry struct {
	mu        sync.RWMutex
	executors map[string]Executor
	frozen    bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{executors: make(map[string]Executor)}
}

// Register binds an executor to a node type, replacing any existing binding.
func (r *Registry) Register(nodeType string, exec Executor) error {
	if nodeType == "" {
		return fmt.Errorf("node type cannot be empty")
	}
	if exec == nil {
		return fmt.Errorf("executor for %q cannot be nil", nodeType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return fmt.Errorf("register %q: %w", nodeType, ErrRegistryFrozen)
	}
	r.executors[nodeType] = exec
	return nil
}

// Get returns the executor bound to nodeType.
func (r *Registry) Get(nodeType string) (Executor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exec, ok := r.executors[nodeType]
	return exec, ok
}

// Has reports whether nodeType has an executor.
func (r *Registry) Has(nodeType string) bool {
	_, ok := r.Get(nodeType)
	return ok
}

// Types returns the registered node types in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.executors))
	for t := range r.executors {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Freeze makes the registry read-only. Subsequent Register calls fail with
// ErrRegistryFrozen.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}
