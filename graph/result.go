package graph

import (
	"encoding/json"
	"time"
)

// ExecutionResult is the recorded outcome of one node: either its outputs,
// or an error marker describing why it failed.
//
// Results are immutable once stored in a run. Its JSON form is the flattened
// outputs object, or {"error": "..."} for a failed node.
type ExecutionResult struct {
	Outputs Outputs
	Error   string
}

// Failed reports whether the result is an error marker.
func (r ExecutionResult) Failed() bool {
	return r.Error != ""
}

// Succeeded returns a successful result wrapping outputs.
func Succeeded(out Outputs) ExecutionResult {
	if out == nil {
		out = Outputs{}
	}
	return ExecutionResult{Outputs: out}
}

// Failure returns an error-marker result.
func Failure(msg string) ExecutionResult {
	if msg == "" {
		msg = "unknown error"
	}
	return ExecutionResult{Error: msg}
}

// MarshalJSON flattens the result into its outputs or an error object.
func (r ExecutionResult) MarshalJSON() ([]byte, error) {
	if r.Failed() {
		return json.Marshal(map[string]string{"error": r.Error})
	}
	if r.Outputs == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]any(r.Outputs))
}

// UnmarshalJSON restores a result from its flattened form. An object whose
// only key is a string "error" is read back as a failure.
func (r *ExecutionResult) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if msg, ok := m["error"].(string); ok && len(m) == 1 && msg != "" {
		*r = ExecutionResult{Error: msg}
		return nil
	}
	*r = ExecutionResult{Outputs: Outputs(m)}
	return nil
}

// ValidationReport is the structural verdict on a pipeline. IsValid is true
// exactly when Errors is empty; warnings never invalidate a pipeline.
type ValidationReport struct {
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// RunReport is the outcome of a successful Run: the order nodes executed in
// and the result recorded for each of them.
type RunReport struct {
	RunID          string                     `json:"runId"`
	ExecutionOrder []string                   `json:"executionOrder"`
	Results        map[string]ExecutionResult `json:"results"`
	Validation     ValidationReport           `json:"validation"`
	StartedAt      time.Time                  `json:"startedAt"`
	FinishedAt     time.Time                  `json:"finishedAt"`
}

// FailedNodes lists, in execution order, the nodes whose result is an error
// marker.
func (r *RunReport) FailedNodes() []string {
	var failed []string
	for _, id := range r.ExecutionOrder {
		if res, ok := r.Results[id]; ok && res.Failed() {
			failed = append(failed, id)
		}
	}
	return failed
}

// Duration is the wall-clock time the run took.
func (r *RunReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
