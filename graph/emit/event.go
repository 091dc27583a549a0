package emit

// Level ranks an event's severity.
type Level string

// Event severities.
const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Event represents an observability event emitted during pipeline execution.
//
// The engine emits, in order: run_start, validation_warning (per warning),
// run_rejected or run_scheduled, then node_start / node_end / node_error per
// node, store_error when persistence fails, and run_complete.
type Event struct {
	// RunID identifies the pipeline run that emitted this event.
	RunID string

	// Step is the 1-based position of the node in the execution order.
	// Zero for run-level events emitted before the first node.
	Step int

	// NodeID identifies which node emitted this event.
	// Empty string for run-level events.
	NodeID string

	// Msg is the machine-readable event name (e.g. "node_start").
	Msg string

	// Text is the human-readable log line for the event, such as
	// "Executing text node: B".
	Text string

	// Level is the event severity. Empty is treated as LevelInfo.
	Level Level

	// Meta contains additional structured data specific to this event.
	// Common keys:
	//   - "duration_ms": Execution duration in milliseconds
	//   - "error": Error details
	//   - "node_type": Type of the node being executed
	//   - "reason": Failure classification for node_error
	Meta map[string]interface{}
}

// Line returns Text, falling back to Msg when no human-readable text was set.
func (e Event) Line() string {
	if e.Text != "" {
		return e.Text
	}
	return e.Msg
}

// Severity returns Level, defaulting to LevelInfo.
func (e Event) Severity() Level {
	if e.Level == "" {
		return LevelInfo
	}
	return e.Level
}
