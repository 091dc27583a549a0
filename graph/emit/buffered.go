package emit

import "sync"

// BufferedEmitter implements Emitter by storing events in memory, grouped
// by run ID.
//
// It backs tests and the CLI's end-of-run log dump. All methods are safe for
// concurrent use.
//
// Example usage:
//
//	emitter := emit.NewBufferedEmitter()
//	engine, _ := graph.New(registry, graph.WithEmitter(emitter))
//	report, _ := engine.Run(ctx, nodes, edges)
//
//	errors := emitter.GetHistoryWithFilter(report.RunID, emit.HistoryFilter{Msg: "node_error"})
type BufferedEmitter struct {
	mu     sync.RWMutex
	events map[string][]Event // runID -> events
	order  []string           // runIDs in first-seen order
}

// HistoryFilter specifies criteria for filtering execution history.
//
// All fields are optional and combined with AND logic.
type HistoryFilter struct {
	NodeID  string // Filter by node ID (empty = no filter)
	Msg     string // Filter by event name (empty = no filter)
	Level   Level  // Filter by severity (empty = no filter)
	MinStep *int   // Minimum step number (nil = no filter)
	MaxStep *int   // Maximum step number (nil = no filter)
}

func (f HistoryFilter) empty() bool {
	return f.NodeID == "" && f.Msg == "" && f.Level == "" && f.MinStep == nil && f.MaxStep == nil
}

func (f HistoryFilter) matches(event Event) bool {
	if f.NodeID != "" && event.NodeID != f.NodeID {
		return false
	}
	if f.Msg != "" && event.Msg != f.Msg {
		return false
	}
	if f.Level != "" && event.Severity() != f.Level {
		return false
	}
	if f.MinStep != nil && event.Step < *f.MinStep {
		return false
	}
	if f.MaxStep != nil && event.Step > *f.MaxStep {
		return false
	}
	return true
}

// NewBufferedEmitter creates an empty BufferedEmitter.
func NewBufferedEmitter() *BufferedEmitter {
	return &BufferedEmitter{
		events: make(map[string][]Event),
	}
}

// Emit stores an event in the buffer.
func (b *BufferedEmitter) Emit(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, seen := b.events[event.RunID]; !seen {
		b.order = append(b.order, event.RunID)
	}
	b.events[event.RunID] = append(b.events[event.RunID], event)
}

// GetHistory returns a copy of all events for runID, in emission order.
func (b *BufferedEmitter) GetHistory(runID string) []Event {
	return b.GetHistoryWithFilter(runID, HistoryFilter{})
}

// GetHistoryWithFilter returns the events for runID that match filter.
// The result is never nil.
func (b *BufferedEmitter) GetHistoryWithFilter(runID string, filter HistoryFilter) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := []Event{}
	for _, event := range b.events[runID] {
		if filter.empty() || filter.matches(event) {
			result = append(result, event)
		}
	}
	return result
}

// Lines returns the human-readable line of every event for runID.
func (b *BufferedEmitter) Lines(runID string) []string {
	events := b.GetHistory(runID)
	lines := make([]string, len(events))
	for i, e := range events {
		lines[i] = e.Line()
	}
	return lines
}

// RunIDs returns the run IDs seen so far, in first-seen order.
func (b *BufferedEmitter) RunIDs() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]string(nil), b.order...)
}

// Clear removes stored events for runID, or for every run when runID is
// empty.
func (b *BufferedEmitter) Clear(runID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if runID == "" {
		b.events = make(map[string][]Event)
		b.order = nil
		return
	}
	delete(b.events, runID)
	for i, id := range b.order {
		if id == runID {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}
