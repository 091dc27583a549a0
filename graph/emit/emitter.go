// Package emit provides event emission and observability for pipeline execution.
package emit

// Emitter receives and processes observability events from pipeline execution.
//
// Emitters enable pluggable observability backends:
//   - Logging: stdout, files, log/slog, plain callbacks
//   - Distributed tracing: OpenTelemetry
//   - Live dashboards: socket.io
//
// Implementations should be non-blocking, safe for concurrent use (one
// emitter may serve several concurrent runs) and must never panic.
type Emitter interface {
	// Emit sends an observability event to the configured backend.
	// Errors are handled internally and never reach the engine.
	Emit(event Event)
}

// MultiEmitter fans each event out to several emitters in order.
type MultiEmitter struct {
	emitters []Emitter
}

// NewMultiEmitter combines emitters. Nil entries are skipped.
func NewMultiEmitter(emitters ...Emitter) *MultiEmitter {
	m := &MultiEmitter{}
	for _, e := range emitters {
		if e != nil {
			m.emitters = append(m.emitters, e)
		}
	}
	return m
}

// Emit forwards the event to every wrapped emitter.
func (m *MultiEmitter) Emit(event Event) {
	for _, e := range m.emitters {
		e.Emit(event)
	}
}

// FuncEmitter adapts a plain log-append function to the Emitter interface.
// The function receives each event's human-readable line.
type FuncEmitter struct {
	fn func(string)
}

// NewFuncEmitter wraps fn. A nil fn discards events.
func NewFuncEmitter(fn func(message string)) *FuncEmitter {
	return &FuncEmitter{fn: fn}
}

// Emit passes event.Line() to the wrapped function.
func (f *FuncEmitter) Emit(event Event) {
	if f.fn == nil {
		return
	}
	f.fn(event.Line())
}
