package emit

// NullEmitter implements Emitter by discarding all events.
//
// It is the engine's default emitter and is useful in tests that do not
// inspect events.
type NullEmitter struct{}

// NewNullEmitter creates a new NullEmitter.
func NewNullEmitter() *NullEmitter {
	return &NullEmitter{}
}

// Emit discards the event.
func (n *NullEmitter) Emit(Event) {}
