package emit

import (
	"context"
	"log/slog"
	"sort"
)

// SlogEmitter implements Emitter by logging each event through a
// *slog.Logger, mapping the event Level onto slog levels.
type SlogEmitter struct {
	logger *slog.Logger
}

// NewSlogEmitter creates a SlogEmitter. A nil logger uses slog.Default().
func NewSlogEmitter(logger *slog.Logger) *SlogEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogEmitter{logger: logger}
}

// Emit logs event.Line() with the run, step, node and metadata as attributes.
func (s *SlogEmitter) Emit(event Event) {
	attrs := []slog.Attr{
		slog.String("event", event.Msg),
		slog.String("run_id", event.RunID),
		slog.Int("step", event.Step),
	}
	if event.NodeID != "" {
		attrs = append(attrs, slog.String("node_id", event.NodeID))
	}

	keys := make([]string, 0, len(event.Meta))
	for k := range event.Meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, event.Meta[k]))
	}

	s.logger.LogAttrs(context.Background(), slogLevel(event.Severity()), event.Line(), attrs...)
}

func slogLevel(l Level) slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
