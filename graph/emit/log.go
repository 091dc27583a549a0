package emit

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
)

// LogEmitter implements Emitter by writing one line per event to a writer.
//
// Supports two output modes:
//   - Text mode (default): the human-readable line followed by key=value pairs
//   - JSON mode: one JSON object per line (JSONL)
//
// Example text output:
//
//	[info] Executing text node: B event=node_start runID=run-001 step=2 nodeID=B node_type=text
//
// Example JSON output:
//
//	{"runID":"run-001","step":2,"nodeID":"B","msg":"node_start","text":"Executing text node: B","level":"info","meta":{"node_type":"text"}}
//
// Writes are serialized, so one LogEmitter may be shared by concurrent runs.
type LogEmitter struct {
	mu       sync.Mutex
	writer   io.Writer
	jsonMode bool
}

// NewLogEmitter creates a LogEmitter writing to writer (os.Stdout when nil).
func NewLogEmitter(writer io.Writer, jsonMode bool) *LogEmitter {
	if writer == nil {
		writer = os.Stdout
	}
	return &LogEmitter{
		writer:   writer,
		jsonMode: jsonMode,
	}
}

// Emit writes an event to the configured writer.
func (l *LogEmitter) Emit(event Event) {
	var line string
	if l.jsonMode {
		line = formatJSON(event)
	} else {
		line = formatText(event)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.writer, line)
}

func formatJSON(event Event) string {
	data, err := json.Marshal(struct {
		RunID  string                 `json:"runID"`
		Step   int                    `json:"step"`
		NodeID string                 `json:"nodeID"`
		Msg    string                 `json:"msg"`
		Text   string                 `json:"text,omitempty"`
		Level  Level                  `json:"level"`
		Meta   map[string]interface{} `json:"meta"`
	}{
		RunID:  event.RunID,
		Step:   event.Step,
		NodeID: event.NodeID,
		Msg:    event.Msg,
		Text:   event.Text,
		Level:  event.Severity(),
		Meta:   event.Meta,
	})
	if err != nil {
		return fmt.Sprintf("{\"error\":\"failed to marshal event: %v\"}", err)
	}
	return string(data)
}

func formatText(event Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s event=%s runID=%s step=%d",
		event.Severity(), event.Line(), event.Msg, event.RunID, event.Step)
	if event.NodeID != "" {
		fmt.Fprintf(&b, " nodeID=%s", event.NodeID)
	}

	// Sorted keys keep lines stable across runs.
	keys := make([]string, 0, len(event.Meta))
	for k := range event.Meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch v := event.Meta[k].(type) {
		case string:
			if strings.ContainsAny(v, " \t\"=") {
				fmt.Fprintf(&b, " %s=%q", k, v)
			} else {
				fmt.Fprintf(&b, " %s=%s", k, v)
			}
		default:
			if raw, err := json.Marshal(v); err == nil {
				fmt.Fprintf(&b, " %s=%s", k, raw)
			} else {
				fmt.Fprintf(&b, " %s=%v", k, v)
			}
		}
	}
	return b.String()
}
