package emit

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestMultiEmitter_FansOut(t *testing.T) {
	a, b := NewBufferedEmitter(), NewBufferedEmitter()
	multi := NewMultiEmitter(a, nil, b)

	multi.Emit(Event{RunID: "r", Msg: "run_start"})

	if len(a.GetHistory("r")) != 1 || len(b.GetHistory("r")) != 1 {
		t.Errorf("each emitter should receive the event once")
	}
}

func TestFuncEmitter_ReceivesLines(t *testing.T) {
	var lines []string
	emitter := NewFuncEmitter(func(msg string) { lines = append(lines, msg) })

	emitter.Emit(Event{Msg: "node_start", Text: "Executing llm node: C"})
	emitter.Emit(Event{Msg: "run_complete"})

	want := []string{"Executing llm node: C", "run_complete"}
	if len(lines) != len(want) {
		t.Fatalf("lines = %v, want %v", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("lines[%d] = %q, want %q", i, lines[i], want[i])
		}
	}

	// A nil function must not panic.
	NewFuncEmitter(nil).Emit(Event{Msg: "x"})
}

func TestNullEmitter(t *testing.T) {
	var e Emitter = NewNullEmitter()
	e.Emit(Event{RunID: "r", Msg: "anything"})
}

func TestSlogEmitter_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	emitter := NewSlogEmitter(logger)

	emitter.Emit(Event{RunID: "r", Msg: "debug_thing", Level: LevelDebug, Text: "hidden"})
	emitter.Emit(Event{RunID: "r", Step: 3, NodeID: "C", Msg: "node_error", Level: LevelError,
		Text: "Error executing node C: boom", Meta: map[string]interface{}{"reason": "executor"}})

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug event should be filtered at info level: %s", out)
	}
	for _, want := range []string{"level=ERROR", `msg="Error executing node C: boom"`, "event=node_error", "node_id=C", "step=3", "reason=executor"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestSocketIOEmitter_Payload(t *testing.T) {
	type sent struct {
		event   string
		payload map[string]interface{}
	}
	var got []sent
	emitter := NewSocketIOEmitter(func(event string, payload map[string]interface{}) {
		got = append(got, sent{event, payload})
	})

	emitter.Emit(Event{RunID: "r", Step: 1, NodeID: "A", Msg: "node_end", Text: "Node A executed successfully",
		Meta: map[string]interface{}{"duration_ms": int64(4)}})
	emitter.Emit(Event{RunID: "r"}) // unnamed events are dropped
	emitter.Publish("node_result", map[string]interface{}{"nodeId": "A"})

	if len(got) != 2 {
		t.Fatalf("sent %d messages, want 2", len(got))
	}
	if got[0].event != "node_end" {
		t.Errorf("event = %q, want node_end", got[0].event)
	}
	p := got[0].payload
	if p["runId"] != "r" || p["nodeId"] != "A" || p["step"] != 1 || p["level"] != "info" {
		t.Errorf("payload = %v", p)
	}
	if p["message"] != "Node A executed successfully" {
		t.Errorf("message = %v", p["message"])
	}
	if got[1].event != "node_result" {
		t.Errorf("published event = %q, want node_result", got[1].event)
	}
	if err := emitter.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}
