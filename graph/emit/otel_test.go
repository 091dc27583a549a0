package emit

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTestTracer(t *testing.T) (*OTelEmitter, *tracetest.InMemoryExporter, *sdktrace.TracerProvider) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return NewOTelEmitter(tp.Tracer("test")), exporter, tp
}

func TestOTelEmitter_Emit(t *testing.T) {
	emitter, exporter, _ := newTestTracer(t)

	emitter.Emit(Event{
		RunID:  "run-001",
		Step:   1,
		NodeID: "nodeA",
		Msg:    "node_start",
		Text:   "Executing llm node: nodeA",
		Meta: map[string]interface{}{
			"node_type": "llm",
			"attempts":  2,
		},
	})

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	span := spans[0]
	if span.Name != "node_start" {
		t.Errorf("span name = %q, want %q", span.Name, "node_start")
	}

	attrs := attributeMap(span.Attributes)
	if got := attrs["pipeline.run_id"]; got != "run-001" {
		t.Errorf("run_id = %v, want %q", got, "run-001")
	}
	if got := attrs["pipeline.step"]; got != int64(1) {
		t.Errorf("step = %v, want %d", got, 1)
	}
	if got := attrs["pipeline.node_id"]; got != "nodeA" {
		t.Errorf("node_id = %v, want %q", got, "nodeA")
	}
	if got := attrs["pipeline.node.type"]; got != "llm" {
		t.Errorf("node.type = %v, want %q", got, "llm")
	}
	if got := attrs["attempts"]; got != int64(2) {
		t.Errorf("attempts = %v, want %d", got, 2)
	}
	if got := attrs["pipeline.text"]; got != "Executing llm node: nodeA" {
		t.Errorf("text = %v", got)
	}
	if span.Status.Code == codes.Error {
		t.Error("span without error meta should not have error status")
	}
}

func TestOTelEmitter_ErrorStatus(t *testing.T) {
	emitter, exporter, _ := newTestTracer(t)

	emitter.Emit(Event{RunID: "r", NodeID: "B", Msg: "node_error", Level: LevelError,
		Meta: map[string]interface{}{"error": "no executor found for node type: mystery"}})

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("status = %v, want Error", spans[0].Status.Code)
	}
	if spans[0].Status.Description != "no executor found for node type: mystery" {
		t.Errorf("status description = %q", spans[0].Status.Description)
	}
	if len(spans[0].Events) == 0 {
		t.Error("expected RecordError to add a span event")
	}
}

func TestOTelEmitter_EmitBatchAndFlush(t *testing.T) {
	emitter, exporter, tp := newTestTracer(t)

	events := []Event{
		{RunID: "r", Msg: "run_start"},
		{RunID: "r", Step: 1, NodeID: "A", Msg: "node_start"},
		{RunID: "r", Msg: "run_complete"},
	}
	if err := emitter.EmitBatch(context.Background(), events); err != nil {
		t.Fatalf("EmitBatch() error = %v", err)
	}
	if err := emitter.Flush(context.Background(), tp); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if got := len(exporter.GetSpans()); got != 3 {
		t.Errorf("spans = %d, want 3", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := emitter.EmitBatch(ctx, events); err == nil {
		t.Error("EmitBatch with cancelled context should fail")
	}
}

func attributeMap(attrs []attribute.KeyValue) map[string]interface{} {
	m := make(map[string]interface{})
	for _, kv := range attrs {
		m[string(kv.Key)] = kv.Value.AsInterface()
	}
	return m
}
