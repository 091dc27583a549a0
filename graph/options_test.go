package graph

import (
	"testing"
	"time"

	"github.com/dshills/pipeline-go/graph/emit"
)

func TestOptions(t *testing.T) {
	tests := []struct {
		name    string
		opt     Option
		wantErr bool
	}{
		{"nil emitter", WithEmitter(nil), true},
		{"emitter", WithEmitter(emit.NewNullEmitter()), false},
		{"nil log func", WithLogFunc(nil), true},
		{"negative timeout", WithDefaultNodeTimeout(-1), true},
		{"zero timeout", WithDefaultNodeTimeout(0), false},
		{"nil run id generator", WithRunIDGenerator(nil), true},
		{"nil result sink", WithResultSink(nil), false},
		{"source types", WithSourceTypes("trigger"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			err := tt.opt(&cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()
	if cfg.emitter == nil {
		t.Error("default emitter is nil")
	}
	if a, b := cfg.runID(), cfg.runID(); a == "" || a == b {
		t.Errorf("run ids %q, %q should be unique and non-empty", a, b)
	}
	if cfg.defaultNodeTimeout != 0 {
		t.Errorf("defaultNodeTimeout = %v, want 0", cfg.defaultNodeTimeout)
	}
}

func TestGetNodeTimeout(t *testing.T) {
	tests := []struct {
		name   string
		config map[string]any
		def    time.Duration
		want   time.Duration
	}{
		{"none", nil, 0, 0},
		{"default", nil, time.Second, time.Second},
		{"int override", map[string]any{"timeoutMs": 250}, time.Second, 250 * time.Millisecond},
		{"float from json", map[string]any{"timeoutMs": 1500.0}, 0, 1500 * time.Millisecond},
		{"string", map[string]any{"timeoutMs": "10"}, 0, 10 * time.Millisecond},
		{"zero falls back", map[string]any{"timeoutMs": 0}, time.Second, time.Second},
		{"garbage falls back", map[string]any{"timeoutMs": "soon"}, time.Second, time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := getNodeTimeout(tt.config, tt.def); got != tt.want {
				t.Errorf("getNodeTimeout() = %v, want %v", got, tt.want)
			}
		})
	}
}
