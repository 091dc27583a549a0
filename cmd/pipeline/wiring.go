package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dshills/pipeline-go/graph"
	"github.com/dshills/pipeline-go/graph/archive"
	"github.com/dshills/pipeline-go/graph/emit"
	"github.com/dshills/pipeline-go/graph/executors"
	"github.com/dshills/pipeline-go/graph/model"
	"github.com/dshills/pipeline-go/graph/model/anthropic"
	"github.com/dshills/pipeline-go/graph/model/google"
	"github.com/dshills/pipeline-go/graph/model/openai"
	"github.com/dshills/pipeline-go/graph/store"
)

// session holds everything a run needs. Close releases it in reverse
// order of acquisition.
type session struct {
	engine   *graph.Engine
	runID    string
	store    store.Store[graph.ExecutionResult]
	archiver archive.Archiver
	live     *emit.SocketIOEmitter

	closers []func() error
}

func (s *session) onClose(fn func() error) {
	s.closers = append(s.closers, fn)
}

// Close releases every acquired resource and joins their errors.
func (s *session) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// newSession wires the engine, executors and sinks described by cfg.
// On error, anything already acquired is released.
func newSession(ctx context.Context, cfg Config, logger *slog.Logger, runID string) (sess *session, err error) {
	sess = &session{runID: runID}
	defer func() {
		if err != nil {
			_ = sess.Close()
			sess = nil
		}
	}()

	chat, err := newChatModel(cfg.LLM)
	if err != nil {
		return nil, err
	}

	deps := executors.Dependencies{Model: chat}
	if cfg.Database.Driver != "" {
		db, err := store.OpenDB(ctx, cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		sess.onClose(db.Close)
		deps.DB = db
		logger.Debug("database node backend configured", "driver", cfg.Database.Driver)
	}

	registry, err := executors.NewDefaultRegistry(deps)
	if err != nil {
		return nil, err
	}

	st, closeStore, err := store.Open[graph.ExecutionResult](cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		return nil, fmt.Errorf("open result store: %w", err)
	}
	sess.onClose(closeStore)
	sess.store = st

	emitters := []emit.Emitter{emit.NewSlogEmitter(logger)}

	if cfg.Tracing {
		tp := newTracerProvider(logger)
		sess.onClose(func() error { return tp.Shutdown(context.Background()) })
		emitters = append(emitters, emit.NewOTelEmitter(tp.Tracer("pipeline")))
	}

	if cfg.Live.URL != "" {
		live, err := emit.DialSocketIO(ctx, emit.SocketIOOptions{
			URL:                cfg.Live.URL,
			Namespace:          cfg.Live.Namespace,
			InsecureSkipVerify: cfg.Live.InsecureSkipVerify,
		})
		if err != nil {
			return nil, err
		}
		sess.onClose(live.Close)
		sess.live = live
		emitters = append(emitters, live)
	}

	opts := []graph.Option{
		graph.WithEmitter(emit.NewMultiEmitter(emitters...)),
		graph.WithStore(st),
		graph.WithRunIDGenerator(func() string { return runID }),
		graph.WithResultSink(sess.publishResult),
	}
	if cfg.NodeTimeout > 0 {
		opts = append(opts, graph.WithDefaultNodeTimeout(cfg.NodeTimeout))
	}

	if cfg.Metrics.Addr != "" {
		promRegistry := prometheus.NewRegistry()
		opts = append(opts, graph.WithMetrics(graph.NewPrometheusMetrics(promRegistry)))
		shutdown, err := serveMetrics(cfg.Metrics.Addr, promRegistry, logger)
		if err != nil {
			return nil, err
		}
		sess.onClose(shutdown)
	}

	sess.archiver, err = newArchiver(cfg.Archive)
	if err != nil {
		return nil, err
	}

	sess.engine, err = graph.New(registry, opts...)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// publishResult streams each node result to the live UI, if connected.
func (s *session) publishResult(nodeID string, result graph.ExecutionResult) {
	if s.live == nil {
		return
	}
	s.live.Publish("node_result", map[string]interface{}{
		"runId":  s.runID,
		"nodeId": nodeID,
		"result": result,
	})
}

// newChatModel returns the model behind llm nodes.
func newChatModel(cfg LLMConfig) (model.ChatModel, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "placeholder":
		return model.Placeholder{}, nil
	case "openai":
		return openai.NewChatModel(cfg.APIKey, cfg.Model), nil
	case "anthropic":
		return anthropic.NewChatModel(cfg.APIKey, cfg.Model), nil
	case "google":
		return google.NewChatModel(cfg.APIKey, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

func newArchiver(cfg ArchiveConfig) (archive.Archiver, error) {
	switch strings.ToLower(cfg.Kind) {
	case "":
		return nil, nil
	case "file":
		return archive.NewFileArchiver(cfg.Dir), nil
	case "minio":
		a, err := archive.NewMinioArchiver(archive.MinioConfig{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Region:    cfg.Region,
			UseSSL:    cfg.UseSSL,
			Bucket:    cfg.Bucket,
			Prefix:    cfg.Prefix,
		})
		if err != nil {
			return nil, err
		}
		return a, nil
	default:
		return nil, fmt.Errorf("unknown archive kind %q", cfg.Kind)
	}
}
