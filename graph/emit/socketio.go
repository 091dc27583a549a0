package emit

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// SocketIOEmitter implements Emitter by forwarding events to a socket.io
// server, so a browser UI can follow a run live. Each event is sent under
// its Msg name (e.g. "node_end") with a JSON-friendly payload.
type SocketIOEmitter struct {
	send   func(event string, payload map[string]interface{})
	closer func()
}

// SocketIOOptions configures DialSocketIO.
type SocketIOOptions struct {
	// URL of the socket.io server, including the path (e.g.
	// "http://localhost:3000/socket.io/").
	URL string

	// Namespace to join. Empty means the root namespace.
	Namespace string

	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool

	// ConnectTimeout bounds the initial handshake. Default: 15s.
	ConnectTimeout time.Duration
}

// DialSocketIO connects to a socket.io server over WebSocket and returns an
// emitter bound to that connection. The call blocks until the server
// acknowledges the connection, the timeout elapses, or ctx is cancelled.
func DialSocketIO(ctx context.Context, o SocketIOOptions) (*SocketIOEmitter, error) {
	parsed, err := url.Parse(o.URL)
	if err != nil {
		return nil, fmt.Errorf("parse socket.io url: %w", err)
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = 15 * time.Second
	}

	opts := socket.DefaultOptions()
	opts.SetPath(parsed.Path)
	if o.InsecureSkipVerify {
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	baseURL := fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(o.Namespace, opts)

	connected := make(chan error, 1)
	io.Once(types.EventName("connect"), func(...any) {
		connected <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		if len(errs) > 0 {
			if err, ok := errs[0].(error); ok {
				connected <- err
				return
			}
		}
		connected <- fmt.Errorf("connect_error")
	})
	io.Connect()

	select {
	case err := <-connected:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(o.ConnectTimeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %v waiting for socket.io connection", o.ConnectTimeout)
	}

	return &SocketIOEmitter{
		send: func(event string, payload map[string]interface{}) {
			if io.Connected() {
				io.Emit(event, payload)
			}
		},
		closer: func() { io.Disconnect() },
	}, nil
}

// NewSocketIOEmitter builds an emitter around an arbitrary send function.
// It is mainly useful for tests and for bridging to an existing client.
func NewSocketIOEmitter(send func(event string, payload map[string]interface{})) *SocketIOEmitter {
	return &SocketIOEmitter{send: send}
}

// Emit forwards the event. Events without a name are dropped.
func (s *SocketIOEmitter) Emit(event Event) {
	if s.send == nil || event.Msg == "" {
		return
	}
	s.send(event.Msg, SocketIOPayload(event))
}

// Publish sends an arbitrary payload under event, bypassing the Event shape.
// The CLI uses it to stream node results alongside log events.
func (s *SocketIOEmitter) Publish(event string, payload map[string]interface{}) {
	if s.send == nil || event == "" {
		return
	}
	s.send(event, payload)
}

// Close disconnects from the server.
func (s *SocketIOEmitter) Close() error {
	if s.closer != nil {
		s.closer()
	}
	return nil
}

// SocketIOPayload is the wire shape of an event sent to the live UI.
func SocketIOPayload(event Event) map[string]interface{} {
	payload := map[string]interface{}{
		"runId":   event.RunID,
		"step":    event.Step,
		"message": event.Line(),
		"level":   string(event.Severity()),
	}
	if event.NodeID != "" {
		payload["nodeId"] = event.NodeID
	}
	if len(event.Meta) > 0 {
		payload["meta"] = event.Meta
	}
	return payload
}
