package events

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/vk/buildgrid/internal/ctxlog"
	"github.com/vk/buildgrid/internal/orchestrator"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// PhaseEvent is the name of the socket.io event emitted per transition.
const PhaseEvent = "phase"

// DefaultConnectTimeout bounds the wait for the socket.io handshake.
const DefaultConnectTimeout = 15 * time.Second

type emitter interface {
	Emit(ev string, args ...any) error
}

// SocketIO emits transitions to a socket.io server.
type SocketIO struct {
	client emitter
	close  func()
}

// SocketIOOptions configures DialSocketIO.
type SocketIOOptions struct {
	Namespace          string
	InsecureSkipVerify bool
	ConnectTimeout     time.Duration
}

// DialSocketIO connects to rawURL and waits for the handshake. The URL path
// is used as the socket.io path.
func DialSocketIO(ctx context.Context, rawURL string, o SocketIOOptions) (*SocketIO, error) {
	logger := ctxlog.FromContext(ctx).With("url", rawURL)
	logger.Debug("Connecting event stream...")

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse events URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("events URL %q must be absolute", rawURL)
	}
	timeout := o.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}

	opts := socket.DefaultOptions()
	if parsedURL.Path != "" {
		opts.SetPath(parsedURL.Path)
	}
	if o.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	hs := newHandshake()
	manager := socket.NewManager(fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host), opts)
	io := manager.Socket(o.Namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		hs.report(nil)
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := errors.New("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		hs.report(err)
	})
	io.Connect()

	select {
	case err := <-hs.done:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", timeout)
	}

	logger.Info("📡 Event stream connected.", "sid", io.Id())
	return &SocketIO{client: io, close: func() { io.Disconnect() }}, nil
}

// handshake keeps the first connection outcome. Later outcomes, such as a
// reconnect after connect_error, are dropped so the client's event
// goroutine never blocks on them.
type handshake struct {
	done chan error
}

func newHandshake() *handshake {
	return &handshake{done: make(chan error, 1)}
}

func (h *handshake) report(err error) {
	select {
	case h.done <- err:
	default:
	}
}

// OnTransition implements orchestrator.Observer. Emit only queues the
// packet, so a slow server never blocks the build.
func (s *SocketIO) OnTransition(ctx context.Context, ev orchestrator.Event) {
	if err := s.client.Emit(PhaseEvent, payload(ev)); err != nil {
		ctxlog.FromContext(ctx).Warn("Failed to publish build event.", "error", err)
	}
}

// Close disconnects from the server.
func (s *SocketIO) Close() error {
	if s.close != nil {
		s.close()
	}
	return nil
}

func payload(ev orchestrator.Event) map[string]any {
	p := map[string]any{
		"invocation_id": ev.InvocationID,
		"project":       ev.Project,
		"from":          string(ev.From),
		"to":            string(ev.To),
		"time":          ev.Time.UTC().Format(time.RFC3339Nano),
	}
	if ev.Phase != "" {
		p["phase"] = string(ev.Phase)
		p["duration_ms"] = ev.Duration.Milliseconds()
	}
	if ev.Err != nil {
		p["error"] = ev.Err.Error()
	}
	return p
}
