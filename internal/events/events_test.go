package events

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/buildgrid/internal/ctxlog"
	"github.com/vk/buildgrid/internal/orchestrator"
)

type recordingEmitter struct {
	events []string
	args   [][]any
	err    error
}

func (r *recordingEmitter) Emit(ev string, args ...any) error {
	r.events = append(r.events, ev)
	r.args = append(r.args, args)
	return r.err
}

func compileFailed() orchestrator.Event {
	return orchestrator.Event{
		InvocationID: "inv-1",
		Project:      "g:app:1",
		From:         orchestrator.StateCompiling,
		To:           orchestrator.StateFailed,
		Phase:        orchestrator.PhaseCompile,
		Duration:     1500 * time.Millisecond,
		Err:          errors.New("compilation failed"),
		Time:         time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSocketIO_EmitsPhaseEvents(t *testing.T) {
	em := &recordingEmitter{}
	s := &SocketIO{client: em}

	s.OnTransition(context.Background(), compileFailed())
	s.OnTransition(context.Background(), orchestrator.Event{From: orchestrator.StateIdle, To: orchestrator.StateResolving})

	require.Equal(t, []string{PhaseEvent, PhaseEvent}, em.events)
	require.Len(t, em.args[0], 1)
	assert.Equal(t, map[string]any{
		"invocation_id": "inv-1",
		"project":       "g:app:1",
		"from":          "compiling",
		"to":            "failed",
		"phase":         "compile",
		"duration_ms":   int64(1500),
		"error":         "compilation failed",
		"time":          "2024-05-01T12:00:00Z",
	}, em.args[0][0])

	leavingIdle := em.args[1][0].(map[string]any)
	assert.NotContains(t, leavingIdle, "phase")
	assert.NotContains(t, leavingIdle, "error")
	require.NoError(t, s.Close())
}

func TestSocketIO_EmitErrorIsLogged(t *testing.T) {
	var buf bytes.Buffer
	ctx := ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))

	s := &SocketIO{client: &recordingEmitter{err: errors.New("not connected")}}
	s.OnTransition(ctx, compileFailed())
	assert.Contains(t, buf.String(), "Failed to publish build event.")
	assert.Contains(t, buf.String(), "not connected")
}

func TestDialSocketIO_RejectsRelativeURL(t *testing.T) {
	_, err := DialSocketIO(context.Background(), "/socket.io", SocketIOOptions{})
	require.ErrorContains(t, err, "must be absolute")
}

func TestLogObserver(t *testing.T) {
	var buf bytes.Buffer
	ctx := ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	o := NewLogObserver()

	o.OnTransition(ctx, orchestrator.Event{From: orchestrator.StateIdle, To: orchestrator.StateResolving})
	o.OnTransition(ctx, compileFailed())
	o.OnTransition(ctx, orchestrator.Event{From: orchestrator.StateTesting, To: orchestrator.StateSucceeded, Phase: orchestrator.PhaseTest})

	out := buf.String()
	assert.Contains(t, out, `msg="Build state changed." from=idle to=resolving`)
	assert.Contains(t, out, "level=ERROR msg=\"Build phase failed.\" from=compiling to=failed phase=compile duration=1.5s error=\"compilation failed\"")
	assert.Contains(t, out, "Build succeeded.")
}

func TestHandshake_KeepsFirstOutcomeAndNeverBlocks(t *testing.T) {
	hs := newHandshake()
	refused := errors.New("connection refused")

	reported := make(chan struct{})
	go func() {
		hs.report(refused)
		hs.report(nil) // reconnect after the dial already gave up
		hs.report(nil)
		close(reported)
	}()

	select {
	case <-reported:
	case <-time.After(time.Second):
		t.Fatal("report blocked on an unread outcome")
	}
	require.ErrorIs(t, <-hs.done, refused)
	select {
	case err := <-hs.done:
		t.Fatalf("unexpected second outcome: %v", err)
	default:
	}
}
