package events

import (
	"context"

	"github.com/vk/buildgrid/internal/ctxlog"
	"github.com/vk/buildgrid/internal/orchestrator"
)

// LogObserver logs every transition.
type LogObserver struct{}

// NewLogObserver creates a transition logger.
func NewLogObserver() *LogObserver {
	return &LogObserver{}
}

// OnTransition implements orchestrator.Observer.
func (o *LogObserver) OnTransition(ctx context.Context, ev orchestrator.Event) {
	logger := ctxlog.FromContext(ctx).With("from", string(ev.From), "to", string(ev.To))
	if ev.Phase != "" {
		logger = logger.With("phase", string(ev.Phase), "duration", ev.Duration)
	}
	switch {
	case ev.Err != nil:
		logger.Error("Build phase failed.", "error", ev.Err)
	case ev.To == orchestrator.StateSucceeded:
		logger.Info("✅ Build succeeded.")
	default:
		logger.Info("Build state changed.")
	}
}
