package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vk/buildgrid/internal/config"
	"github.com/vk/buildgrid/internal/ctxlog"
	"github.com/vk/buildgrid/internal/events"
	"github.com/vk/buildgrid/internal/lockfile"
	"github.com/vk/buildgrid/internal/orchestrator"
	"github.com/vk/buildgrid/internal/resolver"
	"github.com/vk/buildgrid/internal/resolver/maven"
)

// ErrBuildFailed is returned by Run when the build did not succeed. The
// report has already been rendered at that point.
var ErrBuildFailed = errors.New("build failed")

// Run loads the descriptor, runs the build and renders its report.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "descriptor", a.config.DescriptorPath)

	if err := a.startHealthcheckServer(ctx); err != nil {
		return err
	}
	defer a.close(ctx)

	rep := a.build(ctx)
	if err := a.renderer.Render(a.outW, rep); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	a.logger.Debug("App.Run method finished.", "status", rep.Status)
	if !rep.Succeeded() {
		return fmt.Errorf("%w: %w", ErrBuildFailed, rep.Err())
	}
	return nil
}

// build produces the report of one invocation. Failures before the
// orchestrator starts are reported against the load or resolve phase.
func (a *App) build(ctx context.Context) *orchestrator.Report {
	logger := ctxlog.FromContext(ctx)

	loader := a.loader
	if loader == nil {
		l, err := LoaderFor(a.config.DescriptorPath)
		if err != nil {
			return orchestrator.NewFailedReport(a.newID(), orchestrator.PhaseLoad, err)
		}
		loader = l
	}
	d, err := loader.Load(ctx, a.config.DescriptorPath)
	if err != nil {
		return orchestrator.NewFailedReport(a.newID(), orchestrator.PhaseLoad, err)
	}
	logger.Debug("Descriptor loaded.", "project", d.ID())

	if a.config.ValidateOnly {
		return a.validate(d)
	}

	res, err := a.resolverFor(ctx, d)
	if err != nil {
		rep := orchestrator.NewFailedReport(a.newID(), orchestrator.PhaseResolve, err)
		rep.Project = d.ID()
		return rep
	}

	observers := append([]orchestrator.Observer(nil), a.observers...)
	if a.config.EventsURL != "" {
		// A missing dashboard never fails the build.
		stream, err := events.DialSocketIO(ctx, a.config.EventsURL, events.SocketIOOptions{})
		if err != nil {
			logger.Warn("Event stream unavailable, continuing without it.", "error", err)
		} else {
			a.closers = append(a.closers, stream)
			observers = append(observers, stream)
		}
	}

	opts := []orchestrator.Option{
		orchestrator.WithObserver(observers...),
		orchestrator.WithMetrics(a.metrics),
		orchestrator.WithPhaseTimeout(a.config.PhaseTimeout),
	}
	if a.config.Workspace != "" {
		opts = append(opts, orchestrator.WithWorkspace(a.config.Workspace))
	}
	rep := orchestrator.New(res, a.compiler, a.runner, opts...).Run(ctx, d)

	if a.config.WriteLock && rep.Graph != nil {
		if err := lockfile.Write(a.config.LockPath, d.ID(), rep.Graph); err != nil {
			logger.Error("Failed to write lock file.", "error", err)
		} else {
			logger.Info("🔒 Lock file written.", "path", a.config.LockPath, "artifacts", len(rep.Graph.Entries))
		}
	}
	return rep
}

// validate reports the violations of d without running any phase.
func (a *App) validate(d *config.ProjectDescriptor) *orchestrator.Report {
	violations := config.Validate(d)
	rep := &orchestrator.Report{
		InvocationID: a.newID(),
		Project:      d.ID(),
		Status:       orchestrator.StateSucceeded,
		Violations:   violations,
		Application:  d.Application,
		TestConfig:   d.Test,
		Durations:    map[orchestrator.Phase]time.Duration{},
	}
	if errs := config.Errors(violations); len(errs) > 0 {
		rep.Status = orchestrator.StateFailed
		rep.FailedPhase = orchestrator.PhaseValidate
		rep.Cause = &orchestrator.PhaseError{
			Phase: orchestrator.PhaseValidate,
			Err:   &orchestrator.ValidationError{Violations: errs},
		}
	}
	return rep
}

// resolverFor returns the injected resolver, the lock file replay for
// offline builds, or a Maven resolver.
func (a *App) resolverFor(ctx context.Context, d *config.ProjectDescriptor) (orchestrator.Resolver, error) {
	logger := ctxlog.FromContext(ctx)
	if a.resolver != nil {
		return a.resolver, nil
	}

	if a.config.Offline {
		lock, err := lockfile.Read(a.config.LockPath)
		if err != nil {
			return nil, err
		}
		if lock.Project != d.ID() {
			logger.Warn("Lock file was written for another project.", "locked", lock.Project, "project", d.ID())
		}
		if err := lock.Verify(); err != nil {
			return nil, err
		}
		static := resolver.NewStatic(lock.Artifacts...)
		if missing := uncovered(d, static); len(missing) > 0 {
			return nil, fmt.Errorf("%w: lock file does not cover %s", lockfile.ErrStale, strings.Join(missing, ", "))
		}
		logger.Info("Replaying lock file.", "path", a.config.LockPath, "artifacts", len(lock.Artifacts))
		return static, nil
	}

	opts := []maven.Option{maven.WithConcurrency(a.config.Concurrency), maven.WithRetries(a.config.Retries)}
	if a.config.HTTPTimeout > 0 {
		opts = append(opts, maven.WithTimeout(a.config.HTTPTimeout))
	}
	if a.config.SkipChecksums {
		logger.Warn("Checksum verification of downloads is disabled.")
		opts = append(opts, maven.WithoutChecksums())
	}
	m := maven.New(a.config.CacheDir, opts...)
	a.closers = append(a.closers, m)
	return m, nil
}

// uncovered lists the declared coordinates the lock file has no artifact for.
func uncovered(d *config.ProjectDescriptor, static *resolver.Static) []string {
	var missing []string
	seen := make(map[string]struct{})
	for _, sc := range config.ResolutionOrder {
		for _, c := range d.Effective(sc) {
			if _, dup := seen[c.String()]; dup || static.Has(c) {
				continue
			}
			seen[c.String()] = struct{}{}
			missing = append(missing, c.String())
		}
	}
	return missing
}

func (a *App) close(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			logger.Warn("Failed to release resource.", "error", err)
		}
	}
	a.closers = nil
	if err := a.closeHealthCheckServer(ctx); err != nil {
		logger.Warn("Health check server did not stop cleanly.", "error", err)
	}
}
