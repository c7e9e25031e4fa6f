package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/vk/buildgrid/internal/config"
	"github.com/vk/buildgrid/internal/ctxlog"
)

// Orchestrator runs builds against a fixed set of collaborators.
type Orchestrator struct {
	resolver Resolver
	compiler Compiler
	runner   TestRunner

	phaseTimeout time.Duration
	workspace    string
	observers    []Observer
	metrics      Metrics
	now          func() time.Time
	newID        func() string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPhaseTimeout bounds every phase. Zero means no bound.
func WithPhaseTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.phaseTimeout = d }
}

// WithObserver registers observers notified on every state transition.
func WithObserver(obs ...Observer) Option {
	return func(o *Orchestrator) { o.observers = append(o.observers, obs...) }
}

// WithMetrics records phase durations and build outcomes.
func WithMetrics(m Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithWorkspace sets the project directory. It defaults to the directory of
// the descriptor.
func WithWorkspace(dir string) Option {
	return func(o *Orchestrator) { o.workspace = dir }
}

// New creates an orchestrator. All three collaborators are required.
func New(resolver Resolver, compiler Compiler, runner TestRunner, opts ...Option) *Orchestrator {
	if resolver == nil || compiler == nil || runner == nil {
		panic("orchestrator: resolver, compiler and test runner are required")
	}
	o := &Orchestrator{
		resolver: resolver,
		compiler: compiler,
		runner:   runner,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// run is the state of a single invocation.
type run struct {
	o      *Orchestrator
	m      *machine
	report *Report
}

// Run validates d and drives it through resolve, compile and test. It never
// returns a nil report; failures are recorded in the report.
func (o *Orchestrator) Run(ctx context.Context, d *config.ProjectDescriptor) *Report {
	id := o.newID()
	ctx = ctxlog.With(ctx, "invocation_id", id, "project", d.ID())
	logger := ctxlog.FromContext(ctx)

	r := &run{
		o: o,
		m: newMachine(),
		report: &Report{
			InvocationID: id,
			Project:      d.ID(),
			Status:       StateIdle,
			Application:  d.Application,
			TestConfig:   d.Test,
			Durations:    make(map[Phase]time.Duration),
		},
	}
	logger.Info("🚀 Starting build...")

	violations := config.Validate(d)
	r.report.Violations = violations
	for _, v := range violations {
		if v.Severity == config.SeverityWarning {
			logger.Warn("Descriptor warning.", "kind", v.Kind, "message", v.Message, "at", v.Position.String())
		}
	}
	if errs := config.Errors(violations); len(errs) > 0 {
		r.fail(ctx, PhaseValidate, &ValidationError{Violations: errs})
		return r.finish(ctx)
	}

	r.enter(ctx, StateResolving, "")
	graph, err := timed(ctx, r, PhaseResolve, func(ctx context.Context) (*ResolvedGraph, error) {
		return o.Resolve(ctx, d)
	})
	if err != nil {
		r.fail(ctx, PhaseResolve, err)
		return r.finish(ctx)
	}
	r.report.Graph = graph

	r.enter(ctx, StateCompiling, PhaseResolve)
	compiled, err := timed(ctx, r, PhaseCompile, func(ctx context.Context) (*CompiledArtifacts, error) {
		return o.Compile(ctx, d, graph)
	})
	if err != nil {
		r.fail(ctx, PhaseCompile, err)
		return r.finish(ctx)
	}
	r.report.Compile = compiled

	r.enter(ctx, StateTesting, PhaseCompile)
	tested, err := timed(ctx, r, PhaseTest, func(ctx context.Context) (*TestReport, error) {
		return o.Test(ctx, d, compiled)
	})
	if tested != nil {
		r.report.Test = tested
		if o.metrics != nil {
			o.metrics.ObserveTests(tested)
		}
	}
	if err != nil {
		r.fail(ctx, PhaseTest, err)
		return r.finish(ctx)
	}

	r.enter(ctx, StateSucceeded, PhaseTest)
	return r.finish(ctx)
}

// timed runs one phase with the phase timeout and records its duration.
func timed[T any](ctx context.Context, r *run, phase Phase, fn func(context.Context) (T, error)) (T, error) {
	o := r.o
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Phase started.", "phase", phase)

	if o.phaseTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.phaseTimeout)
		defer cancel()
	}

	start := o.now()
	out, err := fn(ctx)
	elapsed := o.now().Sub(start)
	r.report.Durations[phase] = elapsed
	if o.metrics != nil {
		o.metrics.ObservePhase(phase, elapsed, err)
	}
	logger.Debug("Phase finished.", "phase", phase, "duration", elapsed, "error", err)
	return out, err
}

// enter performs a transition and notifies the observers. An illegal
// transition is a bug in the orchestrator.
func (r *run) enter(ctx context.Context, to State, ended Phase) {
	r.transition(ctx, to, ended, nil)
}

func (r *run) fail(ctx context.Context, phase Phase, err error) {
	cause := &PhaseError{Phase: phase, Err: err}
	r.report.FailedPhase = phase
	r.report.Cause = cause
	ctxlog.FromContext(ctx).Error("Build failed.", "phase", phase, "error", err)
	r.transition(ctx, StateFailed, phase, cause)
}

func (r *run) transition(ctx context.Context, to State, ended Phase, err error) {
	from, terr := r.m.transition(to)
	if terr != nil {
		panic(fmt.Errorf("orchestrator: %w", terr))
	}
	r.report.Status = to

	ev := Event{
		InvocationID: r.report.InvocationID,
		Project:      r.report.Project,
		From:         from,
		To:           to,
		Phase:        ended,
		Duration:     r.report.Durations[ended],
		Err:          err,
		Time:         r.o.now(),
	}
	for _, obs := range r.o.observers {
		obs.OnTransition(ctx, ev)
	}
}

func (r *run) finish(ctx context.Context) *Report {
	if r.o.metrics != nil {
		r.o.metrics.ObserveBuild(r.report.Status)
	}
	ctxlog.FromContext(ctx).Info("🏁 Build finished.", "status", r.report.Status)
	return r.report
}

// Resolve resolves every scope of d, processor scopes first, and returns the
// sorted graph. Resolving the same descriptor against an unchanged universe
// yields an equal graph.
func (o *Orchestrator) Resolve(ctx context.Context, d *config.ProjectDescriptor) (*ResolvedGraph, error) {
	logger := ctxlog.FromContext(ctx)

	var entries []Artifact
	for _, sc := range config.ResolutionOrder {
		coords := d.Effective(sc)
		if len(coords) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, &ResolutionError{Scope: sc, Err: err}
		}

		reqs := make([]Request, len(coords))
		for i, c := range coords {
			reqs[i] = Request{Coordinate: c, Scope: sc, Repositories: d.Repositories}
		}
		logger.Debug("Resolving scope.", "scope", sc, "requests", len(reqs))

		artifacts, err := o.resolver.Resolve(ctx, reqs)
		if err != nil {
			var re *ResolutionError
			if errors.As(err, &re) {
				if re.Scope == "" {
					re.Scope = sc
				}
				return nil, re
			}
			return nil, &ResolutionError{Scope: sc, Err: err}
		}
		for _, a := range artifacts {
			a.Scope = sc
			entries = append(entries, a)
		}
	}

	g := newResolvedGraph(entries)
	logger.Debug("Resolution complete.", "entries", len(g.Entries))
	return g, nil
}

// Compile hands the class and processor paths of g to the compiler. It fails
// before invoking the compiler when the source level is newer than the
// target level.
func (o *Orchestrator) Compile(ctx context.Context, d *config.ProjectDescriptor, g *ResolvedGraph) (*CompiledArtifacts, error) {
	logger := ctxlog.FromContext(ctx)

	if !d.Compatibility.Consistent() {
		msg := fmt.Sprintf("source compatibility %s is newer than target %s", d.Compatibility.Source, d.Compatibility.Target)
		return nil, &CompileError{Source: d.Source, Diagnostics: []string{msg}}
	}

	req := CompileRequest{
		Project:           d.ID(),
		Workspace:         o.workspaceFor(d),
		Plugins:           d.Plugins,
		Compatibility:     d.Compatibility,
		Classpath:         g.Paths(config.ScopeCompile),
		ProcessorPath:     unique(append(g.Paths(config.ScopeAnnotationProcessor), processorsAt(d, g, config.ScopeCompile)...)),
		TestClasspath:     g.Paths(config.ScopeCompile, config.ScopeTestCompile),
		TestProcessorPath: unique(append(g.Paths(config.ScopeTestAnnotationProcessor), processorsAt(d, g, config.ScopeTestCompile)...)),
	}
	logger.Debug("Invoking compiler.",
		"classpath", len(req.Classpath),
		"processor_path", len(req.ProcessorPath),
		"test_classpath", len(req.TestClasspath),
	)

	res, err := o.compiler.Compile(ctx, req)
	if err != nil {
		var ce *CompileError
		if errors.As(err, &ce) {
			return nil, ce
		}
		return nil, &CompileError{Err: err}
	}
	if res == nil {
		return nil, &CompileError{Err: errors.New("compiler returned no result")}
	}

	classpath := []string{res.TestClassesDir, res.ClassesDir}
	classpath = append(classpath, g.Paths(config.ScopeCompile, config.ScopeRuntime, config.ScopeTestCompile)...)
	return &CompiledArtifacts{Result: res, RuntimeClasspath: unique(classpath)}, nil
}

// Test runs the compiled tests. Failing cases do not make the runner fail; they
// are turned into a TestFailuresError returned together with the report.
func (o *Orchestrator) Test(ctx context.Context, d *config.ProjectDescriptor, a *CompiledArtifacts) (*TestReport, error) {
	logger := ctxlog.FromContext(ctx)
	if a == nil || a.Result == nil {
		return nil, &TestError{Err: errors.New("nothing was compiled")}
	}

	req := TestRequest{
		Platform:            d.Test.Platform,
		Workspace:           o.workspaceFor(d),
		TestClassesDir:      a.Result.TestClassesDir,
		Classpath:           a.RuntimeClasspath,
		Events:              d.Test.Events,
		ShowStandardStreams: d.Test.ShowStandardStreams,
	}
	tr, err := o.runner.Run(ctx, req)
	if err != nil {
		var te *TestError
		if errors.As(err, &te) {
			return tr, te
		}
		return tr, &TestError{Err: err}
	}
	if tr == nil {
		tr = &TestReport{}
	}
	logger.Debug("Tests finished.",
		"passed", tr.Count(config.EventPassed),
		"skipped", tr.Count(config.EventSkipped),
		"failed", tr.Count(config.EventFailed),
	)

	if failures := tr.Failures(); len(failures) > 0 {
		names := make([]string, len(failures))
		for i, c := range failures {
			names[i] = c.ID()
		}
		return tr, &TestFailuresError{Failed: names}
	}
	return tr, nil
}

func (o *Orchestrator) workspaceFor(d *config.ProjectDescriptor) string {
	if o.workspace != "" {
		return o.workspace
	}
	if d.Source != "" {
		return filepath.Dir(d.Source)
	}
	return "."
}

// processorsAt returns the artifact paths of declared processors that are
// only reachable through the given scope.
func processorsAt(d *config.ProjectDescriptor, g *ResolvedGraph, sc config.Scope) []string {
	var out []string
	for _, p := range d.Processors {
		if p.Scope.IsTest() != sc.IsTest() {
			continue
		}
		for _, a := range g.In(sc) {
			if a.Coordinate.Key() == p.Coordinate.Key() && a.Path != "" {
				out = append(out, a.Path)
			}
		}
	}
	return out
}

// unique drops empty and repeated entries, keeping the first occurrence.
func unique(in []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		if _, dup := seen[s]; dup || s == "" {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
