package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vk/buildgrid/internal/config"
)

// fakeResolver resolves every coordinate to a path under /repo unless the
// coordinate is listed in missing.
type fakeResolver struct {
	mu      sync.Mutex
	calls   [][]Request
	missing map[string]bool
	err     error
}

func (f *fakeResolver) Resolve(ctx context.Context, reqs []Request) ([]Artifact, error) {
	f.mu.Lock()
	f.calls = append(f.calls, reqs)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	out := make([]Artifact, 0, len(reqs))
	for _, r := range reqs {
		if f.missing[r.Coordinate.String()] {
			return nil, &ResolutionError{Coordinate: r.Coordinate, Err: errors.New("not found in any repository")}
		}
		out = append(out, Artifact{
			Coordinate: r.Coordinate,
			Path:       fmt.Sprintf("/repo/%s/%s-%s.jar", r.Coordinate.Group, r.Coordinate.Artifact, r.Coordinate.Version),
		})
	}
	return out, nil
}

func (f *fakeResolver) scopes() []config.Scope {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []config.Scope
	for _, reqs := range f.calls {
		out = append(out, reqs[0].Scope)
	}
	return out
}

type fakeCompiler struct {
	calls []CompileRequest
	err   error
}

func (f *fakeCompiler) Compile(ctx context.Context, req CompileRequest) (*CompileResult, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return &CompileResult{
		ClassesDir:     req.Workspace + "/build/classes/main",
		TestClassesDir: req.Workspace + "/build/classes/test",
	}, nil
}

type fakeRunner struct {
	calls  []TestRequest
	report *TestReport
	err    error
	// block makes Run wait for ctx to be done.
	block bool
}

func (f *fakeRunner) Run(ctx context.Context, req TestRequest) (*TestReport, error) {
	f.calls = append(f.calls, req)
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.report == nil {
		return &TestReport{Cases: []TestCase{{Class: "com.example.AppTest", Name: "works", Outcome: config.EventPassed}}}, nil
	}
	return f.report, nil
}

type recordingObserver struct {
	events []Event
}

func (r *recordingObserver) OnTransition(_ context.Context, ev Event) {
	r.events = append(r.events, ev)
}

func (r *recordingObserver) transitions() []string {
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = fmt.Sprintf("%s->%s", ev.From, ev.To)
	}
	return out
}

type recordingMetrics struct {
	phases []Phase
	builds []State
	tests  int
}

func (m *recordingMetrics) ObservePhase(phase Phase, _ time.Duration, _ error) {
	m.phases = append(m.phases, phase)
}

func (m *recordingMetrics) ObserveBuild(status State) { m.builds = append(m.builds, status) }

func (m *recordingMetrics) ObserveTests(r *TestReport) { m.tests += len(r.Cases) }

func mustCoordinate(s string) config.Coordinate {
	c, err := config.ParseCoordinate(s)
	if err != nil {
		panic(err)
	}
	return c
}

func dep(coord string, sc config.Scope) config.DependencyDeclaration {
	return config.DependencyDeclaration{Coordinate: mustCoordinate(coord), Scope: sc}
}

// descriptor returns a minimal valid descriptor with the given dependencies.
func descriptor(deps ...config.DependencyDeclaration) *config.ProjectDescriptor {
	return &config.ProjectDescriptor{
		Group:         "com.example",
		Name:          "app",
		Version:       "1.0",
		Compatibility: config.CompatibilitySpec{Source: 11, Target: 11},
		Dependencies:  deps,
		Repositories:  []config.Repository{config.DefaultRepository},
		Plugins:       []string{"java"},
		Test:          config.TestConfig{Platform: config.DefaultTestPlatform},
		Source:        "/work/build.hcl",
	}
}

type fixture struct {
	resolver *fakeResolver
	compiler *fakeCompiler
	runner   *fakeRunner
	observer *recordingObserver
	metrics  *recordingMetrics
}

func newFixture() *fixture {
	return &fixture{
		resolver: &fakeResolver{},
		compiler: &fakeCompiler{},
		runner:   &fakeRunner{},
		observer: &recordingObserver{},
		metrics:  &recordingMetrics{},
	}
}

func (f *fixture) orchestrator(opts ...Option) *Orchestrator {
	opts = append([]Option{WithObserver(f.observer), WithMetrics(f.metrics)}, opts...)
	o := New(f.resolver, f.compiler, f.runner, opts...)
	o.newID = func() string { return "test-invocation" }
	return o
}
