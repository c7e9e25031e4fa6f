package orchestrator

import (
	"context"
	"time"
)

// Resolver turns coordinates into local artifact files. Implementations must
// honour ctx cancellation.
type Resolver interface {
	Resolve(ctx context.Context, reqs []Request) ([]Artifact, error)
}

// Compiler compiles the main and test source sets.
type Compiler interface {
	Compile(ctx context.Context, req CompileRequest) (*CompileResult, error)
}

// TestRunner executes the compiled tests. Failing test cases are part of the
// returned report; an error means the runner itself could not run.
type TestRunner interface {
	Run(ctx context.Context, req TestRequest) (*TestReport, error)
}

// Event is published on every state transition.
type Event struct {
	InvocationID string
	Project      string
	From         State
	To           State
	// Phase is the phase that ended with this transition. It is empty when
	// leaving Idle.
	Phase    Phase
	Duration time.Duration
	Err      error
	Time     time.Time
}

// Observer receives state transitions. Observers are called synchronously and
// must not block.
type Observer interface {
	OnTransition(ctx context.Context, ev Event)
}

// Metrics records build measurements.
type Metrics interface {
	ObservePhase(phase Phase, d time.Duration, err error)
	ObserveBuild(status State)
	ObserveTests(r *TestReport)
}
