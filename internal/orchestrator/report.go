package orchestrator

import (
	"time"

	"github.com/vk/buildgrid/internal/config"
)

// Report is the outcome of one build. Exactly one of Succeeded or Failed is
// the final Status; on failure FailedPhase and Cause say where and why.
type Report struct {
	InvocationID string
	Project      string
	Status       State
	FailedPhase  Phase
	// Cause is a *PhaseError when Status is StateFailed.
	Cause error

	Violations  []config.Violation
	Graph       *ResolvedGraph
	Compile     *CompiledArtifacts
	Test        *TestReport
	Application *config.Application
	Durations   map[Phase]time.Duration

	// TestConfig is the test reporting configuration of the descriptor.
	TestConfig config.TestConfig
}

// Succeeded reports whether the build reached StateSucceeded.
func (r *Report) Succeeded() bool {
	return r.Status == StateSucceeded
}

// Err returns the cause of a failed build, or nil.
func (r *Report) Err() error {
	if r.Status != StateFailed {
		return nil
	}
	return r.Cause
}

// NewFailedReport builds the report of a build that failed before the
// orchestrator could start, e.g. because the descriptor did not load.
func NewFailedReport(invocationID string, phase Phase, err error) *Report {
	return &Report{
		InvocationID: invocationID,
		Status:       StateFailed,
		FailedPhase:  phase,
		Cause:        &PhaseError{Phase: phase, Err: err},
		Durations:    map[Phase]time.Duration{},
	}
}
