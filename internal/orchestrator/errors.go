package orchestrator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vk/buildgrid/internal/config"
)

var (
	ErrValidation  = errors.New("invalid descriptor")
	ErrResolution  = errors.New("resolution failed")
	ErrCompile     = errors.New("compilation failed")
	ErrTest        = errors.New("test runner failed")
	// ErrTestsFailed means the runner worked and some test cases failed.
	ErrTestsFailed = errors.New("tests failed")
)

// ValidationError carries the violations of error severity that stopped a
// build before its first phase.
type ValidationError struct {
	Violations []config.Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.String()
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(msgs, "; "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ResolutionError names the coordinate that could not be resolved.
type ResolutionError struct {
	Coordinate config.Coordinate
	Scope      config.Scope
	Err        error
}

func (e *ResolutionError) Error() string {
	var b strings.Builder
	b.WriteString(ErrResolution.Error())
	if e.Coordinate != (config.Coordinate{}) {
		fmt.Fprintf(&b, ": %s", e.Coordinate)
	}
	if e.Scope != "" {
		fmt.Fprintf(&b, " (%s)", e.Scope)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ResolutionError) Is(target error) bool { return target == ErrResolution }

func (e *ResolutionError) Unwrap() error { return e.Err }

// CompileError keeps the compiler diagnostics verbatim.
type CompileError struct {
	// Source is the first source file named by the diagnostics, if any.
	Source      string
	Diagnostics []string
	Err         error
}

func (e *CompileError) Error() string {
	var b strings.Builder
	b.WriteString(ErrCompile.Error())
	if e.Source != "" {
		fmt.Fprintf(&b, ": %s", e.Source)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if len(e.Diagnostics) > 0 {
		b.WriteString("\n")
		b.WriteString(strings.Join(e.Diagnostics, "\n"))
	}
	return b.String()
}

func (e *CompileError) Is(target error) bool { return target == ErrCompile }

func (e *CompileError) Unwrap() error { return e.Err }

// TestError is returned when the test runner itself cannot execute.
type TestError struct {
	Err error
}

func (e *TestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", ErrTest, e.Err)
	}
	return ErrTest.Error()
}

func (e *TestError) Is(target error) bool { return target == ErrTest }

func (e *TestError) Unwrap() error { return e.Err }

// TestFailuresError ends a build whose runner reported failing cases.
type TestFailuresError struct {
	// Failed lists the failing test cases by fully qualified name.
	Failed []string
}

func (e *TestFailuresError) Error() string {
	return fmt.Sprintf("%s: %d failing: %s", ErrTestsFailed, len(e.Failed), strings.Join(e.Failed, ", "))
}

func (e *TestFailuresError) Is(target error) bool { return target == ErrTestsFailed }

// PhaseError attaches a failure to the phase it happened in.
type PhaseError struct {
	Phase Phase
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s phase: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error { return e.Err }

// PhaseOf returns the phase a failure is attached to, or "" for errors that
// did not come out of a build.
func PhaseOf(err error) Phase {
	var pe *PhaseError
	if errors.As(err, &pe) {
		return pe.Phase
	}
	return ""
}
