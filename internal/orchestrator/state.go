package orchestrator

import "fmt"

// State is the lifecycle state of a single build.
type State string

const (
	StateIdle      State = "idle"
	StateResolving State = "resolving"
	StateCompiling State = "compiling"
	StateTesting   State = "testing"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// IsTerminal reports whether no transition leaves s.
func (s State) IsTerminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// phase returns the phase that runs while in s.
func (s State) phase() Phase {
	switch s {
	case StateResolving:
		return PhaseResolve
	case StateCompiling:
		return PhaseCompile
	case StateTesting:
		return PhaseTest
	}
	return ""
}

func isAllowedTransition(from, to State) bool {
	switch from {
	case StateIdle:
		// A descriptor rejected by validation fails without running a phase.
		return to == StateResolving || to == StateFailed
	case StateResolving:
		return to == StateCompiling || to == StateFailed
	case StateCompiling:
		return to == StateTesting || to == StateFailed
	case StateTesting:
		return to == StateSucceeded || to == StateFailed
	default:
		return false
	}
}

// machine tracks the state of one build.
type machine struct {
	state State
}

func newMachine() *machine {
	return &machine{state: StateIdle}
}

// transition moves the machine to `to` and returns the previous state.
func (m *machine) transition(to State) (State, error) {
	from := m.state
	if !isAllowedTransition(from, to) {
		return from, fmt.Errorf("disallowed transition: %s -> %s", from, to)
	}
	m.state = to
	return from, nil
}
