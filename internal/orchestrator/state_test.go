package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMachine_Transitions(t *testing.T) {
	testCases := []struct {
		name    string
		path    []State
		wantErr bool
	}{
		{name: "happy path", path: []State{StateResolving, StateCompiling, StateTesting, StateSucceeded}},
		{name: "fail while compiling", path: []State{StateResolving, StateCompiling, StateFailed}},
		{name: "fail before any phase", path: []State{StateFailed}},
		{name: "skip compile", path: []State{StateResolving, StateTesting}, wantErr: true},
		{name: "leave terminal state", path: []State{StateResolving, StateFailed, StateResolving}, wantErr: true},
		{name: "succeed without tests", path: []State{StateResolving, StateCompiling, StateSucceeded}, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := newMachine()
			var err error
			for _, s := range tc.path {
				if _, err = m.transition(s); err != nil {
					break
				}
			}
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.path[len(tc.path)-1], m.state)
			require.True(t, m.state.IsTerminal() || m.state.phase() != "")
		})
	}
}
