// Package process runs the external tools a build delegates to, such as the
// Java compiler and the test launcher.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/vk/buildgrid/internal/ctxlog"
)

// Spec describes one invocation of an external program.
type Spec struct {
	Dir  string
	Name string
	Args []string
	// Env is appended to the inherited environment.
	Env []string
}

// Result holds the captured output of a finished process. A non-zero exit
// code is a Result, not an error.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Output returns stdout followed by stderr.
func (r *Result) Output() string {
	return string(r.Stdout) + string(r.Stderr)
}

// RunFunc runs a process. Drivers take a RunFunc so tests can replace the
// real process with a fake.
type RunFunc func(ctx context.Context, spec Spec) (*Result, error)

// waitDelay bounds how long Run waits for output after killing a cancelled
// process.
const waitDelay = 2 * time.Second

// Run starts spec and waits for it. It returns an error when the program
// cannot be started or ctx ends first.
func Run(ctx context.Context, spec Spec) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Starting process.", "name", spec.Name, "args", len(spec.Args), "dir", spec.Dir)

	cmd := exec.CommandContext(ctx, spec.Name, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.WaitDelay = waitDelay
	if len(spec.Env) > 0 {
		cmd.Env = append(cmd.Environ(), spec.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%s cancelled: %w", spec.Name, ctxErr)
	}

	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("failed to execute %s: %w", spec.Name, err)
		}
		exitCode = exitErr.ExitCode()
	}
	logger.Debug("Process finished.", "name", spec.Name, "exit_code", exitCode, "duration", time.Since(start))

	return &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: exitCode,
	}, nil
}
