package report

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/vk/buildgrid/internal/config"
	"github.com/vk/buildgrid/internal/orchestrator"
)

var phaseOrder = []orchestrator.Phase{
	orchestrator.PhaseLoad,
	orchestrator.PhaseValidate,
	orchestrator.PhaseResolve,
	orchestrator.PhaseCompile,
	orchestrator.PhaseTest,
}

// textWriter keeps the first write error so rendering code stays linear.
type textWriter struct {
	w     io.Writer
	color bool
	err   error
}

func (t *textWriter) printf(format string, args ...any) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, format, args...)
}

func (t *textWriter) paint(c color.Color, s string) string {
	if !t.color {
		return s
	}
	return c.Sprint(s)
}

func (t *textWriter) outcome(k config.EventKind) string {
	label := fmt.Sprintf("%-7s", strings.ToUpper(string(k)))
	switch k {
	case config.EventPassed:
		return t.paint(color.FgGreen, label)
	case config.EventSkipped:
		return t.paint(color.FgYellow, label)
	}
	return t.paint(color.FgRed, label)
}

func renderText(w io.Writer, rep *orchestrator.Report, useColor bool) error {
	t := &textWriter{w: w, color: useColor}

	status := t.paint(color.FgGreen, "BUILD SUCCEEDED")
	if !rep.Succeeded() {
		status = t.paint(color.FgRed, "BUILD FAILED")
	}
	if rep.Project != "" {
		t.printf("%s  %s\n", status, rep.Project)
	} else {
		t.printf("%s\n", status)
	}
	t.printf("invocation: %s\n", rep.InvocationID)

	if len(rep.Violations) > 0 {
		t.printf("\nViolations\n")
		for _, v := range rep.Violations {
			line := v.String()
			if v.Severity == config.SeverityWarning {
				line = t.paint(color.FgYellow, line)
			} else {
				line = t.paint(color.FgRed, line)
			}
			t.printf("  %s\n", line)
		}
	}

	if len(rep.Durations) > 0 {
		t.printf("\nPhases\n")
		for _, p := range phaseOrder {
			if d, ok := rep.Durations[p]; ok {
				t.printf("  %-9s %s\n", p, d.Round(time.Millisecond))
			}
		}
	}

	if rep.Graph != nil {
		t.printf("\nDependencies: %d artifact(s) resolved\n", len(rep.Graph.Entries))
	}
	if rep.Compile != nil && rep.Compile.Result != nil {
		t.printf("Classes: %s\n", rep.Compile.Result.ClassesDir)
		for _, warn := range rep.Compile.Result.Warnings {
			t.printf("  %s %s\n", t.paint(color.FgYellow, "warning:"), warn)
		}
	}

	if rep.Test != nil {
		renderTests(t, rep.TestConfig, rep.Test)
	}

	if rep.Application != nil {
		t.printf("\nApplication: %s\n", rep.Application.MainClass)
	}

	if cause := rep.Err(); cause != nil {
		t.printf("\n%s in %s phase\n", t.paint(color.FgRed, "FAILURE"), rep.FailedPhase)
		var pe *orchestrator.PhaseError
		if errors.As(cause, &pe) {
			cause = pe.Err
		}
		for _, line := range strings.Split(cause.Error(), "\n") {
			t.printf("  %s\n", line)
		}
	}
	return t.err
}

func renderTests(t *textWriter, cfg config.TestConfig, r *orchestrator.TestReport) {
	cases := Visible(cfg, r)
	if len(cases) > 0 {
		t.printf("\nTests\n")
	}
	for _, c := range cases {
		t.printf("  %s %s (%s)\n", t.outcome(c.Outcome), c.ID(), c.Duration.Round(time.Millisecond))
		if c.Message != "" && c.Outcome != config.EventPassed {
			t.printf("          %s\n", c.Message)
		}
		if cfg.ShowStandardStreams {
			echo(t, "stdout", c.Stdout)
			echo(t, "stderr", c.Stderr)
		}
	}

	s := Summarize(r)
	t.printf("\nTests: %d total, %d passed, %d skipped, %d failed\n", s.Total, s.Passed, s.Skipped, s.Failed)
}

func echo(t *textWriter, stream, text string) {
	if text == "" {
		return
	}
	for _, line := range strings.Split(text, "\n") {
		t.printf("          %s | %s\n", stream, line)
	}
}
