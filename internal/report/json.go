package report

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/vk/buildgrid/internal/orchestrator"
)

type jsonReport struct {
	InvocationID string           `json:"invocation_id"`
	Project      string           `json:"project,omitempty"`
	Status       string           `json:"status"`
	FailedPhase  string           `json:"failed_phase,omitempty"`
	Cause        string           `json:"cause,omitempty"`
	Diagnostics  []string         `json:"diagnostics,omitempty"`
	FailingTests []string         `json:"failing_tests,omitempty"`
	Violations   []jsonViolation  `json:"violations,omitempty"`
	DurationsMS  map[string]int64 `json:"durations_ms,omitempty"`
	Artifacts    []jsonArtifact   `json:"artifacts,omitempty"`
	Compile      *jsonCompile     `json:"compile,omitempty"`
	Tests        *jsonTests       `json:"tests,omitempty"`
	MainClass    string           `json:"main_class,omitempty"`
}

type jsonViolation struct {
	Kind     string `json:"kind"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Position string `json:"position,omitempty"`
}

type jsonArtifact struct {
	Coordinate string `json:"coordinate"`
	Scope      string `json:"scope"`
	Path       string `json:"path,omitempty"`
	Checksum   string `json:"sha1,omitempty"`
}

type jsonCompile struct {
	ClassesDir     string   `json:"classes_dir"`
	TestClassesDir string   `json:"test_classes_dir,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
}

type jsonTests struct {
	Summary Summary    `json:"summary"`
	Cases   []jsonCase `json:"cases"`
}

type jsonCase struct {
	ID         string `json:"id"`
	Outcome    string `json:"outcome"`
	DurationMS int64  `json:"duration_ms"`
	Message    string `json:"message,omitempty"`
	Stdout     string `json:"stdout,omitempty"`
	Stderr     string `json:"stderr,omitempty"`
}

func renderJSON(w io.Writer, rep *orchestrator.Report) error {
	out := jsonReport{
		InvocationID: rep.InvocationID,
		Project:      rep.Project,
		Status:       string(rep.Status),
		FailedPhase:  string(rep.FailedPhase),
	}
	if rep.Application != nil {
		out.MainClass = rep.Application.MainClass
	}
	if cause := rep.Err(); cause != nil {
		out.Cause = cause.Error()
		var ce *orchestrator.CompileError
		if errors.As(cause, &ce) {
			out.Diagnostics = ce.Diagnostics
		}
		var fe *orchestrator.TestFailuresError
		if errors.As(cause, &fe) {
			out.FailingTests = fe.Failed
		}
	}
	for _, v := range rep.Violations {
		out.Violations = append(out.Violations, jsonViolation{
			Kind:     string(v.Kind),
			Severity: string(v.Severity),
			Message:  v.Message,
			Position: v.Position.String(),
		})
	}
	if len(rep.Durations) > 0 {
		out.DurationsMS = make(map[string]int64, len(rep.Durations))
		for p, d := range rep.Durations {
			out.DurationsMS[string(p)] = d.Milliseconds()
		}
	}
	if rep.Graph != nil {
		for _, a := range rep.Graph.Entries {
			out.Artifacts = append(out.Artifacts, jsonArtifact{
				Coordinate: a.Coordinate.String(),
				Scope:      string(a.Scope),
				Path:       a.Path,
				Checksum:   a.Checksum,
			})
		}
	}
	if rep.Compile != nil && rep.Compile.Result != nil {
		out.Compile = &jsonCompile{
			ClassesDir:     rep.Compile.Result.ClassesDir,
			TestClassesDir: rep.Compile.Result.TestClassesDir,
			Warnings:       rep.Compile.Result.Warnings,
		}
	}
	if rep.Test != nil {
		tests := &jsonTests{Summary: Summarize(rep.Test), Cases: []jsonCase{}}
		for _, c := range Visible(rep.TestConfig, rep.Test) {
			jc := jsonCase{
				ID:         c.ID(),
				Outcome:    string(c.Outcome),
				DurationMS: c.Duration.Milliseconds(),
				Message:    c.Message,
			}
			if rep.TestConfig.ShowStandardStreams {
				jc.Stdout, jc.Stderr = c.Stdout, c.Stderr
			}
			tests.Cases = append(tests.Cases, jc)
		}
		out.Tests = tests
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
