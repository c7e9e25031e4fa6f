package orchestrator

import (
	"sort"
	"time"

	"github.com/vk/buildgrid/internal/config"
)

// Phase names a step of the build, including the steps before the
// state machine starts.
type Phase string

const (
	PhaseLoad     Phase = "load"
	PhaseValidate Phase = "validate"
	PhaseResolve  Phase = "resolve"
	PhaseCompile  Phase = "compile"
	PhaseTest     Phase = "test"
)

// Request asks the resolver for one coordinate at one scope.
type Request struct {
	Coordinate   config.Coordinate
	Scope        config.Scope
	Repositories []config.Repository
}

// Artifact is a resolved library file.
type Artifact struct {
	Coordinate config.Coordinate
	Scope      config.Scope
	Path       string
	// Checksum is the hex encoded SHA-1 of the file when the resolver knows it.
	Checksum string
}

func (a Artifact) key() string {
	return string(a.Scope) + "|" + a.Coordinate.String()
}

// ResolvedGraph holds one entry per (coordinate, scope). The same library at
// two scopes is two independent entries.
type ResolvedGraph struct {
	Entries []Artifact
}

// newResolvedGraph removes duplicate entries and sorts the rest by scope in
// resolution order, then by coordinate.
func newResolvedGraph(entries []Artifact) *ResolvedGraph {
	seen := make(map[string]struct{}, len(entries))
	out := make([]Artifact, 0, len(entries))
	for _, a := range entries {
		if _, dup := seen[a.key()]; dup {
			continue
		}
		seen[a.key()] = struct{}{}
		out = append(out, a)
	}

	rank := make(map[config.Scope]int, len(config.ResolutionOrder))
	for i, sc := range config.ResolutionOrder {
		rank[sc] = i
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Scope != out[j].Scope {
			return rank[out[i].Scope] < rank[out[j].Scope]
		}
		return out[i].Coordinate.String() < out[j].Coordinate.String()
	})
	return &ResolvedGraph{Entries: out}
}

// In returns the entries of one scope.
func (g *ResolvedGraph) In(sc config.Scope) []Artifact {
	if g == nil {
		return nil
	}
	var out []Artifact
	for _, a := range g.Entries {
		if a.Scope == sc {
			out = append(out, a)
		}
	}
	return out
}

// Paths returns the file paths of the entries of the given scopes, in graph
// order and without repeats.
func (g *ResolvedGraph) Paths(scopes ...config.Scope) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, sc := range scopes {
		for _, a := range g.In(sc) {
			if _, dup := seen[a.Path]; dup || a.Path == "" {
				continue
			}
			seen[a.Path] = struct{}{}
			out = append(out, a.Path)
		}
	}
	return out
}

// CompileRequest is everything the compiler needs for the main and test
// source sets.
type CompileRequest struct {
	Project       string
	Workspace     string
	Plugins       []string
	Compatibility config.CompatibilitySpec

	Classpath     []string
	ProcessorPath []string

	TestClasspath     []string
	TestProcessorPath []string
}

// CompileResult describes the compiler output.
type CompileResult struct {
	ClassesDir     string
	TestClassesDir string
	GeneratedDir   string
	// Warnings holds compiler diagnostics that did not fail the build.
	Warnings []string
}

// CompiledArtifacts is the output of the compile phase: the compiler result
// plus the classpath the tests run with.
type CompiledArtifacts struct {
	Result           *CompileResult
	RuntimeClasspath []string
}

// TestRequest asks the test runner to execute the compiled test classes.
type TestRequest struct {
	Platform            string
	Workspace           string
	TestClassesDir      string
	Classpath           []string
	Events              []config.EventKind
	ShowStandardStreams bool
}

// TestCase is the outcome of a single test.
type TestCase struct {
	Class    string
	Name     string
	Outcome  config.EventKind
	Duration time.Duration
	Message  string
	Stdout   string
	Stderr   string
}

// ID returns the fully qualified test name.
func (c TestCase) ID() string {
	if c.Class == "" {
		return c.Name
	}
	return c.Class + "." + c.Name
}

// TestReport collects every test case of a run.
type TestReport struct {
	Cases []TestCase
}

// Count returns the number of cases with the given outcome.
func (r *TestReport) Count(k config.EventKind) int {
	if r == nil {
		return 0
	}
	n := 0
	for _, c := range r.Cases {
		if c.Outcome == k {
			n++
		}
	}
	return n
}

// Failures returns the failed cases.
func (r *TestReport) Failures() []TestCase {
	if r == nil {
		return nil
	}
	var out []TestCase
	for _, c := range r.Cases {
		if c.Outcome == config.EventFailed {
			out = append(out, c)
		}
	}
	return out
}
