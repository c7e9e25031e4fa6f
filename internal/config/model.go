package config

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultRepository is used when a descriptor declares no repository.
var DefaultRepository = Repository{Name: "mavenCentral", URL: "https://repo.maven.apache.org/maven2"}

// DefaultTestPlatform is the test-runner platform used when none is selected.
const DefaultTestPlatform = "junit-platform"

// ProjectDescriptor is the unified, format-agnostic representation of a build
// descriptor. It is created once per invocation and treated as read-only.
type ProjectDescriptor struct {
	Group   string
	Name    string
	Version string

	Compatibility CompatibilitySpec
	Dependencies  []DependencyDeclaration
	Processors    []ProcessorDeclaration
	Platforms     []PlatformDeclaration
	Repositories  []Repository
	Plugins       []string
	Application   *Application
	Test          TestConfig

	// Source is the path the descriptor was loaded from.
	Source string
}

// Position points back to the declaration in the descriptor source.
type Position struct {
	File string
	Line int
}

func (p Position) String() string {
	if p.File == "" {
		return ""
	}
	if p.Line == 0 {
		return p.File
	}
	return fmt.Sprintf("%s:%d", p.File, p.Line)
}

// DependencyDeclaration is a single external library visible in one scope.
type DependencyDeclaration struct {
	Coordinate Coordinate
	Scope      Scope
	// Override marks a declaration that intentionally replaces an earlier one
	// with the same identity and scope.
	Override bool
	Position Position
}

// ProcessorDeclaration registers a dependency that generates sources at
// compile time.
type ProcessorDeclaration struct {
	Name       string
	Coordinate Coordinate
	// Scope is annotation-processor for main sources and
	// test-annotation-processor for test sources.
	Scope    Scope
	Position Position
}

// PlatformDeclaration is a bill of materials: it supplies the version for
// versionless dependencies it manages.
type PlatformDeclaration struct {
	Coordinate Coordinate
	Scope      Scope
	// Artifacts restricts the managed artifacts. When empty, every artifact of
	// the platform's group is managed.
	Artifacts []string
	Position  Position
}

// Manages reports whether the platform supplies the version of dep.
func (p PlatformDeclaration) Manages(dep DependencyDeclaration) bool {
	// A main platform also reaches test scopes, a test platform only tests.
	if p.Scope.IsTest() && !dep.Scope.IsTest() {
		return false
	}
	if len(p.Artifacts) > 0 {
		for _, a := range p.Artifacts {
			if a == dep.Coordinate.Artifact || a == dep.Coordinate.Key() {
				return true
			}
		}
		return false
	}
	return p.Coordinate.Group == dep.Coordinate.Group
}

// Repository is a remote artifact repository.
type Repository struct {
	Name string
	URL  string
}

// Application records the entry point of an application project.
type Application struct {
	MainClass string
}

// EventKind is a test event that may be reported.
type EventKind string

const (
	EventPassed  EventKind = "passed"
	EventSkipped EventKind = "skipped"
	EventFailed  EventKind = "failed"
)

// Valid reports whether k belongs to the closed set of event kinds.
func (k EventKind) Valid() bool {
	switch k {
	case EventPassed, EventSkipped, EventFailed:
		return true
	}
	return false
}

// TestConfig holds the test-runner settings.
type TestConfig struct {
	Platform            string
	Events              []EventKind
	ShowStandardStreams bool
	// Logging is set when the descriptor requests test reporting at all.
	Logging bool
}

// Reports reports whether events of kind k are rendered.
func (t TestConfig) Reports(k EventKind) bool {
	for _, e := range t.Events {
		if e == k {
			return true
		}
	}
	return false
}

// PlatformVersion is a target platform release, e.g. 8, 11 or 17.
type PlatformVersion int

// ParsePlatformVersion accepts "11", "1.8", "VERSION_11" and "VERSION_1_8".
func ParsePlatformVersion(s string) (PlatformVersion, error) {
	v := strings.TrimSpace(s)
	v = strings.TrimPrefix(v, "JavaVersion.")
	v = strings.TrimPrefix(v, "VERSION_")
	v = strings.ReplaceAll(v, "_", ".")
	v = strings.TrimPrefix(v, "1.")
	if v == "" {
		return 0, fmt.Errorf("empty platform version")
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid platform version %q", s)
	}
	return PlatformVersion(n), nil
}

func (v PlatformVersion) String() string {
	return strconv.Itoa(int(v))
}

// CompatibilitySpec pairs the source and target platform versions.
type CompatibilitySpec struct {
	Source PlatformVersion
	Target PlatformVersion
}

// Consistent reports whether the source version does not exceed the target.
func (c CompatibilitySpec) Consistent() bool {
	return c.Source <= c.Target
}

// DependenciesIn returns the declarations of scope sc in declaration order.
func (d *ProjectDescriptor) DependenciesIn(sc Scope) []DependencyDeclaration {
	var out []DependencyDeclaration
	for _, dep := range d.Dependencies {
		if dep.Scope == sc {
			out = append(out, dep)
		}
	}
	return out
}

// Effective returns the dependencies of scope sc after applying "last
// declaration wins" per library identity. The order of first appearance is
// preserved. Validate reports every collision that this hides.
func (d *ProjectDescriptor) Effective(sc Scope) []Coordinate {
	index := make(map[string]int)
	var out []Coordinate
	for _, dep := range d.DependenciesIn(sc) {
		key := dep.Coordinate.Key()
		if i, ok := index[key]; ok {
			out[i] = dep.Coordinate
			continue
		}
		index[key] = len(out)
		out = append(out, dep.Coordinate)
	}
	return out
}

// ID renders the project identity, e.g. "com.cc.cetty:cetty:1.0-SNAPSHOT".
func (d *ProjectDescriptor) ID() string {
	if d.Name == "" {
		return d.Group + ":" + d.Version
	}
	return d.Group + ":" + d.Name + ":" + d.Version
}
