package config

import (
	"fmt"
	"sort"
	"strings"
)

// ViolationKind classifies a consistency problem found by Validate.
type ViolationKind string

const (
	ViolationDuplicateDependency  ViolationKind = "duplicate-dependency"
	ViolationOverriddenDependency ViolationKind = "overridden-dependency"
	ViolationUnreachableProcessor ViolationKind = "unreachable-processor"
	ViolationUnknownEventKind     ViolationKind = "unknown-event-kind"
	ViolationEmptyEventSet        ViolationKind = "empty-event-set"
	ViolationUnversionedDep       ViolationKind = "unversioned-dependency"
	ViolationIncompatiblePlatform ViolationKind = "incompatible-platform"
)

// Severity tells the orchestrator whether a violation blocks the build.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Violation is a single consistency problem in a descriptor.
type Violation struct {
	Kind     ViolationKind
	Severity Severity
	Message  string
	Position Position
}

func (v Violation) String() string {
	if pos := v.Position.String(); pos != "" {
		return fmt.Sprintf("%s [%s] %s (%s)", v.Severity, v.Kind, v.Message, pos)
	}
	return fmt.Sprintf("%s [%s] %s", v.Severity, v.Kind, v.Message)
}

// Errors returns the violations of error severity.
func Errors(vs []Violation) []Violation {
	var out []Violation
	for _, v := range vs {
		if v.Severity == SeverityError {
			out = append(out, v)
		}
	}
	return out
}

// Validate checks the internal consistency of a loaded descriptor. It never
// fails: every problem is returned as a Violation, in a stable order.
func Validate(d *ProjectDescriptor) []Violation {
	var vs []Violation
	vs = append(vs, validateDuplicates(d)...)
	vs = append(vs, validateProcessors(d)...)
	vs = append(vs, validateTestConfig(d)...)
	vs = append(vs, validateVersions(d)...)
	if !d.Compatibility.Consistent() {
		vs = append(vs, Violation{
			Kind:     ViolationIncompatiblePlatform,
			Severity: SeverityError,
			Message:  fmt.Sprintf("source compatibility %s is newer than target %s", d.Compatibility.Source, d.Compatibility.Target),
		})
	}
	return vs
}

// validateDuplicates reports one violation per (scope, identity) group whose
// declarations disagree on the version.
func validateDuplicates(d *ProjectDescriptor) []Violation {
	type group struct {
		decls    []DependencyDeclaration
		override bool
	}
	groups := make(map[string]*group)
	var order []string
	for _, dep := range d.Dependencies {
		key := string(dep.Scope) + "|" + dep.Coordinate.Key()
		g, ok := groups[key]
		if !ok {
			g = &group{}
			groups[key] = g
			order = append(order, key)
		}
		g.decls = append(g.decls, dep)
		g.override = g.override || dep.Override
	}

	var vs []Violation
	for _, key := range order {
		g := groups[key]
		versions := distinctVersions(g.decls)
		if len(versions) < 2 {
			continue
		}
		first, last := g.decls[0], g.decls[len(g.decls)-1]
		if g.override {
			vs = append(vs, Violation{
				Kind:     ViolationOverriddenDependency,
				Severity: SeverityWarning,
				Message: fmt.Sprintf("%s in scope %s is declared with versions %s; the override keeps %s",
					first.Coordinate.Key(), first.Scope, strings.Join(versions, ", "), last.Coordinate.Version),
				Position: last.Position,
			})
			continue
		}
		vs = append(vs, Violation{
			Kind:     ViolationDuplicateDependency,
			Severity: SeverityError,
			Message: fmt.Sprintf("%s in scope %s is declared with conflicting versions %s; mark the intended declaration with override",
				first.Coordinate.Key(), first.Scope, strings.Join(versions, ", ")),
			Position: last.Position,
		})
	}
	return vs
}

func distinctVersions(decls []DependencyDeclaration) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, dep := range decls {
		if _, ok := seen[dep.Coordinate.Version]; ok {
			continue
		}
		seen[dep.Coordinate.Version] = struct{}{}
		out = append(out, dep.Coordinate.Version)
	}
	return out
}

// validateProcessors reports every processor that will not be on the
// processor path.
func validateProcessors(d *ProjectDescriptor) []Violation {
	var vs []Violation
	for _, p := range d.Processors {
		reachable := []Scope{ScopeCompile, ScopeAnnotationProcessor}
		if p.Scope == ScopeTestAnnotationProcessor {
			reachable = []Scope{ScopeTestCompile, ScopeTestAnnotationProcessor}
		}
		if processorDeclared(d, p, reachable) {
			continue
		}
		vs = append(vs, Violation{
			Kind:     ViolationUnreachableProcessor,
			Severity: SeverityError,
			Message:  fmt.Sprintf("processor %q (%s) is not declared as a dependency in scope %s or %s", p.Name, p.Coordinate, reachable[0], reachable[1]),
			Position: p.Position,
		})
	}
	return vs
}

func processorDeclared(d *ProjectDescriptor, p ProcessorDeclaration, scopes []Scope) bool {
	for _, dep := range d.Dependencies {
		if dep.Coordinate.Key() != p.Coordinate.Key() {
			continue
		}
		if p.Coordinate.HasVersion() && dep.Coordinate.Version != p.Coordinate.Version {
			continue
		}
		for _, sc := range scopes {
			if dep.Scope == sc {
				return true
			}
		}
	}
	return false
}

func validateTestConfig(d *ProjectDescriptor) []Violation {
	var vs []Violation
	var unknown []string
	for _, e := range d.Test.Events {
		if !e.Valid() {
			unknown = append(unknown, string(e))
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		vs = append(vs, Violation{
			Kind:     ViolationUnknownEventKind,
			Severity: SeverityError,
			Message:  fmt.Sprintf("test events %s are not one of passed, skipped, failed", strings.Join(unknown, ", ")),
		})
	}
	if d.Test.Logging && len(d.Test.Events) == 0 {
		vs = append(vs, Violation{
			Kind:     ViolationEmptyEventSet,
			Severity: SeverityError,
			Message:  "test logging is requested but no event kinds are selected",
		})
	}
	return vs
}

func validateVersions(d *ProjectDescriptor) []Violation {
	var vs []Violation
	for _, dep := range d.Dependencies {
		if dep.Coordinate.HasVersion() {
			continue
		}
		vs = append(vs, Violation{
			Kind:     ViolationUnversionedDep,
			Severity: SeverityError,
			Message:  fmt.Sprintf("%s in scope %s has no version and no platform manages it", dep.Coordinate, dep.Scope),
			Position: dep.Position,
		})
	}
	return vs
}
