package config

import "fmt"

// Scope is the build phase in which a dependency is visible.
type Scope string

const (
	ScopeCompile                 Scope = "compile"
	ScopeRuntime                 Scope = "runtime"
	ScopeTestCompile             Scope = "test-compile"
	ScopeAnnotationProcessor     Scope = "annotation-processor"
	ScopeTestAnnotationProcessor Scope = "test-annotation-processor"
)

// ResolutionOrder lists every scope in the order the orchestrator resolves
// them. Processor scopes come first so the processor path is complete before
// compilation starts.
var ResolutionOrder = []Scope{
	ScopeAnnotationProcessor,
	ScopeTestAnnotationProcessor,
	ScopeCompile,
	ScopeRuntime,
	ScopeTestCompile,
}

// ParseScope converts s into a Scope from the closed set.
func ParseScope(s string) (Scope, error) {
	sc := Scope(s)
	if !sc.Valid() {
		return "", fmt.Errorf("unknown scope %q: expected one of %v", s, ResolutionOrder)
	}
	return sc, nil
}

// Valid reports whether sc belongs to the closed set.
func (sc Scope) Valid() bool {
	switch sc {
	case ScopeCompile, ScopeRuntime, ScopeTestCompile, ScopeAnnotationProcessor, ScopeTestAnnotationProcessor:
		return true
	}
	return false
}

// IsProcessor reports whether sc feeds a processor path.
func (sc Scope) IsProcessor() bool {
	return sc == ScopeAnnotationProcessor || sc == ScopeTestAnnotationProcessor
}

// IsTest reports whether sc only applies to test sources.
func (sc Scope) IsTest() bool {
	return sc == ScopeTestCompile || sc == ScopeTestAnnotationProcessor
}
