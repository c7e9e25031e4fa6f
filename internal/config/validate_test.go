package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func dep(t *testing.T, scope Scope, coord string) DependencyDeclaration {
	t.Helper()
	c, err := ParseCoordinate(coord)
	require.NoError(t, err)
	return DependencyDeclaration{Coordinate: c, Scope: scope}
}

func baseDescriptor() *ProjectDescriptor {
	return &ProjectDescriptor{
		Group:         "com.example",
		Name:          "demo",
		Version:       "1.0",
		Compatibility: CompatibilitySpec{Source: 11, Target: 11},
		Test: TestConfig{
			Platform: DefaultTestPlatform,
			Events:   []EventKind{EventPassed, EventSkipped, EventFailed},
			Logging:  true,
		},
	}
}

func kinds(vs []Violation) []ViolationKind {
	out := make([]ViolationKind, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Kind)
	}
	return out
}

func TestValidate_ConsistentDescriptorHasNoViolations(t *testing.T) {
	d := baseDescriptor()
	d.Dependencies = []DependencyDeclaration{
		dep(t, ScopeCompile, "org.apache.commons:commons-lang3:3.12.0"),
		dep(t, ScopeCompile, "org.projectlombok:lombok:1.18.28"),
		dep(t, ScopeAnnotationProcessor, "org.projectlombok:lombok:1.18.28"),
		dep(t, ScopeTestCompile, "junit:junit:4.13.2"),
	}
	d.Processors = []ProcessorDeclaration{{
		Name:       "lombok",
		Coordinate: Coordinate{Group: "org.projectlombok", Artifact: "lombok", Version: "1.18.28"},
		Scope:      ScopeAnnotationProcessor,
	}}

	require.Empty(t, Validate(d))
}

func TestValidate_DuplicateGroupsReportOneViolationEach(t *testing.T) {
	d := baseDescriptor()
	d.Dependencies = []DependencyDeclaration{
		dep(t, ScopeCompile, "lib:core:1.0"),
		dep(t, ScopeCompile, "lib:core:1.1"),
		dep(t, ScopeCompile, "lib:core:1.2"),
		dep(t, ScopeRuntime, "lib:util:1.0"),
		dep(t, ScopeRuntime, "lib:util:2.0"),
		// Same version twice is not a conflict.
		dep(t, ScopeCompile, "lib:same:1.0"),
		dep(t, ScopeCompile, "lib:same:1.0"),
	}

	vs := Validate(d)
	require.Equal(t, []ViolationKind{ViolationDuplicateDependency, ViolationDuplicateDependency}, kinds(vs))
	require.Contains(t, vs[0].Message, "lib:core")
	require.Contains(t, vs[0].Message, "1.0, 1.1, 1.2")
	require.Contains(t, vs[1].Message, "lib:util")
}

func TestValidate_SameLibraryInDifferentScopesIsNotDuplicate(t *testing.T) {
	d := baseDescriptor()
	d.Dependencies = []DependencyDeclaration{
		dep(t, ScopeCompile, "lib:core:1.0"),
		dep(t, ScopeTestCompile, "lib:core:2.0"),
	}

	require.Empty(t, Validate(d))
}

func TestValidate_OverrideMarkerDowngradesToWarning(t *testing.T) {
	d := baseDescriptor()
	second := dep(t, ScopeCompile, "lib:core:2.0")
	second.Override = true
	d.Dependencies = []DependencyDeclaration{dep(t, ScopeCompile, "lib:core:1.0"), second}

	vs := Validate(d)
	require.Len(t, vs, 1)
	require.Equal(t, ViolationOverriddenDependency, vs[0].Kind)
	require.Equal(t, SeverityWarning, vs[0].Severity)
	require.Empty(t, Errors(vs))
	require.Equal(t, []Coordinate{{Group: "lib", Artifact: "core", Version: "2.0"}}, d.Effective(ScopeCompile))
}

func TestValidate_UnreachableProcessor(t *testing.T) {
	d := baseDescriptor()
	d.Processors = []ProcessorDeclaration{{
		Name:       "proc",
		Coordinate: Coordinate{Group: "codegen", Artifact: "proc", Version: "1.0"},
		Scope:      ScopeAnnotationProcessor,
	}}

	vs := Validate(d)
	require.Len(t, vs, 1)
	require.Equal(t, ViolationUnreachableProcessor, vs[0].Kind)
	require.Contains(t, vs[0].Message, "codegen:proc:1.0")
}

func TestValidate_ProcessorReachability(t *testing.T) {
	testCases := []struct {
		name      string
		procScope Scope
		depScope  Scope
		depCoord  string
		wantKinds []ViolationKind
	}{
		{name: "compile scope", procScope: ScopeAnnotationProcessor, depScope: ScopeCompile, depCoord: "codegen:proc:1.0"},
		{name: "processor scope", procScope: ScopeAnnotationProcessor, depScope: ScopeAnnotationProcessor, depCoord: "codegen:proc:1.0"},
		{name: "runtime scope is not enough", procScope: ScopeAnnotationProcessor, depScope: ScopeRuntime, depCoord: "codegen:proc:1.0",
			wantKinds: []ViolationKind{ViolationUnreachableProcessor}},
		{name: "different version", procScope: ScopeAnnotationProcessor, depScope: ScopeAnnotationProcessor, depCoord: "codegen:proc:2.0",
			wantKinds: []ViolationKind{ViolationUnreachableProcessor}},
		{name: "test processor", procScope: ScopeTestAnnotationProcessor, depScope: ScopeTestAnnotationProcessor, depCoord: "codegen:proc:1.0"},
		{name: "test processor needs test scope", procScope: ScopeTestAnnotationProcessor, depScope: ScopeCompile, depCoord: "codegen:proc:1.0",
			wantKinds: []ViolationKind{ViolationUnreachableProcessor}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := baseDescriptor()
			d.Dependencies = []DependencyDeclaration{dep(t, tc.depScope, tc.depCoord)}
			d.Processors = []ProcessorDeclaration{{
				Name:       "proc",
				Coordinate: Coordinate{Group: "codegen", Artifact: "proc", Version: "1.0"},
				Scope:      tc.procScope,
			}}

			vs := Validate(d)
			if len(tc.wantKinds) == 0 {
				require.Empty(t, vs)
				return
			}
			require.Equal(t, tc.wantKinds, kinds(vs))
		})
	}
}

func TestValidate_TestEvents(t *testing.T) {
	d := baseDescriptor()
	d.Test.Events = []EventKind{EventPassed, "started", "standard_out"}

	vs := Validate(d)
	require.Equal(t, []ViolationKind{ViolationUnknownEventKind}, kinds(vs))
	require.Contains(t, vs[0].Message, "standard_out, started")

	d.Test.Events = nil
	require.Equal(t, []ViolationKind{ViolationEmptyEventSet}, kinds(Validate(d)))

	d.Test.Logging = false
	require.Empty(t, Validate(d))
}

func TestValidate_IncompatiblePlatform(t *testing.T) {
	d := baseDescriptor()
	d.Compatibility = CompatibilitySpec{Source: 17, Target: 11}

	require.Equal(t, []ViolationKind{ViolationIncompatiblePlatform}, kinds(Validate(d)))
}

func TestFinalize_AlignsVersionsWithPlatforms(t *testing.T) {
	d := baseDescriptor()
	d.Platforms = []PlatformDeclaration{
		{Coordinate: Coordinate{Group: "org.apache.groovy", Artifact: "groovy-bom", Version: "4.0.5"}, Scope: ScopeCompile},
		{Coordinate: Coordinate{Group: "org.spockframework", Artifact: "spock-bom", Version: "2.3-groovy-4.0"}, Scope: ScopeTestCompile},
	}
	d.Dependencies = []DependencyDeclaration{
		dep(t, ScopeCompile, "org.apache.groovy:groovy"),
		dep(t, ScopeTestCompile, "org.spockframework:spock-core"),
		dep(t, ScopeCompile, "org.spockframework:spock-junit4"),
	}

	require.NoError(t, Finalize(context.Background(), d))

	require.Equal(t, "4.0.5", d.Dependencies[0].Coordinate.Version)
	require.Equal(t, "2.3-groovy-4.0", d.Dependencies[1].Coordinate.Version)
	// A test platform does not reach main scopes.
	require.Empty(t, d.Dependencies[2].Coordinate.Version)
	require.Equal(t, []ViolationKind{ViolationUnversionedDep}, kinds(Validate(d)))
}

func TestFinalize_RequiredFields(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(d *ProjectDescriptor)
	}{
		{name: "group", mutate: func(d *ProjectDescriptor) { d.Group = "" }},
		{name: "version", mutate: func(d *ProjectDescriptor) { d.Version = "" }},
		{name: "compatibility", mutate: func(d *ProjectDescriptor) { d.Compatibility = CompatibilitySpec{} }},
		{name: "processor scope", mutate: func(d *ProjectDescriptor) {
			d.Processors = []ProcessorDeclaration{{Name: "p", Coordinate: Coordinate{Group: "g", Artifact: "a"}, Scope: ScopeCompile}}
		}},
		{name: "versionless platform", mutate: func(d *ProjectDescriptor) {
			d.Platforms = []PlatformDeclaration{{Coordinate: Coordinate{Group: "g", Artifact: "bom"}, Scope: ScopeCompile}}
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := baseDescriptor()
			tc.mutate(d)
			err := Finalize(context.Background(), d)
			require.ErrorIs(t, err, ErrMalformedConfig)
		})
	}
}

func TestFinalize_Defaults(t *testing.T) {
	d := baseDescriptor()
	d.Test = TestConfig{}
	d.Processors = []ProcessorDeclaration{{Coordinate: Coordinate{Group: "org.projectlombok", Artifact: "lombok"}}}
	d.Dependencies = []DependencyDeclaration{dep(t, ScopeAnnotationProcessor, "org.projectlombok:lombok:1.18.28")}

	require.NoError(t, Finalize(context.Background(), d))

	require.Equal(t, []Repository{DefaultRepository}, d.Repositories)
	require.Equal(t, []string{"java"}, d.Plugins)
	require.Equal(t, DefaultTestPlatform, d.Test.Platform)
	require.Equal(t, ScopeAnnotationProcessor, d.Processors[0].Scope)
	require.Equal(t, "lombok", d.Processors[0].Name)
	require.Equal(t, "1.18.28", d.Processors[0].Coordinate.Version)
}
