package yamlconfig

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/vk/buildgrid/internal/config"
)

func load(t *testing.T, src string) (*config.ProjectDescriptor, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "build.yaml")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return NewLoader().Load(context.Background(), path)
}

func TestLoader_Cetty(t *testing.T) {
	d, err := NewLoader().Load(context.Background(), filepath.Join("testdata", "cetty.yaml"))
	require.NoError(t, err)

	require.Equal(t, "com.cc.cetty:cetty:1.0-SNAPSHOT", d.ID())
	require.Equal(t, config.CompatibilitySpec{Source: 11, Target: 11}, d.Compatibility)
	require.Equal(t, &config.Application{MainClass: "com.cc.cetty.Main"}, d.Application)

	want := []config.Coordinate{
		{Group: "org.apache.groovy", Artifact: "groovy", Version: "4.0.5"},
		{Group: "org.apache.commons", Artifact: "commons-lang3", Version: "3.12.0"},
		{Group: "org.projectlombok", Artifact: "lombok", Version: "1.18.28"},
	}
	if diff := cmp.Diff(want, d.Effective(config.ScopeCompile)); diff != "" {
		t.Errorf("compile scope mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, "2.3-groovy-4.0", d.Effective(config.ScopeTestCompile)[0].Version)

	require.Len(t, d.Processors, 2)
	require.Equal(t, config.ScopeAnnotationProcessor, d.Processors[0].Scope)
	require.Equal(t, config.ScopeTestAnnotationProcessor, d.Processors[1].Scope)
	require.Equal(t, 48, d.Processors[0].Position.Line)

	require.True(t, d.Test.Logging)
	require.Equal(t, []config.EventKind{config.EventPassed, config.EventSkipped, config.EventFailed}, d.Test.Events)

	require.Empty(t, config.Validate(d))
}

func TestLoader_Malformed(t *testing.T) {
	testCases := []struct {
		name    string
		src     string
		wantMsg string
	}{
		{
			name:    "empty",
			src:     "",
			wantMsg: "descriptor is empty",
		},
		{
			name:    "syntax error",
			src:     "project: [",
			wantMsg: "failed to parse YAML",
		},
		{
			name:    "unknown key",
			src:     "project: {group: g, version: \"1\"}\ntasks: {}\n",
			wantMsg: "field tasks not found",
		},
		{
			name:    "unknown key in dependency entry",
			src:     "project: {group: g, version: \"1\"}\ncompatibility: {source: \"11\", target: \"11\"}\ndependencies:\n  - {scope: compile, coordinate: \"lib:core:1.0\"}\n  - {scope: compile, coordinate: \"lib:core:2.0\", overide: true}\n",
			wantMsg: "line 5: field overide not found in dependency entry",
		},
		{
			name:    "unknown key in platform entry",
			src:     "project: {group: g, version: \"1\"}\ncompatibility: {source: \"11\", target: \"11\"}\nplatforms:\n  - {scope: compile, coordinate: \"g:bom:1\", version: \"2\"}\n",
			wantMsg: "field version not found in platform entry",
		},
		{
			name:    "unknown key in processor entry",
			src:     "project: {group: g, version: \"1\"}\ncompatibility: {source: \"11\", target: \"11\"}\nprocessors:\n  - {name: p, coordinate: \"a:b:1\", path: x}\n",
			wantMsg: "field path not found in processor entry",
		},
		{
			name:    "missing group",
			src:     "project: {version: \"1\"}\ncompatibility: {source: \"11\", target: \"11\"}\n",
			wantMsg: `missing required field "group"`,
		},
		{
			name:    "unknown scope",
			src:     "project: {group: g, version: \"1\"}\ncompatibility: {source: \"11\", target: \"11\"}\ndependencies:\n  - {scope: implementation, coordinate: \"a:b:1\"}\n",
			wantMsg: "dependencies[0].scope",
		},
		{
			name:    "undefined local",
			src:     "project: {group: g, version: \"${local.missing}\"}\ncompatibility: {source: \"11\", target: \"11\"}\n",
			wantMsg: "project.version",
		},
		{
			name:    "local cycle",
			src:     "locals: {a: \"${local.b}\", b: \"${local.a}\"}\nproject: {group: g, version: \"1\"}\ncompatibility: {source: \"11\", target: \"11\"}\n",
			wantMsg: "Unresolvable local values",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := load(t, tc.src)
			require.Error(t, err)
			require.ErrorIs(t, err, config.ErrMalformedConfig)
			require.Contains(t, err.Error(), tc.wantMsg)
		})
	}
}

func TestLoader_NumericScalarsAndEnv(t *testing.T) {
	t.Setenv("BUILDGRID_YAML_VERSION", "2.0.0")

	d, err := load(t, `
project:
  group: g
  version: ${env("BUILDGRID_YAML_VERSION", "0.0.1")}
compatibility:
  source: 1.8
  target: 17
`)
	require.NoError(t, err)
	require.Equal(t, "2.0.0", d.Version)
	require.Equal(t, config.CompatibilitySpec{Source: 8, Target: 17}, d.Compatibility)
	require.Equal(t, []config.Repository{config.DefaultRepository}, d.Repositories)
}

func TestLoader_DuplicateIsReportedNotRejected(t *testing.T) {
	d, err := load(t, `
project: {group: g, version: "1"}
compatibility: {source: "11", target: "11"}
dependencies:
  - {scope: compile, coordinate: "lib:core:1.0"}
  - {scope: compile, coordinate: "lib:core:2.0"}
  - {scope: test-compile, coordinate: "lib:core:2.0"}
`)
	require.NoError(t, err)
	vs := config.Validate(d)
	require.Len(t, vs, 1)
	require.Equal(t, config.ViolationDuplicateDependency, vs[0].Kind)
	require.Equal(t, 6, vs[0].Position.Line)
}
