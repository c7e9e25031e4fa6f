// Package testutil provides the harness for end-to-end build tests: a
// temporary project tree, a fake Maven repository and recording
// compiler and test runner collaborators.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/buildgrid/internal/app"
)

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	Dir       string
	Output    string
	LogOutput string
	Err       error
}

// WriteProject writes files, keyed by slash separated relative path, into a
// fresh temporary directory and returns it.
func WriteProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

// RunBuild runs the app against descriptor inside dir. Relative paths in cfg
// are resolved against dir.
func RunBuild(t *testing.T, dir, descriptor string, cfg app.Config, opts ...app.Option) *HarnessResult {
	t.Helper()
	return RunBuildWithContext(context.Background(), t, dir, descriptor, cfg, opts...)
}

// RunBuildWithContext is RunBuild with a caller supplied context.
func RunBuildWithContext(ctx context.Context, t *testing.T, dir, descriptor string, cfg app.Config, opts ...app.Option) *HarnessResult {
	t.Helper()

	cfg.DescriptorPath = filepath.Join(dir, descriptor)
	if cfg.CacheDir == "" {
		cfg.CacheDir = filepath.Join(dir, ".cache")
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "debug"
	}
	appConfig, err := app.NewConfig(cfg)
	require.NoError(t, err)

	out, logs := &app.SafeBuffer{}, &app.SafeBuffer{}
	runErr := app.NewApp(out, logs, appConfig, opts...).Run(ctx)

	if os.Getenv("BUILDGRID_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
	}
	return &HarnessResult{
		Dir:       dir,
		Output:    out.String(),
		LogOutput: logs.String(),
		Err:       runErr,
	}
}
