package integrationtests

import (
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/buildgrid/internal/app"
	"github.com/vk/buildgrid/internal/config"
	"github.com/vk/buildgrid/internal/lockfile"
	"github.com/vk/buildgrid/internal/orchestrator"
	"github.com/vk/buildgrid/internal/resolver/maven"
	"github.com/vk/buildgrid/internal/testutil"
)

const cettyHCL = `
project {
  group   = "com.cc.cetty"
  name    = "cetty"
  version = "1.0-SNAPSHOT"
  plugins = ["java", "application"]
}

locals {
  lombok = "org.projectlombok:lombok:1.18.28"
}

repository "local" {
  url = env("BUILDGRID_TEST_REPO")
}

compatibility {
  source = "11"
  target = "11"
}

platform "compile" {
  coordinate = "org.apache.groovy:groovy-bom:4.0.5"
}
platform "compile" {
  coordinate = "org.spockframework:spock-bom:2.3-groovy-4.0"
}

dependency "compile" {
  coordinate = "org.apache.groovy:groovy"
}
dependency "test-compile" {
  coordinate = "org.spockframework:spock-core"
}
dependency "test-compile" {
  coordinate = "junit:junit:4.13.2"
}
dependency "compile" {
  coordinate = "org.apache.commons:commons-lang3:3.12.0"
}
dependency "compile" {
  coordinate = local.lombok
}
dependency "annotation-processor" {
  coordinate = local.lombok
}
dependency "test-compile" {
  coordinate = local.lombok
}
dependency "test-annotation-processor" {
  coordinate = local.lombok
}
dependency "runtime" {
  coordinate = "org.slf4j:slf4j-simple:2.0.7"
}

processor "lombok" {
  coordinate = local.lombok
}
processor "lombok-test" {
  coordinate = local.lombok
  scope      = "test-annotation-processor"
}

test {
  logging {
    events                = ["passed", "failed"]
    show_standard_streams = true
  }
}

application {
  main_class = "com.cc.cetty.Main"
}
`

const cettyYAML = `
project:
  group: com.cc.cetty
  name: cetty
  version: 1.0-SNAPSHOT
  plugins: [java, application]

locals:
  repo: ${env("BUILDGRID_TEST_REPO")}
  lombok: org.projectlombok:lombok:1.18.28

repositories:
  - name: local
    url: ${local.repo}

compatibility:
  source: "11"
  target: "11"

platforms:
  - scope: compile
    coordinate: org.apache.groovy:groovy-bom:4.0.5
  - scope: compile
    coordinate: org.spockframework:spock-bom:2.3-groovy-4.0

dependencies:
  - scope: compile
    coordinate: org.apache.groovy:groovy
  - scope: test-compile
    coordinate: org.spockframework:spock-core
  - scope: test-compile
    coordinate: junit:junit:4.13.2
  - scope: compile
    coordinate: org.apache.commons:commons-lang3:3.12.0
  - scope: compile
    coordinate: ${local.lombok}
  - scope: annotation-processor
    coordinate: ${local.lombok}
  - scope: test-compile
    coordinate: ${local.lombok}
  - scope: test-annotation-processor
    coordinate: ${local.lombok}
  - scope: runtime
    coordinate: org.slf4j:slf4j-simple:2.0.7

processors:
  - name: lombok
    coordinate: ${local.lombok}
  - name: lombok-test
    coordinate: ${local.lombok}
    scope: test-annotation-processor

test:
  logging:
    events: [passed, failed]
    show_standard_streams: true

application:
  main_class: com.cc.cetty.Main
`

var universe = []string{
	"org.apache.groovy:groovy:4.0.5",
	"org.apache.commons:commons-lang3:3.12.0",
	"org.projectlombok:lombok:1.18.28",
	"org.spockframework:spock-core:2.3-groovy-4.0",
	"junit:junit:4.13.2",
	"org.slf4j:slf4j-simple:2.0.7",
}

var cettyCases = []orchestrator.TestCase{
	{Class: "com.cc.cetty.ServerSpec", Name: "accepts connections", Outcome: config.EventPassed, Stdout: "listening on 8080"},
	{Class: "com.cc.cetty.ServerSpec", Name: "tls handshake", Outcome: config.EventSkipped},
}

// lockedEntries returns "scope coordinate" for every locked artifact.
func lockedEntries(t *testing.T, path string) []string {
	t.Helper()
	lock, err := lockfile.Read(path)
	require.NoError(t, err)
	var out []string
	for _, a := range lock.Artifacts {
		out = append(out, string(a.Scope)+" "+a.Coordinate.String())
	}
	sort.Strings(out)
	return out
}

func TestBuild_ResolvesFromMavenRepository(t *testing.T) {
	repo := testutil.NewMavenRepo(t, universe...)
	t.Setenv("BUILDGRID_TEST_REPO", repo.URL)

	dir := testutil.WriteProject(t, map[string]string{"build.hcl": cettyHCL})
	comp := &testutil.RecordingCompiler{}
	runner := &testutil.StaticRunner{Cases: cettyCases}

	result := testutil.RunBuild(t, dir, "build.hcl", app.Config{WriteLock: true},
		app.WithCompiler(comp), app.WithTestRunner(runner))
	require.NoError(t, result.Err, result.Output)

	assert.Contains(t, result.Output, "BUILD SUCCEEDED  com.cc.cetty:cetty:1.0-SNAPSHOT")
	assert.Contains(t, result.Output, "Dependencies: 9 artifact(s) resolved")
	assert.Contains(t, result.Output, "com.cc.cetty.ServerSpec.accepts connections")
	assert.Contains(t, result.Output, "stdout | listening on 8080")
	assert.NotContains(t, result.Output, "tls handshake")
	assert.Contains(t, result.Output, "Tests: 2 total, 1 passed, 1 skipped, 0 failed")
	assert.Contains(t, result.Output, "Application: com.cc.cetty.Main")
	assert.Equal(t, 6, repo.Downloads(), "each library is downloaded once across scopes")

	require.Len(t, comp.Requests, 1)
	req := comp.Requests[0]
	lombokJar := filepath.Join(dir, ".cache", filepath.FromSlash(maven.ArtifactPath(config.Coordinate{
		Group: "org.projectlombok", Artifact: "lombok", Version: "1.18.28",
	})))
	assert.Equal(t, []string{lombokJar}, req.ProcessorPath)
	assert.Equal(t, []string{lombokJar}, req.TestProcessorPath)
	assert.Len(t, req.Classpath, 3)

	require.Len(t, runner.Requests, 1)
	assert.True(t, runner.Requests[0].ShowStandardStreams)
	assert.Equal(t, config.DefaultTestPlatform, runner.Requests[0].Platform)

	assert.Len(t, lockedEntries(t, filepath.Join(dir, lockfile.DefaultName)), 9)
}

func TestBuild_OfflineReplaysLockWithoutNetwork(t *testing.T) {
	repo := testutil.NewMavenRepo(t, universe...)
	t.Setenv("BUILDGRID_TEST_REPO", repo.URL)
	dir := testutil.WriteProject(t, map[string]string{"build.hcl": cettyHCL})

	first := testutil.RunBuild(t, dir, "build.hcl", app.Config{WriteLock: true},
		app.WithCompiler(&testutil.RecordingCompiler{}), app.WithTestRunner(&testutil.StaticRunner{Cases: cettyCases}))
	require.NoError(t, first.Err, first.Output)
	downloads := repo.Downloads()

	second := testutil.RunBuild(t, dir, "build.hcl", app.Config{Offline: true},
		app.WithCompiler(&testutil.RecordingCompiler{}), app.WithTestRunner(&testutil.StaticRunner{Cases: cettyCases}))
	require.NoError(t, second.Err, second.Output)
	assert.Contains(t, second.Output, "Dependencies: 9 artifact(s) resolved")
	assert.Contains(t, second.LogOutput, "Replaying lock file.")
	assert.Equal(t, downloads, repo.Downloads())
}

func TestBuild_HCLAndYAMLResolveTheSameGraph(t *testing.T) {
	repo := testutil.NewMavenRepo(t, universe...)
	t.Setenv("BUILDGRID_TEST_REPO", repo.URL)

	graphs := map[string][]string{}
	for name, src := range map[string]string{"build.hcl": cettyHCL, "build.yaml": cettyYAML} {
		dir := testutil.WriteProject(t, map[string]string{name: src})
		result := testutil.RunBuild(t, dir, name, app.Config{WriteLock: true},
			app.WithCompiler(&testutil.RecordingCompiler{}), app.WithTestRunner(&testutil.StaticRunner{Cases: cettyCases}))
		require.NoError(t, result.Err, "%s:\n%s", name, result.Output)
		graphs[name] = lockedEntries(t, filepath.Join(dir, lockfile.DefaultName))
	}

	if diff := cmp.Diff(graphs["build.hcl"], graphs["build.yaml"]); diff != "" {
		t.Errorf("graphs differ (-hcl +yaml):\n%s", diff)
	}
}

func TestBuild_MissingArtifactStopsBeforeCompile(t *testing.T) {
	repo := testutil.NewMavenRepo(t, universe[1:]...)
	t.Setenv("BUILDGRID_TEST_REPO", repo.URL)
	dir := testutil.WriteProject(t, map[string]string{"build.hcl": cettyHCL})
	comp := &testutil.RecordingCompiler{}

	result := testutil.RunBuild(t, dir, "build.hcl", app.Config{WriteLock: true},
		app.WithCompiler(comp), app.WithTestRunner(&testutil.StaticRunner{}))

	require.ErrorIs(t, result.Err, app.ErrBuildFailed)
	require.ErrorIs(t, result.Err, orchestrator.ErrResolution)
	require.ErrorIs(t, result.Err, maven.ErrNotFound)
	assert.Contains(t, result.Output, "FAILURE in resolve phase")
	assert.Contains(t, result.Output, "org.apache.groovy:groovy:4.0.5 (compile)")
	assert.Empty(t, comp.Requests)
	assert.NoFileExists(t, filepath.Join(dir, lockfile.DefaultName))
}

func TestBuild_ChecksumMismatchUnlessDisabled(t *testing.T) {
	repo := testutil.NewMavenRepo(t, universe...)
	repo.CorruptChecksum(t, "junit:junit:4.13.2")
	t.Setenv("BUILDGRID_TEST_REPO", repo.URL)

	dir := testutil.WriteProject(t, map[string]string{"build.hcl": cettyHCL})
	failed := testutil.RunBuild(t, dir, "build.hcl", app.Config{},
		app.WithCompiler(&testutil.RecordingCompiler{}), app.WithTestRunner(&testutil.StaticRunner{Cases: cettyCases}))
	require.ErrorIs(t, failed.Err, maven.ErrChecksum)
	assert.Contains(t, failed.Output, "FAILURE in resolve phase")

	result := testutil.RunBuild(t, dir, "build.hcl", app.Config{SkipChecksums: true},
		app.WithCompiler(&testutil.RecordingCompiler{}), app.WithTestRunner(&testutil.StaticRunner{Cases: cettyCases}))
	require.NoError(t, result.Err, result.Output)
	assert.Contains(t, result.LogOutput, "Checksum verification of downloads is disabled.")
}
