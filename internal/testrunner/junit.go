package testrunner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/buildgrid/internal/config"
	"github.com/vk/buildgrid/internal/ctxlog"
	"github.com/vk/buildgrid/internal/orchestrator"
	"github.com/vk/buildgrid/internal/process"
)

// DefaultReportsDir is where the launcher writes its XML reports, relative to
// the workspace.
const DefaultReportsDir = "build/test-results/test"

// Launcher exit codes.
const (
	exitSuccess      = 0
	exitTestsFailed  = 1
	exitNoTestsFound = 2
)

// JUnitConsole is an orchestrator.TestRunner backed by the JUnit Platform
// console launcher (junit-platform-console-standalone).
type JUnitConsole struct {
	// Java is the java executable.
	Java string
	// LauncherJar is the path of the standalone console launcher jar.
	LauncherJar string
	// ReportsDir is relative to the workspace unless absolute.
	ReportsDir string
	// Exec starts the launcher process.
	Exec process.RunFunc
}

// NewJUnitConsole creates a runner using the given java binary and launcher jar.
func NewJUnitConsole(java, launcherJar string) *JUnitConsole {
	if java == "" {
		java = "java"
	}
	return &JUnitConsole{
		Java:        java,
		LauncherJar: launcherJar,
		ReportsDir:  DefaultReportsDir,
		Exec:        process.Run,
	}
}

// Run executes every test found in the test classes directory. Failing tests
// are reported through the returned TestReport; an error is returned only
// when the launcher cannot run or its reports cannot be read.
func (j *JUnitConsole) Run(ctx context.Context, req orchestrator.TestRequest) (*orchestrator.TestReport, error) {
	logger := ctxlog.FromContext(ctx)

	if req.Platform != config.DefaultTestPlatform {
		return nil, &orchestrator.TestError{Err: fmt.Errorf("unsupported test platform %q", req.Platform)}
	}
	if j.LauncherJar == "" {
		return nil, &orchestrator.TestError{Err: fmt.Errorf("no JUnit console launcher configured")}
	}
	if _, err := os.Stat(req.TestClassesDir); err != nil {
		logger.Debug("No test classes, nothing to run.", "dir", req.TestClassesDir)
		return &orchestrator.TestReport{}, nil
	}

	reportsDir := j.ReportsDir
	if !filepath.IsAbs(reportsDir) {
		reportsDir = filepath.Join(req.Workspace, reportsDir)
	}
	// Stale reports from an earlier build must not leak into this one.
	if err := os.RemoveAll(reportsDir); err != nil {
		return nil, &orchestrator.TestError{Err: fmt.Errorf("failed to clean reports directory: %w", err)}
	}
	if err := os.MkdirAll(reportsDir, 0o755); err != nil {
		return nil, &orchestrator.TestError{Err: fmt.Errorf("failed to create reports directory: %w", err)}
	}

	result, err := j.Exec(ctx, process.Spec{
		Dir:  req.Workspace,
		Name: j.Java,
		Args: j.arguments(req, reportsDir),
	})
	if err != nil {
		return nil, &orchestrator.TestError{Err: err}
	}

	switch result.ExitCode {
	case exitSuccess, exitTestsFailed, exitNoTestsFound:
	default:
		return nil, &orchestrator.TestError{Err: fmt.Errorf("console launcher exited with code %d: %s",
			result.ExitCode, strings.TrimSpace(result.Output()))}
	}

	report, err := ParseReportDir(reportsDir)
	if err != nil {
		return nil, &orchestrator.TestError{Err: fmt.Errorf("failed to read test reports: %w", err)}
	}
	if result.ExitCode == exitTestsFailed && len(report.Failures()) == 0 {
		return report, &orchestrator.TestError{Err: fmt.Errorf("console launcher reported failures but the reports contain none")}
	}
	logger.Debug("Test reports parsed.", "cases", len(report.Cases), "exit_code", result.ExitCode)
	return report, nil
}

func (j *JUnitConsole) arguments(req orchestrator.TestRequest, reportsDir string) []string {
	args := []string{
		"-jar", j.LauncherJar,
		"execute",
		"--disable-banner",
		"--details=none",
		"--class-path=" + strings.Join(req.Classpath, string(os.PathListSeparator)),
		"--scan-class-path=" + req.TestClassesDir,
		"--reports-dir=" + reportsDir,
	}
	if req.ShowStandardStreams {
		args = append(args,
			"--config=junit.platform.output.capture.stdout=true",
			"--config=junit.platform.output.capture.stderr=true",
		)
	}
	return args
}
