package compiler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/vk/buildgrid/internal/config"
	"github.com/vk/buildgrid/internal/ctxlog"
	"github.com/vk/buildgrid/internal/fsutil"
	"github.com/vk/buildgrid/internal/orchestrator"
	"github.com/vk/buildgrid/internal/process"
)

// DefaultBuildDir is the output directory below the workspace.
const DefaultBuildDir = "build"

// diagnosticRegex matches the location prefix of a javac diagnostic, e.g.
// "src/main/java/com/cc/A.java:12: error: ';' expected".
var diagnosticRegex = regexp.MustCompile(`^(.+\.java):(\d+): (error|warning): `)

// Javac is an orchestrator.Compiler backed by the javac executable.
type Javac struct {
	// Binary is the javac executable, looked up in PATH when not absolute.
	Binary string
	// BuildDir is the output directory, relative to the workspace.
	BuildDir string
	// Exec starts the compiler process.
	Exec process.RunFunc
}

// NewJavac creates a driver for the given javac binary.
func NewJavac(binary string) *Javac {
	if binary == "" {
		binary = "javac"
	}
	return &Javac{Binary: binary, BuildDir: DefaultBuildDir, Exec: process.Run}
}

// sourceSet is one javac invocation.
type sourceSet struct {
	name          string
	roots         []string
	classesDir    string
	generatedDir  string
	classpath     []string
	processorPath []string
}

// Compile compiles the main source set, then the test source set against the
// main classes. A set without Java sources is skipped.
func (j *Javac) Compile(ctx context.Context, req orchestrator.CompileRequest) (*orchestrator.CompileResult, error) {
	logger := ctxlog.FromContext(ctx)

	build := filepath.Join(req.Workspace, j.BuildDir)
	res := &orchestrator.CompileResult{
		ClassesDir:     filepath.Join(build, "classes", "java", "main"),
		TestClassesDir: filepath.Join(build, "classes", "java", "test"),
		GeneratedDir:   filepath.Join(build, "generated", "sources", "annotationProcessor", "java", "main"),
	}

	groovy := slices.Contains(req.Plugins, "groovy")
	sets := []sourceSet{
		{
			name:          "main",
			roots:         roots(req.Workspace, "main", groovy),
			classesDir:    res.ClassesDir,
			generatedDir:  res.GeneratedDir,
			classpath:     req.Classpath,
			processorPath: req.ProcessorPath,
		},
		{
			name:          "test",
			roots:         roots(req.Workspace, "test", groovy),
			classesDir:    res.TestClassesDir,
			generatedDir:  filepath.Join(build, "generated", "sources", "annotationProcessor", "java", "test"),
			classpath:     append([]string{res.ClassesDir}, req.TestClasspath...),
			processorPath: req.TestProcessorPath,
		},
	}

	for _, set := range sets {
		sources, err := fsutil.FindInRoots(set.roots, ".java")
		if err != nil {
			return nil, fmt.Errorf("failed to collect %s sources: %w", set.name, err)
		}
		if groovy {
			groovySources, err := fsutil.FindInRoots(set.roots, ".groovy")
			if err != nil {
				return nil, fmt.Errorf("failed to collect %s sources: %w", set.name, err)
			}
			if len(groovySources) > 0 {
				res.Warnings = append(res.Warnings,
					fmt.Sprintf("%d groovy source file(s) in the %s source set are not compiled", len(groovySources), set.name))
			}
		}
		for _, dir := range []string{set.classesDir, set.generatedDir} {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create output directory: %w", err)
			}
		}
		if len(sources) == 0 {
			logger.Debug("No sources, skipping source set.", "set", set.name)
			continue
		}

		logger.Debug("Compiling source set.", "set", set.name, "sources", len(sources))
		warnings, err := j.compileSet(ctx, req, set, sources)
		res.Warnings = append(res.Warnings, warnings...)
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (j *Javac) compileSet(ctx context.Context, req orchestrator.CompileRequest, set sourceSet, sources []string) ([]string, error) {
	result, err := j.Exec(ctx, process.Spec{
		Dir:  req.Workspace,
		Name: j.Binary,
		Args: arguments(req.Compatibility, set, sources),
	})
	if err != nil {
		return nil, &orchestrator.CompileError{Err: err}
	}

	diagnostics, warnings, source := parseDiagnostics(result.Output())
	if result.ExitCode != 0 {
		return warnings, &orchestrator.CompileError{
			Source:      source,
			Diagnostics: diagnostics,
			Err:         fmt.Errorf("javac exited with code %d compiling the %s source set", result.ExitCode, set.name),
		}
	}
	return warnings, nil
}

// arguments builds the javac command line for one source set.
func arguments(compat config.CompatibilitySpec, set sourceSet, sources []string) []string {
	args := []string{
		"-source", compat.Source.String(),
		"-target", compat.Target.String(),
		"-encoding", "UTF-8",
		"-d", set.classesDir,
		"-s", set.generatedDir,
	}
	if len(set.classpath) > 0 {
		args = append(args, "-classpath", strings.Join(set.classpath, string(os.PathListSeparator)))
	}
	if len(set.processorPath) > 0 {
		args = append(args, "-processorpath", strings.Join(set.processorPath, string(os.PathListSeparator)))
	} else {
		// Processors are never discovered on the classpath.
		args = append(args, "-proc:none")
	}
	return append(args, sources...)
}

// parseDiagnostics splits javac output into its non-empty lines, the warning
// lines, and the file named by the first error.
func parseDiagnostics(output string) (diagnostics, warnings []string, source string) {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		diagnostics = append(diagnostics, line)
		m := diagnosticRegex.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if m[3] == "warning" {
			warnings = append(warnings, line)
			continue
		}
		if source == "" {
			if _, err := strconv.Atoi(m[2]); err == nil {
				source = m[1]
			}
		}
	}
	return diagnostics, warnings, source
}

func roots(workspace, set string, groovy bool) []string {
	out := []string{filepath.Join(workspace, "src", set, "java")}
	if groovy {
		out = append(out, filepath.Join(workspace, "src", set, "groovy"))
	}
	return out
}
