package testutil

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/vk/buildgrid/internal/orchestrator"
)

// RecordingCompiler creates the class directories and records every request.
type RecordingCompiler struct {
	mu       sync.Mutex
	Requests []orchestrator.CompileRequest
	Err      error
}

// Compile implements orchestrator.Compiler.
func (c *RecordingCompiler) Compile(_ context.Context, req orchestrator.CompileRequest) (*orchestrator.CompileResult, error) {
	c.mu.Lock()
	c.Requests = append(c.Requests, req)
	c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}

	res := &orchestrator.CompileResult{
		ClassesDir:     filepath.Join(req.Workspace, "build", "classes", "java", "main"),
		TestClassesDir: filepath.Join(req.Workspace, "build", "classes", "java", "test"),
	}
	for _, dir := range []string{res.ClassesDir, res.TestClassesDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// StaticRunner returns the same cases for every run.
type StaticRunner struct {
	mu       sync.Mutex
	Cases    []orchestrator.TestCase
	Requests []orchestrator.TestRequest
}

// Run implements orchestrator.TestRunner.
func (r *StaticRunner) Run(_ context.Context, req orchestrator.TestRequest) (*orchestrator.TestReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Requests = append(r.Requests, req)
	return &orchestrator.TestReport{Cases: append([]orchestrator.TestCase(nil), r.Cases...)}, nil
}
