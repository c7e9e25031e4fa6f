package app

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/vk/buildgrid/internal/compiler"
	"github.com/vk/buildgrid/internal/config"
	"github.com/vk/buildgrid/internal/events"
	"github.com/vk/buildgrid/internal/metrics"
	"github.com/vk/buildgrid/internal/orchestrator"
	"github.com/vk/buildgrid/internal/report"
	"github.com/vk/buildgrid/internal/testrunner"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config

	loader    config.Loader
	resolver  orchestrator.Resolver
	compiler  orchestrator.Compiler
	runner    orchestrator.TestRunner
	observers []orchestrator.Observer
	metrics   *metrics.Collector
	renderer  *report.Renderer
	newID     func() string

	httpServer *http.Server
	closers    []io.Closer
}

// Option replaces one of the App collaborators, mainly for tests.
type Option func(*App)

// WithLoader overrides the loader chosen by descriptor extension.
func WithLoader(l config.Loader) Option {
	return func(a *App) { a.loader = l }
}

// WithResolver overrides the Maven or lock file resolver.
func WithResolver(r orchestrator.Resolver) Option {
	return func(a *App) { a.resolver = r }
}

// WithCompiler overrides the javac driver.
func WithCompiler(c orchestrator.Compiler) Option {
	return func(a *App) { a.compiler = c }
}

// WithTestRunner overrides the JUnit console driver.
func WithTestRunner(r orchestrator.TestRunner) Option {
	return func(a *App) { a.runner = r }
}

// WithObserver adds transition observers.
func WithObserver(obs ...orchestrator.Observer) Option {
	return func(a *App) { a.observers = append(a.observers, obs...) }
}

// NewApp is the constructor for the main application. Logs go to logW and the
// build report to outW.
func NewApp(outW, logW io.Writer, cfg *Config, opts ...Option) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	a := &App{
		outW:      outW,
		logger:    logger,
		config:    cfg,
		compiler:  compiler.NewJavac(cfg.Javac),
		runner:    testrunner.NewJUnitConsole(cfg.Java, cfg.LauncherJar),
		observers: []orchestrator.Observer{events.NewLogObserver()},
		metrics:   metrics.New(),
		renderer:  report.New(cfg.ReportFormat, cfg.Color),
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(a)
	}
	logger.Debug("App collaborators configured.", "observers", len(a.observers))
	return a
}
