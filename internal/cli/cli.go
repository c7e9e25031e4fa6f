package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/vk/buildgrid/internal/app"
	"github.com/vk/buildgrid/internal/report"
)

// Exit codes of the buildgrid binary.
const (
	ExitOK          = 0
	ExitBuildFailed = 1
	ExitUsage       = 2
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(format string, args ...any) *ExitError {
	return &ExitError{Code: ExitUsage, Message: fmt.Sprintf(format, args...)}
}

// defaultDescriptors are looked up in the working directory when no
// descriptor is named.
var defaultDescriptors = []string{"build.hcl", "build.yaml", "build.yml"}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("buildgrid", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
buildgrid - resolve, compile and test a JVM project from a build descriptor.

Usage:
  buildgrid [options] [DESCRIPTOR]

Arguments:
  DESCRIPTOR
    Path to a build.hcl, build.yaml or build.yml file. Defaults to the first
    of those found in the working directory.

Every option can also be set with a BUILDGRID_<NAME> environment variable,
e.g. BUILDGRID_LOG_LEVEL=debug.

Options:
`)
		flagSet.PrintDefaults()
	}

	fileFlag := flagSet.String("f", "", "Path to the build descriptor.")
	workspaceFlag := flagSet.String("workspace", envString("WORKSPACE", ""), "Project directory. Defaults to the descriptor directory.")
	healthPortFlag := flagSet.Int("healthcheck-port", envInt("HEALTHCHECK_PORT", 0), "Port for the HTTP health check and metrics server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", envString("LOG_FORMAT", "text"), "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", envString("LOG_LEVEL", "info"), "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	formatFlag := flagSet.String("format", envString("FORMAT", "text"), "Report format. Options: 'text' or 'json'.")
	colorFlag := flagSet.Bool("color", envBool("COLOR", false), "Colorize the text report.")
	eventsFlag := flagSet.String("events-url", envString("EVENTS_URL", ""), "socket.io endpoint receiving build phase events.")
	lockFlag := flagSet.Bool("lock", envBool("LOCK", false), "Write the resolved graph to the lock file.")
	lockFileFlag := flagSet.String("lock-file", envString("LOCK_FILE", ""), "Lock file path. Defaults to buildgrid.lock.hcl next to the descriptor.")
	offlineFlag := flagSet.Bool("offline", envBool("OFFLINE", false), "Resolve from the lock file only.")
	timeoutFlag := flagSet.Duration("phase-timeout", envDuration("PHASE_TIMEOUT", 0), "Maximum duration of each build phase. 0 is unbounded.")
	validateFlag := flagSet.Bool("validate", envBool("VALIDATE", false), "Only load and validate the descriptor.")
	javacFlag := flagSet.String("javac", envString("JAVAC", "javac"), "javac executable.")
	javaFlag := flagSet.String("java", envString("JAVA", "java"), "java executable used to run the tests.")
	launcherFlag := flagSet.String("junit-launcher", envString("JUNIT_LAUNCHER", ""), "Path to junit-platform-console-standalone.jar.")
	cacheFlag := flagSet.String("cache-dir", envString("CACHE_DIR", ""), "Artifact cache directory. Defaults to the user cache directory.")
	concurrencyFlag := flagSet.Int("concurrency", envInt("CONCURRENCY", 4), "Maximum parallel artifact downloads.")
	httpTimeoutFlag := flagSet.Duration("http-timeout", envDuration("HTTP_TIMEOUT", time.Minute), "Timeout of a single repository request. 0 is unbounded.")
	retriesFlag := flagSet.Int("retries", envInt("RETRIES", 2), "Retries of a failed repository request.")
	noChecksumsFlag := flagSet.Bool("no-checksums", envBool("NO_CHECKSUMS", false), "Accept downloads without verifying their published .sha1.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, usageError("%s", err.Error())
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *fileFlag != "" {
		path = *fileFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	} else {
		path = findDescriptor()
	}
	slog.Debug("Descriptor path determined.", "path", path)

	if path == "" {
		slog.Debug("No descriptor found, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}
	if flagSet.NArg() > 1 {
		return nil, false, usageError("expected at most one descriptor, got %d", flagSet.NArg())
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, usageError("invalid log-format: must be 'text' or 'json'")
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, usageError("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}

	reportFormat, err := report.ParseFormat(*formatFlag)
	if err != nil {
		return nil, false, usageError("invalid format: %v", err)
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		DescriptorPath:  path,
		Workspace:       *workspaceFlag,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
		HealthcheckPort: *healthPortFlag,
		ReportFormat:    reportFormat,
		Color:           *colorFlag,
		EventsURL:       *eventsFlag,
		LockPath:        *lockFileFlag,
		WriteLock:       *lockFlag,
		Offline:         *offlineFlag,
		PhaseTimeout:    *timeoutFlag,
		ValidateOnly:    *validateFlag,
		Javac:           *javacFlag,
		Java:            *javaFlag,
		LauncherJar:     *launcherFlag,
		CacheDir:        *cacheFlag,
		Concurrency:     *concurrencyFlag,
		HTTPTimeout:     *httpTimeoutFlag,
		Retries:         *retriesFlag,
		SkipChecksums:   *noChecksumsFlag,
	})
	if err != nil {
		return nil, false, usageError("%s", err.Error())
	}

	slog.Debug("CLI parser finished successfully.", "descriptor", config.DescriptorPath)
	return config, false, nil
}

func findDescriptor() string {
	for _, name := range defaultDescriptors {
		if info, err := os.Stat(name); err == nil && !info.IsDir() {
			return name
		}
	}
	return ""
}
