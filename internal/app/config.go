package app

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/vk/buildgrid/internal/lockfile"
	"github.com/vk/buildgrid/internal/report"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	DescriptorPath string // build.hcl, build.yaml or build.yml
	Workspace      string // defaults to the descriptor directory

	LogFormat       string
	LogLevel        string
	HealthcheckPort int

	ReportFormat report.Format
	Color        bool

	// EventsURL is a socket.io endpoint receiving one event per transition.
	EventsURL string

	// LockPath defaults to buildgrid.lock.hcl next to the descriptor.
	LockPath  string
	WriteLock bool
	Offline   bool

	PhaseTimeout time.Duration
	ValidateOnly bool

	Javac         string
	Java          string
	LauncherJar   string
	CacheDir      string
	Concurrency   int
	// HTTPTimeout bounds a single repository request; 0 leaves it unbounded.
	HTTPTimeout   time.Duration
	Retries       int
	// SkipChecksums accepts downloads without comparing them to their .sha1.
	SkipChecksums bool
}

// NewConfig validates cfg and fills in derived defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.DescriptorPath == "" {
		return nil, errors.New("DescriptorPath is a required configuration field and cannot be empty")
	}
	if cfg.Offline && cfg.WriteLock {
		return nil, errors.New("an offline build replays the lock file and cannot rewrite it")
	}
	if cfg.Concurrency < 0 {
		return nil, errors.New("concurrency must not be negative")
	}
	if cfg.Retries < 0 {
		return nil, errors.New("retries must not be negative")
	}
	if cfg.PhaseTimeout < 0 || cfg.HTTPTimeout < 0 {
		return nil, errors.New("timeouts must not be negative")
	}
	if cfg.ReportFormat == "" {
		cfg.ReportFormat = report.FormatText
	}
	if cfg.CacheDir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			base = os.TempDir()
		}
		cfg.CacheDir = filepath.Join(base, "buildgrid", "maven")
	}
	if cfg.LockPath == "" {
		cfg.LockPath = filepath.Join(filepath.Dir(cfg.DescriptorPath), lockfile.DefaultName)
	}
	return &cfg, nil
}
