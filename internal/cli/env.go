package cli

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// envPrefix namespaces the environment variables that provide flag defaults.
const envPrefix = "BUILDGRID_"

// envString retrieves BUILDGRID_<key> or returns fallback when unset.
func envString(key, fallback string) string {
	if value, ok := os.LookupEnv(envPrefix + key); ok {
		return value
	}
	return fallback
}

// envInt retrieves BUILDGRID_<key> as integer or returns fallback.
func envInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(envPrefix + key); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			slog.Warn("Ignoring invalid environment value.", "variable", envPrefix+key, "error", err)
			return fallback
		}
		return parsed
	}
	return fallback
}

// envBool retrieves BUILDGRID_<key> as bool or returns fallback.
func envBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(envPrefix + key); ok {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			slog.Warn("Ignoring invalid environment value.", "variable", envPrefix+key, "error", err)
			return fallback
		}
		return parsed
	}
	return fallback
}

// envDuration retrieves BUILDGRID_<key> as a duration or returns fallback.
func envDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(envPrefix + key); ok {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			slog.Warn("Ignoring invalid environment value.", "variable", envPrefix+key, "error", err)
			return fallback
		}
		return parsed
	}
	return fallback
}
