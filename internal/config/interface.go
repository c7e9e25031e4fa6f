package config

import (
	"context"
)

// Loader is the interface for a format-specific descriptor loader.
type Loader interface {
	// Load reads the descriptor at path, translates it into the format-agnostic
	// model and finalizes it. Structural problems are reported as errors
	// wrapping ErrMalformedConfig.
	Load(ctx context.Context, path string) (*ProjectDescriptor, error)
}
