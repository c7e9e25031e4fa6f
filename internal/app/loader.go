package app

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vk/buildgrid/internal/config"
	hclconfig "github.com/vk/buildgrid/internal/hcl"
	"github.com/vk/buildgrid/internal/yamlconfig"
)

// LoaderFor picks the descriptor loader by file extension.
func LoaderFor(path string) (config.Loader, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".hcl":
		return hclconfig.NewLoader(), nil
	case ".yaml", ".yml":
		return yamlconfig.NewLoader(), nil
	default:
		return nil, fmt.Errorf("unsupported descriptor format %q: expected .hcl, .yaml or .yml", ext)
	}
}
