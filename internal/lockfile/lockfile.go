// Package lockfile records a resolved dependency graph as HCL so that a later
// build can replay it without contacting any repository.
package lockfile

import (
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/vk/buildgrid/internal/config"
	"github.com/vk/buildgrid/internal/fsutil"
	"github.com/vk/buildgrid/internal/orchestrator"
	"github.com/zclconf/go-cty/cty"
)

// DefaultName is the lock file name next to the descriptor.
const DefaultName = "buildgrid.lock.hcl"

// formatVersion is bumped on incompatible changes to the file layout.
const formatVersion = 1

// ErrStale means a locked file is missing or no longer matches its checksum,
// or the lock does not cover the descriptor.
var ErrStale = errors.New("lock file is stale")

// Lock is the content of a lock file.
type Lock struct {
	Project   string
	Artifacts []orchestrator.Artifact
}

type lockFile struct {
	Version   int            `hcl:"version"`
	Project   string         `hcl:"project,optional"`
	Artifacts []lockArtifact `hcl:"artifact,block"`
}

type lockArtifact struct {
	Scope      string `hcl:"scope,label"`
	Coordinate string `hcl:"coordinate,label"`
	Path       string `hcl:"path"`
	Checksum   string `hcl:"sha1,optional"`
}

// Encode renders the graph of project as HCL.
func Encode(project string, g *orchestrator.ResolvedGraph) []byte {
	f := hclwrite.NewEmptyFile()
	body := f.Body()
	body.SetAttributeValue("version", cty.NumberIntVal(formatVersion))
	body.SetAttributeValue("project", cty.StringVal(project))

	if g != nil {
		for _, a := range g.Entries {
			body.AppendNewline()
			block := body.AppendNewBlock("artifact", []string{string(a.Scope), a.Coordinate.String()})
			block.Body().SetAttributeValue("path", cty.StringVal(a.Path))
			if a.Checksum != "" {
				block.Body().SetAttributeValue("sha1", cty.StringVal(a.Checksum))
			}
		}
	}
	return f.Bytes()
}

// Write stores the graph at path, replacing any previous lock file.
func Write(path, project string, g *orchestrator.ResolvedGraph) error {
	if err := fsutil.WriteAtomic(path, Encode(project, g)); err != nil {
		return fmt.Errorf("failed to write lock file %s: %w", path, err)
	}
	return nil
}

// Decode parses a lock file. filename is used in diagnostics.
func Decode(data []byte, filename string) (*Lock, error) {
	file, diags := hclparse.NewParser().ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse lock file: %w", diags)
	}
	var lf lockFile
	if diags := gohcl.DecodeBody(file.Body, nil, &lf); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode lock file: %w", diags)
	}
	if lf.Version != formatVersion {
		return nil, fmt.Errorf("unsupported lock file version %d", lf.Version)
	}

	lock := &Lock{Project: lf.Project}
	for _, la := range lf.Artifacts {
		scope, err := config.ParseScope(la.Scope)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
		coord, err := config.ParseCoordinate(la.Coordinate)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
		if !coord.HasVersion() {
			return nil, fmt.Errorf("%s: locked coordinate %s has no version", filename, coord)
		}
		lock.Artifacts = append(lock.Artifacts, orchestrator.Artifact{
			Coordinate: coord,
			Scope:      scope,
			Path:       la.Path,
			Checksum:   la.Checksum,
		})
	}
	return lock, nil
}

// Read loads the lock file at path.
func Read(path string) (*Lock, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lock file: %w", err)
	}
	return Decode(data, path)
}

// Verify checks that every locked file still exists and matches its
// recorded checksum.
func (l *Lock) Verify() error {
	var errs []error
	for _, a := range l.Artifacts {
		if a.Checksum == "" {
			if _, err := os.Stat(a.Path); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", a.Coordinate, err))
			}
			continue
		}
		sum, err := fsutil.SHA1File(a.Path)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", a.Coordinate, err))
			continue
		}
		if sum != a.Checksum {
			errs = append(errs, fmt.Errorf("%s: checksum %s does not match locked %s", a.Coordinate, sum, a.Checksum))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrStale, errors.Join(errs...))
	}
	return nil
}
