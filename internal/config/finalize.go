package config

import (
	"context"

	"github.com/vk/buildgrid/internal/ctxlog"
)

// Finalize completes a freshly translated descriptor: it checks the required
// fields, applies defaults and aligns versionless dependencies with their
// platforms. Loaders call it as their last step.
func Finalize(ctx context.Context, d *ProjectDescriptor) error {
	logger := ctxlog.FromContext(ctx)

	if d.Group == "" {
		return Malformed(d.Source, "missing required field \"group\"")
	}
	if d.Version == "" {
		return Malformed(d.Source, "missing required field \"version\"")
	}
	if d.Compatibility.Source == 0 || d.Compatibility.Target == 0 {
		return Malformed(d.Source, "missing required platform compatibility (source and target)")
	}

	for _, dep := range d.Dependencies {
		if !dep.Scope.Valid() {
			return Malformed(d.Source, "dependency %s: unknown scope %q", dep.Coordinate, dep.Scope)
		}
	}
	for i, p := range d.Processors {
		if p.Scope == "" {
			p.Scope = ScopeAnnotationProcessor
		}
		if !p.Scope.IsProcessor() {
			return Malformed(d.Source, "processor %q: scope must be %q or %q, got %q", p.Name, ScopeAnnotationProcessor, ScopeTestAnnotationProcessor, p.Scope)
		}
		if p.Name == "" {
			p.Name = p.Coordinate.Artifact
		}
		d.Processors[i] = p
	}
	for _, p := range d.Platforms {
		if !p.Coordinate.HasVersion() {
			return Malformed(d.Source, "platform %s: a platform must declare a version", p.Coordinate)
		}
	}

	if len(d.Repositories) == 0 {
		logger.Debug("No repository declared, using default.", "repository", DefaultRepository.URL)
		d.Repositories = []Repository{DefaultRepository}
	}
	if len(d.Plugins) == 0 {
		d.Plugins = []string{"java"}
	}
	if d.Test.Platform == "" {
		d.Test.Platform = DefaultTestPlatform
	}

	alignPlatforms(ctx, d)
	return nil
}

// alignPlatforms fills the version of every versionless dependency and
// processor from the first platform that manages it. Anything left without a
// version is reported by Validate.
func alignPlatforms(ctx context.Context, d *ProjectDescriptor) {
	logger := ctxlog.FromContext(ctx)

	for i, dep := range d.Dependencies {
		if dep.Coordinate.HasVersion() {
			continue
		}
		for _, p := range d.Platforms {
			if p.Manages(dep) {
				dep.Coordinate.Version = p.Coordinate.Version
				logger.Debug("Aligned dependency version with platform.", "dependency", dep.Coordinate.String(), "platform", p.Coordinate.String())
				break
			}
		}
		d.Dependencies[i] = dep
	}

	for i, proc := range d.Processors {
		if proc.Coordinate.HasVersion() {
			continue
		}
		// A versionless processor takes the version of its dependency.
		for _, dep := range d.Dependencies {
			if dep.Coordinate.Key() == proc.Coordinate.Key() && dep.Scope == proc.Scope && dep.Coordinate.HasVersion() {
				proc.Coordinate.Version = dep.Coordinate.Version
				break
			}
		}
		d.Processors[i] = proc
	}
}
