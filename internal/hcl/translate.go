// This file contains the logic for translating decoded HCL blocks into the
// format-agnostic descriptor model defined in the config package.

package hcl

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/vk/buildgrid/internal/config"
)

// position converts a block's definition range into a model position.
func position(block *hcl.Block) config.Position {
	return config.Position{File: block.DefRange.Filename, Line: block.DefRange.Start.Line}
}

// errorAt builds a single error diagnostic pointing at the block header.
func errorAt(block *hcl.Block, summary string, err error) hcl.Diagnostics {
	return hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  summary,
		Detail:   err.Error(),
		Subject:  block.DefRange.Ptr(),
	}}
}

func (l *Loader) translateProject(block *hcl.Block, evalCtx *hcl.EvalContext, d *config.ProjectDescriptor) hcl.Diagnostics {
	var p projectBlock
	if diags := gohcl.DecodeBody(block.Body, evalCtx, &p); diags.HasErrors() {
		return diags
	}
	d.Group = p.Group
	d.Name = p.Name
	d.Version = p.Version
	d.Plugins = p.Plugins
	return nil
}

func (l *Loader) translateCompatibility(block *hcl.Block, evalCtx *hcl.EvalContext, d *config.ProjectDescriptor) hcl.Diagnostics {
	var c compatibilityBlock
	if diags := gohcl.DecodeBody(block.Body, evalCtx, &c); diags.HasErrors() {
		return diags
	}
	source, err := config.ParsePlatformVersion(c.Source)
	if err != nil {
		return errorAt(block, "Invalid source compatibility", err)
	}
	target, err := config.ParsePlatformVersion(c.Target)
	if err != nil {
		return errorAt(block, "Invalid target compatibility", err)
	}
	d.Compatibility = config.CompatibilitySpec{Source: source, Target: target}
	return nil
}

func (l *Loader) translateRepository(block *hcl.Block, evalCtx *hcl.EvalContext, d *config.ProjectDescriptor) hcl.Diagnostics {
	var r repositoryBlock
	if diags := gohcl.DecodeBody(block.Body, evalCtx, &r); diags.HasErrors() {
		return diags
	}
	d.Repositories = append(d.Repositories, config.Repository{Name: block.Labels[0], URL: r.URL})
	return nil
}

func (l *Loader) translatePlatform(block *hcl.Block, evalCtx *hcl.EvalContext, d *config.ProjectDescriptor) hcl.Diagnostics {
	var p platformBlock
	if diags := gohcl.DecodeBody(block.Body, evalCtx, &p); diags.HasErrors() {
		return diags
	}
	scope, err := config.ParseScope(block.Labels[0])
	if err != nil {
		return errorAt(block, "Invalid platform scope", err)
	}
	coord, err := config.ParseCoordinate(p.Coordinate)
	if err != nil {
		return errorAt(block, "Invalid platform coordinate", err)
	}
	d.Platforms = append(d.Platforms, config.PlatformDeclaration{
		Coordinate: coord,
		Scope:      scope,
		Artifacts:  p.Artifacts,
		Position:   position(block),
	})
	return nil
}

func (l *Loader) translateDependency(block *hcl.Block, evalCtx *hcl.EvalContext, d *config.ProjectDescriptor) hcl.Diagnostics {
	var dep dependencyBlock
	if diags := gohcl.DecodeBody(block.Body, evalCtx, &dep); diags.HasErrors() {
		return diags
	}
	scope, err := config.ParseScope(block.Labels[0])
	if err != nil {
		return errorAt(block, "Invalid dependency scope", err)
	}
	coord, err := config.ParseCoordinate(dep.Coordinate)
	if err != nil {
		return errorAt(block, "Invalid dependency coordinate", err)
	}
	d.Dependencies = append(d.Dependencies, config.DependencyDeclaration{
		Coordinate: coord,
		Scope:      scope,
		Override:   dep.Override,
		Position:   position(block),
	})
	return nil
}

func (l *Loader) translateProcessor(block *hcl.Block, evalCtx *hcl.EvalContext, d *config.ProjectDescriptor) hcl.Diagnostics {
	var p processorBlock
	if diags := gohcl.DecodeBody(block.Body, evalCtx, &p); diags.HasErrors() {
		return diags
	}
	coord, err := config.ParseCoordinate(p.Coordinate)
	if err != nil {
		return errorAt(block, "Invalid processor coordinate", err)
	}
	var scope config.Scope
	if p.Scope != "" {
		if scope, err = config.ParseScope(p.Scope); err != nil {
			return errorAt(block, "Invalid processor scope", err)
		}
	}
	d.Processors = append(d.Processors, config.ProcessorDeclaration{
		Name:       block.Labels[0],
		Coordinate: coord,
		Scope:      scope,
		Position:   position(block),
	})
	return nil
}

func (l *Loader) translateTest(block *hcl.Block, evalCtx *hcl.EvalContext, d *config.ProjectDescriptor) hcl.Diagnostics {
	var t testBlock
	if diags := gohcl.DecodeBody(block.Body, evalCtx, &t); diags.HasErrors() {
		return diags
	}
	d.Test.Platform = t.Platform
	if t.Logging != nil {
		d.Test.Logging = true
		d.Test.ShowStandardStreams = t.Logging.ShowStandardStreams
		// Unknown kinds are kept so Validate can report them.
		for _, e := range t.Logging.Events {
			d.Test.Events = append(d.Test.Events, config.EventKind(e))
		}
	}
	return nil
}

func (l *Loader) translateApplication(block *hcl.Block, evalCtx *hcl.EvalContext, d *config.ProjectDescriptor) hcl.Diagnostics {
	var a applicationBlock
	if diags := gohcl.DecodeBody(block.Body, evalCtx, &a); diags.HasErrors() {
		return diags
	}
	if a.MainClass == "" {
		return errorAt(block, "Invalid application block", fmt.Errorf("main_class must not be empty"))
	}
	d.Application = &config.Application{MainClass: a.MainClass}
	return nil
}
