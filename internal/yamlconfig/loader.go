package yamlconfig

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/buildgrid/internal/config"
	"github.com/vk/buildgrid/internal/ctxlog"
	hclconfig "github.com/vk/buildgrid/internal/hcl"
	"gopkg.in/yaml.v3"
)

// Loader is the YAML implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new YAML descriptor loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads a YAML descriptor. Unknown keys, template errors and invalid
// scopes or coordinates are reported as config.ErrMalformedConfig errors.
func (l *Loader) Load(ctx context.Context, path string) (*config.ProjectDescriptor, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("YAML loader started.", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptor %s: %w", path, err)
	}

	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, config.Malformed(path, "descriptor is empty")
		}
		return nil, config.WrapMalformed(path, fmt.Errorf("failed to parse YAML: %w", err))
	}

	evalCtx, err := l.evalContext(doc.Locals, path)
	if err != nil {
		return nil, config.WrapMalformed(path, err)
	}

	t := &translator{evalCtx: evalCtx, path: path}
	d := t.translate(&doc)
	if t.err != nil {
		return nil, config.WrapMalformed(path, t.err)
	}
	d.Source = path

	if err := config.Finalize(ctx, d); err != nil {
		return nil, err
	}

	logger.Debug("YAML loading complete.",
		"project", d.ID(),
		"dependencies", len(d.Dependencies),
		"processors", len(d.Processors),
	)
	return d, nil
}

// evalContext resolves the `locals` mapping. Every value is a string template
// that may reference other locals.
func (l *Loader) evalContext(locals map[string]string, path string) (*hcl.EvalContext, error) {
	names := make([]string, 0, len(locals))
	for name := range locals {
		names = append(names, name)
	}
	sort.Strings(names)

	exprs := make(map[string]hcl.Expression, len(locals))
	for _, name := range names {
		expr, diags := hclconfig.ParseTemplate(locals[name], path)
		if diags.HasErrors() {
			return nil, fmt.Errorf("local %q: %w", name, diags)
		}
		exprs[name] = expr
	}

	values, diags := hclconfig.ResolveLocals(exprs)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to resolve locals: %w", diags)
	}
	return hclconfig.EvalContext(values), nil
}

// translator expands templates while copying the document into the model.
// It keeps the first error and turns every later call into a no-op.
type translator struct {
	evalCtx *hcl.EvalContext
	path    string
	err     error
}

func (t *translator) fail(format string, args ...any) {
	if t.err == nil {
		t.err = fmt.Errorf(format, args...)
	}
}

// str expands a single templated value.
func (t *translator) str(field, s string) string {
	if t.err != nil || s == "" {
		return s
	}
	out, err := hclconfig.ExpandTemplate(t.evalCtx, s, t.path)
	if err != nil {
		t.fail("%s: %w", field, err)
		return ""
	}
	return out
}

func (t *translator) strs(field string, in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = t.str(field, s)
	}
	return out
}

func (t *translator) scope(field, s string) config.Scope {
	sc, err := config.ParseScope(t.str(field, s))
	if err != nil {
		t.fail("%s: %w", field, err)
	}
	return sc
}

func (t *translator) coordinate(field, s string) config.Coordinate {
	c, err := config.ParseCoordinate(t.str(field, s))
	if err != nil {
		t.fail("%s: %w", field, err)
	}
	return c
}

func (t *translator) position(line int) config.Position {
	return config.Position{File: t.path, Line: line}
}

func (t *translator) translate(doc *document) *config.ProjectDescriptor {
	d := &config.ProjectDescriptor{
		Group:   t.str("project.group", doc.Project.Group),
		Name:    t.str("project.name", doc.Project.Name),
		Version: t.str("project.version", doc.Project.Version),
		Plugins: t.strs("project.plugins", doc.Project.Plugins),
	}

	if c := doc.Compatibility; c != nil {
		source, err := config.ParsePlatformVersion(t.str("compatibility.source", c.Source))
		if err != nil {
			t.fail("compatibility.source: %w", err)
		}
		target, err := config.ParsePlatformVersion(t.str("compatibility.target", c.Target))
		if err != nil {
			t.fail("compatibility.target: %w", err)
		}
		d.Compatibility = config.CompatibilitySpec{Source: source, Target: target}
	}

	for i, r := range doc.Repositories {
		field := fmt.Sprintf("repositories[%d]", i)
		if r.Name == "" || r.URL == "" {
			t.fail("%s: name and url are required", field)
		}
		d.Repositories = append(d.Repositories, config.Repository{
			Name: t.str(field+".name", r.Name),
			URL:  t.str(field+".url", r.URL),
		})
	}

	for i, p := range doc.Platforms {
		field := fmt.Sprintf("platforms[%d]", i)
		d.Platforms = append(d.Platforms, config.PlatformDeclaration{
			Coordinate: t.coordinate(field+".coordinate", p.Coordinate),
			Scope:      t.scope(field+".scope", p.Scope),
			Artifacts:  t.strs(field+".artifacts", p.Artifacts),
			Position:   t.position(p.line),
		})
	}

	for i, dep := range doc.Dependencies {
		field := fmt.Sprintf("dependencies[%d]", i)
		d.Dependencies = append(d.Dependencies, config.DependencyDeclaration{
			Coordinate: t.coordinate(field+".coordinate", dep.Coordinate),
			Scope:      t.scope(field+".scope", dep.Scope),
			Override:   dep.Override,
			Position:   t.position(dep.line),
		})
	}

	for i, p := range doc.Processors {
		field := fmt.Sprintf("processors[%d]", i)
		proc := config.ProcessorDeclaration{
			Name:       t.str(field+".name", p.Name),
			Coordinate: t.coordinate(field+".coordinate", p.Coordinate),
			Position:   t.position(p.line),
		}
		if p.Scope != "" {
			proc.Scope = t.scope(field+".scope", p.Scope)
		}
		d.Processors = append(d.Processors, proc)
	}

	if doc.Test != nil {
		d.Test.Platform = t.str("test.platform", doc.Test.Platform)
		if lg := doc.Test.Logging; lg != nil {
			d.Test.Logging = true
			d.Test.ShowStandardStreams = lg.ShowStandardStreams
			for _, e := range lg.Events {
				d.Test.Events = append(d.Test.Events, config.EventKind(e))
			}
		}
	}

	if a := doc.Application; a != nil {
		if a.MainClass == "" {
			t.fail("application.main_class must not be empty")
		}
		d.Application = &config.Application{MainClass: t.str("application.main_class", a.MainClass)}
	}

	return d
}
