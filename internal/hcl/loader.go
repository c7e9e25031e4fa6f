package hcl

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/buildgrid/internal/config"
	"github.com/vk/buildgrid/internal/ctxlog"
	"github.com/vk/buildgrid/internal/hclutil"
	"github.com/zclconf/go-cty/cty"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL descriptor loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses the descriptor at path and translates it into the
// format-agnostic model. Every parse, decode or translation problem is
// returned as a config.ErrMalformedConfig error carrying HCL diagnostics.
func (l *Loader) Load(ctx context.Context, path string) (*config.ProjectDescriptor, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path", path)

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to read descriptor %s: %w", path, err)
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, config.WrapMalformed(path, fmt.Errorf("failed to parse HCL: %w", diags))
	}

	d, diags := l.decode(ctx, file.Body, path)
	if diags.HasErrors() {
		return nil, config.WrapMalformed(path, fmt.Errorf("failed to decode HCL: %w", diags))
	}
	d.Source = path

	if err := config.Finalize(ctx, d); err != nil {
		return nil, err
	}

	logger.Debug("HCL loading complete.",
		"project", d.ID(),
		"dependencies", len(d.Dependencies),
		"processors", len(d.Processors),
		"platforms", len(d.Platforms),
	)
	return d, nil
}

// decode reads the root body. Locals are resolved first since every other
// block may reference them.
func (l *Loader) decode(ctx context.Context, body hcl.Body, path string) (*config.ProjectDescriptor, hcl.Diagnostics) {
	logger := ctxlog.FromContext(ctx)

	content, diags := body.Content(rootSchema)
	if diags.HasErrors() {
		return nil, diags
	}

	locals, localDiags := l.resolveLocals(content.Blocks)
	diags = append(diags, localDiags...)
	if localDiags.HasErrors() {
		return nil, diags
	}
	logger.Debug("Resolved descriptor locals.", "count", len(locals))
	evalCtx := EvalContext(locals)

	d := &config.ProjectDescriptor{}

	for _, name := range []string{"project", "compatibility", "test", "application"} {
		if _, uniqueDiags := hclutil.FindUniqueBlock(content.Blocks, name); uniqueDiags.HasErrors() {
			diags = append(diags, uniqueDiags...)
		}
	}
	if diags.HasErrors() {
		return nil, diags
	}

	project, _ := hclutil.FindUniqueBlock(content.Blocks, "project")
	if project == nil {
		return nil, append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Missing project block",
			Detail:   "A descriptor must contain a \"project\" block with group and version.",
			Subject:  body.MissingItemRange().Ptr(),
		})
	}
	diags = append(diags, l.translateProject(project, evalCtx, d)...)

	if block, _ := hclutil.FindUniqueBlock(content.Blocks, "compatibility"); block != nil {
		diags = append(diags, l.translateCompatibility(block, evalCtx, d)...)
	}
	for _, block := range hclutil.BlocksOfType(content.Blocks, "repository") {
		diags = append(diags, l.translateRepository(block, evalCtx, d)...)
	}
	for _, block := range hclutil.BlocksOfType(content.Blocks, "platform") {
		diags = append(diags, l.translatePlatform(block, evalCtx, d)...)
	}
	for _, block := range hclutil.BlocksOfType(content.Blocks, "dependency") {
		diags = append(diags, l.translateDependency(block, evalCtx, d)...)
	}
	for _, block := range hclutil.BlocksOfType(content.Blocks, "processor") {
		diags = append(diags, l.translateProcessor(block, evalCtx, d)...)
	}
	if block, _ := hclutil.FindUniqueBlock(content.Blocks, "test"); block != nil {
		diags = append(diags, l.translateTest(block, evalCtx, d)...)
	}
	if block, _ := hclutil.FindUniqueBlock(content.Blocks, "application"); block != nil {
		diags = append(diags, l.translateApplication(block, evalCtx, d)...)
	}

	return d, diags
}

// resolveLocals gathers the attributes of every `locals` block and evaluates them.
func (l *Loader) resolveLocals(blocks hcl.Blocks) (map[string]cty.Value, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	exprs := make(map[string]hcl.Expression)
	for _, block := range hclutil.BlocksOfType(blocks, "locals") {
		attrs, attrDiags := block.Body.JustAttributes()
		diags = append(diags, attrDiags...)
		for name, attr := range attrs {
			if _, dup := exprs[name]; dup {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Duplicate local value",
					Detail:   fmt.Sprintf("The local %q is defined more than once.", name),
					Subject:  attr.NameRange.Ptr(),
				})
				continue
			}
			exprs[name] = attr.Expr
		}
	}
	if diags.HasErrors() {
		return nil, diags
	}
	values, valDiags := ResolveLocals(exprs)
	return values, append(diags, valDiags...)
}
