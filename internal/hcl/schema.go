package hcl

import (
	"github.com/hashicorp/hcl/v2"
)

// rootSchema lists every top-level block a descriptor may contain.
var rootSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "project"},
		{Type: "locals"},
		{Type: "compatibility"},
		{Type: "repository", LabelNames: []string{"name"}},
		{Type: "platform", LabelNames: []string{"scope"}},
		{Type: "dependency", LabelNames: []string{"scope"}},
		{Type: "processor", LabelNames: []string{"name"}},
		{Type: "test"},
		{Type: "application"},
	},
}

// projectBlock is the `project` block. Required fields are optional here so
// that their absence is reported as a MalformedConfig error by Finalize.
type projectBlock struct {
	Group   string   `hcl:"group,optional"`
	Name    string   `hcl:"name,optional"`
	Version string   `hcl:"version,optional"`
	Plugins []string `hcl:"plugins,optional"`
}

// compatibilityBlock is the `compatibility` block.
type compatibilityBlock struct {
	Source string `hcl:"source"`
	Target string `hcl:"target"`
}

// repositoryBlock is a `repository "<name>"` block.
type repositoryBlock struct {
	URL string `hcl:"url"`
}

// platformBlock is a `platform "<scope>"` block.
type platformBlock struct {
	Coordinate string   `hcl:"coordinate"`
	Artifacts  []string `hcl:"artifacts,optional"`
}

// dependencyBlock is a `dependency "<scope>"` block.
type dependencyBlock struct {
	Coordinate string `hcl:"coordinate"`
	Override   bool   `hcl:"override,optional"`
}

// processorBlock is a `processor "<name>"` block.
type processorBlock struct {
	Coordinate string `hcl:"coordinate"`
	Scope      string `hcl:"scope,optional"`
}

// testLoggingBlock is the `logging` block nested in `test`.
type testLoggingBlock struct {
	Events              []string `hcl:"events,optional"`
	ShowStandardStreams bool     `hcl:"show_standard_streams,optional"`
}

// testBlock is the `test` block.
type testBlock struct {
	Platform string            `hcl:"platform,optional"`
	Logging  *testLoggingBlock `hcl:"logging,block"`
}

// applicationBlock is the `application` block.
type applicationBlock struct {
	MainClass string `hcl:"main_class"`
}
