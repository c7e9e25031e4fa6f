package yamlconfig

import (
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

// document is the root of a YAML descriptor.
type document struct {
	Project       projectEntry        `yaml:"project"`
	Locals        map[string]string   `yaml:"locals,omitempty"`
	Compatibility *compatibilityEntry `yaml:"compatibility,omitempty"`
	Repositories  []repositoryEntry   `yaml:"repositories,omitempty"`
	Platforms     []platformEntry     `yaml:"platforms,omitempty"`
	Dependencies  []dependencyEntry   `yaml:"dependencies,omitempty"`
	Processors    []processorEntry    `yaml:"processors,omitempty"`
	Test          *testEntry          `yaml:"test,omitempty"`
	Application   *applicationEntry   `yaml:"application,omitempty"`
}

type projectEntry struct {
	Group   string   `yaml:"group"`
	Name    string   `yaml:"name,omitempty"`
	Version string   `yaml:"version"`
	Plugins []string `yaml:"plugins,omitempty"`
}

type compatibilityEntry struct {
	Source string `yaml:"source"`
	Target string `yaml:"target"`
}

type repositoryEntry struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

type platformEntry struct {
	Scope      string   `yaml:"scope"`
	Coordinate string   `yaml:"coordinate"`
	Artifacts  []string `yaml:"artifacts,omitempty"`
	line       int
}

func (e *platformEntry) UnmarshalYAML(n *yaml.Node) error {
	if err := checkKeys(n, "platform", "scope", "coordinate", "artifacts"); err != nil {
		return err
	}
	type plain platformEntry
	if err := n.Decode((*plain)(e)); err != nil {
		return err
	}
	e.line = n.Line
	return nil
}

type dependencyEntry struct {
	Scope      string `yaml:"scope"`
	Coordinate string `yaml:"coordinate"`
	Override   bool   `yaml:"override,omitempty"`
	line       int
}

func (e *dependencyEntry) UnmarshalYAML(n *yaml.Node) error {
	if err := checkKeys(n, "dependency", "scope", "coordinate", "override"); err != nil {
		return err
	}
	type plain dependencyEntry
	if err := n.Decode((*plain)(e)); err != nil {
		return err
	}
	e.line = n.Line
	return nil
}

type processorEntry struct {
	Name       string `yaml:"name,omitempty"`
	Coordinate string `yaml:"coordinate"`
	Scope      string `yaml:"scope,omitempty"`
	line       int
}

func (e *processorEntry) UnmarshalYAML(n *yaml.Node) error {
	if err := checkKeys(n, "processor", "name", "coordinate", "scope"); err != nil {
		return err
	}
	type plain processorEntry
	if err := n.Decode((*plain)(e)); err != nil {
		return err
	}
	e.line = n.Line
	return nil
}

// checkKeys rejects mapping keys outside allowed. Node.Decode does not
// inherit the decoder's KnownFields setting, so entries that record their
// line number check their keys here.
func checkKeys(n *yaml.Node, entry string, allowed ...string) error {
	if n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i]
		if !slices.Contains(allowed, key.Value) {
			return fmt.Errorf("line %d: field %s not found in %s entry", key.Line, key.Value, entry)
		}
	}
	return nil
}

type testLoggingEntry struct {
	Events              []string `yaml:"events,omitempty"`
	ShowStandardStreams bool     `yaml:"show_standard_streams,omitempty"`
}

type testEntry struct {
	Platform string            `yaml:"platform,omitempty"`
	Logging  *testLoggingEntry `yaml:"logging,omitempty"`
}

type applicationEntry struct {
	MainClass string `yaml:"main_class"`
}
