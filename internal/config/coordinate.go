package config

import (
	"fmt"
	"strings"
)

// Coordinate identifies an external library as a (group, artifact, version)
// triple. Version may be empty until platform alignment fills it in.
type Coordinate struct {
	Group    string
	Artifact string
	Version  string
}

// ParseCoordinate accepts "group:artifact" or "group:artifact:version".
func ParseCoordinate(s string) (Coordinate, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return Coordinate{}, fmt.Errorf("invalid coordinate %q: expected group:artifact[:version]", s)
	}
	for i, p := range parts {
		if strings.TrimSpace(p) == "" {
			return Coordinate{}, fmt.Errorf("invalid coordinate %q: empty segment at position %d", s, i+1)
		}
	}
	c := Coordinate{Group: parts[0], Artifact: parts[1]}
	if len(parts) == 3 {
		c.Version = parts[2]
	}
	return c, nil
}

// Key is the library identity without the version.
func (c Coordinate) Key() string {
	return c.Group + ":" + c.Artifact
}

// String renders the coordinate in its "group:artifact:version" form.
func (c Coordinate) String() string {
	if c.Version == "" {
		return c.Key()
	}
	return c.Key() + ":" + c.Version
}

// HasVersion reports whether the coordinate carries a version.
func (c Coordinate) HasVersion() bool {
	return c.Version != ""
}
