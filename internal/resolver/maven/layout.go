package maven

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/vk/buildgrid/internal/config"
)

// ArtifactPath returns the repository relative path of the jar of c, e.g.
// org/projectlombok/lombok/1.18.28/lombok-1.18.28.jar.
func ArtifactPath(c config.Coordinate) string {
	return path.Join(
		strings.ReplaceAll(c.Group, ".", "/"),
		c.Artifact,
		c.Version,
		c.Artifact+"-"+c.Version+".jar",
	)
}

// artifactURL joins a repository base URL with the artifact path.
func artifactURL(base string, c config.Coordinate) string {
	return strings.TrimRight(base, "/") + "/" + ArtifactPath(c)
}

// cachePath returns where the jar of c is stored below cacheDir.
func cachePath(cacheDir string, c config.Coordinate) string {
	return filepath.Join(cacheDir, filepath.FromSlash(ArtifactPath(c)))
}
