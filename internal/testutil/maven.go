package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/buildgrid/internal/config"
	"github.com/vk/buildgrid/internal/fsutil"
	"github.com/vk/buildgrid/internal/resolver/maven"
)

// MavenRepo is an in-memory Maven repository served over HTTP.
type MavenRepo struct {
	URL string

	mu       sync.Mutex
	files    map[string][]byte
	requests []string
}

// NewMavenRepo serves one jar per coordinate, with its .sha1, until the test
// ends. The jar content is the coordinate string.
func NewMavenRepo(t *testing.T, coords ...string) *MavenRepo {
	t.Helper()
	repo := &MavenRepo{files: make(map[string][]byte)}
	for _, s := range coords {
		c, err := config.ParseCoordinate(s)
		require.NoError(t, err)
		data := []byte(c.String())
		p := "/" + maven.ArtifactPath(c)
		repo.files[p] = data
		repo.files[p+".sha1"] = []byte(fsutil.SHA1Hex(data) + "  " + c.Artifact + ".jar")
	}

	srv := httptest.NewServer(http.HandlerFunc(repo.serve))
	t.Cleanup(srv.Close)
	repo.URL = srv.URL
	return repo
}

func (r *MavenRepo) serve(w http.ResponseWriter, req *http.Request) {
	r.mu.Lock()
	data, ok := r.files[req.URL.Path]
	if !strings.HasSuffix(req.URL.Path, ".sha1") {
		r.requests = append(r.requests, req.URL.Path)
	}
	r.mu.Unlock()

	if !ok {
		http.NotFound(w, req)
		return
	}
	w.Write(data)
}

// CorruptChecksum publishes a .sha1 for coord that does not match its jar.
func (r *MavenRepo) CorruptChecksum(t *testing.T, coord string) {
	t.Helper()
	c, err := config.ParseCoordinate(coord)
	require.NoError(t, err)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files["/"+maven.ArtifactPath(c)+".sha1"] = []byte(fsutil.SHA1Hex([]byte("tampered")))
}

// Downloads returns the number of jar requests served so far.
func (r *MavenRepo) Downloads() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.requests)
}
