package maven

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/vk/buildgrid/internal/config"
	"github.com/vk/buildgrid/internal/ctxlog"
	"github.com/vk/buildgrid/internal/fsutil"
	"github.com/vk/buildgrid/internal/orchestrator"
	"golang.org/x/sync/errgroup"
	"resty.dev/v3"
)

var (
	// ErrNotFound means no repository had the artifact.
	ErrNotFound = errors.New("artifact not found in any repository")
	// ErrChecksum means a downloaded file did not match its published checksum.
	ErrChecksum = errors.New("checksum mismatch")
)

// DefaultConcurrency bounds parallel downloads when no limit is configured.
const DefaultConcurrency = 4

// Resolver downloads artifacts from Maven repositories into a local cache.
type Resolver struct {
	client      *resty.Client
	cacheDir    string
	concurrency int
	checksums   bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithConcurrency bounds the number of parallel downloads.
func WithConcurrency(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithTimeout sets the timeout of a single HTTP request.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) { r.client.SetTimeout(d) }
}

// WithRetries retries failed requests with the given count.
func WithRetries(n int) Option {
	return func(r *Resolver) { r.client.SetRetryCount(n) }
}

// WithoutChecksums skips the .sha1 verification of downloaded files.
func WithoutChecksums() Option {
	return func(r *Resolver) { r.checksums = false }
}

// New creates a resolver caching artifacts below cacheDir.
func New(cacheDir string, opts ...Option) *Resolver {
	r := &Resolver{
		client:      resty.New().SetHeader("User-Agent", "buildgrid"),
		cacheDir:    cacheDir,
		concurrency: DefaultConcurrency,
		checksums:   true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Close releases the HTTP client.
func (r *Resolver) Close() error {
	return r.client.Close()
}

// Resolve fetches every requested artifact, serving cached files without a
// network round trip. The returned artifacts are in request order.
func (r *Resolver) Resolve(ctx context.Context, reqs []orchestrator.Request) ([]orchestrator.Artifact, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Maven resolve started.", "requests", len(reqs), "concurrency", r.concurrency)

	out := make([]orchestrator.Artifact, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, req := range reqs {
		g.Go(func() error {
			a, err := r.resolveOne(gctx, req)
			if err != nil {
				return &orchestrator.ResolutionError{Coordinate: req.Coordinate, Scope: req.Scope, Err: err}
			}
			out[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Resolver) resolveOne(ctx context.Context, req orchestrator.Request) (orchestrator.Artifact, error) {
	logger := ctxlog.FromContext(ctx)
	c := req.Coordinate
	a := orchestrator.Artifact{Coordinate: c, Scope: req.Scope}

	if !c.HasVersion() {
		return a, fmt.Errorf("coordinate %s has no version", c)
	}

	target := cachePath(r.cacheDir, c)
	if data, err := os.ReadFile(target); err == nil {
		logger.Debug("Artifact served from cache.", "coordinate", c.String(), "path", target)
		a.Path = target
		a.Checksum = fsutil.SHA1Hex(data)
		return a, nil
	}

	repos := req.Repositories
	if len(repos) == 0 {
		repos = []config.Repository{config.DefaultRepository}
	}

	var attempts []error
	for _, repo := range repos {
		if err := ctx.Err(); err != nil {
			return a, err
		}
		data, err := r.fetch(ctx, repo, c)
		if errors.Is(err, errMissing) {
			logger.Debug("Artifact not in repository.", "coordinate", c.String(), "repository", repo.Name)
			continue
		}
		if err != nil {
			attempts = append(attempts, fmt.Errorf("%s: %w", repo.Name, err))
			continue
		}
		if err := fsutil.WriteAtomic(target, data); err != nil {
			return a, fmt.Errorf("failed to cache artifact: %w", err)
		}
		logger.Debug("Artifact downloaded.", "coordinate", c.String(), "repository", repo.Name, "bytes", len(data))
		a.Path = target
		a.Checksum = fsutil.SHA1Hex(data)
		return a, nil
	}

	if len(attempts) > 0 {
		return a, errors.Join(attempts...)
	}
	return a, ErrNotFound
}

// errMissing marks a 404 from a single repository.
var errMissing = errors.New("missing")

// fetch downloads the jar of c from repo and verifies its checksum when the
// repository publishes one.
func (r *Resolver) fetch(ctx context.Context, repo config.Repository, c config.Coordinate) ([]byte, error) {
	url := artifactURL(repo.URL, c)
	resp, err := r.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return nil, errMissing
	case !resp.IsSuccess():
		return nil, fmt.Errorf("GET %s: unexpected status %s", url, resp.Status())
	}
	data := resp.Bytes()

	if !r.checksums {
		return data, nil
	}
	sumResp, err := r.client.R().SetContext(ctx).Get(url + ".sha1")
	if err != nil || !sumResp.IsSuccess() {
		// No published checksum, nothing to verify against.
		return data, nil
	}
	// Some repositories append the file name after the digest.
	want := strings.Fields(sumResp.String())
	if len(want) == 0 {
		return data, nil
	}
	if got := fsutil.SHA1Hex(data); !strings.EqualFold(got, want[0]) {
		return nil, fmt.Errorf("%w for %s: expected %s, got %s", ErrChecksum, url, want[0], got)
	}
	return data, nil
}
