// Package resolver provides an in-memory implementation of the
// orchestrator.Resolver interface.
//
// # Purpose
//
// Static resolves coordinates against a fixed universe of artifacts. It backs
// offline builds replayed from a lock file and serves as the resolver in
// tests. Resolution is exact: a coordinate resolves only if the same
// group:artifact:version was added.
//
// # Concurrency Model
//
// The universe is kept in a sync.Map. Entries are added up front and then
// only read, possibly from several goroutines at once.
package resolver

import (
	"context"
	"errors"
	"sync"

	"github.com/vk/buildgrid/internal/config"
	"github.com/vk/buildgrid/internal/ctxlog"
	"github.com/vk/buildgrid/internal/orchestrator"
)

// ErrNotInUniverse is the cause of a ResolutionError for an unknown coordinate.
var ErrNotInUniverse = errors.New("coordinate is not in the artifact universe")

// Static resolves coordinates from an in-memory universe.
type Static struct {
	artifacts sync.Map // Key: coordinate string, Value: orchestrator.Artifact
}

// NewStatic creates a resolver holding the given artifacts.
func NewStatic(artifacts ...orchestrator.Artifact) *Static {
	s := &Static{}
	for _, a := range artifacts {
		s.Add(a)
	}
	return s
}

// Add makes a resolvable. The scope of a is ignored: every scope resolves the
// same file.
func (s *Static) Add(a orchestrator.Artifact) {
	a.Scope = ""
	s.artifacts.Store(a.Coordinate.String(), a)
}

// Resolve returns one artifact per request, in request order. The first
// unknown coordinate fails the whole call.
func (s *Static) Resolve(ctx context.Context, reqs []orchestrator.Request) ([]orchestrator.Artifact, error) {
	logger := ctxlog.FromContext(ctx)

	out := make([]orchestrator.Artifact, 0, len(reqs))
	for _, req := range reqs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, ok := s.artifacts.Load(req.Coordinate.String())
		if !ok {
			return nil, &orchestrator.ResolutionError{Coordinate: req.Coordinate, Scope: req.Scope, Err: ErrNotInUniverse}
		}
		a := v.(orchestrator.Artifact)
		a.Scope = req.Scope
		logger.Debug("Resolved artifact from static universe.", "coordinate", req.Coordinate.String(), "path", a.Path)
		out = append(out, a)
	}
	return out, nil
}

// Has reports whether c is part of the universe.
func (s *Static) Has(c config.Coordinate) bool {
	_, ok := s.artifacts.Load(c.String())
	return ok
}
