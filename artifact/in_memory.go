package artifact

import (
	"sync"

	"github.com/hupe1980/contentmesh/core"
)

// InMemoryStore is an in-process ArtifactStore for tests, examples and
// single-process pipelines. Artifacts are held in a nested map guarded by an
// RWMutex, with a per-run save-order index backing the latest-of-kind lookup.
// Values are deep-copied on save and retrieval to keep stored artifacts
// immutable from the caller's point of view.
//
// Layout: runID -> artifactID -> Artifact, plus runID -> ordered artifact ids
//
// Saves are append-only: overwriting an id fails with ErrDuplicateID. Under
// the sequential-dispatch contract save order equals completion order, so
// LatestOfKind is consistent with the order tasks finished.
type InMemoryStore struct {
	mu        sync.RWMutex
	artifacts map[string]map[string]core.Artifact // runID -> artifactID -> artifact
	order     map[string][]string                 // runID -> artifact ids in save order
}

// Interface compliance (compile-time assertion)
var _ core.ArtifactStore = (*InMemoryStore)(nil)

// NewInMemoryStore returns an empty in-memory artifact store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		artifacts: make(map[string]map[string]core.Artifact),
		order:     make(map[string][]string),
	}
}

// Save appends the artifact to the run's store. The artifact is copied before
// storage; duplicate ids fail with ErrDuplicateID.
func (s *InMemoryStore) Save(runID string, a core.Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.artifacts[runID]; !exists {
		s.artifacts[runID] = make(map[string]core.Artifact)
	}
	if _, exists := s.artifacts[runID][a.ID]; exists {
		return ErrDuplicateID
	}
	s.artifacts[runID][a.ID] = a.Clone()
	s.order[runID] = append(s.order[runID], a.ID)
	return nil
}

// Get returns a copy of the stored artifact or ErrNotFound.
func (s *InMemoryStore) Get(runID, artifactID string) (core.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.artifacts[runID]
	if !ok {
		return core.Artifact{}, ErrNotFound
	}
	a, ok := m[artifactID]
	if !ok {
		return core.Artifact{}, ErrNotFound
	}
	return a.Clone(), nil
}

// LatestOfKind returns a copy of the most recently saved artifact of the kind
// within the run, or a NoArtifactOfKindError when the run holds none.
func (s *InMemoryStore) LatestOfKind(runID string, kind core.ArtifactKind) (core.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.order[runID]
	for i := len(ids) - 1; i >= 0; i-- {
		a := s.artifacts[runID][ids[i]]
		if a.Kind == kind {
			return a.Clone(), nil
		}
	}
	return core.Artifact{}, &core.NoArtifactOfKindError{RunID: runID, Kind: kind}
}

// List returns the run's artifact ids in save order. The slice is a snapshot
// and safe for caller mutation.
func (s *InMemoryStore) List(runID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, len(s.order[runID]))
	copy(ids, s.order[runID])
	return ids, nil
}
