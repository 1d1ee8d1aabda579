package runlog

import (
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/contentmesh/core"
)

// InMemoryStore is a volatile RunStore implementation storing run records in
// a process local map. It is safe for concurrent access and best suited for
// tests or single-process pipelines. Run records are shared pointers; the Run
// type guards its own mutable state.
type InMemoryStore struct {
	mu   sync.RWMutex
	runs map[string]*core.Run
}

// Interface compliance (compile-time assertion)
var _ core.RunStore = (*InMemoryStore)(nil)

// NewInMemoryStore constructs an empty in-memory run store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{runs: make(map[string]*core.Run)}
}

// Create allocates a new run record. Reusing a run id is an error: runs are
// independent and never resumed.
func (s *InMemoryStore) Create(id, topic string, at time.Time) (*core.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.runs[id]; exists {
		return nil, fmt.Errorf("run already exists: %s", id)
	}
	run := core.NewRun(id, topic, at)
	s.runs[id] = run
	return run, nil
}

// Get returns the run record or an error when absent.
func (s *InMemoryStore) Get(id string) (*core.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	return run, nil
}

// AppendMessage adds a message to the run's observational log.
func (s *InMemoryStore) AppendMessage(runID string, m core.Message) error {
	run, err := s.Get(runID)
	if err != nil {
		return err
	}
	run.AddMessage(m)
	return nil
}

// SetStatus updates the run's lifecycle status.
func (s *InMemoryStore) SetStatus(runID string, status core.RunStatus, at time.Time) error {
	run, err := s.Get(runID)
	if err != nil {
		return err
	}
	run.SetStatus(status, at)
	return nil
}
