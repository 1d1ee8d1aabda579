package task

import (
	"fmt"
	"sync"

	"github.com/hupe1980/contentmesh/core"
)

// InMemoryStore is a process-local TaskStore. It offers:
//  1. Upsert and lookup of task records by id (Put / Get)
//  2. Run-scoped listing in creation order (ListByRun)
//
// Concurrency: protected by RWMutex. Tasks are deep-copied both ways so the
// orchestrator's working copy and the stored record never alias.
type InMemoryStore struct {
	mu    sync.RWMutex
	tasks map[string]core.Task // taskID -> task
	byRun map[string][]string  // runID -> task ids in first-put order
}

// Interface compliance (compile-time assertion)
var _ core.TaskStore = (*InMemoryStore)(nil)

// NewInMemoryStore creates a new in-memory task store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		tasks: make(map[string]core.Task),
		byRun: make(map[string][]string),
	}
}

// Put upserts the task record under its id. The first put of an id registers
// it in the run's ordering.
func (s *InMemoryStore) Put(t core.Task) error {
	if t.ID == "" {
		return fmt.Errorf("task id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tasks[t.ID]; !exists {
		s.byRun[t.RunID] = append(s.byRun[t.RunID], t.ID)
	}
	s.tasks[t.ID] = t.Clone()
	return nil
}

// Get returns a copy of the stored task or an error when absent.
func (s *InMemoryStore) Get(id string) (core.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return core.Task{}, fmt.Errorf("task not found: %s", id)
	}
	return t.Clone(), nil
}

// ListByRun returns copies of the run's tasks in first-put order.
func (s *InMemoryStore) ListByRun(runID string) ([]core.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byRun[runID]
	tasks := make([]core.Task, 0, len(ids))
	for _, id := range ids {
		t := s.tasks[id]
		tasks = append(tasks, t.Clone())
	}
	return tasks, nil
}
