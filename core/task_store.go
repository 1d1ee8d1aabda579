package core

// TaskStore persists the orchestrator's task records. Put upserts the record
// under its id. Implementations should be thread-safe and return defensive
// copies so callers cannot mutate stored state.
type TaskStore interface {
	Put(t Task) error
	Get(id string) (Task, error)
	ListByRun(runID string) ([]Task, error)
}
