package testutil

import (
	"time"

	"github.com/hupe1980/contentmesh/core"
)

// TaskBuilder provides a fluent helper for constructing tasks in tests.
// Example:
//
//	task := NewTaskBuilder("task-1").Agent("researcher").Capability("research_topic").Build()
//
// Chain only the parts you need; sensible defaults are applied.
type TaskBuilder struct {
	id           string
	runID        string
	orchestrator string
	agentID      string
	capability   string
	input        core.Input
	status       core.TaskStatus
	artifactID   string
	taskErr      *core.TaskError
	createdAt    time.Time
	completedAt  time.Time
}

// NewTaskBuilder creates a builder for a task with the given id and
// defaults suitable for most tests.
func NewTaskBuilder(id string) *TaskBuilder {
	return &TaskBuilder{
		id:           id,
		runID:        "run-1",
		orchestrator: "orchestrator-1",
		agentID:      "agent-1",
		capability:   "research_topic",
		input:        core.Input{"topic": "edge computing"},
		status:       core.TaskStatusCreated,
		createdAt:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

// Run sets the run ID the task belongs to (chainable).
func (b *TaskBuilder) Run(runID string) *TaskBuilder { b.runID = runID; return b }

// Orchestrator sets the issuing orchestrator ID (chainable).
func (b *TaskBuilder) Orchestrator(id string) *TaskBuilder { b.orchestrator = id; return b }

// Agent sets the assigned agent ID (chainable).
func (b *TaskBuilder) Agent(id string) *TaskBuilder { b.agentID = id; return b }

// Capability sets the capability the task requests (chainable).
func (b *TaskBuilder) Capability(name string) *TaskBuilder { b.capability = name; return b }

// Input replaces the task input map (chainable).
func (b *TaskBuilder) Input(input core.Input) *TaskBuilder { b.input = input; return b }

// InputValue sets a single input key/value pair (chainable).
func (b *TaskBuilder) InputValue(key string, val any) *TaskBuilder {
	if b.input == nil {
		b.input = core.Input{}
	}
	b.input[key] = val
	return b
}

// Status sets the task status directly, bypassing transition checks (chainable).
// Use mainly in tests where a task needs to start mid-lifecycle.
func (b *TaskBuilder) Status(s core.TaskStatus) *TaskBuilder { b.status = s; return b }

// Artifact marks the task completed with the given artifact ID (chainable).
func (b *TaskBuilder) Artifact(artifactID string) *TaskBuilder {
	b.status = core.TaskStatusCompleted
	b.artifactID = artifactID
	b.taskErr = nil
	return b
}

// Failed marks the task failed with the given error (chainable).
func (b *TaskBuilder) Failed(terr *core.TaskError) *TaskBuilder {
	b.status = core.TaskStatusFailed
	b.taskErr = terr
	b.artifactID = ""
	return b
}

// CreatedAt overrides the creation timestamp (chainable).
func (b *TaskBuilder) CreatedAt(at time.Time) *TaskBuilder { b.createdAt = at; return b }

// CompletedAt sets the completion timestamp (chainable).
func (b *TaskBuilder) CompletedAt(at time.Time) *TaskBuilder { b.completedAt = at; return b }

// Build constructs the core.Task value.
func (b *TaskBuilder) Build() core.Task {
	return core.Task{
		ID:             b.id,
		RunID:          b.runID,
		OrchestratorID: b.orchestrator,
		AgentID:        b.agentID,
		Capability:     b.capability,
		Input:          b.input.Clone(),
		Status:         b.status,
		ArtifactID:     b.artifactID,
		Err:            b.taskErr,
		CreatedAt:      b.createdAt,
		CompletedAt:    b.completedAt,
	}
}
