package core

import (
	"fmt"
	"time"
)

// TaskStatus identifies a task's position in its lifecycle.
type TaskStatus string

const (
	TaskStatusCreated    TaskStatus = "created"
	TaskStatusAssigned   TaskStatus = "assigned"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// allowedTransitions encodes the task lifecycle. A completion never skips a
// state; a failure may strike any non-terminal state after assignment; the
// terminal states map to empty sets so nothing leaves completed or failed.
var allowedTransitions = map[TaskStatus]map[TaskStatus]struct{}{
	TaskStatusCreated: {
		TaskStatusAssigned: {},
	},
	TaskStatusAssigned: {
		TaskStatusInProgress: {},
		TaskStatusFailed:     {},
	},
	TaskStatusInProgress: {
		TaskStatusCompleted: {},
		TaskStatusFailed:    {},
	},
	TaskStatusCompleted: {},
	TaskStatusFailed:    {},
}

// IsTerminal reports whether the status admits no further transitions.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// ValidateTaskStatus returns an error when s is not a known lifecycle state.
func ValidateTaskStatus(s TaskStatus) error {
	if _, ok := allowedTransitions[s]; !ok {
		return fmt.Errorf("invalid task status: %q", s)
	}
	return nil
}

// ValidateTransition returns an error unless from -> to is a legal lifecycle
// step per the transition table.
func ValidateTransition(from, to TaskStatus) error {
	if err := ValidateTaskStatus(from); err != nil {
		return err
	}
	if err := ValidateTaskStatus(to); err != nil {
		return err
	}
	if _, ok := allowedTransitions[from][to]; !ok {
		return fmt.Errorf("invalid task transition: %s -> %s", from, to)
	}
	return nil
}

// Task is the orchestrator's record of one delegated unit of work. It is
// owned exclusively by the orchestrator for bookkeeping; the agent executing
// it only reports status transitions back and does not retain it after
// reporting.
//
// Contract:
//   - Status only advances along the transition table (see ValidateTransition)
//   - ArtifactID is set if and only if Status is completed
//   - Err is set if and only if Status is failed
type Task struct {
	ID             string     `json:"id"`
	RunID          string     `json:"run_id"`
	OrchestratorID string     `json:"orchestrator_id"`
	AgentID        string     `json:"agent_id"`
	Capability     string     `json:"capability"`
	Input          Input      `json:"input,omitempty"`
	Status         TaskStatus `json:"status"`
	ArtifactID     string     `json:"artifact_id,omitempty"`
	Err            *TaskError `json:"error,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    time.Time  `json:"completed_at"`
}

// Transition advances the task status, enforcing the lifecycle table.
func (t *Task) Transition(to TaskStatus) error {
	if err := ValidateTransition(t.Status, to); err != nil {
		return fmt.Errorf("task %s: %w", t.ID, err)
	}
	t.Status = to
	return nil
}

// Complete transitions the task to completed and attaches the produced
// artifact reference, clearing any error so the artifact-XOR-error invariant
// holds by construction.
func (t *Task) Complete(artifactID string, at time.Time) error {
	if artifactID == "" {
		return fmt.Errorf("task %s: completed without artifact", t.ID)
	}
	if err := t.Transition(TaskStatusCompleted); err != nil {
		return err
	}
	t.ArtifactID = artifactID
	t.Err = nil
	t.CompletedAt = at
	return nil
}

// Fail transitions the task to failed and attaches the terminal error,
// clearing any artifact reference.
func (t *Task) Fail(terr *TaskError, at time.Time) error {
	if terr == nil {
		return fmt.Errorf("task %s: failed without error", t.ID)
	}
	if err := t.Transition(TaskStatusFailed); err != nil {
		return err
	}
	t.Err = terr
	t.ArtifactID = ""
	t.CompletedAt = at
	return nil
}

// Clone returns a deep copy of the task safe for independent mutation.
func (t *Task) Clone() Task {
	clone := *t
	clone.Input = t.Input.Clone()
	if t.Err != nil {
		errCopy := *t.Err
		if t.Err.Details != nil {
			errCopy.Details = make(map[string]string, len(t.Err.Details))
			for k, v := range t.Err.Details {
				errCopy.Details[k] = v
			}
		}
		clone.Err = &errCopy
	}
	return clone
}

// TaskRecord is the flat serializable form of a task for external run logs:
// identifiers, outcome and artifact summary only.
type TaskRecord struct {
	TaskID       string       `json:"task_id"`
	RunID        string       `json:"run_id"`
	AgentID      string       `json:"agent_id"`
	Capability   string       `json:"capability"`
	Status       TaskStatus   `json:"status"`
	ErrorCode    ErrorCode    `json:"error_code,omitempty"`
	ArtifactID   string       `json:"artifact_id,omitempty"`
	ArtifactKind ArtifactKind `json:"artifact_kind,omitempty"`
	ArtifactSize int          `json:"artifact_size,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	CompletedAt  time.Time    `json:"completed_at"`
}

// Record flattens the task to a run-log record. Artifact kind and size are
// supplied by the caller since the task itself stores only the artifact id.
func (t *Task) Record(kind ArtifactKind, size int) TaskRecord {
	rec := TaskRecord{
		TaskID:      t.ID,
		RunID:       t.RunID,
		AgentID:     t.AgentID,
		Capability:  t.Capability,
		Status:      t.Status,
		CreatedAt:   t.CreatedAt,
		CompletedAt: t.CompletedAt,
	}
	if t.Err != nil {
		rec.ErrorCode = t.Err.Code
	}
	if t.ArtifactID != "" {
		rec.ArtifactID = t.ArtifactID
		rec.ArtifactKind = kind
		rec.ArtifactSize = size
	}
	return rec
}
