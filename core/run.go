package core

import (
	"sync"
	"time"
)

// RunStatus identifies a workflow run's lifecycle.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run tracks one workflow execution: its topic, status and the ordered log of
// every message exchanged during the run. The message log is observational;
// delivery itself stays synchronous and unreplayed. Safe for concurrent
// access.
type Run struct {
	ID       string    `json:"id"`
	Topic    string    `json:"topic"`
	Status   RunStatus `json:"status"`
	Messages []Message `json:"messages"`
	Created  time.Time `json:"created"`
	Updated  time.Time `json:"updated"`
	mu       sync.RWMutex
}

// NewRun creates a run record in the running state.
func NewRun(id, topic string, at time.Time) *Run {
	return &Run{ID: id, Topic: topic, Status: RunStatusRunning, Messages: []Message{}, Created: at, Updated: at}
}

// AddMessage appends a message to the run log updating the Updated timestamp.
func (r *Run) AddMessage(m Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Messages = append(r.Messages, m)
	r.Updated = m.Timestamp
}

// GetMessages returns a defensive copy of the full message log.
func (r *Run) GetMessages() []Message {
	r.mu.RLock()
	defer r.mu.RUnlock()
	msgs := make([]Message, len(r.Messages))
	copy(msgs, r.Messages)
	return msgs
}

// MessagesForTask returns the log entries referring to the task id,
// preserving log order.
func (r *Run) MessagesForTask(taskID string) []Message {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var msgs []Message
	for _, m := range r.Messages {
		if m.TaskID == taskID {
			msgs = append(msgs, m)
		}
	}
	return msgs
}

// SetStatus updates the run status and the Updated timestamp.
func (r *Run) SetStatus(s RunStatus, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Status = s
	r.Updated = at
}

// GetStatus returns the current run status.
func (r *Run) GetStatus() RunStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.Status
}

// RunStore persists run records and their evolving message logs.
type RunStore interface {
	Create(id, topic string, at time.Time) (*Run, error)
	Get(id string) (*Run, error)
	AppendMessage(runID string, m Message) error
	SetStatus(runID string, s RunStatus, at time.Time) error
}
