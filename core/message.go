package core

import "time"

// MessageKind identifies the directive a message carries.
type MessageKind string

const (
	MessageKindAssign       MessageKind = "assign"
	MessageKindStatusUpdate MessageKind = "status_update"
	MessageKindResult       MessageKind = "result"
	MessageKindError        MessageKind = "error"
)

// Payload is the polymorphic body of a message. Concrete payload types
// implement the unexported isPayload marker enabling a closed set.
type Payload interface{ isPayload() }

// AssignPayload carries the capability name and input parameters of a new
// assignment.
type AssignPayload struct {
	Capability string `json:"capability"`
	Input      Input  `json:"input,omitempty"`
}

// isPayload implements the Payload interface for AssignPayload.
func (AssignPayload) isPayload() {}

// StatusPayload reports a task lifecycle transition observed by the executing
// agent. The orchestrator's task store remains authoritative; duplicate or
// stale reports are dropped on receipt.
type StatusPayload struct {
	Status TaskStatus `json:"status"`
}

// isPayload implements the Payload interface for StatusPayload.
func (StatusPayload) isPayload() {}

// ResultPayload carries the artifact produced by a completed assignment.
type ResultPayload struct {
	Artifact Artifact `json:"artifact"`
}

// isPayload implements the Payload interface for ResultPayload.
func (ResultPayload) isPayload() {}

// ErrorPayload carries the structured terminal error of a failed assignment.
type ErrorPayload struct {
	Err *TaskError `json:"error"`
}

// isPayload implements the Payload interface for ErrorPayload.
func (ErrorPayload) isPayload() {}

// Message is the immutable envelope exchanged between the orchestrator and
// its agents. A message is created by its sender, consumed exactly once by
// the addressed receiver and then discarded; delivery is synchronous within
// the process and messages are never replayed. Run records keep copies for
// observability only.
type Message struct {
	ID          string      `json:"id"`
	RunID       string      `json:"run_id,omitempty"`
	TaskID      string      `json:"task_id"`
	SenderID    string      `json:"sender_id"`
	RecipientID string      `json:"recipient_id"`
	Kind        MessageKind `json:"kind"`
	Payload     Payload     `json:"payload"`
	Timestamp   time.Time   `json:"timestamp"`
}

// NewAssignMessage builds the assignment envelope for a freshly minted task.
// Addressing and payload derive entirely from the task record. The id and
// timestamp are supplied by the caller's injected generator and clock.
func NewAssignMessage(id string, task Task, ts time.Time) Message {
	return Message{
		ID:          id,
		RunID:       task.RunID,
		TaskID:      task.ID,
		SenderID:    task.OrchestratorID,
		RecipientID: task.AgentID,
		Kind:        MessageKindAssign,
		Payload:     AssignPayload{Capability: task.Capability, Input: task.Input.Clone()},
		Timestamp:   ts,
	}
}

// NewStatusReply reports a lifecycle transition back to the sender of the
// assignment envelope. Flipping the assign addressing guarantees the reply
// refers to a task previously issued to this agent.
func NewStatusReply(id string, assign Message, status TaskStatus, ts time.Time) Message {
	return Message{
		ID:          id,
		RunID:       assign.RunID,
		TaskID:      assign.TaskID,
		SenderID:    assign.RecipientID,
		RecipientID: assign.SenderID,
		Kind:        MessageKindStatusUpdate,
		Payload:     StatusPayload{Status: status},
		Timestamp:   ts,
	}
}

// NewResultReply carries the produced artifact back to the sender of the
// assignment envelope.
func NewResultReply(id string, assign Message, artifact Artifact, ts time.Time) Message {
	return Message{
		ID:          id,
		RunID:       assign.RunID,
		TaskID:      assign.TaskID,
		SenderID:    assign.RecipientID,
		RecipientID: assign.SenderID,
		Kind:        MessageKindResult,
		Payload:     ResultPayload{Artifact: artifact},
		Timestamp:   ts,
	}
}

// NewErrorReply carries the structured terminal error back to the sender of
// the assignment envelope.
func NewErrorReply(id string, assign Message, terr *TaskError, ts time.Time) Message {
	return Message{
		ID:          id,
		RunID:       assign.RunID,
		TaskID:      assign.TaskID,
		SenderID:    assign.RecipientID,
		RecipientID: assign.SenderID,
		Kind:        MessageKindError,
		Payload:     ErrorPayload{Err: terr},
		Timestamp:   ts,
	}
}

// Assign returns the assign payload when the message is an assignment.
func (m Message) Assign() (AssignPayload, bool) {
	p, ok := m.Payload.(AssignPayload)
	return p, ok
}

// Status returns the status payload when the message is a status update.
func (m Message) Status() (StatusPayload, bool) {
	p, ok := m.Payload.(StatusPayload)
	return p, ok
}

// Result returns the result payload when the message carries an artifact.
func (m Message) Result() (ResultPayload, bool) {
	p, ok := m.Payload.(ResultPayload)
	return p, ok
}

// Failure returns the error payload when the message reports a failure.
func (m Message) Failure() (ErrorPayload, bool) {
	p, ok := m.Payload.(ErrorPayload)
	return p, ok
}
