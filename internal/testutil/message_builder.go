package testutil

import (
	"time"

	"github.com/hupe1980/contentmesh/core"
)

// MessageBuilder provides a fluent helper for constructing messages in tests.
// Example:
//
//	msg := NewMessageBuilder("msg-1").From("orchestrator-1").To("writer").Assign("write_draft", input).Build()
//
// The payload setters also set the matching message kind.
type MessageBuilder struct {
	id        string
	runID     string
	taskID    string
	sender    string
	recipient string
	kind      core.MessageKind
	payload   core.Payload
	timestamp time.Time
}

// NewMessageBuilder creates a builder for a message with the given id.
func NewMessageBuilder(id string) *MessageBuilder {
	return &MessageBuilder{
		id:        id,
		runID:     "run-1",
		taskID:    "task-1",
		sender:    "orchestrator-1",
		recipient: "agent-1",
		kind:      core.MessageKindAssign,
		payload:   core.AssignPayload{Capability: "research_topic", Input: core.Input{"topic": "edge computing"}},
		timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

// Run sets the run ID (chainable).
func (b *MessageBuilder) Run(runID string) *MessageBuilder { b.runID = runID; return b }

// Task sets the task ID the message refers to (chainable).
func (b *MessageBuilder) Task(taskID string) *MessageBuilder { b.taskID = taskID; return b }

// From sets the sender ID (chainable).
func (b *MessageBuilder) From(id string) *MessageBuilder { b.sender = id; return b }

// To sets the recipient ID (chainable).
func (b *MessageBuilder) To(id string) *MessageBuilder { b.recipient = id; return b }

// At overrides the message timestamp (chainable).
func (b *MessageBuilder) At(ts time.Time) *MessageBuilder { b.timestamp = ts; return b }

// Assign sets an assignment payload and kind (chainable).
func (b *MessageBuilder) Assign(capability string, input core.Input) *MessageBuilder {
	b.kind = core.MessageKindAssign
	b.payload = core.AssignPayload{Capability: capability, Input: input}
	return b
}

// Status sets a status update payload and kind (chainable).
func (b *MessageBuilder) Status(status core.TaskStatus) *MessageBuilder {
	b.kind = core.MessageKindStatusUpdate
	b.payload = core.StatusPayload{Status: status}
	return b
}

// Result sets a result payload and kind (chainable).
func (b *MessageBuilder) Result(a core.Artifact) *MessageBuilder {
	b.kind = core.MessageKindResult
	b.payload = core.ResultPayload{Artifact: a}
	return b
}

// Failure sets an error payload and kind (chainable).
func (b *MessageBuilder) Failure(terr *core.TaskError) *MessageBuilder {
	b.kind = core.MessageKindError
	b.payload = core.ErrorPayload{Err: terr}
	return b
}

// Build constructs the core.Message value.
func (b *MessageBuilder) Build() core.Message {
	return core.Message{
		ID:          b.id,
		RunID:       b.runID,
		TaskID:      b.taskID,
		SenderID:    b.sender,
		RecipientID: b.recipient,
		Kind:        b.kind,
		Payload:     b.payload,
		Timestamp:   b.timestamp,
	}
}
