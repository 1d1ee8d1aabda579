package core

import "context"

// EmitFunc delivers an out-of-band message (a status update) to the
// orchestrator while an assignment is executing. Implementations must be safe
// to call from the goroutine running the assignment.
type EmitFunc func(Message)

// Agent is a named actor exposing a fixed set of capabilities. It consumes
// assignment messages and produces result or error messages, executing at
// most one assignment at a time.
type Agent interface {
	// ID returns the unique agent identifier used for routing.
	ID() string

	// Name returns the human-readable display name.
	Name() string

	// Card describes the agent and its registered capabilities for discovery.
	Card() AgentCard

	// HandleMessage executes an assignment and returns the terminal result or
	// error message. Intermediate status updates flow through emit. A non-nil
	// error reports a protocol-level refusal (wrong recipient, unexpected
	// kind, unknown capability) decided before any handler runs; capability
	// handlers themselves never raise past this boundary.
	HandleMessage(ctx context.Context, msg Message, emit EmitFunc) (Message, error)
}

// AgentCard describes an agent for discovery and listing.
type AgentCard struct {
	AgentID      string           `json:"agent_id"`
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	Capabilities []CapabilitySpec `json:"capabilities"`
}

// CapabilitySpec declares one named operation an agent can perform. The input
// schema documents the assignment parameters in JSON-schema shape; it is
// derived once at registration time, never at dispatch.
type CapabilitySpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema,omitempty"`
}
