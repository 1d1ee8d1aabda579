package core

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode classifies the structured errors attached to failed tasks.
type ErrorCode string

const (
	// ErrorCodeTransient marks an external collaborator failure (unreachable,
	// rate-limited) that may succeed on retry.
	ErrorCodeTransient ErrorCode = "TRANSIENT_EXTERNAL_FAILURE"

	// ErrorCodePermanent marks malformed or invalid assignment input that no
	// retry can fix.
	ErrorCodePermanent ErrorCode = "PERMANENT_INPUT_FAILURE"

	// ErrorCodeTimeout marks an assignment that exceeded the orchestrator's
	// wait.
	ErrorCodeTimeout ErrorCode = "TIMEOUT"

	// ErrorCodeUnknownCapability marks an assignment addressed to a
	// capability the agent never registered.
	ErrorCodeUnknownCapability ErrorCode = "UNKNOWN_CAPABILITY"

	// ErrorCodeExecution marks an unclassified capability handler fault.
	ErrorCodeExecution ErrorCode = "EXECUTION_ERROR"
)

// TaskError is the structured, serializable error attached to failed tasks
// and carried by error messages. Capability failures are reported through it,
// never thrown across the orchestrator boundary.
type TaskError struct {
	Code       ErrorCode         `json:"code"`
	AgentID    string            `json:"agent_id,omitempty"`
	Capability string            `json:"capability,omitempty"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
}

// Error implements the error interface for TaskError.
func (e *TaskError) Error() string {
	if e.Capability != "" {
		return fmt.Sprintf("task error [%s] in %s: %s", e.Code, e.Capability, e.Message)
	}
	return fmt.Sprintf("task error [%s]: %s", e.Code, e.Message)
}

// NewTransientError reports an external collaborator failure for a capability.
func NewTransientError(capability, format string, args ...any) *TaskError {
	return &TaskError{Code: ErrorCodeTransient, Capability: capability, Message: fmt.Sprintf(format, args...)}
}

// NewPermanentError reports invalid assignment input for a capability.
func NewPermanentError(capability, format string, args ...any) *TaskError {
	return &TaskError{Code: ErrorCodePermanent, Capability: capability, Message: fmt.Sprintf(format, args...)}
}

// NewTimeoutError reports an assignment that did not resolve within timeout.
func NewTimeoutError(capability string, timeout time.Duration) *TaskError {
	return &TaskError{Code: ErrorCodeTimeout, Capability: capability, Message: fmt.Sprintf("assignment did not finish within %s", timeout)}
}

// AsTaskError classifies err into a TaskError. TaskError values pass through
// unchanged; anything else becomes an EXECUTION_ERROR for the capability.
func AsTaskError(capability string, err error) *TaskError {
	var terr *TaskError
	if errors.As(err, &terr) {
		return terr
	}
	return &TaskError{Code: ErrorCodeExecution, Capability: capability, Message: err.Error()}
}

// IsTransient reports whether err carries the transient error code.
func IsTransient(err error) bool {
	var terr *TaskError
	return errors.As(err, &terr) && terr.Code == ErrorCodeTransient
}

// UnknownAgentError reports a routing target absent from the registry.
type UnknownAgentError struct {
	AgentID string
}

// Error implements the error interface for UnknownAgentError.
func (e *UnknownAgentError) Error() string {
	return fmt.Sprintf("unknown agent: %s", e.AgentID)
}

// UnknownCapabilityError reports a capability name no handler is registered
// for. AgentID is empty when the lookup spanned the whole registry.
type UnknownCapabilityError struct {
	AgentID    string
	Capability string
}

// Error implements the error interface for UnknownCapabilityError.
func (e *UnknownCapabilityError) Error() string {
	if e.AgentID == "" {
		return fmt.Sprintf("no agent provides capability %q", e.Capability)
	}
	return fmt.Sprintf("agent %s has no capability %q", e.AgentID, e.Capability)
}

// DuplicateAgentError reports an agent id collision in the registry.
type DuplicateAgentError struct {
	AgentID string
}

// Error implements the error interface for DuplicateAgentError.
func (e *DuplicateAgentError) Error() string {
	return fmt.Sprintf("agent already registered: %s", e.AgentID)
}

// DuplicateCapabilityError reports a capability name collision on one agent.
// The first registered handler stays in effect.
type DuplicateCapabilityError struct {
	AgentID    string
	Capability string
}

// Error implements the error interface for DuplicateCapabilityError.
func (e *DuplicateCapabilityError) Error() string {
	return fmt.Sprintf("agent %s already has capability %q", e.AgentID, e.Capability)
}

// UnknownAgentTypeError reports an agent-type name absent from the factory's
// registration table.
type UnknownAgentTypeError struct {
	TypeName string
}

// Error implements the error interface for UnknownAgentTypeError.
func (e *UnknownAgentTypeError) Error() string {
	return fmt.Sprintf("unknown agent type: %s", e.TypeName)
}

// NoArtifactOfKindError reports an artifact-kind lookup that found nothing
// for the run.
type NoArtifactOfKindError struct {
	RunID string
	Kind  ArtifactKind
}

// Error implements the error interface for NoArtifactOfKindError.
func (e *NoArtifactOfKindError) Error() string {
	return fmt.Sprintf("run %s has no artifact of kind %q", e.RunID, e.Kind)
}
