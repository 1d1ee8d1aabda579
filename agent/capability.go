package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/contentmesh/core"
	"github.com/hupe1980/contentmesh/internal/util"
	"github.com/hupe1980/contentmesh/logging"
)

// Handler executes a single capability invocation. It receives the invocation
// context plus the validated input payload and must return either an artifact
// or an error; it must not panic past the agent boundary.
type Handler func(ctx *Context, input core.Input) (core.Artifact, error)

// Context carries per-invocation state into capability handlers: the ambient
// context, the assign envelope being served and the owning agent's injected
// id generator, clock and logger.
type Context struct {
	ctx   context.Context
	agent *BaseAgent
	msg   core.Message
}

// Context returns the ambient context for the invocation.
func (c *Context) Context() context.Context { return c.ctx }

// TaskID returns the id of the task being executed.
func (c *Context) TaskID() string { return c.msg.TaskID }

// RunID returns the id of the run the task belongs to.
func (c *Context) RunID() string { return c.msg.RunID }

// Logger returns the owning agent's logger.
func (c *Context) Logger() logging.Logger { return c.agent.logger }

// NewArtifact builds an artifact attributed to the current task, with id and
// timestamp drawn from the owning agent's injected generator and clock.
func (c *Context) NewArtifact(kind core.ArtifactKind, contentType string, body []byte) core.Artifact {
	return core.Artifact{
		ID:          c.agent.idGen.NewID(),
		TaskID:      c.msg.TaskID,
		Kind:        kind,
		ContentType: contentType,
		Body:        body,
		CreatedAt:   c.agent.clock(),
	}
}

// Capability couples a named skill with its input schema and handler.
//
// A Capability has no internal mutable state after construction and is safe
// for concurrent use by multiple goroutines.
type Capability struct {
	// Capability identifier (snake_case recommended)
	name string
	// Human-readable description exposed on the agent card
	description string
	// JSON schema describing the accepted input payload
	inputSchema map[string]any
	// User supplied implementation
	handler Handler
}

// NewCapability constructs a Capability from an explicit schema and handler.
func NewCapability(name, description string, inputSchema map[string]any, handler Handler) *Capability {
	return &Capability{
		name:        name,
		description: description,
		inputSchema: inputSchema,
		handler:     handler,
	}
}

// NewCapabilityFromStruct derives the input schema from a struct using
// reflection. Reflection runs at registration time only, never at dispatch.
//
// Example:
//
//	type researchInput struct {
//	  Topic string `json:"topic" description:"Topic to research"`
//	}
//
//	cap := NewCapabilityFromStruct(
//	  "research_topic",
//	  "Research a topic and summarize findings",
//	  researchInput{},
//	  func(ctx *Context, input core.Input) (core.Artifact, error) { ... },
//	)
func NewCapabilityFromStruct(name, description string, structType any, handler Handler) *Capability {
	return NewCapability(name, description, util.CreateSchema(structType), handler)
}

// Name returns the unique capability name used in assignment routing.
func (c *Capability) Name() string { return c.name }

// Description returns the short natural language description of the capability.
func (c *Capability) Description() string { return c.description }

// InputSchema returns the (minimal) JSON schema describing the expected input.
func (c *Capability) InputSchema() map[string]any { return c.inputSchema }

// Spec returns the capability description published on agent cards.
func (c *Capability) Spec() core.CapabilitySpec {
	return core.CapabilitySpec{
		Name:        c.name,
		Description: c.description,
		InputSchema: c.inputSchema,
	}
}

// Invoke validates the input against the declared schema then runs the
// handler. Validation and execution failures are wrapped (or passed through)
// as *core.TaskError for uniform downstream handling.
//
// Error semantics:
//
//	*core.TaskError (returned directly) -> forwarded unchanged
//	validation failure                  -> PERMANENT_INPUT_FAILURE
//	other error                         -> EXECUTION_ERROR
func (c *Capability) Invoke(cctx *Context, input core.Input) (core.Artifact, error) {
	if err := util.ValidateInput(input, c.inputSchema); err != nil {
		terr := core.NewPermanentError(c.name, "input validation failed: %v", err)
		var vErr *util.ValidationError
		if errors.As(err, &vErr) {
			terr.Details = map[string]string{"field": vErr.Field}
		}
		return core.Artifact{}, terr
	}

	artifact, err := c.run(cctx, input)
	if err != nil {
		return core.Artifact{}, core.AsTaskError(c.name, err)
	}
	if artifact.ID == "" {
		return core.Artifact{}, core.AsTaskError(c.name, fmt.Errorf("handler returned artifact without id"))
	}
	return artifact, nil
}

// run executes the handler, converting panics into errors so a faulty handler
// fails its task instead of tearing down the process.
func (c *Capability) run(cctx *Context, input core.Input) (artifact core.Artifact, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return c.handler(cctx, input)
}
