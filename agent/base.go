package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/contentmesh/core"
	"github.com/hupe1980/contentmesh/logging"
)

// BaseOptions configure a BaseAgent. All fields have working defaults so an
// agent can be constructed with just an id and a name.
type BaseOptions struct {
	Description string
	IDGenerator core.IDGenerator
	Clock       core.Clock
	Logger      logging.Logger
}

// BaseAgent bundles the capability registry and assignment dispatch shared by
// all agents. Embed it in concrete agent implementations and register
// capabilities in the constructor. All exported methods are goroutine-safe;
// assignment execution is serialized so the agent processes at most one
// assignment at a time.
type BaseAgent struct {
	id          string
	name        string
	description string

	mu       sync.Mutex             // Protects the capability registry
	caps     map[string]*Capability // Registered capabilities by name
	capOrder []string               // Registration order for stable cards

	execMu sync.Mutex // Single-assignment admission lock

	idGen  core.IDGenerator
	clock  core.Clock
	logger logging.Logger
}

// Compile-time check that BaseAgent satisfies the core.Agent interface.
var _ core.Agent = (*BaseAgent)(nil)

// NewBaseAgent constructs a BaseAgent with the given identity. Ids and
// timestamps come from the injected generator and clock; defaults are a UUID
// generator, the wall clock and a no-op logger.
func NewBaseAgent(id, name string, optFns ...func(o *BaseOptions)) BaseAgent {
	opts := BaseOptions{
		Description: fmt.Sprintf("Agent %s", name),
		IDGenerator: core.UUIDGenerator{},
		Clock:       time.Now,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return BaseAgent{
		id:          id,
		name:        name,
		description: opts.Description,
		caps:        make(map[string]*Capability),
		idGen:       opts.IDGenerator,
		clock:       opts.Clock,
		logger:      opts.Logger,
	}
}

// ID returns the unique agent id used for message addressing.
func (b *BaseAgent) ID() string { return b.id }

// Name returns the human-readable name for this agent.
func (b *BaseAgent) Name() string { return b.name }

// Description returns a detailed description of this agent's purpose.
func (b *BaseAgent) Description() string { return b.description }

// RegisterCapability adds a named capability to the agent. The name must be
// unique for this agent; a collision returns *core.DuplicateCapabilityError
// and leaves the first registered handler in effect.
func (b *BaseAgent) RegisterCapability(c *Capability) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.caps[c.Name()]; exists {
		return &core.DuplicateCapabilityError{AgentID: b.id, Capability: c.Name()}
	}
	b.caps[c.Name()] = c
	b.capOrder = append(b.capOrder, c.Name())
	return nil
}

// MustRegisterCapability registers a capability and panics on a duplicate
// name. Intended for constructors wiring a fixed capability set.
func (b *BaseAgent) MustRegisterCapability(c *Capability) {
	if err := b.RegisterCapability(c); err != nil {
		panic(err)
	}
}

// Capability returns the registered capability with the given name.
func (b *BaseAgent) Capability(name string) (*Capability, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.caps[name]
	return c, ok
}

// Capabilities returns the registered capability names in registration order.
func (b *BaseAgent) Capabilities() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.capOrder...)
}

// Card returns the agent's discovery card listing its capabilities.
func (b *BaseAgent) Card() core.AgentCard {
	b.mu.Lock()
	defer b.mu.Unlock()

	specs := make([]core.CapabilitySpec, 0, len(b.capOrder))
	for _, name := range b.capOrder {
		specs = append(specs, b.caps[name].Spec())
	}
	return core.AgentCard{
		AgentID:      b.id,
		Name:         b.name,
		Description:  b.description,
		Capabilities: specs,
	}
}

// HandleMessage serves an assign message and returns the reply envelope.
//
// A non-nil error means the message was refused before any handler ran
// (wrong recipient, unsupported kind, unknown capability); the caller decides
// how to record the refusal. Execution failures never surface as Go errors:
// they are classified into a *core.TaskError and returned as an error message
// so the failure is reported, not thrown.
func (b *BaseAgent) HandleMessage(ctx context.Context, msg core.Message, emit core.EmitFunc) (core.Message, error) {
	if msg.RecipientID != b.id {
		return core.Message{}, fmt.Errorf("agent %s: message %s addressed to %s", b.id, msg.ID, msg.RecipientID)
	}
	assign, ok := msg.Assign()
	if !ok {
		return core.Message{}, fmt.Errorf("agent %s: unsupported message kind %q", b.id, msg.Kind)
	}
	capability, ok := b.Capability(assign.Capability)
	if !ok {
		return core.Message{}, &core.UnknownCapabilityError{AgentID: b.id, Capability: assign.Capability}
	}

	// One assignment at a time.
	b.execMu.Lock()
	defer b.execMu.Unlock()

	b.logger.Debug("agent.handle.start agent=%s capability=%s task_id=%s",
		b.id, assign.Capability, msg.TaskID)
	start := b.clock()

	b.emitStatus(emit, msg, core.TaskStatusInProgress)

	cctx := &Context{ctx: ctx, agent: b, msg: msg}
	artifact, err := capability.Invoke(cctx, assign.Input)
	if err != nil {
		terr := core.AsTaskError(assign.Capability, err)
		terr.AgentID = b.id

		b.logger.Error("agent.handle.error agent=%s capability=%s task_id=%s code=%s: %s",
			b.id, assign.Capability, msg.TaskID, terr.Code, terr.Message)

		b.emitStatus(emit, msg, core.TaskStatusFailed)
		return core.NewErrorReply(b.idGen.NewID(), msg, terr, b.clock()), nil
	}

	b.logger.Info("agent.handle.success agent=%s capability=%s task_id=%s artifact_id=%s degraded=%t duration_ms=%d",
		b.id, assign.Capability, msg.TaskID, artifact.ID, artifact.Degraded,
		b.clock().Sub(start).Milliseconds())

	b.emitStatus(emit, msg, core.TaskStatusCompleted)
	return core.NewResultReply(b.idGen.NewID(), msg, artifact, b.clock()), nil
}

// emitStatus reports a task transition back to the orchestrator. The reports
// are advisory; the authoritative task state lives in the orchestrator's
// task store.
func (b *BaseAgent) emitStatus(emit core.EmitFunc, assign core.Message, status core.TaskStatus) {
	if emit == nil {
		return
	}
	emit(core.NewStatusReply(b.idGen.NewID(), assign, status, b.clock()))
}

// applyBaseOverrides copies non-nil injected collaborators into the base options.
func applyBaseOverrides(o *BaseOptions, idGen core.IDGenerator, clock core.Clock, logger logging.Logger) {
	if idGen != nil {
		o.IDGenerator = idGen
	}
	if clock != nil {
		o.Clock = clock
	}
	if logger != nil {
		o.Logger = logger
	}
}
