package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/hupe1980/contentmesh/artifact"
	"github.com/hupe1980/contentmesh/core"
	"github.com/hupe1980/contentmesh/logging"
	"github.com/hupe1980/contentmesh/runlog"
	"github.com/hupe1980/contentmesh/task"
)

// Config defines tuning parameters for the orchestrator's dispatch behavior.
type Config struct {
	// AssignTimeout bounds how long AssignTaskAndWait waits for the terminal
	// reply of one assignment before failing the task with a TIMEOUT error.
	AssignTimeout time.Duration
}

// DefaultConfig provides production-ready defaults.
func DefaultConfig() Config {
	return Config{
		AssignTimeout: 300 * time.Second,
	}
}

// Options configures an Orchestrator. All service dependencies have in-memory
// defaults so a bare New() is immediately usable.
type Options struct {
	// ID is the orchestrator's own id used as message sender.
	ID string

	// Config contains operational parameters. Defaults to DefaultConfig().
	Config Config

	// TaskStore persists task records. Defaults to the in-memory store.
	TaskStore core.TaskStore

	// ArtifactStore accumulates produced artifacts. Defaults to in-memory.
	ArtifactStore core.ArtifactStore

	// RunStore persists run records and message logs. Defaults to in-memory.
	RunStore core.RunStore

	// IDGenerator mints run, task, message and artifact ids.
	IDGenerator core.IDGenerator

	// Clock supplies timestamps. Defaults to time.Now.
	Clock core.Clock

	// Logger receives structured coordination logs. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Orchestrator owns the agent registry, mints and tracks tasks, routes
// messages synchronously in-process and sequences the content workflow.
//
// All exported methods are safe for concurrent use. Within one run, dispatch
// is sequential: AssignTaskAndWait is the suspension point.
type Orchestrator struct {
	id     string
	config Config

	tasks     core.TaskStore
	artifacts core.ArtifactStore
	runs      core.RunStore

	idGen  core.IDGenerator
	clock  core.Clock
	logger logging.Logger

	// Agent registry
	mu           sync.RWMutex
	agents       map[string]core.Agent // by agent id
	agentOrder   []string              // registration order for stable listings
	capabilities map[string]string     // capability name -> first registrant's id

	// Task state gate: serializes status application against terminal
	// resolution so a racing status report cannot overwrite a terminal state.
	taskMu       sync.Mutex
	lastReported map[string]core.TaskStatus // last applied status report per task
}

// New creates an orchestrator with in-memory stores, a UUID id generator, the
// wall clock and a no-op logger unless overridden via options.
func New(optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		ID:            "orchestrator",
		Config:        DefaultConfig(),
		TaskStore:     task.NewInMemoryStore(),
		ArtifactStore: artifact.NewInMemoryStore(),
		RunStore:      runlog.NewInMemoryStore(),
		IDGenerator:   core.UUIDGenerator{},
		Clock:         time.Now,
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Config.AssignTimeout <= 0 {
		opts.Config.AssignTimeout = DefaultConfig().AssignTimeout
	}

	return &Orchestrator{
		id:           opts.ID,
		config:       opts.Config,
		tasks:        opts.TaskStore,
		artifacts:    opts.ArtifactStore,
		runs:         opts.RunStore,
		idGen:        opts.IDGenerator,
		clock:        opts.Clock,
		logger:       opts.Logger,
		agents:       make(map[string]core.Agent),
		capabilities: make(map[string]string),
		lastReported: make(map[string]core.TaskStatus),
	}
}

// ID returns the orchestrator's id used as message sender.
func (o *Orchestrator) ID() string { return o.id }

// RegisterAgent adds an agent to the registry and indexes its capabilities.
// An id collision returns *core.DuplicateAgentError. The first registrant of a
// capability name serves capability lookups; later agents carrying the same
// capability stay reachable by agent id and the shadowing is logged.
func (o *Orchestrator) RegisterAgent(a core.Agent) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, exists := o.agents[a.ID()]; exists {
		return &core.DuplicateAgentError{AgentID: a.ID()}
	}
	o.agents[a.ID()] = a
	o.agentOrder = append(o.agentOrder, a.ID())

	card := a.Card()
	for _, spec := range card.Capabilities {
		if holder, taken := o.capabilities[spec.Name]; taken {
			o.logger.Warn("orchestrator.capability.shadowed capability=%s held_by=%s shadowed=%s",
				spec.Name, holder, a.ID())
			continue
		}
		o.capabilities[spec.Name] = a.ID()
	}

	o.logger.Info("orchestrator.agent.registered agent=%s name=%q capabilities=%d",
		a.ID(), a.Name(), len(card.Capabilities))
	return nil
}

// Agent returns the registered agent with the given id.
func (o *Orchestrator) Agent(id string) (core.Agent, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	a, ok := o.agents[id]
	return a, ok
}

// AgentForCapability returns the agent serving the capability name, or
// *core.UnknownCapabilityError when nothing serves it.
func (o *Orchestrator) AgentForCapability(name string) (core.Agent, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	id, ok := o.capabilities[name]
	if !ok {
		return nil, &core.UnknownCapabilityError{Capability: name}
	}
	return o.agents[id], nil
}

// Cards returns the discovery cards of all registered agents in registration
// order.
func (o *Orchestrator) Cards() []core.AgentCard {
	o.mu.RLock()
	defer o.mu.RUnlock()

	cards := make([]core.AgentCard, 0, len(o.agentOrder))
	for _, id := range o.agentOrder {
		cards = append(cards, o.agents[id].Card())
	}
	return cards
}

// agentReply carries the outcome of one HandleMessage dispatch.
type agentReply struct {
	msg core.Message
	err error
}

// AssignTaskAndWait mints a task for the agent, delivers the assignment and
// blocks until the terminal reply, the context deadline or the configured
// assignment timeout.
//
// An unknown agent id returns *core.UnknownAgentError without minting a task.
// Otherwise the returned task is terminal, and the error is non-nil if and
// only if the task failed (wrapping the task's *core.TaskError), so callers
// may branch on either.
func (o *Orchestrator) AssignTaskAndWait(ctx context.Context, runID, agentID, capability string, in core.Input) (core.Task, error) {
	agent, ok := o.Agent(agentID)
	if !ok {
		return core.Task{}, &core.UnknownAgentError{AgentID: agentID}
	}

	t := core.Task{
		ID:             o.idGen.NewID(),
		RunID:          runID,
		OrchestratorID: o.id,
		AgentID:        agentID,
		Capability:     capability,
		Input:          in.Clone(),
		Status:         core.TaskStatusCreated,
		CreatedAt:      o.clock(),
	}
	if err := o.tasks.Put(t); err != nil {
		return core.Task{}, fmt.Errorf("store task: %w", err)
	}

	assign := core.NewAssignMessage(o.idGen.NewID(), t, o.clock())
	o.logMessage(runID, assign)

	if err := t.Transition(core.TaskStatusAssigned); err != nil {
		return core.Task{}, err
	}
	if err := o.tasks.Put(t); err != nil {
		return core.Task{}, fmt.Errorf("store task: %w", err)
	}
	o.logger.Debug("orchestrator.task.assigned task_id=%s agent=%s capability=%s run_id=%s",
		t.ID, agentID, capability, runID)

	// abandoned tells the dispatch goroutine the waiter has resolved the task,
	// so a late reply is dropped and logged instead of handed off.
	replyCh := make(chan agentReply)
	abandoned := make(chan struct{})

	emit := func(m core.Message) {
		o.logMessage(runID, m)
		o.applyStatusReport(t.ID, m)
	}

	go func() {
		reply, err := agent.HandleMessage(ctx, assign, emit)
		select {
		case replyCh <- agentReply{msg: reply, err: err}:
		case <-abandoned:
			o.logger.Warn("orchestrator.reply.late task_id=%s agent=%s refused=%t",
				t.ID, agentID, err != nil)
		}
	}()

	timer := time.NewTimer(o.config.AssignTimeout)
	defer timer.Stop()

	select {
	case reply := <-replyCh:
		return o.resolve(runID, t.ID, agentID, capability, reply)

	case <-ctx.Done():
		close(abandoned)
		terr := &core.TaskError{
			Code:       core.ErrorCodeTimeout,
			AgentID:    agentID,
			Capability: capability,
			Message:    fmt.Sprintf("assignment cancelled: %v", ctx.Err()),
		}
		return o.failTask(t.ID, terr)

	case <-timer.C:
		close(abandoned)
		terr := core.NewTimeoutError(capability, o.config.AssignTimeout)
		terr.AgentID = agentID
		return o.failTask(t.ID, terr)
	}
}

// resolve applies the terminal reply of an assignment to the task store.
func (o *Orchestrator) resolve(runID, taskID, agentID, capability string, reply agentReply) (core.Task, error) {
	// Protocol refusal: the agent never ran a handler. The task fails with the
	// refusal classified into a TaskError.
	if reply.err != nil {
		terr := o.classifyRefusal(agentID, capability, reply.err)
		o.logger.Warn("orchestrator.assign.refused task_id=%s agent=%s code=%s: %v",
			taskID, agentID, terr.Code, reply.err)
		return o.failTask(taskID, terr)
	}

	msg := reply.msg
	o.logMessage(runID, msg)

	// A terminal reply must refer to the task it answers and come from the
	// agent the task was issued to. Mismatches are never applied.
	if msg.TaskID != taskID || msg.SenderID != agentID {
		o.logger.Warn("orchestrator.reply.mismatch task_id=%s agent=%s reply_task_id=%s reply_sender=%s",
			taskID, agentID, msg.TaskID, msg.SenderID)
		terr := &core.TaskError{
			Code:       core.ErrorCodeExecution,
			AgentID:    agentID,
			Capability: capability,
			Message:    "terminal reply did not match the issued task",
		}
		return o.failTask(taskID, terr)
	}

	switch msg.Kind {
	case core.MessageKindResult:
		result, _ := msg.Result()
		return o.completeTask(runID, taskID, result.Artifact)

	case core.MessageKindError:
		failure, _ := msg.Failure()
		terr := failure.Err
		if terr == nil {
			terr = &core.TaskError{
				Code:       core.ErrorCodeExecution,
				AgentID:    agentID,
				Capability: capability,
				Message:    "error reply carried no error",
			}
		}
		return o.failTask(taskID, terr)

	default:
		terr := &core.TaskError{
			Code:       core.ErrorCodeExecution,
			AgentID:    agentID,
			Capability: capability,
			Message:    fmt.Sprintf("unexpected terminal reply kind %q", msg.Kind),
		}
		return o.failTask(taskID, terr)
	}
}

// classifyRefusal maps a protocol-level refusal onto a TaskError.
func (o *Orchestrator) classifyRefusal(agentID, capability string, err error) *core.TaskError {
	var unknownCap *core.UnknownCapabilityError
	if errors.As(err, &unknownCap) {
		return &core.TaskError{
			Code:       core.ErrorCodeUnknownCapability,
			AgentID:    agentID,
			Capability: capability,
			Message:    err.Error(),
		}
	}
	terr := core.AsTaskError(capability, err)
	terr.AgentID = agentID
	return terr
}

// completeTask stores the artifact and marks the task completed. A task still
// in assigned state is caught up through in_progress first, keeping the
// lifecycle monotonic when the agent's in_progress report was not observed.
func (o *Orchestrator) completeTask(runID, taskID string, a core.Artifact) (core.Task, error) {
	if err := o.artifacts.Save(runID, a); err != nil {
		terr := &core.TaskError{
			Code:    core.ErrorCodeExecution,
			Message: fmt.Sprintf("store artifact: %v", err),
		}
		return o.failTask(taskID, terr)
	}

	o.taskMu.Lock()
	defer o.taskMu.Unlock()
	delete(o.lastReported, taskID)

	t, err := o.tasks.Get(taskID)
	if err != nil {
		return core.Task{}, err
	}
	if t.Status == core.TaskStatusAssigned {
		if err := t.Transition(core.TaskStatusInProgress); err != nil {
			return core.Task{}, err
		}
	}
	if err := t.Complete(a.ID, o.clock()); err != nil {
		return core.Task{}, err
	}
	if err := o.tasks.Put(t); err != nil {
		return core.Task{}, fmt.Errorf("store task: %w", err)
	}

	o.logger.Info("orchestrator.task.completed task_id=%s agent=%s capability=%s artifact_id=%s artifact_kind=%s degraded=%t",
		t.ID, t.AgentID, t.Capability, a.ID, a.Kind, a.Degraded)
	return t, nil
}

// failTask marks the task failed with the given error. The returned error
// wraps the TaskError so callers observe the failure on the error path too.
func (o *Orchestrator) failTask(taskID string, terr *core.TaskError) (core.Task, error) {
	o.taskMu.Lock()
	defer o.taskMu.Unlock()
	delete(o.lastReported, taskID)

	t, err := o.tasks.Get(taskID)
	if err != nil {
		return core.Task{}, err
	}
	if err := t.Fail(terr, o.clock()); err != nil {
		return core.Task{}, err
	}
	if err := o.tasks.Put(t); err != nil {
		return core.Task{}, fmt.Errorf("store task: %w", err)
	}

	o.logger.Error("orchestrator.task.failed task_id=%s agent=%s capability=%s code=%s: %s",
		t.ID, t.AgentID, t.Capability, terr.Code, terr.Message)
	return t, fmt.Errorf("task %s failed: %w", t.ID, terr)
}

// applyStatusReport applies an agent's status_update to the task store. The
// store stays authoritative: duplicate reports are suppressed, terminal
// reports are advisory only (terminal state is applied from the result or
// error reply), and reports for already-terminal tasks are dropped.
func (o *Orchestrator) applyStatusReport(taskID string, m core.Message) {
	status, ok := m.Status()
	if !ok || m.TaskID != taskID {
		return
	}

	o.taskMu.Lock()
	defer o.taskMu.Unlock()

	if last, seen := o.lastReported[taskID]; seen && last == status.Status {
		o.logger.Debug("orchestrator.status.duplicate task_id=%s status=%s", taskID, status.Status)
		return
	}
	o.lastReported[taskID] = status.Status

	if status.Status.IsTerminal() {
		o.logger.Debug("orchestrator.status.advisory task_id=%s status=%s", taskID, status.Status)
		return
	}

	t, err := o.tasks.Get(taskID)
	if err != nil {
		o.logger.Warn("orchestrator.status.orphan task_id=%s: %v", taskID, err)
		return
	}
	if t.Status.IsTerminal() {
		o.logger.Debug("orchestrator.status.stale task_id=%s status=%s", taskID, status.Status)
		return
	}
	if t.Status == core.TaskStatusAssigned && status.Status == core.TaskStatusInProgress {
		if err := t.Transition(core.TaskStatusInProgress); err != nil {
			o.logger.Warn("orchestrator.status.invalid task_id=%s: %v", taskID, err)
			return
		}
		if err := o.tasks.Put(t); err != nil {
			o.logger.Warn("orchestrator.status.store task_id=%s: %v", taskID, err)
			return
		}
		o.logger.Debug("orchestrator.task.in_progress task_id=%s agent=%s", taskID, t.AgentID)
	}
}

// logMessage appends a message to the run's observational log. Messages
// outside any run (or for an unknown run) are skipped.
func (o *Orchestrator) logMessage(runID string, m core.Message) {
	if runID == "" {
		return
	}
	if err := o.runs.AppendMessage(runID, m); err != nil {
		o.logger.Debug("orchestrator.runlog.skip run_id=%s message_id=%s: %v", runID, m.ID, err)
	}
}

// Task returns a copy of the stored task record.
func (o *Orchestrator) Task(id string) (core.Task, error) {
	return o.tasks.Get(id)
}

// Run returns the run record with its message log.
func (o *Orchestrator) Run(runID string) (*core.Run, error) {
	return o.runs.Get(runID)
}

// Artifact returns a stored artifact of the run.
func (o *Orchestrator) Artifact(runID, artifactID string) (core.Artifact, error) {
	return o.artifacts.Get(runID, artifactID)
}

// LatestArtifactOfKind returns the most recently stored artifact of the kind
// within the run.
func (o *Orchestrator) LatestArtifactOfKind(runID string, kind core.ArtifactKind) (core.Artifact, error) {
	return o.artifacts.LatestOfKind(runID, kind)
}

// WriteRunRecords streams the run's flat task records as JSONL, one record
// per line in task creation order.
func (o *Orchestrator) WriteRunRecords(w io.Writer, runID string) error {
	tasks, err := o.tasks.ListByRun(runID)
	if err != nil {
		return err
	}

	records := make([]core.TaskRecord, 0, len(tasks))
	for _, t := range tasks {
		var kind core.ArtifactKind
		size := 0
		if t.ArtifactID != "" {
			if a, err := o.artifacts.Get(runID, t.ArtifactID); err == nil {
				kind = a.Kind
				size = a.Size()
			}
		}
		records = append(records, t.Record(kind, size))
	}
	return runlog.WriteRecords(w, records)
}
