// Package contentmesh provides a high-level façade over the orchestrator and
// service abstractions (tasks, artifacts, run logs & logging) enabling rapid
// construction of agent-driven content pipelines. Most applications interact
// with this package by:
//  1. Creating a ContentMesh via New() (optionally overriding default in‑memory stores)
//  2. Registering one or more agents (the built‑in pipeline agents or custom ones)
//  3. Running the fixed workflow (RunWorkflow) or assigning single tasks (AssignTask)
//
// The façade delegates coordination to orchestrator.Orchestrator while keeping
// setup and usage ergonomics concise. All defaults are safe for local
// development and testing; production deployments typically supply real model
// and search backends and tune the orchestrator configuration.
package contentmesh

import (
	"context"
	"io"
	"time"

	"github.com/hupe1980/contentmesh/agent"
	"github.com/hupe1980/contentmesh/artifact"
	"github.com/hupe1980/contentmesh/core"
	"github.com/hupe1980/contentmesh/logging"
	"github.com/hupe1980/contentmesh/model"
	"github.com/hupe1980/contentmesh/orchestrator"
	"github.com/hupe1980/contentmesh/runlog"
	"github.com/hupe1980/contentmesh/search"
	"github.com/hupe1980/contentmesh/task"
)

// Options configures the ContentMesh instance.
type Options struct {
	// ID overrides the orchestrator id used as the message sender.
	ID string

	// OrchestratorConfig carries coordination tunables (assignment timeout).
	OrchestratorConfig orchestrator.Config

	// Stores (defaults to in-memory implementations if not provided)
	TaskStore     core.TaskStore
	ArtifactStore core.ArtifactStore
	RunStore      core.RunStore

	// IDGenerator mints run, task, message and artifact ids.
	IDGenerator core.IDGenerator

	// Clock supplies timestamps. Defaults to time.Now.
	Clock core.Clock

	// Logger (defaults to a text slog logger if nil)
	Logger logging.Logger
}

// ContentMesh is the high-level façade aggregating the orchestrator and stores.
type ContentMesh struct {
	opts Options
	orch *orchestrator.Orchestrator
}

// New creates a new ContentMesh instance with optional overrides. Any unset
// store is initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) *ContentMesh {
	opts := Options{
		ID:                 "orchestrator",
		OrchestratorConfig: orchestrator.DefaultConfig(),
		TaskStore:          task.NewInMemoryStore(),
		ArtifactStore:      artifact.NewInMemoryStore(),
		RunStore:           runlog.NewInMemoryStore(),
		IDGenerator:        core.UUIDGenerator{},
		Clock:              time.Now,
		Logger:             logging.NewSlogLogger(logging.LogLevelInfo, "text", false),
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	orch := orchestrator.New(func(o *orchestrator.Options) {
		o.ID = opts.ID
		o.Config = opts.OrchestratorConfig
		o.TaskStore = opts.TaskStore
		o.ArtifactStore = opts.ArtifactStore
		o.RunStore = opts.RunStore
		o.IDGenerator = opts.IDGenerator
		o.Clock = opts.Clock
		o.Logger = opts.Logger
	})

	return &ContentMesh{opts: opts, orch: orch}
}

// Backends aggregates the external collaborators of the built-in pipeline
// agents. Any nil backend leaves the corresponding agent in its degraded
// fallback mode (simulated findings, template draft, frequency keywords,
// placeholder image).
type Backends struct {
	// Model backs the writing agent.
	Model model.Model

	// ImageModel backs the image agent.
	ImageModel model.ImageModel

	// SearchClient backs the research and seo agents.
	SearchClient search.Client
}

// NewDefaultPipeline creates a ContentMesh with the four pipeline agents
// (research, writing, seo, image) constructed through the agent factory and
// registered, sharing the mesh's id generator, clock and logger.
func NewDefaultPipeline(backends Backends, optFns ...func(o *Options)) (*ContentMesh, error) {
	mesh := New(optFns...)

	factory := agent.NewFactory(func(o *agent.FactoryOptions) {
		o.Model = backends.Model
		o.ImageModel = backends.ImageModel
		o.SearchClient = backends.SearchClient
		o.IDGenerator = mesh.opts.IDGenerator
		o.Clock = mesh.opts.Clock
		o.Logger = mesh.opts.Logger
	})

	for _, typeName := range factory.Types() {
		a, err := factory.New(typeName, agent.Config{})
		if err != nil {
			return nil, err
		}
		if err := mesh.RegisterAgent(a); err != nil {
			return nil, err
		}
	}
	return mesh, nil
}

// RegisterAgent adds an agent to the underlying orchestrator registry.
func (m *ContentMesh) RegisterAgent(a core.Agent) error { return m.orch.RegisterAgent(a) }

// Cards returns the discovery cards of all registered agents.
func (m *ContentMesh) Cards() []core.AgentCard { return m.orch.Cards() }

// AgentForCapability resolves the agent serving a capability name.
func (m *ContentMesh) AgentForCapability(name string) (core.Agent, error) {
	return m.orch.AgentForCapability(name)
}

// AssignTask synchronously assigns one capability invocation to a registered
// agent and returns the terminal task. An empty runID leaves the exchange out
// of any run log.
func (m *ContentMesh) AssignTask(ctx context.Context, runID, agentID, capability string, in core.Input) (core.Task, error) {
	return m.orch.AssignTaskAndWait(ctx, runID, agentID, capability, in)
}

// RunWorkflow executes the fixed content pipeline for a topic and returns the
// final composite document artifact.
func (m *ContentMesh) RunWorkflow(ctx context.Context, topic string) (core.Artifact, error) {
	return m.orch.RunWorkflow(ctx, topic)
}

// Task returns the stored task record.
func (m *ContentMesh) Task(id string) (core.Task, error) { return m.orch.Task(id) }

// Run returns the run record with its message log.
func (m *ContentMesh) Run(runID string) (*core.Run, error) { return m.orch.Run(runID) }

// Artifact returns a stored artifact of the run.
func (m *ContentMesh) Artifact(runID, artifactID string) (core.Artifact, error) {
	return m.orch.Artifact(runID, artifactID)
}

// LatestArtifactOfKind returns the most recently stored artifact of the kind
// within the run.
func (m *ContentMesh) LatestArtifactOfKind(runID string, kind core.ArtifactKind) (core.Artifact, error) {
	return m.orch.LatestArtifactOfKind(runID, kind)
}

// WriteRunRecords streams the run's task records as JSONL to w.
func (m *ContentMesh) WriteRunRecords(w io.Writer, runID string) error {
	return m.orch.WriteRunRecords(w, runID)
}

// SaveOutput writes an artifact as a markdown file under dir, deriving the
// file name from the topic and the current time. It returns the written path.
func (m *ContentMesh) SaveOutput(dir, topic string, a core.Artifact) (string, error) {
	return runlog.WriteOutput(dir, topic, a, m.opts.Clock())
}
