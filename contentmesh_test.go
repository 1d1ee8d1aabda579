package contentmesh_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/contentmesh"
	"github.com/hupe1980/contentmesh/agent"
	"github.com/hupe1980/contentmesh/core"
	"github.com/hupe1980/contentmesh/logging"
)

type summarizeParams struct {
	Text string `json:"text" description:"Text to summarize"`
}

type summarizerAgent struct {
	agent.BaseAgent
}

func newSummarizerAgent() *summarizerAgent {
	a := &summarizerAgent{BaseAgent: agent.NewBaseAgent("summarizer", "Summarizer")}
	a.MustRegisterCapability(agent.NewCapabilityFromStruct(
		"summarize_text",
		"Produces a one-sentence summary of the given text.",
		summarizeParams{},
		func(cctx *agent.Context, in core.Input) (core.Artifact, error) {
			text, _ := in.String("text")
			summary := text
			if i := strings.IndexByte(text, '.'); i >= 0 {
				summary = text[:i+1]
			}
			return cctx.NewArtifact(core.ArtifactKindDraftText, core.ContentTypeText, []byte(summary)), nil
		},
	))
	return a
}

func quiet(o *contentmesh.Options) {
	o.Logger = logging.NoOpLogger{}
}

func TestNewDefaultPipeline(t *testing.T) {
	mesh, err := contentmesh.NewDefaultPipeline(contentmesh.Backends{}, quiet)
	require.NoError(t, err)

	cards := mesh.Cards()
	require.Len(t, cards, 4)
	assert.Equal(t, "research-agent", cards[0].AgentID)

	a, err := mesh.AgentForCapability(core.CapabilityWriteContent)
	require.NoError(t, err)
	assert.Equal(t, "writing-agent", a.ID())
}

func TestAssignTaskToCustomAgent(t *testing.T) {
	mesh := contentmesh.New(quiet)
	require.NoError(t, mesh.RegisterAgent(newSummarizerAgent()))

	tsk, err := mesh.AssignTask(context.Background(), "", "summarizer", "summarize_text",
		core.Input{"text": "Edge computing moves compute close to devices. It cuts latency."})
	require.NoError(t, err)
	assert.Equal(t, core.TaskStatusCompleted, tsk.Status)

	a, err := mesh.Artifact("", tsk.ArtifactID)
	require.NoError(t, err)
	assert.Equal(t, "Edge computing moves compute close to devices.", a.Text())
	assert.Equal(t, tsk.ID, a.TaskID)
}

func TestRunWorkflowThroughFacade(t *testing.T) {
	// No backends at all: every stage runs in fallback mode and the pipeline
	// still delivers a complete document.
	mesh, err := contentmesh.NewDefaultPipeline(contentmesh.Backends{}, quiet)
	require.NoError(t, err)

	composite, err := mesh.RunWorkflow(context.Background(), "Edge Computing")
	require.NoError(t, err)
	assert.Equal(t, core.ArtifactKindComposite, composite.Kind)
	assert.True(t, composite.Degraded)

	runID := composite.Metadata["run_id"]
	require.NotEmpty(t, runID)

	run, err := mesh.Run(runID)
	require.NoError(t, err)
	assert.Equal(t, core.RunStatusCompleted, run.GetStatus())

	latest, err := mesh.LatestArtifactOfKind(runID, core.ArtifactKindComposite)
	require.NoError(t, err)
	assert.Equal(t, composite.ID, latest.ID)

	var records bytes.Buffer
	require.NoError(t, mesh.WriteRunRecords(&records, runID))
	assert.Len(t, strings.Split(strings.TrimSpace(records.String()), "\n"), 4)

	dir := t.TempDir()
	path, err := mesh.SaveOutput(dir, "Edge Computing", composite)
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "Edge_Computing_"))

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, composite.Body, written)
}
