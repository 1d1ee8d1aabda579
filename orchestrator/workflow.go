package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/contentmesh/core"
)

// Stage describes one step of the fixed content workflow. Stages communicate
// through the artifact store only: each BuildInput reads the latest artifact
// of the kind it needs, never a specific task's output.
type Stage struct {
	// Name identifies the stage in logs, errors and provenance metadata.
	Name string

	// Capability the stage is dispatched to via capability lookup.
	Capability string

	// BuildInput assembles the assignment input from the topic and the run's
	// accumulated artifacts.
	BuildInput func(topic, runID string, artifacts core.ArtifactStore) (core.Input, error)

	// Optional stages record their failure and let the pipeline continue with
	// the prior artifact; required stages abort the run.
	Optional bool
}

// pipelineStages returns the fixed research, writing, seo, image sequence.
func pipelineStages() []Stage {
	return []Stage{
		{
			Name:       core.StageResearch,
			Capability: core.CapabilityResearchTopic,
			BuildInput: func(topic, runID string, _ core.ArtifactStore) (core.Input, error) {
				return core.Input{"topic": topic}, nil
			},
		},
		{
			Name:       core.StageWriting,
			Capability: core.CapabilityWriteContent,
			BuildInput: func(topic, runID string, artifacts core.ArtifactStore) (core.Input, error) {
				research, err := artifacts.LatestOfKind(runID, core.ArtifactKindResearchFindings)
				if err != nil {
					return nil, fmt.Errorf("no research findings available: %w", err)
				}
				return core.Input{"topic": topic, "research": research.Text()}, nil
			},
		},
		{
			Name:       core.StageSEO,
			Capability: core.CapabilityOptimizeSEO,
			Optional:   true,
			BuildInput: func(topic, runID string, artifacts core.ArtifactStore) (core.Input, error) {
				draft, err := artifacts.LatestOfKind(runID, core.ArtifactKindDraftText)
				if err != nil {
					return nil, fmt.Errorf("no draft available: %w", err)
				}
				return core.Input{"topic": topic, "draft": draft.Text()}, nil
			},
		},
		{
			Name:       core.StageImage,
			Capability: core.CapabilityGenerateImage,
			Optional:   true,
			BuildInput: func(topic, runID string, _ core.ArtifactStore) (core.Input, error) {
				return core.Input{"topic": topic}, nil
			},
		},
	}
}

// RunWorkflow executes the full content pipeline for a topic and returns the
// final composite document artifact.
//
// Each run gets a fresh run id; its tasks, artifacts and message log are
// recorded under that id. A failed required stage aborts the run with an
// error naming the stage and task; failed optional stages are recorded and
// the pipeline continues with the prior artifact.
func (o *Orchestrator) RunWorkflow(ctx context.Context, topic string) (core.Artifact, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return core.Artifact{}, fmt.Errorf("topic must not be empty")
	}

	runID := o.idGen.NewID()
	if _, err := o.runs.Create(runID, topic, o.clock()); err != nil {
		return core.Artifact{}, fmt.Errorf("create run: %w", err)
	}
	o.logger.Info("orchestrator.run.started run_id=%s topic=%q", runID, topic)

	for _, stage := range pipelineStages() {
		if err := o.runStage(ctx, runID, topic, stage); err != nil {
			o.setRunStatus(runID, core.RunStatusFailed)
			o.logger.Error("orchestrator.run.failed run_id=%s stage=%s: %v", runID, stage.Name, err)
			return core.Artifact{}, err
		}
	}

	composite, err := o.compose(runID, topic)
	if err != nil {
		o.setRunStatus(runID, core.RunStatusFailed)
		return core.Artifact{}, err
	}

	o.setRunStatus(runID, core.RunStatusCompleted)
	o.logger.Info("orchestrator.run.completed run_id=%s artifact_id=%s degraded=%t",
		runID, composite.ID, composite.Degraded)
	return composite, nil
}

// runStage dispatches one stage. Optional stage failures are logged and
// swallowed so the pipeline continues.
func (o *Orchestrator) runStage(ctx context.Context, runID, topic string, stage Stage) error {
	start := o.clock()

	agent, err := o.AgentForCapability(stage.Capability)
	if err != nil {
		if stage.Optional {
			o.logger.Warn("orchestrator.stage.skipped run_id=%s stage=%s: %v", runID, stage.Name, err)
			return nil
		}
		return fmt.Errorf("stage %s: %w", stage.Name, err)
	}

	in, err := stage.BuildInput(topic, runID, o.artifacts)
	if err != nil {
		if stage.Optional {
			o.logger.Warn("orchestrator.stage.skipped run_id=%s stage=%s: %v", runID, stage.Name, err)
			return nil
		}
		return fmt.Errorf("stage %s: %w", stage.Name, err)
	}

	t, err := o.AssignTaskAndWait(ctx, runID, agent.ID(), stage.Capability, in)
	if err != nil {
		if stage.Optional {
			o.logger.Warn("orchestrator.stage.failed run_id=%s stage=%s task_id=%s: %v",
				runID, stage.Name, t.ID, err)
			return nil
		}
		if t.ID == "" {
			return fmt.Errorf("stage %s: %w", stage.Name, err)
		}
		return fmt.Errorf("stage %s (task %s): %w", stage.Name, t.ID, err)
	}

	o.logger.Info("orchestrator.stage.completed run_id=%s stage=%s task_id=%s artifact_id=%s duration_ms=%d",
		runID, stage.Name, t.ID, t.ArtifactID, o.clock().Sub(start).Milliseconds())
	return nil
}

// compose assembles the final composite document from the run's latest draft
// and image artifacts and records degraded provenance across all contributing
// stages.
func (o *Orchestrator) compose(runID, topic string) (core.Artifact, error) {
	draft, err := o.artifacts.LatestOfKind(runID, core.ArtifactKindDraftText)
	if err != nil {
		return core.Artifact{}, fmt.Errorf("compose run %s: %w", runID, err)
	}

	var body strings.Builder
	body.WriteString(strings.TrimRight(draft.Text(), "\n"))
	body.WriteString("\n\n## Featured Image\n\n")
	body.WriteString(o.imageSection(runID, topic))
	body.WriteString("\n")

	degraded := o.degradedStages(runID)

	composite := core.Artifact{
		ID:          o.idGen.NewID(),
		Kind:        core.ArtifactKindComposite,
		ContentType: core.ContentTypeMarkdown,
		Body:        []byte(body.String()),
		Degraded:    len(degraded) > 0,
		Metadata: map[string]string{
			core.MetaStage: core.StageComposite,
			"run_id":       runID,
			"topic":        topic,
		},
		CreatedAt: o.clock(),
	}
	if len(degraded) > 0 {
		composite.Metadata[core.MetaDegradedStages] = strings.Join(degraded, ",")
	}

	if err := o.artifacts.Save(runID, composite); err != nil {
		return core.Artifact{}, fmt.Errorf("compose run %s: %w", runID, err)
	}
	return composite, nil
}

// imageSection renders the featured-image markdown, or a placeholder note
// when the run produced no image reference.
func (o *Orchestrator) imageSection(runID, topic string) string {
	image, err := o.artifacts.LatestOfKind(runID, core.ArtifactKindImageReference)
	if err != nil || strings.TrimSpace(image.Text()) == "" {
		return fmt.Sprintf("*[Image generation failed for '%s'. Placeholder for a relevant image.]*", topic)
	}

	var b strings.Builder
	for i, url := range strings.Split(strings.TrimSpace(image.Text()), "\n") {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "![Generated illustration for %s](%s %q)",
			topic, url, fmt.Sprintf("%s - AI Generated Image %d", topic, i+1))
	}
	return b.String()
}

// degradedStages lists the stages whose artifacts carry the degraded flag,
// in save order without duplicates.
func (o *Orchestrator) degradedStages(runID string) []string {
	ids, err := o.artifacts.List(runID)
	if err != nil {
		return nil
	}

	var stages []string
	seen := make(map[string]struct{})
	for _, id := range ids {
		a, err := o.artifacts.Get(runID, id)
		if err != nil || !a.Degraded {
			continue
		}
		stage := a.Metadata[core.MetaStage]
		if stage == "" {
			stage = string(a.Kind)
		}
		if _, dup := seen[stage]; dup {
			continue
		}
		seen[stage] = struct{}{}
		stages = append(stages, stage)
	}
	return stages
}

func (o *Orchestrator) setRunStatus(runID string, status core.RunStatus) {
	if err := o.runs.SetStatus(runID, status, o.clock()); err != nil {
		o.logger.Warn("orchestrator.run.status run_id=%s: %v", runID, err)
	}
}
