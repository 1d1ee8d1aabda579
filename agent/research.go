package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hupe1980/contentmesh/core"
	"github.com/hupe1980/contentmesh/logging"
	"github.com/hupe1980/contentmesh/search"
)

// ResearchOptions configure a ResearchAgent.
type ResearchOptions struct {
	ID           string
	Name         string
	SearchClient search.Client // nil means the agent always degrades to simulated findings
	MaxResults   int
	IDGenerator  core.IDGenerator
	Clock        core.Clock
	Logger       logging.Logger
}

// ResearchAgent gathers findings for a topic via a search backend. When the
// backend is missing, fails or returns nothing, it synthesizes deterministic
// findings and marks the artifact as degraded.
type ResearchAgent struct {
	BaseAgent
	client     search.Client
	maxResults int
}

type researchInput struct {
	Topic      string `json:"topic" description:"Topic to research"`
	MaxResults int    `json:"max_results,omitempty" description:"Maximum number of findings to collect"`
}

// researchFindings is the JSON body of a research_findings artifact.
type researchFindings struct {
	Topic    string          `json:"topic"`
	Query    string          `json:"query"`
	Findings []search.Result `json:"findings"`
}

// NewResearchAgent constructs a research agent with the research_topic capability.
func NewResearchAgent(optFns ...func(o *ResearchOptions)) *ResearchAgent {
	opts := ResearchOptions{
		ID:         "research-agent",
		Name:       "Research Agent",
		MaxResults: 3,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	a := &ResearchAgent{
		client:     opts.SearchClient,
		maxResults: opts.MaxResults,
	}
	a.BaseAgent = NewBaseAgent(opts.ID, opts.Name, func(o *BaseOptions) {
		o.Description = "Researches topics and gathers findings for content creation"
		applyBaseOverrides(o, opts.IDGenerator, opts.Clock, opts.Logger)
	})
	a.MustRegisterCapability(NewCapabilityFromStruct(
		core.CapabilityResearchTopic,
		"Performs research on a given topic and returns structured findings",
		researchInput{},
		a.research,
	))
	return a
}

func (a *ResearchAgent) research(cctx *Context, input core.Input) (core.Artifact, error) {
	topic, _ := input.String("topic")
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return core.Artifact{}, core.NewPermanentError(core.CapabilityResearchTopic, "topic must not be empty")
	}

	maxResults := a.maxResults
	if n, ok := input.Int("max_results"); ok && n > 0 {
		maxResults = n
	}

	query := fmt.Sprintf("Comprehensive overview and recent developments in %s", topic)
	results, degraded, reason := a.collect(cctx.Context(), cctx.Logger(), topic, query, maxResults)

	body, err := json.MarshalIndent(researchFindings{
		Topic:    topic,
		Query:    query,
		Findings: results,
	}, "", "  ")
	if err != nil {
		return core.Artifact{}, err
	}

	artifact := cctx.NewArtifact(core.ArtifactKindResearchFindings, core.ContentTypeJSON, body)
	artifact.Metadata = map[string]string{
		core.MetaStage:  core.StageResearch,
		core.MetaSource: "search",
	}
	if degraded {
		artifact.Degraded = true
		artifact.Metadata[core.MetaSource] = "simulated"
		artifact.Metadata[core.MetaDegradedReason] = reason
	}
	return artifact, nil
}

// collect queries the backend and falls back to simulated findings when the
// backend is absent, errors or comes back empty.
func (a *ResearchAgent) collect(ctx context.Context, logger logging.Logger, topic, query string, maxResults int) ([]search.Result, bool, string) {
	if a.client == nil {
		results, _ := search.NewSimulated().Search(ctx, query, maxResults)
		return results, true, "no search backend configured"
	}

	results, err := a.client.Search(ctx, query, maxResults)
	if err != nil {
		logger.Warn("research.search.failed topic=%q: %v", topic, err)
		fallback, _ := search.NewSimulated().Search(ctx, query, maxResults)
		return fallback, true, err.Error()
	}
	if len(results) == 0 {
		logger.Warn("research.search.empty topic=%q", topic)
		fallback, _ := search.NewSimulated().Search(ctx, query, maxResults)
		return fallback, true, "search returned no results"
	}
	return results, false, ""
}
