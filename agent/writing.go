package agent

import (
	"fmt"
	"strings"

	"github.com/hupe1980/contentmesh/core"
	"github.com/hupe1980/contentmesh/logging"
	"github.com/hupe1980/contentmesh/model"
)

const writerSystemPrompt = "You are an expert blog post writer specializing in creating engaging and informative content based on provided research. You adhere strictly to formatting instructions and content constraints."

const defaultWritingStyle = "Professional, engaging, and accessible to a general audience interested in technology and AI."

// WritingOptions configure a WritingAgent.
type WritingOptions struct {
	ID          string
	Name        string
	Model       model.Model // nil means the agent always degrades to a template draft
	Style       string
	IDGenerator core.IDGenerator
	Clock       core.Clock
	Logger      logging.Logger
}

// WritingAgent turns research findings into a blog post draft using a
// language model. When the model is missing or fails it falls back to a
// deterministic template draft and marks the artifact as degraded.
type WritingAgent struct {
	BaseAgent
	model model.Model
	style string
}

type writeInput struct {
	Topic    string `json:"topic" description:"Topic of the blog post"`
	Research string `json:"research" description:"Research findings the draft must be based on"`
	Style    string `json:"style,omitempty" description:"Language tone overriding the agent default"`
	Audience string `json:"audience,omitempty" description:"Intended audience of the post"`
}

// NewWritingAgent constructs a writing agent with the write_content capability.
func NewWritingAgent(optFns ...func(o *WritingOptions)) *WritingAgent {
	opts := WritingOptions{
		ID:    "writing-agent",
		Name:  "Writing Agent",
		Style: defaultWritingStyle,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	a := &WritingAgent{
		model: opts.Model,
		style: opts.Style,
	}
	a.BaseAgent = NewBaseAgent(opts.ID, opts.Name, func(o *BaseOptions) {
		o.Description = "Writes blog post drafts from research findings"
		applyBaseOverrides(o, opts.IDGenerator, opts.Clock, opts.Logger)
	})
	a.MustRegisterCapability(NewCapabilityFromStruct(
		core.CapabilityWriteContent,
		"Writes a structured blog post draft based on research findings",
		writeInput{},
		a.write,
	))
	return a
}

func (a *WritingAgent) write(cctx *Context, input core.Input) (core.Artifact, error) {
	topic, _ := input.String("topic")
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return core.Artifact{}, core.NewPermanentError(core.CapabilityWriteContent, "topic must not be empty")
	}
	research, _ := input.String("research")
	if strings.TrimSpace(research) == "" {
		return core.Artifact{}, core.NewPermanentError(core.CapabilityWriteContent, "research must not be empty")
	}

	style := a.style
	if s, ok := input.String("style"); ok && strings.TrimSpace(s) != "" {
		style = s
	}
	if audience, ok := input.String("audience"); ok && strings.TrimSpace(audience) != "" {
		style = fmt.Sprintf("%s Aimed at %s.", style, audience)
	}

	draft, modelName, degraded, reason := a.generate(cctx, topic, research, style)

	artifact := cctx.NewArtifact(core.ArtifactKindDraftText, core.ContentTypeMarkdown, []byte(draft))
	artifact.Metadata = map[string]string{
		core.MetaStage:  core.StageWriting,
		core.MetaSource: modelName,
	}
	if degraded {
		artifact.Degraded = true
		artifact.Metadata[core.MetaSource] = "template"
		artifact.Metadata[core.MetaDegradedReason] = reason
	}
	return artifact, nil
}

// generate produces the draft text, falling back to a template draft when no
// model is configured or the model call fails.
func (a *WritingAgent) generate(cctx *Context, topic, research, style string) (draft, modelName string, degraded bool, reason string) {
	if a.model == nil {
		return templateDraft(topic, research), "", true, "no language model configured"
	}

	prompt, err := BuildPrompt(PromptSpec{
		Task:      fmt.Sprintf("Write an expert blog post about the topic: '%s'", topic),
		InputType: "Research Findings (provided below, in JSON format)",
		OutputFormat: "A complete, well-structured blog post in Markdown format (approximately 500-800 words). " +
			"Must include: 1. A catchy H1 title. 2. An engaging introduction. " +
			"3. A body that elaborates on key points from the research, citing or incorporating them naturally. " +
			"4. A conclusion summarizing main takeaways and offering a final thought. " +
			"Ensure content is based strictly on the provided research findings; do not invent information. " +
			"If research is sparse, elaborate on available points well.",
		Style:      style,
		Creativity: "medium",
	}, research)
	if err != nil {
		cctx.Logger().Warn("writing.prompt.failed topic=%q: %v", topic, err)
		return templateDraft(topic, research), "", true, err.Error()
	}

	start := a.clock()
	resp, err := a.model.Generate(cctx.Context(), model.Request{Messages: []model.Message{
		model.SystemMessage(writerSystemPrompt),
		model.UserMessage(prompt.Text),
	}})
	info := a.model.Info()
	if err != nil {
		cctx.Logger().Warn("writing.model.failed topic=%q model=%s: %v", topic, info.Name, err)
		return templateDraft(topic, research), info.Name, true, err.Error()
	}

	cctx.Logger().Info("writing.model.success topic=%q model=%s prompt_tokens=%d finish_reason=%s duration_ms=%d",
		topic, info.Name, prompt.EstimatedTokens, resp.FinishReason,
		a.clock().Sub(start).Milliseconds())
	return resp.Text, info.Name, false, ""
}

// templateDraft is the deterministic fallback draft used in degraded mode.
func templateDraft(topic, research string) string {
	snippet := research
	if len(snippet) > 300 {
		snippet = snippet[:300] + "..."
	}
	return fmt.Sprintf(
		"## Draft: %s\n\n"+
			"This is a fallback blog post draft about %s, generated without a language model.\n\n"+
			"### Key Points from Research\n\n%s\n\n"+
			"Further details and engaging content would be added here.",
		topic, topic, snippet)
}
