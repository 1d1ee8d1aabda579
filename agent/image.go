package agent

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/hupe1980/contentmesh/core"
	"github.com/hupe1980/contentmesh/logging"
	"github.com/hupe1980/contentmesh/model"
)

// ImageOptions configure an ImageAgent.
type ImageOptions struct {
	ID          string
	Name        string
	Model       model.ImageModel // nil means placeholder images only
	IDGenerator core.IDGenerator
	Clock       core.Clock
	Logger      logging.Logger
}

// ImageAgent generates a featured illustration for a blog post. Without an
// image model, or when generation fails, it degrades to a placeholder URL so
// the pipeline can still compose a complete document.
type ImageAgent struct {
	BaseAgent
	model model.ImageModel
}

type imageInput struct {
	Topic   string `json:"topic" description:"Topic of the blog post"`
	Summary string `json:"summary,omitempty" description:"Optional short summary used to steer the illustration"`
}

// NewImageAgent constructs an image agent with the generate_image capability.
func NewImageAgent(optFns ...func(o *ImageOptions)) *ImageAgent {
	opts := ImageOptions{
		ID:   "image-agent",
		Name: "Image Agent",
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	a := &ImageAgent{
		model: opts.Model,
	}
	a.BaseAgent = NewBaseAgent(opts.ID, opts.Name, func(o *BaseOptions) {
		o.Description = "Generates featured illustrations for blog posts"
		applyBaseOverrides(o, opts.IDGenerator, opts.Clock, opts.Logger)
	})
	a.MustRegisterCapability(NewCapabilityFromStruct(
		core.CapabilityGenerateImage,
		"Generates a featured image for a blog post topic",
		imageInput{},
		a.generate,
	))
	return a
}

func (a *ImageAgent) generate(cctx *Context, input core.Input) (core.Artifact, error) {
	topic, _ := input.String("topic")
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return core.Artifact{}, core.NewPermanentError(core.CapabilityGenerateImage, "topic must not be empty")
	}
	summary, _ := input.String("summary")

	prompt := imagePrompt(topic, summary)
	urls, modelName, degraded, reason := a.render(cctx, topic, prompt)

	artifact := cctx.NewArtifact(core.ArtifactKindImageReference, core.ContentTypeURIList, []byte(strings.Join(urls, "\n")))
	artifact.Metadata = map[string]string{
		core.MetaStage:  core.StageImage,
		core.MetaSource: modelName,
	}
	if degraded {
		artifact.Degraded = true
		artifact.Metadata[core.MetaDegradedReason] = reason
	}
	return artifact, nil
}

// render asks the image model for URLs, substituting a placeholder when no
// model is configured or generation fails.
func (a *ImageAgent) render(cctx *Context, topic, prompt string) (urls []string, modelName string, degraded bool, reason string) {
	logger := cctx.Logger()

	if a.model == nil {
		logger.Warn("image.model.missing task_id=%s", cctx.TaskID())
		return []string{placeholderURL(topic)}, "placeholder", true, "no image model configured"
	}

	start := time.Now()
	urls, err := a.model.GenerateImage(cctx.Context(), model.ImageRequest{Prompt: prompt})
	if err != nil {
		logger.Warn("image.model.failed task_id=%s: %v", cctx.TaskID(), err)
		return []string{placeholderURL(topic)}, "placeholder", true, err.Error()
	}
	if len(urls) == 0 {
		logger.Warn("image.model.empty task_id=%s", cctx.TaskID())
		return []string{placeholderURL(topic)}, "placeholder", true, "image model returned no urls"
	}

	info := a.model.Info()
	logger.Info("image.model.success task_id=%s model=%s urls=%d duration_ms=%d",
		cctx.TaskID(), info.Name, len(urls), time.Since(start).Milliseconds())
	return urls, info.Name, false, ""
}

// imagePrompt builds the generation prompt for a featured blog illustration.
func imagePrompt(topic, summary string) string {
	prompt := fmt.Sprintf("A compelling and professional main illustration for a blog post about '%s'. "+
		"The image should be visually engaging, conceptually relevant to the topic, and suitable for a featured image. "+
		"Avoid text in the image. Digital art, vibrant, and modern style.", topic)
	if summary = strings.TrimSpace(summary); summary != "" {
		prompt += " Context: " + summary
	}
	return prompt
}

// placeholderURL returns a deterministic stand-in image URL for a topic.
func placeholderURL(topic string) string {
	return "https://placehold.co/1024x1024?text=" + url.QueryEscape(titleCase(topic))
}
