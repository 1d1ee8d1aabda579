package agent

import (
	"strings"

	"github.com/hupe1980/contentmesh/internal/util"
	"github.com/hupe1980/contentmesh/model"
)

// PromptSpec describes the desired behavior of a generation prompt.
type PromptSpec struct {
	Task         string // What the model is asked to do
	InputType    string // Expected input type shown to the model
	OutputFormat string // Desired output format
	Style        string // Language tone
	Creativity   string // "low", "medium" or "high"
}

// Prompt is a rendered prompt together with its estimated token count.
type Prompt struct {
	Text            string
	EstimatedTokens int
}

// creativityInstructions maps creativity levels to explicit instructions.
var creativityInstructions = map[string]string{
	"low":    "Be objective and avoid adding information that is not present.",
	"medium": "Use moderate creativity as appropriate.",
	"high":   "Be creative and explore innovative approaches.",
}

const promptTemplate = `[System]
You are an expert AI assistant with advanced skills in {{.task}}. Your primary objective is to deliver high-quality, accurate, and contextually appropriate results.
[Role]
Adopt the persona of a highly knowledgeable and reliable specialist in {{.task}}. Demonstrate professionalism, precision, and domain expertise.
[Context]
You will receive an input of type: {{.input_type}}. Carefully analyze this input and consider its nuances so your output stays relevant to the task.
[Instruction]
{{.creativity_instruction}} Carefully follow all instructions and requirements provided below to accomplish the task to the best of your ability.
[Output format]
Format your response as follows: {{.output_format}}. Ensure your answer adheres strictly to this format and employs a {{.style | default "neutral"}} style throughout.

[INSTRUCTION]:
Please process the input as described above.
[INPUT]:
{{.input}}`

// BuildPrompt renders a structured prompt from a PromptSpec and the stage input.
// The prompt is organized into labeled sections so models follow it reliably.
func BuildPrompt(spec PromptSpec, input string) (Prompt, error) {
	instruction, ok := creativityInstructions[strings.ToLower(spec.Creativity)]
	if !ok {
		instruction = creativityInstructions["medium"]
	}

	text, err := util.RenderTemplate(promptTemplate, map[string]any{
		"task":                   spec.Task,
		"input_type":             spec.InputType,
		"output_format":          spec.OutputFormat,
		"style":                  spec.Style,
		"creativity_instruction": instruction,
		"input":                  input,
	})
	if err != nil {
		return Prompt{}, err
	}

	return Prompt{
		Text:            text,
		EstimatedTokens: model.EstimateTokens(text),
	}, nil
}
