package model

import (
	"context"
	"fmt"
	"sync"
)

// Message roles understood by all providers.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat turn sent to a model provider.
type Message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// SystemMessage builds a system-role message.
func SystemMessage(text string) Message { return Message{Role: RoleSystem, Text: text} }

// UserMessage builds a user-role message.
func UserMessage(text string) Message { return Message{Role: RoleUser, Text: text} }

// Request captures the normalized model input produced by agents.
type Request struct {
	Messages []Message `json:"messages"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the final completion returned by a model.
type Response struct {
	Text         string      `json:"text"`
	FinishReason string      `json:"finish_reason"` // "stop", "length", etc.
	Usage        *TokenUsage `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", etc.
}

// Model is the minimal interface required by agents to drive text generation.
type Model interface {
	Generate(ctx context.Context, req Request) (Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// ImageRequest describes a single image generation call.
type ImageRequest struct {
	Prompt  string `json:"prompt"`
	Size    string `json:"size,omitempty"`    // e.g. "1024x1024"
	Quality string `json:"quality,omitempty"` // e.g. "standard"
	Count   int    `json:"count,omitempty"`   // defaults to 1
}

// ImageModel generates images and returns their URLs.
type ImageModel interface {
	GenerateImage(ctx context.Context, req ImageRequest) ([]string, error)

	// Info returns information about the model implementation.
	Info() Info
}

// EstimateTokens approximates the token count of a text. The approximation
// is 1 token per 4 characters, rounded up.
func EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	return (len(text) + 3) / 4
}

// MockModel is a lightweight in‑memory Model useful for tests & examples.
// Canned completions are keyed by the text of the last user message.
type MockModel struct {
	mu        sync.Mutex
	info      Info
	responses map[string]string
	err       error
	requests  []Request
}

// NewMockModel constructs a MockModel.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: provider},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// SetError makes every subsequent Generate call fail with err.
func (m *MockModel) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Requests returns a copy of all requests seen so far.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

// Generate implements Model. Unknown prompts get an echo response.
func (m *MockModel) Generate(ctx context.Context, req Request) (Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)
	if m.err != nil {
		return Response{}, m.err
	}
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}

	var prompt string
	for _, msg := range req.Messages {
		if msg.Role == RoleUser {
			prompt = msg.Text
		}
	}

	text := m.responses[prompt]
	if text == "" {
		text = fmt.Sprintf("Mock response to: %s", prompt)
	}
	return Response{
		Text:         text,
		FinishReason: "stop",
		Usage: &TokenUsage{
			PromptTokens:     EstimateTokens(prompt),
			CompletionTokens: EstimateTokens(text),
			TotalTokens:      EstimateTokens(prompt) + EstimateTokens(text),
		},
	}, nil
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }

// MockImageModel is a lightweight in‑memory ImageModel for tests & examples.
type MockImageModel struct {
	mu      sync.Mutex
	urls    []string
	err     error
	prompts []string
}

// NewMockImageModel constructs a MockImageModel returning the given URLs.
// With no URLs configured it returns a single placeholder URL.
func NewMockImageModel(urls ...string) *MockImageModel {
	return &MockImageModel{urls: urls}
}

// SetError makes every subsequent GenerateImage call fail with err.
func (m *MockImageModel) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Prompts returns a copy of all prompts seen so far.
func (m *MockImageModel) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// GenerateImage implements ImageModel.
func (m *MockImageModel) GenerateImage(_ context.Context, req ImageRequest) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.prompts = append(m.prompts, req.Prompt)
	if m.err != nil {
		return nil, m.err
	}
	if len(m.urls) == 0 {
		return []string{"https://mock.example.com/image.png"}, nil
	}
	return append([]string(nil), m.urls...), nil
}

// Info implements ImageModel interface.
func (m *MockImageModel) Info() Info { return Info{Name: "mock-image", Provider: "mock"} }

// Compile-time interface checks.
var (
	_ Model      = (*MockModel)(nil)
	_ ImageModel = (*MockImageModel)(nil)
)
