package testutil

import (
	"time"

	"github.com/hupe1980/contentmesh/core"
)

// ArtifactBuilder provides a fluent helper for constructing artifacts in tests.
// Example:
//
//	a := NewArtifactBuilder("artifact-1").Kind(core.ArtifactKindDraftText).Text("draft body").Build()
type ArtifactBuilder struct {
	id          string
	taskID      string
	kind        core.ArtifactKind
	contentType string
	body        []byte
	degraded    bool
	metadata    map[string]string
	createdAt   time.Time
}

// NewArtifactBuilder creates a builder for an artifact with the given id.
func NewArtifactBuilder(id string) *ArtifactBuilder {
	return &ArtifactBuilder{
		id:          id,
		taskID:      "task-1",
		kind:        core.ArtifactKindResearchFindings,
		contentType: core.ContentTypeText,
		body:        []byte("findings"),
		createdAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

// Task sets the producing task ID (chainable).
func (b *ArtifactBuilder) Task(taskID string) *ArtifactBuilder { b.taskID = taskID; return b }

// Kind sets the artifact content kind (chainable).
func (b *ArtifactBuilder) Kind(kind core.ArtifactKind) *ArtifactBuilder { b.kind = kind; return b }

// ContentType sets the artifact content type (chainable).
func (b *ArtifactBuilder) ContentType(ct string) *ArtifactBuilder { b.contentType = ct; return b }

// Text sets the artifact body from a string (chainable).
func (b *ArtifactBuilder) Text(body string) *ArtifactBuilder { b.body = []byte(body); return b }

// Degraded marks the artifact as produced by a fallback path and records
// the reason in metadata (chainable).
func (b *ArtifactBuilder) Degraded(reason string) *ArtifactBuilder {
	b.degraded = true
	return b.Meta(core.MetaDegradedReason, reason)
}

// Meta sets a metadata key/value pair (chainable).
func (b *ArtifactBuilder) Meta(key, val string) *ArtifactBuilder {
	if b.metadata == nil {
		b.metadata = map[string]string{}
	}
	b.metadata[key] = val
	return b
}

// At overrides the creation timestamp (chainable).
func (b *ArtifactBuilder) At(at time.Time) *ArtifactBuilder { b.createdAt = at; return b }

// Build constructs the core.Artifact value.
func (b *ArtifactBuilder) Build() core.Artifact {
	a := core.Artifact{
		ID:          b.id,
		TaskID:      b.taskID,
		Kind:        b.kind,
		ContentType: b.contentType,
		Body:        append([]byte(nil), b.body...),
		Degraded:    b.degraded,
		CreatedAt:   b.createdAt,
	}
	if len(b.metadata) > 0 {
		a.Metadata = make(map[string]string, len(b.metadata))
		for k, v := range b.metadata {
			a.Metadata[k] = v
		}
	}
	return a
}
