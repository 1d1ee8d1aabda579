package core

import "time"

// ArtifactKind tags an artifact's content for downstream routing. The
// orchestrator routes artifacts by kind only and never inspects the body.
type ArtifactKind string

const (
	ArtifactKindResearchFindings ArtifactKind = "research_findings"
	ArtifactKindDraftText        ArtifactKind = "draft_text"
	ArtifactKindKeywordSet       ArtifactKind = "keyword_set"
	ArtifactKindImageReference   ArtifactKind = "image_reference"
	ArtifactKindComposite        ArtifactKind = "composite_document"
)

// Content types carried by pipeline artifacts.
const (
	ContentTypeText     = "text/plain"
	ContentTypeMarkdown = "text/markdown"
	ContentTypeJSON     = "application/json"
	ContentTypeURIList  = "text/uri-list"
)

// Well-known metadata keys recorded for artifact provenance.
const (
	MetaSource         = "source"
	MetaStage          = "stage"
	MetaDegradedReason = "degraded_reason"
	MetaDegradedStages = "degraded_stages"
)

// Artifact is an immutable typed payload produced by one task and consumed by
// another. After construction it should be treated as read-only.
//
// Degraded marks fallback content synthesized after a primary collaborator
// failure. Producers must set it together with a MetaDegradedReason entry
// rather than passing fallback output off as a primary success.
type Artifact struct {
	ID          string            `json:"id"`
	TaskID      string            `json:"task_id"`
	Kind        ArtifactKind      `json:"kind"`
	ContentType string            `json:"content_type"`
	Body        []byte            `json:"body"`
	Degraded    bool              `json:"degraded"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Text returns the content body as a string.
func (a Artifact) Text() string { return string(a.Body) }

// Size returns the content body length in bytes.
func (a Artifact) Size() int { return len(a.Body) }

// Clone returns a deep copy (body and metadata) safe for independent use.
func (a Artifact) Clone() Artifact {
	clone := a
	clone.Body = append([]byte(nil), a.Body...)
	if a.Metadata != nil {
		clone.Metadata = make(map[string]string, len(a.Metadata))
		for k, v := range a.Metadata {
			clone.Metadata[k] = v
		}
	}
	return clone
}
