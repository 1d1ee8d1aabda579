package agent

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/contentmesh/core"
)

const seoDraft = `# Edge Computing Explained

Edge computing moves computation close to data sources. Latency drops because
workloads run near devices instead of distant datacenters. Edge deployments
pair well with telemetry heavy workloads.`

func TestSEOAgent(t *testing.T) {
	t.Run("optimizes draft with backend keywords", func(t *testing.T) {
		client := &stubSearchClient{keywords: []string{"edge computing", "low latency", "iot devices", "5g networks"}}
		ag := NewSEOAgent(func(o *SEOOptions) { o.SearchClient = client })

		reply := runAssign(t, ag, core.CapabilityOptimizeSEO, core.Input{
			"topic": "edge computing",
			"draft": seoDraft,
		})
		artifact := resultArtifact(t, reply)

		assert.Equal(t, core.ArtifactKindDraftText, artifact.Kind)
		assert.Equal(t, core.ContentTypeMarkdown, artifact.ContentType)
		assert.False(t, artifact.Degraded)
		assert.Equal(t, core.StageSEO, artifact.Metadata[core.MetaStage])
		assert.Equal(t, "search", artifact.Metadata[core.MetaSource])
		assert.Equal(t, "edge computing, low latency, iot devices, 5g networks", artifact.Metadata["keywords"])

		text := artifact.Text()
		assert.Contains(t, text, "# Edge Computing Explained")
		assert.Contains(t, text, "<!-- SEO Metadata -->")
		assert.Contains(t, text, `<!-- Keywords: ["edge computing","low latency","iot devices","5g networks"] -->`)
		assert.Contains(t, text, "featuring keywords like edge computing, low latency, iot devices.")
		assert.Contains(t, text, "<!-- Title Suggestion: Edge Computing: A Comprehensive Guide (edge computing) -->")
		assert.Contains(t, text, "## SEO Recommendations")
		assert.Contains(t, text, "Ensure primary keyword 'edge computing' is prominent")
		assert.Contains(t, text, "variations like 'low latency' and 'iot devices'")

		require.Len(t, client.keywordQueries, 1)
		assert.Equal(t, "edge computing", client.keywordQueries[0])
	})

	t.Run("derives keywords from draft without backend", func(t *testing.T) {
		ag := NewSEOAgent()

		reply := runAssign(t, ag, core.CapabilityOptimizeSEO, core.Input{
			"topic": "edge computing",
			"draft": seoDraft,
		})
		artifact := resultArtifact(t, reply)

		assert.True(t, artifact.Degraded)
		assert.Equal(t, "draft_frequency", artifact.Metadata[core.MetaSource])
		assert.Equal(t, "no search backend configured", artifact.Metadata[core.MetaDegradedReason])

		// Topic leads; the rest come from draft word frequencies.
		keywords := artifact.Metadata["keywords"]
		assert.Contains(t, keywords, "edge computing")
		assert.Contains(t, keywords, "edge")
		assert.Contains(t, artifact.Text(), "## SEO Recommendations")
	})

	t.Run("degrades when backend fails", func(t *testing.T) {
		client := &stubSearchClient{err: errors.New("quota exceeded")}
		ag := NewSEOAgent(func(o *SEOOptions) { o.SearchClient = client })

		reply := runAssign(t, ag, core.CapabilityOptimizeSEO, core.Input{
			"topic": "edge computing",
			"draft": seoDraft,
		})
		artifact := resultArtifact(t, reply)

		assert.True(t, artifact.Degraded)
		assert.Equal(t, "quota exceeded", artifact.Metadata[core.MetaDegradedReason])
	})

	t.Run("sparse keywords are padded to three", func(t *testing.T) {
		client := &stubSearchClient{keywords: []string{"edge computing"}}
		ag := NewSEOAgent(func(o *SEOOptions) { o.SearchClient = client })

		reply := runAssign(t, ag, core.CapabilityOptimizeSEO, core.Input{
			"topic": "edge computing",
			"draft": seoDraft,
		})
		artifact := resultArtifact(t, reply)

		// Padding is not a degradation: the backend answered.
		assert.False(t, artifact.Degraded)
		assert.Contains(t, artifact.Metadata["keywords"], "edge computing trends")
	})

	t.Run("rejects missing draft", func(t *testing.T) {
		ag := NewSEOAgent()

		reply := runAssign(t, ag, core.CapabilityOptimizeSEO, core.Input{"topic": "edge computing"})
		terr := failureError(t, reply)

		assert.Equal(t, core.ErrorCodePermanent, terr.Code)
	})
}

func TestFrequencyKeywords(t *testing.T) {
	draft := "Kubernetes clusters schedule workloads. Kubernetes clusters scale workloads. Scheduling matters."

	keywords := frequencyKeywords(draft, "kubernetes", 5)

	require.NotEmpty(t, keywords)
	assert.Equal(t, "kubernetes", keywords[0])
	assert.Contains(t, keywords, "clusters")
	assert.Contains(t, keywords, "workloads")
	assert.NotContains(t, keywords, "the")
	assert.LessOrEqual(t, len(keywords), 5)
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Edge Computing", titleCase("edge computing"))
	assert.Equal(t, "AI Agents", titleCase("AI agents"))
	assert.Equal(t, "", titleCase(""))
}
