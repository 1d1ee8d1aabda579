package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/hupe1980/contentmesh/core"
	"github.com/hupe1980/contentmesh/logging"
	"github.com/hupe1980/contentmesh/search"
)

// SEOOptions configure an SEOAgent.
type SEOOptions struct {
	ID           string
	Name         string
	SearchClient search.Client // nil means keywords are derived from the draft itself
	MaxKeywords  int
	IDGenerator  core.IDGenerator
	Clock        core.Clock
	Logger       logging.Logger
}

// SEOAgent optimizes a draft for search engines. It obtains keywords from a
// search backend, falling back to frequency-derived keywords from the draft
// text, and weaves a keyword and meta-description block into the draft.
type SEOAgent struct {
	BaseAgent
	client      search.Client
	maxKeywords int
}

type seoInput struct {
	Topic string `json:"topic" description:"Topic of the blog post"`
	Draft string `json:"draft" description:"Draft to optimize"`
}

// NewSEOAgent constructs an SEO agent with the optimize_seo capability.
func NewSEOAgent(optFns ...func(o *SEOOptions)) *SEOAgent {
	opts := SEOOptions{
		ID:          "seo-agent",
		Name:        "SEO Agent",
		MaxKeywords: 10,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	a := &SEOAgent{
		client:      opts.SearchClient,
		maxKeywords: opts.MaxKeywords,
	}
	a.BaseAgent = NewBaseAgent(opts.ID, opts.Name, func(o *BaseOptions) {
		o.Description = "Optimizes blog post drafts for search engines"
		applyBaseOverrides(o, opts.IDGenerator, opts.Clock, opts.Logger)
	})
	a.MustRegisterCapability(NewCapabilityFromStruct(
		core.CapabilityOptimizeSEO,
		"Optimizes a blog post draft for SEO using keyword research",
		seoInput{},
		a.optimize,
	))
	return a
}

func (a *SEOAgent) optimize(cctx *Context, input core.Input) (core.Artifact, error) {
	topic, _ := input.String("topic")
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return core.Artifact{}, core.NewPermanentError(core.CapabilityOptimizeSEO, "topic must not be empty")
	}
	draft, _ := input.String("draft")
	if strings.TrimSpace(draft) == "" {
		return core.Artifact{}, core.NewPermanentError(core.CapabilityOptimizeSEO, "draft must not be empty")
	}

	keywords, degraded, reason := a.keywords(cctx.Context(), cctx.Logger(), topic, draft)
	keywords = padKeywords(keywords, topic)

	block, err := seoBlock(topic, keywords)
	if err != nil {
		return core.Artifact{}, err
	}
	optimized := strings.TrimRight(draft, "\n") + "\n\n" + block + "\n"

	artifact := cctx.NewArtifact(core.ArtifactKindDraftText, core.ContentTypeMarkdown, []byte(optimized))
	artifact.Metadata = map[string]string{
		core.MetaStage:  core.StageSEO,
		core.MetaSource: "search",
		"keywords":      strings.Join(keywords, ", "),
	}
	if degraded {
		artifact.Degraded = true
		artifact.Metadata[core.MetaSource] = "draft_frequency"
		artifact.Metadata[core.MetaDegradedReason] = reason
	}
	return artifact, nil
}

// keywords queries the backend, degrading to frequency-derived keywords when
// the backend is absent, errors or comes back empty.
func (a *SEOAgent) keywords(ctx context.Context, logger logging.Logger, topic, draft string) ([]string, bool, string) {
	if a.client == nil {
		return frequencyKeywords(draft, topic, a.maxKeywords), true, "no search backend configured"
	}

	keywords, err := a.client.Keywords(ctx, topic, a.maxKeywords)
	if err != nil {
		logger.Warn("seo.keywords.failed topic=%q: %v", topic, err)
		return frequencyKeywords(draft, topic, a.maxKeywords), true, err.Error()
	}
	if len(keywords) == 0 {
		logger.Warn("seo.keywords.empty topic=%q", topic)
		return frequencyKeywords(draft, topic, a.maxKeywords), true, "keyword search returned no results"
	}
	return keywords, false, ""
}

// seoBlock renders the metadata comments plus recommendations appended to
// the optimized draft. Callers guarantee at least three keywords.
func seoBlock(topic string, keywords []string) (string, error) {
	keywordsJSON, err := json.Marshal(keywords)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`<!-- SEO Metadata -->
<!-- Keywords: %s -->
<!-- Meta Description Suggestion: Discover in-depth insights and expert analysis on %s, featuring keywords like %s. Explore current trends and learn everything you need to know. -->
<!-- Title Suggestion: %s: A Comprehensive Guide (%s) -->

## SEO Recommendations

Based on keyword research for '%s', the following keywords were identified: %s.

- Ensure primary keyword '%s' is prominent in the title, headings, and early paragraphs.
- Naturally integrate variations like '%s' and '%s' in subheadings and body content.
- Keep the meta description under 160 characters and include the primary keyword.`,
		keywordsJSON,
		topic, strings.Join(keywords[:3], ", "),
		titleCase(topic), keywords[0],
		topic, strings.Join(keywords, ", "),
		keywords[0],
		keywords[1], keywords[2],
	), nil
}

// padKeywords tops up sparse keyword lists with deterministic topic variants
// so downstream consumers always see at least three entries.
func padKeywords(keywords []string, topic string) []string {
	if len(keywords) >= 3 {
		return keywords
	}
	seen := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		seen[strings.ToLower(kw)] = struct{}{}
	}
	for _, kw := range search.FallbackKeywords(topic) {
		if len(keywords) >= 3 {
			break
		}
		if _, dup := seen[strings.ToLower(kw)]; dup {
			continue
		}
		seen[strings.ToLower(kw)] = struct{}{}
		keywords = append(keywords, kw)
	}
	return keywords
}

// seoStopwords are excluded from frequency-derived keywords.
var seoStopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "that": {}, "this": {},
	"from": {}, "are": {}, "was": {}, "were": {}, "have": {}, "has": {},
	"but": {}, "not": {}, "you": {}, "your": {}, "they": {}, "their": {},
	"its": {}, "about": {}, "into": {}, "will": {}, "would": {}, "can": {},
	"could": {}, "than": {}, "then": {}, "them": {}, "these": {}, "those": {},
	"when": {}, "where": {}, "what": {}, "which": {}, "while": {}, "also": {},
	"more": {}, "most": {}, "some": {}, "such": {}, "only": {}, "over": {},
	"very": {}, "just": {}, "like": {}, "been": {}, "being": {}, "each": {},
	"here": {}, "there": {},
}

// frequencyKeywords derives keywords from word frequencies in the draft. The
// topic always comes first; remaining slots are filled by the most frequent
// non-stopword terms, ties broken by first occurrence.
func frequencyKeywords(draft, topic string, maxKeywords int) []string {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)

	index := 0
	for _, word := range strings.FieldsFunc(strings.ToLower(draft), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len(word) < 4 {
			continue
		}
		if _, stop := seoStopwords[word]; stop {
			continue
		}
		if _, ok := counts[word]; !ok {
			firstSeen[word] = index
		}
		counts[word]++
		index++
	}

	candidates := make([]string, 0, len(counts))
	for word := range counts {
		candidates = append(candidates, word)
	}
	sort.Slice(candidates, func(i, j int) bool {
		if counts[candidates[i]] != counts[candidates[j]] {
			return counts[candidates[i]] > counts[candidates[j]]
		}
		return firstSeen[candidates[i]] < firstSeen[candidates[j]]
	})

	keywords := []string{topic}
	lowerTopic := strings.ToLower(topic)
	for _, word := range candidates {
		if maxKeywords > 0 && len(keywords) >= maxKeywords {
			break
		}
		if word == lowerTopic {
			continue
		}
		keywords = append(keywords, word)
	}
	return keywords
}

// titleCase uppercases the first rune of every word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
