package search

import (
	"context"
	"fmt"
)

// Compile-time check that Simulated satisfies the Client interface.
var _ Client = (*Simulated)(nil)

// Simulated is a deterministic in-process search backend. It fabricates
// plausible findings from the query text alone, which makes it suitable for
// tests and for degraded operation when no real backend is reachable.
type Simulated struct{}

// NewSimulated creates a simulated search client.
func NewSimulated() *Simulated { return &Simulated{} }

// Search returns fabricated findings derived from the query.
func (s *Simulated) Search(_ context.Context, query string, maxResults int) ([]Result, error) {
	results := []Result{
		{
			Title:   fmt.Sprintf("Simulated Result 1: Exploring %s", query),
			URL:     "http://sim.example.com/1",
			Summary: fmt.Sprintf("General information about %s, covering core concepts and recent developments.", query),
		},
		{
			Title:   fmt.Sprintf("Simulated Result 2: Understanding %s", query),
			URL:     "http://sim.example.com/2",
			Summary: fmt.Sprintf("Key aspects and an overview related to %s, with practical context.", query),
		},
	}
	return capResults(results, maxResults), nil
}

// Keywords returns fabricated keyword suggestions derived from the query.
func (s *Simulated) Keywords(_ context.Context, query string, maxKeywords int) ([]string, error) {
	keywords := FallbackKeywords(query)
	if maxKeywords > 0 && len(keywords) > maxKeywords {
		keywords = keywords[:maxKeywords]
	}
	return keywords, nil
}

// FallbackKeywords derives a deterministic keyword set from a topic. Agents
// use it to pad sparse backend responses.
func FallbackKeywords(topic string) []string {
	return []string{
		topic,
		fmt.Sprintf("%s trends", topic),
		fmt.Sprintf("best %s practices", topic),
		fmt.Sprintf("learn %s", topic),
		fmt.Sprintf("guide to %s", topic),
	}
}

func capResults(results []Result, maxResults int) []Result {
	if maxResults > 0 && len(results) > maxResults {
		return results[:maxResults]
	}
	return results
}
