package search

import "context"

// Result is a single research finding returned by a search backend.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Summary string `json:"summary"`
}

// Client retrieves research findings and keyword suggestions for a topic.
// Implementations must be safe for concurrent use.
type Client interface {
	// Search returns up to maxResults findings for the query.
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)

	// Keywords returns up to maxKeywords keyword suggestions for the query.
	Keywords(ctx context.Context, query string, maxKeywords int) ([]string, error)
}
