// Package apify provides a search.Client backed by Apify actor runs. It
// calls the run-sync endpoint so a single request starts the actor and
// returns its default dataset items.
package apify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hupe1980/contentmesh/search"
)

const (
	defaultBaseURL = "https://api.apify.com/v2"

	// Actor used for topic research. It crawls configured feeds and
	// filters items against the query.
	defaultSearchActorID = "uNMHGOGRawDYkIXmg"

	// Actor used for keyword research.
	defaultKeywordActorID = "kocourek~keyword-research-tool"

	// Summaries longer than this are truncated before they reach prompts.
	maxSummaryLen = 500
)

// Compile-time check that Client satisfies the search.Client interface.
var _ search.Client = (*Client)(nil)

// Options configure the Apify search client.
type Options struct {
	BaseURL        string
	HTTPClient     *http.Client
	SearchActorID  string
	KeywordActorID string
	Feeds          []string
}

// Client runs Apify actors over HTTP and maps their dataset items into
// search results and keyword lists.
type Client struct {
	token string
	opts  Options
}

// New creates an Apify client authenticated with the given API token.
func New(token string, optFns ...func(o *Options)) *Client {
	opts := Options{
		BaseURL:        defaultBaseURL,
		HTTPClient:     &http.Client{Timeout: 180 * time.Second},
		SearchActorID:  defaultSearchActorID,
		KeywordActorID: defaultKeywordActorID,
		Feeds:          []string{"http://feeds.bbci.co.uk/news/technology/rss.xml"},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Client{token: token, opts: opts}
}

// Search implements search.Client by running the research actor.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]search.Result, error) {
	input := map[string]any{
		"feeds": c.opts.Feeds,
		"query": query,
	}
	if maxResults > 0 {
		input["maxArticles"] = maxResults
	}

	items, err := c.runActor(ctx, c.opts.SearchActorID, input)
	if err != nil {
		return nil, err
	}

	results := make([]search.Result, 0, len(items))
	for _, item := range items {
		r := search.Result{
			Title:   stringField(item, "title", "name"),
			URL:     stringField(item, "url", "source_url"),
			Summary: truncate(stringField(item, "summary", "text", "content", "description", "snippet"), maxSummaryLen),
		}
		if r.Title == "" && r.URL == "" && r.Summary == "" {
			continue
		}
		results = append(results, r)
		if maxResults > 0 && len(results) >= maxResults {
			break
		}
	}
	return results, nil
}

// Keywords implements search.Client by running the keyword research actor.
// Duplicates are removed while preserving first-seen order.
func (c *Client) Keywords(ctx context.Context, query string, maxKeywords int) ([]string, error) {
	input := map[string]any{"query": query}
	if maxKeywords > 0 {
		input["maxResults"] = maxKeywords
	}

	items, err := c.runActor(ctx, c.opts.KeywordActorID, input)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(items))
	keywords := make([]string, 0, len(items))
	for _, item := range items {
		keyword := strings.TrimSpace(stringField(item, "keyword", "search_term", "value", "text", "query"))
		if keyword == "" {
			continue
		}
		if _, dup := seen[keyword]; dup {
			continue
		}
		seen[keyword] = struct{}{}
		keywords = append(keywords, keyword)
		if maxKeywords > 0 && len(keywords) >= maxKeywords {
			break
		}
	}
	return keywords, nil
}

// runActor starts an actor synchronously and decodes its dataset items.
func (c *Client) runActor(ctx context.Context, actorID string, input map[string]any) ([]map[string]any, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/acts/%s/run-sync-get-dataset-items", c.opts.BaseURL, url.PathEscape(actorID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		b, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("apify actor %s: status %d: %s", actorID, res.StatusCode, strings.TrimSpace(string(b)))
	}

	var items []map[string]any
	if err := json.NewDecoder(res.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("apify actor %s: decode dataset items: %w", actorID, err)
	}
	return items, nil
}

// stringField returns the first non-empty string value among the given keys.
func stringField(item map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := item[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// truncate shortens s to at most n runes, appending an ellipsis marker.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
