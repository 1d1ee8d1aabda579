// Package search defines the research retrieval contract used by content
// agents, together with a deterministic in-process implementation. Real
// backends such as Apify actors live in subpackages; agents fall back to
// the simulated client when no backend is configured.
package search
