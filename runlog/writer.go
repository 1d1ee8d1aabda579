package runlog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hupe1980/contentmesh/core"
)

// WriteRecords streams task records as JSON lines. The record shape is the
// flat serializable form exposed by core.Task.Record, so any external log
// store that accepts JSONL can ingest a finished run.
func WriteRecords(w io.Writer, records []core.TaskRecord) error {
	enc := json.NewEncoder(w)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("encode record %s: %w", rec.TaskID, err)
		}
	}
	return nil
}

// WriteOutput saves the artifact body under dir as a markdown file named from
// the sanitized topic and the timestamp, creating the directory when needed.
// Returns the written path.
func WriteOutput(dir, topic string, a core.Artifact, at time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	name := fmt.Sprintf("%s_%s.md", SanitizeTopic(topic), at.Format("20060102_150405"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, a.Body, 0o644); err != nil {
		return "", fmt.Errorf("write output: %w", err)
	}
	return path, nil
}

// SanitizeTopic reduces a topic to a filesystem-safe slug: letters, digits,
// dashes and underscores survive, spaces collapse to single underscores.
func SanitizeTopic(topic string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.TrimSpace(topic) {
		switch {
		case r == ' ' || r == '\t':
			if !lastUnderscore && b.Len() > 0 {
				b.WriteRune('_')
				lastUnderscore = true
			}
		case r == '-' || r == '_' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastUnderscore = false
		}
	}
	s := strings.Trim(b.String(), "_")
	if s == "" {
		return "untitled"
	}
	return s
}
