package runlog

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hupe1980/contentmesh/core"
)

func TestWriteRecords_EmitsJSONLines(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	records := []core.TaskRecord{
		{TaskID: "t1", RunID: "r1", AgentID: "a1", Capability: "research_topic", Status: core.TaskStatusCompleted, ArtifactID: "art1", ArtifactKind: core.ArtifactKindResearchFindings, ArtifactSize: 42, CreatedAt: base, CompletedAt: base.Add(time.Second)},
		{TaskID: "t2", RunID: "r1", AgentID: "a2", Capability: "write_content", Status: core.TaskStatusFailed, ErrorCode: core.ErrorCodeTransient, CreatedAt: base, CompletedAt: base.Add(2 * time.Second)},
	}

	var buf bytes.Buffer
	if err := WriteRecords(&buf, records); err != nil {
		t.Fatalf("write: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	var first core.TaskRecord
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("line 1 not valid JSON: %v", err)
	}
	if first.TaskID != "t1" || first.ArtifactSize != 42 {
		t.Fatalf("record lost fields: %+v", first)
	}
	var second core.TaskRecord
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("line 2 not valid JSON: %v", err)
	}
	if second.ErrorCode != core.ErrorCodeTransient || second.ArtifactID != "" {
		t.Fatalf("failed record malformed: %+v", second)
	}
}

func TestWriteOutput_SavesMarkdownFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "outputs")
	a := core.Artifact{
		ID:          "art1",
		Kind:        core.ArtifactKindComposite,
		ContentType: core.ContentTypeMarkdown,
		Body:        []byte("# Edge Computing\n\ncontent"),
	}
	at := time.Date(2025, 6, 1, 12, 30, 45, 0, time.UTC)

	path, err := WriteOutput(dir, "Edge Computing: A Review!", a, at)
	if err != nil {
		t.Fatalf("write output: %v", err)
	}
	if filepath.Base(path) != "Edge_Computing_A_Review_20250601_123045.md" {
		t.Fatalf("unexpected filename: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != string(a.Body) {
		t.Fatalf("body not preserved: %q", string(data))
	}
}

func TestSanitizeTopic(t *testing.T) {
	cases := map[string]string{
		"Edge Computing":        "Edge_Computing",
		"  spaced   out  ":      "spaced_out",
		"C++ & Go: a tale":      "C_Go_a_tale",
		"already_safe-name":     "already_safe-name",
		"!!!":                   "untitled",
		"":                      "untitled",
		"Tabs\tand spaces here": "Tabs_and_spaces_here",
	}
	for in, want := range cases {
		if got := SanitizeTopic(in); got != want {
			t.Fatalf("SanitizeTopic(%q) = %q, want %q", in, got, want)
		}
	}
}
