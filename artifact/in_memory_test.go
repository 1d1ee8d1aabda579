package artifact

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/hupe1980/contentmesh/core"
)

func testArtifact(id string, kind core.ArtifactKind, body string, at time.Time) core.Artifact {
	return core.Artifact{
		ID:          id,
		TaskID:      "task-" + id,
		Kind:        kind,
		ContentType: core.ContentTypeText,
		Body:        []byte(body),
		Metadata:    map[string]string{core.MetaSource: "test"},
		CreatedAt:   at,
	}
}

func TestInMemoryStore_SaveGetIsolation(t *testing.T) {
	svc := NewInMemoryStore()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	a := testArtifact("a1", core.ArtifactKindDraftText, "hello", base)
	if err := svc.Save("r1", a); err != nil {
		t.Fatalf("save: %v", err)
	}
	// mutate original after save
	a.Body[0] = 'H'
	a.Metadata[core.MetaSource] = "mutated"
	out, err := svc.Get("r1", "a1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if out.Text() != "hello" || out.Metadata[core.MetaSource] != "test" {
		t.Fatalf("stored artifact reflects caller mutation: %+v", out)
	}
	// mutate returned copy
	out.Body[0] = 'x'
	out2, _ := svc.Get("r1", "a1")
	if out2.Text() != "hello" {
		t.Fatalf("expected isolation, got %q", out2.Text())
	}
}

func TestInMemoryStore_SaveIsAppendOnly(t *testing.T) {
	svc := NewInMemoryStore()
	base := time.Now()
	if err := svc.Save("r1", testArtifact("a1", core.ArtifactKindDraftText, "v1", base)); err != nil {
		t.Fatalf("save: %v", err)
	}
	err := svc.Save("r1", testArtifact("a1", core.ArtifactKindDraftText, "v2", base))
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	out, _ := svc.Get("r1", "a1")
	if out.Text() != "v1" {
		t.Fatalf("original artifact must survive rejected overwrite, got %q", out.Text())
	}
}

func TestInMemoryStore_LatestOfKindReturnsMostRecent(t *testing.T) {
	svc := NewInMemoryStore()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	a1 := testArtifact("a1", core.ArtifactKindResearchFindings, "first", base)
	a2 := testArtifact("a2", core.ArtifactKindResearchFindings, "second", base.Add(time.Second))
	other := testArtifact("a3", core.ArtifactKindDraftText, "draft", base.Add(2*time.Second))
	for _, a := range []core.Artifact{a1, a2, other} {
		if err := svc.Save("r1", a); err != nil {
			t.Fatalf("save %s: %v", a.ID, err)
		}
	}

	got, err := svc.LatestOfKind("r1", core.ArtifactKindResearchFindings)
	if err != nil {
		t.Fatalf("latest-of-kind: %v", err)
	}
	if got.ID != "a2" {
		t.Fatalf("expected most recent research artifact a2, got %s", got.ID)
	}
}

func TestInMemoryStore_LatestOfKindMissing(t *testing.T) {
	svc := NewInMemoryStore()
	if err := svc.Save("r1", testArtifact("a1", core.ArtifactKindDraftText, "draft", time.Now())); err != nil {
		t.Fatalf("save: %v", err)
	}

	_, err := svc.LatestOfKind("r1", core.ArtifactKindImageReference)
	var notFound *core.NoArtifactOfKindError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NoArtifactOfKindError, got %v", err)
	}
	if notFound.RunID != "r1" || notFound.Kind != core.ArtifactKindImageReference {
		t.Fatalf("error lost context: %+v", notFound)
	}
}

func TestInMemoryStore_RunsAreIsolated(t *testing.T) {
	svc := NewInMemoryStore()
	base := time.Now()
	if err := svc.Save("r1", testArtifact("a1", core.ArtifactKindResearchFindings, "one", base)); err != nil {
		t.Fatal(err)
	}
	if err := svc.Save("r2", testArtifact("b1", core.ArtifactKindResearchFindings, "two", base)); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Get("r1", "b1"); err == nil {
		t.Fatal("expected r2 artifact to be invisible from r1")
	}
	got, err := svc.LatestOfKind("r2", core.ArtifactKindResearchFindings)
	if err != nil || got.ID != "b1" {
		t.Fatalf("r2 lookup wrong: %v %+v", err, got)
	}
	ids1, _ := svc.List("r1")
	ids2, _ := svc.List("r2")
	if len(ids1) != 1 || len(ids2) != 1 {
		t.Fatalf("runs leaked artifacts: %v %v", ids1, ids2)
	}
}

func TestInMemoryStore_ListPreservesSaveOrder(t *testing.T) {
	svc := NewInMemoryStore()
	base := time.Now()
	for i := 1; i <= 4; i++ {
		a := testArtifact(fmt.Sprintf("a%d", i), core.ArtifactKindDraftText, "x", base)
		if err := svc.Save("r1", a); err != nil {
			t.Fatal(err)
		}
	}
	ids, err := svc.List("r1")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a1", "a2", "a3", "a4"}
	for i, id := range want {
		if ids[i] != id {
			t.Fatalf("save order lost: %v", ids)
		}
	}
}

func TestInMemoryStore_Concurrency(t *testing.T) {
	svc := NewInMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			a := testArtifact(fmt.Sprintf("a%d", i), core.ArtifactKindDraftText, "data", time.Now())
			if err := svc.Save("r1", a); err != nil {
				t.Errorf("save err: %v", err)
			}
			_, _ = svc.List("r1")
			_, _ = svc.LatestOfKind("r1", core.ArtifactKindDraftText)
		}()
	}
	wg.Wait()
	ids, err := svc.List("r1")
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 100 {
		t.Fatalf("expected 100 artifacts, got %d", len(ids))
	}
}
