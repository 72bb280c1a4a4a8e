package narrate

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"newsbrief/internal/cluster"
	"newsbrief/internal/store"
)

type mockGen struct {
	reply string
	err   error
	calls int
}

func (m *mockGen) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func (m *mockGen) Available() bool { return true }

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func saveArticle(t *testing.T, st *store.Store, title, source string, keyPoints []string) int64 {
	t.Helper()
	id, _, err := st.SaveArticle(store.Article{
		URL:      "https://example.com/" + strings.ReplaceAll(title, " ", "-"),
		Title:    title,
		Source:   source,
		PeriodID: "2026-08-30",
	})
	if err != nil {
		t.Fatalf("saving article: %v", err)
	}
	err = st.SaveTriage(store.Triage{
		ArticleID:      id,
		Verdict:        store.VerdictRelevant,
		KeyPoints:      keyPoints,
		PracticalScore: 3,
	})
	if err != nil {
		t.Fatalf("saving triage: %v", err)
	}
	return id
}

func TestRunNarratesStoryline(t *testing.T) {
	st := openTestStore(t)
	a := saveArticle(t, st, "model ships", "Wire", []string{"fast"})
	b := saveArticle(t, st, "model reviewed", "Blog", nil)
	lineID, err := st.CreateStoryline("2026-08-30", "Model Launch", []int64{a, b})
	if err != nil {
		t.Fatalf("creating storyline: %v", err)
	}

	gen := &mockGen{reply: `{"title": "The Model Arrives", "narrative": "Two paragraphs here.", "source_references": [{"title": "model ships", "url": "https://example.com/model-ships", "contribution": "launch details"}]}`}
	r, err := New(st, gen, zap.NewNop()).Run(context.Background(), "2026-08-30")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if r.Created != 1 || r.Errors != 0 {
		t.Errorf("unexpected result %+v", r)
	}

	nar, err := st.NarrativeForStoryline(lineID)
	if err != nil {
		t.Fatalf("reading narrative: %v", err)
	}
	if nar == nil || nar.Title != "The Model Arrives" || nar.Text != "Two paragraphs here." {
		t.Errorf("unexpected narrative %+v", nar)
	}
	if len(nar.SourceRefs) != 1 || nar.SourceRefs[0].Contribution != "launch details" {
		t.Errorf("unexpected source refs %+v", nar.SourceRefs)
	}
}

func TestRunUnparseableReplyKeptVerbatim(t *testing.T) {
	st := openTestStore(t)
	a := saveArticle(t, st, "one", "Wire", nil)
	b := saveArticle(t, st, "two", "Wire", nil)
	lineID, err := st.CreateStoryline("2026-08-30", "Some Label", []int64{a, b})
	if err != nil {
		t.Fatalf("creating storyline: %v", err)
	}

	gen := &mockGen{reply: "Here is some plain prose without JSON."}
	if _, err := New(st, gen, zap.NewNop()).Run(context.Background(), "2026-08-30"); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	nar, err := st.NarrativeForStoryline(lineID)
	if err != nil {
		t.Fatalf("reading narrative: %v", err)
	}
	if nar.Title != "Some Label" {
		t.Errorf("expected label as fallback title, got %q", nar.Title)
	}
	if nar.Text != "Here is some plain prose without JSON." {
		t.Errorf("expected raw reply kept, got %q", nar.Text)
	}
	if len(nar.SourceRefs) != 2 {
		t.Errorf("expected refs for all member articles, got %+v", nar.SourceRefs)
	}
}

func TestRunCatchAllSkipsLLM(t *testing.T) {
	st := openTestStore(t)
	a := saveArticle(t, st, "odd one", "Wire", []string{"the key point"})
	b := saveArticle(t, st, "odd two", "", nil)
	lineID, err := st.CreateStoryline("2026-08-30", cluster.CatchAllLabel, []int64{a, b})
	if err != nil {
		t.Fatalf("creating storyline: %v", err)
	}

	gen := &mockGen{reply: "should never be used"}
	r, err := New(st, gen, zap.NewNop()).Run(context.Background(), "2026-08-30")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if gen.calls != 0 {
		t.Errorf("expected no generator calls for catch-all, got %d", gen.calls)
	}
	if r.Created != 1 {
		t.Errorf("unexpected result %+v", r)
	}

	nar, err := st.NarrativeForStoryline(lineID)
	if err != nil {
		t.Fatalf("reading narrative: %v", err)
	}
	if !strings.Contains(nar.Text, "- **odd one** (Wire): the key point") {
		t.Errorf("expected key-point bullet, got %q", nar.Text)
	}
	if !strings.Contains(nar.Text, "- **odd two** (Unknown): odd two") {
		t.Errorf("expected title bullet with Unknown source, got %q", nar.Text)
	}
}

func TestRunResumesExistingNarratives(t *testing.T) {
	st := openTestStore(t)
	a := saveArticle(t, st, "one", "Wire", nil)
	b := saveArticle(t, st, "two", "Wire", nil)
	if _, err := st.CreateStoryline("2026-08-30", "Label", []int64{a, b}); err != nil {
		t.Fatalf("creating storyline: %v", err)
	}

	gen := &mockGen{reply: `{"title": "T", "narrative": "N"}`}
	nrt := New(st, gen, zap.NewNop())

	if _, err := nrt.Run(context.Background(), "2026-08-30"); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	calls := gen.calls

	r, err := nrt.Run(context.Background(), "2026-08-30")
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if gen.calls != calls {
		t.Errorf("expected rerun to reuse narratives, got %d extra calls", gen.calls-calls)
	}
	if r.Created != 1 {
		t.Errorf("expected existing narrative counted, got %+v", r)
	}
}

func TestRunGenerationErrorCounted(t *testing.T) {
	st := openTestStore(t)
	a := saveArticle(t, st, "one", "Wire", nil)
	b := saveArticle(t, st, "two", "Wire", nil)
	if _, err := st.CreateStoryline("2026-08-30", "Label", []int64{a, b}); err != nil {
		t.Fatalf("creating storyline: %v", err)
	}

	gen := &mockGen{err: fmt.Errorf("model offline")}
	r, err := New(st, gen, zap.NewNop()).Run(context.Background(), "2026-08-30")
	if err != nil {
		t.Fatalf("run should not fail outright: %v", err)
	}
	if r.Errors != 1 || r.Created != 0 {
		t.Errorf("unexpected result %+v", r)
	}
}
