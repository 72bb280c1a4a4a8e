package brief

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
	return m.reply, m.err
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

func seedStoryline(t *testing.T, st *store.Store, label, title, text string, refs []store.SourceRef) int64 {
	t.Helper()
	var ids []int64
	for i := 0; i < 2; i++ {
		id, _, err := st.SaveArticle(store.Article{
			URL:      fmt.Sprintf("https://example.com/%s-%d", strings.ReplaceAll(label, " ", "-"), i),
			Title:    fmt.Sprintf("%s article %d", label, i),
			PeriodID: "2026-08-30",
		})
		if err != nil {
			t.Fatalf("saving article: %v", err)
		}
		ids = append(ids, id)
	}
	lineID, err := st.CreateStoryline("2026-08-30", label, ids)
	if err != nil {
		t.Fatalf("creating storyline: %v", err)
	}
	if _, err := st.SaveNarrative(store.Narrative{
		StorylineID: lineID,
		PeriodID:    "2026-08-30",
		Title:       title,
		Text:        text,
		SourceRefs:  refs,
	}); err != nil {
		t.Fatalf("saving narrative: %v", err)
	}
	return lineID
}

func TestComposeBuildsBriefing(t *testing.T) {
	st := openTestStore(t)
	seedStoryline(t, st, "Launch", "The Launch", "Launch prose.", []store.SourceRef{
		{Title: "launch note", URL: "https://example.com/l", Contribution: "details"},
	})
	seedStoryline(t, st, cluster.CatchAllLabel, cluster.CatchAllLabel, "- **solo** (Wire): point", nil)

	gen := &mockGen{reply: `{"tldr_bullets": ["Launch happened", "It matters"]}`}
	b, err := New(st, gen, zap.NewNop()).Compose(context.Background(), "2026-08-30")
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}

	if b.TLDR != "- Launch happened\n- It matters" {
		t.Errorf("unexpected tldr %q", b.TLDR)
	}
	if b.StorylineCount != 2 || b.ArticleCount != 4 {
		t.Errorf("unexpected counts %+v", b)
	}
	if !strings.Contains(b.BodyMarkdown, "## The Launch") {
		t.Errorf("expected launch section, got %q", b.BodyMarkdown)
	}
	if !strings.Contains(b.BodyMarkdown, "**Sources:**\n- [launch note](https://example.com/l): details") {
		t.Errorf("expected sources list, got %q", b.BodyMarkdown)
	}
	// Catch-all section renders last.
	if strings.Index(b.BodyMarkdown, "## "+cluster.CatchAllLabel) < strings.Index(b.BodyMarkdown, "## The Launch") {
		t.Errorf("expected catch-all last, got %q", b.BodyMarkdown)
	}
	if !strings.Contains(b.BodyMarkdown, "\n\n---\n\n") {
		t.Errorf("expected section separator, got %q", b.BodyMarkdown)
	}

	// Composing wrote the run report anchor.
	anchor, err := st.LastRunAnchor()
	if err != nil {
		t.Fatalf("reading anchor: %v", err)
	}
	if anchor != "2026-08-30" {
		t.Errorf("expected run report anchor, got %q", anchor)
	}
}

func TestComposeTLDRFallbackOnGeneratorError(t *testing.T) {
	st := openTestStore(t)
	seedStoryline(t, st, "Alpha", "Alpha Story", "text", nil)
	seedStoryline(t, st, "Beta", "Beta Story", "text", nil)

	gen := &mockGen{err: fmt.Errorf("model offline")}
	b, err := New(st, gen, zap.NewNop()).Compose(context.Background(), "2026-08-30")
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}
	if !strings.Contains(b.TLDR, "- Alpha Story") || !strings.Contains(b.TLDR, "- Beta Story") {
		t.Errorf("expected title bullets fallback, got %q", b.TLDR)
	}
}

func TestComposeCatchAllOnlySkipsLLM(t *testing.T) {
	st := openTestStore(t)
	seedStoryline(t, st, cluster.CatchAllLabel, cluster.CatchAllLabel, "- bullets", nil)

	gen := &mockGen{reply: "unused"}
	b, err := New(st, gen, zap.NewNop()).Compose(context.Background(), "2026-08-30")
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}
	if gen.calls != 0 {
		t.Errorf("expected no generator calls when only catch-all exists, got %d", gen.calls)
	}
	if b.TLDR != "- No significant storylines today." {
		t.Errorf("unexpected tldr %q", b.TLDR)
	}
}

func TestComposeEmptyPeriod(t *testing.T) {
	st := openTestStore(t)
	gen := &mockGen{}
	b, err := New(st, gen, zap.NewNop()).Compose(context.Background(), "2026-08-30")
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}
	if gen.calls != 0 {
		t.Errorf("expected no generator calls for an empty period, got %d", gen.calls)
	}
	if b.TLDR != "- No articles collected today." {
		t.Errorf("unexpected tldr %q", b.TLDR)
	}
	if b.StorylineCount != 0 || b.ArticleCount != 0 {
		t.Errorf("expected zero counts, got %+v", b)
	}
}

func TestComposeRerunOverwrites(t *testing.T) {
	st := openTestStore(t)
	seedStoryline(t, st, "Gamma", "Gamma Story", "text", nil)

	c := New(st, &mockGen{reply: `{"tldr_bullets": ["first pass"]}`}, zap.NewNop())
	if _, err := c.Compose(context.Background(), "2026-08-30"); err != nil {
		t.Fatalf("first compose failed: %v", err)
	}

	c2 := New(st, &mockGen{reply: `{"tldr_bullets": ["second pass"]}`}, zap.NewNop())
	b, err := c2.Compose(context.Background(), "2026-08-30")
	if err != nil {
		t.Fatalf("second compose failed: %v", err)
	}
	if b.TLDR != "- second pass" {
		t.Errorf("expected overwrite, got %q", b.TLDR)
	}

	all, err := st.AllBriefings()
	if err != nil {
		t.Fatalf("listing briefings: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("expected a single briefing row, got %d", len(all))
	}
}
