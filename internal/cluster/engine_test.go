package cluster

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"newsbrief/internal/store"
)

// mockEmbedder returns fixed vectors per text substring.
type mockEmbedder struct {
	vectors map[string][]float64
}

func (m *mockEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		for needle, vec := range m.vectors {
			if contains(text, needle) {
				out[i] = vec
				break
			}
		}
		if out[i] == nil {
			return nil, fmt.Errorf("no vector for text %q", text)
		}
	}
	return out, nil
}

func contains(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func saveRelevant(t *testing.T, st *store.Store, title string, score int) int64 {
	t.Helper()
	id, _, err := st.SaveArticle(store.Article{
		URL:      "https://example.com/" + title,
		Title:    title,
		PeriodID: "2026-08-30",
	})
	if err != nil {
		t.Fatalf("saving article: %v", err)
	}
	err = st.SaveTriage(store.Triage{
		ArticleID:      id,
		Verdict:        store.VerdictRelevant,
		PracticalScore: score,
	})
	if err != nil {
		t.Fatalf("saving triage: %v", err)
	}
	return id
}

func TestRunNoRelevantArticles(t *testing.T) {
	st := openTestStore(t)
	e := New(st, &mockEmbedder{}, 1.2, zap.NewNop())

	r, err := e.Run(context.Background(), "2026-08-30")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if r.StorylineCount != 0 || r.ArticleCount != 0 || r.CatchAllCount != 0 {
		t.Errorf("expected empty result, got %+v", r)
	}
}

func TestRunSingleArticleGoesBrieflyNoted(t *testing.T) {
	st := openTestStore(t)
	saveRelevant(t, st, "lonely", 3)

	// Embedder must not be called for a single article.
	e := New(st, &mockEmbedder{}, 1.2, zap.NewNop())
	r, err := e.Run(context.Background(), "2026-08-30")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if r.StorylineCount != 1 || r.ArticleCount != 1 || r.CatchAllCount != 1 {
		t.Errorf("unexpected result %+v", r)
	}

	lines, err := st.StorylinesForPeriod("2026-08-30")
	if err != nil {
		t.Fatalf("listing storylines: %v", err)
	}
	if len(lines) != 1 || lines[0].Label != CatchAllLabel {
		t.Errorf("expected a single %q storyline, got %+v", CatchAllLabel, lines)
	}
}

func TestRunGroupsAndPoolsSingletons(t *testing.T) {
	st := openTestStore(t)
	saveRelevant(t, st, "model launch day", 5)
	saveRelevant(t, st, "model launch details", 4)
	saveRelevant(t, st, "unrelated database news", 3)

	emb := &mockEmbedder{vectors: map[string][]float64{
		"model launch day":        {0.0, 0.0},
		"model launch details":    {0.1, 0.0},
		"unrelated database news": {10.0, 10.0},
	}}

	e := New(st, emb, 1.2, zap.NewNop())
	r, err := e.Run(context.Background(), "2026-08-30")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if r.StorylineCount != 2 || r.ArticleCount != 3 || r.CatchAllCount != 1 {
		t.Errorf("unexpected result %+v", r)
	}

	lines, err := st.StorylinesForPeriod("2026-08-30")
	if err != nil {
		t.Fatalf("listing storylines: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 storylines, got %d", len(lines))
	}

	var foundCatchAll, foundGroup bool
	for _, line := range lines {
		switch {
		case line.Label == CatchAllLabel:
			foundCatchAll = true
			if line.ArticleCount != 1 {
				t.Errorf("expected 1 pooled article, got %d", line.ArticleCount)
			}
		default:
			foundGroup = true
			if line.ArticleCount != 2 {
				t.Errorf("expected grouped storyline of 2, got %d", line.ArticleCount)
			}
		}
	}
	if !foundCatchAll || !foundGroup {
		t.Errorf("expected one group and one catch-all, got %+v", lines)
	}
}

func TestRunReclusteringReplacesStorylines(t *testing.T) {
	st := openTestStore(t)
	saveRelevant(t, st, "alpha story", 5)
	saveRelevant(t, st, "alpha sequel", 4)

	emb := &mockEmbedder{vectors: map[string][]float64{
		"alpha story":  {0, 0},
		"alpha sequel": {0.1, 0},
	}}
	e := New(st, emb, 1.2, zap.NewNop())

	if _, err := e.Run(context.Background(), "2026-08-30"); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if _, err := e.Run(context.Background(), "2026-08-30"); err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	lines, err := st.StorylinesForPeriod("2026-08-30")
	if err != nil {
		t.Fatalf("listing storylines: %v", err)
	}
	if len(lines) != 1 {
		t.Errorf("expected rerun to replace storylines, got %d", len(lines))
	}
}

func TestRunNilEmbedderFailsBeforeClearing(t *testing.T) {
	st := openTestStore(t)
	a := saveRelevant(t, st, "kept story", 5)
	b := saveRelevant(t, st, "kept sequel", 4)
	if _, err := st.CreateStoryline("2026-08-30", "Kept Story", []int64{a, b}); err != nil {
		t.Fatalf("seeding storyline: %v", err)
	}

	e := New(st, nil, 1.2, zap.NewNop())
	if _, err := e.Run(context.Background(), "2026-08-30"); err == nil {
		t.Fatal("expected error with no embedder configured")
	}

	lines, err := st.StorylinesForPeriod("2026-08-30")
	if err != nil {
		t.Fatalf("listing storylines: %v", err)
	}
	if len(lines) != 1 || lines[0].Label != "Kept Story" {
		t.Errorf("existing storylines must survive a failed run, got %+v", lines)
	}
}

func TestRunEmbedderFailurePropagates(t *testing.T) {
	st := openTestStore(t)
	saveRelevant(t, st, "first", 3)
	saveRelevant(t, st, "second", 3)

	e := New(st, &mockEmbedder{}, 1.2, zap.NewNop())
	if _, err := e.Run(context.Background(), "2026-08-30"); err == nil {
		t.Fatal("expected embedder failure to propagate")
	}
}
