package cluster

import (
	"strings"
	"testing"

	"newsbrief/internal/store"
)

func titled(titles ...string) []store.Article {
	articles := make([]store.Article, len(titles))
	for i, t := range titles {
		articles[i] = store.Article{Title: t}
	}
	return articles
}

func TestMakeLabelTopWords(t *testing.T) {
	articles := titled(
		"OpenAI releases new coding model",
		"Coding benchmarks for the new model",
		"Why the model is good at coding",
	)
	got := makeLabel(articles)
	if !strings.Contains(got, "Coding") || !strings.Contains(got, "Model") {
		t.Errorf("expected the frequent words in label, got %q", got)
	}
}

func TestMakeLabelSkipsStopwordsAndShortWords(t *testing.T) {
	got := makeLabel(titled("The a an is to of AI", "The a an is to of AI"))
	// Only "AI" appears, but it is two characters, so everything is
	// filtered and the first title is the fallback.
	if got != "The a an is to of AI" {
		t.Errorf("expected title fallback, got %q", got)
	}
}

func TestMakeLabelFallbackTruncates(t *testing.T) {
	long := strings.Repeat("xy ", 40) // every word too short to qualify
	got := makeLabel(titled(long))
	if len(got) > 50 {
		t.Errorf("expected fallback label truncated to 50 chars, got %d", len(got))
	}
}

func TestMakeLabelDeterministicOnTies(t *testing.T) {
	// All words occur once; the tie must resolve to first-encountered.
	articles := titled("alpha beta gamma delta")
	first := makeLabel(articles)
	for i := 0; i < 10; i++ {
		if got := makeLabel(articles); got != first {
			t.Fatalf("label changed between runs: %q vs %q", got, first)
		}
	}
	if first != "Alpha Beta Gamma" {
		t.Errorf("expected first-encounter order on ties, got %q", first)
	}
}

func TestMakeLabelAtMostThreeWords(t *testing.T) {
	articles := titled(
		"kubernetes docker terraform ansible puppet",
		"kubernetes docker terraform ansible puppet",
	)
	got := makeLabel(articles)
	if words := strings.Fields(got); len(words) != 3 {
		t.Errorf("expected 3-word label, got %q", got)
	}
}
