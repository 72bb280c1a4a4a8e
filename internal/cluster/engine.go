// Package cluster groups a period's relevant articles into storylines
// by embedding them and running Ward agglomerative clustering.
package cluster

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"newsbrief/internal/ai"
	"newsbrief/internal/store"
)

const (
	// CatchAllLabel names the pooled storyline of articles that did
	// not cluster with anything else.
	CatchAllLabel = "Briefly Noted"

	// DefaultThreshold is the dendrogram cut height used when the
	// configuration does not set one.
	DefaultThreshold = 1.2

	maxExcerptLen = 500
)

// Result summarizes one clustering run.
type Result struct {
	StorylineCount int `json:"storyline_count"`
	ArticleCount   int `json:"article_count"`
	CatchAllCount  int `json:"catch_all_count"`
}

// Engine clusters relevant articles into storylines.
type Engine struct {
	store     *store.Store
	embedder  ai.Embedder
	threshold float64
	log       *zap.Logger
}

// New creates an Engine. A non-positive threshold falls back to
// DefaultThreshold.
func New(st *store.Store, embedder ai.Embedder, threshold float64, log *zap.Logger) *Engine {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Engine{store: st, embedder: embedder, threshold: threshold, log: log}
}

// Run reclusters the period's relevant articles. Existing storylines
// for the period (and their narratives) are cleared first, so a rerun
// never duplicates them.
func (e *Engine) Run(ctx context.Context, periodID string) (*Result, error) {
	if e.embedder == nil {
		return nil, fmt.Errorf("no embedder available for clustering")
	}

	articles, err := e.store.RelevantArticles(periodID)
	if err != nil {
		return nil, err
	}
	if len(articles) == 0 {
		e.log.Info("no relevant articles to cluster", zap.String("period", periodID))
		return &Result{}, nil
	}

	if err := e.store.ClearPeriodStorylines(periodID); err != nil {
		return nil, err
	}

	if len(articles) == 1 {
		if _, err := e.store.CreateStoryline(periodID, CatchAllLabel, []int64{articles[0].ID}); err != nil {
			return nil, err
		}
		return &Result{StorylineCount: 1, ArticleCount: 1, CatchAllCount: 1}, nil
	}

	texts := make([]string, len(articles))
	for i, a := range articles {
		texts[i] = e.articleText(a)
	}

	e.log.Info("embedding articles", zap.Int("count", len(articles)))
	vectors, err := e.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}

	groups := agglomerate(vectors, e.threshold)

	var storylines [][]store.Article
	var singles []store.Article
	for _, group := range groups {
		if len(group) >= 2 {
			members := make([]store.Article, len(group))
			for i, idx := range group {
				members[i] = articles[idx]
			}
			storylines = append(storylines, members)
		} else {
			singles = append(singles, articles[group[0]])
		}
	}

	for _, members := range storylines {
		ids := make([]int64, len(members))
		for i, a := range members {
			ids[i] = a.ID
		}
		if _, err := e.store.CreateStoryline(periodID, makeLabel(members), ids); err != nil {
			return nil, err
		}
	}

	catchAll := 0
	if len(singles) > 0 {
		ids := make([]int64, len(singles))
		for i, a := range singles {
			ids[i] = a.ID
		}
		if _, err := e.store.CreateStoryline(periodID, CatchAllLabel, ids); err != nil {
			return nil, err
		}
		catchAll = len(singles)
	}

	total := len(storylines)
	if catchAll > 0 {
		total++
	}

	e.log.Info("clustering complete",
		zap.Int("storylines", len(storylines)),
		zap.Int("briefly_noted", catchAll),
		zap.Int("articles", len(articles)))

	return &Result{
		StorylineCount: total,
		ArticleCount:   len(articles),
		CatchAllCount:  catchAll,
	}, nil
}

// articleText builds the embedding text: title, triage key points, and
// a short content excerpt.
func (e *Engine) articleText(a store.Article) string {
	parts := []string{a.Title}

	if tr, err := e.store.TriageFor(a.ID); err == nil && tr != nil {
		points := tr.KeyPoints
		if len(points) > 3 {
			points = points[:3]
		}
		parts = append(parts, points...)
	}

	if a.Content != "" {
		excerpt := a.Content
		if len(excerpt) > maxExcerptLen {
			excerpt = excerpt[:maxExcerptLen]
		}
		parts = append(parts, excerpt)
	}

	return strings.Join(parts, " ")
}
