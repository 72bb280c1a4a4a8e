// Package collect gathers articles from feeds and search into the store.
package collect

import (
	"context"

	"go.uber.org/zap"

	"newsbrief/internal/config"
	"newsbrief/internal/feeds"
	"newsbrief/internal/newsapi"
	"newsbrief/internal/store"
)

// Result summarizes one collection run.
type Result struct {
	TotalFound  int            `json:"total_found"`
	NewArticles int            `json:"new_articles"`
	Duplicates  int            `json:"duplicates"`
	Sources     map[string]int `json:"sources"`
}

// Collector pulls articles from all configured sources and saves them.
type Collector struct {
	store      *store.Store
	feedParser *feeds.Parser
	newsClient *newsapi.Client
	newsQuery  string
	log        *zap.Logger
}

// New creates a Collector from configuration.
func New(cfg *config.Config, st *store.Store, log *zap.Logger) *Collector {
	c := &Collector{store: st, log: log}

	if len(cfg.Sources.Feeds) > 0 {
		c.feedParser = feeds.NewParser(cfg.Sources.Feeds, log)
	}

	if cfg.Sources.NewsAPI.Enabled {
		c.newsClient = newsapi.NewClient(cfg.Secrets.NewsAPIKey, log)
		c.newsQuery = cfg.Sources.NewsAPI.Query
		if c.newsQuery == "" {
			c.newsQuery = "artificial intelligence software development"
		}
	}

	return c
}

// Collect gathers articles from every configured source, attributing
// them to periodID. Individual source failures are logged and skipped.
func (c *Collector) Collect(ctx context.Context, periodID string, daysBack int) (*Result, error) {
	r := &Result{Sources: make(map[string]int)}

	if c.feedParser != nil {
		c.log.Info("collecting from feeds", zap.Int("days_back", daysBack))
		for _, e := range c.feedParser.ParseAll(ctx, daysBack) {
			r.TotalFound++
			c.save(r, store.Article{
				URL:           e.URL,
				Title:         e.Title,
				Source:        e.Source,
				PublishedDate: e.PublishedDate,
				Content:       e.Content,
				PeriodID:      periodID,
			})
		}
	}

	if c.newsClient != nil && c.newsClient.Configured() {
		c.log.Info("collecting from newsapi", zap.String("query", c.newsQuery))

		priorities, err := c.store.ActivePriorities()
		if err != nil {
			return nil, err
		}
		var titles []string
		for _, p := range priorities {
			titles = append(titles, p.Title)
		}

		var hits []newsapi.Article
		if len(titles) > 0 {
			c.log.Info("widening search with priorities", zap.Int("count", len(titles)))
			hits = c.newsClient.SearchWithPriorities(ctx, c.newsQuery, titles, daysBack)
		} else {
			hits = c.newsClient.Search(ctx, c.newsQuery, daysBack, 100)
		}

		for _, a := range hits {
			r.TotalFound++
			c.save(r, store.Article{
				URL:           a.URL,
				Title:         a.Title,
				Source:        a.Source,
				PublishedDate: a.PublishedDate,
				Content:       a.Content,
				PeriodID:      periodID,
			})
		}
	}

	c.log.Info("collection complete",
		zap.Int("found", r.TotalFound),
		zap.Int("new", r.NewArticles),
		zap.Int("duplicates", r.Duplicates))
	return r, nil
}

func (c *Collector) save(r *Result, a store.Article) {
	_, duplicate, err := c.store.SaveArticle(a)
	if err != nil {
		c.log.Warn("saving article failed", zap.String("url", a.URL), zap.Error(err))
		return
	}
	if duplicate {
		r.Duplicates++
		return
	}
	r.NewArticles++
	r.Sources[a.Source]++
}
