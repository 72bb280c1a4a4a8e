// Package newsapi searches newsapi.org's everything endpoint for
// articles matching the configured query.
package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const baseURL = "https://newsapi.org/v2/everything"

// Article is a search hit from NewsAPI.
type Article struct {
	URL           string
	Title         string
	PublishedDate string // YYYY-MM-DD or empty
	Content       string
	Source        string
}

// Client queries NewsAPI.
type Client struct {
	apiKey string
	client *http.Client
	log    *zap.Logger

	// endpoint overrides the API URL in tests.
	endpoint string
}

// NewClient creates a NewsAPI client. An empty key produces a client
// that reports not configured.
func NewClient(apiKey string, log *zap.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		client: &http.Client{Timeout: 30 * time.Second},
		log:    log,
	}
}

// Configured reports whether an API key is available.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Search returns up to pageSize articles matching query within daysBack
// days. Failures are logged and yield an empty result; search problems
// never abort a collection run.
func (c *Client) Search(ctx context.Context, query string, daysBack, pageSize int) []Article {
	if c.apiKey == "" {
		c.log.Debug("newsapi not configured, skipping search")
		return nil
	}

	if pageSize > 100 {
		pageSize = 100
	}

	params := url.Values{
		"q":        {query},
		"from":     {time.Now().AddDate(0, 0, -daysBack).Format("2006-01-02")},
		"to":       {time.Now().Format("2006-01-02")},
		"language": {"en"},
		"pageSize": {fmt.Sprintf("%d", pageSize)},
		"sortBy":   {"relevancy"},
	}

	endpoint := c.endpoint
	if endpoint == "" {
		endpoint = baseURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		c.log.Warn("newsapi request error", zap.Error(err))
		return nil
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Warn("newsapi request failed", zap.Error(err))
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn("newsapi returned non-200", zap.Int("status", resp.StatusCode))
		return nil
	}

	var result struct {
		Status   string `json:"status"`
		Articles []struct {
			URL         string `json:"url"`
			Title       string `json:"title"`
			PublishedAt string `json:"publishedAt"`
			Content     string `json:"content"`
			Description string `json:"description"`
			Source      struct {
				Name string `json:"name"`
			} `json:"source"`
		} `json:"articles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		c.log.Warn("newsapi decode error", zap.Error(err))
		return nil
	}
	if result.Status != "ok" {
		c.log.Warn("newsapi error status", zap.String("status", result.Status))
		return nil
	}

	var articles []Article
	for _, a := range result.Articles {
		if a.URL == "" || a.Title == "" {
			continue
		}
		// NewsAPI tombstones deleted articles rather than omitting them.
		if a.Title == "[Removed]" || a.URL == "https://removed.com" {
			continue
		}

		var published string
		if a.PublishedAt != "" {
			if t, err := time.Parse(time.RFC3339, a.PublishedAt); err == nil {
				published = t.Format("2006-01-02")
			}
		}

		content := a.Content
		if content == "" {
			content = a.Description
		}

		source := "NewsAPI"
		if a.Source.Name != "" {
			source = a.Source.Name
		}

		articles = append(articles, Article{
			URL:           a.URL,
			Title:         strings.TrimSpace(a.Title),
			PublishedDate: published,
			Content:       strings.TrimSpace(content),
			Source:        source,
		})
	}

	c.log.Debug("newsapi search done", zap.String("query", query), zap.Int("articles", len(articles)))
	return articles
}

// SearchWithPriorities runs the base query plus one narrower query per
// active research priority, deduplicating hits by URL.
func (c *Client) SearchWithPriorities(ctx context.Context, baseQuery string, priorities []string, daysBack int) []Article {
	seen := make(map[string]struct{})
	var all []Article

	for _, a := range c.Search(ctx, baseQuery, daysBack, 100) {
		if _, ok := seen[a.URL]; !ok {
			seen[a.URL] = struct{}{}
			all = append(all, a)
		}
	}

	for _, priority := range priorities {
		q := baseQuery + " " + priority
		for _, a := range c.Search(ctx, q, daysBack, 50) {
			if _, ok := seen[a.URL]; !ok {
				seen[a.URL] = struct{}{}
				all = append(all, a)
			}
		}
	}

	return all
}
