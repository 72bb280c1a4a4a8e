// Package fetch retrieves full article text for stored articles that
// only have a title or a short summary.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	"go.uber.org/zap"

	"newsbrief/internal/store"
)

const minExtractedLen = 100

// Result summarizes one content-fetch run.
type Result struct {
	Fetched int `json:"fetched"`
	Failed  int `json:"failed"`
}

// Fetcher downloads article pages and extracts readable text.
type Fetcher struct {
	store  *store.Store
	client *http.Client
	log    *zap.Logger
}

// New creates a Fetcher. A zero timeout defaults to 15 seconds.
func New(st *store.Store, timeout time.Duration, log *zap.Logger) *Fetcher {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{
		store: st,
		log:   log,
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// FetchMissing downloads content for articles in periodID that still
// lack it ("" means all periods). A domain that returns an HTTP error
// is skipped for the rest of the run.
func (f *Fetcher) FetchMissing(ctx context.Context, periodID string) (*Result, error) {
	articles, err := f.store.ArticlesNeedingFetch(periodID)
	if err != nil {
		return nil, err
	}
	if len(articles) == 0 {
		f.log.Info("no articles need content fetching")
		return &Result{}, nil
	}

	result := &Result{}
	failedDomains := make(map[string]struct{})

	for _, a := range articles {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		domain := hostOf(a.URL)
		if _, failed := failedDomains[domain]; failed {
			f.markFailed(result, a.ID)
			continue
		}

		content, httpErr := f.extract(ctx, a.URL)
		if httpErr != nil {
			f.markFailed(result, a.ID)
			if domain != "" {
				failedDomains[domain] = struct{}{}
			}
			f.log.Debug("fetch failed, skipping domain",
				zap.String("url", a.URL), zap.Error(httpErr))
			continue
		}

		if content == "" {
			f.markFailed(result, a.ID)
			f.log.Debug("no extractable content", zap.String("url", a.URL))
			continue
		}

		if err := f.store.SetArticleContent(a.ID, content); err != nil {
			f.log.Warn("saving content failed", zap.Int64("article", a.ID), zap.Error(err))
			result.Failed++
			continue
		}
		result.Fetched++
	}

	f.log.Info("content fetch complete",
		zap.Int("fetched", result.Fetched),
		zap.Int("failed", result.Failed))
	return result, nil
}

func (f *Fetcher) markFailed(r *Result, articleID int64) {
	if err := f.store.MarkFetchAttempted(articleID); err != nil {
		f.log.Warn("marking fetch attempt failed", zap.Int64("article", articleID), zap.Error(err))
	}
	r.Failed++
}

// extract downloads the page and runs readability extraction. A non-nil
// error means the server answered with an HTTP error status; connection
// and parse problems yield an empty string instead, so only hard server
// refusals poison the domain.
func (f *Fetcher) extract(ctx context.Context, articleURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, articleURL, nil)
	if err != nil {
		return "", nil
	}
	req.Header.Set("User-Agent", "newsbrief/1.0 (news aggregator)")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("server returned %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil
	}

	parsed, _ := url.Parse(articleURL)
	article, err := readability.FromReader(strings.NewReader(string(body)), parsed)
	if err != nil {
		return "", nil
	}

	text := strings.TrimSpace(article.TextContent)
	if len(text) > minExtractedLen {
		return text, nil
	}
	return "", nil
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}
