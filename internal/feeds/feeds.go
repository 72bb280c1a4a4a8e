// Package feeds pulls recent entries from configured RSS/Atom feeds.
package feeds

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"newsbrief/internal/config"
)

const (
	maxPerFeed   = 20
	parseTimeout = 30 * time.Second
)

// Entry is a parsed feed item.
type Entry struct {
	URL           string
	Title         string
	PublishedDate string // YYYY-MM-DD or empty
	Content       string
	Source        string
}

// Parser fetches and filters entries from a fixed set of feeds.
type Parser struct {
	feeds []config.Feed
	log   *zap.Logger
}

// NewParser creates a Parser over the configured feeds.
func NewParser(feeds []config.Feed, log *zap.Logger) *Parser {
	return &Parser{feeds: feeds, log: log}
}

// ParseAll fetches every configured feed and returns entries published
// within daysBack days. A failing feed is logged and skipped; it never
// aborts the run.
func (p *Parser) ParseAll(ctx context.Context, daysBack int) []Entry {
	cutoff := time.Now().AddDate(0, 0, -daysBack)
	parser := gofeed.NewParser()

	var all []Entry
	for _, fc := range p.feeds {
		name := fc.Name
		if name == "" {
			name = sourceName(fc.URL)
		}

		entries, err := parseFeed(ctx, parser, fc.URL, name, cutoff)
		if err != nil {
			p.log.Warn("feed parse failed", zap.String("url", fc.URL), zap.Error(err))
			continue
		}
		p.log.Debug("feed parsed",
			zap.String("source", name),
			zap.Int("entries", len(entries)),
			zap.Int("days_back", daysBack))
		all = append(all, entries...)
	}

	return all
}

func parseFeed(ctx context.Context, parser *gofeed.Parser, feedURL, source string, cutoff time.Time) ([]Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, parseTimeout)
	defer cancel()

	feed, err := parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for _, item := range feed.Items {
		if len(entries) >= maxPerFeed {
			break
		}

		entry := parseItem(item, source)
		if entry == nil {
			continue
		}
		if withinWindow(entry.PublishedDate, cutoff) {
			entries = append(entries, *entry)
		}
	}

	return entries, nil
}

func parseItem(item *gofeed.Item, source string) *Entry {
	itemURL := item.Link
	if itemURL == "" {
		itemURL = item.GUID
	}
	if itemURL == "" {
		return nil
	}

	title := strings.TrimSpace(item.Title)
	if title == "" {
		return nil
	}

	var published string
	if item.PublishedParsed != nil {
		published = item.PublishedParsed.Format("2006-01-02")
	} else if item.UpdatedParsed != nil {
		published = item.UpdatedParsed.Format("2006-01-02")
	}

	var content string
	if item.Content != "" {
		content = StripHTML(item.Content)
	} else if item.Description != "" {
		content = StripHTML(item.Description)
	}

	return &Entry{
		URL:           itemURL,
		Title:         title,
		PublishedDate: published,
		Content:       content,
		Source:        source,
	}
}

// withinWindow keeps undated and unparseable dates; only a date known
// to be older than the cutoff is excluded.
func withinWindow(published string, cutoff time.Time) bool {
	if published == "" {
		return true
	}
	pub, err := time.Parse("2006-01-02", published)
	if err != nil {
		return true
	}
	return !pub.Before(cutoff)
}

// StripHTML extracts visible text from an HTML fragment and collapses
// whitespace.
func StripHTML(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.Join(strings.Fields(fragment), " ")
	}
	doc.Find("script, style").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// sourceName derives a display name from a feed URL's host.
func sourceName(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil || u.Hostname() == "" {
		return feedURL
	}
	host := strings.ToLower(u.Hostname())

	for _, prefix := range []string{"www.", "blog.", "blogs.", "rss.", "feeds."} {
		host = strings.TrimPrefix(host, prefix)
	}

	parts := strings.Split(host, ".")
	name := host
	if len(parts) >= 2 {
		name = parts[len(parts)-2]
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
