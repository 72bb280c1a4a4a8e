package feeds

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"newsbrief/internal/config"
)

func rssDoc(items string) string {
	return `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Test Feed</title>` + items + `</channel></rss>`
}

func rssItem(title, link, pubDate, desc string) string {
	return fmt.Sprintf(
		`<item><title>%s</title><link>%s</link><pubDate>%s</pubDate><description>%s</description></item>`,
		title, link, pubDate, desc)
}

func TestParseAllFiltersByWindow(t *testing.T) {
	recent := time.Now().Format(time.RFC1123Z)
	old := time.Now().AddDate(0, 0, -30).Format(time.RFC1123Z)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssDoc(
			rssItem("Fresh story", "https://example.com/fresh", recent, "body")+
				rssItem("Stale story", "https://example.com/stale", old, "body")))
	}))
	defer srv.Close()

	p := NewParser([]config.Feed{{URL: srv.URL, Name: "Example"}}, zap.NewNop())
	entries := p.ParseAll(context.Background(), 3)

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry within window, got %d", len(entries))
	}
	if entries[0].Title != "Fresh story" {
		t.Errorf("expected fresh story, got %q", entries[0].Title)
	}
	if entries[0].Source != "Example" {
		t.Errorf("expected source 'Example', got %q", entries[0].Source)
	}
}

func TestParseAllKeepsUndatedEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssDoc(`<item><title>Undated</title><link>https://example.com/x</link></item>`))
	}))
	defer srv.Close()

	p := NewParser([]config.Feed{{URL: srv.URL, Name: "Example"}}, zap.NewNop())
	entries := p.ParseAll(context.Background(), 1)
	if len(entries) != 1 {
		t.Fatalf("expected undated entry to be kept, got %d entries", len(entries))
	}
}

func TestParseAllSkipsFailingFeed(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer bad.Close()

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssDoc(rssItem("Works", "https://example.com/a", time.Now().Format(time.RFC1123Z), "x")))
	}))
	defer good.Close()

	p := NewParser([]config.Feed{
		{URL: bad.URL, Name: "Broken"},
		{URL: good.URL, Name: "Good"},
	}, zap.NewNop())

	entries := p.ParseAll(context.Background(), 3)
	if len(entries) != 1 || entries[0].Source != "Good" {
		t.Fatalf("expected the working feed's entry only, got %+v", entries)
	}
}

func TestParseAllCapsPerFeed(t *testing.T) {
	now := time.Now().Format(time.RFC1123Z)
	var items string
	for i := 0; i < maxPerFeed+10; i++ {
		items += rssItem(fmt.Sprintf("Story %d", i), fmt.Sprintf("https://example.com/%d", i), now, "x")
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssDoc(items))
	}))
	defer srv.Close()

	p := NewParser([]config.Feed{{URL: srv.URL, Name: "Big"}}, zap.NewNop())
	entries := p.ParseAll(context.Background(), 3)
	if len(entries) != maxPerFeed {
		t.Fatalf("expected cap of %d entries, got %d", maxPerFeed, len(entries))
	}
}

func TestStripHTML(t *testing.T) {
	got := StripHTML(`<p>Hello <b>world</b> &amp; universe</p><script>var x = 1;</script>`)
	if got != "Hello world & universe" {
		t.Errorf("unexpected stripped text %q", got)
	}
}

func TestSourceName(t *testing.T) {
	cases := map[string]string{
		"https://www.theverge.com/rss/index.xml":   "Theverge",
		"https://feeds.arstechnica.com/index":      "Arstechnica",
		"https://hnrss.org/frontpage":              "Hnrss",
	}
	for in, want := range cases {
		if got := sourceName(in); got != want {
			t.Errorf("sourceName(%q) = %q, want %q", in, got, want)
		}
	}
}
