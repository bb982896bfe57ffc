package providers

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/Adda-Baaj/arthik-khobor/internal/domain"
	"github.com/Adda-Baaj/arthik-khobor/pkg/newsparse"
)

// rssFetcher reads news from plain RSS/Atom feeds and classifies it locally.
type rssFetcher struct {
	client HTTPClient
	opts   options
}

// NewRSSFetcher builds a fetcher for RSS/Atom feed providers.
func NewRSSFetcher(client HTTPClient, opts ...Option) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &rssFetcher{client: client, opts: buildOptions(opts)}
}

func (f *rssFetcher) ID() string {
	return ProviderRSS
}

// Fetch reads every configured feed. Feeds that fail are skipped; the fetch
// fails only when none could be read.
func (f *rssFetcher) Fetch(ctx context.Context, cfg Provider, req Request) (*Batch, error) {
	if !strings.EqualFold(cfg.ID, ProviderRSS) {
		return nil, fmt.Errorf("rss fetcher received incompatible provider %q", cfg.ID)
	}
	if err := requireFeeds(cfg); err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = newsparse.DefaultLimit
	}

	parser := gofeed.NewParser()
	now := f.opts.now()

	var (
		items   []domain.NewsItem
		lastErr error
		ok      int
	)
	for i, feedURL := range cfg.Feeds {
		feedURL = strings.TrimSpace(feedURL)
		if feedURL == "" {
			continue
		}
		if i > 0 {
			if err := sleepCtx(ctx, cfg.RequestDelay()); err != nil {
				return nil, err
			}
		}

		feed, err := f.readFeed(ctx, cfg, parser, feedURL)
		if err != nil {
			lastErr = err
			f.opts.log.WarnObj("rss feed skipped", "rss_feed_error", map[string]any{
				"provider_id": cfg.ID,
				"feed":        feedURL,
				"error":       err.Error(),
			})
			continue
		}
		ok++

		for _, entry := range feed.Items {
			if entry == nil {
				continue
			}
			item := feedItem(entry, feed.Title, now)
			if !matchesQuery(item, req.Query) {
				continue
			}
			items = append(items, item)
		}
	}

	if ok == 0 {
		return nil, fmt.Errorf("read %s feeds: %w", cfg.ID, lastErr)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	renumber(items)

	f.opts.log.InfoObj("rss news fetched", "rss_news", map[string]any{
		"provider_id": cfg.ID,
		"feeds_ok":    ok,
		"count":       len(items),
	})
	return &Batch{Items: items, Path: ProviderRSS}, nil
}

func (f *rssFetcher) readFeed(ctx context.Context, cfg Provider, parser *gofeed.Parser, feedURL string) (*gofeed.Feed, error) {
	resp, err := f.client.Get(ctx, feedURL, feedHeaders(cfg))
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", feedURL, err)
	}
	body := resp.Body()
	if err := checkStatus(cfg.ID, resp.StatusCode(), body); err != nil {
		return nil, err
	}

	feed, err := parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}
	return feed, nil
}

// feedItem classifies one feed entry the same way prose items are classified,
// then trusts the feed for the publish date and source name.
func feedItem(entry *gofeed.Item, feedTitle string, now time.Time) domain.NewsItem {
	summary := htmlText(entry.Description)
	if summary == "" {
		summary = htmlText(entry.Content)
	}

	item := newsparse.Classify(newsparse.Match{
		Kind:  newsparse.KindLinked,
		Title: strings.TrimSpace(entry.Title),
		URL:   strings.TrimSpace(entry.Link),
		Body:  summary,
	}, 0, now)

	switch {
	case entry.PublishedParsed != nil:
		item.PublishedAt = *entry.PublishedParsed
	case entry.UpdatedParsed != nil:
		item.PublishedAt = *entry.UpdatedParsed
	}
	if title := strings.TrimSpace(feedTitle); title != "" {
		item.Source = title
	}
	return item
}

// htmlText strips markup from a feed description.
func htmlText(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || !strings.Contains(raw, "<") {
		return raw
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return raw
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func matchesQuery(item domain.NewsItem, query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(item.Title), query) ||
		strings.Contains(strings.ToLower(item.Summary), query)
}

// feedHeaders drops the JSON content type; feeds are plain GETs.
func feedHeaders(cfg Provider) map[string]string {
	h := Headers(cfg)
	delete(h, "Content-Type")
	return h
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
