package providers

import (
	"context"
	"encoding/xml"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Adda-Baaj/arthik-khobor/internal/domain"
	"github.com/Adda-Baaj/arthik-khobor/pkg/newsparse"
)

// sitemapFetcher reads Google News sitemaps published by Indian business desks.
type sitemapFetcher struct {
	client HTTPClient
	opts   options
}

// NewSitemapFetcher builds a fetcher for Google News sitemap providers.
func NewSitemapFetcher(client HTTPClient, opts ...Option) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &sitemapFetcher{client: client, opts: buildOptions(opts)}
}

func (f *sitemapFetcher) ID() string {
	return ProviderSitemap
}

// Fetch resolves every configured sitemap, following sitemap indexes, and
// classifies entries from their titles and keywords.
func (f *sitemapFetcher) Fetch(ctx context.Context, cfg Provider, req Request) (*Batch, error) {
	if !strings.EqualFold(cfg.ID, ProviderSitemap) {
		return nil, fmt.Errorf("sitemap fetcher received incompatible provider %q", cfg.ID)
	}
	if err := requireFeeds(cfg); err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = newsparse.DefaultLimit
	}

	headers := feedHeaders(cfg)
	visited := make(map[string]struct{})
	now := f.opts.now()

	var entries []sitemapURL
	for _, src := range cfg.Feeds {
		src = strings.TrimSpace(src)
		if src == "" {
			continue
		}
		urls, err := f.resolve(ctx, cfg, src, headers, visited)
		if err != nil {
			return nil, err
		}
		entries = append(entries, urls...)
	}

	items := make([]domain.NewsItem, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		loc := strings.TrimSpace(entry.Loc)
		if loc == "" {
			continue
		}
		if _, dup := seen[loc]; dup {
			continue
		}
		seen[loc] = struct{}{}

		item := sitemapItem(entry, now)
		if !matchesQuery(item, req.Query) && !keywordsMatch(entry.News.Keywords, req.Query) {
			continue
		}
		items = append(items, item)
	}
	if len(items) == 0 && strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("%s sitemap returned no records", cfg.ID)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	renumber(items)

	f.opts.log.InfoObj("sitemap news fetched", "sitemap_news", map[string]any{
		"provider_id": cfg.ID,
		"sitemaps":    len(visited),
		"count":       len(items),
	})
	return &Batch{Items: items, Path: ProviderSitemap}, nil
}

// resolve turns one sitemap url into its entries, following sitemap indexes.
func (f *sitemapFetcher) resolve(ctx context.Context, cfg Provider, url string, headers map[string]string, visited map[string]struct{}) ([]sitemapURL, error) {
	if _, seen := visited[url]; seen {
		return nil, nil
	}
	if len(visited) > 0 {
		if err := sleepCtx(ctx, cfg.RequestDelay()); err != nil {
			return nil, err
		}
	}
	visited[url] = struct{}{}

	raw, err := f.fetch(ctx, cfg.ID, url, headers)
	if err != nil {
		return nil, err
	}

	urls, err := parseNewsSitemap(raw)
	if err != nil {
		return nil, fmt.Errorf("decode news sitemap: %w", err)
	}
	if len(urls) > 0 {
		return urls, nil
	}

	nested, err := parseSitemapIndex(raw)
	if err != nil {
		return nil, fmt.Errorf("decode sitemap index: %w", err)
	}

	var all []sitemapURL
	for _, next := range nested {
		found, err := f.resolve(ctx, cfg, next, headers, visited)
		if err != nil {
			return nil, err
		}
		all = append(all, found...)
	}
	return all, nil
}

func (f *sitemapFetcher) fetch(ctx context.Context, providerID, url string, headers map[string]string) ([]byte, error) {
	resp, err := f.client.Get(ctx, url, headers)
	if err != nil {
		return nil, fmt.Errorf("fetch %s sitemap: %w", providerID, err)
	}

	body := resp.Body()
	if err := checkStatus(providerID, resp.StatusCode(), body); err != nil {
		return nil, err
	}
	return body, nil
}

type newsSitemap struct {
	URLs []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc  string     `xml:"loc"`
	News newsDetail `xml:"news"`
}

type newsDetail struct {
	PublicationDate string `xml:"publication_date"`
	Keywords        string `xml:"keywords"`
	Title           string `xml:"title"`
	Publication     struct {
		Name string `xml:"name"`
	} `xml:"publication"`
}

type sitemapIndex struct {
	Sitemaps []struct {
		Loc string `xml:"loc"`
	} `xml:"sitemap"`
}

func parseNewsSitemap(data []byte) ([]sitemapURL, error) {
	var sm newsSitemap
	if err := xml.Unmarshal(data, &sm); err != nil {
		return nil, err
	}
	return sm.URLs, nil
}

// parseSitemapIndex returns the nested sitemap urls of an index document.
func parseSitemapIndex(data []byte) ([]string, error) {
	var index sitemapIndex
	if err := xml.Unmarshal(data, &index); err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(index.Sitemaps))
	for _, entry := range index.Sitemaps {
		if loc := strings.TrimSpace(entry.Loc); loc != "" {
			urls = append(urls, loc)
		}
	}
	return urls, nil
}

// sitemapItem builds a news item from a sitemap entry. Sitemaps carry no
// body text, so sentiment, impact and sectors are read from title and keywords.
func sitemapItem(entry sitemapURL, now time.Time) domain.NewsItem {
	title := strings.TrimSpace(entry.News.Title)
	keywords := strings.Join(parseKeywords(entry.News.Keywords), ", ")

	item := newsparse.Classify(newsparse.Match{
		Kind:  newsparse.KindLinked,
		Title: title,
		URL:   strings.TrimSpace(entry.Loc),
	}, 0, now)

	text := title + " " + keywords
	item.Sentiment = newsparse.ClassifySentiment(text)
	item.SentimentScore = item.Sentiment.Score()
	item.Impact = newsparse.ClassifyImpact(text)
	item.Sectors = newsparse.ClassifySectors(text)

	if t := parsePublicationDate(entry.News.PublicationDate); !t.IsZero() {
		item.PublishedAt = t
	}
	if name := strings.TrimSpace(entry.News.Publication.Name); name != "" {
		item.Source = name
	}
	return item
}

// parseKeywords splits a comma-separated keyword list.
func parseKeywords(raw string) []string {
	parts := strings.Split(raw, ",")
	keywords := make([]string, 0, len(parts))
	for _, part := range parts {
		if kw := strings.TrimSpace(part); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return keywords
}

func keywordsMatch(raw, query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	return query != "" && strings.Contains(strings.ToLower(raw), query)
}

func parsePublicationDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t
	}
	if t, ok := newsparse.ParseDate(raw); ok {
		return t
	}
	return time.Time{}
}
