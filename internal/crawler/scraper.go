package crawler

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Adda-Baaj/arthik-khobor/internal/domain"
	"github.com/Adda-Baaj/arthik-khobor/internal/logger"
	"github.com/Adda-Baaj/arthik-khobor/pkg/httpclient"
	"github.com/Adda-Baaj/arthik-khobor/pkg/newsparse"
	"github.com/Adda-Baaj/arthik-khobor/pkg/providers"
)

const (
	maxHTMLBodyBytes = 1 << 20 // 1 MiB
	maxPageWorkers   = 10
)

// Scraper fills in placeholder titles and summaries from the linked article pages.
type Scraper struct {
	client httpclient.Client
	log    logger.Logger
	delay  time.Duration
}

// NewScraper creates a Scraper. delay spaces out page requests across all workers.
func NewScraper(client httpclient.Client, log logger.Logger, delay time.Duration) *Scraper {
	if client == nil {
		client = providers.DefaultHTTPClient()
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Scraper{client: client, log: log, delay: delay}
}

// NeedsEnrichment reports whether an item still carries a placeholder that its page could replace.
func NeedsEnrichment(item domain.NewsItem) bool {
	if strings.TrimSpace(item.URL) == "" {
		return false
	}
	return item.Summary == domain.DefaultSummary || item.Title == domain.DefaultTitle
}

// Enrich returns a copy of items with placeholders replaced from page metadata.
// Pages that cannot be fetched leave their item untouched.
func (s *Scraper) Enrich(ctx context.Context, items []domain.NewsItem) []domain.NewsItem {
	out := make([]domain.NewsItem, len(items))
	copy(out, items) // unenriched items survive a cancel

	var jobs []int
	for idx, item := range items {
		if NeedsEnrichment(item) {
			jobs = append(jobs, idx)
		}
	}
	if len(jobs) == 0 {
		return out
	}

	workerCount := min(len(jobs), maxPageWorkers)

	var limiter <-chan time.Time
	if s.delay > 0 {
		ticker := time.NewTicker(s.delay)
		limiter = ticker.C
		defer ticker.Stop()
	}

	jobCh := make(chan int)
	var wg sync.WaitGroup

	for workerID := range workerCount {
		wg.Add(1)
		go s.pageWorker(ctx, items, limiter, jobCh, out, &wg, workerID)
	}

	for _, idx := range jobs {
		if ctx.Err() != nil {
			break
		}
		jobCh <- idx
	}
	close(jobCh)

	wg.Wait()

	s.log.InfoObj("summaries enriched", "enrich_done", map[string]any{
		"candidates": len(jobs),
		"items":      len(items),
	})
	return out
}

func (s *Scraper) pageWorker(
	ctx context.Context,
	items []domain.NewsItem,
	limiter <-chan time.Time,
	jobCh <-chan int,
	out []domain.NewsItem,
	wg *sync.WaitGroup,
	workerID int,
) {
	defer wg.Done()

	for idx := range jobCh {
		if ctx.Err() != nil {
			continue
		}

		if limiter != nil {
			select {
			case <-ctx.Done():
				continue
			case <-limiter:
			}
		}

		item := items[idx]
		enriched, err := s.fetchAndParse(ctx, item, workerID)
		if err != nil {
			s.log.WarnObj("page metadata scrape failed", "metadata_error", map[string]any{
				"worker_id": workerID,
				"url":       item.URL,
				"error":     err.Error(),
			})
			continue
		}
		out[idx] = enriched
	}
}

// fetchAndParse fetches the article page and merges its metadata into item.
func (s *Scraper) fetchAndParse(ctx context.Context, item domain.NewsItem, workerID int) (domain.NewsItem, error) {
	s.log.DebugObj("scraping page metadata", "scrape_start", map[string]any{
		"worker_id": workerID,
		"url":       item.URL,
	})

	resp, err := s.client.Get(ctx, item.URL, map[string]string{"Accept": "text/html"})
	if err != nil {
		return item, fmt.Errorf("http fetch: %w", err)
	}

	if resp.StatusCode() != 200 {
		snippet := strings.TrimSpace(string(resp.Body()))
		if len(snippet) > 1024 {
			snippet = snippet[:1024]
		}
		return item, fmt.Errorf("status %d body: %s", resp.StatusCode(), snippet)
	}

	body := resp.Body()
	if len(body) > maxHTMLBodyBytes {
		s.log.InfoObj("html body truncated", "truncation", map[string]any{
			"worker_id": workerID,
			"url":       item.URL,
			"original":  len(body),
			"kept":      maxHTMLBodyBytes,
		})
		body = body[:maxHTMLBodyBytes]
	}

	meta, err := parseMeta(body)
	if err != nil {
		return item, err
	}
	return merge(item, meta), nil
}

// merge replaces placeholder fields and re-derives the classification from
// the new summary.
func merge(item domain.NewsItem, meta pageMeta) domain.NewsItem {
	if item.Title == domain.DefaultTitle && meta.Title != "" {
		item.Title = meta.Title
	}
	if item.Summary == domain.DefaultSummary && meta.Description != "" {
		item.Summary = meta.Description
		item.Sentiment = newsparse.ClassifySentiment(item.Summary)
		item.SentimentScore = item.Sentiment.Score()
		item.Impact = newsparse.ClassifyImpact(item.Summary)
		item.Sectors = newsparse.ClassifySectors(item.Summary)
	}
	return item
}

// parseMeta extracts page metadata from the HTML body.
func parseMeta(body []byte) (pageMeta, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return pageMeta{}, fmt.Errorf("parse html: %w", err)
	}

	extract := func(sel string) string {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			if val, ok := node.Attr("content"); ok {
				return strings.TrimSpace(val)
			}
		}
		return ""
	}

	return pageMeta{
		Title: firstNonEmpty(
			extract(`meta[property="og:title"]`),
			strings.TrimSpace(doc.Find("title").First().Text()),
		),
		Description: firstNonEmpty(
			extract(`meta[property="og:description"]`),
			extract(`meta[name="description"]`),
		),
	}, nil
}

type pageMeta struct {
	Title       string
	Description string
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
