package newsparse

import (
	"fmt"
	"strings"
	"time"

	"github.com/Adda-Baaj/arthik-khobor/internal/domain"
)

// genericKeys are the array fields searched on object payloads without a usable message.
var genericKeys = []string{"news", "articles", "data"}

// resultsOf returns the payload's "results" array.
func resultsOf(p Payload) ([]any, bool) {
	obj, ok := p.(map[string]any)
	if !ok {
		return nil, false
	}
	arr, ok := obj["results"].([]any)
	return arr, ok
}

// genericOf returns the first of news, articles or data that is an array.
func genericOf(p Payload) []any {
	obj, ok := p.(map[string]any)
	if !ok {
		return nil
	}
	for _, key := range genericKeys {
		if arr, ok := obj[key].([]any); ok {
			return arr
		}
	}
	return nil
}

// FromRecords maps structured upstream records onto news items, renumbering ids from 1.
// Entries that are not JSON objects are skipped.
func FromRecords(records []any, limit int, now time.Time) []domain.NewsItem {
	items := make([]domain.NewsItem, 0, len(records))
	for _, rec := range records {
		if limit > 0 && len(items) >= limit {
			break
		}
		obj, ok := rec.(map[string]any)
		if !ok {
			continue
		}
		items = append(items, fromRecord(obj, len(items)+1, now))
	}
	return items
}

func fromRecord(rec map[string]any, id int, now time.Time) domain.NewsItem {
	sentiment := NormalizeSentiment(stringField(rec, "sentiment"))
	return domain.NewsItem{
		ID:             id,
		Title:          firstString(rec, domain.DefaultTitle, "title"),
		Summary:        firstString(rec, domain.DefaultSummary, "content", "description", "text", "summary"),
		Source:         firstString(rec, domain.DefaultSource, "source"),
		URL:            stringField(rec, "url"),
		PublishedAt:    recordTime(rec, now),
		Sentiment:      sentiment,
		SentimentScore: sentiment.Score(),
		Impact:         normalizeImpact(stringField(rec, "impact")),
		Sectors:        recordSectors(rec),
	}
}

// NormalizeSentiment maps free-form upstream labels onto the three categories.
func NormalizeSentiment(raw string) domain.Sentiment {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "positive", "bullish":
		return domain.SentimentPositive
	case "negative", "bearish":
		return domain.SentimentNegative
	default:
		return domain.SentimentNeutral
	}
}

func normalizeImpact(raw string) domain.Impact {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "high":
		return domain.ImpactHigh
	case "low":
		return domain.ImpactLow
	default:
		return domain.ImpactMedium
	}
}

func recordTime(rec map[string]any, now time.Time) time.Time {
	for _, key := range []string{"published_at", "publishedAt", "date"} {
		raw := stringField(rec, key)
		if raw == "" {
			continue
		}
		if t, ok := ParseDate(raw); ok {
			return t
		}
	}
	return now
}

func recordSectors(rec map[string]any) []string {
	arr, ok := rec["sectors"].([]any)
	if !ok {
		return []string{domain.DefaultSector}
	}
	sectors := make([]string, 0, len(arr))
	for _, v := range arr {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			sectors = append(sectors, strings.TrimSpace(s))
		}
	}
	if len(sectors) == 0 {
		return []string{domain.DefaultSector}
	}
	return sectors
}

func firstString(rec map[string]any, fallback string, keys ...string) string {
	for _, key := range keys {
		if v := stringField(rec, key); v != "" {
			return v
		}
	}
	return fallback
}

// stringField reads a scalar field as text; numbers are formatted, other types ignored.
func stringField(rec map[string]any, key string) string {
	switch v := rec[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strings.TrimSpace(fmt.Sprint(v))
	default:
		return ""
	}
}
