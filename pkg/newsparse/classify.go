package newsparse

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/Adda-Baaj/arthik-khobor/internal/domain"
)

// Keyword lists are matched as lowercase substrings, not whole words: "it "
// also hits "profit " and "rise" also hits "enterprise".
var (
	positiveWords   = []string{"surge", "bullish", "gains", "growth", "recovery", "rise", "higher", "positive", "optimistic"}
	negativeWords   = []string{"fall", "bearish", "decline", "losses", "fears", "drop", "lower", "negative", "sell-off", "crash"}
	highImpactWords = []string{"significant", "major", "critical", "big", "huge", "massive", "substantial"}
)

// sectorKeywords lists sectors in the order they are reported.
var sectorKeywords = []struct {
	Sector   string
	Keywords []string
}{
	{Sector: "Finance", Keywords: []string{"banking", "finance"}},
	{Sector: "Technology", Keywords: []string{"it ", "tech", "software"}},
	{Sector: "Markets", Keywords: []string{"markets", "nifty", "sensex", "stocks"}},
	{Sector: "Economy", Keywords: []string{"economy", "gdp", "inflation"}},
}

var (
	readMoreLink = regexp.MustCompile(`\[Read more\]\((.*?)\)`)
	bareLink     = regexp.MustCompile(`\((https?://[^\s)]+)\)`)
	boldSpan     = regexp.MustCompile(`\*\*(.*?)\*\*`)
	sentenceEnd  = regexp.MustCompile(`\.\s+`)
	sourceMarker = regexp.MustCompile(`\*Source: (.*?)(?: \| |\*)`)
	dateMarker   = regexp.MustCompile(`Date: (.*?)(\*|$)`)
)

// dateLayouts are tried in order against a Date: marker.
var dateLayouts = []string{
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 January 2006",
	"02 January 2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"01/02/2006",
	"Monday, January 2, 2006",
	"Mon, Jan 2, 2006",
}

// Classify turns one raw match into a news item. now is used when no absolute
// publish date can be recovered from the text.
func Classify(m Match, id int, now time.Time) domain.NewsItem {
	title, summary, link := splitMatch(m)
	if title == "" {
		title = domain.DefaultTitle
	}
	if summary == "" {
		summary = domain.DefaultSummary
	}

	sentiment := ClassifySentiment(summary)
	return domain.NewsItem{
		ID:             id,
		Title:          title,
		Summary:        summary,
		Source:         sourceOf(summary, link),
		URL:            link,
		PublishedAt:    publishedAt(summary, now),
		Sentiment:      sentiment,
		SentimentScore: sentiment.Score(),
		Impact:         ClassifyImpact(summary),
		Sectors:        ClassifySectors(summary),
	}
}

// splitMatch derives title, summary and link according to the match kind.
func splitMatch(m Match) (title, summary, link string) {
	switch m.Kind {
	case KindLinked:
		return m.Title, strings.TrimSpace(m.Body), m.URL
	case KindTitled:
		summary = strings.TrimSpace(m.Body)
		if sm := readMoreLink.FindStringSubmatch(summary); sm != nil {
			link = sm[1]
		}
		return m.Title, summary, link
	}

	full := m.Body
	switch {
	case strings.Contains(full, "**"):
		if loc := boldSpan.FindStringSubmatchIndex(full); loc != nil && loc[3] > loc[2] {
			title = full[loc[2]:loc[3]]
			summary = strings.TrimSpace(full[:loc[0]] + full[loc[1]:])
		} else {
			summary = full
		}
	default:
		parts := sentenceEnd.Split(full, -1)
		if len(parts) > 1 {
			title = parts[0]
			summary = strings.Join(parts[1:], ". ")
		} else {
			summary = full
		}
	}
	summary = strings.TrimSpace(summary)

	if sm := readMoreLink.FindStringSubmatch(summary); sm != nil && sm[1] != "" {
		link = sm[1]
	} else if sm := bareLink.FindStringSubmatch(summary); sm != nil {
		link = sm[1]
	}
	return title, summary, link
}

func sourceOf(summary, link string) string {
	if sm := sourceMarker.FindStringSubmatch(summary); sm != nil {
		if src := strings.TrimSpace(sm[1]); src != "" {
			return src
		}
	}
	if host := hostOf(link); host != "" {
		return host
	}
	return domain.DefaultSource
}

// hostOf returns the hostname of an absolute URL without a leading "www.".
func hostOf(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Hostname() == "" {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

func publishedAt(summary string, now time.Time) time.Time {
	sm := dateMarker.FindStringSubmatch(summary)
	if sm == nil {
		return now
	}
	raw := strings.TrimSpace(sm[1])
	if raw == "" || strings.Contains(raw, "days ago") || strings.Contains(raw, "hours ago") {
		return now
	}
	if t, ok := ParseDate(raw); ok {
		return t
	}
	return now
}

// ParseDate tries the known absolute date layouts.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ClassifySectors returns every sector whose keywords occur in text, or the default sector.
func ClassifySectors(text string) []string {
	lower := strings.ToLower(text)
	var sectors []string
	for _, group := range sectorKeywords {
		if containsAny(lower, group.Keywords) {
			sectors = append(sectors, group.Sector)
		}
	}
	if len(sectors) == 0 {
		return []string{domain.DefaultSector}
	}
	return sectors
}

// ClassifySentiment compares how many positive and negative words occur in text.
func ClassifySentiment(text string) domain.Sentiment {
	lower := strings.ToLower(text)
	pos := countPresent(lower, positiveWords)
	neg := countPresent(lower, negativeWords)
	switch {
	case pos > neg:
		return domain.SentimentPositive
	case neg > pos:
		return domain.SentimentNegative
	default:
		return domain.SentimentNeutral
	}
}

// ClassifyImpact reports High when any high-impact word occurs in text.
func ClassifyImpact(text string) domain.Impact {
	if containsAny(strings.ToLower(text), highImpactWords) {
		return domain.ImpactHigh
	}
	return domain.ImpactMedium
}

func containsAny(lower string, words []string) bool {
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// countPresent counts list entries found in lower; repeats of one word count once.
func countPresent(lower string, words []string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(lower, w) {
			n++
		}
	}
	return n
}
