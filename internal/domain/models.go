// Package domain contains the news and status models shared by providers, the
// API and publishers.
package domain

import "time"

// Sentiment is the categorical tone assigned to a news item.
type Sentiment string

// Sentiment categories.
const (
	SentimentPositive Sentiment = "Positive"
	SentimentNegative Sentiment = "Negative"
	SentimentNeutral  Sentiment = "Neutral"
)

// Score maps the category to its fixed numeric proxy.
func (s Sentiment) Score() float64 {
	switch s {
	case SentimentPositive:
		return 0.7
	case SentimentNegative:
		return 0.3
	default:
		return 0.5
	}
}

// Impact is the expected market impact of a news item.
type Impact string

// Impact levels.
const (
	ImpactHigh   Impact = "High"
	ImpactMedium Impact = "Medium"
	ImpactLow    Impact = "Low"
)

// Placeholders used when a field cannot be recovered from upstream text.
// DefaultSector is reported when no sector keyword matches.
const (
	DefaultTitle   = "Financial News Update"
	DefaultSummary = "No summary available"
	DefaultSource  = "Dappier News"
	DefaultSector  = "Finance"
)

// NewsItem is one classified news record. IDs are 1-based and contiguous
// within a batch.
type NewsItem struct {
	ID             int       `json:"id"`
	Title          string    `json:"title"`
	Summary        string    `json:"summary"`
	Source         string    `json:"source"`
	URL            string    `json:"url,omitempty"`
	PublishedAt    time.Time `json:"publishedAt"`
	Sentiment      Sentiment `json:"sentiment"`
	SentimentScore float64   `json:"sentimentScore"`
	Impact         Impact    `json:"impact"`
	Sectors        []string  `json:"sectors"`
}

// ServiceStatus is the health of one upstream module as reported to the dashboard.
type ServiceStatus struct {
	ID          int            `json:"id"`
	Name        string         `json:"name"`
	Status      string         `json:"status"`
	Message     string         `json:"message"`
	Details     map[string]any `json:"details,omitempty"`
	LastUpdated time.Time      `json:"lastUpdated"`
}

// ServiceStatus.Status values.
const (
	StatusActive = "ACTIVE"
	StatusError  = "ERROR"
)
