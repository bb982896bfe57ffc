package newsparse

import (
	"time"

	"github.com/Adda-Baaj/arthik-khobor/internal/domain"
)

// Fallback returns the fixed news set served when nothing usable was extracted.
func Fallback(now time.Time) []domain.NewsItem {
	return []domain.NewsItem{
		{
			ID:             1,
			Title:          "RBI keeps repo rate unchanged at 6.5% for 6th time in a row",
			Summary:        "The Reserve Bank of India's Monetary Policy Committee (MPC) decided to keep the repo rate unchanged at 6.5% for the sixth consecutive time while maintaining its stance of withdrawal of accommodation.",
			Source:         "Economic Times",
			URL:            "https://economictimes.indiatimes.com/news/economy/policy/rbi-mpc-keeps-repo-rate-unchanged-at-6-5-for-6th-time-in-a-row/articleshow/107407270.cms",
			PublishedAt:    now,
			Sentiment:      domain.SentimentNeutral,
			SentimentScore: domain.SentimentNeutral.Score(),
			Impact:         domain.ImpactMedium,
			Sectors:        []string{"Economy", "Banking"},
		},
		{
			ID:             2,
			Title:          "IT companies likely to report muted Q1, analysts expect recovery later in FY2025",
			Summary:        "Indian IT services companies are expected to report muted results for Q1FY25, though analysts remain optimistic about growth recovery in the second half of the fiscal year as clients increase technology spending.",
			Source:         "LiveMint",
			URL:            "https://www.livemint.com/market/stock-market-news/it-sector-q1-results-preview-large-cap-it-companies-likely-to-report-muted-earnings-in-q1fy25-recovery-seen-in-h2fy25-11722586177142.html",
			PublishedAt:    now,
			Sentiment:      domain.SentimentNeutral,
			SentimentScore: domain.SentimentNeutral.Score(),
			Impact:         domain.ImpactMedium,
			Sectors:        []string{"Technology", "IT"},
		},
		{
			ID:             3,
			Title:          "Adani Group stocks surge on clean chit from SEBI in some cases",
			Summary:        "Shares of Adani Group companies surged after the market regulator SEBI gave a clean chit to the conglomerate in some of the allegations made by US short-seller Hindenburg Research.",
			Source:         "Business Standard",
			URL:            "https://www.business-standard.com/markets/news/adani-group-stocks-surge-11-sebi-gives-clean-chit-in-hindenburg-allegations-124031300624_1.html",
			PublishedAt:    now,
			Sentiment:      domain.SentimentPositive,
			SentimentScore: domain.SentimentPositive.Score(),
			Impact:         domain.ImpactHigh,
			Sectors:        []string{"Markets", "Energy"},
		},
	}
}
