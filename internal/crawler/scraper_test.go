package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Adda-Baaj/arthik-khobor/internal/domain"
	"github.com/Adda-Baaj/arthik-khobor/pkg/httpclient"
)

const articlePage = `<!doctype html>
<html><head>
<title>Fallback title</title>
<meta property="og:title" content="Banks rally as credit growth holds">
<meta name="description" content="Banking stocks gained after strong growth in loans.">
</head><body></body></html>`

func TestEnrichReplacesPlaceholders(t *testing.T) {
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/article", func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(articlePage))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	items := []domain.NewsItem{
		{ID: 1, Title: domain.DefaultTitle, Summary: domain.DefaultSummary, URL: srv.URL + "/article",
			Sentiment: domain.SentimentNeutral, SentimentScore: 0.5, Sectors: []string{domain.DefaultSector}},
		{ID: 2, Title: "Kept", Summary: "Already has text", URL: srv.URL + "/article"},
		{ID: 3, Title: "No link", Summary: domain.DefaultSummary},
		{ID: 4, Title: "Broken", Summary: domain.DefaultSummary, URL: srv.URL + "/missing"},
	}

	s := NewScraper(httpclient.NewRestyClient(5*time.Second), nil, 0)
	out := s.Enrich(context.Background(), items)

	require.Len(t, out, 4)
	require.Equal(t, int32(1), hits.Load())

	require.Equal(t, "Banks rally as credit growth holds", out[0].Title)
	require.Equal(t, "Banking stocks gained after strong growth in loans.", out[0].Summary)
	require.Equal(t, domain.SentimentPositive, out[0].Sentiment)
	require.Equal(t, 0.7, out[0].SentimentScore)
	require.Equal(t, []string{"Finance", "Markets"}, out[0].Sectors)

	require.Equal(t, items[1], out[1])
	require.Equal(t, items[2], out[2])
	require.Equal(t, items[3], out[3])

	// the input slice is not modified
	require.Equal(t, domain.DefaultSummary, items[0].Summary)
}

func TestNeedsEnrichment(t *testing.T) {
	require.False(t, NeedsEnrichment(domain.NewsItem{Summary: domain.DefaultSummary}))
	require.True(t, NeedsEnrichment(domain.NewsItem{URL: "https://x", Title: domain.DefaultTitle, Summary: "s"}))
	require.False(t, NeedsEnrichment(domain.NewsItem{URL: "https://x", Title: "t", Summary: "s"}))
}

func TestParseMetaFallsBackToTitleTag(t *testing.T) {
	meta, err := parseMeta([]byte(`<html><head><title> Plain </title></head></html>`))
	require.NoError(t, err)
	require.Equal(t, "Plain", meta.Title)
	require.Empty(t, meta.Description)
}
