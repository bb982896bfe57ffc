package newsparse

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Adda-Baaj/arthik-khobor/internal/domain"
)

var fixedNow = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

func messageBody(t *testing.T, msg string) []byte {
	t.Helper()
	data, err := json.Marshal(map[string]string{"message": msg})
	require.NoError(t, err)
	return data
}

func TestParseBoldTitleItem(t *testing.T) {
	body := messageBody(t, "1. **RBI cuts rates** Markets surged on the news. *Source: Economic Times*")

	res := ParseBody(body, 10, fixedNow)
	require.Equal(t, "bold-title", res.Path)
	require.Empty(t, res.Degradations)
	require.Len(t, res.Items, 1)

	item := res.Items[0]
	require.Equal(t, 1, item.ID)
	require.Equal(t, "RBI cuts rates", item.Title)
	require.Equal(t, "Markets surged on the news. *Source: Economic Times*", item.Summary)
	require.Equal(t, "Economic Times", item.Source)
	require.Empty(t, item.URL)
	require.Equal(t, domain.SentimentPositive, item.Sentiment)
	require.Equal(t, 0.7, item.SentimentScore)
	require.Equal(t, domain.ImpactMedium, item.Impact)
	require.Equal(t, []string{"Markets"}, item.Sectors)
	require.Equal(t, fixedNow, item.PublishedAt)
}

const linkedMessage = "Here are the latest news:\n\n" +
	"1. **[Sensex rallies](https://www.moneycontrol.com/a)** Stocks rise on FII inflows.\n\n" +
	"2. **[Rupee falls](https://economictimes.indiatimes.com/b)** The rupee saw a decline against the dollar.\n\n" +
	"3. **[GDP data](https://www.livemint.com/c)** Economy grows 7%.\n"

func TestParseLinkedItems(t *testing.T) {
	res := ParseBody(messageBody(t, linkedMessage), 10, fixedNow)
	require.Equal(t, "linked-bold", res.Path)
	require.Len(t, res.Items, 3)

	require.Equal(t, "Sensex rallies", res.Items[0].Title)
	require.Equal(t, "Stocks rise on FII inflows.", res.Items[0].Summary)
	require.Equal(t, "https://www.moneycontrol.com/a", res.Items[0].URL)
	require.Equal(t, "moneycontrol.com", res.Items[0].Source)
	require.Equal(t, domain.SentimentPositive, res.Items[0].Sentiment)
	require.Equal(t, []string{"Markets"}, res.Items[0].Sectors)

	// "against" contains "gains", which cancels "decline"
	require.Equal(t, "economictimes.indiatimes.com", res.Items[1].Source)
	require.Equal(t, domain.SentimentNeutral, res.Items[1].Sentiment)
	require.Equal(t, 0.5, res.Items[1].SentimentScore)

	require.Equal(t, "livemint.com", res.Items[2].Source)
	require.Equal(t, "Economy grows 7%.", res.Items[2].Summary)
	require.Equal(t, []string{"Economy"}, res.Items[2].Sectors)

	for i, item := range res.Items {
		require.Equal(t, i+1, item.ID)
	}
}

func TestParseRespectsLimit(t *testing.T) {
	res := ParseBody(messageBody(t, linkedMessage), 2, fixedNow)
	require.Len(t, res.Items, 2)
	require.Equal(t, "Rupee falls", res.Items[1].Title)
}

func TestParseNumberedItems(t *testing.T) {
	msg := "1. Markets fell sharply. Investors worried about inflation.\n2. IT stocks gained on strong results."

	res := ParseBody(messageBody(t, msg), 10, fixedNow)
	require.Equal(t, "numbered", res.Path)
	require.Len(t, res.Items, 2)

	require.Equal(t, "Markets fell sharply", res.Items[0].Title)
	require.Equal(t, "Investors worried about inflation.", res.Items[0].Summary)
	require.Equal(t, []string{"Economy"}, res.Items[0].Sectors)

	require.Equal(t, domain.DefaultTitle, res.Items[1].Title)
	require.Equal(t, "IT stocks gained on strong results.", res.Items[1].Summary)
	require.Equal(t, []string{"Technology", "Markets"}, res.Items[1].Sectors)
	require.Equal(t, domain.DefaultSource, res.Items[1].Source)
}

func TestParsePlainBoldSplit(t *testing.T) {
	res := ParseBody(messageBody(t, "1. Breaking: **Sensex** as FIIs sell"), 10, fixedNow)
	require.Equal(t, "numbered", res.Path)
	require.Len(t, res.Items, 1)
	require.Equal(t, "Sensex", res.Items[0].Title)
	require.Equal(t, "Breaking:  as FIIs sell", res.Items[0].Summary)
	require.Equal(t, domain.SentimentNeutral, res.Items[0].Sentiment)
}

func TestParseNonJSONProse(t *testing.T) {
	res := ParseBody([]byte("1. **RBI cuts rates** Markets surged on the news."), 10, fixedNow)
	require.Equal(t, []Degradation{DegradationInvalidJSON}, res.Degradations)
	require.False(t, res.Fallback())
	require.Len(t, res.Items, 1)
	require.Equal(t, "RBI cuts rates", res.Items[0].Title)
}

func TestParseEmptyBodiesFallBack(t *testing.T) {
	empty := ParseBody([]byte(""), 10, fixedNow)
	require.True(t, empty.Fallback())
	require.Len(t, empty.Items, 3)
	require.Equal(t, []Degradation{DegradationInvalidJSON, DegradationNoItems}, empty.Degradations)

	obj := ParseBody([]byte("{}"), 10, fixedNow)
	require.True(t, obj.Fallback())
	require.Equal(t, Fallback(fixedNow), obj.Items)
	require.True(t, obj.Degraded(DegradationNoItems))
	require.False(t, obj.Degraded(DegradationInvalidJSON))
}

func TestParseMessageWithoutMatchesFallsBack(t *testing.T) {
	res := ParseBody(messageBody(t, "Sorry, I could not find any news right now."), 10, fixedNow)
	require.True(t, res.Fallback())
	require.Equal(t, []Degradation{DegradationNoMatches, DegradationNoItems}, res.Degradations)
}

func TestParseResultsRecords(t *testing.T) {
	body := []byte(`{
		"message": "nothing numbered here",
		"results": [
			{"title": "Banks rally", "content": "PSU banks up", "source": "Mint", "url": "https://mint.com/x",
			 "published_at": "2024-01-02", "sentiment": "bullish", "impact": "high", "sectors": ["Banking"]},
			"not an object",
			{"description": "only a description"}
		]
	}`)

	res := ParseBody(body, 10, fixedNow)
	require.Equal(t, PathResults, res.Path)
	require.Equal(t, []Degradation{DegradationNoMatches}, res.Degradations)
	require.Len(t, res.Items, 2)

	first := res.Items[0]
	require.Equal(t, "Banks rally", first.Title)
	require.Equal(t, "PSU banks up", first.Summary)
	require.Equal(t, "Mint", first.Source)
	require.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), first.PublishedAt)
	require.Equal(t, domain.SentimentPositive, first.Sentiment)
	require.Equal(t, 0.7, first.SentimentScore)
	require.Equal(t, domain.ImpactHigh, first.Impact)
	require.Equal(t, []string{"Banking"}, first.Sectors)

	second := res.Items[1]
	require.Equal(t, 2, second.ID)
	require.Equal(t, domain.DefaultTitle, second.Title)
	require.Equal(t, "only a description", second.Summary)
	require.Equal(t, domain.DefaultSource, second.Source)
	require.Equal(t, fixedNow, second.PublishedAt)
	require.Equal(t, []string{domain.DefaultSector}, second.Sectors)
}

func TestParseGenericArrays(t *testing.T) {
	res := ParseBody([]byte(`{"articles": [{"title": "Gold hits record"}]}`), 10, fixedNow)
	require.Equal(t, PathObject, res.Path)
	require.Len(t, res.Items, 1)
	require.Equal(t, "Gold hits record", res.Items[0].Title)
	require.Equal(t, domain.DefaultSummary, res.Items[0].Summary)
	require.Equal(t, domain.ImpactMedium, res.Items[0].Impact)

	// an empty results array falls through to the generic keys
	res = ParseBody([]byte(`{"results": [], "news": [{"title": "a"}, {"title": "b"}, {"title": "c"}]}`), 2, fixedNow)
	require.Equal(t, PathObject, res.Path)
	require.Len(t, res.Items, 2)
}

func TestParseRecoversFromPanic(t *testing.T) {
	p := NewParser(Strategy{Name: "broken", Apply: func(string) []Match { panic("boom") }})

	res := p.ParseBody(messageBody(t, linkedMessage), 10, fixedNow)
	require.True(t, res.Fallback())
	require.True(t, res.Degraded(DegradationPanic))
	require.Equal(t, "boom", res.Panic)
	require.Len(t, res.Items, 3)

	// the default parser is untouched
	require.Equal(t, "linked-bold", ParseBody(messageBody(t, linkedMessage), 10, fixedNow).Path)
}

func TestParserStrategies(t *testing.T) {
	var zero Parser
	require.Equal(t, "linked-bold", zero.ParseBody(messageBody(t, linkedMessage), 10, fixedNow).Path)

	numberedOnly := NewParser(Strategy{Name: "only-numbered", Apply: numberedItems})
	res := numberedOnly.ParseBody(messageBody(t, linkedMessage), 10, fixedNow)
	require.Equal(t, "only-numbered", res.Path)
	require.Len(t, res.Items, 3)

	strategies := DefaultStrategies()
	strategies[0] = Strategy{Name: "mutated", Apply: func(string) []Match { return nil }}
	require.Equal(t, "linked-bold", DefaultStrategies()[0].Name)
}

func TestParseIsDeterministic(t *testing.T) {
	body := messageBody(t, linkedMessage)
	require.Equal(t, ParseBody(body, 10, fixedNow), ParseBody(body, 10, fixedNow))
}

func TestParseInvariants(t *testing.T) {
	bodies := [][]byte{
		messageBody(t, linkedMessage),
		messageBody(t, "1. Markets fell. Banks slid."),
		[]byte("not json at all"),
		[]byte(`[1, 2, 3]`),
		[]byte(`{"data": [{"title": "x", "sentiment": "bearish"}]}`),
	}
	for _, body := range bodies {
		res := ParseBody(body, 10, fixedNow)
		require.NotEmpty(t, res.Items)
		for _, item := range res.Items {
			require.NotEmpty(t, item.Title)
			require.NotEmpty(t, item.Summary)
			require.NotEmpty(t, item.Source)
			require.NotEmpty(t, item.Sectors)
			require.Equal(t, item.Sentiment.Score(), item.SentimentScore)
		}
	}
}

func TestFallbackFixtures(t *testing.T) {
	items := Fallback(fixedNow)
	require.Len(t, items, 3)
	require.Equal(t, "Economic Times", items[0].Source)
	require.Equal(t, []string{"Economy", "Banking"}, items[0].Sectors)
	require.Equal(t, domain.SentimentPositive, items[2].Sentiment)
	require.Equal(t, domain.ImpactHigh, items[2].Impact)
	for i, item := range items {
		require.Equal(t, i+1, item.ID)
		require.Equal(t, fixedNow, item.PublishedAt)
	}
}
