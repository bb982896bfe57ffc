package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"github.com/Adda-Baaj/arthik-khobor/internal/domain"
	"github.com/Adda-Baaj/arthik-khobor/pkg/httpclient"
	"github.com/Adda-Baaj/arthik-khobor/pkg/newsparse"
)

var testNow = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

func testClient() HTTPClient { return httpclient.NewRestyClient(5 * time.Second) }

func clock() Option { return WithClock(func() time.Time { return testNow }) }

func dappierServer(t *testing.T, status int, reply string, queries *[]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var body newsparse.QueryBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if queries != nil {
			*queries = append(*queries, body.Query)
		}

		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dappierConfig(url string) Provider {
	return Provider{ID: ProviderDappier, Name: "Dappier", ServerURL: url, APIKey: "secret"}
}

func TestDappierFetchParsesMessage(t *testing.T) {
	var queries []string
	reply := `{"message": "1. **[Sensex rallies](https://www.moneycontrol.com/a)** Stocks rise on FII inflows.\n\n2. **[Rupee falls](https://www.livemint.com/b)** A decline in the rupee."}`
	srv := dappierServer(t, http.StatusOK, reply, &queries)

	f := NewDappierFetcher(testClient(), clock())
	batch, err := f.Fetch(context.Background(), dappierConfig(srv.URL), Request{Limit: 5})
	require.NoError(t, err)
	require.Equal(t, []string{"Get the latest 5 indian financial news and reports"}, queries)

	require.Equal(t, "linked-bold", batch.Path)
	require.False(t, batch.Fallback)
	require.Len(t, batch.Items, 2)
	require.Equal(t, "moneycontrol.com", batch.Items[0].Source)
	require.Equal(t, testNow, batch.Items[0].PublishedAt)
}

func TestDappierFetchSendsSearchQuery(t *testing.T) {
	var queries []string
	srv := dappierServer(t, http.StatusOK, `{"message": "1. **Adani** Shares surge."}`, &queries)

	f := NewDappierFetcher(testClient(), clock())
	_, err := f.Fetch(context.Background(), dappierConfig(srv.URL), Request{Query: "Adani"})
	require.NoError(t, err)
	require.Equal(t, []string{"Adani Indian markets"}, queries)
}

func TestDappierFetchFallsBackOnUnparseableBody(t *testing.T) {
	srv := dappierServer(t, http.StatusOK, "I am not sure what you mean.", nil)

	f := NewDappierFetcher(testClient(), clock())
	batch, err := f.Fetch(context.Background(), dappierConfig(srv.URL), Request{})
	require.NoError(t, err)
	require.True(t, batch.Fallback)
	require.Len(t, batch.Items, 3)
	require.Equal(t, []string{"invalid_json", "no_message_matches", "no_items"}, batch.Degradations)
}

func TestDappierFetchUpstreamError(t *testing.T) {
	srv := dappierServer(t, http.StatusBadGateway, "upstream down", nil)

	f := NewDappierFetcher(testClient(), clock())
	_, err := f.Fetch(context.Background(), dappierConfig(srv.URL), Request{})

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	require.Equal(t, http.StatusBadGateway, upstream.StatusCode)
	require.Equal(t, "upstream down", upstream.Body)
	require.Equal(t, "dappier api error (502): upstream down", err.Error())
}

func TestDappierFetchRequiresCredentials(t *testing.T) {
	f := NewDappierFetcher(testClient(), clock())
	_, err := f.Fetch(context.Background(), Provider{ID: ProviderDappier}, Request{})

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	require.Equal(t, []string{"server_url", "api_key"}, cfgErr.Missing)
}

func TestDappierFetchRejectsOtherProvider(t *testing.T) {
	f := NewDappierFetcher(testClient(), clock())
	_, err := f.Fetch(context.Background(), Provider{ID: ProviderMCP, ServerURL: "http://x", APIKey: "k"}, Request{})
	require.Error(t, err)
}

func TestDappierStatus(t *testing.T) {
	var queries []string
	srv := dappierServer(t, http.StatusOK, `{"message": "ok"}`, &queries)

	checker, ok := NewDappierFetcher(testClient(), clock()).(StatusChecker)
	require.True(t, ok)

	statuses := checker.Status(context.Background(), dappierConfig(srv.URL))
	require.Equal(t, []string{"status check"}, queries)
	// only the news module is reported
	require.Len(t, statuses, 1)
	require.Equal(t, 1, statuses[0].ID)
	require.Equal(t, "Dappier News API", statuses[0].Name)
	require.Equal(t, domain.StatusActive, statuses[0].Status)
	require.Equal(t, "news", statuses[0].Details["type"])
	require.Equal(t, testNow, statuses[0].LastUpdated)

	down := dappierServer(t, http.StatusInternalServerError, "", nil)
	statuses = checker.Status(context.Background(), dappierConfig(down.URL))
	require.Len(t, statuses, 1)
	require.Equal(t, domain.StatusError, statuses[0].Status)
	require.Equal(t, "Connection failed", statuses[0].Message)
	require.Contains(t, statuses[0].Details["error"], "<empty>")
}

func TestFetcherRegistry(t *testing.T) {
	reg := DefaultFetcherRegistry(testClient())
	require.Equal(t, []string{ProviderDappier, ProviderMCP, ProviderRSS, ProviderSitemap}, reg.IDs())

	f, err := reg.FetcherFor(Provider{ID: "DAPPIER"})
	require.NoError(t, err)
	require.Equal(t, ProviderDappier, f.ID())

	_, err = reg.FetcherFor(Provider{ID: "unknown"})
	require.Error(t, err)
	_, err = reg.FetcherFor(Provider{})
	require.Error(t, err)
}

func TestHeaders(t *testing.T) {
	h := Headers(Provider{APIKey: " key ", Headers: map[string]string{"X-Trace": "1", " ": "skip"}})
	require.Equal(t, map[string]string{
		"Content-Type":  "application/json",
		"Authorization": "Bearer key",
		"X-Trace":       "1",
	}, h)
}

func TestResponseSnippetCutsOnRuneBoundary(t *testing.T) {
	require.Equal(t, "<empty>", responseSnippet([]byte("  \n "), 10))
	require.Equal(t, "short", responseSnippet([]byte(" short "), 10))

	// "₹" is three bytes; a cut at byte 4 would land inside the first one
	got := responseSnippet([]byte("ab₹₹"), 4)
	require.Equal(t, "ab...", got)
	require.True(t, utf8.ValidString(got))

	require.Equal(t, "ab₹...", responseSnippet([]byte("ab₹₹"), 5))
}
