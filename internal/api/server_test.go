package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Adda-Baaj/arthik-khobor/internal/config"
	"github.com/Adda-Baaj/arthik-khobor/internal/domain"
	"github.com/Adda-Baaj/arthik-khobor/internal/service"
	"github.com/Adda-Baaj/arthik-khobor/internal/store"
	"github.com/Adda-Baaj/arthik-khobor/pkg/httpclient"
	"github.com/Adda-Baaj/arthik-khobor/pkg/providers"
)

const dappierReply = `{"message": "1. **[Sensex rallies](https://www.moneycontrol.com/a)** Stocks rise on FII inflows.\n\n2. **[Rupee falls](https://www.livemint.com/b)** A decline in the rupee."}`

func upstream(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testServer(t *testing.T, dappierURL string) *Server {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	cfg := &config.Config{
		DefaultNewsLimit: 10,
		Dappier:          config.Credentials{ServerURL: dappierURL, APIKey: "ak_live_12345678"},
	}
	fetchers := providers.DefaultFetcherRegistry(httpclient.NewRestyClient(5 * time.Second))
	svc := service.New(cfg, fetchers, st)
	return NewServer(svc, nil, nil, "test")
}

func do(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func TestHealth(t *testing.T) {
	rec := do(t, testServer(t, ""), http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]string](t, rec)
	require.Equal(t, "ok", body["status"])
	require.Equal(t, "test", body["version"])
}

func TestNews(t *testing.T) {
	srv := testServer(t, upstream(t, http.StatusOK, dappierReply).URL)

	rec := do(t, srv, http.MethodGet, "/api/news?provider=dappier&limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	res := decode[service.FetchResult](t, rec)
	require.Equal(t, "dappier", res.ProviderID)
	require.Equal(t, "linked-bold", res.Path)
	require.False(t, res.Fallback)
	require.Len(t, res.Items, 1)
	require.Equal(t, "Sensex rallies", res.Items[0].Title)
	require.Equal(t, domain.SentimentPositive, res.Items[0].Sentiment)
}

func TestNewsFallbackIsOK(t *testing.T) {
	srv := testServer(t, upstream(t, http.StatusOK, `{}`).URL)

	rec := do(t, srv, http.MethodGet, "/api/news", "")
	require.Equal(t, http.StatusOK, rec.Code)

	res := decode[service.FetchResult](t, rec)
	require.True(t, res.Fallback)
	require.NotEmpty(t, res.Items)
}

func TestNewsErrors(t *testing.T) {
	cases := []struct {
		name   string
		url    string
		target string
		want   int
	}{
		{"not configured", "", "/api/news", http.StatusServiceUnavailable},
		{"upstream failure", upstream(t, http.StatusBadGateway, "oops").URL, "/api/news", http.StatusBadGateway},
		{"unknown provider", "http://unused", "/api/news?provider=reuters", http.StatusNotFound},
		{"bad limit", "http://unused", "/api/news?limit=zero", http.StatusBadRequest},
		{"bad enrich flag", "http://unused", "/api/news?enrich=maybe", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, testServer(t, tc.url), http.MethodGet, tc.target, "")
			require.Equal(t, tc.want, rec.Code)
			require.NotEmpty(t, decode[map[string]string](t, rec)["message"])
		})
	}
}

func TestProviders(t *testing.T) {
	srv := testServer(t, upstream(t, http.StatusOK, dappierReply).URL)
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/api/news", "").Code)

	rec := do(t, srv, http.MethodGet, "/api/providers", "")
	require.Equal(t, http.StatusOK, rec.Code)

	overview := decode[[]service.ProviderOverview](t, rec)
	require.Len(t, overview, 4)
	require.Equal(t, "dappier", overview[0].ID)
	require.True(t, overview[0].Configured)
	require.NotNil(t, overview[0].LastFetch)
	require.Equal(t, 2, overview[0].LastFetch.Count)
	require.Equal(t, "just now", overview[0].LastUpdated)
	require.Equal(t, "never", overview[1].LastUpdated)
}

func TestProviderStatus(t *testing.T) {
	srv := testServer(t, upstream(t, http.StatusOK, `{"message": "ok"}`).URL)

	rec := do(t, srv, http.MethodGet, "/api/providers/dappier/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	statuses := decode[[]domain.ServiceStatus](t, rec)
	require.Len(t, statuses, 1)
	require.Equal(t, "Dappier News API", statuses[0].Name)
	require.Equal(t, domain.StatusActive, statuses[0].Status)

	rec = do(t, srv, http.MethodGet, "/api/providers/rss/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	statuses = decode[[]domain.ServiceStatus](t, rec)
	require.Equal(t, domain.StatusError, statuses[0].Status)

	require.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/api/providers/nope/status", "").Code)
}

func TestSettingsLifecycle(t *testing.T) {
	srv := testServer(t, "https://api.dappier.com/app/aimodel/am_1")

	rec := do(t, srv, http.MethodGet, "/api/providers/dappier/settings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[settingsResponse](t, rec)
	require.Equal(t, "config", got.Source)
	require.Equal(t, "************5678", got.APIKey)

	rec = do(t, srv, http.MethodPut, "/api/providers/dappier/settings",
		`{"serverUrl": "https://stored.example/model", "apiKey": "ak_stored_9999"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	got = decode[settingsResponse](t, rec)
	require.Equal(t, "https://stored.example/model", got.ServerURL)
	require.Equal(t, "**********9999", got.APIKey)

	got = decode[settingsResponse](t, do(t, srv, http.MethodGet, "/api/providers/dappier/settings", ""))
	require.Equal(t, "store", got.Source)
	require.Equal(t, "https://stored.example/model", got.ServerURL)

	require.Equal(t, http.StatusNoContent, do(t, srv, http.MethodDelete, "/api/providers/dappier/settings", "").Code)
	got = decode[settingsResponse](t, do(t, srv, http.MethodGet, "/api/providers/dappier/settings", ""))
	require.Equal(t, "config", got.Source)
}

func TestPutSettingsRejectsBadInput(t *testing.T) {
	srv := testServer(t, "")

	require.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPut, "/api/providers/dappier/settings", `{`).Code)
	require.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPut, "/api/providers/dappier/settings", `{"serverUrl": "x"}`).Code)
	require.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPut, "/api/providers/rss/settings", `{"serverUrl": "x", "apiKey": "y"}`).Code)
	require.Equal(t, http.StatusNotFound, do(t, srv, http.MethodPut, "/api/providers/nope/settings", `{"serverUrl": "x", "apiKey": "y"}`).Code)
}

func TestCORSPreflight(t *testing.T) {
	srv := testServer(t, "")
	req := httptest.NewRequest(http.MethodOptions, "/api/news", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
