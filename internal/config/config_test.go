package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Adda-Baaj/arthik-khobor/pkg/providers"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, 15*time.Second, cfg.HTTPTimeout)
	require.Equal(t, 10, cfg.DefaultNewsLimit)
	require.Equal(t, ":5000", cfg.ServerAddr)
	require.Equal(t, []string{"*"}, cfg.CORSOrigins)
	require.Equal(t, "arthik.db", cfg.StorePath)
	require.False(t, cfg.EnrichSummaries)
	require.False(t, cfg.Dappier.Configured())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DAPPIER_SERVER_URL", " https://api.dappier.com/app/aimodel/am_x ")
	t.Setenv("DAPPIER_API_KEY", "ak_123")
	t.Setenv("RSS_FEEDS", "https://a.example/rss, ,https://b.example/rss")
	t.Setenv("DEFAULT_NEWS_LIMIT", "25")
	t.Setenv("HTTP_TIMEOUT", "3s")
	t.Setenv("ENRICH_SUMMARIES", "true")
	t.Setenv("PROVIDER_REQUEST_DELAY", "500ms")

	cfg, err := Load("")
	require.NoError(t, err)
	require.True(t, cfg.Dappier.Configured())
	require.Equal(t, "https://api.dappier.com/app/aimodel/am_x", cfg.Dappier.ServerURL)
	require.Equal(t, []string{"https://a.example/rss", "https://b.example/rss"}, cfg.RSSFeeds)
	require.Equal(t, 25, cfg.DefaultNewsLimit)
	require.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	require.True(t, cfg.EnrichSummaries)

	p := cfg.Provider("Dappier")
	require.Equal(t, providers.ProviderDappier, p.ID)
	require.Equal(t, "ak_123", p.APIKey)

	rss := cfg.Provider(providers.ProviderRSS)
	require.Len(t, rss.Feeds, 2)
	require.Equal(t, 500*time.Millisecond, rss.RequestDelay())
}

func TestLoadConfigFileWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arthik.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
mcp_server_url: http://localhost:8080
mcp_api_key: from-file
sitemap_urls:
  - https://www.financialexpress.com/news-sitemap.xml
server_addr: ":9000"
`), 0o600))
	t.Setenv("MCP_API_KEY", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080", cfg.MCP.ServerURL)
	require.Equal(t, "from-env", cfg.MCP.APIKey)
	require.Equal(t, []string{"https://www.financialexpress.com/news-sitemap.xml"}, cfg.SitemapURLs)
	require.Equal(t, ":9000", cfg.ServerAddr)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("DEFAULT_NEWS_LIMIT", "0")
	t.Setenv("HTTP_TIMEOUT", "-1s")

	_, err := Load("")
	require.Error(t, err)
	require.Contains(t, err.Error(), "DEFAULT_NEWS_LIMIT")
	require.Contains(t, err.Error(), "HTTP_TIMEOUT")
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
