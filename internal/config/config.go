// Package config loads runtime settings from the environment, an optional .env
// file and an optional config file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Adda-Baaj/arthik-khobor/pkg/providers"
)

// Config is the resolved application configuration.
type Config struct {
	LogLevel         string
	HTTPTimeout      time.Duration
	DefaultNewsLimit int

	Dappier     Credentials
	MCP         Credentials
	RSSFeeds    []string
	SitemapURLs []string
	// ProviderRequestDelay is the pause between successive feed or sitemap requests.
	ProviderRequestDelay time.Duration

	StorePath      string
	PublishersFile string

	ServerAddr  string
	CORSOrigins []string

	EnrichSummaries bool
	EnrichDelay     time.Duration
}

// Credentials locate one authenticated upstream.
type Credentials struct {
	ServerURL string
	APIKey    string
}

// Configured reports whether both url and key are present.
func (c Credentials) Configured() bool {
	return strings.TrimSpace(c.ServerURL) != "" && strings.TrimSpace(c.APIKey) != ""
}

const (
	keyLogLevel       = "log_level"
	keyHTTPTimeout    = "http_timeout"
	keyDefaultLimit   = "default_news_limit"
	keyDappierURL     = "dappier_server_url"
	keyDappierKey     = "dappier_api_key"
	keyMCPURL         = "mcp_server_url"
	keyMCPKey         = "mcp_api_key"
	keyRSSFeeds       = "rss_feeds"
	keySitemapURLs    = "sitemap_urls"
	keyProviderDelay  = "provider_request_delay"
	keyStorePath      = "store_path"
	keyPublishersFile = "publishers_file"
	keyServerAddr     = "server_addr"
	keyCORSOrigins    = "cors_origins"
	keyEnrich         = "enrich_summaries"
	keyEnrichDelay    = "enrich_delay"
)

// Load reads .env (when present), then the optional config file at path, then
// environment variables, which win over the file.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		LogLevel:         v.GetString(keyLogLevel),
		HTTPTimeout:      v.GetDuration(keyHTTPTimeout),
		DefaultNewsLimit: v.GetInt(keyDefaultLimit),
		Dappier: Credentials{
			ServerURL: strings.TrimSpace(v.GetString(keyDappierURL)),
			APIKey:    strings.TrimSpace(v.GetString(keyDappierKey)),
		},
		MCP: Credentials{
			ServerURL: strings.TrimSpace(v.GetString(keyMCPURL)),
			APIKey:    strings.TrimSpace(v.GetString(keyMCPKey)),
		},
		RSSFeeds:             listValue(v, keyRSSFeeds),
		SitemapURLs:          listValue(v, keySitemapURLs),
		ProviderRequestDelay: v.GetDuration(keyProviderDelay),
		StorePath:            v.GetString(keyStorePath),
		PublishersFile:       strings.TrimSpace(v.GetString(keyPublishersFile)),
		ServerAddr:           v.GetString(keyServerAddr),
		CORSOrigins:          listValue(v, keyCORSOrigins),
		EnrichSummaries:      v.GetBool(keyEnrich),
		EnrichDelay:          v.GetDuration(keyEnrichDelay),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyHTTPTimeout, "15s")
	v.SetDefault(keyDefaultLimit, 10)
	v.SetDefault(keyProviderDelay, "0s")
	v.SetDefault(keyStorePath, "arthik.db")
	v.SetDefault(keyServerAddr, ":5000")
	v.SetDefault(keyCORSOrigins, "*")
	v.SetDefault(keyEnrich, false)
	v.SetDefault(keyEnrichDelay, "250ms")
}

// Validate checks numeric ranges. Missing credentials are not an error here;
// providers report them per call.
func (c *Config) Validate() error {
	var errs []error
	if c.HTTPTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", strings.ToUpper(keyHTTPTimeout)))
	}
	if c.DefaultNewsLimit <= 0 || c.DefaultNewsLimit > 100 {
		errs = append(errs, fmt.Errorf("%s must be between 1 and 100", strings.ToUpper(keyDefaultLimit)))
	}
	if c.EnrichDelay < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", strings.ToUpper(keyEnrichDelay)))
	}
	if c.ProviderRequestDelay < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", strings.ToUpper(keyProviderDelay)))
	}
	if strings.TrimSpace(c.StorePath) == "" {
		errs = append(errs, fmt.Errorf("%s is empty", strings.ToUpper(keyStorePath)))
	}
	return errors.Join(errs...)
}

// Provider returns the configured defaults for a provider id. Stored settings
// may override the credentials later.
func (c *Config) Provider(id string) providers.Provider {
	id = strings.ToLower(strings.TrimSpace(id))
	delayMS := int(c.ProviderRequestDelay / time.Millisecond)

	switch id {
	case providers.ProviderDappier:
		return providers.Provider{ID: id, Name: "Dappier", ServerURL: c.Dappier.ServerURL, APIKey: c.Dappier.APIKey}
	case providers.ProviderMCP:
		return providers.Provider{ID: id, Name: "MCP Server", ServerURL: c.MCP.ServerURL, APIKey: c.MCP.APIKey}
	case providers.ProviderRSS:
		return providers.Provider{ID: id, Name: "RSS Feeds", Feeds: c.RSSFeeds, RequestDelayMS: delayMS}
	case providers.ProviderSitemap:
		return providers.Provider{ID: id, Name: "News Sitemaps", Feeds: c.SitemapURLs, RequestDelayMS: delayMS}
	default:
		return providers.Provider{ID: id, Name: id}
	}
}

// loadDotEnv preloads variables from a dotenv file without overriding ones
// already set in the process environment.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// listValue accepts either a YAML list or a comma separated string.
func listValue(v *viper.Viper, key string) []string {
	var raw []string
	switch val := v.Get(key).(type) {
	case string:
		raw = strings.Split(val, ",")
	case []any:
		for _, item := range val {
			raw = append(raw, fmt.Sprint(item))
		}
	case []string:
		raw = val
	}

	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
