package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Adda-Baaj/arthik-khobor/internal/domain"
	"github.com/Adda-Baaj/arthik-khobor/internal/logger"
	"github.com/Adda-Baaj/arthik-khobor/pkg/httpclient"
)

// Provider ids known to the default registry.
const (
	ProviderDappier = "dappier"
	ProviderMCP     = "mcp"
	ProviderRSS     = "rss"
	ProviderSitemap = "sitemap"
)

// ErrNotSupported is returned by fetchers for operations their upstream lacks.
var ErrNotSupported = errors.New("operation not supported by provider")

// HTTPClient is the transport used by fetchers.
type HTTPClient = httpclient.Client

// Provider is the resolved configuration for one upstream.
type Provider struct {
	ID             string            `json:"id" yaml:"id"`
	Name           string            `json:"name" yaml:"name"`
	ServerURL      string            `json:"server_url" yaml:"server_url"`
	APIKey         string            `json:"api_key" yaml:"api_key"`
	Feeds          []string          `json:"feeds" yaml:"feeds"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	RequestDelayMS int               `json:"request_delay_ms" yaml:"request_delay_ms"`
}

// RequestDelay is the pause between successive page requests made for this provider.
func (p Provider) RequestDelay() time.Duration {
	if p.RequestDelayMS <= 0 {
		return 0
	}
	return time.Duration(p.RequestDelayMS) * time.Millisecond
}

// Request describes one news fetch.
type Request struct {
	Limit int
	Query string
}

// Batch is the result of one fetch.
type Batch struct {
	Items []domain.NewsItem
	// Path names the route that produced Items (extraction strategy, record shape, feed).
	Path         string
	Fallback     bool
	Degradations []string
}

// Fetcher retrieves news items for a provider.
type Fetcher interface {
	ID() string
	Fetch(ctx context.Context, cfg Provider, req Request) (*Batch, error)
}

// StatusChecker is implemented by fetchers that can report upstream health.
type StatusChecker interface {
	Status(ctx context.Context, cfg Provider) []domain.ServiceStatus
}

// FetcherRegistry resolves the fetcher for a provider config.
type FetcherRegistry interface {
	FetcherFor(cfg Provider) (Fetcher, error)
	IDs() []string
}

// ConfigurationError reports credentials missing before any network call.
type ConfigurationError struct {
	Provider string
	Missing  []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s provider not configured: missing %s", e.Provider, strings.Join(e.Missing, ", "))
}

// requireCredentials checks that both server url and api key are set.
func requireCredentials(cfg Provider) error {
	var missing []string
	if strings.TrimSpace(cfg.ServerURL) == "" {
		missing = append(missing, "server_url")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		missing = append(missing, "api_key")
	}
	if len(missing) > 0 {
		return &ConfigurationError{Provider: cfg.ID, Missing: missing}
	}
	return nil
}

// requireFeeds checks that a feed-based provider has at least one source url.
func requireFeeds(cfg Provider) error {
	for _, f := range cfg.Feeds {
		if strings.TrimSpace(f) != "" {
			return nil
		}
	}
	return &ConfigurationError{Provider: cfg.ID, Missing: []string{"feeds"}}
}

// Headers builds the request headers for a provider: bearer auth when an api key
// is set, JSON content type, then any configured extras.
func Headers(cfg Provider) map[string]string {
	h := map[string]string{
		"Content-Type": "application/json",
	}
	if key := strings.TrimSpace(cfg.APIKey); key != "" {
		h["Authorization"] = "Bearer " + key
	}
	for k, v := range cfg.Headers {
		if strings.TrimSpace(k) == "" {
			continue
		}
		h[k] = v
	}
	return h
}

// Option customizes a fetcher.
type Option func(*options)

type options struct {
	now func() time.Time
	log logger.Logger
}

// WithClock overrides the time source used for default publish dates.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets the logger used to report degradations.
func WithLogger(log logger.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, log: logger.NopLogger{}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
