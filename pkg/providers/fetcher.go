package providers

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Adda-Baaj/arthik-khobor/pkg/httpclient"
)

type fetcherRegistry struct {
	fetchers map[string]Fetcher
	mu       sync.RWMutex
}

// NewFetcherRegistry builds a registry for the provided fetcher implementations.
func NewFetcherRegistry(fetchers ...Fetcher) FetcherRegistry {
	reg := &fetcherRegistry{
		fetchers: make(map[string]Fetcher, len(fetchers)),
	}

	for _, f := range fetchers {
		if f == nil {
			continue
		}
		reg.fetchers[strings.ToLower(strings.TrimSpace(f.ID()))] = f
	}

	return reg
}

// FetcherFor selects the fetcher for the given provider based on its id.
func (r *fetcherRegistry) FetcherFor(cfg Provider) (Fetcher, error) {
	if cfg.ID == "" {
		return nil, fmt.Errorf("provider id is empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	key := strings.ToLower(cfg.ID)
	if f, ok := r.fetchers[key]; ok {
		return f, nil
	}

	return nil, fmt.Errorf("no fetcher registered for provider %q", cfg.ID)
}

// IDs lists the registered provider ids in sorted order.
func (r *fetcherRegistry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.fetchers))
	for id := range r.fetchers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DefaultHTTPClient returns a resty-backed client for provider fetchers.
func DefaultHTTPClient() HTTPClient { return httpclient.NewRestyClient(15 * time.Second) }

// DefaultFetcherRegistry wires up the known provider fetchers.
func DefaultFetcherRegistry(client HTTPClient, opts ...Option) FetcherRegistry {
	if client == nil {
		client = DefaultHTTPClient()
	}

	return NewFetcherRegistry(
		NewDappierFetcher(client, opts...),
		NewMCPFetcher(client, opts...),
		NewRSSFetcher(client, opts...),
		NewSitemapFetcher(client, opts...),
	)
}
