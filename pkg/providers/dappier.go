package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/Adda-Baaj/arthik-khobor/internal/domain"
	"github.com/Adda-Baaj/arthik-khobor/pkg/newsparse"
)

// statusProbeQuery is the question sent to verify the upstream answers at all.
const statusProbeQuery = "status check"

// dappierFetcher asks the Dappier prose API for news and parses the answer.
type dappierFetcher struct {
	client HTTPClient
	opts   options
}

// NewDappierFetcher builds a fetcher for the Dappier news API.
func NewDappierFetcher(client HTTPClient, opts ...Option) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &dappierFetcher{client: client, opts: buildOptions(opts)}
}

func (f *dappierFetcher) ID() string {
	return ProviderDappier
}

// Fetch returns a non-empty batch unless the provider is unconfigured, the
// request fails in transport, or the upstream answers with a non-2xx status.
func (f *dappierFetcher) Fetch(ctx context.Context, cfg Provider, req Request) (*Batch, error) {
	if !strings.EqualFold(cfg.ID, ProviderDappier) {
		return nil, fmt.Errorf("dappier fetcher received incompatible provider %q", cfg.ID)
	}
	if err := requireCredentials(cfg); err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = newsparse.DefaultLimit
	}
	query := newsparse.FormatQuery(limit, req.Query)

	f.opts.log.DebugObj("querying dappier", "dappier_query", map[string]any{
		"provider_id": cfg.ID,
		"query":       query,
	})

	body, err := f.ask(ctx, cfg, query)
	if err != nil {
		return nil, err
	}

	res := newsparse.ParseBody(body, limit, f.opts.now())
	batch := &Batch{
		Items:    res.Items,
		Path:     res.Path,
		Fallback: res.Fallback(),
	}
	for _, d := range res.Degradations {
		batch.Degradations = append(batch.Degradations, string(d))
	}

	if len(res.Degradations) > 0 {
		fields := map[string]any{
			"provider_id":  cfg.ID,
			"path":         res.Path,
			"degradations": batch.Degradations,
			"sample":       responseSnippet(body, 200),
		}
		if res.Panic != "" {
			fields["panic"] = res.Panic
		}
		f.opts.log.WarnObj("dappier response degraded", "dappier_parse_degraded", fields)
	}
	f.opts.log.InfoObj("dappier news parsed", "dappier_news", map[string]any{
		"provider_id": cfg.ID,
		"path":        res.Path,
		"count":       len(res.Items),
		"fallback":    batch.Fallback,
	})

	return batch, nil
}

// Status pings the upstream with a throwaway question.
func (f *dappierFetcher) Status(ctx context.Context, cfg Provider) []domain.ServiceStatus {
	now := f.opts.now()

	err := requireCredentials(cfg)
	if err == nil {
		_, err = f.ask(ctx, cfg, statusProbeQuery)
	}
	if err != nil {
		f.opts.log.WarnObj("dappier status check failed", "dappier_status_error", map[string]any{
			"provider_id": cfg.ID,
			"error":       err.Error(),
		})
		return []domain.ServiceStatus{{
			ID:          1,
			Name:        "Dappier API",
			Status:      domain.StatusError,
			Message:     "Connection failed",
			Details:     map[string]any{"error": err.Error()},
			LastUpdated: now,
		}}
	}

	return []domain.ServiceStatus{{
		ID:          1,
		Name:        "Dappier News API",
		Status:      domain.StatusActive,
		Message:     "Connected and operational",
		Details:     map[string]any{"type": "news", "source": "Dappier"},
		LastUpdated: now,
	}}
}

// ask posts a query and returns the raw 2xx body.
func (f *dappierFetcher) ask(ctx context.Context, cfg Provider, query string) ([]byte, error) {
	resp, err := f.client.Post(ctx, cfg.ServerURL, Headers(cfg), newsparse.QueryBody{Query: query})
	if err != nil {
		return nil, fmt.Errorf("fetch %s news: %w", cfg.ID, err)
	}

	body := resp.Body()
	if err := checkStatus(cfg.ID, resp.StatusCode(), body); err != nil {
		return nil, err
	}
	return body, nil
}

