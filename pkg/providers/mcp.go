package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Adda-Baaj/arthik-khobor/internal/domain"
	"github.com/Adda-Baaj/arthik-khobor/pkg/newsparse"
)

// mcpFetcher reads news from an external MCP server that already serves
// structured records.
type mcpFetcher struct {
	client HTTPClient
	opts   options
}

// NewMCPFetcher builds a fetcher for an external MCP server.
func NewMCPFetcher(client HTTPClient, opts ...Option) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &mcpFetcher{client: client, opts: buildOptions(opts)}
}

func (f *mcpFetcher) ID() string {
	return ProviderMCP
}

func (f *mcpFetcher) Fetch(ctx context.Context, cfg Provider, req Request) (*Batch, error) {
	if !strings.EqualFold(cfg.ID, ProviderMCP) {
		return nil, fmt.Errorf("mcp fetcher received incompatible provider %q", cfg.ID)
	}
	if err := requireCredentials(cfg); err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = newsparse.DefaultLimit
	}

	body, err := f.get(ctx, cfg, fmt.Sprintf("/news?limit=%d", limit))
	if err != nil {
		return nil, err
	}

	var records []any
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("decode mcp news: %w", err)
	}

	items := newsparse.FromRecords(records, limit, f.opts.now())
	f.opts.log.InfoObj("mcp news fetched", "mcp_news", map[string]any{
		"provider_id": cfg.ID,
		"count":       len(items),
	})
	return &Batch{Items: items, Path: newsparse.PathResults}, nil
}

// Status asks the MCP server for its module statuses.
func (f *mcpFetcher) Status(ctx context.Context, cfg Provider) []domain.ServiceStatus {
	now := f.opts.now()
	failed := func(err error) []domain.ServiceStatus {
		f.opts.log.WarnObj("mcp status check failed", "mcp_status_error", map[string]any{
			"provider_id": cfg.ID,
			"error":       err.Error(),
		})
		return []domain.ServiceStatus{{
			ID:          1,
			Name:        "MCP Server",
			Status:      domain.StatusError,
			Message:     "Connection failed",
			Details:     map[string]any{"error": err.Error()},
			LastUpdated: now,
		}}
	}

	if err := requireCredentials(cfg); err != nil {
		return failed(err)
	}
	body, err := f.get(ctx, cfg, "/status")
	if err != nil {
		return failed(err)
	}

	var statuses []domain.ServiceStatus
	if err := json.Unmarshal(body, &statuses); err != nil {
		return failed(fmt.Errorf("decode mcp status: %w", err))
	}
	for i := range statuses {
		if statuses[i].ID == 0 {
			statuses[i].ID = i + 1
		}
		if statuses[i].LastUpdated.IsZero() {
			statuses[i].LastUpdated = now
		}
	}
	return statuses
}

func (f *mcpFetcher) get(ctx context.Context, cfg Provider, endpoint string) ([]byte, error) {
	url := strings.TrimRight(cfg.ServerURL, "/") + endpoint
	resp, err := f.client.Get(ctx, url, Headers(cfg))
	if err != nil {
		return nil, fmt.Errorf("fetch %s %s: %w", cfg.ID, endpoint, err)
	}

	body := resp.Body()
	if err := checkStatus(cfg.ID, resp.StatusCode(), body); err != nil {
		return nil, err
	}
	return body, nil
}
