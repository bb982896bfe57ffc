package publishers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Adda-Baaj/arthik-khobor/pkg/httpclient"
)

// httpPublisher posts each event as JSON to a webhook.
type httpPublisher struct {
	id      string
	url     string
	method  string
	headers map[string]string
	client  httpclient.Client
	log     Logger
}

func newHTTPPublisher(_ context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}
	timeout := time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = httpDefaultTimeoutSeconds * time.Second
	}
	return newHTTPPublisherWithClient(cfg, httpclient.NewRestyClient(timeout), log), nil
}

func newHTTPPublisherWithClient(cfg PublisherConfig, client httpclient.Client, log Logger) *httpPublisher {
	headers := map[string]string{"Content-Type": "application/json"}
	for k, v := range cfg.HTTP.Headers {
		headers[k] = v
	}
	method := cfg.HTTP.Method
	if method == "" {
		method = httpDefaultMethod
	}
	return &httpPublisher{
		id:      cfg.ID,
		url:     cfg.HTTP.URL,
		method:  method,
		headers: headers,
		client:  client,
		log:     ensureLogger(log),
	}
}

func (p *httpPublisher) ID() string   { return p.id }
func (p *httpPublisher) Type() string { return TypeHTTP }

// Publish sends the event; any non-2xx answer is an error.
func (p *httpPublisher) Publish(ctx context.Context, evt Event) error {
	headers := make(map[string]string, len(p.headers)+1)
	for k, v := range p.headers {
		headers[k] = v
	}
	headers["X-Event-ID"] = evt.ID

	resp, err := p.client.Do(ctx, p.method, p.url, headers, evt)
	if err != nil {
		return fmt.Errorf("http publish: %w", err)
	}
	if status := resp.StatusCode(); status < 200 || status >= 300 {
		body := strings.TrimSpace(string(resp.Body()))
		if len(body) > 256 {
			body = body[:256] + "..."
		}
		return fmt.Errorf("http publisher %s returned status %d: %s", p.id, status, body)
	}

	p.log.DebugObj("http publisher delivered event", "publisher_http_delivery", map[string]any{
		"event_id": evt.ID,
		"url":      p.url,
	})
	return nil
}
