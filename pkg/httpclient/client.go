// Package httpclient wraps resty behind the small surface the fetchers need.
package httpclient

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
)

// Response is the subset of a resty response used by callers.
type Response interface {
	StatusCode() int
	Body() []byte
}

// Client performs HTTP requests on behalf of providers, the crawler and publishers.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
	Post(ctx context.Context, url string, headers map[string]string, body any) (Response, error)
	Do(ctx context.Context, method, url string, headers map[string]string, body any) (Response, error)
}

type restyClient struct {
	client *resty.Client
}

// NewRestyClient returns a Client with the given request timeout.
func NewRestyClient(timeout time.Duration) Client {
	c := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", "arthik-khobor/1.0")
	return &restyClient{client: c}
}

// Get issues a GET request.
func (c *restyClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	return c.Do(ctx, resty.MethodGet, url, headers, nil)
}

// Post issues a POST request; non-nil bodies are JSON encoded by resty.
func (c *restyClient) Post(ctx context.Context, url string, headers map[string]string, body any) (Response, error) {
	return c.Do(ctx, resty.MethodPost, url, headers, body)
}

// Do issues a request with an arbitrary method.
func (c *restyClient) Do(ctx context.Context, method, url string, headers map[string]string, body any) (Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	req := c.client.R().SetContext(ctx)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, url)
	if err != nil {
		return nil, err
	}
	return resp, nil
}
