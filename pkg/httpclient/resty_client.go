package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultMaxRedirects = 10

// Options configures the resty-backed client.
type Options struct {
	Timeout time.Duration
	// UserAgent is sent on every request unless the caller overrides the header.
	UserAgent    string
	MaxRedirects int
}

// RestyClient adapts resty.Client to the httpclient.Client interface.
type RestyClient struct {
	client *resty.Client
}

// New creates a RestyClient from opts.
func New(opts Options) *RestyClient {
	c := newRestyBaseClient(opts.Timeout, opts.MaxRedirects)
	if opts.UserAgent != "" {
		c.SetHeader("User-Agent", opts.UserAgent)
	}
	return &RestyClient{client: c}
}

// NewRestyClient creates a new RestyClient with the specified timeout.
func NewRestyClient(timeout time.Duration) *RestyClient {
	return New(Options{Timeout: timeout})
}

// NewRestyHTTPClient exposes a configured resty.Client for callers needing custom verbs.
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	return newRestyBaseClient(timeout, 0)
}

// newRestyBaseClient creates a resty.Client with retries disabled; a failed
// fetch is reported to the caller as-is.
func newRestyBaseClient(timeout time.Duration, maxRedirects int) *resty.Client {
	if maxRedirects <= 0 {
		maxRedirects = defaultMaxRedirects
	}
	c := resty.New()
	c.SetTimeout(timeout)
	c.SetRetryCount(0)
	c.SetRedirectPolicy(resty.FlexibleRedirectPolicy(maxRedirects))
	return c
}

// Get performs an HTTP GET request with the specified context, URL, and headers.
func (r *RestyClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	req := r.client.R().SetContext(ctx)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	resp, err := req.Get(url)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	return &restyResponseAdapter{resp: resp}, nil
}

// restyResponseAdapter adapts resty.Response to the httpclient.Response interface.
type restyResponseAdapter struct {
	resp *resty.Response
}

func (r *restyResponseAdapter) Body() []byte        { return r.resp.Body() }
func (r *restyResponseAdapter) StatusCode() int     { return r.resp.StatusCode() }
func (r *restyResponseAdapter) Header() http.Header { return r.resp.Header() }
