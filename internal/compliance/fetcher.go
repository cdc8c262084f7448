package compliance

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/projectdiscovery/httpx/common/httpx"
	"github.com/theopenlane/httpsling"
)

const (
	// defaultMaxBodySize is the maximum response body bytes kept per probe (1MiB)
	defaultMaxBodySize = 1 << 20
	// defaultMaxRedirects is the maximum redirect hops followed per probe
	defaultMaxRedirects = 5
	// userAgent identifies probe requests
	userAgent = "Mozilla/5.0 (compatible; EUShield/1.0)"
)

// FetchResponse is the subset of an HTTP response the prober inspects
type FetchResponse struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Fetcher performs a cancellable HTTP GET. A non-2xx status is not an error.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*FetchResponse, error)
}

// HTTPFetcher implements Fetcher with httpsling over a net/http client
type HTTPFetcher struct {
	httpClient  *http.Client
	maxBodySize int64
}

// NewHTTPFetcher creates a fetcher using client, or a redirect-limited
// default client when client is nil. maxBodySize <= 0 selects the default.
func NewHTTPFetcher(client *http.Client, maxBodySize int64) *HTTPFetcher {
	if client == nil {
		client = &http.Client{
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= defaultMaxRedirects {
					return http.ErrUseLastResponse
				}

				return nil
			},
		}
	}

	if maxBodySize <= 0 {
		maxBodySize = defaultMaxBodySize
	}

	return &HTTPFetcher{httpClient: client, maxBodySize: maxBodySize}
}

// Fetch issues a GET for rawURL, keeping at most maxBodySize bytes of the body
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*FetchResponse, error) {
	requester, err := httpsling.New(
		httpsling.URL(rawURL),
		httpsling.Method(http.MethodGet),
		httpsling.Header("Accept", "text/html"),
		httpsling.Header("User-Agent", userAgent),
		httpsling.WithHTTPClient(f.httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	body := &boundedBuffer{limit: f.maxBodySize}

	resp, _, err := requester.ReceiveTo(ctx, body)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("%w: %w", ErrReadBody, err)
		}

		return nil, err
	}

	return &FetchResponse{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body.Bytes(),
	}, nil
}

// boundedBuffer keeps the first limit bytes written and silently discards the rest
type boundedBuffer struct {
	bytes.Buffer
	limit int64
}

// Write implements io.Writer
func (b *boundedBuffer) Write(p []byte) (int, error) {
	if remaining := b.limit - int64(b.Len()); remaining > 0 {
		if int64(len(p)) > remaining {
			b.Buffer.Write(p[:remaining]) //nolint:errcheck // bytes.Buffer writes never fail

			return len(p), nil
		}

		b.Buffer.Write(p) //nolint:errcheck // bytes.Buffer writes never fail
	}

	return len(p), nil
}

// HTTPXFetcher implements Fetcher using projectdiscovery/httpx
type HTTPXFetcher struct {
	client *httpx.HTTPX
}

// NewHTTPXFetcher creates an httpx-backed fetcher. The timeout is the client
// ceiling; per-probe deadlines still come from the request context.
func NewHTTPXFetcher(timeout time.Duration, maxBodySize int64) (*HTTPXFetcher, error) {
	if maxBodySize <= 0 {
		maxBodySize = defaultMaxBodySize
	}

	client, err := httpx.New(&httpx.Options{
		Timeout:                   timeout,
		FollowRedirects:           true,
		MaxRedirects:              defaultMaxRedirects,
		MaxResponseBodySizeToRead: maxBodySize,
		DefaultUserAgent:          userAgent,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing httpx client: %w", err)
	}

	return &HTTPXFetcher{client: client}, nil
}

// Fetch issues a GET for rawURL through httpx
func (f *HTTPXFetcher) Fetch(ctx context.Context, rawURL string) (*FetchResponse, error) {
	req, err := f.client.NewRequestWithContext(ctx, http.MethodGet, rawURL)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	req.Header.Set("Accept", "text/html")

	resp, err := f.client.Do(req, httpx.UnsafeOptions{})
	if err != nil {
		return nil, err
	}

	return &FetchResponse{
		StatusCode:  resp.StatusCode,
		ContentType: resp.GetHeaderPart("Content-Type", ";"),
		Body:        resp.Data,
	}, nil
}
