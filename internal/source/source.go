package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"vnquant/internal/model"
)

// Adapter retrieves the historical quote table for one symbol over a date
// range. Implementations issue a single request sized to the whole range and
// return rows sorted ascending by date.
type Adapter interface {
	Fetch(ctx context.Context, symbol string, start, end time.Time) ([]model.Quote, error)
	Name() string
	Columns() []model.Attribute
}

// FetchError tags an adapter failure with the offending symbol.
type FetchError struct {
	Symbol string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Symbol, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Options carries the shared HTTP settings of an adapter. Zero values fall
// back to the provider default URL, a browser user agent and a 30s timeout.
type Options struct {
	BaseURL   string
	UserAgent string
	Proxy     string
	Timeout   time.Duration
}

const defaultUserAgent = "Mozilla/5.0"

func (o Options) userAgent() string {
	if o.UserAgent == "" {
		return defaultUserAgent
	}
	return o.UserAgent
}

// NewHTTPClient builds the shared HTTP client for provider calls, honoring
// the configured proxy and timeout.
func NewHTTPClient(o Options) *http.Client {
	transport := &http.Transport{}
	if o.Proxy != "" {
		if u, err := url.Parse(o.Proxy); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
