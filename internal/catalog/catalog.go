package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"anistrm/internal/config"
)

// Episode is one catalog entry: the title used for the pointer file name and
// the resolved direct-download link.
type Episode struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

// Source lists episodes from one catalog endpoint.
type Source interface {
	Name() string
	List(ctx context.Context) ([]Episode, error)
}

// HTTPDoer describes the HTTP client used by catalog sources.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewHTTPClient builds the shared catalog client with the configured timeout
// and proxy. An empty proxy honours HTTP_PROXY / HTTPS_PROXY.
func NewHTTPClient(cfg *config.Config) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = http.ProxyFromEnvironment
	if proxy := strings.TrimSpace(cfg.Source.Proxy); proxy != "" {
		proxyURL, err := url.Parse(proxy)
		if err != nil {
			return nil, fmt.Errorf("parse source.proxy: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}
	return &http.Client{Timeout: cfg.RequestTimeout(), Transport: transport}, nil
}

func newRequest(ctx context.Context, method, target, userAgent string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, err
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	return req, nil
}
