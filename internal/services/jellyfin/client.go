package jellyfin

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"anistrm/internal/config"
	"anistrm/internal/services"
)

// HTTPDoer describes the HTTP client used by the Jellyfin service.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Service triggers library scans after new strm files land on disk.
type Service interface {
	Refresh(ctx context.Context) error
}

// NoopService is used when Jellyfin integration is disabled.
type NoopService struct{}

func (NoopService) Refresh(context.Context) error { return nil }

type httpService struct {
	baseURL string
	apiKey  string
	client  HTTPDoer
}

// NewConfiguredService returns a Jellyfin service backed by HTTP when the
// integration is enabled and credentials are present, otherwise a noop.
func NewConfiguredService(cfg *config.Config) Service {
	if cfg == nil || !cfg.Jellyfin.Enabled {
		return NoopService{}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.Jellyfin.URL), "/")
	apiKey := strings.TrimSpace(cfg.Jellyfin.APIKey)
	if baseURL == "" || apiKey == "" {
		return NoopService{}
	}
	return &httpService{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: cfg.RequestTimeout()},
	}
}

// NewHTTPService constructs an HTTP-backed Jellyfin service.
func NewHTTPService(baseURL, apiKey string, client HTTPDoer) Service {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &httpService{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		client:  client,
	}
}

func (s *httpService) Refresh(ctx context.Context) error {
	if s == nil || s.client == nil || s.baseURL == "" || s.apiKey == "" {
		return nil
	}
	refreshURL := fmt.Sprintf("%s/Library/Refresh", s.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, refreshURL, nil)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "jellyfin", "build refresh request", "", err)
	}
	req.Header.Set("X-Emby-Token", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrUpstream, "jellyfin", "refresh library", "", err)
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return services.Wrap(services.ErrConfiguration, "jellyfin", "refresh library",
			fmt.Sprintf("status %d (check api_key)", resp.StatusCode), nil)
	case resp.StatusCode >= http.StatusMultipleChoices:
		return services.Wrap(services.ErrUpstream, "jellyfin", "refresh library",
			fmt.Sprintf("status %d", resp.StatusCode), nil)
	}
	return nil
}
