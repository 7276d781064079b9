package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"anistrm/internal/config"
	"anistrm/internal/logging"
	"anistrm/internal/retry"
	"anistrm/internal/season"
	"anistrm/internal/services"
	"anistrm/internal/strm"
)

const folderMimeType = "application/vnd.google-apps.folder"

// ListingSource scans the seasonal directory listing for the current and
// previous season.
type ListingSource struct {
	baseURL   string
	userAgent string
	client    HTTPDoer
	policy    retry.Policy
	logger    *slog.Logger
	now       func() time.Time
}

// ListingOption customizes a ListingSource.
type ListingOption func(*ListingSource)

// WithClock overrides the clock used to pick seasons.
func WithClock(now func() time.Time) ListingOption {
	return func(s *ListingSource) {
		if now != nil {
			s.now = now
		}
	}
}

// NewListingSource constructs the full-scan source from config.
func NewListingSource(cfg *config.Config, client HTTPDoer, policy retry.Policy, logger *slog.Logger, opts ...ListingOption) *ListingSource {
	s := &ListingSource{
		baseURL:   strings.TrimRight(cfg.Source.ListingURL, "/"),
		userAgent: cfg.Source.UserAgent,
		client:    client,
		policy:    policy,
		logger:    logging.NewComponentLogger(logger, "catalog.listing"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ListingSource) Name() string { return "listing" }

type listingResponse struct {
	Files []listingFile `json:"files"`
}

type listingFile struct {
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
}

// SeasonURL returns the listing endpoint for one season.
func (s *ListingSource) SeasonURL(sn season.Season) string {
	return fmt.Sprintf("%s/%s/", s.baseURL, sn)
}

// EpisodeLink builds the direct-play link for a file in a season.
func (s *ListingSource) EpisodeLink(sn season.Season, name string) string {
	return strm.NormalizeURL(fmt.Sprintf("%s/%s/%s", s.baseURL, sn, EscapeName(name)))
}

// List scans every season in the window. A failing season is logged and
// skipped; the scan as a whole is retried with an empty fallback.
func (s *ListingSource) List(ctx context.Context) ([]Episode, error) {
	policy := s.policy
	if policy.Logger == nil {
		policy.Logger = s.logger
	}
	var lastErr error
	episodes := retry.Value(ctx, policy, []Episode{}, func(ctx context.Context) ([]Episode, error) {
		eps, err := s.scan(ctx)
		lastErr = err
		return eps, err
	})
	if len(episodes) == 0 && lastErr != nil {
		return episodes, lastErr
	}
	return episodes, nil
}

func (s *ListingSource) scan(ctx context.Context) ([]Episode, error) {
	var all []Episode
	for _, sn := range season.Window(s.now()) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		eps, err := s.listSeason(ctx, sn)
		if err != nil {
			logging.WarnWithContext(s.logger, "season listing failed; skipping", "listing_season_failed",
				logging.String("season", sn.String()),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check source.listing_url and network access"),
				logging.String(logging.FieldImpact, "episodes from this season are not synced this run"),
			)
			continue
		}
		all = append(all, eps...)
	}
	if all == nil {
		all = []Episode{}
	}
	return all, nil
}

func (s *ListingSource) listSeason(ctx context.Context, sn season.Season) ([]Episode, error) {
	target := s.SeasonURL(sn)
	req, err := newRequest(ctx, http.MethodPost, target, s.userAgent)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "catalog", "build listing request", target, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrUpstream, "catalog", "fetch listing", target, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		s.logger.Debug("listing season unavailable",
			logging.String("season", sn.String()),
			logging.Int("status", resp.StatusCode),
		)
		return nil, nil
	}

	var payload listingResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxFeedBytes)).Decode(&payload); err != nil {
		return nil, services.Wrap(services.ErrUpstream, "catalog", "decode listing", target, err)
	}

	episodes := make([]Episode, 0, len(payload.Files))
	for _, file := range payload.Files {
		if file.MimeType == folderMimeType || strings.TrimSpace(file.Name) == "" {
			continue
		}
		episodes = append(episodes, Episode{
			Title: file.Name,
			Link:  s.EpisodeLink(sn, file.Name),
		})
	}
	s.logger.Debug("listing season fetched",
		logging.String("season", sn.String()),
		logging.Int("files", len(episodes)),
	)
	return episodes, nil
}
