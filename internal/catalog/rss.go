package catalog

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"anistrm/internal/config"
	"anistrm/internal/logging"
	"anistrm/internal/retry"
	"anistrm/internal/services"
)

const maxFeedBytes = 16 << 20

// RSSSource reads the recently published episode feed.
type RSSSource struct {
	feedURL    string
	linkHost   string
	mirrorHost string
	userAgent  string
	client     HTTPDoer
	policy     retry.Policy
	logger     *slog.Logger
}

// NewRSSSource constructs the incremental source from config.
func NewRSSSource(cfg *config.Config, client HTTPDoer, policy retry.Policy, logger *slog.Logger) *RSSSource {
	return &RSSSource{
		feedURL:    cfg.Source.RSSURL,
		linkHost:   cfg.Source.LinkHost,
		mirrorHost: cfg.Source.MirrorHost,
		userAgent:  cfg.Source.UserAgent,
		client:     client,
		policy:     policy,
		logger:     logging.NewComponentLogger(logger, "catalog.rss"),
	}
}

func (s *RSSSource) Name() string { return "rss" }

// List fetches the feed with retries. Once retries are exhausted it returns
// an empty list and the error that caused it.
func (s *RSSSource) List(ctx context.Context) ([]Episode, error) {
	var lastErr error
	episodes := retry.Value(ctx, s.withLogger(), []Episode{}, func(ctx context.Context) ([]Episode, error) {
		eps, err := s.fetch(ctx)
		lastErr = err
		return eps, err
	})
	if len(episodes) == 0 && lastErr != nil {
		return episodes, lastErr
	}
	return episodes, nil
}

func (s *RSSSource) withLogger() retry.Policy {
	p := s.policy
	if p.Logger == nil {
		p.Logger = s.logger
	}
	return p
}

func (s *RSSSource) fetch(ctx context.Context) ([]Episode, error) {
	req, err := newRequest(ctx, http.MethodGet, s.feedURL, s.userAgent)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "catalog", "build rss request", s.feedURL, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrUpstream, "catalog", "fetch rss", s.feedURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, services.Wrap(services.ErrUpstream, "catalog", "fetch rss", fmt.Sprintf("status %d", resp.StatusCode), nil)
	}

	items, err := ParseFeed(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, services.Wrap(services.ErrUpstream, "catalog", "parse rss", s.feedURL, err)
	}

	episodes := make([]Episode, 0, len(items))
	for _, item := range items {
		episodes = append(episodes, Episode{
			Title: item.Title,
			Link:  RewriteHost(item.Link, s.linkHost, s.mirrorHost),
		})
	}
	s.logger.Debug("rss feed fetched", logging.Int("items", len(episodes)))
	return episodes, nil
}

// FeedItem is the subset of an RSS <item> the sync uses.
type FeedItem struct {
	Title string `xml:"title"`
	Link  string `xml:"link"`
}

// ParseFeed decodes every <item> element in r regardless of nesting depth.
// Missing title or link elements yield empty strings.
func ParseFeed(r io.Reader) ([]FeedItem, error) {
	decoder := xml.NewDecoder(r)
	decoder.Strict = false
	var items []FeedItem
	sawRoot := false
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		sawRoot = true
		if start.Name.Local != "item" {
			continue
		}
		var item FeedItem
		if err := decoder.DecodeElement(&item, &start); err != nil {
			return nil, err
		}
		item.Title = strings.TrimSpace(item.Title)
		item.Link = strings.TrimSpace(item.Link)
		items = append(items, item)
	}
	if !sawRoot {
		return nil, fmt.Errorf("feed has no root element")
	}
	return items, nil
}

// RewriteHost replaces every occurrence of from with to in link.
func RewriteHost(link, from, to string) string {
	if from == "" || to == "" || from == to {
		return link
	}
	return strings.ReplaceAll(link, from, to)
}
