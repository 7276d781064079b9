package testsupport

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// FeedEntry is one RSS item served by CatalogServer.
type FeedEntry struct {
	Title string
	Link  string
}

// CatalogServer fakes the RSS feed and the seasonal listing API.
type CatalogServer struct {
	server *httptest.Server

	mu          sync.Mutex
	feed        []FeedEntry
	feedStatus  int
	seasons     map[string][]string
	rssRequests int
	listingHits []string
}

// NewCatalogServer starts a fake catalog and registers cleanup.
func NewCatalogServer(t testing.TB) *CatalogServer {
	t.Helper()

	c := &CatalogServer{seasons: map[string][]string{}, feedStatus: http.StatusOK}
	c.server = httptest.NewServer(http.HandlerFunc(c.handle))
	t.Cleanup(c.server.Close)
	return c
}

// URL returns the listing base URL.
func (c *CatalogServer) URL() string { return c.server.URL }

// RSSURL returns the feed URL.
func (c *CatalogServer) RSSURL() string { return c.server.URL + "/ani-download.xml" }

// SetFeed replaces the RSS items.
func (c *CatalogServer) SetFeed(entries ...FeedEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.feed = entries
}

// SetFeedStatus makes the feed answer with status.
func (c *CatalogServer) SetFeedStatus(status int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.feedStatus = status
}

// SetSeason replaces the file names listed for season (e.g. "2024-10").
func (c *CatalogServer) SetSeason(season string, names ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seasons[season] = names
}

// RSSRequests reports how many times the feed was fetched.
func (c *CatalogServer) RSSRequests() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rssRequests
}

// ListingRequests returns the listing paths requested so far.
func (c *CatalogServer) ListingRequests() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.listingHits...)
}

func (c *CatalogServer) handle(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if r.URL.Path == "/ani-download.xml" {
		c.rssRequests++
		if c.feedStatus != http.StatusOK {
			w.WriteHeader(c.feedStatus)
			return
		}
		var b strings.Builder
		b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><rss version="2.0"><channel>`)
		for _, entry := range c.feed {
			fmt.Fprintf(&b, "<item><title>%s</title><link>%s</link></item>",
				html.EscapeString(entry.Title), html.EscapeString(entry.Link))
		}
		b.WriteString(`</channel></rss>`)
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(b.String()))
		return
	}

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	c.listingHits = append(c.listingHits, r.URL.Path)
	season := strings.Trim(r.URL.Path, "/")
	names, ok := c.seasons[season]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	type file struct {
		Name     string `json:"name"`
		MimeType string `json:"mimeType"`
	}
	payload := struct {
		Files []file `json:"files"`
	}{}
	for _, name := range names {
		payload.Files = append(payload.Files, file{Name: name, MimeType: "video/mp4"})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
