package testsupport

import (
	"path/filepath"
	"testing"

	"anistrm/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Retries are reduced to a single immediate attempt so failing fetches do not
// slow tests down.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StrmDir = filepath.Join(base, "strm")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Retry.Attempts = 1
	cfgVal.Retry.DelaySeconds = 0
	cfgVal.Schedule.Timezone = "UTC"
	cfgVal.Notifications.NtfyTopic = ""
	cfgVal.Jellyfin.APIKey = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithCatalog points both catalog sources at a test server.
func WithCatalog(server *CatalogServer) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Source.RSSURL = server.RSSURL()
		b.cfg.Source.ListingURL = server.URL()
	}
}

// WithNtfyTopic sets the notification topic URL.
func WithNtfyTopic(topic string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = topic
	}
}

// WithJellyfin enables the Jellyfin integration against url.
func WithJellyfin(url, apiKey string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Jellyfin.Enabled = true
		b.cfg.Jellyfin.URL = url
		b.cfg.Jellyfin.APIKey = apiKey
	}
}

// WithRetryAttempts overrides the retry count.
func WithRetryAttempts(attempts int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Retry.Attempts = attempts
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StrmDir)
}
