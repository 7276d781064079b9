package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSource()
	c.normalizeRetry()
	c.normalizeSchedule()
	c.normalizeJellyfin()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StrmDir) == "" {
		c.Paths.StrmDir = defaultStrmDir
	}
	if c.Paths.StrmDir, err = expandPath(c.Paths.StrmDir); err != nil {
		return fmt.Errorf("paths.strm_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSource() {
	c.Source.RSSURL = strings.TrimSpace(c.Source.RSSURL)
	if c.Source.RSSURL == "" {
		c.Source.RSSURL = defaultRSSURL
	}
	c.Source.ListingURL = strings.TrimRight(strings.TrimSpace(c.Source.ListingURL), "/")
	if c.Source.ListingURL == "" {
		c.Source.ListingURL = defaultListingURL
	}
	c.Source.LinkHost = strings.TrimSpace(c.Source.LinkHost)
	c.Source.MirrorHost = strings.TrimSpace(c.Source.MirrorHost)
	c.Source.UserAgent = strings.TrimSpace(c.Source.UserAgent)
	if c.Source.UserAgent == "" {
		c.Source.UserAgent = defaultUserAgent
	}
	c.Source.Proxy = strings.TrimSpace(c.Source.Proxy)
	if c.Source.RequestTimeout <= 0 {
		c.Source.RequestTimeout = defaultRequestTimeout
	}
}

func (c *Config) normalizeRetry() {
	if c.Retry.Backoff <= 0 {
		c.Retry.Backoff = defaultRetryBackoff
	}
}

func (c *Config) normalizeSchedule() {
	c.Schedule.Cron = strings.Join(strings.Fields(c.Schedule.Cron), " ")
	c.Schedule.Timezone = strings.TrimSpace(c.Schedule.Timezone)
	if c.Schedule.Timezone == "" {
		if value, ok := os.LookupEnv("TZ"); ok {
			c.Schedule.Timezone = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeJellyfin() {
	if c.Jellyfin.APIKey == "" {
		if value, ok := os.LookupEnv("JELLYFIN_API_KEY"); ok {
			c.Jellyfin.APIKey = strings.TrimSpace(value)
		}
	}
	c.Jellyfin.URL = strings.TrimRight(strings.TrimSpace(c.Jellyfin.URL), "/")
	c.Jellyfin.APIKey = strings.TrimSpace(c.Jellyfin.APIKey)
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("ANISTRM_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
