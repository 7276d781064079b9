package config

const (
	defaultConfigPath           = "~/.config/anistrm/config.toml"
	defaultStrmDir              = "/downloads/strm"
	defaultStateDir             = "~/.local/share/anistrm"
	defaultLogDir               = "~/.local/share/anistrm/logs"
	defaultRSSURL               = "https://api.ani.rip/ani-download.xml"
	defaultListingURL           = "https://openani.an-i.workers.dev"
	defaultLinkHost             = "resources.ani.rip"
	defaultMirrorHost           = "openani.an-i.workers.dev"
	defaultUserAgent            = "anistrm/0.1"
	defaultRequestTimeout       = 30
	defaultRetryAttempts        = 3
	defaultRetryDelaySeconds    = 3
	defaultRetryBackoff         = 1
	defaultCron                 = "*/20 22,23,0,1 * * *"
	defaultNotifyRequestTimeout = 10
	defaultHistoryRetentionDays = 180
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogRetentionDays     = 30
	defaultJellyfinEnabled      = false
	defaultScheduleEnabled      = true
	defaultNotifySyncCompleted  = true
	defaultNotifyErrors         = true
	defaultScheduleRunOnStart   = false
	defaultScheduleFullOnStart  = false
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StrmDir:  defaultStrmDir,
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Source: Source{
			RSSURL:         defaultRSSURL,
			ListingURL:     defaultListingURL,
			LinkHost:       defaultLinkHost,
			MirrorHost:     defaultMirrorHost,
			UserAgent:      defaultUserAgent,
			RequestTimeout: defaultRequestTimeout,
		},
		Retry: Retry{
			Attempts:     defaultRetryAttempts,
			DelaySeconds: defaultRetryDelaySeconds,
			Backoff:      defaultRetryBackoff,
		},
		Schedule: Schedule{
			Enabled:     defaultScheduleEnabled,
			Cron:        defaultCron,
			RunOnStart:  defaultScheduleRunOnStart,
			FullOnStart: defaultScheduleFullOnStart,
		},
		Jellyfin: Jellyfin{
			Enabled: defaultJellyfinEnabled,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			SyncCompleted:  defaultNotifySyncCompleted,
			Errors:         defaultNotifyErrors,
		},
		History: History{
			RetentionDays: defaultHistoryRetentionDays,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
