// Package jellyfin asks a Jellyfin server to rescan its libraries once new
// strm files have been written. When the integration is disabled the
// NoopService keeps callers free of nil checks.
package jellyfin
