// Package config loads, normalizes, and validates anistrm configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// JELLYFIN_API_KEY and ANISTRM_NTFY_TOPIC. The Config type centralizes every
// knob the daemon and CLI need: where strm files land, which catalog endpoints
// are polled, how fetches are retried, and when the scheduler fires.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
