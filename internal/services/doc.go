// Package services defines shared utilities consumed by the sync pipeline and
// its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, sync modes, triggers, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so callers can decide
//     whether a failure is worth retrying.
//
// The jellyfin subpackage holds the media server client.
package services
