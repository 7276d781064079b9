// Package logging assembles the structured slog loggers used across anistrm.
//
// It owns the console and JSON handlers, level and output plumbing, and
// context helpers that tag log lines with run IDs, sync modes and triggers.
// WarnWithContext and ErrorWithContext make sure operator-facing failures
// always carry event_type and error_hint fields. A no-op logger is provided
// for tests and wiring code that cannot fail.
package logging
