// Package preflight provides readiness checks for the filesystem paths and
// remote services anistrm depends on.
//
// The CLI "anistrm status" command runs RunAll to display health, and the
// daemon logs the same results once at startup. Each check is gated by its
// config toggle; disabled features are skipped.
package preflight
