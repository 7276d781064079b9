// Package syncer runs one catalog-to-strm synchronization.
//
// A run picks the RSS source (incremental) or the seasonal listing (full),
// writes a pointer file for every entry that does not have one yet, and
// records the outcome in history. Runs that created files trigger a Jellyfin
// refresh and an ntfy summary; runs whose fetch failed send an error
// notification instead. Per-entry write failures are logged and skipped.
//
// Run is safe for concurrent use: callers asking for the same mode join the
// in-flight run, and different modes never overlap.
package syncer
