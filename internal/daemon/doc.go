// Package daemon coordinates the long-running anistrm process.
//
// It wires configuration, run history, the syncer, and the cron scheduler into
// a single lifecycle with flock-based locking to prevent multiple instances.
// On start the daemon marks runs left open by a previous crash as interrupted
// and prunes history past its retention window.
//
// Keep orchestration logic here: fetching and writing live in the syncer while
// the daemon focuses on startup, shutdown, and status reporting.
package daemon
