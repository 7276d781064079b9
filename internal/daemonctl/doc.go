// Package daemonctl manages the daemon process from the CLI: launching a
// detached `anistrm daemon`, waiting for its socket, and stopping it with a
// SIGKILL fallback when a graceful stop does not finish in time.
package daemonctl
