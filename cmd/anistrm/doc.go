// Package main hosts the anistrm CLI entrypoint and command graph.
//
// The Cobra-based command tree runs the daemon in the foreground, forwards
// sync and status requests to it over the IPC socket, and falls back to
// in-process work when the daemon is not reachable. History and season views
// read local state directly so they work whether or not the daemon runs.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
