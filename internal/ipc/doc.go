// Package ipc exposes the daemon over JSON-RPC Unix sockets and ships the
// matching client used by the CLI.
//
// It owns socket lifecycle management and the request/response DTOs, including
// conversions from history runs and sync summaries into wire representations.
// Sync calls block until the daemon finishes the run.
package ipc
