// Package history records sync runs and the strm files they created in a
// SQLite database under the state directory.
//
// The store mirrors how the daemon works: BeginRun when a sync starts,
// RecordFile for every pointer file written, FinishRun with the counters.
// Runs left in the running state by a crash are flagged by MarkInterrupted
// on the next daemon start, and Prune enforces history.retention_days.
package history
