// Package logs reads the daemon log for `anistrm logs`.
//
// Reads are bounded: Last keeps only the requested number of lines in memory
// and Follow polls from a byte offset. Follow reopens the path on every poll,
// so it keeps working when the anistrm.log pointer moves to a new run's file.
package logs
