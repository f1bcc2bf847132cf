// Package logs tails highlighterd and per-job log files for the CLI.
//
// Tail reads the last N lines with bounded memory and, in follow mode, waits
// on fsnotify write events for new lines. Locate helpers resolve the current
// daemon log pointer and per-job logs by job ID prefix.
package logs
