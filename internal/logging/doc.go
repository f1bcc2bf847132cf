// Package logging assembles structured slog loggers and formatting helpers used
// across the highlighter daemon and CLI.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code automatically
// tags log lines with job IDs, stages, and correlation IDs. TeeLogger lets a
// pipeline run mirror its records into a per-job log file next to its
// artefacts, and CleanupOldLogs prunes the daemon log directory.
package logging
