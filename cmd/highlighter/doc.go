// Package main hosts the highlighter CLI entrypoint and command graph.
//
// The Cobra command tree runs one-shot scoring jobs, renders score exports,
// reads job history through the daemon API (or the SQLite store when the
// daemon is down), and launches or stops highlighterd. Scoring itself lives
// in internal/pipeline; commands here only resolve configuration and print.
package main
