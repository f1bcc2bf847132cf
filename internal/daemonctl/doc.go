// Package daemonctl launches, stops, and inspects highlighterd from the CLI.
//
// Control goes through the daemon HTTP API for liveness and the pid file in
// the state directory for signalling. BuildStatusSnapshot degrades to the
// SQLite job store and local probes when the daemon is down.
package daemonctl
