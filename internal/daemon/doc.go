// Package daemon coordinates the long-running highlighter process.
//
// It wires configuration, the job history store, the gateway worker pool,
// the recorder webhook and the optional directory watcher into a single
// lifecycle with flock-based locking to prevent multiple instances. The
// HTTP server exposes health, status and job history next to the webhook
// route.
//
// Keep orchestration logic here: scoring lives in the pipeline while the
// daemon focuses on startup, shutdown, and high level coordination.
package daemon
