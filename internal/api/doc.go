// Package api defines wire-format types and converters for the daemon's HTTP
// API, plus a small client used by the CLI. It translates job history
// records into transport-friendly DTOs so consumers can render them without
// coupling to the store.
//
// # Key Types
//
// Job: transport representation of a job history row.
//
// DaemonStatus: running state, gateway occupancy, job counts and
// dependency availability.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Job statuses are exposed as lowercase
// strings and timestamps use RFC3339 with milliseconds.
package api
