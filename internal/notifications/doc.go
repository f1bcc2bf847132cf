// Package notifications delivers highlight alerts via pluggable notifiers.
//
// ntfy and ServerChan transports are selected from config.toml; configuring
// both fans each alert out to every target and configuring neither degrades to
// a no-op. Callers build an Alert and depend only on the Service interface.
//
// Sent alerts are appended to a per-recording notification.json so operators
// can audit what went out even when delivery failed.
package notifications
