// Package config loads, normalizes, and validates highlighter configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SERVERCHAN_KEY and OPENAI_API_KEY. The Config type centralizes every knob the
// daemon and CLI need, from the recorder root and worker pool size to the
// scoring window geometry and fusion weights.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors.
package config
