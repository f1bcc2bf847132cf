// Package services defines shared utilities consumed by the pipeline stages
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, stage names, source files, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper so failures carry the
//     stage and operation that produced them and can be classified for the
//     job history.
//
// Collaborator adapters live in subpackages (whisperx, llm).
package services
