// Package preflight provides readiness checks for the classifier services,
// the title LLM and the filesystem paths the highlighter depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll at startup and logs every failed check. A
//     failure does not stop the daemon because classifiers are often started
//     after it.
//   - The CLI "highlighter status" command prints RunAll alongside the
//     daemon's own status.
//
// Each check is gated by its config toggle; disabled features are skipped.
package preflight
