// Package textutil provides code-point aware text helpers.
//
// Transcripts are predominantly CJK, so every length limit here counts runes
// rather than bytes. Filename sanitization keeps non-ASCII letters intact so
// clip names stay readable.
package textutil
