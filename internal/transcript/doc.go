// Package transcript holds the ordered, immutable segment sequence produced by
// the speech-to-text collaborator.
//
// Segments are loaded from WhisperX JSON or SRT output, trimmed and NFC
// normalised so downstream length checks count the same code points for the
// same text, and re-indexed from zero. A Store never exposes its backing
// slice; every accessor returns copies.
package transcript
