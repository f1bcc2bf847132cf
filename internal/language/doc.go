// Package language normalizes transcription language codes.
//
// Configuration accepts ISO 639-1, ISO 639-2, or English names; WhisperX
// wants the two-letter form (or "yue" for Cantonese, which has no 639-1 code).
package language
