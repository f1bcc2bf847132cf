// Package audio converts recordings to the WAV layout the transcription and
// acoustic emotion collaborators expect.
//
// Extractor.Convert produces the full-length work file (audio.wav) at the
// configured sample rate and channel count. Extractor.Slice cuts a time range
// out of that file for per-segment acoustic scoring.
package audio
