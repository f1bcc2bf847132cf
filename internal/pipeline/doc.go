// Package pipeline runs the end-to-end highlight pipeline for one recording.
//
// A run converts the recording's audio, transcribes it (or loads a supplied
// transcript), generates sliding windows, builds the three score streams,
// fuses and ranks them, and writes scores.json and highlights.json into the
// recording's work directory. Clip extraction and the threshold alert follow
// once the exports are in place; neither can fail a run.
//
// Every collaborator is an interface so tests can drive the runner without
// ffmpeg, WhisperX, or the classifier services. Runner implements
// gateway.Processor for the daemon; the CLI calls Run directly.
package pipeline
