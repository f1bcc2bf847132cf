// Package ffprobe probes recordings with ffprobe.
//
// Only the format and stream fields the pipeline reads are requested.
// Result.Duration bounds highlight clip padding; live recordings that lack a
// container duration fall back to the longest stream.
package ffprobe
