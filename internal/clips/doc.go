// Package clips cuts highlight clips out of recordings with ffmpeg stream copy.
//
// Bounds are padded and clamped to the probed recording duration before the
// cut so a highlight at either edge of the stream never asks ffmpeg for a
// range outside the file.
package clips
