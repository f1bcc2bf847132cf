// Package scoring produces the three score streams fused into each window's
// composite score.
//
// TextScorer and AudioScorer are the narrow interfaces to the sentiment and
// emotion classifier services. HTTPSentiment and HTTPEmotion talk to those
// services over JSON/multipart HTTP with an optional request rate limit.
// MinDurationScorer substitutes the fixed neutral result for audio slices too
// short to classify.
//
// The stream builders (ScoreSegments, ScoreWindows, ScoreAcoustic) call a
// scorer once per unit of work, sequentially, and fail on the first
// collaborator error.
package scoring
