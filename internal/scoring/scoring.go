package scoring

import (
	"context"
	"math"
	"time"
)

// Emotion classes reported by the acoustic classifier.
const (
	EmotionNeutral   = "neutral"
	EmotionHappy     = "happy"
	EmotionSad       = "sad"
	EmotionAngry     = "angry"
	EmotionFearful   = "fearful"
	EmotionDisgust   = "disgust"
	EmotionSurprised = "surprised"
)

// EmotionClasses lists the acoustic classes in distribution order.
var EmotionClasses = []string{
	EmotionNeutral,
	EmotionHappy,
	EmotionSad,
	EmotionAngry,
	EmotionFearful,
	EmotionDisgust,
	EmotionSurprised,
}

// ClassScore is one entry of a classifier distribution.
type ClassScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Result is a classifier verdict: the winning label, its confidence in [0,1],
// and the full distribution when the classifier reports one.
type Result struct {
	Label        string       `json:"label"`
	Score        float64      `json:"score"`
	Distribution []ClassScore `json:"distribution,omitempty"`
}

// AudioSlice addresses a time range of an audio file.
type AudioSlice struct {
	Path  string
	Start time.Duration
	End   time.Duration
}

// Duration returns the slice length.
func (s AudioSlice) Duration() time.Duration {
	return s.End - s.Start
}

// TextScorer classifies text sentiment.
type TextScorer interface {
	Score(ctx context.Context, text string) (Result, error)
}

// AudioScorer classifies acoustic emotion for an audio slice.
type AudioScorer interface {
	Score(ctx context.Context, slice AudioSlice) (Result, error)
}

// TextScorerFunc adapts a function to TextScorer.
type TextScorerFunc func(ctx context.Context, text string) (Result, error)

// Score implements TextScorer.
func (f TextScorerFunc) Score(ctx context.Context, text string) (Result, error) {
	return f(ctx, text)
}

// AudioScorerFunc adapts a function to AudioScorer.
type AudioScorerFunc func(ctx context.Context, slice AudioSlice) (Result, error)

// Score implements AudioScorer.
func (f AudioScorerFunc) Score(ctx context.Context, slice AudioSlice) (Result, error) {
	return f(ctx, slice)
}

// NeutralResult is the fixed acoustic verdict for slices too short to classify.
func NeutralResult() Result {
	dist := make([]ClassScore, len(EmotionClasses))
	for i, label := range EmotionClasses {
		dist[i] = ClassScore{Label: label}
	}
	dist[0].Score = 1
	return Result{Label: EmotionNeutral, Score: 1, Distribution: dist}
}

// MinDurationScorer returns NeutralResult for slices shorter than Min and
// delegates everything else to Next.
type MinDurationScorer struct {
	Next AudioScorer
	Min  time.Duration
}

// Score implements AudioScorer.
func (m MinDurationScorer) Score(ctx context.Context, slice AudioSlice) (Result, error) {
	if slice.Duration() < m.Min {
		return NeutralResult(), nil
	}
	return m.Next.Score(ctx, slice)
}

// Top returns the highest-probability entry of a distribution. Ties keep the
// first entry. An empty distribution returns a zero ClassScore.
func Top(dist []ClassScore) ClassScore {
	var best ClassScore
	for i, entry := range dist {
		if i == 0 || entry.Score > best.Score {
			best = entry
		}
	}
	return best
}

// Clamp bounds a confidence into [0,1]. NaN becomes 0.
func Clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
