// Package fusion aligns the per-segment score streams with the text windows
// and computes each window's weighted composite score.
//
// The per-segment streams are indexed by segment, the window sentiment by
// window. Under nominal alignment the i-th emitted window averages over
// [i*T, i*T+S) regardless of text truncation. i counts emitted windows only,
// so once a window has been skipped the stream offset trails the window's own
// Start. Windows whose nominal range differs from the segments their text
// kept are flagged Desynced. Truncated alignment averages over exactly
// [Start, Start+Count).
package fusion

import (
	"fmt"

	"highlighter/internal/services"
	"highlighter/internal/window"
)

// Alignment selects how a window maps onto the per-segment streams.
type Alignment string

// Alignment modes.
const (
	// AlignNominal averages over [i*Stride, i*Stride+Size) for the i-th
	// emitted window.
	AlignNominal Alignment = "nominal"
	// AlignTruncated averages over the segments the text window kept.
	AlignTruncated Alignment = "truncated"
)

// Weights controls the composite policy.
type Weights struct {
	Acoustic   float64
	Individual float64
	Window     float64
}

// DefaultWeights returns the 0.70/0.15/0.15 policy.
func DefaultWeights() Weights {
	return Weights{Acoustic: 0.70, Individual: 0.15, Window: 0.15}
}

// Options configures Fuse.
type Options struct {
	Weights   Weights
	Alignment Alignment
	Stride    int
	Size      int
}

// Range returns the half-open segment range [from, to) window index covers
// in a stream of streamLen entries, clipped to the stream. An index past the
// end yields an empty range.
func Range(index, stride, size, streamLen int) (int, int) {
	return Span(index*stride, size, streamLen)
}

// Span clips [from, from+size) to a stream of streamLen entries.
func Span(from, size, streamLen int) (int, int) {
	to := from + size
	if from > streamLen {
		from = streamLen
	}
	if to > streamLen {
		to = streamLen
	}
	if from < 0 {
		from = 0
	}
	if to < from {
		to = from
	}
	return from, to
}

// Mean returns the arithmetic mean of values, summed in index order. An empty
// slice yields 0.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Composite applies the weights to the three components.
func (w Weights) Composite(acoustic, individual, windowSentiment float64) float64 {
	return w.Acoustic*acoustic + w.Individual*individual + w.Window*windowSentiment
}

// Fuse fills AcousticMean, IndividualMean, Composite and Desynced on a copy of
// windows. windows must be in emission order with skipped windows already
// removed, as window.Generate returns them. Window sentiment must already be set. individual and acoustic are
// per-segment streams; ranges falling outside them contribute 0.
func Fuse(windows []window.Window, individual, acoustic []float64, opts Options) ([]window.Window, error) {
	if opts.Stride <= 0 || opts.Size <= 0 {
		return nil, services.Wrap(services.ErrValidation, "fusion", "fuse",
			fmt.Sprintf("stride and size must be positive, got %d/%d", opts.Stride, opts.Size), nil)
	}
	switch opts.Alignment {
	case "", AlignNominal, AlignTruncated:
	default:
		return nil, services.Wrap(services.ErrValidation, "fusion", "fuse", fmt.Sprintf("unknown alignment %q", opts.Alignment), nil)
	}

	out := make([]window.Window, len(windows))
	for i, w := range windows {
		from, size := i*opts.Stride, opts.Size
		if opts.Alignment == AlignTruncated && w.Count > 0 {
			from, size = w.Start, w.Count
		}
		af, at := Span(from, size, len(acoustic))
		nf, nt := Span(from, size, len(individual))

		w.AcousticMean = Mean(acoustic[af:at])
		w.IndividualMean = Mean(individual[nf:nt])
		w.Composite = opts.Weights.Composite(w.AcousticMean, w.IndividualMean, w.Sentiment)
		w.Desynced = opts.Alignment != AlignTruncated && (from != w.Start || w.Count != opts.Size)
		out[i] = w
	}
	return out, nil
}
