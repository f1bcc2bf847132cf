// Package window cuts a transcript into fixed-size, fixed-stride sliding
// windows and applies the oversized-text truncation policy.
package window

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"highlighter/internal/services"
	"highlighter/internal/transcript"
)

// Options controls window geometry.
type Options struct {
	Size          int
	Stride        int
	MaxTextLength int
	Separator     string
}

// Validate reports whether the options can produce windows.
func (o Options) Validate() error {
	switch {
	case o.Size <= 0:
		return services.Wrap(services.ErrValidation, "window", "options", fmt.Sprintf("size must be positive, got %d", o.Size), nil)
	case o.Stride <= 0:
		return services.Wrap(services.ErrValidation, "window", "options", fmt.Sprintf("stride must be positive, got %d", o.Stride), nil)
	case o.MaxTextLength <= 0:
		return services.Wrap(services.ErrValidation, "window", "options", fmt.Sprintf("max text length must be positive, got %d", o.MaxTextLength), nil)
	}
	return nil
}

// Window is a contiguous, possibly truncated, run of segments scored as a
// unit. Generation fills the geometry; the scoring and fusion phases fill the
// remaining fields.
type Window struct {
	// Index is the window's position among nominal start offsets (Start/Stride).
	// Skipped windows consume their index but not a position in Windows.
	Index       int
	Start       int
	Count       int
	NominalSize int
	StartTime   time.Duration
	EndTime     time.Duration
	Text        string
	Truncated   bool

	SentimentLabel string
	Sentiment      float64
	AcousticMean   float64
	IndividualMean float64
	Composite      float64
	// Desynced marks windows whose kept segments differ from the range the
	// per-segment score streams were averaged over.
	Desynced bool
}

// End returns the exclusive segment index after the last kept segment.
func (w Window) End() int {
	return w.Start + w.Count
}

// Result is the output of Generate.
type Result struct {
	Windows []Window
	// Skipped lists the indices of windows whose first segment alone exceeded
	// the text limit.
	Skipped []int
	// Truncated counts emitted windows that lost trailing segments.
	Truncated int
}

// Generate emits windows starting at segment offsets 0, T, 2T, ... while a full
// nominal window fits. When the joined text is longer than MaxTextLength code
// points, trailing segments are dropped one at a time; a window that is still
// too long with a single segment is skipped entirely.
func Generate(segments []transcript.Segment, opts Options) (Result, error) {
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}
	sepLen := utf8.RuneCountInString(opts.Separator)
	lengths := make([]int, len(segments))
	for i, seg := range segments {
		lengths[i] = utf8.RuneCountInString(seg.Text)
	}

	var result Result
	for start := 0; start+opts.Size <= len(segments); start += opts.Stride {
		index := start / opts.Stride
		count := opts.Size
		total := joinedLength(lengths[start:start+count], sepLen)
		for total > opts.MaxTextLength && count > 1 {
			total -= lengths[start+count-1] + sepLen
			count--
		}
		if total > opts.MaxTextLength {
			result.Skipped = append(result.Skipped, index)
			continue
		}
		kept := segments[start : start+count]
		w := Window{
			Index:       index,
			Start:       start,
			Count:       count,
			NominalSize: opts.Size,
			StartTime:   kept[0].Start,
			EndTime:     kept[len(kept)-1].End,
			Text:        joinText(kept, opts.Separator),
			Truncated:   count < opts.Size,
		}
		if w.Truncated {
			result.Truncated++
		}
		result.Windows = append(result.Windows, w)
	}
	return result, nil
}

func joinedLength(lengths []int, sepLen int) int {
	if len(lengths) == 0 {
		return 0
	}
	total := sepLen * (len(lengths) - 1)
	for _, l := range lengths {
		total += l
	}
	return total
}

func joinText(segments []transcript.Segment, sep string) string {
	parts := make([]string, len(segments))
	for i, seg := range segments {
		parts[i] = seg.Text
	}
	return strings.Join(parts, sep)
}
