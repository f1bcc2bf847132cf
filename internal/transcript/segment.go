package transcript

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"highlighter/internal/services"
)

// Segment is one timestamped unit of transcribed speech.
type Segment struct {
	Index int
	Start time.Duration
	End   time.Duration
	Text  string
}

// Duration returns the segment length.
func (s Segment) Duration() time.Duration {
	return s.End - s.Start
}

// Store is an ordered, immutable sequence of segments.
type Store struct {
	segments []Segment
}

// NewStore validates and normalises raw segments. Segments must be ordered by
// start time and have End >= Start. A start that overlaps the previous
// segment's end is clamped forward so the sequence is non-overlapping.
// Segments whose text is empty after normalisation are dropped, and indices are
// reassigned from zero.
func NewStore(raw []Segment) (*Store, error) {
	segments := make([]Segment, 0, len(raw))
	var prevEnd time.Duration
	for i, seg := range raw {
		if seg.Start < 0 || seg.End < seg.Start {
			return nil, services.Wrap(services.ErrValidation, "transcript", "load",
				fmt.Sprintf("segment %d has invalid range %s-%s", i, seg.Start, seg.End), nil)
		}
		if i > 0 && seg.Start < raw[i-1].Start {
			return nil, services.Wrap(services.ErrValidation, "transcript", "load",
				fmt.Sprintf("segment %d starts before segment %d", i, i-1), nil)
		}
		text := NormalizeText(seg.Text)
		if text == "" {
			continue
		}
		if len(segments) > 0 && seg.Start < prevEnd {
			seg.Start = prevEnd
			if seg.End < seg.Start {
				seg.End = seg.Start
			}
		}
		seg.Text = text
		seg.Index = len(segments)
		segments = append(segments, seg)
		prevEnd = seg.End
	}
	return &Store{segments: segments}, nil
}

// NormalizeText trims surrounding whitespace, collapses internal runs of
// whitespace, and applies Unicode NFC composition.
func NormalizeText(text string) string {
	return norm.NFC.String(strings.Join(strings.Fields(text), " "))
}

// Len returns the number of segments.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.segments)
}

// At returns the segment at index i. It panics when i is out of range, like a
// slice index.
func (s *Store) At(i int) Segment {
	return s.segments[i]
}

// Segments returns a copy of all segments.
func (s *Store) Segments() []Segment {
	if s == nil {
		return nil
	}
	return append([]Segment(nil), s.segments...)
}

// Slice returns a copy of segments [from, to), clamped to the store bounds.
func (s *Store) Slice(from, to int) []Segment {
	n := s.Len()
	if from < 0 {
		from = 0
	}
	if to > n {
		to = n
	}
	if from >= to {
		return nil
	}
	return append([]Segment(nil), s.segments[from:to]...)
}

// Duration returns the end time of the last segment.
func (s *Store) Duration() time.Duration {
	if s.Len() == 0 {
		return 0
	}
	return s.segments[len(s.segments)-1].End
}

// Texts returns the segment texts in order.
func (s *Store) Texts() []string {
	out := make([]string, s.Len())
	for i := range out {
		out[i] = s.segments[i].Text
	}
	return out
}
