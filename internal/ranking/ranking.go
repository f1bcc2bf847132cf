// Package ranking selects the top-scoring windows of a run.
package ranking

import (
	"sort"
	"time"

	"highlighter/internal/window"
)

// TimeRange is an absolute offset range within the recording.
type TimeRange struct {
	Start time.Duration
	End   time.Duration
}

// HighlightRecord is a read-only projection of a ranked window.
type HighlightRecord struct {
	Window    window.Window
	Rank      int
	TimeRange TimeRange
	Composite float64
}

// Rank orders windows by composite score descending, breaking ties by
// ascending window index, and returns the first k as highlights ranked from 1.
// k <= 0 returns every window. The input slice is not modified.
func Rank(windows []window.Window, k int) []HighlightRecord {
	ordered := make([]window.Window, len(windows))
	copy(ordered, windows)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Composite != ordered[j].Composite {
			return ordered[i].Composite > ordered[j].Composite
		}
		return ordered[i].Index < ordered[j].Index
	})
	if k <= 0 || k > len(ordered) {
		k = len(ordered)
	}
	records := make([]HighlightRecord, k)
	for i := 0; i < k; i++ {
		w := ordered[i]
		records[i] = HighlightRecord{
			Window:    w,
			Rank:      i + 1,
			TimeRange: TimeRange{Start: w.StartTime, End: w.EndTime},
			Composite: w.Composite,
		}
	}
	return records
}

// Above returns the records whose composite strictly exceeds threshold,
// preserving rank order.
func Above(records []HighlightRecord, threshold float64) []HighlightRecord {
	var out []HighlightRecord
	for _, rec := range records {
		if rec.Composite > threshold {
			out = append(out, rec)
		}
	}
	return out
}
