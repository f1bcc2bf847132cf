package ranking_test

import (
	"reflect"
	"testing"
	"time"

	"highlighter/internal/ranking"
	"highlighter/internal/window"
)

func scored(composites ...float64) []window.Window {
	out := make([]window.Window, len(composites))
	for i, c := range composites {
		out[i] = window.Window{
			Index:     i,
			StartTime: time.Duration(2*i) * time.Second,
			EndTime:   time.Duration(2*i+4) * time.Second,
			Composite: c,
		}
	}
	return out
}

func TestRankWorkedExample(t *testing.T) {
	top := ranking.Rank(scored(0.770, 0.175, 0.600), 1)
	if len(top) != 1 {
		t.Fatalf("expected 1 highlight, got %d", len(top))
	}
	rec := top[0]
	if rec.Window.Index != 0 || rec.Rank != 1 {
		t.Fatalf("expected window 0 at rank 1, got %+v", rec)
	}
	if rec.TimeRange.Start != 0 || rec.TimeRange.End != 4*time.Second {
		t.Fatalf("expected time range 0-4s, got %+v", rec.TimeRange)
	}
}

func TestRankTieBreaksByIndex(t *testing.T) {
	windows := scored(0.5, 0.9, 0.5, 0.9, 0.1)
	top := ranking.Rank(windows, 3)
	got := []int{top[0].Window.Index, top[1].Window.Index, top[2].Window.Index}
	if !reflect.DeepEqual(got, []int{1, 3, 0}) {
		t.Fatalf("unexpected order %v", got)
	}
	for i, rec := range top {
		if rec.Rank != i+1 {
			t.Fatalf("expected rank %d, got %d", i+1, rec.Rank)
		}
	}
}

func TestRankIsIdempotentAndPure(t *testing.T) {
	windows := scored(0.3, 0.3, 0.8, 0.1, 0.8)
	reversed := make([]window.Window, len(windows))
	for i := range windows {
		reversed[len(windows)-1-i] = windows[i]
	}
	first := ranking.Rank(windows, 3)
	second := ranking.Rank(windows, 3)
	third := ranking.Rank(reversed, 3)
	if !reflect.DeepEqual(first, second) || !reflect.DeepEqual(first, third) {
		t.Fatalf("ranking not stable: %+v vs %+v vs %+v", first, second, third)
	}
	if windows[0].Index != 0 || windows[2].Index != 2 {
		t.Fatal("input order was modified")
	}
}

func TestRankNonPositiveKReturnsAll(t *testing.T) {
	if got := len(ranking.Rank(scored(0.1, 0.2, 0.3), 0)); got != 3 {
		t.Fatalf("expected all 3 windows, got %d", got)
	}
	if got := len(ranking.Rank(scored(0.1), 5)); got != 1 {
		t.Fatalf("expected k clamped to window count, got %d", got)
	}
	if got := ranking.Rank(nil, 3); len(got) != 0 {
		t.Fatalf("expected no highlights, got %d", len(got))
	}
}

func TestAboveIsStrict(t *testing.T) {
	top := ranking.Rank(scored(0.86, 0.9, 0.2), 0)
	above := ranking.Above(top, 0.86)
	if len(above) != 1 || above[0].Window.Index != 1 {
		t.Fatalf("expected only window 1 above threshold, got %+v", above)
	}
}
