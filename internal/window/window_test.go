package window_test

import (
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"highlighter/internal/services"
	"highlighter/internal/transcript"
	"highlighter/internal/window"
)

func segs(texts ...string) []transcript.Segment {
	out := make([]transcript.Segment, len(texts))
	for i, text := range texts {
		out[i] = transcript.Segment{
			Index: i,
			Start: time.Duration(2*i) * time.Second,
			End:   time.Duration(2*i+2) * time.Second,
			Text:  text,
		}
	}
	return out
}

func TestGenerateWorkedExample(t *testing.T) {
	result, err := window.Generate(segs("a", "b", "c", "d"), window.Options{Size: 2, Stride: 1, MaxTextLength: 1000, Separator: " "})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if len(result.Windows) != 3 {
		t.Fatalf("expected 3 windows, got %d", len(result.Windows))
	}
	wantText := []string{"a b", "b c", "c d"}
	for i, w := range result.Windows {
		if w.Index != i || w.Start != i || w.Count != 2 {
			t.Fatalf("window %d: unexpected geometry %+v", i, w)
		}
		if w.Text != wantText[i] {
			t.Fatalf("window %d: expected text %q, got %q", i, wantText[i], w.Text)
		}
	}
	first := result.Windows[0]
	if first.StartTime != 0 || first.EndTime != 4*time.Second {
		t.Fatalf("unexpected time range %s-%s", first.StartTime, first.EndTime)
	}
}

func TestGenerateStartIndicesFollowStride(t *testing.T) {
	texts := make([]string, 23)
	for i := range texts {
		texts[i] = "x"
	}
	for _, tc := range []struct{ size, stride int }{{1, 1}, {4, 2}, {5, 3}, {23, 1}, {24, 1}, {3, 7}} {
		result, err := window.Generate(segs(texts...), window.Options{Size: tc.size, Stride: tc.stride, MaxTextLength: 1000})
		if err != nil {
			t.Fatalf("Generate returned error: %v", err)
		}
		want := 0
		for i := 0; i+tc.size <= len(texts); i += tc.stride {
			want++
		}
		if len(result.Windows) != want {
			t.Fatalf("size=%d stride=%d: expected %d windows, got %d", tc.size, tc.stride, want, len(result.Windows))
		}
		seen := map[int]bool{}
		for i, w := range result.Windows {
			if w.Start != i*tc.stride {
				t.Fatalf("size=%d stride=%d: window %d starts at %d", tc.size, tc.stride, i, w.Start)
			}
			if seen[w.Start] {
				t.Fatalf("duplicate start index %d", w.Start)
			}
			seen[w.Start] = true
			if w.Start+tc.size > len(texts) {
				t.Fatalf("window %d overruns the sequence", i)
			}
		}
	}
}

func TestGenerateTruncatesTrailingSegments(t *testing.T) {
	// "aaaa bbbb cccc" is 14 code points; limit 10 keeps "aaaa bbbb".
	result, err := window.Generate(segs("aaaa", "bbbb", "cccc", "dd"), window.Options{Size: 3, Stride: 1, MaxTextLength: 10, Separator: " "})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if len(result.Windows) != 2 {
		t.Fatalf("expected 2 windows, got %d", len(result.Windows))
	}
	w0 := result.Windows[0]
	if w0.Text != "aaaa bbbb" || w0.Count != 2 || !w0.Truncated || w0.NominalSize != 3 {
		t.Fatalf("unexpected truncated window %+v", w0)
	}
	if w0.EndTime != 4*time.Second {
		t.Fatalf("expected end time of last kept segment, got %s", w0.EndTime)
	}
	w1 := result.Windows[1]
	if w1.Text != "bbbb cccc" || w1.Count != 2 {
		t.Fatalf("unexpected second window %+v", w1)
	}
	if result.Truncated != 2 {
		t.Fatalf("expected 2 truncated windows, got %d", result.Truncated)
	}
}

func TestGenerateSkipsWindowWhenSingleSegmentTooLong(t *testing.T) {
	long := strings.Repeat("长", 6)
	result, err := window.Generate(segs("ok", long, "ok", "ok"), window.Options{Size: 2, Stride: 1, MaxTextLength: 5, Separator: " "})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	for _, w := range result.Windows {
		if w.Index == 1 {
			t.Fatalf("expected window 1 to be skipped, got %+v", w)
		}
		if n := utf8.RuneCountInString(w.Text); n > 5 {
			t.Fatalf("window %d text length %d exceeds limit", w.Index, n)
		}
	}
	if len(result.Skipped) != 1 || result.Skipped[0] != 1 {
		t.Fatalf("expected skipped [1], got %v", result.Skipped)
	}
	if got := result.Windows[len(result.Windows)-1].Index; got != 2 {
		t.Fatalf("expected later windows to keep their index, got %d", got)
	}
}

func TestGenerateCountsCodePointsNotBytes(t *testing.T) {
	result, err := window.Generate(segs("你好", "世界"), window.Options{Size: 2, Stride: 1, MaxTextLength: 5, Separator: " "})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if len(result.Windows) != 1 || result.Windows[0].Truncated {
		t.Fatalf("expected untruncated 5 code point window, got %+v", result.Windows)
	}
}

func TestGenerateRejectsInvalidOptions(t *testing.T) {
	for _, opts := range []window.Options{
		{Size: 0, Stride: 1, MaxTextLength: 1},
		{Size: 1, Stride: 0, MaxTextLength: 1},
		{Size: 1, Stride: 1, MaxTextLength: 0},
	} {
		if _, err := window.Generate(segs("a"), opts); !errors.Is(err, services.ErrValidation) {
			t.Fatalf("expected validation error for %+v, got %v", opts, err)
		}
	}
}

func TestGenerateShortTranscriptYieldsNothing(t *testing.T) {
	result, err := window.Generate(segs("a", "b"), window.Options{Size: 3, Stride: 1, MaxTextLength: 10})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if len(result.Windows) != 0 {
		t.Fatalf("expected no windows, got %d", len(result.Windows))
	}
}
