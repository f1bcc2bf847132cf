package fusion_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"highlighter/internal/fusion"
	"highlighter/internal/services"
	"highlighter/internal/transcript"
	"highlighter/internal/window"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func workedWindows() []window.Window {
	return []window.Window{
		{Index: 0, Start: 0, Count: 2, NominalSize: 2, Sentiment: 0.9},
		{Index: 1, Start: 1, Count: 2, NominalSize: 2, Sentiment: 0.2},
		{Index: 2, Start: 2, Count: 2, NominalSize: 2, Sentiment: 0.7},
	}
}

func TestFuseWorkedExample(t *testing.T) {
	// Segment streams chosen so the pairwise means are 0.8, 0.1, 0.6.
	acoustic := []float64{1.5, 0.1, 0.1, 1.1}
	individual := []float64{0.5, 0.5, 0.5, 0.5}
	fused, err := fusion.Fuse(workedWindows(), individual, acoustic, fusion.Options{
		Weights: fusion.DefaultWeights(), Alignment: fusion.AlignNominal, Stride: 1, Size: 2,
	})
	if err != nil {
		t.Fatalf("Fuse returned error: %v", err)
	}
	wantAcoustic := []float64{0.8, 0.1, 0.6}
	wantComposite := []float64{0.770, 0.175, 0.600}
	for i, w := range fused {
		if !approx(w.AcousticMean, wantAcoustic[i]) {
			t.Fatalf("window %d: expected acoustic mean %v, got %v", i, wantAcoustic[i], w.AcousticMean)
		}
		if !approx(w.IndividualMean, 0.5) {
			t.Fatalf("window %d: expected individual mean 0.5, got %v", i, w.IndividualMean)
		}
		if !approx(w.Composite, wantComposite[i]) {
			t.Fatalf("window %d: expected composite %v, got %v", i, wantComposite[i], w.Composite)
		}
		if w.Desynced {
			t.Fatalf("window %d: untruncated window flagged desynced", i)
		}
	}
}

func TestCompositeMatchesFormula(t *testing.T) {
	w := fusion.DefaultWeights()
	if got := w.Composite(0.8, 0.5, 0.9); !approx(got, 0.770) {
		t.Fatalf("expected 0.770, got %v", got)
	}
	if got := w.Composite(0.1, 0.5, 0.2); !approx(got, 0.175) {
		t.Fatalf("expected 0.175, got %v", got)
	}
}

func TestFuseIsDeterministicAndPure(t *testing.T) {
	input := workedWindows()
	acoustic := []float64{0.31, 0.77, 0.12, 0.95}
	individual := []float64{0.2, 0.4, 0.6, 0.8}
	opts := fusion.Options{Weights: fusion.DefaultWeights(), Stride: 1, Size: 2}

	first, err := fusion.Fuse(input, individual, acoustic, opts)
	if err != nil {
		t.Fatalf("Fuse returned error: %v", err)
	}
	for run := 0; run < 5; run++ {
		again, _ := fusion.Fuse(input, individual, acoustic, opts)
		for i := range first {
			if math.Float64bits(first[i].Composite) != math.Float64bits(again[i].Composite) {
				t.Fatalf("run %d window %d: composite changed", run, i)
			}
		}
	}
	if input[0].Composite != 0 || input[0].AcousticMean != 0 {
		t.Fatalf("expected input windows untouched, got %+v", input[0])
	}
}

func TestFuseOutOfRangeStreamsContributeZero(t *testing.T) {
	windows := []window.Window{
		{Index: 0, Start: 0, Count: 2, NominalSize: 2, Sentiment: 1},
		{Index: 1, Start: 2, Count: 2, NominalSize: 2, Sentiment: 1},
		{Index: 2, Start: 4, Count: 2, NominalSize: 2, Sentiment: 1},
	}
	acoustic := []float64{0.4, 0.6, 1.0}
	fused, err := fusion.Fuse(windows, nil, acoustic, fusion.Options{Weights: fusion.DefaultWeights(), Stride: 2, Size: 2})
	if err != nil {
		t.Fatalf("Fuse returned error: %v", err)
	}
	if len(fused) != 3 {
		t.Fatalf("expected every window kept, got %d", len(fused))
	}
	if !approx(fused[0].AcousticMean, 0.5) {
		t.Fatalf("expected full-range mean 0.5, got %v", fused[0].AcousticMean)
	}
	if !approx(fused[1].AcousticMean, 1.0) {
		t.Fatalf("expected partial-range mean 1.0, got %v", fused[1].AcousticMean)
	}
	if fused[2].AcousticMean != 0 || fused[2].IndividualMean != 0 {
		t.Fatalf("expected empty ranges to contribute 0, got %+v", fused[2])
	}
	if !approx(fused[2].Composite, 0.15) {
		t.Fatalf("expected window sentiment only, got %v", fused[2].Composite)
	}
}

func TestFuseAlignmentModes(t *testing.T) {
	// Window 1 kept 1 of 3 segments; nominal range is [2,5), truncated is [2,3).
	windows := []window.Window{
		{Index: 0, Start: 0, Count: 3, NominalSize: 3},
		{Index: 1, Start: 2, Count: 1, NominalSize: 3, Truncated: true},
	}
	acoustic := []float64{0, 0, 0.9, 0.3, 0.3, 0}
	nominal, err := fusion.Fuse(windows, nil, acoustic, fusion.Options{Weights: fusion.DefaultWeights(), Stride: 2, Size: 3})
	if err != nil {
		t.Fatalf("Fuse returned error: %v", err)
	}
	if nominal[0].Desynced {
		t.Fatalf("expected full window not desynced, got %+v", nominal[0])
	}
	if !approx(nominal[1].AcousticMean, 0.5) || !nominal[1].Desynced {
		t.Fatalf("expected nominal mean 0.5 flagged desynced, got %+v", nominal[1])
	}
	truncated, err := fusion.Fuse(windows, nil, acoustic, fusion.Options{Weights: fusion.DefaultWeights(), Alignment: fusion.AlignTruncated, Stride: 2, Size: 3})
	if err != nil {
		t.Fatalf("Fuse returned error: %v", err)
	}
	if !approx(truncated[1].AcousticMean, 0.9) || truncated[1].Desynced {
		t.Fatalf("expected truncated mean 0.9 not desynced, got %+v", truncated[1])
	}
}

func TestFuseAfterSkippedWindow(t *testing.T) {
	segments := []transcript.Segment{
		{Index: 0, Text: "aa", Start: 0, End: time.Second},
		{Index: 1, Text: "toolong", Start: time.Second, End: 2 * time.Second},
		{Index: 2, Text: "bb", Start: 2 * time.Second, End: 3 * time.Second},
	}
	generated, err := window.Generate(segments, window.Options{Size: 1, Stride: 1, MaxTextLength: 3, Separator: " "})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if len(generated.Windows) != 2 || len(generated.Skipped) != 1 || generated.Skipped[0] != 1 {
		t.Fatalf("expected window 1 skipped, got %+v", generated)
	}
	acoustic := []float64{0.1, 0.2, 0.9}

	nominal, err := fusion.Fuse(generated.Windows, nil, acoustic, fusion.Options{Weights: fusion.DefaultWeights(), Stride: 1, Size: 1})
	if err != nil {
		t.Fatalf("Fuse returned error: %v", err)
	}
	if nominal[1].Index != 2 {
		t.Fatalf("expected second emitted window to keep index 2, got %d", nominal[1].Index)
	}
	if !approx(nominal[1].AcousticMean, 0.2) {
		t.Fatalf("expected nominal offset by emitted position (0.2), got %v", nominal[1].AcousticMean)
	}
	if !nominal[1].Desynced {
		t.Fatal("expected window trailing its own segments to be flagged desynced")
	}

	truncated, err := fusion.Fuse(generated.Windows, nil, acoustic, fusion.Options{Weights: fusion.DefaultWeights(), Alignment: fusion.AlignTruncated, Stride: 1, Size: 1})
	if err != nil {
		t.Fatalf("Fuse returned error: %v", err)
	}
	if !approx(truncated[1].AcousticMean, 0.9) || truncated[1].Desynced {
		t.Fatalf("expected truncated alignment to follow the window's own segment (0.9), got %+v", truncated[1])
	}
}

func TestRange(t *testing.T) {
	cases := []struct {
		index, stride, size, n int
		from, to               int
	}{
		{0, 4, 64, 100, 0, 64},
		{10, 4, 64, 100, 40, 100},
		{30, 4, 64, 100, 100, 100},
		{1, 1, 2, 4, 1, 3},
	}
	for _, tc := range cases {
		from, to := fusion.Range(tc.index, tc.stride, tc.size, tc.n)
		if from != tc.from || to != tc.to {
			t.Fatalf("Range(%d,%d,%d,%d) = [%d,%d), want [%d,%d)", tc.index, tc.stride, tc.size, tc.n, from, to, tc.from, tc.to)
		}
	}
	if fusion.Mean(nil) != 0 {
		t.Fatal("expected mean of empty slice to be 0")
	}
}

func TestFuseRejectsBadOptions(t *testing.T) {
	if _, err := fusion.Fuse(nil, nil, nil, fusion.Options{Stride: 0, Size: 1}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := fusion.Fuse(nil, nil, nil, fusion.Options{Stride: 1, Size: 1, Alignment: "diagonal"}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
