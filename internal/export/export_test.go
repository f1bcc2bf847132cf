package export_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"highlighter/internal/export"
	"highlighter/internal/fusion"
	"highlighter/internal/ranking"
	"highlighter/internal/services"
	"highlighter/internal/window"
)

func sampleWindows() []window.Window {
	return []window.Window{
		{Index: 0, Start: 0, Count: 2, NominalSize: 2, StartTime: 0, EndTime: 4 * time.Second, Text: "a b", Sentiment: 0.9, AcousticMean: 0.8, IndividualMean: 0.5, Composite: 0.77},
		{Index: 1, Start: 1, Count: 2, NominalSize: 2, StartTime: 2 * time.Second, EndTime: 6*time.Second + 1234*time.Microsecond, Text: "b c", Sentiment: 0.2, AcousticMean: 0.1, IndividualMean: 0.5, Composite: 0.175},
	}
}

func sampleMeta() export.Meta {
	return export.Meta{
		Source:        "/live/a.flv",
		SegmentCount:  4,
		WindowSize:    2,
		Stride:        1,
		MaxTextLength: 1000,
		Weights:       fusion.DefaultWeights(),
	}
}

func TestScoresRoundTripThroughWorkDir(t *testing.T) {
	dir := t.TempDir()
	doc := export.BuildScores(sampleMeta(), sampleWindows())
	if doc.Alignment != "nominal" {
		t.Fatalf("expected default alignment, got %q", doc.Alignment)
	}
	if err := export.WriteScores(filepath.Join(dir, export.ScoresFile), doc); err != nil {
		t.Fatalf("WriteScores: %v", err)
	}

	loaded, err := export.ReadScores(dir)
	if err != nil {
		t.Fatalf("ReadScores: %v", err)
	}
	if len(loaded.Windows) != 2 || loaded.Windows[1].Index != 1 {
		t.Fatalf("unexpected windows %+v", loaded.Windows)
	}
	if loaded.Windows[1].EndSeconds != 6.001 {
		t.Fatalf("expected millisecond precision, got %v", loaded.Windows[1].EndSeconds)
	}
	if loaded.Weights.Acoustic != 0.70 {
		t.Fatalf("unexpected weights %+v", loaded.Weights)
	}
}

func TestScoresStableAcrossRuns(t *testing.T) {
	var first, second bytes.Buffer
	if err := export.EncodeJSON(&first, export.BuildScores(sampleMeta(), sampleWindows())); err != nil {
		t.Fatal(err)
	}
	if err := export.EncodeJSON(&second, export.BuildScores(sampleMeta(), sampleWindows())); err != nil {
		t.Fatal(err)
	}
	if first.String() != second.String() {
		t.Fatal("expected identical documents for identical inputs")
	}
	if !strings.Contains(first.String(), `"segment_count": 2`) {
		t.Fatalf("expected window segment counts in output: %s", first.String())
	}
}

func TestReadScoresErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := export.ReadScores(dir); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	path := filepath.Join(dir, export.ScoresFile)
	if err := os.WriteFile(path, []byte(`{"version":99}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := export.ReadScores(path); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBuildHighlightsKeepsRankOrder(t *testing.T) {
	records := ranking.Rank(sampleWindows(), 2)
	doc := export.BuildHighlights("/live/a.flv", time.Now(), 2, records)
	if len(doc.Highlights) != 2 {
		t.Fatalf("expected 2 highlights, got %d", len(doc.Highlights))
	}
	if doc.Highlights[0].Rank != 1 || doc.Highlights[0].Window.Index != 0 || doc.Highlights[0].EndSeconds != 4 {
		t.Fatalf("unexpected first highlight %+v", doc.Highlights[0])
	}
	path := filepath.Join(t.TempDir(), export.HighlightsFile)
	if err := export.WriteHighlights(path, doc); err != nil {
		t.Fatalf("WriteHighlights: %v", err)
	}
}

func TestEncodeYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := export.EncodeYAML(&buf, export.BuildScores(sampleMeta(), sampleWindows())); err != nil {
		t.Fatalf("EncodeYAML: %v", err)
	}
	var decoded export.Scores
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("yaml decode: %v", err)
	}
	if decoded.Windows[0].Text != "a b" || decoded.Stride != 1 {
		t.Fatalf("unexpected yaml document %+v", decoded)
	}
}
