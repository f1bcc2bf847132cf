// Package export writes and reads the per-run score and highlight documents.
//
// scores.json lists every emitted window in index order with its component
// and composite scores. highlights.json lists the ranked top-K. Both are
// written atomically so a failed run never leaves a partial document behind.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"highlighter/internal/fileutil"
	"highlighter/internal/fusion"
	"highlighter/internal/ranking"
	"highlighter/internal/services"
	"highlighter/internal/transcript"
	"highlighter/internal/window"
)

// Document file names inside a job work directory.
const (
	ScoresFile     = "scores.json"
	HighlightsFile = "highlights.json"
	Version        = 1
)

// Weights mirrors fusion.Weights on the wire.
type Weights struct {
	Acoustic   float64 `json:"acoustic" yaml:"acoustic"`
	Individual float64 `json:"individual" yaml:"individual"`
	Window     float64 `json:"window" yaml:"window"`
}

// WindowRecord is one scored window.
type WindowRecord struct {
	Index          int     `json:"index" yaml:"index"`
	SegmentStart   int     `json:"segment_start" yaml:"segment_start"`
	SegmentCount   int     `json:"segment_count" yaml:"segment_count"`
	NominalSize    int     `json:"nominal_size" yaml:"nominal_size"`
	Truncated      bool    `json:"truncated" yaml:"truncated"`
	Desynced       bool    `json:"desynced" yaml:"desynced"`
	StartSeconds   float64 `json:"start_seconds" yaml:"start_seconds"`
	EndSeconds     float64 `json:"end_seconds" yaml:"end_seconds"`
	Text           string  `json:"text" yaml:"text"`
	SentimentLabel string  `json:"sentiment_label" yaml:"sentiment_label"`
	Sentiment      float64 `json:"sentiment" yaml:"sentiment"`
	AcousticMean   float64 `json:"acoustic_mean" yaml:"acoustic_mean"`
	IndividualMean float64 `json:"individual_mean" yaml:"individual_mean"`
	Composite      float64 `json:"composite" yaml:"composite"`
}

// Scores is the scores.json document. It carries no timestamp, so identical
// inputs encode to identical bytes.
type Scores struct {
	Version       int            `json:"version" yaml:"version"`
	Source        string         `json:"source" yaml:"source"`
	SegmentCount  int            `json:"segment_count" yaml:"segment_count"`
	WindowSize    int            `json:"window_size" yaml:"window_size"`
	Stride        int            `json:"stride" yaml:"stride"`
	MaxTextLength int            `json:"max_text_length" yaml:"max_text_length"`
	Alignment     string         `json:"alignment" yaml:"alignment"`
	Weights       Weights        `json:"weights" yaml:"weights"`
	Skipped       []int          `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Windows       []WindowRecord `json:"windows" yaml:"windows"`
}

// HighlightRecord is one ranked highlight.
type HighlightRecord struct {
	Rank         int          `json:"rank" yaml:"rank"`
	Composite    float64      `json:"composite" yaml:"composite"`
	StartSeconds float64      `json:"start_seconds" yaml:"start_seconds"`
	EndSeconds   float64      `json:"end_seconds" yaml:"end_seconds"`
	Window       WindowRecord `json:"window" yaml:"window"`
}

// Highlights is the highlights.json document.
type Highlights struct {
	Version     int               `json:"version" yaml:"version"`
	Source      string            `json:"source" yaml:"source"`
	GeneratedAt time.Time         `json:"generated_at" yaml:"generated_at"`
	TopK        int               `json:"top_k" yaml:"top_k"`
	Highlights  []HighlightRecord `json:"highlights" yaml:"highlights"`
}

// Meta describes the run that produced a document.
type Meta struct {
	Source        string
	SegmentCount  int
	WindowSize    int
	Stride        int
	MaxTextLength int
	Alignment     fusion.Alignment
	Weights       fusion.Weights
	Skipped       []int
}

// NewWindowRecord converts a scored window to its wire form.
func NewWindowRecord(w window.Window) WindowRecord {
	return WindowRecord{
		Index:          w.Index,
		SegmentStart:   w.Start,
		SegmentCount:   w.Count,
		NominalSize:    w.NominalSize,
		Truncated:      w.Truncated,
		Desynced:       w.Desynced,
		StartSeconds:   transcript.Seconds(w.StartTime),
		EndSeconds:     transcript.Seconds(w.EndTime),
		Text:           w.Text,
		SentimentLabel: w.SentimentLabel,
		Sentiment:      w.Sentiment,
		AcousticMean:   w.AcousticMean,
		IndividualMean: w.IndividualMean,
		Composite:      w.Composite,
	}
}

// BuildScores assembles the scores document. Windows are emitted in index order.
func BuildScores(meta Meta, windows []window.Window) Scores {
	alignment := string(meta.Alignment)
	if alignment == "" {
		alignment = string(fusion.AlignNominal)
	}
	doc := Scores{
		Version:       Version,
		Source:        meta.Source,
		SegmentCount:  meta.SegmentCount,
		WindowSize:    meta.WindowSize,
		Stride:        meta.Stride,
		MaxTextLength: meta.MaxTextLength,
		Alignment:     alignment,
		Weights: Weights{
			Acoustic:   meta.Weights.Acoustic,
			Individual: meta.Weights.Individual,
			Window:     meta.Weights.Window,
		},
		Skipped: append([]int(nil), meta.Skipped...),
		Windows: make([]WindowRecord, len(windows)),
	}
	for i, w := range windows {
		doc.Windows[i] = NewWindowRecord(w)
	}
	return doc
}

// BuildHighlights assembles the highlights document in rank order.
func BuildHighlights(source string, generatedAt time.Time, topK int, records []ranking.HighlightRecord) Highlights {
	doc := Highlights{
		Version:     Version,
		Source:      source,
		GeneratedAt: generatedAt.UTC(),
		TopK:        topK,
		Highlights:  make([]HighlightRecord, len(records)),
	}
	for i, rec := range records {
		doc.Highlights[i] = HighlightRecord{
			Rank:         rec.Rank,
			Composite:    rec.Composite,
			StartSeconds: transcript.Seconds(rec.TimeRange.Start),
			EndSeconds:   transcript.Seconds(rec.TimeRange.End),
			Window:       NewWindowRecord(rec.Window),
		}
	}
	return doc
}

// WriteScores writes doc to path atomically.
func WriteScores(path string, doc Scores) error {
	if err := fileutil.WriteJSONAtomic(path, doc); err != nil {
		return services.Wrap(services.ErrTransient, "export", "write scores", path, err)
	}
	return nil
}

// WriteHighlights writes doc to path atomically.
func WriteHighlights(path string, doc Highlights) error {
	if err := fileutil.WriteJSONAtomic(path, doc); err != nil {
		return services.Wrap(services.ErrTransient, "export", "write highlights", path, err)
	}
	return nil
}

// ResolveScoresPath accepts either a work directory or a scores document path.
func ResolveScoresPath(path string) string {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return filepath.Join(path, ScoresFile)
	}
	return path
}

// ReadScores loads a scores document from a file or a work directory.
func ReadScores(path string) (Scores, error) {
	path = ResolveScoresPath(path)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Scores{}, services.Wrap(services.ErrNotFound, "export", "read scores", path, err)
		}
		return Scores{}, services.Wrap(services.ErrTransient, "export", "read scores", path, err)
	}
	var doc Scores
	if err := json.Unmarshal(data, &doc); err != nil {
		return Scores{}, services.Wrap(services.ErrValidation, "export", "decode scores", path, err)
	}
	if doc.Version != Version {
		return Scores{}, services.Wrap(services.ErrValidation, "export", "decode scores", fmt.Sprintf("unsupported version %d", doc.Version), nil)
	}
	return doc, nil
}

// EncodeJSON writes v as indented JSON.
func EncodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// EncodeYAML writes v as YAML.
func EncodeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
