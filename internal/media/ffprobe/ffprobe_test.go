package ffprobe

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video"},
			{CodecType: "audio"},
			{CodecType: "audio"},
		},
		Format: Format{Duration: "123.45"},
	}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.Duration() != 123450*time.Millisecond {
		t.Fatalf("unexpected duration: %s", result.Duration())
	}
}

func TestDurationFallsBackToStreams(t *testing.T) {
	result := Result{
		Streams: []Stream{{Duration: "10.5"}, {Duration: "bad"}, {Duration: "12.25"}},
		Format:  Format{Duration: "bad"},
	}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.Duration() != 12250*time.Millisecond {
		t.Fatalf("expected stream fallback, got %s", result.Duration())
	}
}

func TestInspectWithDecodesOutput(t *testing.T) {
	var gotArgs []string
	run := func(_ context.Context, binary string, args ...string) ([]byte, error) {
		if binary != "ffprobe" {
			t.Fatalf("expected default binary, got %q", binary)
		}
		gotArgs = args
		return []byte(`{"streams":[{"index":0,"codec_type":"audio"}],"format":{"duration":"60.000"}}`), nil
	}
	result, err := InspectWith(context.Background(), run, "", "/tmp/a.flv")
	if err != nil {
		t.Fatalf("InspectWith returned error: %v", err)
	}
	if gotArgs[len(gotArgs)-1] != "/tmp/a.flv" || gotArgs[len(gotArgs)-2] != "--" {
		t.Fatalf("expected path as last arg, got %v", gotArgs)
	}
	if result.Duration() != time.Minute {
		t.Fatalf("unexpected duration: %s", result.Duration())
	}
}

func TestInspectWithPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	run := func(context.Context, string, ...string) ([]byte, error) { return nil, boom }
	if _, err := InspectWith(context.Background(), run, "ffprobe", "/tmp/a.flv"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped runner error, got %v", err)
	}
	if _, err := InspectWith(context.Background(), run, "ffprobe", " "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestDurationTreatsNotAvailableAsUnknown(t *testing.T) {
	result := Result{
		Streams: []Stream{{CodecType: "audio", Duration: "N/A"}},
		Format:  Format{Duration: "N/A"},
	}
	if result.DurationSeconds() != 0 {
		t.Fatalf("expected zero for N/A, got %v", result.DurationSeconds())
	}
	if result.Duration() != 0 {
		t.Fatalf("expected unknown duration, got %s", result.Duration())
	}
	if got := result.AudioStreams(); len(got) != 1 || got[0].Duration != "N/A" {
		t.Fatalf("unexpected audio streams: %#v", got)
	}
}
