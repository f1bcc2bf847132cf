package clips_test

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"highlighter/internal/clips"
	"highlighter/internal/services"
)

func TestCutBuildsStreamCopyArgs(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out", "clip.flv")
	cutter := clips.NewCutter("ffmpeg-test")

	var gotName string
	var gotArgs []string
	cutter.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		gotName = name
		gotArgs = args
		return nil
	})

	if err := cutter.Cut(context.Background(), "/live/a.flv", 55*time.Second, 70500*time.Millisecond, dest); err != nil {
		t.Fatalf("Cut returned error: %v", err)
	}
	if gotName != "ffmpeg-test" {
		t.Fatalf("expected configured binary, got %q", gotName)
	}
	joined := strings.Join(gotArgs, " ")
	for _, want := range []string{"-ss 55.000", "-to 70.500", "-i /live/a.flv", "-c copy"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %q in args, got %q", want, joined)
		}
	}
	if gotArgs[len(gotArgs)-1] != dest {
		t.Fatalf("expected destination last, got %q", gotArgs[len(gotArgs)-1])
	}
	// -ss must precede -i for an input seek.
	if slices.Index(gotArgs, "-ss") > slices.Index(gotArgs, "-i") {
		t.Fatalf("expected input seek, got %v", gotArgs)
	}
}

func TestCutRejectsEmptyRange(t *testing.T) {
	cutter := clips.NewCutter("")
	cutter.WithCommandRunner(func(context.Context, string, ...string) error {
		t.Fatal("runner should not be called")
		return nil
	})
	err := cutter.Cut(context.Background(), "a.flv", 5*time.Second, 5*time.Second, filepath.Join(t.TempDir(), "c.flv"))
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCutWrapsRunnerFailure(t *testing.T) {
	cutter := clips.NewCutter("")
	cutter.WithCommandRunner(func(context.Context, string, ...string) error {
		return errors.New("exit status 1")
	})
	err := cutter.Cut(context.Background(), "a.flv", 0, time.Second, filepath.Join(t.TempDir(), "c.flv"))
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestBoundsClampsPadding(t *testing.T) {
	tests := []struct {
		name                 string
		start, end, pad, dur time.Duration
		wantFrom, wantTo     time.Duration
	}{
		{"middle", 10 * time.Second, 20 * time.Second, 5 * time.Second, time.Minute, 5 * time.Second, 25 * time.Second},
		{"at start", 2 * time.Second, 8 * time.Second, 5 * time.Second, time.Minute, 0, 13 * time.Second},
		{"at end", 50 * time.Second, 58 * time.Second, 5 * time.Second, time.Minute, 45 * time.Second, time.Minute},
		{"unknown duration", 50 * time.Second, 58 * time.Second, 5 * time.Second, 0, 45 * time.Second, 63 * time.Second},
		{"negative padding", 10 * time.Second, 20 * time.Second, -time.Second, time.Minute, 10 * time.Second, 20 * time.Second},
	}
	for _, tt := range tests {
		from, to := clips.Bounds(tt.start, tt.end, tt.pad, tt.dur)
		if from != tt.wantFrom || to != tt.wantTo {
			t.Fatalf("%s: expected [%s, %s], got [%s, %s]", tt.name, tt.wantFrom, tt.wantTo, from, to)
		}
	}
}

func TestFileName(t *testing.T) {
	if got := clips.FileName("/live/room/2024: stream.flv", 2, 61500*time.Millisecond); got != "2024- stream_rank2_61s.flv" {
		t.Fatalf("unexpected clip name %q", got)
	}
	if got := clips.FileName("/live/noext", 1, 0); got != "noext_rank1_0s.mp4" {
		t.Fatalf("unexpected clip name %q", got)
	}
}
