package scoring_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"highlighter/internal/scoring"
	"highlighter/internal/services"
	"highlighter/internal/transcript"
	"highlighter/internal/window"
)

func TestNeutralResult(t *testing.T) {
	res := scoring.NeutralResult()
	if res.Label != scoring.EmotionNeutral || res.Score != 1 {
		t.Fatalf("unexpected neutral verdict %+v", res)
	}
	if len(res.Distribution) != 7 {
		t.Fatalf("expected 7 classes, got %d", len(res.Distribution))
	}
	for i, entry := range res.Distribution {
		want := 0.0
		if i == 0 {
			want = 1
		}
		if entry.Label != scoring.EmotionClasses[i] || entry.Score != want {
			t.Fatalf("unexpected class %d: %+v", i, entry)
		}
	}
}

func TestMinDurationScorerShortCircuits(t *testing.T) {
	calls := 0
	next := scoring.AudioScorerFunc(func(context.Context, scoring.AudioSlice) (scoring.Result, error) {
		calls++
		return scoring.Result{Label: "angry", Score: 0.9}, nil
	})
	scorer := scoring.MinDurationScorer{Next: next, Min: 200 * time.Millisecond}

	short, err := scorer.Score(context.Background(), scoring.AudioSlice{Start: time.Second, End: time.Second + 199*time.Millisecond})
	if err != nil {
		t.Fatalf("Score returned error: %v", err)
	}
	if short.Label != scoring.EmotionNeutral || calls != 0 {
		t.Fatalf("expected neutral without collaborator call, got %+v calls=%d", short, calls)
	}
	long, err := scorer.Score(context.Background(), scoring.AudioSlice{Start: 0, End: 200 * time.Millisecond})
	if err != nil {
		t.Fatalf("Score returned error: %v", err)
	}
	if long.Label != "angry" || calls != 1 {
		t.Fatalf("expected delegate verdict, got %+v calls=%d", long, calls)
	}
}

func TestTopAndClamp(t *testing.T) {
	top := scoring.Top([]scoring.ClassScore{{"a", 0.2}, {"b", 0.5}, {"c", 0.5}})
	if top.Label != "b" {
		t.Fatalf("expected first maximum to win, got %+v", top)
	}
	if scoring.Clamp(1.5) != 1 || scoring.Clamp(-1) != 0 || scoring.Clamp(0.25) != 0.25 {
		t.Fatal("unexpected clamp behaviour")
	}
}

func TestHTTPSentiment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["text"] == "bad" {
			http.Error(w, "model exploded", http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"label": "positive", "score": 1.2})
	}))
	defer server.Close()

	client := scoring.NewHTTPSentiment(scoring.ClientOptions{URL: server.URL, Timeout: time.Second})
	res, err := client.Score(context.Background(), "太好了")
	if err != nil {
		t.Fatalf("Score returned error: %v", err)
	}
	if res.Label != "positive" || res.Score != 1 {
		t.Fatalf("expected clamped positive verdict, got %+v", res)
	}

	_, err = client.Score(context.Background(), "bad")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

type fakeSlicer struct {
	calls int
}

func (f *fakeSlicer) Slice(_ context.Context, _ string, _, _ time.Duration, dest string) error {
	f.calls++
	return os.WriteFile(dest, []byte("RIFFfake"), 0o644)
}

func TestHTTPEmotionUploadsSlice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("expected multipart file: %v", err)
			http.Error(w, "no file", http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(file)
		if string(data) != "RIFFfake" {
			t.Errorf("unexpected upload %q", data)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"emotions": []map[string]any{
				{"label": "Neutral", "score": 0.1},
				{"label": "Happy", "score": 0.7},
				{"label": "Sad", "score": 0.2},
			},
		})
	}))
	defer server.Close()

	tmp := t.TempDir()
	slicer := &fakeSlicer{}
	client := scoring.NewHTTPEmotion(scoring.ClientOptions{URL: server.URL}, slicer, tmp)
	res, err := client.Score(context.Background(), scoring.AudioSlice{Path: "audio.wav", Start: 0, End: time.Second})
	if err != nil {
		t.Fatalf("Score returned error: %v", err)
	}
	if res.Label != "happy" || res.Score != 0.7 || len(res.Distribution) != 3 {
		t.Fatalf("unexpected emotion verdict %+v", res)
	}
	if slicer.calls != 1 {
		t.Fatalf("expected one slice, got %d", slicer.calls)
	}
	entries, _ := os.ReadDir(tmp)
	if len(entries) != 0 {
		t.Fatalf("expected temporary slice to be removed, found %d files", len(entries))
	}
}

func segments(n int) []transcript.Segment {
	out := make([]transcript.Segment, n)
	for i := range out {
		out[i] = transcript.Segment{Index: i, Start: time.Duration(i) * time.Second, End: time.Duration(i+1) * time.Second, Text: string(rune('a' + i))}
	}
	return out
}

func TestStreamBuildersCallOncePerUnit(t *testing.T) {
	var texts []string
	text := scoring.TextScorerFunc(func(_ context.Context, s string) (scoring.Result, error) {
		texts = append(texts, s)
		return scoring.Result{Label: "positive", Score: 0.5}, nil
	})
	segs := segments(4)
	results, err := scoring.ScoreSegments(context.Background(), text, segs, nil)
	if err != nil {
		t.Fatalf("ScoreSegments returned error: %v", err)
	}
	if len(results) != 4 || len(texts) != 4 || texts[3] != "d" {
		t.Fatalf("expected one call per segment in order, got %v", texts)
	}

	windows := []window.Window{{Index: 0, Text: "a b"}, {Index: 1, Text: "b c"}}
	if err := scoring.ScoreWindows(context.Background(), text, windows, nil); err != nil {
		t.Fatalf("ScoreWindows returned error: %v", err)
	}
	if windows[1].Sentiment != 0.5 || windows[1].SentimentLabel != "positive" {
		t.Fatalf("expected window verdict recorded, got %+v", windows[1])
	}

	var slices []scoring.AudioSlice
	audio := scoring.AudioScorerFunc(func(_ context.Context, s scoring.AudioSlice) (scoring.Result, error) {
		slices = append(slices, s)
		return scoring.Result{Label: "happy", Score: 0.8}, nil
	})
	acoustic, err := scoring.ScoreAcoustic(context.Background(), audio, "audio.wav", segs, nil)
	if err != nil {
		t.Fatalf("ScoreAcoustic returned error: %v", err)
	}
	if got := scoring.Scores(acoustic); len(got) != 4 || got[2] != 0.8 {
		t.Fatalf("unexpected acoustic scores %v", got)
	}
	if slices[2].Start != 2*time.Second || slices[2].End != 3*time.Second || slices[2].Path != "audio.wav" {
		t.Fatalf("unexpected slice %+v", slices[2])
	}
}

func TestStreamBuilderFailsOnCollaboratorError(t *testing.T) {
	boom := errors.New("classifier down")
	calls := 0
	text := scoring.TextScorerFunc(func(context.Context, string) (scoring.Result, error) {
		calls++
		if calls == 2 {
			return scoring.Result{}, boom
		}
		return scoring.Result{Score: 0.1}, nil
	})
	if _, err := scoring.ScoreSegments(context.Background(), text, segments(4), nil); !errors.Is(err, boom) {
		t.Fatalf("expected collaborator error, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected to stop after failure, got %d calls", calls)
	}
}
