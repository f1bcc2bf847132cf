package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Runner executes ffprobe and returns its standard output.
type Runner func(ctx context.Context, binary string, args ...string) ([]byte, error)

// showEntries limits ffprobe output to the fields clip padding and audio
// extraction need, which keeps probing a multi-hour recording cheap.
const showEntries = "format=duration,format_name:stream=index,codec_type,codec_name,duration,sample_rate,channels"

// Result is the subset of ffprobe JSON output the pipeline reads.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream is one container stream. ffprobe reports numeric fields such as
// duration and sample_rate as strings.
type Stream struct {
	Index      int    `json:"index"`
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	Duration   string `json:"duration"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

// Format is container-level metadata.
type Format struct {
	Duration   string `json:"duration"`
	FormatName string `json:"format_name"`
}

// Inspect probes path with the ffprobe binary.
func Inspect(ctx context.Context, binary, path string) (Result, error) {
	return InspectWith(ctx, nil, binary, path)
}

// InspectWith is Inspect with an injectable runner. A nil runner executes
// the binary and an empty binary means "ffprobe".
func InspectWith(ctx context.Context, run Runner, binary, path string) (Result, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}
	if binary = strings.TrimSpace(binary); binary == "" {
		binary = "ffprobe"
	}
	if run == nil {
		run = execRunner
	}

	out, err := run(ctx, binary, "-v", "error", "-hide_banner", "-show_entries", showEntries, "-of", "json", "--", path)
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe inspect %s: %w", path, err)
	}
	var result Result
	if err := json.Unmarshal(out, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse %s: %w", path, err)
	}
	return result, nil
}

func execRunner(ctx context.Context, binary string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, binary, args...).Output() //nolint:gosec
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if stderr := strings.TrimSpace(string(exitErr.Stderr)); stderr != "" {
			return nil, fmt.Errorf("%w: %s", err, stderr)
		}
	}
	return out, err
}

// AudioStreams returns the audio streams in container order.
func (r Result) AudioStreams() []Stream {
	var audio []Stream
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "audio") {
			audio = append(audio, stream)
		}
	}
	return audio
}

// AudioStreamCount returns the number of audio streams.
func (r Result) AudioStreamCount() int {
	return len(r.AudioStreams())
}

// DurationSeconds returns the container duration. Missing values yield 0 and
// unparseable ones NaN.
func (r Result) DurationSeconds() float64 {
	return seconds(r.Format.Duration)
}

// Duration returns the container duration rounded to the millisecond. Live
// recordings often lack a container duration, so the longest stream is used
// instead; when nothing is known the result is 0.
func (r Result) Duration() time.Duration {
	best := r.DurationSeconds()
	if !(best > 0) {
		best = 0
		for _, stream := range r.Streams {
			if v := seconds(stream.Duration); v > best {
				best = v
			}
		}
	}
	return time.Duration(math.Round(best*1000)) * time.Millisecond
}

func seconds(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "N/A" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
