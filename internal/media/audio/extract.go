package audio

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"highlighter/internal/services"
)

// CommandRunner executes an external command.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Extractor wraps ffmpeg audio conversion.
type Extractor struct {
	binary     string
	sampleRate int
	channels   int
	run        CommandRunner
}

// NewExtractor builds an extractor. Zero sample rate or channel values fall
// back to 16 kHz mono.
func NewExtractor(binary string, sampleRate, channels int) *Extractor {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	if channels <= 0 {
		channels = 1
	}
	return &Extractor{binary: binary, sampleRate: sampleRate, channels: channels, run: runCommand}
}

// WithCommandRunner sets a custom command runner (for testing).
func (e *Extractor) WithCommandRunner(runner CommandRunner) {
	if runner != nil {
		e.run = runner
	}
}

// Convert writes the whole audio stream of source to dest as PCM WAV.
func (e *Extractor) Convert(ctx context.Context, source, dest string) error {
	if strings.TrimSpace(source) == "" || strings.TrimSpace(dest) == "" {
		return services.Wrap(services.ErrValidation, "audio", "convert", "source and destination are required", nil)
	}
	args := e.baseArgs()
	args = append(args, "-i", source)
	args = append(args, e.outputArgs(dest)...)
	if err := e.run(ctx, e.binary, args...); err != nil {
		return services.Wrap(services.ErrExternalTool, "audio", "convert", "ffmpeg conversion failed", err)
	}
	return nil
}

// Slice writes the [start, end) range of source to dest as PCM WAV.
func (e *Extractor) Slice(ctx context.Context, source string, start, end time.Duration, dest string) error {
	if end <= start {
		return services.Wrap(services.ErrValidation, "audio", "slice", fmt.Sprintf("invalid range %s-%s", start, end), nil)
	}
	args := e.baseArgs()
	args = append(args,
		"-ss", FormatSeconds(start),
		"-to", FormatSeconds(end),
		"-i", source,
	)
	args = append(args, e.outputArgs(dest)...)
	if err := e.run(ctx, e.binary, args...); err != nil {
		return services.Wrap(services.ErrExternalTool, "audio", "slice", "ffmpeg slice failed", err)
	}
	return nil
}

func (e *Extractor) baseArgs() []string {
	return []string{"-y", "-hide_banner", "-loglevel", "error"}
}

func (e *Extractor) outputArgs(dest string) []string {
	return []string{
		"-vn",
		"-sn",
		"-dn",
		"-ac", strconv.Itoa(e.channels),
		"-ar", strconv.Itoa(e.sampleRate),
		"-c:a", "pcm_s16le",
		dest,
	}
}

// FormatSeconds renders a duration as ffmpeg seconds with millisecond precision.
func FormatSeconds(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return strconv.FormatFloat(float64(d.Milliseconds())/1000, 'f', 3, 64)
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
