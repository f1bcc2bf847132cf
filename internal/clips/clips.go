package clips

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"highlighter/internal/media/audio"
	"highlighter/internal/services"
	"highlighter/internal/textutil"
)

// CommandRunner executes an external command.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Cutter wraps ffmpeg clip extraction.
type Cutter struct {
	binary string
	run    CommandRunner
}

// NewCutter builds a cutter using the given ffmpeg binary.
func NewCutter(binary string) *Cutter {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	return &Cutter{binary: binary, run: runCommand}
}

// WithCommandRunner sets a custom command runner (for testing).
func (c *Cutter) WithCommandRunner(runner CommandRunner) {
	if runner != nil {
		c.run = runner
	}
}

// Cut copies the [start, end) range of source into dest without re-encoding.
func (c *Cutter) Cut(ctx context.Context, source string, start, end time.Duration, dest string) error {
	if end <= start {
		return services.Wrap(services.ErrValidation, "clips", "cut", fmt.Sprintf("invalid range %s-%s", start, end), nil)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("clips: ensure output dir: %w", err)
	}
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-ss", audio.FormatSeconds(start),
		"-to", audio.FormatSeconds(end),
		"-i", source,
		"-map", "0",
		"-c", "copy",
		"-avoid_negative_ts", "make_zero",
		dest,
	}
	if err := c.run(ctx, c.binary, args...); err != nil {
		return services.Wrap(services.ErrExternalTool, "clips", "cut", "ffmpeg stream copy failed", err)
	}
	return nil
}

// Bounds pads [start, end] by padding on both sides and clamps the result to
// [0, duration]. A non-positive duration disables the upper clamp.
func Bounds(start, end, padding, duration time.Duration) (time.Duration, time.Duration) {
	if padding < 0 {
		padding = 0
	}
	from := start - padding
	to := end + padding
	if from < 0 {
		from = 0
	}
	if duration > 0 {
		if to > duration {
			to = duration
		}
		if from > duration {
			from = duration
		}
	}
	return from, to
}

// FileName returns the clip name for a ranked highlight of source. The source
// extension is kept so stream copy stays in the original container.
func FileName(source string, rank int, start time.Duration) string {
	ext := filepath.Ext(source)
	base := textutil.SanitizeFileName(strings.TrimSuffix(filepath.Base(source), ext))
	if base == "" {
		base = "clip"
	}
	if ext == "" {
		ext = ".mp4"
	}
	return fmt.Sprintf("%s_rank%d_%ds%s", base, rank, int64(start/time.Second), ext)
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
