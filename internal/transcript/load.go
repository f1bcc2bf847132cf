package transcript

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"highlighter/internal/services"
)

// Load reads a transcript file, choosing the parser by extension (.json for
// WhisperX output, .srt for SubRip).
func Load(path string) (*Store, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "transcript", "open", path, err)
		}
		return nil, fmt.Errorf("open transcript: %w", err)
	}
	defer file.Close()

	var raw []Segment
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		raw, err = ParseWhisperXJSON(file)
	case ".srt":
		raw, err = ParseSRT(file)
	default:
		return nil, services.Wrap(services.ErrValidation, "transcript", "open",
			fmt.Sprintf("unsupported transcript format %q", filepath.Ext(path)), nil)
	}
	if err != nil {
		return nil, err
	}
	return NewStore(raw)
}

type whisperXSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type whisperXPayload struct {
	Segments []whisperXSegment `json:"segments"`
}

// ParseWhisperXJSON decodes the segments array of a WhisperX JSON transcript.
func ParseWhisperXJSON(r io.Reader) ([]Segment, error) {
	var payload whisperXPayload
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return nil, services.Wrap(services.ErrValidation, "transcript", "parse json", "decode whisperx payload", err)
	}
	out := make([]Segment, 0, len(payload.Segments))
	for _, seg := range payload.Segments {
		out = append(out, Segment{
			Start: secondsToDuration(seg.Start),
			End:   secondsToDuration(seg.End),
			Text:  seg.Text,
		})
	}
	return out, nil
}

// ParseSRT decodes SubRip cues. Cue numbers are ignored; multi-line cue text
// is joined with a space.
func ParseSRT(r io.Reader) ([]Segment, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		out     []Segment
		current *Segment
		lines   []string
		lineNo  int
	)
	flush := func() {
		if current != nil {
			current.Text = strings.Join(lines, " ")
			out = append(out, *current)
		}
		current = nil
		lines = lines[:0]
	}

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\ufeff"))
		switch {
		case line == "":
			flush()
		case current == nil && strings.Contains(line, "-->"):
			start, end, err := parseSRTTiming(line)
			if err != nil {
				return nil, services.Wrap(services.ErrValidation, "transcript", "parse srt",
					fmt.Sprintf("line %d", lineNo), err)
			}
			current = &Segment{Start: start, End: end}
		case current == nil:
			// cue number
		default:
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read srt: %w", err)
	}
	flush()
	return out, nil
}

func parseSRTTiming(line string) (time.Duration, time.Duration, error) {
	left, right, ok := strings.Cut(line, "-->")
	if !ok {
		return 0, 0, fmt.Errorf("missing timing arrow in %q", line)
	}
	start, err := parseSRTTimestamp(strings.TrimSpace(left))
	if err != nil {
		return 0, 0, err
	}
	// Positioning hints may follow the end timestamp.
	fields := strings.Fields(right)
	if len(fields) == 0 {
		return 0, 0, fmt.Errorf("missing end timestamp in %q", line)
	}
	end, err := parseSRTTimestamp(fields[0])
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// parseSRTTimestamp parses HH:MM:SS,mmm (a '.' millisecond separator is also accepted).
func parseSRTTimestamp(value string) (time.Duration, error) {
	value = strings.Replace(value, ",", ".", 1)
	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hours in %q: %w", value, err)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minutes in %q: %w", value, err)
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid seconds in %q: %w", value, err)
	}
	total := time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute + secondsToDuration(seconds)
	return total, nil
}

func secondsToDuration(seconds float64) time.Duration {
	if math.IsNaN(seconds) || seconds < 0 {
		return 0
	}
	return time.Duration(math.Round(seconds * 1000)) * time.Millisecond
}

// Seconds converts a duration to fractional seconds rounded to milliseconds.
func Seconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*1000) / 1000
}
