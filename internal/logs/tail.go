package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// TailOptions controls a Tail call. A negative Offset reads the last Limit
// lines; otherwise reading starts at Offset.
type TailOptions struct {
	Offset int64
	Limit  int
	Follow bool
	Wait   time.Duration
}

// TailResult holds the lines read and the offset to resume from.
type TailResult struct {
	Lines  []string
	Offset int64
}

// pollInterval re-reads the file when fsnotify misses a write, as happens on
// some network filesystems.
const pollInterval = time.Second

// Tail reads complete lines from path. A trailing line without a newline is
// left for the next call so a half-written record is never split. In follow
// mode with a positive Wait it blocks until new lines arrive, Wait elapses,
// or ctx is done. A missing file yields no lines and offset zero.
func Tail(ctx context.Context, path string, opts TailOptions) (TailResult, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return TailResult{}, nil
	case err != nil:
		return TailResult{Offset: opts.Offset}, fmt.Errorf("stat log file: %w", err)
	case info.IsDir():
		return TailResult{Offset: opts.Offset}, fmt.Errorf("log path %q is a directory", path)
	}

	start, keep := opts.Offset, -1
	if start < 0 {
		start, keep = 0, max(opts.Limit, 0)
	}
	start = min(start, info.Size())

	result, err := readLines(path, start, keep)
	if err != nil {
		return result, err
	}
	if opts.Follow && opts.Wait > 0 && len(result.Lines) == 0 {
		return follow(ctx, path, result.Offset, opts.Wait)
	}
	return result, nil
}

// readLines scans complete lines starting at byte start. keep < 0 retains
// every line; otherwise only the final keep lines are returned.
func readLines(path string, start int64, keep int) (TailResult, error) {
	result := TailResult{Offset: start}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return TailResult{}, nil
		}
		return result, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()
	if _, err := file.Seek(start, io.SeekStart); err != nil {
		return result, fmt.Errorf("seek log file: %w", err)
	}

	reader := bufio.NewReaderSize(file, 64*1024)
	var window lastLines
	window.limit = keep
	for {
		line, err := reader.ReadString('\n')
		if err == io.EOF {
			return TailResult{Lines: window.slice(), Offset: result.Offset}, nil
		}
		if err != nil {
			return result, fmt.Errorf("read log file: %w", err)
		}
		result.Offset += int64(len(line))
		window.push(strings.TrimRight(line, "\r\n"))
	}
}

// lastLines is a ring buffer bounded by limit; a negative limit is unbounded.
type lastLines struct {
	limit int
	lines []string
	next  int
}

func (w *lastLines) push(line string) {
	switch {
	case w.limit == 0:
	case w.limit < 0 || len(w.lines) < w.limit:
		w.lines = append(w.lines, line)
	default:
		w.lines[w.next] = line
		w.next = (w.next + 1) % w.limit
	}
}

func (w *lastLines) slice() []string {
	if w.next == 0 {
		return w.lines
	}
	return append(append([]string(nil), w.lines[w.next:]...), w.lines[:w.next]...)
}

func follow(ctx context.Context, path string, offset int64, wait time.Duration) (TailResult, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return TailResult{Offset: offset}, fmt.Errorf("watch log file: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(path); err != nil {
		return TailResult{Offset: offset}, fmt.Errorf("watch log file: %w", err)
	}

	deadline := time.NewTimer(wait)
	defer deadline.Stop()
	poll := time.NewTicker(pollInterval)
	defer poll.Stop()

	for {
		result, err := readLines(path, offset, -1)
		if err != nil || len(result.Lines) > 0 {
			return result, err
		}
		select {
		case <-ctx.Done():
			return TailResult{Offset: offset}, ctx.Err()
		case <-deadline.C:
			return TailResult{Offset: offset}, nil
		case err, ok := <-watcher.Errors:
			if ok && err != nil {
				return TailResult{Offset: offset}, fmt.Errorf("watch log file: %w", err)
			}
		case <-watcher.Events:
		case <-poll.C:
		}
	}
}
