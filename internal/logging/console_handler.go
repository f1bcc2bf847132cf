package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiCyan   = "\x1b[36m"
	ansiGray   = "\x1b[90m"
)

// consoleHandler renders one header line per record followed by indented
// fields. Info and above show a curated subset of fields; debug shows all.
type consoleHandler struct {
	mu        *sync.Mutex
	out       io.Writer
	level     *slog.LevelVar
	preset    []kv
	groups    []string
	addSource bool
	color     bool
}

type kv struct {
	key   string
	value slog.Value
}

func newConsoleHandler(w io.Writer, lvl *slog.LevelVar, addSource, color bool) slog.Handler {
	return &consoleHandler{mu: &sync.Mutex{}, out: w, level: lvl, addSource: addSource, color: color}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	if !h.Enabled(context.Background(), record.Level) {
		return nil
	}

	fields := slices.Clone(h.preset)
	record.Attrs(func(attr slog.Attr) bool {
		fields = appendFlattened(fields, h.groups, attr)
		return true
	})
	fields = lastWins(fields)

	var head header
	fields = slices.DeleteFunc(fields, head.absorb)

	var buf bytes.Buffer
	buf.Grow(256 + 32*len(fields))
	h.writeHeader(&buf, record, head)
	if record.Level < slog.LevelInfo {
		for _, f := range fields {
			fmt.Fprintf(&buf, "    %s: %s\n", f.key, formatValue(f.value))
		}
	} else {
		writeInfoFields(&buf, fields)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write(buf.Bytes())
	return err
}

// header collects the attributes promoted into the first line. absorb
// reports true for the component, which is rendered only in the header.
type header struct {
	component string
	jobID     string
	stage     string
}

func (hd *header) absorb(f kv) bool {
	switch f.key {
	case FieldComponent:
		if hd.component == "" {
			hd.component = attrString(f.value)
		}
		return true
	case FieldJobID:
		hd.jobID = attrString(f.value)
	case FieldStage:
		hd.stage = attrString(f.value)
	}
	return false
}

// subject renders "Job <id> (<stage>)", shortening UUIDs to their first block.
func (hd header) subject() string {
	job := strings.TrimSpace(hd.jobID)
	if short, _, ok := strings.Cut(job, "-"); ok && short != "" {
		job = short
	}
	stage := strings.TrimSpace(hd.stage)
	switch {
	case job == "":
		return stage
	case stage == "":
		return "Job " + job
	default:
		return "Job " + job + " (" + stage + ")"
	}
}

func (h *consoleHandler) writeHeader(buf *bytes.Buffer, record slog.Record, hd header) {
	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	buf.WriteString(formatTimestamp(ts))
	buf.WriteByte(' ')
	buf.WriteString(h.paint(record.Level, levelLabel(record.Level)))
	if hd.component != "" {
		fmt.Fprintf(buf, " [%s]", hd.component)
	}
	if subject := hd.subject(); subject != "" {
		buf.WriteByte(' ')
		buf.WriteString(subject)
	}
	message := strings.TrimSpace(record.Message)
	if message == "" {
		message = "(no message)"
	}
	buf.WriteString(" - ")
	buf.WriteString(message)
	if src := record.Source(); h.addSource && src != nil {
		fmt.Fprintf(buf, " [%s:%d]", filepath.Base(src.File), src.Line)
	}
	buf.WriteByte('\n')
}

func writeInfoFields(buf *bytes.Buffer, fields []kv) {
	shown, hidden := selectInfoFields(fields, infoAttrLimit)
	for _, f := range shown {
		fmt.Fprintf(buf, "    - %s: %s\n", f.label, f.value)
	}
	switch {
	case hidden == 1:
		buf.WriteString("    + 1 more field hidden\n")
	case hidden > 1:
		fmt.Fprintf(buf, "    + %d more fields hidden\n", hidden)
	}
}

func (h *consoleHandler) paint(level slog.Level, label string) string {
	if !h.color {
		return label
	}
	color := ansiGray
	switch {
	case level >= slog.LevelError:
		color = ansiRed
	case level >= slog.LevelWarn:
		color = ansiYellow
	case level >= slog.LevelInfo:
		color = ansiCyan
	}
	return color + label + ansiReset
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := h.derive()
	for _, attr := range attrs {
		next.preset = appendFlattened(next.preset, next.groups, attr)
	}
	return next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := h.derive()
	next.groups = append(next.groups, name)
	return next
}

func (h *consoleHandler) derive() *consoleHandler {
	next := *h
	next.preset = slices.Clone(h.preset)
	next.groups = slices.Clone(h.groups)
	return &next
}

// appendFlattened expands group attributes into dotted keys.
func appendFlattened(dst []kv, prefix []string, attr slog.Attr) []kv {
	if attr.Equal(slog.Attr{}) {
		return dst
	}
	value := attr.Value.Resolve()
	if value.Kind() != slog.KindGroup {
		key := attr.Key
		if len(prefix) > 0 {
			key = strings.Join(prefix, ".") + "." + attr.Key
		}
		return append(dst, kv{key: key, value: value})
	}
	nested := prefix
	if attr.Key != "" {
		nested = append(slices.Clone(prefix), attr.Key)
	}
	for _, member := range value.Group() {
		dst = appendFlattened(dst, nested, member)
	}
	return dst
}

// lastWins drops empty keys and keeps the final value for repeated keys at
// the position of their first occurrence.
func lastWins(fields []kv) []kv {
	seen := make(map[string]int, len(fields))
	out := fields[:0:0]
	for _, f := range fields {
		if f.key == "" {
			continue
		}
		if i, ok := seen[f.key]; ok {
			out[i].value = f.value
			continue
		}
		seen[f.key] = len(out)
		out = append(out, f)
	}
	return out
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
