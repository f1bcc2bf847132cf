package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"highlighter/internal/gateway"
	"highlighter/internal/logging"
)

const minPollInterval = 250 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	Root       string
	Extensions []string
	// Settle is how long a file must go without events and size changes
	// before it is submitted.
	Settle    time.Duration
	Submitter gateway.Submitter
	Logger    *slog.Logger
}

type pending struct {
	lastEvent time.Time
	size      int64
}

// Watcher turns settled files under Root into gateway jobs.
type Watcher struct {
	root      string
	exts      []string
	settle    time.Duration
	submitter gateway.Submitter
	logger    *slog.Logger
	now       func() time.Time

	mu      sync.Mutex
	pending map[string]pending
}

// New builds a watcher. Extensions are matched case-insensitively.
func New(opts Options) *Watcher {
	exts := make([]string, 0, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	settle := opts.Settle
	if settle < 0 {
		settle = 0
	}
	return &Watcher{
		root:      filepath.Clean(opts.Root),
		exts:      exts,
		settle:    settle,
		submitter: opts.Submitter,
		logger:    logging.NewComponentLogger(opts.Logger, "watch"),
		now:       time.Now,
		pending:   make(map[string]pending),
	}
}

// Run watches until ctx is cancelled. Subdirectories created after startup
// are added as they appear.
func (w *Watcher) Run(ctx context.Context) error {
	if w.submitter == nil {
		return errors.New("watch: submitter required")
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := w.addTree(fw, w.root); err != nil {
		return err
	}
	w.logger.Info("watching live root",
		logging.String(logging.FieldEventType, "watch_start"),
		logging.String("root", w.root),
		logging.Any("extensions", w.exts),
		logging.Duration("settle", w.settle),
	)

	interval := w.settle / 2
	if interval < minPollInterval {
		interval = minPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handle(fw, evt)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", logging.Error(err))
		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

func (w *Watcher) addTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("watch %s: %w", root, err)
			}
			w.logger.Debug("skipping unreadable path", logging.String(logging.FieldFile, path), logging.Error(err))
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) handle(fw *fsnotify.Watcher, evt fsnotify.Event) {
	switch {
	case evt.Has(fsnotify.Remove), evt.Has(fsnotify.Rename):
		w.forget(evt.Name)
	case evt.Has(fsnotify.Create), evt.Has(fsnotify.Write):
		if info, err := os.Stat(evt.Name); err == nil && info.IsDir() {
			if err := w.addTree(fw, evt.Name); err != nil {
				w.logger.Warn("failed to watch new directory", logging.String(logging.FieldFile, evt.Name), logging.Error(err))
			}
			return
		}
		w.observe(evt.Name)
	}
}

// Matches reports whether path has a watched extension.
func (w *Watcher) Matches(path string) bool {
	return slices.Contains(w.exts, strings.ToLower(filepath.Ext(path)))
}

func (w *Watcher) observe(path string) {
	if !w.Matches(path) {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	entry := w.pending[path]
	entry.lastEvent = w.now()
	if _, tracked := w.pending[path]; !tracked {
		entry.size = -1
	}
	w.pending[path] = entry
}

func (w *Watcher) forget(path string) {
	w.mu.Lock()
	delete(w.pending, path)
	w.mu.Unlock()
}

// flush submits files that have been quiet for the settle period and whose
// size did not change since the previous check.
func (w *Watcher) flush(ctx context.Context) {
	now := w.now()
	var ready []string

	w.mu.Lock()
	for path, entry := range w.pending {
		if now.Sub(entry.lastEvent) < w.settle {
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			delete(w.pending, path)
			continue
		}
		if info.Size() != entry.size {
			entry.size = info.Size()
			w.pending[path] = entry
			if w.settle > 0 {
				continue
			}
		}
		delete(w.pending, path)
		ready = append(ready, path)
	}
	w.mu.Unlock()

	slices.Sort(ready)
	for _, path := range ready {
		w.submit(ctx, path)
	}
}

func (w *Watcher) submit(ctx context.Context, path string) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	job, err := w.submitter.Submit(ctx, gateway.Job{
		Key:          path,
		RelativePath: filepath.ToSlash(rel),
	})
	switch {
	case errors.Is(err, gateway.ErrAlreadyRunning):
		w.logger.Info("settled file already running",
			logging.String(logging.FieldDecisionType, "single_flight"),
			logging.String(logging.FieldDecisionResult, "rejected"),
			logging.String(logging.FieldFile, path),
		)
	case err != nil:
		logging.WarnWithContext(w.logger, "watch submit failed", "watch_submit_failed",
			logging.String(logging.FieldFile, path),
			logging.String(logging.FieldImpact, "recording not scored; post a webhook to retry"),
			logging.Error(err),
		)
	default:
		w.logger.Info("settled file submitted",
			logging.String(logging.FieldEventType, "watch_submit"),
			logging.String(logging.FieldJobID, job.ID),
			logging.String(logging.FieldFile, path),
		)
	}
}

// Pending returns the files waiting to settle.
func (w *Watcher) Pending() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	keys := make([]string, 0, len(w.pending))
	for k := range w.pending {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
