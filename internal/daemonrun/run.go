package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"highlighter/internal/config"
	"highlighter/internal/daemon"
	"highlighter/internal/deps"
	"highlighter/internal/logging"
	"highlighter/internal/pipeline"
	"highlighter/internal/preflight"
	"highlighter/internal/queue"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the highlighter daemon and blocks until a signal arrives or a
// supervised service fails.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("highlighterd-%s.log", runID))
	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", logPath},
		Development: opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update highlighterd.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "highlighterd-*.log", Exclude: []string{logPath}},
		logging.RetentionTarget{Dir: filepath.Join(cfg.Paths.LogDir, pipeline.JobLogDir), Pattern: "*.log"},
	)
	logDependencySnapshot(signalCtx, logger, cfg)

	pidPath := cfg.PIDPath()
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open job store", logging.Error(err))
		return err
	}
	pruneHistory(signalCtx, logger, store, cfg.Logging.RetentionDays)

	runner := pipeline.New(cfg, logger)
	d, err := daemon.New(cfg, store, logger, runner)
	if err != nil {
		store.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.String(logging.FieldErrorHint, "check api_bind, the lock file and job store access"),
			logging.Error(err),
		)
		return err
	}

	waitErr := make(chan error, 1)
	go func() { waitErr <- d.Wait() }()

	select {
	case <-signalCtx.Done():
		logger.Info("highlighter daemon shutting down")
	case err := <-waitErr:
		if err != nil {
			logging.ErrorWithContext(logger, "supervised service failed", "daemon_service_failed", logging.Error(err))
			return err
		}
	}
	return nil
}

func pruneHistory(ctx context.Context, logger *slog.Logger, store *queue.Store, retentionDays int) {
	if retentionDays <= 0 {
		return
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	removed, err := store.Prune(ctx, cutoff)
	if err != nil {
		logger.Warn("job history prune failed", logging.Error(err))
		return
	}
	if removed > 0 {
		logger.Info("pruned job history",
			logging.Int64("removed", removed),
			logging.Int("retention_days", retentionDays),
		)
	}
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "highlighterd.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	statuses := preflight.CheckSystemDeps(cfg)
	attrs := []logging.Attr{logging.String(logging.FieldEventType, "dependency_snapshot")}
	for _, s := range statuses {
		attrs = append(attrs, logging.Bool(s.Name+"_available", s.Available))
	}
	attrs = append(attrs,
		logging.Bool("llm_titles", cfg.GetLLM().Enabled()),
		logging.Bool("clips_enabled", cfg.Clips.Enabled),
		logging.Bool("watch_enabled", cfg.Watch.Enabled),
		logging.Bool("whisperx_cuda", cfg.Transcription.CUDAEnabled),
	)
	logger.Info("dependency snapshot", logging.Args(attrs...)...)

	for _, missing := range deps.Missing(statuses) {
		logging.WarnWithContext(logger, "required binary missing", "dependency_missing",
			logging.String("dependency", missing.Name),
			logging.String(logging.FieldErrorHint, missing.Detail),
			logging.String(logging.FieldImpact, missing.Description+" will fail"),
		)
	}
	for _, check := range preflight.Failed(preflight.RunAll(ctx, cfg)) {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", check.Name),
			logging.String(logging.FieldErrorHint, check.Detail),
		)
	}
}
