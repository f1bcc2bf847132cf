package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"highlighter/internal/api"
	"highlighter/internal/config"
	"highlighter/internal/gateway"
	"highlighter/internal/logging"
	"highlighter/internal/notifications"
	"highlighter/internal/preflight"
	"highlighter/internal/queue"
	"highlighter/internal/watch"
)

// interruptedReason is recorded on jobs left running by a previous process.
const interruptedReason = "interrupted by daemon restart"

// Daemon coordinates the background processing services and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *queue.Store
	gateway  *gateway.Gateway
	watcher  *watch.Watcher
	api      *apiServer
	notifier notifications.Service

	lockPath string
	lock     *flock.Flock

	// mu serializes Start and Stop. Status reads only the atomics so it
	// never waits on a Stop that is draining workers.
	mu        sync.Mutex
	running   atomic.Bool
	startedAt atomic.Pointer[time.Time]
	cancel    context.CancelFunc
	group     *errgroup.Group
}

// Option customizes a Daemon.
type Option func(*Daemon)

// WithNotifier overrides the notifier used by TestNotification.
func WithNotifier(n notifications.Service) Option { return func(d *Daemon) { d.notifier = n } }

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger, processor gateway.Processor, opts ...Option) (*Daemon, error) {
	if cfg == nil || store == nil || processor == nil {
		return nil, errors.New("daemon requires config, store, and processor")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.notifier == nil {
		d.notifier = notifications.NewService(cfg)
	}

	d.gateway = gateway.New(processor, gateway.Options{
		Workers:    cfg.Gateway.Workers,
		QueueDepth: cfg.Gateway.QueueDepth,
		Tracker:    queue.NewTracker(store),
		Logger:     logger,
	})
	if cfg.Watch.Enabled {
		d.watcher = watch.New(watch.Options{
			Root:       cfg.Paths.LiveRootDir,
			Extensions: cfg.Watch.Extensions,
			Settle:     time.Duration(cfg.Watch.SettleSeconds) * time.Second,
			Submitter:  d.gateway,
			Logger:     logger,
		})
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock, fails jobs orphaned by a previous run and
// launches the worker pool, HTTP server and watcher.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another highlighter daemon instance is already running")
	}

	if n, err := d.store.FailInterrupted(ctx, interruptedReason); err != nil {
		d.logger.Warn("failed to reconcile interrupted jobs", logging.Error(err))
	} else if n > 0 {
		logging.WarnWithContext(d.logger, "marked interrupted jobs failed", "jobs_interrupted",
			logging.Int64("count", n),
			logging.String(logging.FieldImpact, "these recordings need a new webhook to be scored"),
		)
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.gateway.Start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start gateway: %w", err)
	}
	if err := d.api.listen(); err != nil {
		cancel()
		d.gateway.Stop()
		_ = d.lock.Unlock()
		return err
	}

	group, groupCtx := errgroup.WithContext(runCtx)
	group.Go(func() error { return d.api.serve(groupCtx) })
	if d.watcher != nil {
		group.Go(func() error { return d.watcher.Run(groupCtx) })
	}

	d.cancel = cancel
	d.group = group
	startedAt := time.Now().UTC()
	d.startedAt.Store(&startedAt)
	d.running.Store(true)
	d.logger.Info("highlighter daemon started",
		logging.String(logging.FieldEventType, "daemon_start"),
		logging.String("lock", d.lockPath),
		logging.String("api", d.api.Addr()),
		logging.String("webhook_route", d.cfg.Webhook.Route),
		logging.Bool("watching", d.watcher != nil),
		logging.Int("workers", d.gateway.Workers()),
	)
	return nil
}

// Wait blocks until a supervised service fails or the daemon stops.
func (d *Daemon) Wait() error {
	d.mu.Lock()
	group := d.group
	d.mu.Unlock()
	if group == nil {
		return nil
	}
	return group.Wait()
}

// Stop stops background processing and releases the daemon lock. Queued
// jobs are cancelled and recorded as failed.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.group != nil {
		if err := d.group.Wait(); err != nil {
			d.logger.Warn("supervised service exited with error", logging.Error(err))
		}
		d.group = nil
	}
	d.gateway.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("highlighter daemon stopped", logging.String(logging.FieldEventType, "daemon_stop"))
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Gateway exposes the worker pool for submissions.
func (d *Daemon) Gateway() *gateway.Gateway {
	return d.gateway
}

// Addr returns the bound API address, or "" before Start.
func (d *Daemon) Addr() string {
	return d.api.Addr()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) api.DaemonStatus {
	stats, err := api.NewJobService(d.store).Stats(ctx)
	if err != nil {
		d.logger.Warn("job stats unavailable", logging.Error(err))
	}
	active := d.gateway.Active()
	if active == nil {
		active = []string{}
	}
	status := api.DaemonStatus{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		StorePath:    d.store.Path(),
		LockFilePath: d.lockPath,
		WebhookRoute: d.cfg.Webhook.Route,
		Watching:     d.watcher != nil,
		Gateway: api.GatewayStatus{
			Workers:    d.gateway.Workers(),
			QueueDepth: d.gateway.QueueDepth(),
			Active:     active,
		},
		JobStats:     stats,
		Dependencies: api.FromDependencies(preflight.CheckSystemDeps(d.cfg)),
	}
	if startedAt := d.startedAt.Load(); startedAt != nil {
		status.StartedAt = startedAt.Format("2006-01-02T15:04:05.000Z07:00")
	}
	return status
}

// TestNotification sends a sample alert through the configured targets.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if !d.notifier.Enabled() {
		return false, "no notification target configured", nil
	}
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}
