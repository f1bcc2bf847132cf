package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"highlighter/internal/logging"
	"highlighter/internal/services"
)

var (
	// ErrAlreadyRunning reports a submission for a key that owns a job.
	ErrAlreadyRunning = errors.New("task already running")
	// ErrQueueFull reports that the job queue has no free slot.
	ErrQueueFull = errors.New("job queue full")
	// ErrClosed reports a submission after Stop.
	ErrClosed = errors.New("gateway closed")
)

// Job is one accepted processing request.
type Job struct {
	ID           string
	Key          string
	RelativePath string
	Room         string
	Streamer     string
	Title        string
	RequestID    string
	AcceptedAt   time.Time
}

// Outcome summarises a finished job.
type Outcome struct {
	BestScore      float64
	HighlightCount int
	ScoresPath     string
}

// Processor runs the pipeline for a job.
type Processor interface {
	Process(ctx context.Context, job Job) (Outcome, error)
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, job Job) (Outcome, error)

// Process implements Processor.
func (f ProcessorFunc) Process(ctx context.Context, job Job) (Outcome, error) {
	return f(ctx, job)
}

// Tracker observes job lifecycle transitions. Implementations must be safe
// for concurrent use; errors are logged and never fail the job.
type Tracker interface {
	Queued(ctx context.Context, job Job) error
	Running(ctx context.Context, job Job) error
	Finished(ctx context.Context, job Job, outcome Outcome, jobErr error) error
}

// Options configures a Gateway.
type Options struct {
	Workers    int
	QueueDepth int
	Tracker    Tracker
	Logger     *slog.Logger
}

// Gateway is the single-flight dispatcher.
type Gateway struct {
	processor Processor
	tracker   Tracker
	logger    *slog.Logger
	workers   int
	active    *ActiveSet

	mu      sync.Mutex
	jobs    chan Job
	started bool
	closed  bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New constructs a gateway. Workers and QueueDepth default to 1 and 64.
func New(processor Processor, opts Options) *Gateway {
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	depth := opts.QueueDepth
	if depth <= 0 {
		depth = 64
	}
	return &Gateway{
		processor: processor,
		tracker:   opts.Tracker,
		logger:    logging.NewComponentLogger(opts.Logger, "gateway"),
		workers:   workers,
		active:    NewActiveSet(),
		jobs:      make(chan Job, depth),
	}
}

// Start launches the worker pool. Jobs submitted before Start wait in the queue.
func (g *Gateway) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return ErrClosed
	}
	if g.started {
		return errors.New("gateway already started")
	}
	runCtx, cancel := context.WithCancel(ctx)
	g.cancel = cancel
	g.started = true
	g.wg.Add(g.workers)
	for i := 0; i < g.workers; i++ {
		go g.worker(runCtx, i)
	}
	g.logger.Info("gateway started",
		logging.Int("workers", g.workers),
		logging.Int("queue_depth", cap(g.jobs)),
	)
	return nil
}

// Stop closes intake, cancels in-flight and queued jobs, and waits for the
// workers to drain.
func (g *Gateway) Stop() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	close(g.jobs)
	cancel := g.cancel
	started := g.started
	g.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if !started {
		for job := range g.jobs {
			g.track(context.Background(), job, "finished", func(ctx context.Context, t Tracker) error {
				return t.Finished(ctx, job, Outcome{}, ErrClosed)
			})
			g.active.Release(job.Key)
		}
	}
	g.wg.Wait()
	g.logger.Info("gateway stopped")
}

// Submit acquires job.Key and enqueues the job. It returns the job with its
// ID and acceptance time filled in.
func (g *Gateway) Submit(ctx context.Context, job Job) (Job, error) {
	job.Key = strings.TrimSpace(job.Key)
	if job.Key == "" {
		return job, services.Wrap(services.ErrValidation, "gateway", "submit", "job key is required", nil)
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.AcceptedAt.IsZero() {
		job.AcceptedAt = time.Now().UTC()
	}

	if !g.active.TryAcquire(job.Key) {
		return job, ErrAlreadyRunning
	}

	// The history row must exist before a worker can see the job, otherwise
	// Running and Finished race the insert.
	g.track(ctx, job, "queued", func(ctx context.Context, t Tracker) error { return t.Queued(ctx, job) })

	if err := g.enqueue(job); err != nil {
		g.track(ctx, job, "finished", func(ctx context.Context, t Tracker) error {
			return t.Finished(ctx, job, Outcome{}, err)
		})
		g.active.Release(job.Key)
		return job, err
	}

	g.logger.Info("job accepted",
		logging.String(logging.FieldJobID, job.ID),
		logging.String(logging.FieldFile, job.Key),
		logging.String(logging.FieldEventType, "job_accepted"),
	)
	return job, nil
}

func (g *Gateway) enqueue(job Job) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return ErrClosed
	}
	select {
	case g.jobs <- job:
		return nil
	default:
		return fmt.Errorf("%w: %d jobs waiting", ErrQueueFull, cap(g.jobs))
	}
}

// Active returns the keys that currently own a job.
func (g *Gateway) Active() []string {
	return g.active.Keys()
}

// IsActive reports whether key owns a job.
func (g *Gateway) IsActive(key string) bool {
	return g.active.Contains(key)
}

// QueueDepth returns the number of jobs waiting for a worker.
func (g *Gateway) QueueDepth() int {
	return len(g.jobs)
}

// Workers returns the worker pool size.
func (g *Gateway) Workers() int {
	return g.workers
}

func (g *Gateway) worker(ctx context.Context, id int) {
	defer g.wg.Done()
	for job := range g.jobs {
		g.run(ctx, id, job)
	}
}

func (g *Gateway) run(ctx context.Context, workerID int, job Job) {
	defer g.active.Release(job.Key)

	jobCtx := services.WithJobID(ctx, job.ID)
	jobCtx = services.WithFile(jobCtx, job.Key)
	jobCtx = services.WithRequestID(jobCtx, job.RequestID)
	logger := g.logger.With(
		logging.String(logging.FieldJobID, job.ID),
		logging.String(logging.FieldFile, job.Key),
		logging.Int("worker", workerID),
	)

	if err := jobCtx.Err(); err != nil {
		logger.Warn("job cancelled before start",
			logging.Error(err),
			logging.String(logging.FieldEventType, "job_cancelled"),
		)
		g.track(jobCtx, job, "finished", func(ctx context.Context, t Tracker) error { return t.Finished(ctx, job, Outcome{}, err) })
		return
	}

	g.track(jobCtx, job, "running", func(ctx context.Context, t Tracker) error { return t.Running(ctx, job) })
	started := time.Now()
	outcome, err := g.process(jobCtx, job)
	elapsed := time.Since(started)
	g.track(jobCtx, job, "finished", func(ctx context.Context, t Tracker) error { return t.Finished(ctx, job, outcome, err) })

	if err != nil {
		logger.Error("job failed",
			logging.Error(err),
			logging.Duration("elapsed", elapsed),
			logging.String("failure_kind", services.FailureKind(err)),
			logging.String(logging.FieldEventType, "job_failed"),
		)
		return
	}
	logger.Info("job completed",
		logging.Duration("elapsed", elapsed),
		logging.Float64("best_score", outcome.BestScore),
		logging.Int("highlights", outcome.HighlightCount),
		logging.String(logging.FieldEventType, "job_completed"),
	)
}

func (g *Gateway) process(ctx context.Context, job Job) (outcome Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("job panicked",
				logging.String(logging.FieldJobID, job.ID),
				logging.Any("panic", r),
				logging.String("stack", string(debug.Stack())),
				logging.String(logging.FieldEventType, "job_panic"),
			)
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	if g.processor == nil {
		return Outcome{}, services.Wrap(services.ErrConfiguration, "gateway", "process", "no processor configured", nil)
	}
	return g.processor.Process(ctx, job)
}

// track records a transition. History writes outlive job cancellation so a
// cancelled job is still marked failed.
func (g *Gateway) track(ctx context.Context, job Job, transition string, fn func(context.Context, Tracker) error) {
	if g.tracker == nil {
		return
	}
	if err := fn(context.WithoutCancel(ctx), g.tracker); err != nil {
		g.logger.WarnContext(ctx, "job history update failed",
			logging.String(logging.FieldJobID, job.ID),
			logging.String("transition", transition),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check state_dir permissions and disk space"),
		)
	}
}
