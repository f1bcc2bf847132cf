package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"highlighter/internal/gateway"
	"highlighter/internal/logging"
	"highlighter/internal/services"
	"highlighter/internal/textutil"
)

// JobLogDir is the log_dir subdirectory holding per-job logs.
const JobLogDir = "jobs"

// Outcome summarises the run for the job history.
func (r Result) Outcome() gateway.Outcome {
	return gateway.Outcome{
		BestScore:      r.BestScore(),
		HighlightCount: len(r.Highlights),
		ScoresPath:     r.ScoresPath,
	}
}

// Process implements gateway.Processor. Each job's logs are also written to
// a dedicated file under log_dir/jobs.
func (r *Runner) Process(ctx context.Context, job gateway.Job) (gateway.Outcome, error) {
	ctx = services.WithJobID(ctx, job.ID)
	if job.RequestID != "" {
		ctx = services.WithRequestID(ctx, job.RequestID)
	}

	runner := r
	if path := r.JobLogPath(job); path != "" {
		handler, closer, err := logging.NewFileHandler(path, r.cfg.Logging.Level)
		if err != nil {
			r.logger.Warn("job log unavailable", logging.String(logging.FieldJobID, job.ID), logging.Error(err))
		} else {
			defer closer.Close()
			handler = handler.WithAttrs([]slog.Attr{logging.String(logging.FieldComponent, "pipeline")})
			tee := *r
			tee.logger = logging.TeeLogger(r.logger, handler)
			runner = &tee
		}
	}

	result, err := runner.Run(ctx, Request{
		Source:   job.Key,
		Room:     job.Room,
		Streamer: job.Streamer,
		Title:    job.Title,
	})
	return result.Outcome(), err
}

// JobLogPath returns the per-job log file for job, or "" when no log
// directory is configured.
func (r *Runner) JobLogPath(job gateway.Job) string {
	dir := strings.TrimSpace(r.cfg.Paths.LogDir)
	if dir == "" {
		return ""
	}
	stamp := job.AcceptedAt.UTC().Format("20060102T150405")
	id := job.ID
	if len(id) > 8 {
		id = id[:8]
	}
	base := strings.TrimSuffix(filepath.Base(job.Key), filepath.Ext(job.Key))
	name := fmt.Sprintf("%s-%s-%s.log", stamp, id, textutil.TruncateRunes(textutil.SanitizeToken(base), 48))
	return filepath.Join(dir, JobLogDir, name)
}
