package queue

import (
	"context"

	"highlighter/internal/gateway"
	"highlighter/internal/services"
)

// Tracker records gateway lifecycle transitions in the store.
type Tracker struct {
	store *Store
}

// NewTracker adapts store to gateway.Tracker.
func NewTracker(store *Store) *Tracker {
	return &Tracker{store: store}
}

// Queued implements gateway.Tracker.
func (t *Tracker) Queued(ctx context.Context, job gateway.Job) error {
	return t.store.Insert(ctx, JobRecord{
		ID:           job.ID,
		Key:          job.Key,
		RelativePath: job.RelativePath,
		Room:         job.Room,
		Streamer:     job.Streamer,
		Title:        job.Title,
		Status:       StatusQueued,
		CreatedAt:    job.AcceptedAt,
	})
}

// Running implements gateway.Tracker.
func (t *Tracker) Running(ctx context.Context, job gateway.Job) error {
	return t.store.MarkRunning(ctx, job.ID)
}

// Finished implements gateway.Tracker.
func (t *Tracker) Finished(ctx context.Context, job gateway.Job, outcome gateway.Outcome, jobErr error) error {
	c := Completion{
		BestScore:      outcome.BestScore,
		HighlightCount: outcome.HighlightCount,
		ScoresPath:     outcome.ScoresPath,
		Err:            jobErr,
	}
	if jobErr != nil {
		c.FailureKind = services.FailureKind(jobErr)
	}
	return t.store.MarkFinished(ctx, job.ID, c)
}

var _ gateway.Tracker = (*Tracker)(nil)
