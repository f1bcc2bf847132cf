package api

import (
	"context"

	"highlighter/internal/queue"
)

// JobReader abstracts the job history reads needed for API queries.
type JobReader interface {
	List(ctx context.Context, limit int, statuses ...queue.Status) ([]queue.JobRecord, error)
	Stats(ctx context.Context) (map[queue.Status]int, error)
	Get(ctx context.Context, id string) (*queue.JobRecord, error)
}

// JobService exposes read-only job history operations returning API DTOs.
type JobService struct {
	store JobReader
}

// NewJobService constructs a JobService around the provided reader.
func NewJobService(store JobReader) *JobService {
	if store == nil {
		return nil
	}
	return &JobService{store: store}
}

// List returns recent jobs filtered by status.
func (s *JobService) List(ctx context.Context, limit int, statuses ...queue.Status) ([]Job, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	records, err := s.store.List(ctx, limit, statuses...)
	if err != nil {
		return nil, err
	}
	return FromJobRecords(records), nil
}

// Stats returns job counts keyed by status string.
func (s *JobService) Stats(ctx context.Context) (map[string]int, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return MergeJobStats(stats), nil
}

// Describe fetches a single job, returning nil when it does not exist.
func (s *JobService) Describe(ctx context.Context, id string) (*Job, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	rec, err := s.store.Get(ctx, id)
	if err != nil || rec == nil {
		return nil, err
	}
	dto := FromJobRecord(*rec)
	return &dto, nil
}
