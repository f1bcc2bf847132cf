package queueaccess

import (
	"context"
	"strings"

	"highlighter/internal/api"
	"highlighter/internal/queue"
)

// Access provides job history reads regardless of API or direct store backing.
type Access interface {
	Stats(ctx context.Context) (map[string]int, error)
	List(ctx context.Context, limit int, statuses []string) ([]api.Job, error)
	Describe(ctx context.Context, id string) (*api.Job, error)
	// Live reports whether the data came from a running daemon.
	Live() bool
}

// NewAPIAccess returns an Access backed by the daemon HTTP API.
func NewAPIAccess(client *api.Client) Access {
	return &apiAccess{client: client}
}

// NewStoreAccess returns an Access backed by direct DB access.
func NewStoreAccess(store *queue.Store) Access {
	return &storeAccess{service: api.NewJobService(store)}
}

type apiAccess struct {
	client *api.Client
}

func (a *apiAccess) Stats(ctx context.Context) (map[string]int, error) {
	status, err := a.client.Status(ctx)
	if err != nil {
		return nil, err
	}
	return status.JobStats, nil
}

func (a *apiAccess) List(ctx context.Context, limit int, statuses []string) ([]api.Job, error) {
	return a.client.Jobs(ctx, limit, statuses)
}

func (a *apiAccess) Describe(ctx context.Context, id string) (*api.Job, error) {
	return a.client.Job(ctx, id)
}

func (a *apiAccess) Live() bool { return true }

type storeAccess struct {
	service *api.JobService
}

func (a *storeAccess) Stats(ctx context.Context) (map[string]int, error) {
	return a.service.Stats(ctx)
}

func (a *storeAccess) List(ctx context.Context, limit int, statuses []string) ([]api.Job, error) {
	return a.service.List(ctx, limit, toStatuses(statuses)...)
}

func (a *storeAccess) Describe(ctx context.Context, id string) (*api.Job, error) {
	return a.service.Describe(ctx, id)
}

func (a *storeAccess) Live() bool { return false }

func toStatuses(values []string) []queue.Status {
	out := make([]queue.Status, 0, len(values))
	for _, value := range values {
		if trimmed := strings.ToLower(strings.TrimSpace(value)); trimmed != "" {
			out = append(out, queue.Status(trimmed))
		}
	}
	return out
}
