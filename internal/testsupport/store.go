package testsupport

import (
	"context"
	"testing"
	"time"

	"highlighter/internal/config"
	"highlighter/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewJob inserts a queued job record for tests using the provided store.
func NewJob(t testing.TB, store *queue.Store, id, key string) queue.JobRecord {
	t.Helper()

	rec := queue.JobRecord{ID: id, Key: key, CreatedAt: time.Now().UTC()}
	if err := store.Insert(context.Background(), rec); err != nil {
		t.Fatalf("store.Insert: %v", err)
	}
	return rec
}
