package queueaccess

import (
	"context"
	"fmt"

	"highlighter/internal/api"
	"highlighter/internal/queue"
)

// Session represents a job history handle and its cleanup function.
type Session struct {
	Access Access
	close  func() error
}

// Close releases resources associated with the session.
func (s Session) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenWithFallback prefers a reachable daemon API, then falls back to
// opening the SQLite store directly.
func OpenWithFallback(
	ctx context.Context,
	dial func() (*api.Client, error),
	openStore func() (*queue.Store, error),
) (Session, error) {
	if dial != nil {
		if client, err := dial(); err == nil && client != nil {
			if err := client.Health(ctx); err == nil {
				return Session{Access: NewAPIAccess(client)}, nil
			}
		}
	}

	if openStore == nil {
		return Session{}, fmt.Errorf("open job store: no store opener configured")
	}
	store, err := openStore()
	if err != nil {
		return Session{}, fmt.Errorf("open job store: %w", err)
	}
	return Session{
		Access: NewStoreAccess(store),
		close:  store.Close,
	}, nil
}
