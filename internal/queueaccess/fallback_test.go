package queueaccess_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"highlighter/internal/api"
	"highlighter/internal/queue"
	"highlighter/internal/queueaccess"
	"highlighter/internal/testsupport"
)

func TestOpenWithFallbackUsesStoreWhenDaemonDown(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.NewJob(t, store, "job-1", "/live/a.flv")

	srv := httptest.NewServer(http.NotFoundHandler())
	bind := srv.Listener.Addr().String()
	srv.Close()

	session, err := queueaccess.OpenWithFallback(context.Background(),
		func() (*api.Client, error) { return api.NewClient(bind, "") },
		func() (*queue.Store, error) { return queue.Open(cfg) },
	)
	if err != nil {
		t.Fatalf("OpenWithFallback: %v", err)
	}
	defer session.Close()

	if session.Access.Live() {
		t.Fatal("expected store-backed access")
	}
	jobs, err := session.Access.List(context.Background(), 10, []string{" Queued "})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ID != "job-1" {
		t.Fatalf("unexpected jobs %+v", jobs)
	}
	stats, err := session.Access.Stats(context.Background())
	if err != nil || stats["queued"] != 1 {
		t.Fatalf("unexpected stats %v err=%v", stats, err)
	}
}

func TestOpenWithFallbackPrefersDaemon(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/health":
			_ = json.NewEncoder(w).Encode(api.HealthResponse{Status: "ok"})
		case "/api/jobs":
			_ = json.NewEncoder(w).Encode(api.JobListResponse{Jobs: []api.Job{{ID: "live"}}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	opened := false
	session, err := queueaccess.OpenWithFallback(context.Background(),
		func() (*api.Client, error) { return api.NewClient(srv.URL, "") },
		func() (*queue.Store, error) { opened = true; return nil, nil },
	)
	if err != nil {
		t.Fatalf("OpenWithFallback: %v", err)
	}
	defer session.Close()

	if !session.Access.Live() || opened {
		t.Fatal("expected API-backed access without opening the store")
	}
	jobs, err := session.Access.List(context.Background(), 0, nil)
	if err != nil || len(jobs) != 1 || jobs[0].ID != "live" {
		t.Fatalf("unexpected jobs %+v err=%v", jobs, err)
	}
}
