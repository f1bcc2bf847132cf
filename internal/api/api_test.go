package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"highlighter/internal/queue"
)

type mockJobReader struct {
	records  []queue.JobRecord
	stats    map[queue.Status]int
	err      error
	lastArgs []queue.Status
}

func (m *mockJobReader) List(_ context.Context, _ int, statuses ...queue.Status) ([]queue.JobRecord, error) {
	m.lastArgs = statuses
	return m.records, m.err
}

func (m *mockJobReader) Stats(context.Context) (map[queue.Status]int, error) {
	return m.stats, m.err
}

func (m *mockJobReader) Get(_ context.Context, id string) (*queue.JobRecord, error) {
	for i := range m.records {
		if m.records[i].ID == id {
			return &m.records[i], nil
		}
	}
	return nil, m.err
}

func TestFromJobRecord(t *testing.T) {
	started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	finished := started.Add(90 * time.Second)
	dto := FromJobRecord(queue.JobRecord{
		ID:         "abc",
		Key:        "/live/a.flv",
		Status:     queue.StatusCompleted,
		BestScore:  0.91,
		CreatedAt:  started,
		StartedAt:  &started,
		FinishedAt: &finished,
	})
	if dto.File != "/live/a.flv" || dto.Status != "completed" {
		t.Fatalf("unexpected dto %+v", dto)
	}
	if dto.StartedAt != "2024-05-01T12:00:00.000Z" {
		t.Fatalf("unexpected started timestamp %q", dto.StartedAt)
	}
	if dto.ElapsedSeconds != 90 {
		t.Fatalf("expected 90s elapsed, got %v", dto.ElapsedSeconds)
	}
}

func TestJobService(t *testing.T) {
	reader := &mockJobReader{
		records: []queue.JobRecord{{ID: "one", Key: "/a.flv", Status: queue.StatusFailed}},
		stats:   map[queue.Status]int{queue.StatusFailed: 1},
	}
	svc := NewJobService(reader)

	jobs, err := svc.List(context.Background(), 10, queue.StatusFailed)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ID != "one" || len(reader.lastArgs) != 1 {
		t.Fatalf("unexpected list result %+v", jobs)
	}

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}
	if stats["failed"] != 1 || stats["queued"] != 0 {
		t.Fatalf("expected merged stats, got %v", stats)
	}

	job, err := svc.Describe(context.Background(), "missing")
	if err != nil || job != nil {
		t.Fatalf("expected nil for missing job, got %+v err=%v", job, err)
	}

	reader.err = errors.New("db closed")
	if _, err := svc.List(context.Background(), 0); err == nil {
		t.Fatal("expected list error")
	}
	if NewJobService(nil) != nil {
		t.Fatal("expected nil service for nil reader")
	}
}

func TestClientSendsBearerAndDecodes(t *testing.T) {
	var gotAuth, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		switch r.URL.Path {
		case "/api/jobs":
			gotQuery = r.URL.RawQuery
			_ = json.NewEncoder(w).Encode(JobListResponse{Jobs: []Job{{ID: "j1"}}})
		case "/api/status":
			_ = json.NewEncoder(w).Encode(DaemonStatus{Running: true, PID: 42})
		default:
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "job not found"})
		}
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, "secret")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	jobs, err := client.Jobs(context.Background(), 5, []string{"failed"})
	if err != nil {
		t.Fatalf("Jobs: %v", err)
	}
	if len(jobs) != 1 || gotAuth != "Bearer secret" || gotQuery != "limit=5&status=failed" {
		t.Fatalf("unexpected request auth=%q query=%q jobs=%+v", gotAuth, gotQuery, jobs)
	}
	status, err := client.Status(context.Background())
	if err != nil || !status.Running || status.PID != 42 {
		t.Fatalf("unexpected status %+v err=%v", status, err)
	}
	job, err := client.Job(context.Background(), "nope")
	if err != nil || job != nil {
		t.Fatalf("expected nil job for 404, got %+v err=%v", job, err)
	}
}

func TestClientUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	bind := srv.Listener.Addr().String()
	srv.Close()

	client, err := NewClient(bind, "")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if err := client.Health(context.Background()); !IsAPIUnavailable(err) {
		t.Fatalf("expected unavailable error, got %v", err)
	}

	var nilClient *Client
	if err := nilClient.Health(context.Background()); !errors.Is(err, ErrAPIUnavailable) {
		t.Fatalf("expected ErrAPIUnavailable from nil client, got %v", err)
	}
}
