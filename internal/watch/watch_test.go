package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"highlighter/internal/gateway"
)

type recordingSubmitter struct {
	mu   sync.Mutex
	jobs []gateway.Job
	err  error
}

func (r *recordingSubmitter) Submit(_ context.Context, job gateway.Job) (gateway.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return job, r.err
	}
	job.ID = "job"
	r.jobs = append(r.jobs, job)
	return job, nil
}

func (r *recordingSubmitter) snapshot() []gateway.Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]gateway.Job(nil), r.jobs...)
}

func writeBytes(t *testing.T, path string, n int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, make([]byte, n), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestFlushWaitsForQuietAndStableSize(t *testing.T) {
	root := t.TempDir()
	sub := &recordingSubmitter{}
	w := New(Options{Root: root, Extensions: []string{"FLV"}, Settle: 10 * time.Second, Submitter: sub})
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return clock }

	path := filepath.Join(root, "room", "a.flv")
	writeBytes(t, path, 10)
	w.observe(path)
	w.observe(filepath.Join(root, "room", "a.txt"))

	if got := w.Pending(); len(got) != 1 || got[0] != path {
		t.Fatalf("expected only the recording pending, got %v", got)
	}

	clock = clock.Add(5 * time.Second)
	w.flush(context.Background())
	if len(sub.snapshot()) != 0 {
		t.Fatal("expected no submission before settle elapses")
	}

	clock = clock.Add(6 * time.Second)
	w.flush(context.Background())
	if len(sub.snapshot()) != 0 {
		t.Fatal("expected first quiet check to only record size")
	}

	writeBytes(t, path, 20)
	w.flush(context.Background())
	if len(sub.snapshot()) != 0 {
		t.Fatal("expected growing file to stay pending")
	}

	w.flush(context.Background())
	jobs := sub.snapshot()
	if len(jobs) != 1 {
		t.Fatalf("expected one submission, got %d", len(jobs))
	}
	if jobs[0].Key != path || jobs[0].RelativePath != "room/a.flv" {
		t.Fatalf("unexpected job %+v", jobs[0])
	}
	if len(w.Pending()) != 0 {
		t.Fatalf("expected pending cleared, got %v", w.Pending())
	}
}

func TestForgetDropsRemovedFiles(t *testing.T) {
	root := t.TempDir()
	sub := &recordingSubmitter{}
	w := New(Options{Root: root, Extensions: []string{".mp4"}, Submitter: sub})

	path := filepath.Join(root, "b.mp4")
	writeBytes(t, path, 1)
	w.observe(path)
	w.forget(path)
	w.flush(context.Background())
	if len(sub.snapshot()) != 0 {
		t.Fatal("expected forgotten file to be skipped")
	}
}

func TestFlushDropsVanishedFiles(t *testing.T) {
	root := t.TempDir()
	sub := &recordingSubmitter{}
	w := New(Options{Root: root, Extensions: []string{".mp4"}, Submitter: sub})

	w.observe(filepath.Join(root, "gone.mp4"))
	w.flush(context.Background())
	if len(sub.snapshot()) != 0 || len(w.Pending()) != 0 {
		t.Fatal("expected missing file dropped without submission")
	}
}

func TestSubmitErrorsAreNotRetried(t *testing.T) {
	root := t.TempDir()
	sub := &recordingSubmitter{err: gateway.ErrAlreadyRunning}
	w := New(Options{Root: root, Extensions: []string{".flv"}, Submitter: sub})

	path := filepath.Join(root, "c.flv")
	writeBytes(t, path, 1)
	w.observe(path)
	w.flush(context.Background())
	if len(w.Pending()) != 0 {
		t.Fatalf("expected pending cleared after rejected submit, got %v", w.Pending())
	}
}

func TestRunSubmitsFilesInNewSubdirectories(t *testing.T) {
	root := t.TempDir()
	sub := &recordingSubmitter{}
	w := New(Options{Root: root, Extensions: []string{".flv"}, Submitter: sub})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	dir := filepath.Join(root, "1234-streamer")
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		// Give the watcher a moment to register the new directory, then
		// rewrite the file so a Write event reaches it.
		time.Sleep(100 * time.Millisecond)
		writeBytes(t, filepath.Join(dir, "rec.flv"), 8)
		time.Sleep(400 * time.Millisecond)
		if jobs := sub.snapshot(); len(jobs) > 0 {
			if jobs[0].RelativePath != "1234-streamer/rec.flv" {
				t.Fatalf("unexpected relative path %q", jobs[0].RelativePath)
			}
			return
		}
	}
	t.Fatal("timed out waiting for watcher submission")
}

func TestRunFailsForMissingRoot(t *testing.T) {
	w := New(Options{Root: filepath.Join(t.TempDir(), "missing"), Submitter: &recordingSubmitter{}})
	if err := w.Run(context.Background()); err == nil {
		t.Fatal("expected error for missing root")
	}
}
