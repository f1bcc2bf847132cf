package daemonctl_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"highlighter/internal/api"
	"highlighter/internal/daemonctl"
	"highlighter/internal/queue"
	"highlighter/internal/testsupport"
)

func TestReadPIDPrefersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "highlighterd.pid")
	if err := os.WriteFile(path, []byte("4242\n"), 0o644); err != nil {
		t.Fatalf("write pid: %v", err)
	}
	pid, err := daemonctl.ReadPID(path, 7)
	if err != nil {
		t.Fatalf("ReadPID: %v", err)
	}
	if pid != 4242 {
		t.Fatalf("expected pid 4242, got %d", pid)
	}
}

func TestReadPIDFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.pid")
	pid, err := daemonctl.ReadPID(path, 7)
	if err != nil {
		t.Fatalf("ReadPID: %v", err)
	}
	if pid != 7 {
		t.Fatalf("expected fallback pid 7, got %d", pid)
	}
	if _, err := daemonctl.ReadPID(path, 0); err == nil {
		t.Fatal("expected error without pid file or fallback")
	}
}

func TestLaunchRequiresExecutable(t *testing.T) {
	if err := daemonctl.Launch("  ", daemonctl.LaunchOptions{}); err == nil {
		t.Fatal("expected error for empty executable")
	}
}

func TestStopWithoutDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	client, err := api.NewClient("127.0.0.1:1", "")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, err = daemonctl.StopAndTerminate(context.Background(), client, cfg, time.Second)
	if !errors.Is(err, daemonctl.ErrDaemonNotRunning) {
		t.Fatalf("expected ErrDaemonNotRunning, got %v", err)
	}
	if _, err := daemonctl.StopAndTerminate(context.Background(), nil, cfg, time.Second); !errors.Is(err, daemonctl.ErrDaemonNotRunning) {
		t.Fatalf("expected ErrDaemonNotRunning for nil client, got %v", err)
	}
}

func TestBuildStatusSnapshotFallsBackToStore(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.NewJob(t, store, "job-1", "room/a.flv")
	testsupport.NewJob(t, store, "job-2", "room/b.flv")
	if err := store.MarkFinished(context.Background(), "job-2", queue.Completion{BestScore: 0.9, HighlightCount: 3}); err != nil {
		t.Fatalf("MarkFinished: %v", err)
	}

	client, err := api.NewClient("127.0.0.1:1", "")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	snap, err := daemonctl.BuildStatusSnapshot(context.Background(), client, cfg)
	if err != nil {
		t.Fatalf("BuildStatusSnapshot: %v", err)
	}
	if snap.Daemon.Running {
		t.Fatal("expected daemon to be reported as not running")
	}
	if snap.JobStats["queued"] != 1 || snap.JobStats["completed"] != 1 || snap.JobStats["failed"] != 0 {
		t.Fatalf("unexpected job stats: %+v", snap.JobStats)
	}
	if len(snap.Dependencies) == 0 {
		t.Fatal("expected local dependency probes")
	}
	for _, dep := range snap.Dependencies {
		if !dep.Optional && !dep.Available {
			t.Fatalf("expected stubbed dependency %s to be available: %s", dep.Name, dep.Detail)
		}
	}
	if len(snap.Checks) == 0 {
		t.Fatal("expected preflight results")
	}
}

func TestBuildStatusSnapshotRequiresConfig(t *testing.T) {
	if _, err := daemonctl.BuildStatusSnapshot(context.Background(), nil, nil); err == nil {
		t.Fatal("expected error without config")
	}
}
