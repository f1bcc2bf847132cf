package notifications_test

import (
	"path/filepath"
	"testing"
	"time"

	"highlighter/internal/notifications"
)

func TestAppendRecordAccumulates(t *testing.T) {
	dir := t.TempDir()
	sent := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	if err := notifications.AppendRecord(dir, notifications.Record{SentAt: sent, Title: "a", Delivered: true}); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if err := notifications.AppendRecord(dir, notifications.Record{SentAt: sent, Title: "b", Error: "boom"}); err != nil {
		t.Fatalf("second append: %v", err)
	}

	records, err := notifications.ReadRecords(filepath.Join(dir, notifications.LogFile))
	if err != nil {
		t.Fatalf("ReadRecords: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Title != "a" || !records[0].Delivered {
		t.Fatalf("unexpected first record %+v", records[0])
	}
	if records[1].Error != "boom" || records[1].Delivered {
		t.Fatalf("unexpected second record %+v", records[1])
	}
}

func TestReadRecordsMissingFile(t *testing.T) {
	records, err := notifications.ReadRecords(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("expected nil error for missing log, got %v", err)
	}
	if records != nil {
		t.Fatalf("expected no records, got %v", records)
	}
}
