package notifications

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"highlighter/internal/fileutil"
)

// LogFile is the per-recording alert log name.
const LogFile = "notification.json"

// Record is one entry in the alert log.
type Record struct {
	SentAt    time.Time `json:"sent_at"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Score     float64   `json:"score"`
	Threshold float64   `json:"threshold"`
	Delivered bool      `json:"delivered"`
	Error     string    `json:"error,omitempty"`
}

// AppendRecord adds rec to the alert log in dir, creating it when absent.
func AppendRecord(dir string, rec Record) error {
	path := filepath.Join(dir, LogFile)
	records, err := ReadRecords(path)
	if err != nil {
		return err
	}
	records = append(records, rec)
	if err := fileutil.WriteJSONAtomic(path, records); err != nil {
		return fmt.Errorf("write alert log: %w", err)
	}
	return nil
}

// ReadRecords loads the alert log at path. A missing file yields no records.
func ReadRecords(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read alert log: %w", err)
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse alert log %s: %w", path, err)
	}
	return records, nil
}
