package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"highlighter/internal/services"
)

const jobColumns = "id, job_key, relative_path, room, streamer, title, status, failure_kind, error_message, best_score, highlight_count, scores_path, created_at, updated_at, started_at, finished_at"

// DefaultListLimit caps List when no limit is given.
const DefaultListLimit = 50

// Insert stores a new queued record. CreatedAt defaults to now.
func (s *Store) Insert(ctx context.Context, rec JobRecord) error {
	if strings.TrimSpace(rec.ID) == "" || strings.TrimSpace(rec.Key) == "" {
		return errors.New("insert job: id and key are required")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.Status == "" {
		rec.Status = StatusQueued
	}
	created := formatTime(rec.CreatedAt)
	_, err := s.execWithRetry(ctx,
		`INSERT INTO jobs (id, job_key, relative_path, room, streamer, title, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Key, nullString(rec.RelativePath), nullString(rec.Room), nullString(rec.Streamer), nullString(rec.Title),
		rec.Status, created, created,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// MarkRunning transitions a record to running.
func (s *Store) MarkRunning(ctx context.Context, id string) error {
	now := formatTime(time.Now().UTC())
	return s.updateOne(ctx, "mark running",
		`UPDATE jobs SET status = ?, started_at = ?, updated_at = ? WHERE id = ?`,
		StatusRunning, now, now, id,
	)
}

// Completion carries the result fields of a finished job.
type Completion struct {
	BestScore      float64
	HighlightCount int
	ScoresPath     string
	FailureKind    string
	Err            error
}

// MarkFinished transitions a record to completed, or failed when c.Err is set.
func (s *Store) MarkFinished(ctx context.Context, id string, c Completion) error {
	now := formatTime(time.Now().UTC())
	status := StatusCompleted
	var message, kind sql.NullString
	if c.Err != nil {
		status = StatusFailed
		message = nullString(c.Err.Error())
		kind = nullString(c.FailureKind)
	}
	return s.updateOne(ctx, "mark finished",
		`UPDATE jobs SET status = ?, failure_kind = ?, error_message = ?, best_score = ?, highlight_count = ?,
             scores_path = ?, finished_at = ?, updated_at = ? WHERE id = ?`,
		status, kind, message, c.BestScore, c.HighlightCount, nullString(c.ScoresPath), now, now, id,
	)
}

func (s *Store) updateOne(ctx context.Context, op, query string, args ...any) error {
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrJobNotFound)
	}
	return nil
}

// ErrJobNotFound reports an update for an unknown job id.
var ErrJobNotFound = errors.New("job not found")

// Get returns the record with id, or nil when absent.
func (s *Store) Get(ctx context.Context, id string) (*JobRecord, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), "SELECT "+jobColumns+" FROM jobs WHERE id = ?", id)
	rec, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return rec, nil
}

// List returns the most recent records, newest first, optionally filtered by status.
func (s *Store) List(ctx context.Context, limit int, statuses ...Status) ([]JobRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	query := "SELECT " + jobColumns + " FROM jobs"
	args := make([]any, 0, len(statuses)+1)
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, status := range statuses {
			placeholders[i] = "?"
			args = append(args, status)
		}
		query += " WHERE status IN (" + strings.Join(placeholders, ",") + ")"
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []JobRecord
	for rows.Next() {
		rec, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// Stats returns a count of records grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT status, COUNT(1) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// FailInterrupted marks queued and running records left behind by a previous
// process as failed. It returns the number of records changed.
func (s *Store) FailInterrupted(ctx context.Context, reason string) (int64, error) {
	now := formatTime(time.Now().UTC())
	res, err := s.execWithRetry(ctx,
		`UPDATE jobs SET status = ?, failure_kind = ?, error_message = ?, finished_at = ?, updated_at = ?
         WHERE status IN (?, ?)`,
		StatusFailed, services.FailureRuntime, reason, now, now, StatusQueued, StatusRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("fail interrupted jobs: %w", err)
	}
	return res.RowsAffected()
}

// Prune deletes terminal records last updated before cutoff.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`DELETE FROM jobs WHERE status IN (?, ?) AND updated_at < ?`,
		StatusCompleted, StatusFailed, formatTime(cutoff.UTC()),
	)
	if err != nil {
		return 0, fmt.Errorf("prune jobs: %w", err)
	}
	return res.RowsAffected()
}

func scanJob(scanner interface{ Scan(dest ...any) error }) (*JobRecord, error) {
	var (
		rec          JobRecord
		relative     sql.NullString
		room         sql.NullString
		streamer     sql.NullString
		title        sql.NullString
		status       string
		failureKind  sql.NullString
		errorMessage sql.NullString
		scoresPath   sql.NullString
		createdRaw   string
		updatedRaw   string
		startedRaw   sql.NullString
		finishedRaw  sql.NullString
	)
	if err := scanner.Scan(
		&rec.ID,
		&rec.Key,
		&relative,
		&room,
		&streamer,
		&title,
		&status,
		&failureKind,
		&errorMessage,
		&rec.BestScore,
		&rec.HighlightCount,
		&scoresPath,
		&createdRaw,
		&updatedRaw,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}
	rec.RelativePath = relative.String
	rec.Room = room.String
	rec.Streamer = streamer.String
	rec.Title = title.String
	rec.Status = Status(status)
	rec.FailureKind = failureKind.String
	rec.Error = errorMessage.String
	rec.ScoresPath = scoresPath.String
	rec.CreatedAt = parseTime(createdRaw)
	rec.UpdatedAt = parseTime(updatedRaw)
	rec.StartedAt = parseOptionalTime(startedRaw)
	rec.FinishedAt = parseOptionalTime(finishedRaw)
	return &rec, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseOptionalTime(raw sql.NullString) *time.Time {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	t := parseTime(raw.String)
	if t.IsZero() {
		return nil
	}
	return &t
}

func nullString(value string) sql.NullString {
	value = strings.TrimSpace(value)
	return sql.NullString{String: value, Valid: value != ""}
}
