package api

import (
	"slices"

	"highlighter/internal/deps"
	"highlighter/internal/queue"
)

// FromJobRecord converts a job history row to its API representation.
func FromJobRecord(rec queue.JobRecord) Job {
	dto := Job{
		ID:             rec.ID,
		File:           rec.Key,
		RelativePath:   rec.RelativePath,
		Room:           rec.Room,
		Streamer:       rec.Streamer,
		Title:          rec.Title,
		Status:         string(rec.Status),
		FailureKind:    rec.FailureKind,
		ErrorMessage:   rec.Error,
		BestScore:      rec.BestScore,
		HighlightCount: rec.HighlightCount,
		ScoresPath:     rec.ScoresPath,
		ElapsedSeconds: rec.Elapsed().Seconds(),
	}
	if !rec.CreatedAt.IsZero() {
		dto.CreatedAt = rec.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if rec.StartedAt != nil {
		dto.StartedAt = rec.StartedAt.UTC().Format(dateTimeFormat)
	}
	if rec.FinishedAt != nil {
		dto.FinishedAt = rec.FinishedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromJobRecords converts a slice of records, preserving order.
func FromJobRecords(records []queue.JobRecord) []Job {
	if len(records) == 0 {
		return nil
	}
	out := make([]Job, 0, len(records))
	for _, rec := range records {
		out = append(out, FromJobRecord(rec))
	}
	return out
}

// MergeJobStats returns counts for every known status, including zeros.
func MergeJobStats(stats map[queue.Status]int) map[string]int {
	out := map[string]int{
		string(queue.StatusQueued):    0,
		string(queue.StatusRunning):   0,
		string(queue.StatusCompleted): 0,
		string(queue.StatusFailed):    0,
	}
	for status, count := range stats {
		out[string(status)] += count
	}
	return out
}

// FromDependencies converts dependency statuses, keeping their order.
func FromDependencies(statuses []deps.Status) []DependencyStatus {
	out := make([]DependencyStatus, len(statuses))
	for i, dep := range statuses {
		out[i] = DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		}
	}
	return out
}

// StatusNames returns the sorted keys of a stats map for stable rendering.
func StatusNames(stats map[string]int) []string {
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
