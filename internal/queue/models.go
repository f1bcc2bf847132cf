package queue

import "time"

// Status is the lifecycle state of a job record.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// IsTerminal reports whether the status is final.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// JobRecord is one row of the job history.
type JobRecord struct {
	ID             string     `json:"id"`
	Key            string     `json:"key"`
	RelativePath   string     `json:"relative_path,omitempty"`
	Room           string     `json:"room,omitempty"`
	Streamer       string     `json:"streamer,omitempty"`
	Title          string     `json:"title,omitempty"`
	Status         Status     `json:"status"`
	FailureKind    string     `json:"failure_kind,omitempty"`
	Error          string     `json:"error,omitempty"`
	BestScore      float64    `json:"best_score"`
	HighlightCount int        `json:"highlight_count"`
	ScoresPath     string     `json:"scores_path,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
}

// Elapsed returns the run duration, or zero when the job has not both started
// and finished.
func (r JobRecord) Elapsed() time.Duration {
	if r.StartedAt == nil || r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(*r.StartedAt)
}
