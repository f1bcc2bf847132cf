package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Job describes a job history entry in a transport-friendly format.
type Job struct {
	ID             string  `json:"id"`
	File           string  `json:"file"`
	RelativePath   string  `json:"relativePath,omitempty"`
	Room           string  `json:"room,omitempty"`
	Streamer       string  `json:"streamer,omitempty"`
	Title          string  `json:"title,omitempty"`
	Status         string  `json:"status"`
	FailureKind    string  `json:"failureKind,omitempty"`
	ErrorMessage   string  `json:"errorMessage,omitempty"`
	BestScore      float64 `json:"bestScore"`
	HighlightCount int     `json:"highlightCount"`
	ScoresPath     string  `json:"scoresPath,omitempty"`
	CreatedAt      string  `json:"createdAt,omitempty"`
	StartedAt      string  `json:"startedAt,omitempty"`
	FinishedAt     string  `json:"finishedAt,omitempty"`
	ElapsedSeconds float64 `json:"elapsedSeconds,omitempty"`
}

// GatewayStatus summarizes the worker pool.
type GatewayStatus struct {
	Workers    int      `json:"workers"`
	QueueDepth int      `json:"queueDepth"`
	Active     []string `json:"active"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	StartedAt    string             `json:"startedAt,omitempty"`
	StorePath    string             `json:"storePath"`
	LockFilePath string             `json:"lockFilePath"`
	WebhookRoute string             `json:"webhookRoute"`
	Watching     bool               `json:"watching"`
	Gateway      GatewayStatus      `json:"gateway"`
	JobStats     map[string]int     `json:"jobStats"`
	Dependencies []DependencyStatus `json:"dependencies"`
}

// HealthResponse is the liveness payload.
type HealthResponse struct {
	Status string `json:"status"`
}

// JobListResponse wraps a collection of jobs for API responses.
type JobListResponse struct {
	Jobs []Job `json:"jobs"`
}

// JobResponse wraps a single job.
type JobResponse struct {
	Job Job `json:"job"`
}
