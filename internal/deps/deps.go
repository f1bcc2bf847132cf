package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"highlighter/internal/config"
)

// Requirement names an external binary the pipeline shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status is a Requirement plus the outcome of resolving it on PATH. Path
// holds the resolved executable when available.
type Status struct {
	Requirement
	Available bool
	Path      string
	Detail    string
}

// Requirements lists the external binaries used by the pipeline. uvx is
// optional because runs with a supplied transcript never start WhisperX.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{Name: "FFmpeg", Command: cfg.FFmpegBinary(), Description: "Audio conversion, acoustic slices and clips"},
		{Name: "FFprobe", Command: cfg.FFprobeBinary(), Description: "Recording duration probe for clip padding"},
		{Name: "uvx", Command: cfg.UVXBinary(), Description: "Launches WhisperX transcription", Optional: true},
	}
}

// CheckBinaries resolves each requirement with exec.LookPath.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, len(requirements))
	for i, req := range requirements {
		req.Command = strings.TrimSpace(req.Command)
		req.Description = strings.TrimSpace(req.Description)
		results[i] = resolve(req)
	}
	return results
}

func resolve(req Requirement) Status {
	status := Status{Requirement: req}
	if req.Command == "" {
		status.Detail = "command not configured"
		return status
	}
	path, err := exec.LookPath(req.Command)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found on PATH", req.Command)
		return status
	}
	status.Available = true
	status.Path = path
	return status
}

// Missing returns the required dependencies that are unavailable.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			missing = append(missing, s)
		}
	}
	return missing
}
