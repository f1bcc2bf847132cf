package logs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DaemonLogName is the pointer highlighterd keeps at its current run log.
const DaemonLogName = "highlighterd.log"

// ErrNoLog reports that no matching log file exists.
var ErrNoLog = errors.New("log file not found")

// DaemonLogPath returns the current daemon log, resolving the pointer link
// so follow mode keeps reading the same run.
func DaemonLogPath(logDir string) (string, error) {
	pointer := filepath.Join(logDir, DaemonLogName)
	resolved, err := filepath.EvalSymlinks(pointer)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNoLog, pointer)
		}
		return "", fmt.Errorf("resolve daemon log: %w", err)
	}
	return resolved, nil
}

// FindJobLog returns the newest log in jobsDir for a job ID. Job logs are
// named <accepted>-<id prefix>-<recording>.log, so any prefix of at least
// four characters matches.
func FindJobLog(jobsDir, jobID string) (string, error) {
	jobID = strings.TrimSpace(jobID)
	if len(jobID) < 4 {
		return "", fmt.Errorf("job id %q is too short to match a log", jobID)
	}
	if len(jobID) > 8 {
		jobID = jobID[:8]
	}
	matches, err := filepath.Glob(filepath.Join(jobsDir, "*-"+jobID+"*-*.log"))
	if err != nil {
		return "", fmt.Errorf("search job logs: %w", err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w for job %s in %s", ErrNoLog, jobID, jobsDir)
	}
	// Names start with a UTC timestamp, so lexical order is chronological.
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}
