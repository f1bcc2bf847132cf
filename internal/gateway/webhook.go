package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"highlighter/internal/logging"
)

// EventFileClosed is the only recorder event that triggers processing.
const EventFileClosed = "FileClosed"

const maxWebhookBody = 1 << 20

// Event is the recorder webhook payload.
type Event struct {
	EventType string     `json:"EventType"`
	EventID   string     `json:"EventId,omitempty"`
	EventData *EventData `json:"EventData"`
}

// EventData carries the recording metadata of an event.
type EventData struct {
	RelativePath string      `json:"RelativePath"`
	RoomID       RoomID `json:"RoomId"`
	Name         string `json:"Name"`
	Title        string `json:"Title"`
}

// RoomID is a recorder room identifier. Recorders send it as a JSON number
// or as a string, and either form is kept as text.
type RoomID string

// UnmarshalJSON accepts a number, a string or null.
func (r *RoomID) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	switch {
	case raw == "null":
		*r = ""
		return nil
	case strings.HasPrefix(raw, `"`):
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = RoomID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("RoomId: expected number or string, got %s", raw)
	}
	*r = RoomID(n.String())
	return nil
}

// Submitter accepts jobs.
type Submitter interface {
	Submit(ctx context.Context, job Job) (Job, error)
}

// WebhookHandler turns recorder events into gateway submissions.
type WebhookHandler struct {
	root      string
	submitter Submitter
	logger    *slog.Logger
}

// NewWebhookHandler builds a handler resolving relative paths against root.
func NewWebhookHandler(root string, submitter Submitter, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		root:      filepath.Clean(root),
		submitter: submitter,
		logger:    logging.NewComponentLogger(logger, "webhook"),
	}
}

// ServeHTTP implements http.Handler.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	requestID := uuid.NewString()
	logger := h.logger.With(logging.String(logging.FieldCorrelationID, requestID))

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		logger.Warn("webhook rejected", logging.String(logging.FieldDecisionReason, "invalid json"), logging.Error(err))
		h.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(event.EventType) == "" || event.EventData == nil {
		h.writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}
	if event.EventType != EventFileClosed {
		logger.Debug("webhook event ignored", logging.String(logging.FieldEventType, event.EventType))
		h.writeJSON(w, http.StatusOK, map[string]string{"message": fmt.Sprintf("event type %s ignored", event.EventType)})
		return
	}

	rel := strings.TrimSpace(event.EventData.RelativePath)
	if rel == "" {
		h.writeError(w, http.StatusBadRequest, "missing RelativePath")
		return
	}
	key, ok := h.resolve(rel)
	if !ok {
		logger.Warn("webhook rejected",
			logging.String(logging.FieldDecisionReason, "path escapes live root"),
			logging.String("relative_path", rel),
		)
		h.writeError(w, http.StatusBadRequest, "invalid RelativePath")
		return
	}
	if info, err := os.Stat(key); err != nil || info.IsDir() {
		logger.Warn("webhook rejected",
			logging.String(logging.FieldDecisionReason, "file not found"),
			logging.String(logging.FieldFile, key),
		)
		h.writeError(w, http.StatusNotFound, "file not found")
		return
	}

	job, err := h.submitter.Submit(r.Context(), Job{
		Key:          key,
		RelativePath: rel,
		Room:         string(event.EventData.RoomID),
		Streamer:     strings.TrimSpace(event.EventData.Name),
		Title:        strings.TrimSpace(event.EventData.Title),
		RequestID:    requestID,
	})
	switch {
	case errors.Is(err, ErrAlreadyRunning):
		logger.Info("webhook duplicate",
			logging.String(logging.FieldDecisionType, "single_flight"),
			logging.String(logging.FieldDecisionResult, "rejected"),
			logging.String(logging.FieldFile, key),
		)
		h.writeJSON(w, http.StatusOK, map[string]string{"message": "task already running", "file": rel})
	case errors.Is(err, ErrQueueFull), errors.Is(err, ErrClosed):
		logger.Warn("webhook unavailable", logging.Error(err), logging.String(logging.FieldFile, key))
		h.writeError(w, http.StatusServiceUnavailable, err.Error())
	case err != nil:
		logger.Error("webhook submit failed", logging.Error(err), logging.String(logging.FieldFile, key))
		h.writeError(w, http.StatusInternalServerError, "submit failed")
	default:
		h.writeJSON(w, http.StatusOK, map[string]string{"message": "task started", "file": rel, "job_id": job.ID})
	}
}

// resolve joins rel onto the live root and rejects results outside it.
func (h *WebhookHandler) resolve(rel string) (string, bool) {
	key := filepath.Join(h.root, filepath.FromSlash(rel))
	within, err := filepath.Rel(h.root, key)
	if err != nil || within == "." || within == ".." || strings.HasPrefix(within, ".."+string(filepath.Separator)) {
		return "", false
	}
	return key, true
}

func (h *WebhookHandler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (h *WebhookHandler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
