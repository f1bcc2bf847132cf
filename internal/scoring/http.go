package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"highlighter/internal/services"
)

// ClientOptions configures a classifier HTTP client.
type ClientOptions struct {
	URL     string
	Timeout time.Duration
	// RequestsPerSecond bounds the request rate. Zero disables the limit.
	RequestsPerSecond float64
	HTTPClient        *http.Client
}

type httpClient struct {
	url     string
	client  *http.Client
	limiter *rate.Limiter
}

func newHTTPClient(opts ClientOptions) httpClient {
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return httpClient{url: strings.TrimSpace(opts.URL), client: client, limiter: limiter}
}

type classifierResponse struct {
	Label           string       `json:"label"`
	Score           *float64     `json:"score"`
	Emotions        []ClassScore `json:"emotions"`
	DominantEmotion string       `json:"dominant_emotion"`
}

func (c httpClient) post(ctx context.Context, operation string, body io.Reader, contentType string) (classifierResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return classifierResponse{}, services.Wrap(services.ErrTimeout, "scoring", operation, "rate limiter wait", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return classifierResponse{}, services.Wrap(services.ErrConfiguration, "scoring", operation, "build request", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return classifierResponse{}, services.Wrap(services.ErrTransient, "scoring", operation, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return classifierResponse{}, services.Wrap(services.ErrExternalTool, "scoring", operation,
			fmt.Sprintf("%s: %s", resp.Status, strings.TrimSpace(string(payload))), nil)
	}

	var out classifierResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return classifierResponse{}, services.Wrap(services.ErrExternalTool, "scoring", operation, "decode response", err)
	}
	return out, nil
}

func (r classifierResponse) result() Result {
	result := Result{Label: strings.TrimSpace(r.Label)}
	if len(r.Emotions) > 0 {
		result.Distribution = make([]ClassScore, len(r.Emotions))
		for i, entry := range r.Emotions {
			result.Distribution[i] = ClassScore{Label: strings.ToLower(strings.TrimSpace(entry.Label)), Score: Clamp(entry.Score)}
		}
		top := Top(result.Distribution)
		result.Score = top.Score
		if result.Label == "" {
			result.Label = strings.ToLower(strings.TrimSpace(r.DominantEmotion))
		}
		if result.Label == "" {
			result.Label = top.Label
		}
	}
	if r.Score != nil {
		result.Score = Clamp(*r.Score)
	}
	return result
}

// HTTPSentiment scores text by posting {"text": ...} to a sentiment service
// answering {"label": ..., "score": ...}.
type HTTPSentiment struct {
	http httpClient
}

// NewHTTPSentiment builds a sentiment client.
func NewHTTPSentiment(opts ClientOptions) *HTTPSentiment {
	return &HTTPSentiment{http: newHTTPClient(opts)}
}

// Score implements TextScorer.
func (s *HTTPSentiment) Score(ctx context.Context, text string) (Result, error) {
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return Result{}, services.Wrap(services.ErrValidation, "scoring", "sentiment", "encode request", err)
	}
	resp, err := s.http.post(ctx, "sentiment", bytes.NewReader(payload), "application/json")
	if err != nil {
		return Result{}, err
	}
	if resp.Score == nil && len(resp.Emotions) == 0 {
		return Result{}, services.Wrap(services.ErrExternalTool, "scoring", "sentiment", "response missing score", nil)
	}
	return resp.result(), nil
}

// Slicer cuts an audio range into a standalone file.
type Slicer interface {
	Slice(ctx context.Context, source string, start, end time.Duration, dest string) error
}

// HTTPEmotion scores an audio slice by cutting it to a temporary WAV file
// and uploading it as multipart field "file". The service answers with
// {"emotions": [{"label","score"}...], "dominant_emotion": ...}.
type HTTPEmotion struct {
	http   httpClient
	slicer Slicer
	tmpDir string
}

// NewHTTPEmotion builds an emotion client. Slices are written under tmpDir
// (os.TempDir when empty) and removed after upload.
func NewHTTPEmotion(opts ClientOptions, slicer Slicer, tmpDir string) *HTTPEmotion {
	return &HTTPEmotion{http: newHTTPClient(opts), slicer: slicer, tmpDir: tmpDir}
}

// Score implements AudioScorer.
func (e *HTTPEmotion) Score(ctx context.Context, slice AudioSlice) (Result, error) {
	if e.slicer == nil {
		return Result{}, services.Wrap(services.ErrConfiguration, "scoring", "emotion", "audio slicer not configured", nil)
	}
	tmp, err := os.CreateTemp(e.tmpDir, "slice-*.wav")
	if err != nil {
		return Result{}, services.Wrap(services.ErrTransient, "scoring", "emotion", "create slice file", err)
	}
	slicePath := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(slicePath)

	if err := e.slicer.Slice(ctx, slice.Path, slice.Start, slice.End, slicePath); err != nil {
		return Result{}, err
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(slicePath))
	if err != nil {
		return Result{}, services.Wrap(services.ErrTransient, "scoring", "emotion", "build upload", err)
	}
	file, err := os.Open(slicePath)
	if err != nil {
		return Result{}, services.Wrap(services.ErrTransient, "scoring", "emotion", "open slice", err)
	}
	_, err = io.Copy(part, file)
	file.Close()
	if err != nil {
		return Result{}, services.Wrap(services.ErrTransient, "scoring", "emotion", "copy slice", err)
	}
	if err := writer.Close(); err != nil {
		return Result{}, services.Wrap(services.ErrTransient, "scoring", "emotion", "finish upload", err)
	}

	resp, err := e.http.post(ctx, "emotion", &body, writer.FormDataContentType())
	if err != nil {
		return Result{}, err
	}
	if len(resp.Emotions) == 0 {
		return Result{}, services.Wrap(services.ErrExternalTool, "scoring", "emotion", "response missing distribution", nil)
	}
	result := resp.result()
	result.Score = Top(result.Distribution).Score
	return result, nil
}
