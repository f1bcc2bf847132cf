package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// DefaultServerChanURL is the public ServerChan API base.
const DefaultServerChanURL = "https://sctapi.ftqq.com"

type serverChanNotifier struct {
	endpoint string
	client   *http.Client
}

type serverChanResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewServerChan returns a notifier posting to {base}/{key}.send. An empty base
// selects DefaultServerChanURL.
func NewServerChan(base, key string, client *http.Client) Notifier {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		base = DefaultServerChanURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &serverChanNotifier{
		endpoint: fmt.Sprintf("%s/%s.send", base, url.PathEscape(key)),
		client:   client,
	}
}

func (s *serverChanNotifier) Name() string { return "serverchan" }

func (s *serverChanNotifier) Send(ctx context.Context, msg Message) error {
	form := url.Values{}
	form.Set("title", msg.Title)
	form.Set("desp", msg.Body)
	if len(msg.Tags) > 0 {
		form.Set("tags", strings.Join(msg.Tags, "|"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build serverchan request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send serverchan notification: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= 300 {
		return fmt.Errorf("serverchan returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var parsed serverChanResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		// Older deployments answer with plain text; a 2xx is success there.
		return nil
	}
	if parsed.Code != 0 {
		return fmt.Errorf("serverchan rejected message (code %d): %s", parsed.Code, strings.TrimSpace(parsed.Message))
	}
	return nil
}
