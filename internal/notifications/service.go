package notifications

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"highlighter/internal/config"
)

const userAgent = "Highlighter-Go/0.1.0"

// Message is a transport-neutral notification.
type Message struct {
	Title    string
	Body     string
	Tags     []string
	Priority string
}

// Notifier delivers a single message to one transport.
type Notifier interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// Service defines the notification surface exposed to the pipeline.
type Service interface {
	Enabled() bool
	NotifyHighlight(ctx context.Context, alert Alert) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service from the configured targets.
// When no target is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	timeout := cfg.NotificationTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	var notifiers []Notifier
	if topic := strings.TrimSpace(cfg.Notifications.NtfyTopic); topic != "" {
		notifiers = append(notifiers, NewNtfy(topic, client))
	}
	if key := strings.TrimSpace(cfg.Notifications.ServerChanKey); key != "" {
		notifiers = append(notifiers, NewServerChan("", key, client))
	}
	return NewFanout(notifiers...)
}

// NewFanout returns a service delivering every message to each notifier.
func NewFanout(notifiers ...Notifier) Service {
	filtered := make([]Notifier, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			filtered = append(filtered, n)
		}
	}
	if len(filtered) == 0 {
		return noopService{}
	}
	return &fanout{notifiers: filtered}
}

type fanout struct {
	notifiers []Notifier
}

func (f *fanout) Enabled() bool { return true }

func (f *fanout) NotifyHighlight(ctx context.Context, alert Alert) error {
	return f.send(ctx, alert.Message())
}

func (f *fanout) TestNotification(ctx context.Context) error {
	return f.send(ctx, Message{
		Title:    "Highlighter - Test",
		Body:     "This is a test message to verify the highlight notification service.",
		Tags:     []string{"highlighter", "test"},
		Priority: "low",
	})
}

// send attempts every target so one failing transport does not silence the others.
func (f *fanout) send(ctx context.Context, msg Message) error {
	var errs []error
	for _, n := range f.notifiers {
		if err := n.Send(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
		}
	}
	return errors.Join(errs...)
}

type ntfyNotifier struct {
	endpoint string
	client   *http.Client
}

// NewNtfy returns a notifier posting to an ntfy topic URL.
func NewNtfy(endpoint string, client *http.Client) Notifier {
	if client == nil {
		client = http.DefaultClient
	}
	return &ntfyNotifier{endpoint: endpoint, client: client}
}

func (n *ntfyNotifier) Name() string { return "ntfy" }

func (n *ntfyNotifier) Send(ctx context.Context, msg Message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.Body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("Markdown", "yes")
	if msg.Title != "" {
		req.Header.Set("Title", msg.Title)
	}
	if len(msg.Tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.Tags, ","))
	}
	if msg.Priority != "" && msg.Priority != "default" {
		req.Header.Set("Priority", msg.Priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Enabled() bool                                { return false }
func (noopService) NotifyHighlight(context.Context, Alert) error { return nil }
func (noopService) TestNotification(context.Context) error       { return nil }
