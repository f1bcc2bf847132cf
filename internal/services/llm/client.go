package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"highlighter/internal/services"
	"highlighter/internal/textutil"
)

const (
	defaultHTTPTimeout   = 60 * time.Second
	defaultRetryAttempts = 2
	defaultMaxTitleChars = 10
	defaultModel         = "gpt-4o-mini"
	// maxPromptChars bounds the transcript excerpt sent to the model.
	maxPromptChars = 6000
)

// Config captures the runtime settings required to talk to the LLM.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
	MaxTitleChars  int
}

// Client wraps the chat completion API.
type Client struct {
	cfg     Config
	timeout time.Duration
	api     openai.Client

	httpClient *http.Client
	maxRetries int
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryMaxAttempts overrides the SDK retry count (defaults to 2).
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) {
		if attempts >= 0 {
			c.maxRetries = attempts
		}
	}
}

// NewClient constructs an LLM client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg = Config{
		APIKey:         strings.TrimSpace(cfg.APIKey),
		BaseURL:        strings.TrimSpace(cfg.BaseURL),
		Model:          strings.TrimSpace(cfg.Model),
		Referer:        strings.TrimSpace(cfg.Referer),
		Title:          strings.TrimSpace(cfg.Title),
		TimeoutSeconds: cfg.TimeoutSeconds,
		MaxTitleChars:  cfg.MaxTitleChars,
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxTitleChars <= 0 {
		cfg.MaxTitleChars = defaultMaxTitleChars
	}
	client := &Client{
		cfg:        cfg,
		timeout:    defaultHTTPTimeout,
		maxRetries: defaultRetryAttempts,
	}
	if cfg.TimeoutSeconds > 0 {
		client.timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	for _, opt := range opts {
		opt(client)
	}

	requestOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(client.maxRetries),
		option.WithRequestTimeout(client.timeout),
	}
	if cfg.BaseURL != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Referer != "" {
		requestOpts = append(requestOpts, option.WithHeader("HTTP-Referer", cfg.Referer))
	}
	if cfg.Title != "" {
		requestOpts = append(requestOpts, option.WithHeader("X-Title", cfg.Title))
	}
	if client.httpClient != nil {
		requestOpts = append(requestOpts, option.WithHTTPClient(client.httpClient))
	}
	client.api = openai.NewClient(requestOpts...)
	return client
}

// Model returns the configured model name for logging.
func (c *Client) Model() string {
	return c.cfg.Model
}

// GenerateTitle summarizes text into an engaging title. The result is trimmed
// of quotes and truncated to MaxTitleChars code points.
func (c *Client) GenerateTitle(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", services.Wrap(services.ErrValidation, "llm", "title", "text required", nil)
	}
	if c.cfg.APIKey == "" {
		return "", services.Wrap(services.ErrConfiguration, "llm", "title", "api key required", nil)
	}

	content, err := c.complete(ctx, "llm title", titleSystemPrompt, buildTitlePrompt(text, c.cfg.MaxTitleChars), 0.7)
	if err != nil {
		return "", err
	}
	title := cleanTitle(content)
	if title == "" {
		return "", services.Wrap(services.ErrExternalTool, "llm", "title", "model returned an empty title", nil)
	}
	return textutil.TruncateRunes(title, c.cfg.MaxTitleChars), nil
}

// HealthCheck issues a minimal completion to confirm the key and model work.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.cfg.APIKey == "" {
		return services.Wrap(services.ErrConfiguration, "llm", "health", "api key required", nil)
	}
	content, err := c.complete(ctx, "llm health", "Reply with the single word: ok", "ping", 0)
	if err != nil {
		return err
	}
	if !strings.Contains(strings.ToLower(content), "ok") {
		return fmt.Errorf("llm health: unexpected reply %q", textutil.Excerpt(content, 80))
	}
	return nil
}

func (c *Client) complete(ctx context.Context, op, systemPrompt, userPrompt string, temperature float64) (string, error) {
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		Model:       c.cfg.Model,
		Temperature: openai.Float(temperature),
		MaxTokens:   openai.Int(64),
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", services.Wrap(services.ErrTimeout, "llm", op, "request cancelled", err)
		}
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", services.Wrap(services.ErrExternalTool, "llm", op,
				fmt.Sprintf("http %d", apiErr.StatusCode), err)
		}
		return "", services.Wrap(services.ErrTransient, "llm", op, "request failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", services.Wrap(services.ErrExternalTool, "llm", op, "no choices returned", nil)
	}
	choice := resp.Choices[0]
	content := strings.TrimSpace(choice.Message.Content)
	if content == "" {
		return "", services.Wrap(services.ErrExternalTool, "llm", op,
			fmt.Sprintf("empty content (finish_reason=%q, refusal=%q)", choice.FinishReason, choice.Message.Refusal), nil)
	}
	return content, nil
}
