// Package llm generates short alert titles through an OpenAI-compatible chat API.
//
// The client wraps github.com/openai/openai-go. Any endpoint speaking the
// chat completions protocol works (OpenAI, OpenRouter, local gateways); the
// referer and title headers are sent for OpenRouter attribution.
//
// # Configuration
//
// Requires api_key and model, optionally base_url, referer, title, timeout,
// and max_title_chars. When unconfigured, callers skip title generation.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.GenerateTitle: summarize highlight text into a title of at most
// MaxTitleChars code points.
// Client.HealthCheck: verify API key and model availability.
//
// # Retry Behaviour
//
// Retries on 408/429/5xx and connection errors are delegated to the SDK
// (two retries by default, exponential backoff). Context cancellation aborts
// retries immediately.
package llm
