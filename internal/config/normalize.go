package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeWebhook()
	c.normalizeGateway()
	c.normalizeTranscription()
	c.normalizeScoring()
	c.normalizeClassifiers()
	if err := c.normalizeClips(); err != nil {
		return err
	}
	c.normalizeNotifications()
	c.normalizeLLM()
	c.normalizeWatch()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.LiveRootDir, err = expandPath(c.Paths.LiveRootDir); err != nil {
		return fmt.Errorf("paths.live_root_dir: %w", err)
	}
	if c.Paths.WorkDir, err = expandPath(strings.TrimSpace(c.Paths.WorkDir)); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("HIGHLIGHTER_API_TOKEN"); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeWebhook() {
	c.Webhook.Route = strings.TrimSpace(c.Webhook.Route)
	if c.Webhook.Route == "" {
		c.Webhook.Route = defaultWebhookRoute
	}
	if !strings.HasPrefix(c.Webhook.Route, "/") {
		c.Webhook.Route = "/" + c.Webhook.Route
	}
}

func (c *Config) normalizeGateway() {
	if c.Gateway.Workers == 0 {
		c.Gateway.Workers = defaultGatewayWorkers
	}
	if c.Gateway.QueueDepth == 0 {
		c.Gateway.QueueDepth = defaultGatewayQueueDepth
	}
}

func (c *Config) normalizeTranscription() {
	c.Transcription.WhisperXModel = strings.TrimSpace(c.Transcription.WhisperXModel)
	if c.Transcription.WhisperXModel == "" {
		c.Transcription.WhisperXModel = defaultWhisperXModel
	}
	c.Transcription.Language = strings.ToLower(strings.TrimSpace(c.Transcription.Language))
	c.Transcription.VADMethod = strings.ToLower(strings.TrimSpace(c.Transcription.VADMethod))
	if c.Transcription.VADMethod == "" {
		c.Transcription.VADMethod = defaultVADMethod
	}
	c.Transcription.HFToken = strings.TrimSpace(c.Transcription.HFToken)
	if c.Transcription.HFToken == "" {
		if value, ok := os.LookupEnv("HUGGING_FACE_HUB_TOKEN"); ok {
			c.Transcription.HFToken = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("HF_TOKEN"); ok {
			c.Transcription.HFToken = strings.TrimSpace(value)
		}
	}
	if c.Transcription.TimeoutSeconds == 0 {
		c.Transcription.TimeoutSeconds = defaultTranscribeTimeout
	}
}

func (c *Config) normalizeScoring() {
	c.Scoring.Alignment = strings.ToLower(strings.TrimSpace(c.Scoring.Alignment))
	if c.Scoring.Alignment == "" {
		c.Scoring.Alignment = defaultAlignment
	}
	if c.Scoring.Separator == "" {
		c.Scoring.Separator = defaultSeparator
	}
}

func (c *Config) normalizeClassifiers() {
	c.Classifiers.SentimentURL = strings.TrimSpace(c.Classifiers.SentimentURL)
	c.Classifiers.EmotionURL = strings.TrimSpace(c.Classifiers.EmotionURL)
	if c.Classifiers.TimeoutSeconds == 0 {
		c.Classifiers.TimeoutSeconds = defaultClassifierTimeout
	}
}

func (c *Config) normalizeClips() error {
	var err error
	if c.Clips.Dir, err = expandPath(strings.TrimSpace(c.Clips.Dir)); err != nil {
		return fmt.Errorf("clips.dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	c.Notifications.ServerChanKey = strings.TrimSpace(c.Notifications.ServerChanKey)
	if c.Notifications.ServerChanKey == "" {
		if value, ok := os.LookupEnv("SERVERCHAN_KEY"); ok {
			c.Notifications.ServerChanKey = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout == 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	if c.LLM.Referer == "" {
		c.LLM.Referer = defaultLLMReferer
	}
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.Title == "" {
		c.LLM.Title = defaultLLMTitle
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	if c.LLM.MaxTitleChars <= 0 {
		c.LLM.MaxTitleChars = defaultLLMMaxTitleChars
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeWatch() {
	exts := make([]string, 0, len(c.Watch.Extensions))
	seen := make(map[string]struct{}, len(c.Watch.Extensions))
	for _, ext := range c.Watch.Extensions {
		normalized := strings.ToLower(strings.TrimSpace(ext))
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		exts = append(exts, normalized)
	}
	if len(exts) == 0 {
		exts = append(exts, defaultWatchExtensions...)
	}
	c.Watch.Extensions = exts
	if c.Watch.SettleSeconds < 0 {
		c.Watch.SettleSeconds = 0
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
