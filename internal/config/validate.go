package config

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateGateway(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateScoring(); err != nil {
		return err
	}
	if err := c.validateClassifiers(); err != nil {
		return err
	}
	if err := c.validateThresholds(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.LiveRootDir) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("paths.live_root_dir is required. Edit %s (create with 'highlighter config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateGateway() error {
	return ensurePositiveMap(map[string]int{
		"gateway.workers":               c.Gateway.Workers,
		"gateway.queue_depth":           c.Gateway.QueueDepth,
		"transcription.timeout_seconds": c.Transcription.TimeoutSeconds,
		"classifiers.timeout_seconds":   c.Classifiers.TimeoutSeconds,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	})
}

func (c *Config) validateAudio() error {
	return ensurePositiveMap(map[string]int{
		"audio.sample_rate": c.Audio.SampleRate,
		"audio.channels":    c.Audio.Channels,
	})
}

func (c *Config) validateScoring() error {
	s := c.Scoring
	if err := ensurePositiveMap(map[string]int{
		"scoring.window_size":     s.WindowSize,
		"scoring.stride":          s.Stride,
		"scoring.max_text_length": s.MaxTextLength,
	}); err != nil {
		return err
	}
	if s.TopK < 0 {
		return errors.New("scoring.top_k must be >= 0")
	}
	if s.MinAcousticMillis < 0 {
		return errors.New("scoring.min_acoustic_millis must be >= 0")
	}
	switch s.Alignment {
	case AlignmentNominal, AlignmentTruncated:
	default:
		return fmt.Errorf("scoring.alignment must be %q or %q, got %q", AlignmentNominal, AlignmentTruncated, s.Alignment)
	}
	for key, value := range map[string]float64{
		"scoring.weights.acoustic":   s.Weights.Acoustic,
		"scoring.weights.individual": s.Weights.Individual,
		"scoring.weights.window":     s.Weights.Window,
	} {
		if value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
			return fmt.Errorf("%s must be a finite value >= 0", key)
		}
	}
	if s.Weights.Acoustic+s.Weights.Individual+s.Weights.Window == 0 {
		return errors.New("scoring.weights must not all be zero")
	}
	return nil
}

func (c *Config) validateClassifiers() error {
	for key, value := range map[string]string{
		"classifiers.sentiment_url": c.Classifiers.SentimentURL,
		"classifiers.emotion_url":   c.Classifiers.EmotionURL,
	} {
		if value == "" {
			return fmt.Errorf("%s must be set", key)
		}
		parsed, err := url.Parse(value)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("%s must be an absolute URL, got %q", key, value)
		}
	}
	if c.Classifiers.RequestsPerSecond < 0 {
		return errors.New("classifiers.requests_per_second must be >= 0")
	}
	return nil
}

func (c *Config) validateThresholds() error {
	if c.Notifications.Threshold < 0 || c.Notifications.Threshold > 1 {
		return errors.New("notifications.threshold must be between 0 and 1")
	}
	if c.Clips.Threshold < 0 || c.Clips.Threshold > 1 {
		return errors.New("clips.threshold must be between 0 and 1")
	}
	if c.Clips.PaddingSeconds < 0 {
		return errors.New("clips.padding_seconds must be >= 0")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
