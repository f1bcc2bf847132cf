package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	LiveRootDir string `toml:"live_root_dir"`
	WorkDir     string `toml:"work_dir"`
	LogDir      string `toml:"log_dir"`
	StateDir    string `toml:"state_dir"`
	APIBind     string `toml:"api_bind"`
	APIToken    string `toml:"api_token"`
}

// Webhook contains configuration for the recorder webhook endpoint.
type Webhook struct {
	Route string `toml:"route"`
	// Public exempts the webhook route from bearer-token auth so recorders
	// that cannot send headers can still post events.
	Public bool `toml:"public"`
}

// Gateway contains configuration for the job intake worker pool.
type Gateway struct {
	Workers    int `toml:"workers"`
	QueueDepth int `toml:"queue_depth"`
}

// Audio contains the ffmpeg conversion parameters applied before transcription.
type Audio struct {
	SampleRate int `toml:"sample_rate"`
	Channels   int `toml:"channels"`
}

// Transcription contains configuration for the WhisperX collaborator.
type Transcription struct {
	WhisperXModel  string `toml:"whisperx_model"`
	Language       string `toml:"language"`
	CUDAEnabled    bool   `toml:"cuda_enabled"`
	VADMethod      string `toml:"vad_method"`
	HFToken        string `toml:"hf_token"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Weights controls the fusion policy.
type Weights struct {
	Acoustic   float64 `toml:"acoustic"`
	Individual float64 `toml:"individual"`
	Window     float64 `toml:"window"`
}

// Scoring contains sliding-window and fusion settings.
type Scoring struct {
	WindowSize        int     `toml:"window_size"`
	Stride            int     `toml:"stride"`
	MaxTextLength     int     `toml:"max_text_length"`
	Separator         string  `toml:"separator"`
	TopK              int     `toml:"top_k"`
	MinAcousticMillis int     `toml:"min_acoustic_millis"`
	Alignment         string  `toml:"alignment"`
	Weights           Weights `toml:"weights"`
}

// Classifiers contains the HTTP endpoints of the sentiment and emotion services.
type Classifiers struct {
	SentimentURL      string  `toml:"sentiment_url"`
	EmotionURL        string  `toml:"emotion_url"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// Clips contains configuration for highlight clip extraction.
type Clips struct {
	Enabled        bool    `toml:"enabled"`
	Threshold      float64 `toml:"threshold"`
	PaddingSeconds float64 `toml:"padding_seconds"`
	Dir            string  `toml:"dir"`
}

// Notifications contains configuration for highlight alerts.
type Notifications struct {
	Threshold      float64 `toml:"threshold"`
	NtfyTopic      string  `toml:"ntfy_topic"`
	ServerChanKey  string  `toml:"serverchan_key"`
	RequestTimeout int     `toml:"request_timeout"`
}

// LLM contains connection settings for alert title generation.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxTitleChars  int    `toml:"max_title_chars"`
}

// Watch contains configuration for the optional directory watcher intake.
type Watch struct {
	Enabled       bool     `toml:"enabled"`
	Extensions    []string `toml:"extensions"`
	SettleSeconds int      `toml:"settle_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for the highlighter.
//
// Configuration sections by subsystem:
//   - Paths: recorder root, work/log/state directories, and API bind address
//   - Webhook: recorder webhook route and auth exemption
//   - Gateway: worker pool size and queue depth
//   - Audio: ffmpeg conversion parameters
//   - Transcription: WhisperX model and runtime options
//   - Scoring: window generation, alignment, and fusion weights
//   - Classifiers: sentiment and emotion service endpoints
//   - Clips: highlight clip extraction
//   - Notifications: alert threshold and delivery targets
//   - LLM: optional alert title generation
//   - Watch: optional directory watcher intake
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Webhook       Webhook       `toml:"webhook"`
	Gateway       Gateway       `toml:"gateway"`
	Audio         Audio         `toml:"audio"`
	Transcription Transcription `toml:"transcription"`
	Scoring       Scoring       `toml:"scoring"`
	Classifiers   Classifiers   `toml:"classifiers"`
	Clips         Clips         `toml:"clips"`
	Notifications Notifications `toml:"notifications"`
	LLM           LLM           `toml:"llm"`
	Watch         Watch         `toml:"watch"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("highlighter.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
// The live root is owned by the recorder and is never created here.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LogDir, c.Paths.StateDir}
	if strings.TrimSpace(c.Paths.WorkDir) != "" {
		dirs = append(dirs, c.Paths.WorkDir)
	}
	if c.Clips.Enabled && strings.TrimSpace(c.Clips.Dir) != "" {
		dirs = append(dirs, c.Clips.Dir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable name.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for duration probes.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

// UVXBinary returns the uvx executable used to launch WhisperX.
func (c *Config) UVXBinary() string {
	return "uvx"
}

// StorePath returns the SQLite job history location.
func (c *Config) StorePath() string {
	return filepath.Join(c.Paths.StateDir, "jobs.db")
}

// LockPath returns the daemon single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "highlighterd.lock")
}

// PIDPath returns the daemon pid file location.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Paths.StateDir, "highlighterd.pid")
}

// WorkDirFor returns the directory holding artefacts for a recording. When
// paths.work_dir is empty the directory sits next to the recording and is named
// after it without its extension; otherwise it is nested under work_dir.
func (c *Config) WorkDirFor(source string) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		return filepath.Join(filepath.Dir(source), base)
	}
	return filepath.Join(c.Paths.WorkDir, base)
}

// ClassifierTimeout returns the per-request classifier timeout.
func (c *Config) ClassifierTimeout() time.Duration {
	return time.Duration(c.Classifiers.TimeoutSeconds) * time.Second
}

// NotificationTimeout returns the per-request notification timeout.
func (c *Config) NotificationTimeout() time.Duration {
	return time.Duration(c.Notifications.RequestTimeout) * time.Second
}

// MinAcousticDuration returns the shortest audio slice sent to the emotion classifier.
func (c *Config) MinAcousticDuration() time.Duration {
	return time.Duration(c.Scoring.MinAcousticMillis) * time.Millisecond
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// LLMConfig contains the resolved title generation settings.
type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
	MaxTitleChars  int
}

// Enabled reports whether title generation has credentials.
func (l LLMConfig) Enabled() bool {
	return strings.TrimSpace(l.APIKey) != ""
}

// GetLLM returns the title generation connection settings.
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		APIKey:         strings.TrimSpace(c.LLM.APIKey),
		BaseURL:        strings.TrimSpace(c.LLM.BaseURL),
		Model:          strings.TrimSpace(c.LLM.Model),
		Referer:        strings.TrimSpace(c.LLM.Referer),
		Title:          strings.TrimSpace(c.LLM.Title),
		TimeoutSeconds: c.LLM.TimeoutSeconds,
		MaxTitleChars:  c.LLM.MaxTitleChars,
	}
}
