package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"highlighter/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	if want := filepath.Join(tempHome, "recordings"); cfg.Paths.LiveRootDir != want {
		t.Fatalf("unexpected live root: got %q want %q", cfg.Paths.LiveRootDir, want)
	}
	if want := filepath.Join(tempHome, ".local", "share", "highlighter", "logs"); cfg.Paths.LogDir != want {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, want)
	}
	if cfg.Paths.WorkDir != "" {
		t.Fatalf("expected empty work dir by default, got %q", cfg.Paths.WorkDir)
	}
	if cfg.Paths.APIBind != "127.0.0.1:7488" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Webhook.Route != "/v1/video2script" {
		t.Fatalf("unexpected webhook route: %q", cfg.Webhook.Route)
	}
	if cfg.Gateway.Workers != 1 {
		t.Fatalf("expected one worker by default, got %d", cfg.Gateway.Workers)
	}
	s := cfg.Scoring
	if s.WindowSize != 64 || s.Stride != 4 || s.MaxTextLength != 512 || s.TopK != 3 {
		t.Fatalf("unexpected scoring defaults: %+v", s)
	}
	if s.Weights.Acoustic != 0.70 || s.Weights.Individual != 0.15 || s.Weights.Window != 0.15 {
		t.Fatalf("unexpected fusion weights: %+v", s.Weights)
	}
	if s.Alignment != config.AlignmentNominal {
		t.Fatalf("expected nominal alignment, got %q", s.Alignment)
	}
	if cfg.MinAcousticDuration().Milliseconds() != 200 {
		t.Fatalf("unexpected min acoustic duration: %s", cfg.MinAcousticDuration())
	}
	if cfg.Notifications.Threshold != 0.86 {
		t.Fatalf("unexpected notification threshold: %v", cfg.Notifications.Threshold)
	}
	if cfg.GetLLM().Enabled() {
		t.Fatal("expected title generation disabled without an API key")
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.LogDir, cfg.Paths.StateDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
	if _, err := os.Stat(cfg.Paths.LiveRootDir); !os.IsNotExist(err) {
		t.Fatalf("expected live root to be left alone, stat err=%v", err)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "highlighter.toml")

	type payload struct {
		Paths struct {
			LiveRootDir string `toml:"live_root_dir"`
			WorkDir     string `toml:"work_dir"`
		} `toml:"paths"`
		Gateway struct {
			Workers int `toml:"workers"`
		} `toml:"gateway"`
		Scoring struct {
			WindowSize int    `toml:"window_size"`
			Stride     int    `toml:"stride"`
			Alignment  string `toml:"alignment"`
		} `toml:"scoring"`
		Watch struct {
			Extensions []string `toml:"extensions"`
		} `toml:"watch"`
	}
	custom := payload{}
	custom.Paths.LiveRootDir = filepath.Join(tempDir, "live")
	custom.Paths.WorkDir = filepath.Join(tempDir, "work")
	custom.Gateway.Workers = 3
	custom.Scoring.WindowSize = 8
	custom.Scoring.Stride = 2
	custom.Scoring.Alignment = " Truncated "
	custom.Watch.Extensions = []string{"FLV", ".flv", "mp4"}
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Gateway.Workers != 3 {
		t.Fatalf("expected 3 workers, got %d", cfg.Gateway.Workers)
	}
	if cfg.Scoring.WindowSize != 8 || cfg.Scoring.Stride != 2 {
		t.Fatalf("unexpected window geometry: %+v", cfg.Scoring)
	}
	if cfg.Scoring.MaxTextLength != 512 {
		t.Fatalf("expected default max text length to survive partial file, got %d", cfg.Scoring.MaxTextLength)
	}
	if cfg.Scoring.Alignment != config.AlignmentTruncated {
		t.Fatalf("expected normalized alignment, got %q", cfg.Scoring.Alignment)
	}
	if got := strings.Join(cfg.Watch.Extensions, ","); got != ".flv,.mp4" {
		t.Fatalf("unexpected watch extensions: %q", got)
	}
	if got, want := cfg.WorkDirFor("/live/room/2024-01-01 stream.flv"), filepath.Join(tempDir, "work", "2024-01-01 stream"); got != want {
		t.Fatalf("unexpected work dir: got %q want %q", got, want)
	}
}

func TestWorkDirForDefaultsNextToRecording(t *testing.T) {
	cfg := config.Default()
	if got, want := cfg.WorkDirFor("/live/room/a.flv"), "/live/room/a"; got != want {
		t.Fatalf("unexpected work dir: got %q want %q", got, want)
	}
}

func TestEnvVarFallbacks(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SERVERCHAN_KEY", "env-sc")
	t.Setenv("OPENAI_API_KEY", "env-openai")
	t.Setenv("HF_TOKEN", "env-hf")
	t.Setenv("HIGHLIGHTER_API_TOKEN", "env-token")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Notifications.ServerChanKey != "env-sc" {
		t.Errorf("expected ServerChan key from env, got %q", cfg.Notifications.ServerChanKey)
	}
	if cfg.LLM.APIKey != "env-openai" {
		t.Errorf("expected LLM key from env, got %q", cfg.LLM.APIKey)
	}
	if cfg.Transcription.HFToken != "env-hf" {
		t.Errorf("expected HF token from env, got %q", cfg.Transcription.HFToken)
	}
	if cfg.Paths.APIToken != "env-token" {
		t.Errorf("expected API token from env, got %q", cfg.Paths.APIToken)
	}
	if !cfg.GetLLM().Enabled() {
		t.Error("expected title generation enabled with env key")
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "live_root_dir") {
		t.Fatalf("sample config missing live_root_dir: %s", contents)
	}

	cfg := config.Default()
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Scoring.Weights != config.Default().Scoring.Weights {
		t.Fatalf("sample weights drifted from defaults: %+v", cfg.Scoring.Weights)
	}
	if cfg.Webhook.Route != config.Default().Webhook.Route {
		t.Fatalf("sample webhook route drifted from defaults: %q", cfg.Webhook.Route)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cases := map[string]func(*config.Config){
		"zero workers":      func(c *config.Config) { c.Gateway.Workers = 0 },
		"zero stride":       func(c *config.Config) { c.Scoring.Stride = 0 },
		"zero window":       func(c *config.Config) { c.Scoring.WindowSize = 0 },
		"zero text length":  func(c *config.Config) { c.Scoring.MaxTextLength = 0 },
		"negative weight":   func(c *config.Config) { c.Scoring.Weights.Acoustic = -0.1 },
		"all zero weights":  func(c *config.Config) { c.Scoring.Weights = config.Weights{} },
		"bad alignment":     func(c *config.Config) { c.Scoring.Alignment = "sideways" },
		"threshold above 1": func(c *config.Config) { c.Notifications.Threshold = 1.5 },
		"relative url":      func(c *config.Config) { c.Classifiers.EmotionURL = "emotion" },
		"negative rate":     func(c *config.Config) { c.Classifiers.RequestsPerSecond = -1 },
		"negative top k":    func(c *config.Config) { c.Scoring.TopK = -1 },
		"zero sample rate":  func(c *config.Config) { c.Audio.SampleRate = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error for %s", name)
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}
