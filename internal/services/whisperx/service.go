package whisperx

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"highlighter/internal/language"
	"highlighter/internal/services"
)

// CommandRunner executes an external command.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Service provides WhisperX transcription capabilities.
type Service struct {
	cfg           Config
	uvxBinary     string
	commandRunner CommandRunner
}

// NewService creates a WhisperX service with the given configuration.
func NewService(cfg Config, uvxBinary string) *Service {
	if strings.TrimSpace(uvxBinary) == "" {
		uvxBinary = UVXCommand
	}
	return &Service{
		cfg:       cfg,
		uvxBinary: uvxBinary,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner CommandRunner) {
	s.commandRunner = runner
}

// Model returns the configured model name for logging.
func (s *Service) Model() string {
	if s.cfg.Model != "" {
		return s.cfg.Model
	}
	return DefaultModel
}

// CUDAEnabled returns whether CUDA is enabled.
func (s *Service) CUDAEnabled() bool {
	return s.cfg.CUDAEnabled
}

// run executes a command, using the custom runner if set.
func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec

	// Torch 2.6 changed torch.load default to weights_only=true, breaking WhisperX/pyannote.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Result contains the artefacts of a transcription.
type Result struct {
	// JSONPath is the WhisperX JSON output, preferred for segment loading.
	JSONPath string
	// SRTPath is the SubRip output (if produced).
	SRTPath string
}

// Transcript returns the best available transcript path.
func (r Result) Transcript() string {
	if r.JSONPath != "" {
		return r.JSONPath
	}
	return r.SRTPath
}

// OutputPaths returns where WhisperX writes its outputs for source.
func OutputPaths(source, outputDir string) Result {
	baseName := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	return Result{
		JSONPath: filepath.Join(outputDir, baseName+".json"),
		SRTPath:  filepath.Join(outputDir, baseName+".srt"),
	}
}

// Transcribe runs WhisperX on a converted audio file. Outputs from earlier
// runs are removed first so a failed run never leaves a stale transcript.
func (s *Service) Transcribe(ctx context.Context, source, outputDir string) (Result, error) {
	if strings.TrimSpace(source) == "" {
		return Result{}, services.Wrap(services.ErrValidation, "transcribe", "whisperx", "source path required", nil)
	}
	if outputDir == "" {
		outputDir = filepath.Dir(source)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("transcribe: ensure output dir: %w", err)
	}

	expected := OutputPaths(source, outputDir)
	if err := removeStaleOutputs(source, outputDir); err != nil {
		return Result{}, err
	}

	args := s.buildArgs(source, outputDir)
	if err := s.run(ctx, s.uvxBinary, args...); err != nil {
		if ctx.Err() != nil {
			return Result{}, services.Wrap(services.ErrTimeout, "transcribe", "whisperx", "transcription interrupted", ctx.Err())
		}
		return Result{}, services.Wrap(services.ErrExternalTool, "transcribe", "whisperx", "whisperx failed", err)
	}

	var result Result
	if fileExists(expected.JSONPath) {
		result.JSONPath = expected.JSONPath
	}
	if fileExists(expected.SRTPath) {
		result.SRTPath = expected.SRTPath
	}
	if result.Transcript() == "" {
		return Result{}, services.Wrap(services.ErrExternalTool, "transcribe", "whisperx",
			fmt.Sprintf("no transcript written to %s", outputDir), nil)
	}
	return result, nil
}

// buildArgs constructs the uvx command arguments for WhisperX.
func (s *Service) buildArgs(source, outputDir string) []string {
	args := make([]string, 0, 36)

	if s.cfg.CUDAEnabled {
		args = append(args,
			"--index-url", CUDAIndexURL,
			"--extra-index-url", PypiIndexURL,
		)
	} else {
		args = append(args, "--index-url", PypiIndexURL)
	}

	args = append(args,
		"whisperx",
		source,
		"--model", s.Model(),
		"--batch_size", BatchSize,
		"--output_dir", outputDir,
		"--output_format", OutputFormat,
		"--segment_resolution", SegmentResolution,
		"--chunk_size", ChunkSize,
		"--vad_onset", VADOnset,
		"--vad_offset", VADOffset,
		"--beam_size", BeamSize,
		"--temperature", Temperature,
	)

	vadMethod := s.cfg.VADMethod
	if vadMethod == "" {
		vadMethod = VADMethodSilero
	}
	args = append(args, "--vad_method", vadMethod)
	if vadMethod == VADMethodPyannote && s.cfg.HFToken != "" {
		args = append(args, "--hf_token", s.cfg.HFToken)
	}

	if lang := language.ToWhisper(s.cfg.Language); lang != "" {
		args = append(args, "--language", lang)
	}

	if s.cfg.CUDAEnabled {
		args = append(args, "--device", CUDADevice)
	} else {
		args = append(args, "--device", CPUDevice, "--compute_type", CPUComputeType)
	}

	return args
}

// outputExtensions are the files WhisperX emits for --output_format all.
var outputExtensions = []string{".json", ".srt", ".txt", ".vtt", ".tsv"}

func removeStaleOutputs(source, outputDir string) error {
	baseName := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	for _, ext := range outputExtensions {
		path := filepath.Join(outputDir, baseName+ext)
		if path == source {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("transcribe: remove stale output: %w", err)
		}
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Size() > 0
}
