package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"highlighter/internal/export"
	"highlighter/internal/fusion"
	"highlighter/internal/logging"
	"highlighter/internal/ranking"
	"highlighter/internal/scoring"
	"highlighter/internal/services"
	"highlighter/internal/transcript"
	"highlighter/internal/window"
)

// Request describes one recording to process.
type Request struct {
	// Source is the absolute path of the recording.
	Source   string
	Room     string
	Streamer string
	Title    string
	// TranscriptPath, when set, skips WhisperX and loads this file instead.
	TranscriptPath string
	// WorkDir overrides the configured work directory for the recording.
	WorkDir string
}

// Result captures the artefacts of a successful run.
type Result struct {
	WorkDir        string
	AudioPath      string
	TranscriptPath string
	ScoresPath     string
	HighlightsPath string
	SegmentCount   int
	Windows        []window.Window
	Skipped        []int
	Highlights     []ranking.HighlightRecord
	Clips          []string
	Alerted        bool
	AlertTitle     string
}

// BestScore returns the top composite, or 0 when nothing ranked.
func (r Result) BestScore() float64 {
	if len(r.Highlights) == 0 {
		return 0
	}
	return r.Highlights[0].Composite
}

// Run processes req end to end. Exports are only written after ranking
// succeeds; clip and alert failures are logged and do not fail the run.
func (r *Runner) Run(ctx context.Context, req Request) (Result, error) {
	var result Result

	source := strings.TrimSpace(req.Source)
	if source == "" {
		return result, services.Wrap(services.ErrValidation, "pipeline", "run", "source path required", nil)
	}
	if info, err := os.Stat(source); err != nil || info.IsDir() {
		return result, services.Wrap(services.ErrNotFound, "pipeline", "run", fmt.Sprintf("recording %s not readable", source), err)
	}
	ctx = services.WithFile(ctx, source)
	logger := logging.WithContext(ctx, r.logger)

	result.WorkDir = req.WorkDir
	if result.WorkDir == "" {
		result.WorkDir = r.cfg.WorkDirFor(source)
	}
	if err := os.MkdirAll(result.WorkDir, 0o755); err != nil {
		return result, services.Wrap(services.ErrConfiguration, "pipeline", "run", "create work directory", err)
	}
	started := time.Now()
	logger.Info("pipeline started",
		logging.String(logging.FieldEventType, "pipeline_start"),
		logging.String("work_dir", result.WorkDir),
		logging.String("room", req.Room),
		logging.String("streamer", req.Streamer),
	)

	result.AudioPath = filepath.Join(result.WorkDir, AudioFile)
	if err := r.stage(ctx, logger, StageAudio, func(ctx context.Context) error {
		return r.audio.Convert(ctx, source, result.AudioPath)
	}); err != nil {
		return result, err
	}

	if err := r.stage(ctx, logger, StageTranscribe, func(ctx context.Context) error {
		path, err := r.transcribe(ctx, req, result)
		result.TranscriptPath = path
		return err
	}); err != nil {
		return result, err
	}

	var (
		segments []transcript.Segment
		windows  []window.Window
	)
	if err := r.stage(ctx, logger, StageWindows, func(ctx context.Context) error {
		store, err := transcript.Load(result.TranscriptPath)
		if err != nil {
			return err
		}
		segments = store.Segments()
		generated, err := window.Generate(segments, r.windowOptions())
		if err != nil {
			return err
		}
		windows = generated.Windows
		result.Skipped = generated.Skipped
		logger.Info("windows generated",
			logging.String(logging.FieldEventType, "windows_generated"),
			logging.Int("segments", len(segments)),
			logging.Int("windows", len(windows)),
			logging.Int("truncated", generated.Truncated),
			logging.Int("skipped", len(generated.Skipped)),
		)
		return nil
	}); err != nil {
		return result, err
	}
	result.SegmentCount = len(segments)

	var individual, acoustic []float64
	if err := r.stage(ctx, logger, StageScoring, func(ctx context.Context) error {
		stageLogger := logging.WithContext(ctx, r.logger)
		segmentResults, err := scoring.ScoreSegments(ctx, r.sentiment, segments, stageLogger)
		if err != nil {
			return err
		}
		individual = scoring.Scores(segmentResults)
		if err := scoring.ScoreWindows(ctx, r.sentiment, windows, stageLogger); err != nil {
			return err
		}
		emotion := scoring.MinDurationScorer{Next: r.emotion, Min: r.cfg.MinAcousticDuration()}
		acousticResults, err := scoring.ScoreAcoustic(ctx, emotion, result.AudioPath, segments, stageLogger)
		if err != nil {
			return err
		}
		acoustic = scoring.Scores(acousticResults)
		return nil
	}); err != nil {
		return result, err
	}

	if err := r.stage(ctx, logger, StageFusion, func(context.Context) error {
		fused, err := fusion.Fuse(windows, individual, acoustic, r.fusionOptions())
		if err != nil {
			return err
		}
		result.Windows = fused
		result.Highlights = ranking.Rank(fused, r.cfg.Scoring.TopK)
		return nil
	}); err != nil {
		return result, err
	}

	if err := r.stage(ctx, logger, StageExport, func(context.Context) error {
		return r.export(source, &result)
	}); err != nil {
		return result, err
	}

	result.Clips = r.extractClips(ctx, logger, source, result)
	r.notify(ctx, logger, req, &result)

	logger.Info("pipeline completed",
		logging.String(logging.FieldEventType, "pipeline_complete"),
		logging.Int("windows", len(result.Windows)),
		logging.Int("highlights", len(result.Highlights)),
		logging.Float64("best_score", result.BestScore()),
		logging.Int("clips", len(result.Clips)),
		logging.Bool("alerted", result.Alerted),
		logging.Duration("elapsed", time.Since(started)),
	)
	return result, nil
}

func (r *Runner) transcribe(ctx context.Context, req Request, result Result) (string, error) {
	if path := strings.TrimSpace(req.TranscriptPath); path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", services.Wrap(services.ErrNotFound, StageTranscribe, "load", fmt.Sprintf("transcript %s", path), err)
		}
		return path, nil
	}
	if timeout := r.cfg.Transcription.TimeoutSeconds; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
		defer cancel()
	}
	out, err := r.transcriber.Transcribe(ctx, result.AudioPath, result.WorkDir)
	if err != nil {
		return "", err
	}
	return out.Transcript(), nil
}

func (r *Runner) windowOptions() window.Options {
	return window.Options{
		Size:          r.cfg.Scoring.WindowSize,
		Stride:        r.cfg.Scoring.Stride,
		MaxTextLength: r.cfg.Scoring.MaxTextLength,
		Separator:     r.cfg.Scoring.Separator,
	}
}

func (r *Runner) fusionOptions() fusion.Options {
	w := r.cfg.Scoring.Weights
	return fusion.Options{
		Weights:   fusion.Weights{Acoustic: w.Acoustic, Individual: w.Individual, Window: w.Window},
		Alignment: fusion.Alignment(r.cfg.Scoring.Alignment),
		Stride:    r.cfg.Scoring.Stride,
		Size:      r.cfg.Scoring.WindowSize,
	}
}

func (r *Runner) export(source string, result *Result) error {
	opts := r.fusionOptions()
	scores := export.BuildScores(export.Meta{
		Source:        source,
		SegmentCount:  result.SegmentCount,
		WindowSize:    r.cfg.Scoring.WindowSize,
		Stride:        r.cfg.Scoring.Stride,
		MaxTextLength: r.cfg.Scoring.MaxTextLength,
		Alignment:     opts.Alignment,
		Weights:       opts.Weights,
		Skipped:       result.Skipped,
	}, result.Windows)

	scoresPath := filepath.Join(result.WorkDir, export.ScoresFile)
	highlightsPath := filepath.Join(result.WorkDir, export.HighlightsFile)
	if err := export.WriteScores(scoresPath, scores); err != nil {
		return err
	}
	highlights := export.BuildHighlights(source, r.now(), r.cfg.Scoring.TopK, result.Highlights)
	if err := export.WriteHighlights(highlightsPath, highlights); err != nil {
		return err
	}
	result.ScoresPath = scoresPath
	result.HighlightsPath = highlightsPath
	return nil
}

// stage runs fn with stage context attached and logs its boundaries.
func (r *Runner) stage(ctx context.Context, logger *slog.Logger, name string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return services.Wrap(services.ErrTimeout, name, "start", "run cancelled", err)
	}
	stageCtx := services.WithStage(ctx, name)
	stageLogger := logger.With(logging.String(logging.FieldStage, name))
	began := time.Now()
	stageLogger.Debug("stage started", logging.String(logging.FieldEventType, "stage_start"))

	if err := fn(stageCtx); err != nil {
		logging.ErrorWithContext(stageLogger, "stage failed", "stage_failure",
			logging.String("failure_kind", services.FailureKind(err)),
			logging.Duration("elapsed", time.Since(began)),
			logging.Error(err),
		)
		return err
	}
	stageLogger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("elapsed", time.Since(began)),
	)
	return nil
}
