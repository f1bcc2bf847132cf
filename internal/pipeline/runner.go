package pipeline

import (
	"context"
	"log/slog"
	"time"

	"highlighter/internal/clips"
	"highlighter/internal/config"
	"highlighter/internal/logging"
	"highlighter/internal/media/audio"
	"highlighter/internal/media/ffprobe"
	"highlighter/internal/notifications"
	"highlighter/internal/scoring"
	"highlighter/internal/services/llm"
	"highlighter/internal/services/whisperx"
)

// Stage names attached to logs and errors.
const (
	StageAudio      = "audio"
	StageTranscribe = "transcribe"
	StageWindows    = "windows"
	StageScoring    = "scoring"
	StageFusion     = "fusion"
	StageExport     = "export"
	StageClips      = "clips"
	StageNotify     = "notify"
)

// AudioFile is the converted audio written into each work directory.
const AudioFile = "audio.wav"

// AudioExtractor converts recordings to PCM and cuts slices for the emotion
// classifier.
type AudioExtractor interface {
	scoring.Slicer
	Convert(ctx context.Context, source, dest string) error
}

// Transcriber produces a transcript file for converted audio.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, outputDir string) (whisperx.Result, error)
}

// ClipCutter extracts a time range of a recording.
type ClipCutter interface {
	Cut(ctx context.Context, source string, start, end time.Duration, dest string) error
}

// TitleGenerator summarizes highlight text into a short title.
type TitleGenerator interface {
	GenerateTitle(ctx context.Context, text string) (string, error)
}

// DurationProbe reports the playable duration of a recording.
type DurationProbe func(ctx context.Context, path string) (time.Duration, error)

// Runner executes the pipeline. It is safe for concurrent use by multiple
// gateway workers; per-run state lives on the stack.
type Runner struct {
	cfg    *config.Config
	logger *slog.Logger

	audio       AudioExtractor
	transcriber Transcriber
	sentiment   scoring.TextScorer
	emotion     scoring.AudioScorer
	cutter      ClipCutter
	probe       DurationProbe
	titles      TitleGenerator
	notifier    notifications.Service
	now         func() time.Time
}

// Option customizes a Runner.
type Option func(*Runner)

// WithAudioExtractor overrides the ffmpeg audio extractor.
func WithAudioExtractor(a AudioExtractor) Option { return func(r *Runner) { r.audio = a } }

// WithTranscriber overrides the WhisperX transcriber.
func WithTranscriber(t Transcriber) Option { return func(r *Runner) { r.transcriber = t } }

// WithSentimentScorer overrides the text sentiment classifier.
func WithSentimentScorer(s scoring.TextScorer) Option { return func(r *Runner) { r.sentiment = s } }

// WithEmotionScorer overrides the acoustic emotion classifier. The minimum
// slice duration fallback is still applied in front of it.
func WithEmotionScorer(s scoring.AudioScorer) Option { return func(r *Runner) { r.emotion = s } }

// WithClipCutter overrides the ffmpeg clip cutter.
func WithClipCutter(c ClipCutter) Option { return func(r *Runner) { r.cutter = c } }

// WithDurationProbe overrides the ffprobe duration probe.
func WithDurationProbe(p DurationProbe) Option { return func(r *Runner) { r.probe = p } }

// WithTitleGenerator overrides the LLM title generator. A nil generator
// disables titles.
func WithTitleGenerator(t TitleGenerator) Option {
	return func(r *Runner) {
		r.titles = t
		if t == nil {
			r.titles = disabledTitles{}
		}
	}
}

// WithNotifier overrides the alert service.
func WithNotifier(n notifications.Service) Option { return func(r *Runner) { r.notifier = n } }

// WithClock overrides the time source used for export timestamps.
func WithClock(now func() time.Time) Option { return func(r *Runner) { r.now = now } }

// New builds a runner whose unset collaborators are derived from cfg.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Runner{cfg: cfg, logger: logging.NewComponentLogger(logger, "pipeline")}
	for _, opt := range opts {
		opt(r)
	}

	if r.audio == nil {
		r.audio = audio.NewExtractor(cfg.FFmpegBinary(), cfg.Audio.SampleRate, cfg.Audio.Channels)
	}
	if r.transcriber == nil {
		r.transcriber = whisperx.NewService(whisperx.Config{
			Model:       cfg.Transcription.WhisperXModel,
			Language:    cfg.Transcription.Language,
			CUDAEnabled: cfg.Transcription.CUDAEnabled,
			VADMethod:   cfg.Transcription.VADMethod,
			HFToken:     cfg.Transcription.HFToken,
		}, cfg.UVXBinary())
	}
	classifier := func(url string) scoring.ClientOptions {
		return scoring.ClientOptions{
			URL:               url,
			Timeout:           cfg.ClassifierTimeout(),
			RequestsPerSecond: cfg.Classifiers.RequestsPerSecond,
		}
	}
	if r.sentiment == nil {
		r.sentiment = scoring.NewHTTPSentiment(classifier(cfg.Classifiers.SentimentURL))
	}
	if r.emotion == nil {
		r.emotion = scoring.NewHTTPEmotion(classifier(cfg.Classifiers.EmotionURL), r.audio, "")
	}
	if r.cutter == nil {
		r.cutter = clips.NewCutter(cfg.FFmpegBinary())
	}
	if r.probe == nil {
		binary := cfg.FFprobeBinary()
		r.probe = func(ctx context.Context, path string) (time.Duration, error) {
			result, err := ffprobe.Inspect(ctx, binary, path)
			if err != nil {
				return 0, err
			}
			return result.Duration(), nil
		}
	}
	if r.titles == nil {
		if llmCfg := cfg.GetLLM(); llmCfg.Enabled() {
			r.titles = llm.NewClient(llm.Config{
				APIKey:         llmCfg.APIKey,
				BaseURL:        llmCfg.BaseURL,
				Model:          llmCfg.Model,
				Referer:        llmCfg.Referer,
				Title:          llmCfg.Title,
				TimeoutSeconds: llmCfg.TimeoutSeconds,
				MaxTitleChars:  llmCfg.MaxTitleChars,
			})
		} else {
			r.titles = disabledTitles{}
		}
	}
	if r.notifier == nil {
		r.notifier = notifications.NewService(cfg)
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

type disabledTitles struct{}

func (disabledTitles) GenerateTitle(context.Context, string) (string, error) { return "", nil }
