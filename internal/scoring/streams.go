package scoring

import (
	"context"
	"fmt"
	"log/slog"

	"highlighter/internal/logging"
	"highlighter/internal/services"
	"highlighter/internal/transcript"
	"highlighter/internal/window"
)

const progressEvery = 50

// ScoreSegments classifies every segment's text, in order.
func ScoreSegments(ctx context.Context, scorer TextScorer, segments []transcript.Segment, logger *slog.Logger) ([]Result, error) {
	logger = logging.NewComponentLogger(logger, "scoring")
	results := make([]Result, len(segments))
	for i, seg := range segments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := scorer.Score(ctx, seg.Text)
		if err != nil {
			return nil, services.Wrap(services.ErrExternalTool, "scoring", "segment sentiment", fmt.Sprintf("segment %d", seg.Index), err)
		}
		res.Score = Clamp(res.Score)
		results[i] = res
		logProgress(logger, "segment sentiment", i+1, len(segments))
	}
	return results, nil
}

// ScoreWindows classifies each window's combined text and records the verdict
// on the window in place.
func ScoreWindows(ctx context.Context, scorer TextScorer, windows []window.Window, logger *slog.Logger) error {
	logger = logging.NewComponentLogger(logger, "scoring")
	for i := range windows {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := scorer.Score(ctx, windows[i].Text)
		if err != nil {
			return services.Wrap(services.ErrExternalTool, "scoring", "window sentiment", fmt.Sprintf("window %d", windows[i].Index), err)
		}
		windows[i].SentimentLabel = res.Label
		windows[i].Sentiment = Clamp(res.Score)
		logProgress(logger, "window sentiment", i+1, len(windows))
	}
	return nil
}

// ScoreAcoustic classifies the audio under every segment of audioPath, in order.
func ScoreAcoustic(ctx context.Context, scorer AudioScorer, audioPath string, segments []transcript.Segment, logger *slog.Logger) ([]Result, error) {
	logger = logging.NewComponentLogger(logger, "scoring")
	results := make([]Result, len(segments))
	for i, seg := range segments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := scorer.Score(ctx, AudioSlice{Path: audioPath, Start: seg.Start, End: seg.End})
		if err != nil {
			return nil, services.Wrap(services.ErrExternalTool, "scoring", "acoustic emotion", fmt.Sprintf("segment %d", seg.Index), err)
		}
		res.Score = Clamp(res.Score)
		results[i] = res
		logProgress(logger, "acoustic emotion", i+1, len(segments))
	}
	return results, nil
}

// Scores projects results to their confidence values.
func Scores(results []Result) []float64 {
	out := make([]float64, len(results))
	for i, res := range results {
		out[i] = res.Score
	}
	return out
}

func logProgress(logger *slog.Logger, stream string, done, total int) {
	if done != total && done%progressEvery != 0 {
		return
	}
	logger.Debug("scoring progress",
		logging.String("stream", stream),
		logging.Int("done", done),
		logging.Int("total", total),
	)
}
