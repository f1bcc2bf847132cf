package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"highlighter/internal/clips"
	"highlighter/internal/logging"
	"highlighter/internal/notifications"
	"highlighter/internal/ranking"
	"highlighter/internal/services"
	"highlighter/internal/textutil"
)

const alertExcerptChars = 300

// extractClips cuts every highlight above clips.threshold. Failures are
// logged per clip; the returned paths are the clips that were written.
func (r *Runner) extractClips(ctx context.Context, logger *slog.Logger, source string, result Result) []string {
	cfg := r.cfg.Clips
	if !cfg.Enabled {
		return nil
	}
	ctx = services.WithStage(ctx, StageClips)
	logger = logger.With(logging.String(logging.FieldStage, StageClips))

	selected := ranking.Above(result.Highlights, cfg.Threshold)
	if len(selected) == 0 {
		logger.Info("no highlights above clip threshold",
			logging.String(logging.FieldEventType, "clips_skipped"),
			logging.Float64("threshold", cfg.Threshold),
			logging.Float64("best_score", result.BestScore()),
		)
		return nil
	}

	duration, err := r.probe(ctx, source)
	if err != nil {
		logging.WarnWithContext(logger, "duration probe failed; clip padding left unclamped", "clips_probe_failed",
			logging.String(logging.FieldErrorHint, "check that ffprobe can read the recording"),
			logging.String(logging.FieldImpact, "clips near the end of the stream may be shorter than expected"),
			logging.Error(err),
		)
		duration = 0
	}

	dir := strings.TrimSpace(cfg.Dir)
	if dir == "" {
		dir = filepath.Join(result.WorkDir, "clips")
	}
	padding := time.Duration(cfg.PaddingSeconds * float64(time.Second))

	var written []string
	for _, rec := range selected {
		start, end := clips.Bounds(rec.TimeRange.Start, rec.TimeRange.End, padding, duration)
		dest := filepath.Join(dir, clips.FileName(source, rec.Rank, rec.TimeRange.Start))
		if err := r.cutter.Cut(ctx, source, start, end, dest); err != nil {
			logging.WarnWithContext(logger, "clip extraction failed", "clip_failed",
				logging.Int("rank", rec.Rank),
				logging.String(logging.FieldImpact, "highlight kept in highlights.json without a clip"),
				logging.Error(err),
			)
			continue
		}
		written = append(written, dest)
		logger.Info("clip extracted",
			logging.String(logging.FieldEventType, "clip_extracted"),
			logging.Int("rank", rec.Rank),
			logging.Float64("composite", rec.Composite),
			logging.String("clip", dest),
		)
	}
	return written
}

// notify alerts on the top highlight when it beats the notification
// threshold. Delivery is attempted once and recorded in notification.json.
func (r *Runner) notify(ctx context.Context, logger *slog.Logger, req Request, result *Result) {
	ctx = services.WithStage(ctx, StageNotify)
	logger = logger.With(logging.String(logging.FieldStage, StageNotify))
	threshold := r.cfg.Notifications.Threshold

	if len(result.Highlights) == 0 || result.Highlights[0].Composite <= threshold {
		attrs := append(logging.DecisionAttrs("notification", "skipped", "below_threshold"),
			logging.Float64("threshold", threshold),
			logging.Float64("best_score", result.BestScore()),
		)
		logger.Info("top highlight below notification threshold", logging.Args(attrs...)...)
		return
	}
	if !r.notifier.Enabled() {
		logger.Info("notification skipped",
			logging.Args(logging.DecisionAttrs("notification", "skipped", "no_target_configured")...)...)
		return
	}

	top := result.Highlights[0]
	title, err := r.titles.GenerateTitle(ctx, top.Window.Text)
	if err != nil {
		logging.WarnWithContext(logger, "title generation failed", "title_failed",
			logging.String(logging.FieldImpact, "alert sent without a generated title"),
			logging.Error(err),
		)
		title = ""
	}
	result.AlertTitle = title

	alert := notifications.Alert{
		Rank:           top.Rank,
		WindowIndex:    top.Window.Index,
		Score:          top.Composite,
		Threshold:      threshold,
		Start:          top.TimeRange.Start,
		End:            top.TimeRange.End,
		Room:           req.Room,
		Streamer:       req.Streamer,
		StreamTitle:    req.Title,
		ClickbaitTitle: title,
		Excerpt:        textutil.Excerpt(top.Window.Text, alertExcerptChars),
	}
	msg := alert.Message()
	record := notifications.Record{
		SentAt:    r.now().UTC(),
		Title:     msg.Title,
		Body:      msg.Body,
		Score:     top.Composite,
		Threshold: threshold,
	}
	if err := r.notifier.NotifyHighlight(ctx, alert); err != nil {
		record.Error = err.Error()
		logging.WarnWithContext(logger, "highlight alert failed", "notification_failed",
			logging.String(logging.FieldErrorHint, "check notification targets in config.toml"),
			logging.String(logging.FieldImpact, "no alert delivered for this recording"),
			logging.Error(err),
		)
	} else {
		record.Delivered = true
		result.Alerted = true
		attrs := append(logging.DecisionAttrs("notification", "sent", "above_threshold"),
			logging.Float64("score", top.Composite),
			logging.Float64("threshold", threshold),
		)
		logger.Info("highlight alert sent", logging.Args(attrs...)...)
	}
	if err := notifications.AppendRecord(result.WorkDir, record); err != nil {
		logger.Warn("failed to record alert", logging.Error(err))
	}
}
