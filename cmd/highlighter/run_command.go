package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"highlighter/internal/config"
	"highlighter/internal/logging"
	"highlighter/internal/pipeline"
	"highlighter/internal/services"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		transcriptPath string
		workDir        string
		room           string
		streamer       string
		title          string
		asJSON         bool
	)

	cmd := &cobra.Command{
		Use:   "run <recording>",
		Short: "Score one recording outside the daemon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			source, err := config.ExpandPath(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("resolve recording path: %w", err)
			}
			req := pipeline.Request{
				Source:   source,
				Room:     strings.TrimSpace(room),
				Streamer: strings.TrimSpace(streamer),
				Title:    strings.TrimSpace(title),
			}
			if transcriptPath != "" {
				if req.TranscriptPath, err = config.ExpandPath(transcriptPath); err != nil {
					return fmt.Errorf("resolve transcript path: %w", err)
				}
			}
			if workDir != "" {
				if req.WorkDir, err = config.ExpandPath(workDir); err != nil {
					return fmt.Errorf("resolve work directory: %w", err)
				}
			}

			// Logs go to stderr so --json output stays machine readable.
			logger, err := logging.New(logging.Options{
				Level:       cfg.Logging.Level,
				Format:      cfg.Logging.Format,
				OutputPaths: []string{"stderr"},
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			runner := pipeline.New(cfg, logger)
			result, err := runner.Run(cmd.Context(), req)
			if err != nil {
				return describeRunError(err)
			}
			if asJSON {
				return writeJSON(cmd, runSummary(result))
			}
			renderRunResult(cmd, result)
			return nil
		},
	}

	cmd.Flags().StringVar(&transcriptPath, "transcript", "", "Use an existing .srt or WhisperX .json transcript instead of transcribing")
	cmd.Flags().StringVar(&workDir, "workdir", "", "Directory for intermediate files and exports")
	cmd.Flags().StringVar(&room, "room", "", "Room identifier to record with the job")
	cmd.Flags().StringVar(&streamer, "streamer", "", "Streamer name used in alerts")
	cmd.Flags().StringVar(&title, "title", "", "Stream title used in alerts")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the run summary as JSON")
	return cmd
}

type runSummaryJSON struct {
	WorkDir        string   `json:"work_dir"`
	ScoresPath     string   `json:"scores_path"`
	HighlightsPath string   `json:"highlights_path"`
	SegmentCount   int      `json:"segment_count"`
	WindowCount    int      `json:"window_count"`
	BestScore      float64  `json:"best_score"`
	Clips          []string `json:"clips,omitempty"`
	Alerted        bool     `json:"alerted"`
	AlertTitle     string   `json:"alert_title,omitempty"`
}

func runSummary(result pipeline.Result) runSummaryJSON {
	return runSummaryJSON{
		WorkDir:        result.WorkDir,
		ScoresPath:     result.ScoresPath,
		HighlightsPath: result.HighlightsPath,
		SegmentCount:   result.SegmentCount,
		WindowCount:    len(result.Windows),
		BestScore:      result.BestScore(),
		Clips:          result.Clips,
		Alerted:        result.Alerted,
		AlertTitle:     result.AlertTitle,
	}
}

func renderRunResult(cmd *cobra.Command, result pipeline.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Segments: %d  Windows: %d  Best score: %s\n", result.SegmentCount, len(result.Windows), formatScore(result.BestScore()))
	if len(result.Highlights) > 0 {
		rows := make([][]string, 0, len(result.Highlights))
		for _, h := range result.Highlights {
			rows = append(rows, []string{
				strconv.Itoa(h.Rank),
				formatScore(h.Composite),
				formatSeconds(h.TimeRange.Start.Seconds()),
				formatSeconds(h.TimeRange.End.Seconds()),
				truncateText(h.Window.Text, 48),
			})
		}
		fmt.Fprint(out, renderTable(
			[]string{"Rank", "Score", "Start", "End", "Text"},
			rows,
			[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignLeft},
			shouldColorize(out),
		))
	}
	fmt.Fprintf(out, "Scores: %s\n", result.ScoresPath)
	fmt.Fprintf(out, "Highlights: %s\n", result.HighlightsPath)
	for _, clip := range result.Clips {
		fmt.Fprintf(out, "Clip: %s\n", clip)
	}
	if result.Alerted {
		fmt.Fprintf(out, "Alert sent: %s\n", result.AlertTitle)
	}
}

func describeRunError(err error) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return fmt.Errorf("recording not found: %w", err)
	case services.FailureKind(err) == services.FailureInput:
		return fmt.Errorf("invalid input: %w", err)
	default:
		return err
	}
}
