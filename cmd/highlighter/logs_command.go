package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"highlighter/internal/logs"
	"highlighter/internal/pipeline"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		jobID  string
		lines  int
		follow bool
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show daemon or per-job logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			var path string
			if id := strings.TrimSpace(jobID); id != "" {
				path, err = logs.FindJobLog(filepath.Join(cfg.Paths.LogDir, pipeline.JobLogDir), id)
			} else {
				path, err = logs.DaemonLogPath(cfg.Paths.LogDir)
			}
			if err != nil {
				if errors.Is(err, logs.ErrNoLog) {
					fmt.Fprintln(cmd.OutOrStdout(), "No log output yet")
					return nil
				}
				return err
			}

			out := cmd.OutOrStdout()
			result, err := logs.Tail(cmd.Context(), path, logs.TailOptions{Offset: -1, Limit: lines})
			if err != nil {
				return err
			}
			for _, line := range result.Lines {
				fmt.Fprintln(out, line)
			}
			for follow {
				result, err = logs.Tail(cmd.Context(), path, logs.TailOptions{Offset: result.Offset, Follow: true, Wait: 5 * time.Second})
				if err != nil {
					return err
				}
				for _, line := range result.Lines {
					fmt.Fprintln(out, line)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&jobID, "job", "", "Show the log of one job (ID or ID prefix)")
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	return cmd
}
