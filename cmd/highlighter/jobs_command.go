package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"highlighter/internal/api"
	"highlighter/internal/queue"
	"highlighter/internal/queueaccess"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var (
		limit    int
		statuses []string
		asJSON   bool
	)

	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "List job history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJobs(cmd.Context(), func(access queueaccess.Access) error {
				jobs, err := access.List(cmd.Context(), limit, statuses)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, api.JobListResponse{Jobs: jobs})
				}
				renderJobs(cmd, jobs, access.Live())
				return nil
			})
		},
	}
	jobsCmd.Flags().IntVarP(&limit, "limit", "n", queue.DefaultListLimit, "Maximum number of jobs to list")
	jobsCmd.Flags().StringSliceVarP(&statuses, "status", "s", nil, "Filter by status (queued, running, completed, failed)")
	jobsCmd.Flags().BoolVar(&asJSON, "json", false, "Print jobs as JSON")

	jobsCmd.AddCommand(newJobShowCommand(ctx))
	jobsCmd.AddCommand(newJobStatsCommand(ctx))
	return jobsCmd
}

func newJobShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return ctx.withJobs(cmd.Context(), func(access queueaccess.Access) error {
				job, err := access.Describe(cmd.Context(), id)
				if err != nil {
					return err
				}
				if job == nil {
					return fmt.Errorf("job %s not found", id)
				}
				if asJSON {
					return writeJSON(cmd, api.JobResponse{Job: *job})
				}
				renderJob(cmd, *job)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the job as JSON")
	return cmd
}

func newJobStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count jobs by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJobs(cmd.Context(), func(access queueaccess.Access) error {
				stats, err := access.Stats(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprint(out, renderTable([]string{"Status", "Count"}, jobStatsRows(stats), []columnAlignment{alignLeft, alignRight}, shouldColorize(out)))
				return nil
			})
		},
	}
}

func jobStatsRows(stats map[string]int) [][]string {
	rows := make([][]string, 0, len(stats))
	for _, status := range api.StatusNames(stats) {
		rows = append(rows, []string{statusLabel(status), fmt.Sprintf("%d", stats[status])})
	}
	return rows
}

func renderJobs(cmd *cobra.Command, jobs []api.Job, live bool) {
	out := cmd.OutOrStdout()
	if !live {
		fmt.Fprintln(out, "Daemon not reachable; reading job history from the local store")
	}
	if len(jobs) == 0 {
		fmt.Fprintln(out, "No jobs recorded")
		return
	}
	rows := make([][]string, 0, len(jobs))
	for _, job := range jobs {
		rows = append(rows, []string{
			job.ID,
			statusLabel(job.Status),
			job.File,
			formatScore(job.BestScore),
			fmt.Sprintf("%d", job.HighlightCount),
			job.CreatedAt,
		})
	}
	fmt.Fprint(out, renderTable(
		[]string{"ID", "Status", "File", "Best", "Highlights", "Created"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
		shouldColorize(out),
	))
}

func renderJob(cmd *cobra.Command, job api.Job) {
	out := cmd.OutOrStdout()
	fields := [][2]string{
		{"ID", job.ID},
		{"File", job.File},
		{"Room", job.Room},
		{"Streamer", job.Streamer},
		{"Title", job.Title},
		{"Status", statusLabel(job.Status)},
		{"Failure kind", job.FailureKind},
		{"Error", job.ErrorMessage},
		{"Best score", formatScore(job.BestScore)},
		{"Highlights", fmt.Sprintf("%d", job.HighlightCount)},
		{"Scores", job.ScoresPath},
		{"Created", job.CreatedAt},
		{"Started", job.StartedAt},
		{"Finished", job.FinishedAt},
	}
	if job.ElapsedSeconds > 0 {
		fields = append(fields, [2]string{"Elapsed", formatSeconds(job.ElapsedSeconds)})
	}
	for _, field := range fields {
		if strings.TrimSpace(field[1]) == "" {
			continue
		}
		fmt.Fprintf(out, "%-14s %s\n", field[0]+":", field[1])
	}
}

