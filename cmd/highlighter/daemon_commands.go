package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"highlighter/internal/daemonctl"
)

const daemonBinary = "highlighterd"

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	var startLevel string
	var startDev bool
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start highlighterd in the background",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			result, err := daemonctl.EnsureStarted(cmd.Context(), client, exe, daemonLaunchOptions(ctx, startLevel, startDev), 10*time.Second)
			if err != nil {
				return err
			}
			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintln(stdout, "Daemon started")
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon already running")
			}
			return nil
		},
	}
	startCmd.Flags().StringVar(&startLevel, "log-level", "", "Override the configured log level")
	startCmd.Flags().BoolVar(&startDev, "dev", false, "Enable development logging with source locations")

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop highlighterd",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			result, err := daemonctl.StopAndTerminate(cmd.Context(), client, ctx.configValue(), 10*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if result.ForcedKill {
				fmt.Fprintf(stdout, "Daemon did not exit in time; killed pid %d\n", result.PID)
				return nil
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, dependency, and job status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			snap, err := daemonctl.BuildStatusSnapshot(cmd.Context(), client, cfg)
			if err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			for _, line := range renderSectionHeader("Daemon", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, line := range daemonLines(snap, cfg.Paths.APIBind, colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Dependencies", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, line := range dependencyLines(snap.Dependencies, colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Checks", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, check := range snap.Checks {
				kind := statusOK
				if !check.Passed {
					kind = statusError
				}
				fmt.Fprintln(stdout, renderStatusLine(check.Name, kind, check.Detail, colorize))
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Jobs", colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprint(stdout, renderTable([]string{"Status", "Count"}, jobStatsRows(snap.JobStats), []columnAlignment{alignLeft, alignRight}, colorize))
			return nil
		},
	}

	return []*cobra.Command{startCmd, stopCmd, statusCmd}
}

func daemonLines(snap daemonctl.Snapshot, bind string, colorize bool) []string {
	status := snap.Daemon
	if !status.Running {
		return []string{renderStatusLine("highlighterd", statusWarn, fmt.Sprintf("Not running (api %s)", bind), colorize)}
	}
	lines := []string{
		renderStatusLine("highlighterd", statusOK, fmt.Sprintf("Running (pid %d, since %s)", status.PID, status.StartedAt), colorize),
		renderStatusLine("Webhook", statusInfo, fmt.Sprintf("POST %s on %s", status.WebhookRoute, bind), colorize),
		renderStatusLine("Watcher", statusInfo, yesNo(status.Watching), colorize),
		renderStatusLine("Workers", statusInfo, fmt.Sprintf("%d (queue depth %d)", status.Gateway.Workers, status.Gateway.QueueDepth), colorize),
	}
	active := "idle"
	if len(status.Gateway.Active) > 0 {
		active = strings.Join(status.Gateway.Active, ", ")
	}
	lines = append(lines, renderStatusLine("Active", statusInfo, active, colorize))
	return lines
}

// daemonExecutable prefers a highlighterd binary installed next to this CLI.
func daemonExecutable() (string, error) {
	if exe, err := os.Executable(); err == nil {
		sibling := filepath.Join(filepath.Dir(exe), daemonBinary)
		if info, statErr := os.Stat(sibling); statErr == nil && !info.IsDir() {
			return sibling, nil
		}
	}
	path, err := exec.LookPath(daemonBinary)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", daemonBinary, err)
	}
	return path, nil
}

func daemonLaunchOptions(ctx *commandContext, level string, dev bool) daemonctl.LaunchOptions {
	return daemonctl.LaunchOptions{
		ConfigPath:  ctx.configPath(),
		LogLevel:    strings.TrimSpace(level),
		Development: dev,
	}
}
