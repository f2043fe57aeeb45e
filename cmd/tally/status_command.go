package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"tally/internal/api"
	"tally/internal/config"
	"tally/internal/daemonctl"
	"tally/internal/textutil"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and backlog status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			snapshot, err := daemonctl.BuildStatusSnapshot(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, snapshot)
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			for _, line := range renderSectionHeader("System Status", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, line := range systemStatusLines(cfg, snapshot, colorize) {
				fmt.Fprintln(stdout, line)
			}

			fmt.Fprintln(stdout)
			for _, line := range renderSectionHeader("Backlog", colorize) {
				fmt.Fprintln(stdout, line)
			}
			if snapshot.Stats.Total == 0 {
				fmt.Fprintln(stdout, "Backlog is empty")
				return nil
			}
			table := renderTable([]string{"Metric", "Value"}, buildStatsRows(snapshot.Stats), []columnAlignment{alignLeft, alignRight})
			fmt.Fprintln(stdout, table)
			return nil
		},
	}
}

func systemStatusLines(cfg *config.Config, snapshot api.StatusSnapshot, colorize bool) []string {
	lines := make([]string, 0, 6)

	if snapshot.Running {
		detail := fmt.Sprintf("running on %s (pid %d)", snapshot.Bind, snapshot.PID)
		lines = append(lines, renderStatusLine("Daemon", statusOK, detail, colorize))
		if snapshot.StartedAt != "" {
			lines = append(lines, renderStatusLine("Started", statusInfo, snapshot.StartedAt, colorize))
		}
	} else {
		lines = append(lines, renderStatusLine("Daemon", statusWarn, "not running (start with 'tally start')", colorize))
	}

	project := fmt.Sprintf("%s (%s)", textutil.DisplayName(snapshot.ProjectDir), snapshot.ProjectDir)
	lines = append(lines, renderStatusLine("Project", statusInfo, project, colorize))
	lines = append(lines, databaseStatusLine(snapshot.Database, colorize))

	if cfg.Notifications.WebhookURL != "" {
		lines = append(lines, renderStatusLine("Notifications", statusInfo, "webhook configured", colorize))
	} else {
		lines = append(lines, renderStatusLine("Notifications", statusInfo, "disabled", colorize))
	}
	return lines
}

func databaseStatusLine(db api.DatabaseHealthPayload, colorize bool) string {
	switch {
	case db.Error != "":
		return renderStatusLine("Database", statusError, db.Error, colorize)
	case !db.DatabaseExists:
		return renderStatusLine("Database", statusInfo, "not created yet", colorize)
	case !db.TableExists || !db.IntegrityCheck || len(db.MissingColumns) > 0:
		return renderStatusLine("Database", statusWarn, "schema incomplete (run 'tally doctor')", colorize)
	default:
		detail := fmt.Sprintf("%s (%d features, schema %s)", db.DBPath, db.TotalFeatures, db.SchemaVersion)
		return renderStatusLine("Database", statusOK, detail, colorize)
	}
}

func buildStatsRows(stats api.Stats) [][]string {
	return [][]string{
		{"Total", strconv.FormatInt(stats.Total, 10)},
		{"Passing", strconv.FormatInt(stats.Passing, 10)},
		{"Pending", strconv.FormatInt(stats.Total-stats.Passing, 10)},
		{"Complete", fmt.Sprintf("%.1f%%", stats.Percentage)},
	}
}
