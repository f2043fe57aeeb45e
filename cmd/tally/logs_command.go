package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tally/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var lines int

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Display daemon logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			printed, err := logs.Tail(cmd.Context(), cfg.DaemonLogPath(), logs.Options{
				Lines:  lines,
				Follow: follow,
			}, cmd.OutOrStdout())
			if err != nil {
				return fmt.Errorf("tail logs: %w", err)
			}
			if printed == 0 && !follow {
				fmt.Fprintln(cmd.OutOrStdout(), "No log entries available")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output")
	cmd.Flags().IntVarP(&lines, "lines", "n", 10, "Number of lines to show (0 for all)")
	return cmd
}
