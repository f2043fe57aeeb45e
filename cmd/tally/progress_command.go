package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tally/internal/apiclient"
	"tally/internal/logging"
	"tally/internal/notifications"
	"tally/internal/progress"
)

func newProgressCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "progress",
		Short: "Check for newly passing features and notify the webhook",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			sink := notifications.NewService(cfg)
			return ctx.withClient(func(client *apiclient.Client) error {
				tracker := progress.NewTracker(cfg, progress.NewClientSource(client), sink, logging.NewNop())
				report, err := tracker.Check(cmd.Context())
				if err != nil {
					return err
				}

				if ctx.jsonOutput() {
					return writeJSON(cmd, report)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Passing %d of %d features (%.1f%%)\n", report.Passing, report.Total, report.Percentage)
				switch {
				case !sink.Enabled():
					fmt.Fprintln(out, "Notifications disabled (no webhook URL configured)")
				case report.Baselined:
					fmt.Fprintln(out, "Recorded baseline; future passes will be announced")
				case report.Notified:
					fmt.Fprintf(out, "Notification sent (%d newly passing)\n", len(report.NewlyPassing))
					for _, label := range report.NewlyPassing {
						fmt.Fprintf(out, "  - %s\n", label)
					}
				case len(report.NewlyPassing) > 0:
					fmt.Fprintln(out, "Notification delivery failed (progress still recorded)")
				default:
					fmt.Fprintln(out, "No new passing features")
				}
				return nil
			})
		},
	}
}
