package main

import (
	"github.com/spf13/cobra"

	"tally/internal/daemonrun"
)

// newDaemonGroupCommand holds the hidden foreground-run entrypoint that
// `tally start` launches detached.
func newDaemonGroupCommand(ctx *commandContext) *cobra.Command {
	group := &cobra.Command{
		Use:         "daemon",
		Short:       "Daemon process entrypoints (internal)",
		Hidden:      true,
		Annotations: map[string]string{"skipConfigLoad": "true"},
	}
	group.AddCommand(newDaemonRunCommand(ctx))
	return group
}

func newDaemonRunCommand(ctx *commandContext) *cobra.Command {
	var logLevel string
	cmd := &cobra.Command{
		Use:          "run",
		Short:        "Run the tallyd daemon in the foreground",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{LogLevel: logLevel})
		},
	}
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override the configured log level (debug, info, warn, error)")
	return cmd
}
