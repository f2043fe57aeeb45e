package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tally/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the environment and daemon health",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			results := preflight.RunAll(cmd.Context(), cfg)
			apiResult := preflight.CheckAPIFromConfig(cfg)

			if ctx.jsonOutput() {
				type checkView struct {
					Name   string `json:"name"`
					Passed bool   `json:"passed"`
					Detail string `json:"detail"`
				}
				views := make([]checkView, 0, len(results)+1)
				for _, result := range append(results, apiResult) {
					views = append(views, checkView(result))
				}
				return writeJSON(cmd, views)
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			for _, line := range renderSectionHeader("Environment", colorize) {
				fmt.Fprintln(stdout, line)
			}
			failed := 0
			for _, result := range results {
				kind := statusOK
				if !result.Passed {
					kind = statusError
					failed++
				}
				fmt.Fprintln(stdout, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}

			// A stopped daemon is operational state, not an environment
			// defect; it renders as a warning and does not fail the command.
			kind := statusOK
			if !apiResult.Passed {
				kind = statusWarn
			}
			fmt.Fprintln(stdout, renderStatusLine(apiResult.Name, kind, apiResult.Detail, colorize))

			if failed > 0 {
				return fmt.Errorf("%d of %d checks failed", failed, len(results))
			}
			fmt.Fprintln(stdout)
			fmt.Fprintln(stdout, "Environment looks good")
			return nil
		},
	}
}
