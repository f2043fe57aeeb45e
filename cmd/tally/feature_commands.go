package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"tally/internal/api"
	"tally/internal/apiclient"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var passes bool
	var pending bool
	var category string
	var limit int
	var offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List backlog features in priority order",
		RunE: func(cmd *cobra.Command, args []string) error {
			if passes && pending {
				return errors.New("specify only one of --passes or --pending")
			}
			req := api.DefaultListRequest()
			if limit > 0 {
				req.Limit = limit
			}
			if offset > 0 {
				req.Offset = offset
			}
			req.Category = category
			if passes {
				value := true
				req.Passes = &value
			}
			if pending {
				value := false
				req.Passes = &value
			}

			return ctx.withReader(cmd.Context(), func(reader featureReader) error {
				list, err := reader.List(cmd.Context(), req)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, list)
				}
				out := cmd.OutOrStdout()
				if len(list.Features) == 0 {
					fmt.Fprintln(out, "Backlog is empty")
					return nil
				}
				table := renderTable(
					[]string{"ID", "Priority", "Category", "Name", "Passes"},
					buildFeatureRows(list.Features),
					[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprintln(out, table)
				fmt.Fprintf(out, "Showing %d of %d features\n", len(list.Features), list.Total)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&passes, "passes", false, "Show only passing features")
	cmd.Flags().BoolVar(&pending, "pending", false, "Show only pending features")
	cmd.Flags().StringVar(&category, "category", "", "Filter by exact category")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum features to return (default 50, max 1000)")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of features to skip")
	return cmd
}

func newFeatureShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Display one feature in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseFeatureID(args[0])
			if err != nil {
				return err
			}
			return ctx.withReader(cmd.Context(), func(reader featureReader) error {
				found, err := reader.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, found)
				}
				printFeatureDetail(cmd.OutOrStdout(), found)
				return nil
			})
		},
	}
}

func newNextCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Show the highest-priority pending feature",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withReader(cmd.Context(), func(reader featureReader) error {
				next, err := reader.NextPending(cmd.Context())
				if err != nil {
					// An exhausted backlog is good news, not a failure.
					if api.IsNotFound(err) {
						fmt.Fprintln(cmd.OutOrStdout(), err.Error())
						return nil
					}
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, next)
				}
				printFeatureDetail(cmd.OutOrStdout(), next)
				return nil
			})
		},
	}
}

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show passing progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withReader(cmd.Context(), func(reader featureReader) error {
				stats, err := reader.Stats(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, stats)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Passing %d of %d features (%.1f%%)\n", stats.Passing, stats.Total, stats.Percentage)
				return nil
			})
		},
	}
}

func newAddCommand(ctx *commandContext) *cobra.Command {
	var category string
	var name string
	var description string
	var steps []string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a feature to the backlog",
		RunE: func(cmd *cobra.Command, args []string) error {
			input := api.FeatureInput{
				Category:    category,
				Name:        name,
				Description: description,
				Steps:       steps,
			}
			return ctx.withClient(func(client *apiclient.Client) error {
				created, err := client.Create(cmd.Context(), input)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, created)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added feature %d (priority %d): %s\n", created.ID, created.Priority, created.Name)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Feature category")
	cmd.Flags().StringVar(&name, "name", "", "Feature name")
	cmd.Flags().StringVar(&description, "description", "", "What the feature should do")
	cmd.Flags().StringArrayVar(&steps, "step", nil, "Verification step (repeatable)")
	return cmd
}

func newImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Bulk-add features from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := readFeatureInputs(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *apiclient.Client) error {
				created, err := client.CreateBulk(cmd.Context(), inputs)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.BulkCreateResponse{Created: created})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d features\n", created)
				return nil
			})
		},
	}
}

func newPassCommand(ctx *commandContext) *cobra.Command {
	return newSetPassesCommand(ctx, "pass", "Mark a feature as passing", true)
}

func newFailCommand(ctx *commandContext) *cobra.Command {
	return newSetPassesCommand(ctx, "fail", "Mark a feature as failing", false)
}

func newSetPassesCommand(ctx *commandContext, verb, short string, passes bool) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseFeatureID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *apiclient.Client) error {
				updated, err := client.SetPasses(cmd.Context(), id, passes)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, updated)
				}
				state := "passing"
				if !passes {
					state = "failing"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Feature %d marked %s: %s\n", updated.ID, state, updated.Name)
				return nil
			})
		},
	}
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Delete a feature permanently",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseFeatureID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *apiclient.Client) error {
				if err := client.Delete(cmd.Context(), id); err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]any{"id": id, "removed": true})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Feature %d removed\n", id)
				return nil
			})
		},
	}
}
