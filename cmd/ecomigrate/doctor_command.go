package main

import (
	"errors"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"ecomigrate/internal/migrate"
	"ecomigrate/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var source, target string
	var biosphere, jsonOutput bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, output access, and the inputs of a migration step",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if (source == "") != (target == "") {
				return migrate.Wrap(migrate.ErrConfiguration, "", "--source and --target must be given together", nil)
			}

			results := preflight.RunAll(cmd.Context(), cfg)
			if source != "" {
				results = append(results, preflight.RunForMigration(cfg, "", biosphere, source, target)...)
			}
			failed := preflight.Failed(results)

			if jsonOutput {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				rows := make([][]string, 0, len(results))
				for _, r := range results {
					status := "ok"
					if !r.Passed {
						status = "FAIL"
						if colorize {
							status = text.FgRed.Sprint(status)
						}
					}
					rows = append(rows, []string{r.Name, status, r.Detail})
				}
				fmt.Fprintln(out, renderTable([]string{"check", "status", "detail"}, rows))
			}

			if len(failed) > 0 {
				return migrate.Wrap(migrate.ErrInput, "doctor", fmt.Sprintf("%d of %d checks failed", len(failed), len(results)), errors.New(failed[0].Name+": "+failed[0].Detail))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "Source release version to check")
	cmd.Flags().StringVar(&target, "target", "", "Target release version to check")
	cmd.Flags().BoolVar(&biosphere, "biosphere", false, "Check flow listings instead of datasets")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the check results as JSON")
	return cmd
}
