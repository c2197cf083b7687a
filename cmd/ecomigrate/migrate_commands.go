package main

import (
	"github.com/spf13/cobra"

	"ecomigrate/internal/migrate"
)

type migrateFlags struct {
	source      string
	target      string
	systemModel string
	keepGoing   bool
	description string
	dryRun      bool
	jsonOutput  bool
}

func (f *migrateFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.source, "source", "", "Source release version (for example 3.9.1)")
	cmd.Flags().StringVar(&f.target, "target", "", "Target release version (for example 3.10)")
	cmd.Flags().StringVar(&f.description, "description", "", "Datapackage description (defaults to output.description)")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Reconcile and summarize without writing the datapackage")
	cmd.Flags().BoolVar(&f.jsonOutput, "json", false, "Print the run summary as JSON")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("target")
}

func newTechnosphereCommand(ctx *commandContext) *cobra.Command {
	var flags migrateFlags
	cmd := &cobra.Command{
		Use:   "technosphere",
		Short: "Build the activity dataset migration between two releases",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration(cmd, ctx, migrate.Options{
				Kind:          migrate.KindTechnosphere,
				SourceVersion: flags.source,
				TargetVersion: flags.target,
				SystemModel:   flags.systemModel,
				KeepGoing:     flags.keepGoing,
				DryRun:        flags.dryRun,
				Description:   flags.description,
			}, flags.jsonOutput)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&flags.systemModel, "system-model", "", "Override migration.system_model")
	cmd.Flags().BoolVar(&flags.keepGoing, "keep-going", false, "Skip malformed change report rows instead of aborting")
	return cmd
}

func newBiosphereCommand(ctx *commandContext) *cobra.Command {
	var flags migrateFlags
	var keepDeletions bool
	cmd := &cobra.Command{
		Use:   "biosphere",
		Short: "Build the elementary flow migration between two releases",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := migrate.Options{
				Kind:          migrate.KindBiosphere,
				SourceVersion: flags.source,
				TargetVersion: flags.target,
				DryRun:        flags.dryRun,
				Description:   flags.description,
			}
			if cmd.Flags().Changed("keep-deletions") {
				opts.KeepDeletions = &keepDeletions
			}
			return runMigration(cmd, ctx, opts, flags.jsonOutput)
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&keepDeletions, "keep-deletions", false, "Emit delete entries for removed flows (overrides migration.keep_deletions)")
	return cmd
}

func runMigration(cmd *cobra.Command, ctx *commandContext, opts migrate.Options, jsonOutput bool) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger(cmd)
	if err != nil {
		return err
	}
	runner := migrate.NewRunner(cfg, logger, migrate.WithAppVersion(version))
	summary, runErr := runner.Run(cmd.Context(), opts)
	if summary != nil {
		var err error
		if jsonOutput {
			err = writeJSON(cmd, summary)
		} else {
			err = printSummary(cmd.OutOrStdout(), summary)
		}
		if err != nil && runErr == nil {
			return err
		}
	}
	return runErr
}
