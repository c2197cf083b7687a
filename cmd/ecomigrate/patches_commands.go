package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ecomigrate/internal/patches"
)

func newPatchesCommand(ctx *commandContext) *cobra.Command {
	patchesCmd := &cobra.Command{
		Use:   "patches",
		Short: "Inspect builtin and user patch sets",
	}
	patchesCmd.AddCommand(newPatchesListCommand(ctx))
	return patchesCmd
}

func newPatchesListCommand(ctx *commandContext) *cobra.Command {
	var source, target string
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the patches applied to a version pair",
		Long: `List the patches applied to a version pair, builtin sets first and then
the user file <patches_dir>/<source>_<target>.yaml. Without --source and
--target the version pairs with builtin patches are printed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if source == "" && target == "" {
				for _, pair := range patches.BuiltinPairs() {
					fmt.Fprintln(out, pair)
				}
				return nil
			}
			if source == "" || target == "" {
				return fmt.Errorf("--source and --target must be given together")
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger(cmd)
			if err != nil {
				return err
			}
			set, err := patches.Load(cfg.Paths.PatchesDir, source, target, logger)
			if err != nil {
				return err
			}
			entries := set.Entries()
			if jsonOutput {
				return writeJSON(cmd, entries)
			}
			if len(entries) == 0 {
				fmt.Fprintf(out, "No patches for %s to %s\n", source, target)
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				kind := e.Kind
				if e.Context != "" {
					kind += " (" + e.Context + ")"
				}
				rows = append(rows, []string{kind, e.Source, e.Change, truncate(e.Comment, 60), e.Origin})
			}
			fmt.Fprintln(out, renderTable([]string{"kind", "source", "change", "comment", "origin"}, rows))
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "Source release version")
	cmd.Flags().StringVar(&target, "target", "", "Target release version")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the patches as JSON")
	return cmd
}

func truncate(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
