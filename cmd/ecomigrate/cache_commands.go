package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"ecomigrate/internal/catalogcache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the parsed release cache",
	}
	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	return cacheCmd
}

func openCache(cmd *cobra.Command, ctx *commandContext) (*catalogcache.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := ctx.ensureLogger(cmd)
	if err != nil {
		return nil, err
	}
	return catalogcache.Open(cfg.CatalogCachePath(), logger)
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached catalogs and flow listings",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCache(cmd, ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			snapshots, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, snapshots)
			}
			out := cmd.OutOrStdout()
			if len(snapshots) == 0 {
				fmt.Fprintf(out, "Cache is empty (%s)\n", store.Path())
				return nil
			}
			rows := make([][]string, 0, len(snapshots))
			for _, snap := range snapshots {
				rows = append(rows, []string{
					snap.Kind,
					snap.Version,
					snap.SystemModel,
					strconv.Itoa(snap.Entries),
					snap.CreatedAt.Local().Format(time.DateTime),
					snap.SourcePath,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"kind", "version", "system model", "entries", "cached", "source"},
				rows,
				3,
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the cache entries as JSON")
	return cmd
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached catalog and flow listing",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCache(cmd, ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached snapshots\n", removed)
			return nil
		},
	}
}
