package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"subcards/internal/transcache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the translation cache",
	}
	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	return cacheCmd
}

func (c *commandContext) withCache(cmd *cobra.Command, fn func(*transcache.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := transcache.Open(cmd.Context(), cfg.TranslationCachePath())
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cached translation counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCache(cmd, func(store *transcache.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Cache: %s (%s)\n", stats.Path, formatBytes(stats.SizeBytes))
				if stats.Total == 0 {
					fmt.Fprintln(out, "No cached translations")
					return nil
				}
				rows := make([][]string, 0, len(stats.ByLang)+1)
				for _, lc := range stats.ByLang {
					rows = append(rows, []string{lc.Lang, strconv.Itoa(lc.Count)})
				}
				rows = append(rows, []string{"total", strconv.Itoa(stats.Total)})
				fmt.Fprintln(out, renderTable(out, []string{"Target", "Translations"}, rows, []columnAlignment{alignLeft, alignRight}))
				fmt.Fprintf(out, "Providers: %s\n", strings.Join(stats.Providers, ", "))
				return nil
			})
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every cached translation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCache(cmd, func(store *transcache.Store) error {
				removed, err := store.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached translations\n", removed)
				return nil
			})
		},
	}
}

func formatBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}
