package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"subcards/internal/cedict"
	"subcards/internal/logging"
)

func newDictCommand(ctx *commandContext) *cobra.Command {
	dictCmd := &cobra.Command{
		Use:   "dict",
		Short: "Manage the CC-CEDICT dictionary",
	}
	dictCmd.AddCommand(newDictFetchCommand(ctx))
	dictCmd.AddCommand(newDictLookupCommand(ctx))
	return dictCmd
}

func (c *commandContext) dictionaryFetcher(cmd *cobra.Command) (cedict.Fetcher, string, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return cedict.Fetcher{}, "", err
	}
	logger, err := c.ensureLogger(cmd)
	if err != nil {
		return cedict.Fetcher{}, "", err
	}
	return cedict.Fetcher{
		URL:    cfg.Dictionary.DownloadURL,
		Logger: logging.NewComponentLogger(logger, "cedict"),
	}, cfg.Dictionary.Path, nil
}

func newDictFetchCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download CC-CEDICT if it is missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			fetcher, path, err := ctx.dictionaryFetcher(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if force {
				if err := fetcher.Refresh(cmd.Context(), path); err != nil {
					return err
				}
				fmt.Fprintf(out, "Downloaded dictionary to %s\n", path)
				return nil
			}
			downloaded, err := fetcher.Ensure(cmd.Context(), path)
			if err != nil {
				return err
			}
			if downloaded {
				fmt.Fprintf(out, "Downloaded dictionary to %s\n", path)
			} else {
				fmt.Fprintf(out, "Dictionary already present at %s (use --force to refresh)\n", path)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Download even if the dictionary exists")
	return cmd
}

func newDictLookupCommand(ctx *commandContext) *cobra.Command {
	var pinyin string

	cmd := &cobra.Command{
		Use:   "lookup <word>",
		Short: "Look up a word in CC-CEDICT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fetcher, path, err := ctx.dictionaryFetcher(cmd)
			if err != nil {
				return err
			}
			dict, err := cedict.Open(cmd.Context(), path, fetcher)
			if err != nil {
				return err
			}
			word := strings.TrimSpace(args[0])
			entries := dict.Entries(word, pinyin)
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintf(out, "No entries for %s\n", word)
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{e.Simplified, e.Traditional, e.Pinyin, e.Definition})
			}
			fmt.Fprintln(out, renderTable(out, []string{"Simplified", "Traditional", "Pinyin", "Definition"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().StringVar(&pinyin, "pinyin", "", "Preferred pinyin used to order results")
	return cmd
}
