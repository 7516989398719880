package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"subcards/internal/pipeline"
)

func newMergeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "merge <subtitles-dir> [output.txt]",
		Short: "Merge all subtitle lines into one plain-text file",
		Long: "Writes every cleaned subtitle line to the output file and a companion\n" +
			"<name>_with_episodes.txt that marks where each file starts.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger(cmd)
			if err != nil {
				return err
			}
			output := cfg.Paths.MergedOutput
			if len(args) > 1 {
				output = args[1]
			}
			summary, err := pipeline.Merge(cmd.Context(), pipeline.MergeOptions{
				SubtitlesDir: args[0],
				OutputPath:   output,
				Extensions:   cfg.Corpus.Extensions,
				Encodings:    cfg.Corpus.Encodings,
				Workers:      cfg.Corpus.Workers,
				Logger:       logger,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Merged %d lines from %d files", summary.Lines, summary.Units)
			if summary.SkippedUnits > 0 {
				fmt.Fprintf(out, " (%d unreadable files skipped)", summary.SkippedUnits)
			}
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Wrote %s\n", summary.OutputPath)
			fmt.Fprintf(out, "Wrote %s\n", summary.MarkedPath)
			return nil
		},
	}
}
