package main

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"subcards/internal/vocab"
)

func newVocabCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "vocab <vocabulary.tsv>",
		Short: "Show the reconciled vocabulary entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger(cmd)
			if err != nil {
				return err
			}

			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open vocabulary: %w", err)
			}
			defer file.Close()
			observations, rejected, err := vocab.ReadExport(file)
			if err != nil {
				return fmt.Errorf("read vocabulary: %w", err)
			}
			set := vocab.NewReconciler(vocab.PreferenceTable(cfg.Preferences.AltForms), logger).
				Merge(slices.Values(observations))

			var rows [][]string
			names := 0
			for _, entry := range set.Entries() {
				if entry.IsProperNoun {
					names++
				}
				if limit > 0 && len(rows) >= limit {
					continue
				}
				rows = append(rows, []string{
					entry.Headword,
					entry.PrimaryAltForm,
					strings.Join(entry.AltFormVariants, ", "),
					entry.PrimaryPronunciation,
					strings.Join(entry.PronunciationVariants, "; "),
					yesNo(entry.IsProperNoun),
				})
			}

			out := cmd.OutOrStdout()
			headers := []string{"Headword", "Alt form", "Alt variants", "Pronunciation", "Variants", "Name"}
			fmt.Fprintln(out, renderTable(out, headers, rows, nil))
			fmt.Fprintf(out, "%d rows, %d rejected, %d entries, %d names\n",
				len(observations), len(rejected), set.Len(), names)
			for _, rowErr := range rejected {
				fmt.Fprintf(out, "  skipped %s\n", rowErr.Error())
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most this many entries (0 for all)")
	return cmd
}
