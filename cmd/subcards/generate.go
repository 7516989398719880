package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"subcards/internal/config"
	"subcards/internal/language"
	"subcards/internal/logging"
	"subcards/internal/pipeline"
	"subcards/internal/services"
)

type generateFlags struct {
	output        string
	minLength     int
	includeEmpty  bool
	absorb        bool
	noTranslate   bool
	noDefinitions bool
	targetLang    string
	deepLKey      string
	provider      string
}

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var flags generateFlags

	cmd := &cobra.Command{
		Use:   "generate [vocabulary.tsv] [subtitles-dir]",
		Short: "Generate a cloze flashcard TSV from a vocabulary export and subtitles",
		Long: "Reads a tab-separated vocabulary export, finds the first subtitle line containing each word,\n" +
			"optionally adds dictionary definitions and sentence translations, and writes an Anki TSV.\n" +
			"Arguments fall back to paths.vocabulary_file and paths.subtitles_dir from the config.",
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger(cmd)
			if err != nil {
				return err
			}

			working := *cfg
			if err := flags.apply(cmd, &working); err != nil {
				return services.Wrap(services.ErrConfiguration, "generate", "flags", "Invalid option", err)
			}
			opts := pipeline.OptionsFromConfig(&working)
			if len(args) > 0 {
				opts.VocabularyPath = args[0]
			}
			if len(args) > 1 {
				opts.SubtitlesDir = args[1]
			}
			if cmd.Flags().Changed("output") {
				opts.OutputPath = flags.output
			}
			if opts.Translate {
				if ready, reason := working.TranslationReady(); !ready {
					logging.WarnWithContext(logger, "translation disabled", "translation_unavailable",
						logging.String("reason", reason),
						logging.String(logging.FieldImpact, "translation column left empty"),
					)
					opts.Translate = false
				}
			}

			deps, err := pipeline.DefaultDeps(&working, logger)
			if err != nil {
				return err
			}
			summary, runErr := pipeline.Run(cmd.Context(), opts, deps)
			if summary.Digest != "" {
				printRunSummary(cmd.OutOrStdout(), summary)
			}
			return runErr
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output TSV path (default from config)")
	cmd.Flags().IntVar(&flags.minLength, "min-length", 0, "Minimum example sentence length in characters")
	cmd.Flags().BoolVar(&flags.includeEmpty, "include-empty", false, "Export entries without an example sentence")
	cmd.Flags().BoolVar(&flags.absorb, "absorb", false, "Join short adjacent lines into extra example candidates")
	cmd.Flags().BoolVar(&flags.noTranslate, "no-translate", false, "Skip sentence translation")
	cmd.Flags().BoolVar(&flags.noDefinitions, "no-definitions", false, "Skip dictionary definitions")
	cmd.Flags().StringVar(&flags.targetLang, "target-lang", "", "Translation target language (e.g. EN-US)")
	cmd.Flags().StringVar(&flags.deepLKey, "deepl-key", "", "DeepL API key (overrides config and DEEPL_API_KEY)")
	cmd.Flags().StringVar(&flags.provider, "provider", "", "Translation provider (deepl, llm)")
	return cmd
}

// apply copies explicitly set flags onto cfg and revalidates it.
func (f generateFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	changed := cmd.Flags().Changed
	if changed("min-length") {
		cfg.Resolver.MinLength = f.minLength
	}
	if changed("include-empty") {
		cfg.Cards.IncludeEmpty = f.includeEmpty
	}
	if changed("absorb") {
		cfg.Resolver.AbsorbShortLines = f.absorb
	}
	if f.noTranslate {
		cfg.Translation.Enabled = false
	}
	if f.noDefinitions {
		cfg.Dictionary.Enabled = false
	}
	if changed("target-lang") {
		cfg.Translation.TargetLang = language.Normalize(f.targetLang)
	}
	if changed("deepl-key") {
		cfg.SetDeepLKey(f.deepLKey)
	}
	if changed("provider") {
		cfg.Translation.Provider = strings.ToLower(strings.TrimSpace(f.provider))
	}
	return cfg.Validate()
}

func printRunSummary(out io.Writer, s pipeline.Summary) {
	rows := [][]string{
		{"Vocabulary rows", strconv.Itoa(s.Observations)},
		{"Rejected rows", strconv.Itoa(s.RejectedRows)},
		{"Entries", strconv.Itoa(s.Entries)},
		{"Subtitle files", strconv.Itoa(s.Units)},
		{"Skipped files", strconv.Itoa(s.SkippedUnits)},
		{"Subtitle lines", strconv.Itoa(s.Lines)},
		{"With example", strconv.Itoa(s.Examples.Resolved + s.Examples.AlreadyResolved)},
		{"Without example", strconv.Itoa(s.Examples.Unresolved)},
		{"Definitions", skippedOr(s.DefinitionsSkipped, s.Dictionary.Found)},
		{"Translations", skippedOr(s.TranslationsSkipped, s.Translated.Translated)},
		{"Failed batches", strconv.Itoa(s.Translated.Failed)},
		{"Cards exported", strconv.Itoa(s.Export.Exported)},
		{"Cards skipped", strconv.Itoa(s.Export.Skipped)},
	}
	fmt.Fprintln(out, renderTable(out, []string{"Step", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
	fmt.Fprintf(out, "Wrote %s\n", s.OutputPath)
	if s.Interrupted {
		fmt.Fprintln(out, "Run interrupted; the file contains the progress made before cancellation")
	}
	fmt.Fprintf(out, "Run ID: %s\n", s.RunID)
}

func skippedOr(skipped bool, n int) string {
	if skipped {
		return "skipped"
	}
	return strconv.Itoa(n)
}
