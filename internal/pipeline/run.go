package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/google/uuid"

	"subcards/internal/cards"
	"subcards/internal/corpus"
	"subcards/internal/enrich"
	"subcards/internal/fileutil"
	"subcards/internal/logging"
	"subcards/internal/sentences"
	"subcards/internal/services"
	"subcards/internal/vocab"
)

// Summary reports what a run did.
type Summary struct {
	RunID string

	Observations int
	RejectedRows int
	Entries      int

	Units        int
	SkippedUnits int
	Lines        int

	Examples   sentences.Stats
	Dictionary enrich.DefinitionStats
	Translated enrich.TranslationStats
	Export     cards.ExportStats

	DefinitionsSkipped  bool
	TranslationsSkipped bool
	Interrupted         bool

	OutputPath string
	Digest     string
	Elapsed    time.Duration
}

// Run executes a full generate run. Configuration errors are returned before
// any input is read. A cancelled context still produces an output file with
// the progress made so far; the context error is returned with the summary.
func Run(ctx context.Context, opts Options, deps Deps) (Summary, error) {
	started := time.Now()
	summary := Summary{RunID: uuid.NewString(), OutputPath: opts.OutputPath}
	if err := opts.Validate(); err != nil {
		return summary, err
	}

	base := deps.Logger
	if base == nil {
		base = logging.NewNop()
	}
	ctx = services.WithRunID(ctx, summary.RunID)
	logger := logging.WithContext(ctx, base)
	logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("vocabulary", opts.VocabularyPath),
		logging.String("subtitles", opts.SubtitlesDir),
		logging.String("output", opts.OutputPath),
	)

	translator, closeTranslator := prepareTranslator(ctx, opts, deps, logger)
	defer closeTranslator()
	summary.TranslationsSkipped = translator == nil
	summary.DefinitionsSkipped = !opts.Definitions || deps.Dictionary == nil

	var (
		set *vocab.Set
		c   *corpus.Corpus
	)

	err := runStage(ctx, base, StageVocabulary, func(ctx context.Context, logger *slog.Logger) error {
		var err error
		set, err = loadVocabulary(opts, logger, &summary)
		return err
	})
	if err != nil {
		return summary, err
	}

	err = runStage(ctx, base, StageCorpus, func(ctx context.Context, logger *slog.Logger) error {
		var err error
		c, err = loadCorpus(ctx, opts, logger, &summary)
		return err
	})
	if err != nil && !isInterrupt(err) {
		if services.Fatal(err) {
			return summary, err
		}
		logging.WarnWithContext(logger, "continuing without subtitles", "corpus_unavailable",
			logging.String(logging.FieldImpact, "no example sentences available"),
			logging.Error(err),
		)
		c, err = corpus.New(nil), nil
	}
	interrupted := err != nil

	if !interrupted {
		err = runStage(ctx, base, StageExamples, func(ctx context.Context, logger *slog.Logger) error {
			resolver := sentences.Resolver{
				MinLength: opts.MinLength,
				Absorb:    opts.Absorb,
				Logger:    logger,
			}
			var err error
			summary.Examples, err = resolver.Resolve(ctx, set, c)
			return err
		})
		interrupted = err != nil
	}

	if !interrupted && !summary.DefinitionsSkipped {
		err = runStage(ctx, base, StageDefinitions, func(ctx context.Context, logger *slog.Logger) error {
			dict, err := deps.Dictionary(ctx)
			if err != nil {
				if isInterrupt(err) {
					return err
				}
				summary.DefinitionsSkipped = true
				logging.WarnWithContext(logger, "dictionary unavailable", "dictionary_unavailable",
					logging.String(logging.FieldErrorHint, "run `subcards dict fetch` or check dictionary.path"),
					logging.String(logging.FieldImpact, "definition column left empty"),
					logging.Error(err),
				)
				return nil
			}
			summary.Dictionary, err = enrich.AttachDefinitions(ctx, set, dict, enrich.DefinitionOptions{
				Separator: opts.DefinitionSeparator,
				Logger:    logger,
			})
			return err
		})
		interrupted = err != nil
	}

	if !interrupted && translator != nil {
		err = runStage(ctx, base, StageTranslations, func(ctx context.Context, logger *slog.Logger) error {
			var err error
			summary.Translated, err = enrich.AttachTranslations(ctx, set, translator, enrich.TranslationOptions{
				TargetLang: opts.TargetLang,
				BatchSize:  opts.BatchSize,
				Delay:      opts.BatchDelay,
				Sleep:      deps.Sleep,
				Logger:     logger,
			})
			return err
		})
		interrupted = err != nil
	}

	summary.Interrupted = interrupted
	// Export uses a fresh context so an interrupted run still writes its progress.
	if err := runStage(context.WithoutCancel(ctx), base, StageExport, func(_ context.Context, logger *slog.Logger) error {
		return exportCards(opts, deps, set, logger, &summary)
	}); err != nil {
		return summary, err
	}

	summary.Elapsed = time.Since(started).Round(time.Millisecond)
	logger.Info("run finished",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Int("entries", summary.Entries),
		logging.Int("examples", summary.Examples.Resolved+summary.Examples.AlreadyResolved),
		logging.Int("exported", summary.Export.Exported),
		logging.Bool("interrupted", summary.Interrupted),
		logging.Duration("elapsed", summary.Elapsed),
	)
	if interrupted {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return summary, ctxErr
		}
		return summary, context.Canceled
	}
	return summary, nil
}

func prepareTranslator(ctx context.Context, opts Options, deps Deps, logger *slog.Logger) (enrich.Translator, func()) {
	noop := func() {}
	if !opts.Translate {
		return nil, noop
	}
	if deps.Translator == nil {
		logging.WarnWithContext(logger, "no translation provider configured", "translation_unavailable",
			logging.String(logging.FieldImpact, "translation column left empty"),
		)
		return nil, noop
	}
	tr, closer, err := deps.Translator(ctx)
	if err != nil {
		logging.WarnWithContext(logger, "translation disabled", "translation_unavailable",
			logging.String(logging.FieldErrorHint, "set a provider API key or pass --no-translate"),
			logging.String(logging.FieldImpact, "translation column left empty"),
			logging.Error(err),
		)
		return nil, noop
	}
	if closer == nil {
		return tr, noop
	}
	return tr, func() {
		if err := closer.Close(); err != nil {
			logger.Debug("translator close failed", logging.Error(err))
		}
	}
}

func loadVocabulary(opts Options, logger *slog.Logger, summary *Summary) (*vocab.Set, error) {
	file, err := os.Open(opts.VocabularyPath)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, StageVocabulary, "open", "Failed to open vocabulary file", err)
	}
	defer file.Close()

	observations, rejected, err := vocab.ReadExport(file)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, StageVocabulary, "read", "Failed to read vocabulary file", err)
	}
	for _, rowErr := range rejected {
		logging.WarnWithContext(logger, "vocabulary row skipped", "vocabulary_row_rejected",
			logging.Int("row", rowErr.Row),
			logging.String("reason", rowErr.Reason),
			logging.String(logging.FieldImpact, "row ignored"),
		)
	}

	set := vocab.NewReconciler(opts.Preferences, logger).Merge(slices.Values(observations))
	summary.Observations = len(observations)
	summary.RejectedRows = len(rejected)
	summary.Entries = set.Len()
	logger.Info("vocabulary reconciled",
		logging.Int("observations", summary.Observations),
		logging.Int("rejected_rows", summary.RejectedRows),
		logging.Int("entries", summary.Entries),
	)
	return set, nil
}

func loadCorpus(ctx context.Context, opts Options, logger *slog.Logger, summary *Summary) (*corpus.Corpus, error) {
	c, unitErrs, err := corpus.LoadDir(ctx, opts.SubtitlesDir, opts.Extensions, corpus.Options{
		Encodings: opts.Encodings,
		Workers:   opts.Workers,
		Logger:    logger,
	})
	switch {
	case errors.Is(err, corpus.ErrNoUnits):
		logging.WarnWithContext(logger, "no subtitle files found", "corpus_empty",
			logging.String(logging.FieldErrorHint, fmt.Sprintf("expected files with extensions %v", opts.Extensions)),
			logging.String(logging.FieldImpact, "no example sentences available"),
		)
		return corpus.New(nil), nil
	case err != nil && isInterrupt(err):
		return corpus.New(nil), err
	case err != nil:
		return nil, services.Wrap(services.ErrValidation, StageCorpus, "load", "Failed to read subtitles", err)
	}
	summary.Units = len(c.Units())
	summary.SkippedUnits = len(unitErrs)
	summary.Lines = c.Len()
	logger.Info("corpus built",
		logging.Int("units", summary.Units),
		logging.Int("skipped_units", summary.SkippedUnits),
		logging.Int("lines", summary.Lines),
	)
	return c, nil
}

func exportCards(opts Options, deps Deps, set *vocab.Set, logger *slog.Logger, summary *Summary) error {
	assembler := cards.Assembler{
		Converter:     deps.Converter,
		ClozeTag:      opts.ClozeTag,
		NewlineMarker: opts.NewlineMarker,
		IncludeEmpty:  opts.IncludeEmpty,
	}
	digest, err := fileutil.WriteAtomic(opts.OutputPath, 0o644, func(w io.Writer) error {
		var err error
		summary.Export, err = cards.WriteAll(w, set, assembler)
		return err
	})
	if err != nil {
		return services.Wrap(services.ErrValidation, StageExport, "write", "Failed to write cards", err)
	}
	summary.Digest = digest
	logger.Info("cards written",
		logging.String("path", opts.OutputPath),
		logging.Int("exported", summary.Export.Exported),
		logging.Int("skipped", summary.Export.Skipped),
		logging.String("sha256", digest),
	)
	return nil
}
