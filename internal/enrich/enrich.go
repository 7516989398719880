package enrich

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"subcards/internal/logging"
	"subcards/internal/vocab"
)

// Definition is one dictionary sense for a headword.
type Definition struct {
	AltForm       string
	Pronunciation string
	Text          string
}

// Dictionary looks up definitions for a headword. The pronunciation is a
// hint; implementations may use it to order results.
type Dictionary interface {
	Lookup(headword, preferredPronunciation string) ([]Definition, error)
}

// Translator translates texts into targetLang. A successful call returns one
// translation per input, in input order.
type Translator interface {
	Translate(ctx context.Context, texts []string, targetLang string) ([]string, error)
}

// DefaultSeparator joins multiple definitions in one field.
const DefaultSeparator = "<br>"

// DefinitionOptions configures AttachDefinitions.
type DefinitionOptions struct {
	Separator string
	Logger    *slog.Logger
}

// DefinitionStats summarizes a definition pass.
type DefinitionStats struct {
	Entries int
	Found   int
	Failed  int
}

// AttachDefinitions fills Definition on every entry the dictionary knows.
// Results whose pronunciation loosely matches the entry's primary
// pronunciation are preferred; when none match, all results are used.
func AttachDefinitions(ctx context.Context, set *vocab.Set, dict Dictionary, opts DefinitionOptions) (DefinitionStats, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	sep := opts.Separator
	if sep == "" {
		sep = DefaultSeparator
	}
	stats := DefinitionStats{Entries: set.Len()}
	for _, entry := range set.Entries() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		results, err := dict.Lookup(entry.Headword, entry.PrimaryPronunciation)
		if err != nil {
			stats.Failed++
			logging.WarnWithContext(logger, "definition lookup failed", "dictionary_lookup_failed",
				logging.String("headword", entry.Headword),
				logging.String(logging.FieldErrorHint, "check the dictionary file"),
				logging.Error(err),
			)
			continue
		}
		if len(results) == 0 {
			continue
		}
		selected := FilterByPronunciation(results, entry.PrimaryPronunciation)
		texts := make([]string, 0, len(selected))
		for _, def := range selected {
			texts = append(texts, def.Text)
		}
		entry.Definition = strings.Join(texts, sep)
		stats.Found++
	}
	logger.Info("definitions attached",
		logging.Int("entries", stats.Entries),
		logging.Int("found", stats.Found),
		logging.Int("failed", stats.Failed),
	)
	return stats, nil
}

// FilterByPronunciation keeps results whose normalized pronunciation
// contains, or is contained in, the normalized target. An empty target keeps
// everything. When nothing survives, the unfiltered results are returned.
func FilterByPronunciation(results []Definition, target string) []Definition {
	want := normalizePronunciation(target)
	if want == "" {
		return results
	}
	var matched []Definition
	for _, def := range results {
		got := normalizePronunciation(def.Pronunciation)
		if strings.Contains(got, want) || strings.Contains(want, got) {
			matched = append(matched, def)
		}
	}
	if len(matched) == 0 {
		return results
	}
	return matched
}

func normalizePronunciation(p string) string {
	return strings.ReplaceAll(strings.ToLower(p), " ", "")
}

// DefaultBatchSize is used when TranslationOptions.BatchSize is unset.
const DefaultBatchSize = 50

// TranslationOptions configures AttachTranslations.
type TranslationOptions struct {
	TargetLang string
	BatchSize  int
	// Delay separates successive translator calls.
	Delay time.Duration
	// Sleep waits between batches; nil uses a context-aware timer.
	Sleep  func(context.Context, time.Duration) error
	Logger *slog.Logger
}

// TranslationStats summarizes a translation pass.
type TranslationStats struct {
	Pending    int
	Batches    int
	Failed     int
	Translated int
}

// AttachTranslations translates the example of every entry that has one, in
// set order and in batches of BatchSize. Results are assigned by position
// within each batch. A failed batch, or one returning the wrong number of
// results, leaves its entries untranslated and the pass continues.
// Cancellation is checked between batches; translations already assigned are
// kept and ctx.Err() is returned.
func AttachTranslations(ctx context.Context, set *vocab.Set, tr Translator, opts TranslationOptions) (TranslationStats, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	size := opts.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var pending []*vocab.Entry
	for _, entry := range set.Entries() {
		if entry.HasExample() {
			pending = append(pending, entry)
		}
	}
	stats := TranslationStats{Pending: len(pending)}
	if len(pending) == 0 {
		return stats, nil
	}

	for start := 0; start < len(pending); start += size {
		if start > 0 && opts.Delay > 0 {
			if err := sleep(ctx, opts.Delay); err != nil {
				return stats, err
			}
		}
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		batch := pending[start:min(start+size, len(pending))]
		texts := make([]string, len(batch))
		for i, entry := range batch {
			texts[i] = entry.Example.Text
		}

		stats.Batches++
		results, err := tr.Translate(ctx, texts, opts.TargetLang)
		if err == nil && len(results) != len(batch) {
			err = &MismatchError{Want: len(batch), Got: len(results)}
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return stats, ctxErr
			}
			stats.Failed++
			logging.WarnWithContext(logger, "translation batch failed", "translation_batch_failed",
				logging.Int("batch", stats.Batches),
				logging.Int("size", len(batch)),
				logging.String(logging.FieldErrorHint, "check translation provider credentials and quota"),
				logging.String(logging.FieldImpact, "translations left empty for this batch"),
				logging.Error(err),
			)
			continue
		}
		for i, entry := range batch {
			if text := strings.TrimSpace(results[i]); text != "" {
				entry.TranslatedExample = text
				stats.Translated++
			}
		}
		logger.Debug("translation batch complete",
			logging.Int("batch", stats.Batches),
			logging.Int("done", min(start+size, len(pending))),
			logging.Int("total", len(pending)),
		)
	}

	logger.Info("translations attached",
		logging.Int("pending", stats.Pending),
		logging.Int("batches", stats.Batches),
		logging.Int("failed_batches", stats.Failed),
		logging.Int("translated", stats.Translated),
	)
	return stats, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
