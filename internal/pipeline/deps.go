package pipeline

import (
	"context"
	"io"
	"log/slog"
	"time"

	"subcards/internal/cards"
	"subcards/internal/cedict"
	"subcards/internal/config"
	"subcards/internal/enrich"
	"subcards/internal/logging"
	"subcards/internal/script"
	"subcards/internal/services"
	"subcards/internal/transcache"
	"subcards/internal/translate"
)

// DictionaryOpener returns the definition source. It runs only when
// definitions are enabled.
type DictionaryOpener func(ctx context.Context) (enrich.Dictionary, error)

// TranslatorFactory returns the translation backend and an optional closer
// released when the run ends. It runs before any input is processed.
type TranslatorFactory func(ctx context.Context) (enrich.Translator, io.Closer, error)

// Deps carries the capabilities a run depends on. Nil capabilities disable
// the stage that needs them.
type Deps struct {
	Logger     *slog.Logger
	Converter  cards.ScriptConverter
	Dictionary DictionaryOpener
	Translator TranslatorFactory
	// Sleep overrides the pause between translation batches.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultDeps wires the production capabilities described by cfg. A script
// converter that cannot be loaded is a configuration error.
func DefaultDeps(cfg *config.Config, logger *slog.Logger) (Deps, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	converter, err := script.New(cfg.Script.Converter, cfg.Script.OpenCCDir)
	if err != nil {
		return Deps{}, services.Wrap(services.ErrConfiguration, "script", "load", "Failed to load script converter", err)
	}

	dictPath := cfg.Dictionary.Path
	fetcher := cedict.Fetcher{
		URL:    cfg.Dictionary.DownloadURL,
		Logger: logging.NewComponentLogger(logger, "cedict"),
	}

	return Deps{
		Logger:    logger,
		Converter: converter,
		Dictionary: func(ctx context.Context) (enrich.Dictionary, error) {
			d, err := cedict.Open(ctx, dictPath, fetcher)
			if err != nil {
				return nil, err
			}
			return d, nil
		},
		Translator: func(ctx context.Context) (enrich.Translator, io.Closer, error) {
			return openTranslator(ctx, cfg, logger)
		},
	}, nil
}

func openTranslator(ctx context.Context, cfg *config.Config, logger *slog.Logger) (enrich.Translator, io.Closer, error) {
	component := logging.NewComponentLogger(logger, "translate")
	var store *transcache.Store
	if cfg.Translation.Cache {
		opened, err := transcache.Open(ctx, cfg.TranslationCachePath())
		if err != nil {
			logging.WarnWithContext(component, "translation cache unavailable", "translation_cache_unavailable",
				logging.String(logging.FieldErrorHint, "another run may hold the cache lock"),
				logging.String(logging.FieldImpact, "translations are requested without caching"),
				logging.Error(err),
			)
		} else {
			store = opened
		}
	}
	backend, err := translate.New(cfg, store, component)
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return nil, nil, err
	}
	if store == nil {
		return backend, nil, nil
	}
	return backend, store, nil
}
