package translate

import (
	"context"
	"log/slog"

	"subcards/internal/enrich"
	"subcards/internal/logging"
	"subcards/internal/transcache"
)

// Cached consults a translation cache before calling the backend. Only texts
// missing from the cache are sent, and fresh results are stored afterwards.
type Cached struct {
	backend Backend
	store   *transcache.Store
	logger  *slog.Logger
}

// NewCached wraps backend with store.
func NewCached(backend Backend, store *transcache.Store, logger *slog.Logger) *Cached {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Cached{backend: backend, store: store, logger: logger}
}

// Name reports the wrapped backend's name.
func (c *Cached) Name() string { return c.backend.Name() }

// Translate returns one translation per text, in order. Cache read and write
// failures are logged and the backend is used as if the cache were empty.
func (c *Cached) Translate(ctx context.Context, texts []string, targetLang string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	hits, err := c.store.Get(ctx, targetLang, texts)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logging.WarnWithContext(c.logger, "translation cache read failed", "translation_cache_read_failed",
			logging.String(logging.FieldImpact, "batch sent to provider uncached"),
			logging.Error(err),
		)
		hits = map[string]string{}
	}

	var misses []string
	seen := make(map[string]struct{})
	for _, text := range texts {
		if _, ok := hits[text]; ok {
			continue
		}
		if _, ok := seen[text]; ok {
			continue
		}
		seen[text] = struct{}{}
		misses = append(misses, text)
	}

	if len(misses) > 0 {
		results, err := c.backend.Translate(ctx, misses, targetLang)
		if err != nil {
			return nil, err
		}
		if len(results) != len(misses) {
			return nil, &enrich.MismatchError{Want: len(misses), Got: len(results)}
		}
		fresh := make(map[string]string, len(misses))
		for i, text := range misses {
			hits[text] = results[i]
			if results[i] != "" {
				fresh[text] = results[i]
			}
		}
		if err := c.store.Put(ctx, targetLang, c.backend.Name(), fresh); err != nil {
			logging.WarnWithContext(c.logger, "translation cache write failed", "translation_cache_write_failed",
				logging.String(logging.FieldImpact, "translations will be requested again next run"),
				logging.Error(err),
			)
		}
	}

	c.logger.Debug("translation cache",
		logging.Int("requested", len(texts)),
		logging.Int("sent", len(misses)),
	)

	out := make([]string, len(texts))
	for i, text := range texts {
		out[i] = hits[text]
	}
	return out, nil
}
