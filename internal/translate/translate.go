// Package translate provides the sentence translation backends used to fill
// the translation column of exported cards.
//
// Two providers are available: DeepL over its REST API and any
// OpenRouter-compatible chat model. Both retry on HTTP 408/429/5xx and
// network timeouts with exponential backoff (base 1s, max 10s, up to 5
// attempts by default), honouring Retry-After. Context cancellation aborts
// retries immediately.
//
// Cached layers a transcache.Store in front of either provider so repeated
// runs only pay for sentences not translated before.
package translate

import (
	"fmt"
	"log/slog"

	"subcards/internal/config"
	"subcards/internal/enrich"
	"subcards/internal/services"
	"subcards/internal/transcache"
)

// Backend is a translator that can name itself.
type Backend interface {
	enrich.Translator
	Name() string
}

// New builds the configured provider, wrapped in Cached when cache is
// non-nil. It fails with a configuration error when translation is not ready.
func New(cfg *config.Config, cache *transcache.Store, logger *slog.Logger, opts ...Option) (Backend, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "translation", "init", "config required", nil)
	}
	if ready, reason := cfg.TranslationReady(); !ready {
		return nil, services.Wrap(services.ErrConfiguration, "translation", "init", reason, nil)
	}

	var backend Backend
	switch cfg.Translation.Provider {
	case config.ProviderDeepL:
		backend = NewDeepL(DeepLConfig{
			APIKey:         cfg.DeepL.APIKey,
			BaseURL:        cfg.DeepL.BaseURL,
			SourceLang:     cfg.Translation.SourceLang,
			TimeoutSeconds: cfg.DeepL.TimeoutSeconds,
		}, opts...)
	case config.ProviderLLM:
		client := NewChatClient(ChatConfig{
			APIKey:         cfg.LLM.APIKey,
			BaseURL:        cfg.LLM.BaseURL,
			Model:          cfg.LLM.Model,
			Referer:        cfg.LLM.Referer,
			Title:          cfg.LLM.Title,
			TimeoutSeconds: cfg.LLM.TimeoutSeconds,
		}, opts...)
		backend = NewLLM(client, cfg.Translation.SourceLang)
	default:
		return nil, services.Wrap(services.ErrConfiguration, "translation", "init",
			fmt.Sprintf("unknown provider %q", cfg.Translation.Provider), nil)
	}

	if cache != nil {
		return NewCached(backend, cache, logger), nil
	}
	return backend, nil
}
