package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateResolver(); err != nil {
		return err
	}
	if err := c.validateTranslation(); err != nil {
		return err
	}
	if err := c.validateScript(); err != nil {
		return err
	}
	if err := c.validatePreferences(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateResolver() error {
	if c.Resolver.MinLength < 1 {
		return errors.New("resolver.min_length must be at least 1")
	}
	return nil
}

func (c *Config) validateTranslation() error {
	if c.Translation.BatchSize < 1 {
		return errors.New("translation.batch_size must be at least 1")
	}
	switch c.Translation.Provider {
	case ProviderDeepL, ProviderLLM:
	default:
		return fmt.Errorf("translation.provider: unsupported value %q (use %q or %q)", c.Translation.Provider, ProviderDeepL, ProviderLLM)
	}
	return nil
}

// TranslationReady reports whether the configured provider has credentials.
// A missing key disables translation with a warning rather than failing the run.
func (c *Config) TranslationReady() (bool, string) {
	if !c.Translation.Enabled {
		return false, "translation disabled in config"
	}
	switch c.Translation.Provider {
	case ProviderDeepL:
		if strings.TrimSpace(c.DeepL.APIKey) == "" {
			return false, "no DeepL API key (set deepl.api_key or DEEPL_API_KEY)"
		}
	case ProviderLLM:
		if strings.TrimSpace(c.LLM.APIKey) == "" {
			return false, "no LLM API key (set llm.api_key or OPENROUTER_API_KEY)"
		}
	}
	return true, ""
}

func (c *Config) validateScript() error {
	switch c.Script.Converter {
	case ConverterNone:
	case ConverterOpenCC:
		if strings.TrimSpace(c.Script.OpenCCDir) == "" {
			return errors.New("script.opencc_dir must be set when script.converter is \"opencc\"")
		}
	default:
		return fmt.Errorf("script.converter: unsupported value %q (use %q or %q)", c.Script.Converter, ConverterNone, ConverterOpenCC)
	}
	return nil
}

func (c *Config) validatePreferences() error {
	for from, to := range c.Preferences.AltForms {
		if from == to {
			return fmt.Errorf("preferences.alt_forms: %q maps to itself", from)
		}
	}
	return nil
}
