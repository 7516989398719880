package config

import (
	"fmt"
	"os"
	"strings"

	"subcards/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCorpus()
	c.normalizeResolver()
	c.normalizeCards()
	if err := c.normalizeDictionary(); err != nil {
		return err
	}
	c.normalizeTranslation()
	c.normalizeDeepL()
	c.normalizeLLM()
	if err := c.normalizeScript(); err != nil {
		return err
	}
	c.normalizePreferences()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.SubtitlesDir, err = expandPath(strings.TrimSpace(c.Paths.SubtitlesDir)); err != nil {
		return fmt.Errorf("paths.subtitles_dir: %w", err)
	}
	if c.Paths.VocabularyFile, err = expandPath(strings.TrimSpace(c.Paths.VocabularyFile)); err != nil {
		return fmt.Errorf("paths.vocabulary_file: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputFile) == "" {
		c.Paths.OutputFile = defaultOutputFile
	}
	if c.Paths.OutputFile, err = expandPath(strings.TrimSpace(c.Paths.OutputFile)); err != nil {
		return fmt.Errorf("paths.output_file: %w", err)
	}
	if strings.TrimSpace(c.Paths.MergedOutput) == "" {
		c.Paths.MergedOutput = defaultMergedOutput
	}
	if c.Paths.MergedOutput, err = expandPath(strings.TrimSpace(c.Paths.MergedOutput)); err != nil {
		return fmt.Errorf("paths.merged_output: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir
	}
	if c.Paths.CacheDir, err = expandPath(strings.TrimSpace(c.Paths.CacheDir)); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCorpus() {
	exts := make([]string, 0, len(c.Corpus.Extensions))
	seen := make(map[string]struct{}, len(c.Corpus.Extensions))
	for _, ext := range c.Corpus.Extensions {
		normalized := strings.ToLower(strings.TrimSpace(ext))
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		exts = append(exts, normalized)
	}
	if len(exts) == 0 {
		exts = []string{".srt"}
	}
	c.Corpus.Extensions = exts

	encodings := make([]string, 0, len(c.Corpus.Encodings))
	for _, name := range c.Corpus.Encodings {
		if normalized := strings.ToLower(strings.TrimSpace(name)); normalized != "" {
			encodings = append(encodings, normalized)
		}
	}
	if len(encodings) == 0 {
		encodings = Default().Corpus.Encodings
	}
	c.Corpus.Encodings = encodings

	if c.Corpus.Workers <= 0 {
		c.Corpus.Workers = defaultWorkers
	}
}

func (c *Config) normalizeResolver() {
	if c.Resolver.MinLength == 0 {
		c.Resolver.MinLength = defaultMinLength
	}
}

func (c *Config) normalizeCards() {
	c.Cards.ClozeTag = strings.TrimSpace(c.Cards.ClozeTag)
	if c.Cards.ClozeTag == "" {
		c.Cards.ClozeTag = defaultClozeTag
	}
	if c.Cards.NewlineMarker == "" {
		c.Cards.NewlineMarker = defaultNewlineMarker
	}
}

func (c *Config) normalizeDictionary() error {
	var err error
	if strings.TrimSpace(c.Dictionary.Path) == "" {
		c.Dictionary.Path = defaultDictionaryPath
	}
	if c.Dictionary.Path, err = expandPath(strings.TrimSpace(c.Dictionary.Path)); err != nil {
		return fmt.Errorf("dictionary.path: %w", err)
	}
	c.Dictionary.DownloadURL = strings.TrimSpace(c.Dictionary.DownloadURL)
	if c.Dictionary.DownloadURL == "" {
		c.Dictionary.DownloadURL = defaultDictionaryURL
	}
	if c.Dictionary.Separator == "" {
		c.Dictionary.Separator = defaultDefinitionSep
	}
	return nil
}

func (c *Config) normalizeTranslation() {
	c.Translation.Provider = strings.ToLower(strings.TrimSpace(c.Translation.Provider))
	if c.Translation.Provider == "" {
		c.Translation.Provider = defaultProvider
	}
	c.Translation.SourceLang = language.Normalize(c.Translation.SourceLang)
	if c.Translation.SourceLang == "" {
		c.Translation.SourceLang = defaultSourceLang
	}
	c.Translation.TargetLang = language.Normalize(c.Translation.TargetLang)
	if c.Translation.TargetLang == "" {
		c.Translation.TargetLang = defaultTargetLang
	}
	if c.Translation.BatchSize == 0 {
		c.Translation.BatchSize = defaultBatchSize
	}
	if c.Translation.BatchDelayMS < 0 {
		c.Translation.BatchDelayMS = 0
	}
}

func (c *Config) normalizeDeepL() {
	c.DeepL.APIKey = strings.TrimSpace(c.DeepL.APIKey)
	if c.DeepL.APIKey == "" {
		if value, ok := os.LookupEnv("DEEPL_API_KEY"); ok {
			c.DeepL.APIKey = strings.TrimSpace(value)
		}
	}
	c.DeepL.BaseURL = strings.TrimRight(strings.TrimSpace(c.DeepL.BaseURL), "/")
	if c.DeepL.BaseURL == "" {
		c.DeepL.BaseURL = deepLBaseURL(c.DeepL.APIKey)
	}
	if c.DeepL.TimeoutSeconds <= 0 {
		c.DeepL.TimeoutSeconds = defaultDeepLTimeout
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	if c.LLM.Referer == "" {
		c.LLM.Referer = defaultLLMReferer
	}
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.Title == "" {
		c.LLM.Title = defaultLLMTitle
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeScript() error {
	c.Script.Converter = strings.ToLower(strings.TrimSpace(c.Script.Converter))
	if c.Script.Converter == "" {
		c.Script.Converter = defaultConverter
	}
	var err error
	if c.Script.OpenCCDir, err = expandPath(strings.TrimSpace(c.Script.OpenCCDir)); err != nil {
		return fmt.Errorf("script.opencc_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizePreferences() {
	cleaned := make(map[string]string, len(c.Preferences.AltForms))
	for from, to := range c.Preferences.AltForms {
		from = strings.TrimSpace(from)
		to = strings.TrimSpace(to)
		if from == "" || to == "" {
			continue
		}
		cleaned[from] = to
	}
	c.Preferences.AltForms = cleaned
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

// deepLBaseURL picks the free endpoint for keys carrying the ":fx" suffix.
func deepLBaseURL(apiKey string) string {
	if strings.HasSuffix(apiKey, ":fx") {
		return deepLFreeBaseURL
	}
	return deepLProBaseURL
}

// SetDeepLKey replaces the DeepL API key. A base URL that was derived from
// the previous key follows the new one; an explicit base URL is kept.
func (c *Config) SetDeepLKey(key string) {
	key = strings.TrimSpace(key)
	if c.DeepL.BaseURL == "" || c.DeepL.BaseURL == deepLBaseURL(c.DeepL.APIKey) {
		c.DeepL.BaseURL = deepLBaseURL(key)
	}
	c.DeepL.APIKey = key
}
