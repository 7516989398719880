package config

const (
	defaultConfigPath        = "~/.config/subcards/config.toml"
	defaultOutputFile        = "anki_export.tsv"
	defaultMergedOutput      = "merged_subtitles.txt"
	defaultCacheDir          = "~/.cache/subcards"
	defaultLogDir            = "~/.local/share/subcards/logs"
	defaultWorkers           = 4
	defaultMinLength         = 4
	defaultClozeTag          = "c1"
	defaultNewlineMarker     = "<br>"
	defaultDictionaryPath    = "~/.local/share/subcards/cedict_ts.u8"
	defaultDictionaryURL     = "https://www.mdbg.net/chinese/export/cedict/cedict_1_0_ts_utf-8_mdbg.txt.gz"
	defaultDefinitionSep     = "<br>"
	defaultProvider          = "deepl"
	defaultSourceLang        = "ZH"
	defaultTargetLang        = "EN-US"
	defaultBatchSize         = 50
	defaultBatchDelayMS      = 500
	defaultDeepLTimeout      = 30
	deepLFreeBaseURL         = "https://api-free.deepl.com"
	deepLProBaseURL          = "https://api.deepl.com"
	defaultLLMBaseURL        = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel          = "google/gemini-3-flash-preview"
	defaultLLMReferer        = "https://github.com/subcards/subcards"
	defaultLLMTitle          = "subcards translator"
	defaultLLMTimeoutSeconds = 60
	defaultConverter         = "none"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Providers understood by the translation section.
const (
	ProviderDeepL = "deepl"
	ProviderLLM   = "llm"
)

// Converters understood by the script section.
const (
	ConverterNone   = "none"
	ConverterOpenCC = "opencc"
)

// DefaultAltFormPreferences returns the built-in preferred alt-form table.
func DefaultAltFormPreferences() map[string]string {
	return map[string]string{
		"囌": "蘇",
		"叡": "睿",
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputFile:   defaultOutputFile,
			MergedOutput: defaultMergedOutput,
			CacheDir:     defaultCacheDir,
			LogDir:       defaultLogDir,
		},
		Corpus: Corpus{
			Extensions: []string{".srt"},
			Encodings:  []string{"utf-8", "utf-8-bom", "gb18030", "gbk", "big5"},
			Workers:    defaultWorkers,
		},
		Resolver: Resolver{
			MinLength: defaultMinLength,
		},
		Cards: Cards{
			ClozeTag:      defaultClozeTag,
			NewlineMarker: defaultNewlineMarker,
		},
		Dictionary: Dictionary{
			Enabled:     true,
			Path:        defaultDictionaryPath,
			DownloadURL: defaultDictionaryURL,
			Separator:   defaultDefinitionSep,
		},
		Translation: Translation{
			Enabled:      true,
			Provider:     defaultProvider,
			SourceLang:   defaultSourceLang,
			TargetLang:   defaultTargetLang,
			BatchSize:    defaultBatchSize,
			BatchDelayMS: defaultBatchDelayMS,
			Cache:        true,
		},
		DeepL: DeepL{
			TimeoutSeconds: defaultDeepLTimeout,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Script: Script{
			Converter: defaultConverter,
		},
		Preferences: Preferences{
			AltForms: DefaultAltFormPreferences(),
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
