package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains input, output, and working directory configuration.
type Paths struct {
	SubtitlesDir   string `toml:"subtitles_dir"`
	VocabularyFile string `toml:"vocabulary_file"`
	OutputFile     string `toml:"output_file"`
	MergedOutput   string `toml:"merged_output"`
	CacheDir       string `toml:"cache_dir"`
	LogDir         string `toml:"log_dir"`
}

// Corpus controls how subtitle files are discovered and decoded.
type Corpus struct {
	Extensions []string `toml:"extensions"`
	// Encodings lists decoders in priority order. A unit that fails all of them is skipped.
	Encodings []string `toml:"encodings"`
	Workers   int      `toml:"workers"`
}

// Resolver controls example sentence selection.
type Resolver struct {
	MinLength        int  `toml:"min_length"`
	AbsorbShortLines bool `toml:"absorb_short_lines"`
}

// Cards controls the flashcard export.
type Cards struct {
	IncludeEmpty  bool   `toml:"include_empty"`
	ClozeTag      string `toml:"cloze_tag"`
	NewlineMarker string `toml:"newline_marker"`
}

// Dictionary contains CC-CEDICT acquisition settings.
type Dictionary struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	DownloadURL string `toml:"download_url"`
	Separator   string `toml:"separator"`
}

// Translation contains settings shared by every translation provider.
type Translation struct {
	Enabled      bool   `toml:"enabled"`
	Provider     string `toml:"provider"`
	SourceLang   string `toml:"source_lang"`
	TargetLang   string `toml:"target_lang"`
	BatchSize    int    `toml:"batch_size"`
	BatchDelayMS int    `toml:"batch_delay_ms"`
	Cache        bool   `toml:"cache"`
}

// DeepL contains DeepL API credentials.
type DeepL struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// LLM contains OpenRouter-compatible chat completion settings used by the llm provider.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Script selects the headword-script to alt-script converter.
type Script struct {
	Converter string `toml:"converter"`
	OpenCCDir string `toml:"opencc_dir"`
}

// Preferences holds orthographic preference data for variant reconciliation.
type Preferences struct {
	// AltForms maps a non-preferred alt-form to its preferred replacement.
	AltForms map[string]string `toml:"alt_forms"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for subcards.
//
// Configuration sections by subsystem:
//   - Paths: inputs, outputs, caches, logs
//   - Corpus: subtitle discovery and decoding
//   - Resolver: example sentence selection
//   - Cards: export format
//   - Dictionary: CC-CEDICT download and lookup
//   - Translation, DeepL, LLM: sentence translation providers
//   - Script: alt-script conversion
//   - Preferences: preferred alt-form table
//   - Logging: log format and level
type Config struct {
	Paths       Paths       `toml:"paths"`
	Corpus      Corpus      `toml:"corpus"`
	Resolver    Resolver    `toml:"resolver"`
	Cards       Cards       `toml:"cards"`
	Dictionary  Dictionary  `toml:"dictionary"`
	Translation Translation `toml:"translation"`
	DeepL       DeepL       `toml:"deepl"`
	LLM         LLM         `toml:"llm"`
	Script      Script      `toml:"script"`
	Preferences Preferences `toml:"preferences"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("subcards.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the cache and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.CacheDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// TranslationCachePath returns the SQLite file backing the translation cache.
func (c *Config) TranslationCachePath() string {
	return filepath.Join(c.Paths.CacheDir, "translations.db")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
