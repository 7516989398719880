package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"subcards/internal/config"
)

func TestLoadDefaultConfigExpandsPathsAndReadsEnvKeys(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("DEEPL_API_KEY", "abc:fx")
	t.Setenv("OPENROUTER_API_KEY", "or-key")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	if want := filepath.Join(tempHome, ".cache", "subcards"); cfg.Paths.CacheDir != want {
		t.Fatalf("unexpected cache dir: got %q want %q", cfg.Paths.CacheDir, want)
	}
	if want := filepath.Join(tempHome, ".local", "share", "subcards", "cedict_ts.u8"); cfg.Dictionary.Path != want {
		t.Fatalf("unexpected dictionary path: got %q want %q", cfg.Dictionary.Path, want)
	}
	if cfg.DeepL.APIKey != "abc:fx" {
		t.Fatalf("expected DeepL key from env, got %q", cfg.DeepL.APIKey)
	}
	if cfg.DeepL.BaseURL != "https://api-free.deepl.com" {
		t.Fatalf("expected free endpoint for :fx key, got %q", cfg.DeepL.BaseURL)
	}
	if cfg.LLM.APIKey != "or-key" {
		t.Fatalf("expected LLM key from env, got %q", cfg.LLM.APIKey)
	}
	if cfg.Resolver.MinLength != 4 {
		t.Fatalf("unexpected min length: %d", cfg.Resolver.MinLength)
	}
	if cfg.Translation.BatchSize != 50 {
		t.Fatalf("unexpected batch size: %d", cfg.Translation.BatchSize)
	}
	if got := cfg.Preferences.AltForms["囌"]; got != "蘇" {
		t.Fatalf("expected default preference 囌 => 蘇, got %q", got)
	}
	if cfg.TranslationCachePath() != filepath.Join(cfg.Paths.CacheDir, "translations.db") {
		t.Fatalf("unexpected cache path: %q", cfg.TranslationCachePath())
	}
}

func TestDeepLProEndpointWithoutFreeSuffix(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := writeConfig(t, `
[deepl]
api_key = "pro-key"
`)
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.DeepL.BaseURL != "https://api.deepl.com" {
		t.Fatalf("expected pro endpoint, got %q", cfg.DeepL.BaseURL)
	}
}

func TestLoadCustomConfigNormalizesValues(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	path := writeConfig(t, `
[paths]
subtitles_dir = "~/subs"
output_file = "~/out/cards.tsv"

[corpus]
extensions = ["SRT", ".ass", ".srt", ""]
encodings = [" UTF-8 ", "GB18030"]
workers = 0

[translation]
provider = " LLM "
target_lang = "de"

[script]
converter = "None"

[logging]
format = "JSON"
level = "DEBUG"
`)
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected explicit config to be used, got %q exists=%v", resolved, exists)
	}
	if want := filepath.Join(tempHome, "subs"); cfg.Paths.SubtitlesDir != want {
		t.Fatalf("unexpected subtitles dir: got %q want %q", cfg.Paths.SubtitlesDir, want)
	}
	if want := filepath.Join(tempHome, "out", "cards.tsv"); cfg.Paths.OutputFile != want {
		t.Fatalf("unexpected output file: got %q want %q", cfg.Paths.OutputFile, want)
	}
	if got := strings.Join(cfg.Corpus.Extensions, ","); got != ".srt,.ass" {
		t.Fatalf("unexpected extensions: %q", got)
	}
	if got := strings.Join(cfg.Corpus.Encodings, ","); got != "utf-8,gb18030" {
		t.Fatalf("unexpected encodings: %q", got)
	}
	if cfg.Corpus.Workers != 4 {
		t.Fatalf("expected default workers, got %d", cfg.Corpus.Workers)
	}
	if cfg.Translation.Provider != config.ProviderLLM {
		t.Fatalf("unexpected provider: %q", cfg.Translation.Provider)
	}
	if cfg.Translation.TargetLang != "DE" {
		t.Fatalf("unexpected target lang: %q", cfg.Translation.TargetLang)
	}
	if cfg.Script.Converter != config.ConverterNone {
		t.Fatalf("unexpected converter: %q", cfg.Script.Converter)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
}

func TestValidateRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{
			name:   "min length",
			mutate: func(c *config.Config) { c.Resolver.MinLength = -1 },
			want:   "resolver.min_length",
		},
		{
			name:   "batch size",
			mutate: func(c *config.Config) { c.Translation.BatchSize = -5 },
			want:   "translation.batch_size",
		},
		{
			name:   "provider",
			mutate: func(c *config.Config) { c.Translation.Provider = "babelfish" },
			want:   "translation.provider",
		},
		{
			name:   "converter",
			mutate: func(c *config.Config) { c.Script.Converter = "magic" },
			want:   "script.converter",
		},
		{
			name:   "opencc dir",
			mutate: func(c *config.Config) { c.Script.Converter = config.ConverterOpenCC },
			want:   "script.opencc_dir",
		},
		{
			name:   "self mapping",
			mutate: func(c *config.Config) { c.Preferences.AltForms = map[string]string{"蘇": "蘇"} },
			want:   "maps to itself",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestTranslationReadyReportsMissingKey(t *testing.T) {
	cfg := config.Default()
	ready, reason := cfg.TranslationReady()
	if ready {
		t.Fatal("expected translation to be unavailable without a key")
	}
	if !strings.Contains(reason, "DEEPL_API_KEY") {
		t.Fatalf("unexpected reason: %q", reason)
	}

	cfg.DeepL.APIKey = "key"
	if ready, _ := cfg.TranslationReady(); !ready {
		t.Fatal("expected translation ready with key")
	}

	cfg.Translation.Enabled = false
	if ready, _ := cfg.TranslationReady(); ready {
		t.Fatal("expected disabled translation to report not ready")
	}
}

func TestSampleConfigParsesAndValidates(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		t.Fatalf("sample config is not valid TOML: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Preferences.AltForms["叡"] != "睿" {
		t.Fatalf("expected sample preferences to load, got %v", cfg.Preferences.AltForms)
	}
}

func TestEnsureDirectoriesCreatesCacheAndLogs(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.CacheDir = filepath.Join(base, "cache")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.CacheDir, cfg.Paths.LogDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q: %v", dir, err)
		}
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestSetDeepLKeyFollowsDerivedEndpoint(t *testing.T) {
	cfg := config.Default()
	cfg.SetDeepLKey("new:fx")
	if cfg.DeepL.BaseURL != "https://api-free.deepl.com" {
		t.Fatalf("expected free endpoint, got %q", cfg.DeepL.BaseURL)
	}
	cfg.SetDeepLKey("pro-key")
	if cfg.DeepL.BaseURL != "https://api.deepl.com" || cfg.DeepL.APIKey != "pro-key" {
		t.Fatalf("expected pro endpoint, got %q", cfg.DeepL.BaseURL)
	}

	cfg.DeepL.BaseURL = "http://localhost:8080"
	cfg.SetDeepLKey("other:fx")
	if cfg.DeepL.BaseURL != "http://localhost:8080" {
		t.Fatalf("expected explicit endpoint kept, got %q", cfg.DeepL.BaseURL)
	}
}
