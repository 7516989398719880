package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"subcards/internal/config"
	"subcards/internal/corpus"
	"subcards/internal/services"
	"subcards/internal/vocab"
)

// Options controls one generate run.
type Options struct {
	VocabularyPath string
	SubtitlesDir   string
	OutputPath     string

	Extensions []string
	Encodings  []string
	Workers    int

	MinLength    int
	Absorb       bool
	IncludeEmpty bool
	Preferences  vocab.PreferenceTable

	ClozeTag      string
	NewlineMarker string

	Definitions         bool
	DefinitionSeparator string

	Translate  bool
	TargetLang string
	BatchSize  int
	BatchDelay time.Duration
}

// OptionsFromConfig seeds Options from a loaded configuration. Callers
// override individual fields from command-line flags afterwards.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		VocabularyPath:      cfg.Paths.VocabularyFile,
		SubtitlesDir:        cfg.Paths.SubtitlesDir,
		OutputPath:          cfg.Paths.OutputFile,
		Extensions:          cfg.Corpus.Extensions,
		Encodings:           cfg.Corpus.Encodings,
		Workers:             cfg.Corpus.Workers,
		MinLength:           cfg.Resolver.MinLength,
		Absorb:              cfg.Resolver.AbsorbShortLines,
		IncludeEmpty:        cfg.Cards.IncludeEmpty,
		Preferences:         vocab.PreferenceTable(cfg.Preferences.AltForms),
		ClozeTag:            cfg.Cards.ClozeTag,
		NewlineMarker:       cfg.Cards.NewlineMarker,
		Definitions:         cfg.Dictionary.Enabled,
		DefinitionSeparator: cfg.Dictionary.Separator,
		Translate:           cfg.Translation.Enabled,
		TargetLang:          cfg.Translation.TargetLang,
		BatchSize:           cfg.Translation.BatchSize,
		BatchDelay:          time.Duration(cfg.Translation.BatchDelayMS) * time.Millisecond,
	}
}

// Validate reports configuration errors that must stop a run before any
// input is processed.
func (o Options) Validate() error {
	if strings.TrimSpace(o.VocabularyPath) == "" {
		return configError("vocabulary file is required", nil)
	}
	if err := requireFile(o.VocabularyPath, false); err != nil {
		return configError("vocabulary file unavailable", err)
	}
	if strings.TrimSpace(o.SubtitlesDir) == "" {
		return configError("subtitles directory is required", nil)
	}
	if err := requireFile(o.SubtitlesDir, true); err != nil {
		return configError("subtitles directory unavailable", err)
	}
	if strings.TrimSpace(o.OutputPath) == "" {
		return configError("output path is required", nil)
	}
	if err := validateEncodings(o.Encodings); err != nil {
		return err
	}
	if o.MinLength < 1 {
		return configError(fmt.Sprintf("min length must be at least 1, got %d", o.MinLength), nil)
	}
	if o.Translate && o.BatchSize < 1 {
		return configError(fmt.Sprintf("batch size must be at least 1, got %d", o.BatchSize), nil)
	}
	for from, to := range o.Preferences {
		if from == to {
			return configError(fmt.Sprintf("preference %q maps to itself", from), nil)
		}
	}
	return nil
}

func validateEncodings(names []string) error {
	if len(names) == 0 {
		return nil
	}
	if _, err := corpus.NewChain(names); err != nil {
		return configError("subtitle encoding list is invalid", err)
	}
	return nil
}

func requireFile(path string, wantDir bool) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	switch {
	case wantDir && !info.IsDir():
		return fmt.Errorf("%s is not a directory", path)
	case !wantDir && info.IsDir():
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}

func configError(message string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		message += " (path does not exist)"
	}
	return services.Wrap(services.ErrConfiguration, "pipeline", "validate", message, err)
}
