package pipeline

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"subcards/internal/corpus"
	"subcards/internal/fileutil"
	"subcards/internal/logging"
	"subcards/internal/services"
)

// MergeOptions controls a merged corpus export.
type MergeOptions struct {
	SubtitlesDir string
	OutputPath   string
	Extensions   []string
	Encodings    []string
	Workers      int
	Logger       *slog.Logger
}

// MergeSummary reports a merged export.
type MergeSummary struct {
	Units        int
	SkippedUnits int
	Lines        int
	OutputPath   string
	MarkedPath   string
}

// Merge writes every cleaned corpus line to OutputPath, and the same lines
// with per-unit marker blocks to its "_with_episodes" companion.
func Merge(ctx context.Context, opts MergeOptions) (MergeSummary, error) {
	summary := MergeSummary{
		OutputPath: opts.OutputPath,
		MarkedPath: corpus.MarkedPath(opts.OutputPath),
	}
	if strings.TrimSpace(opts.OutputPath) == "" {
		return summary, configError("output path is required", nil)
	}
	if err := requireFile(opts.SubtitlesDir, true); err != nil {
		return summary, configError("subtitles directory unavailable", err)
	}
	if err := validateEncodings(opts.Encodings); err != nil {
		return summary, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	c, unitErrs, err := corpus.LoadDir(ctx, opts.SubtitlesDir, opts.Extensions, corpus.Options{
		Encodings: opts.Encodings,
		Workers:   opts.Workers,
		Logger:    logger,
	})
	if err != nil {
		if isInterrupt(err) {
			return summary, err
		}
		return summary, services.Wrap(services.ErrValidation, "merge", "load", "Failed to read subtitles", err)
	}
	summary.Units = len(c.Units())
	summary.SkippedUnits = len(unitErrs)
	summary.Lines = c.Len()

	targets := []struct {
		path    string
		markers bool
	}{
		{opts.OutputPath, false},
		{summary.MarkedPath, true},
	}
	for _, target := range targets {
		digest, err := fileutil.WriteAtomic(target.path, 0o644, func(w io.Writer) error {
			return corpus.WriteMerged(w, c, target.markers)
		})
		if err != nil {
			return summary, services.Wrap(services.ErrValidation, "merge", "write", "Failed to write merged corpus", err)
		}
		logger.Info("merged corpus written",
			logging.String("path", target.path),
			logging.Bool("markers", target.markers),
			logging.Int("lines", summary.Lines),
			logging.String("sha256", digest),
		)
	}
	return summary, nil
}
