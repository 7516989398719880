package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"subcards/internal/logging"
	"subcards/internal/services"
)

// Stage names, also used as the stage log field.
const (
	StageVocabulary   = "vocabulary"
	StageCorpus       = "corpus"
	StageExamples     = "examples"
	StageDefinitions  = "definitions"
	StageTranslations = "translations"
	StageExport       = "export"
)

type stageFunc func(ctx context.Context, logger *slog.Logger) error

// runStage executes fn with stage-scoped context and logger, logging start,
// completion, interruption, or failure.
func runStage(ctx context.Context, base *slog.Logger, name string, fn stageFunc) error {
	stageCtx := services.WithStage(ctx, name)
	stageLogger := logging.WithContext(stageCtx, base)
	stageLogger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))

	started := time.Now()
	err := fn(stageCtx, stageLogger)
	elapsed := time.Since(started).Round(time.Millisecond)

	switch {
	case err == nil:
		stageLogger.Info("stage completed",
			logging.String(logging.FieldEventType, "stage_complete"),
			logging.Duration("elapsed", elapsed),
		)
	case isInterrupt(err):
		logging.WarnWithContext(stageLogger, "stage interrupted", "stage_interrupted",
			logging.Duration("elapsed", elapsed),
			logging.String(logging.FieldImpact, "progress so far is kept; remaining enrichment skipped"),
		)
	default:
		stageLogger.Error("stage failed",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.String("error_kind", services.Kind(err)),
			logging.Error(err),
		)
	}
	return err
}

func isInterrupt(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
