// Package logging assembles structured slog loggers and formatting helpers used
// across subcards.
//
// It owns the console and JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so pipeline stages tag their lines with the
// run identifier, stage, and source unit. A no-op logger is provided for tests
// and for wiring code that runs without a configured logger.
package logging
