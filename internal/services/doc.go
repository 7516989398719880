// Package services defines shared utilities consumed by the pipeline stages and
// the external integrations (dictionary, translation backends, cache).
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers, stage names, and source units
//     for logging.
//   - Structured error markers plus the Wrap helper. Only configuration errors
//     abort a run; input defects and capability failures are logged and the
//     affected field is left unset.
package services
