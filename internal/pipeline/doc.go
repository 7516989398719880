// Package pipeline wires the vocabulary, corpus, resolver, enrichment, and
// card packages into a single generate run.
//
// Run validates its Options before touching any input, stamps a run_id on
// the context, and executes the stages in order:
//
//	vocabulary -> corpus -> examples -> definitions -> translations -> export
//
// Only configuration problems abort a run. Unreadable subtitle files,
// rejected vocabulary rows, dictionary download failures, and failed
// translation batches are logged as warnings and leave the affected fields
// empty. When the context is cancelled mid-run the remaining enrichment
// stages are skipped, the cards built so far are still written, and Run
// returns the context error alongside the summary.
//
// Merge produces the plain-text corpus exports used for frequency analysis.
package pipeline
