// Package corpus builds the ordered, searchable collection of subtitle lines
// that example sentences are drawn from.
//
// Raw subtitle units (one per episode file) are decoded through a fixed
// encoding fallback chain, stripped of cue numbers, timing lines, and inline
// markup, NFC-normalized, and tagged with their unit and a 1-based ordinal.
// Decoding runs in parallel but the resulting line order always follows unit
// input order, since downstream first-match selection depends on it.
//
// The package also discovers subtitle files on disk (natural episode order)
// and writes the merged plain-text export consumed by external vocabulary
// analysers.
package corpus
