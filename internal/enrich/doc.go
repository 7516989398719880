// Package enrich applies external lookups to resolved vocabulary entries.
//
// Dictionary and Translator are narrow capabilities; concrete backends live
// in the cedict and translate packages and tests substitute deterministic
// stubs. A failing lookup never aborts a pass: the affected field is left
// empty and a warning is logged.
package enrich
