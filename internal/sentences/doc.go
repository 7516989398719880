// Package sentences picks one example line from the corpus for each
// vocabulary entry.
//
// Selection is a deterministic linear scan: the first line, in corpus order,
// that contains the headword as a literal substring and is at least
// MinLength runes long wins. No ranking is applied. An optional pre-pass
// synthesizes longer candidates by joining short adjacent lines of the same
// unit; synthesized lines are emitted alongside, never instead of, the
// originals.
package sentences
