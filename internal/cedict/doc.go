// Package cedict parses the CC-CEDICT Chinese-English dictionary and serves
// headword lookups for definition enrichment.
//
// The dictionary file is downloaded on first use (gzip from MDBG), written
// atomically, and guarded by a file lock so concurrent runs do not race on
// the download.
package cedict
