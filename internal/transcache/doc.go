// Package transcache persists sentence translations in SQLite so repeated
// runs over the same subtitles do not pay for the same translations twice.
//
// Rows are keyed by the SHA256 of the source text and the target language.
// A file lock next to the database keeps a single writer per cache; a second
// process gets ErrLocked and is expected to run uncached.
package transcache
