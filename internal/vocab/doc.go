// Package vocab folds a learner's raw vocabulary export into one canonical
// entry per headword.
//
// Duplicate headwords are merged: differing alternate-script forms and
// pronunciations become ordered variant sets, an injected preference table
// decides which alt-form is primary, and a sticky flag records whether any
// observation marked the word as a proper noun (capitalized pronunciation).
// Iteration over the resulting Set follows first-seen headword order.
package vocab
