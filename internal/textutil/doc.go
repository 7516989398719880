// Package textutil provides small text helpers shared by the corpus, resolver,
// and card export packages.
//
// The primary use cases are:
//   - Natural ("human") ordering of file names so episode 2 sorts before episode 10
//   - Rune-aware length checks for CJK text
//   - Stripping subtitle markup such as <i> and {\an8}
//   - Sanitizing values destined for tab-separated export fields
package textutil
