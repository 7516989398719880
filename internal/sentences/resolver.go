package sentences

import (
	"context"
	"iter"
	"log/slog"
	"strings"

	"subcards/internal/corpus"
	"subcards/internal/logging"
	"subcards/internal/textutil"
	"subcards/internal/vocab"
)

// DefaultMinLength is the shortest example accepted when MinLength is unset.
const DefaultMinLength = 4

// Resolver attaches example lines to vocabulary entries.
type Resolver struct {
	// MinLength is the minimum example length in runes.
	MinLength int
	// Absorb enables the short-line pre-pass.
	Absorb bool
	// Separator is placed between absorbed lines. Empty suits CJK text.
	Separator string
	Logger    *slog.Logger
}

// Stats summarizes one resolution pass.
type Stats struct {
	Entries         int
	Resolved        int
	AlreadyResolved int
	Unresolved      int
	Candidates      int
}

// Resolve sets an example on every entry that lacks one. Entries that
// already have an example are never touched, so calling Resolve again is a
// no-op for them. Cancellation is checked between entries; examples set
// before cancellation are kept and ctx.Err() is returned with partial stats.
func (r Resolver) Resolve(ctx context.Context, set *vocab.Set, c *corpus.Corpus) (Stats, error) {
	logger := r.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	minLength := r.MinLength
	if minLength <= 0 {
		minLength = DefaultMinLength
	}

	candidates := r.candidates(c, minLength)
	stats := Stats{Entries: set.Len(), Candidates: len(candidates)}

	for _, entry := range set.Entries() {
		if err := ctx.Err(); err != nil {
			stats.Unresolved = stats.Entries - stats.Resolved - stats.AlreadyResolved
			return stats, err
		}
		if entry.HasExample() {
			stats.AlreadyResolved++
			continue
		}
		line, ok := FirstMatch(candidates, entry.Headword, minLength)
		if !ok {
			logger.Debug("no example found", logging.String("headword", entry.Headword))
			continue
		}
		entry.SetExample(line)
		stats.Resolved++
	}
	stats.Unresolved = stats.Entries - stats.Resolved - stats.AlreadyResolved

	logger.Info("example sentences resolved",
		logging.Int("entries", stats.Entries),
		logging.Int("resolved", stats.Resolved),
		logging.Int("already_resolved", stats.AlreadyResolved),
		logging.Int("unresolved", stats.Unresolved),
		logging.Int("candidates", stats.Candidates),
	)
	return stats, nil
}

func (r Resolver) candidates(c *corpus.Corpus, minLength int) []corpus.SourceLine {
	if r.Absorb {
		return ExpandWith(c.Lines(), minLength, r.Separator)
	}
	lines := make([]corpus.SourceLine, 0, c.Len())
	for line := range c.Lines() {
		lines = append(lines, line)
	}
	return lines
}

// FirstMatch returns the first line containing headword whose length is at
// least minLength runes.
func FirstMatch(lines []corpus.SourceLine, headword string, minLength int) (corpus.SourceLine, bool) {
	if headword == "" {
		return corpus.SourceLine{}, false
	}
	for _, line := range lines {
		if strings.Contains(line.Text, headword) && textutil.RuneLen(line.Text) >= minLength {
			return line, true
		}
	}
	return corpus.SourceLine{}, false
}

// Expand runs the short-line pre-pass with no separator between absorbed lines.
func Expand(lines iter.Seq[corpus.SourceLine], minLength int) []corpus.SourceLine {
	return ExpandWith(lines, minLength, "")
}

// ExpandWith emits every input line in order. After each line shorter than
// 2*minLength runes, it also emits a synthesized line built by appending the
// immediately following lines of the same unit until the combined text
// reaches 2*minLength runes or the unit ends. The synthesized line carries
// the first line's unit and ordinal and is only emitted when at least one
// line was absorbed.
func ExpandWith(lines iter.Seq[corpus.SourceLine], minLength int, sep string) []corpus.SourceLine {
	var all []corpus.SourceLine
	for line := range lines {
		all = append(all, line)
	}
	target := 2 * minLength
	out := make([]corpus.SourceLine, 0, len(all))
	for i, line := range all {
		out = append(out, line)
		if textutil.RuneLen(line.Text) >= target {
			continue
		}
		var b strings.Builder
		b.WriteString(line.Text)
		length := textutil.RuneLen(line.Text)
		absorbed := 0
		for j := i + 1; j < len(all) && all[j].Unit == line.Unit && length < target; j++ {
			b.WriteString(sep)
			b.WriteString(all[j].Text)
			length += textutil.RuneLen(sep) + textutil.RuneLen(all[j].Text)
			absorbed++
		}
		if absorbed == 0 {
			continue
		}
		out = append(out, corpus.SourceLine{Text: b.String(), Unit: line.Unit, Ordinal: line.Ordinal})
	}
	return out
}
