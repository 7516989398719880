package corpus

import (
	"fmt"
	"iter"
)

// SourceLine is one normalized subtitle line. Values are never mutated after
// corpus construction.
type SourceLine struct {
	Text    string
	Unit    string
	Ordinal int
}

// RawUnit is the undecoded content of one source unit, typically a file.
type RawUnit struct {
	ID   string
	Data []byte
}

// UnitError reports a unit skipped during corpus construction.
type UnitError struct {
	Unit string
	Err  error
}

func (e UnitError) Error() string {
	return fmt.Sprintf("unit %s: %v", e.Unit, e.Err)
}

func (e UnitError) Unwrap() error {
	return e.Err
}

// Corpus is an immutable ordered line collection.
type Corpus struct {
	lines []SourceLine
	units []string
}

// New assembles a corpus from already-normalized lines. Ordinals are taken as
// given; it exists for callers that hold pre-cleaned text.
func New(lines []SourceLine) *Corpus {
	c := &Corpus{lines: append([]SourceLine(nil), lines...)}
	seen := make(map[string]struct{})
	for _, line := range c.lines {
		if _, ok := seen[line.Unit]; ok {
			continue
		}
		seen[line.Unit] = struct{}{}
		c.units = append(c.units, line.Unit)
	}
	return c
}

// Lines yields every line in (unit order, ordinal) order. The sequence can be
// ranged over any number of times.
func (c *Corpus) Lines() iter.Seq[SourceLine] {
	return func(yield func(SourceLine) bool) {
		if c == nil {
			return
		}
		for _, line := range c.lines {
			if !yield(line) {
				return
			}
		}
	}
}

// Len returns the number of kept lines.
func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.lines)
}

// Units returns the identifiers of units that contributed at least one line,
// in input order.
func (c *Corpus) Units() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.units...)
}
