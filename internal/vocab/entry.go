package vocab

import (
	"iter"
	"slices"

	"subcards/internal/corpus"
)

// Observation is one raw row from a vocabulary export.
type Observation struct {
	Headword      string
	AltForm       string
	Pronunciation string
}

// Entry is the merged record for one headword. Example is set at most once
// by sentence resolution; TranslatedExample and Definition are filled by
// enrichment.
type Entry struct {
	Headword              string
	PrimaryAltForm        string
	AltFormVariants       []string
	PrimaryPronunciation  string
	PronunciationVariants []string
	IsProperNoun          bool

	Example           *corpus.SourceLine
	TranslatedExample string
	Definition        string
}

// HasExample reports whether sentence resolution attached an example.
func (e *Entry) HasExample() bool {
	return e != nil && e.Example != nil
}

// SetExample records line as the entry's example unless one is already set.
// It reports whether the example was recorded.
func (e *Entry) SetExample(line corpus.SourceLine) bool {
	if e.Example != nil {
		return false
	}
	e.Example = &line
	return true
}

// Set is an insertion-ordered mapping from headword to entry.
type Set struct {
	order []string
	index map[string]*Entry
}

// NewSet returns an empty set.
func NewSet() *Set {
	return &Set{index: make(map[string]*Entry)}
}

// Len returns the number of distinct headwords.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Get returns the entry for headword.
func (s *Set) Get(headword string) (*Entry, bool) {
	if s == nil {
		return nil, false
	}
	entry, ok := s.index[headword]
	return entry, ok
}

// Entries returns entries in first-seen order. The slice is a copy; the
// entries are shared.
func (s *Set) Entries() []*Entry {
	if s == nil {
		return nil
	}
	out := make([]*Entry, 0, len(s.order))
	for _, headword := range s.order {
		out = append(out, s.index[headword])
	}
	return out
}

// All yields headword/entry pairs in first-seen order.
func (s *Set) All() iter.Seq2[string, *Entry] {
	return func(yield func(string, *Entry) bool) {
		if s == nil {
			return
		}
		for _, headword := range s.order {
			if !yield(headword, s.index[headword]) {
				return
			}
		}
	}
}

func (s *Set) insert(entry *Entry) {
	s.order = append(s.order, entry.Headword)
	s.index[entry.Headword] = entry
}

// Clone returns a deep copy of the set, used to compare merge results.
func (s *Set) Clone() *Set {
	out := NewSet()
	for _, entry := range s.Entries() {
		cp := *entry
		cp.AltFormVariants = slices.Clone(entry.AltFormVariants)
		cp.PronunciationVariants = slices.Clone(entry.PronunciationVariants)
		if entry.Example != nil {
			line := *entry.Example
			cp.Example = &line
		}
		out.insert(&cp)
	}
	return out
}
