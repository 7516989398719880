package cedict

import (
	"bufio"
	"cmp"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"subcards/internal/enrich"
)

// Entry is one parsed dictionary line.
type Entry struct {
	Traditional string
	Simplified  string
	Pinyin      string
	Definition  string
}

// Dictionary holds entries keyed by simplified form in file order.
type Dictionary struct {
	entries map[string][]Entry
	total   int
}

// Parse reads CC-CEDICT lines of the form
// "傳統 传统 [chuan2 tong3] /tradition/traditional/". Comments, blank lines,
// and malformed lines are skipped.
func Parse(r io.Reader) (*Dictionary, error) {
	d := &Dictionary{entries: make(map[string][]Entry)}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		entry, ok := ParseLine(scanner.Text())
		if !ok {
			continue
		}
		d.entries[entry.Simplified] = append(d.entries[entry.Simplified], entry)
		d.total++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read cedict: %w", err)
	}
	return d, nil
}

// ParseLine parses one dictionary line.
func ParseLine(line string) (Entry, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return Entry{}, false
	}
	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 3 {
		return Entry{}, false
	}
	rest := parts[2]
	if !strings.HasPrefix(rest, "[") {
		return Entry{}, false
	}
	end := strings.IndexByte(rest, ']')
	if end < 0 {
		return Entry{}, false
	}
	var senses []string
	for sense := range strings.SplitSeq(rest[end+1:], "/") {
		if sense = strings.TrimSpace(sense); sense != "" {
			senses = append(senses, sense)
		}
	}
	return Entry{
		Traditional: parts[0],
		Simplified:  parts[1],
		Pinyin:      rest[1:end],
		Definition:  strings.Join(senses, "; "),
	}, true
}

// Load parses the dictionary file at path.
func Load(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cedict: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Len returns the number of distinct simplified headwords.
func (d *Dictionary) Len() int {
	return len(d.entries)
}

// Total returns the number of parsed entries including homographs.
func (d *Dictionary) Total() int {
	return d.total
}

// Entries returns the raw entries for word ordered by how well their pinyin
// matches preferPinyin: exact, then partial containment, then the rest.
// Ties keep file order.
func (d *Dictionary) Entries(word, preferPinyin string) []Entry {
	found := d.entries[word]
	if len(found) == 0 {
		return nil
	}
	out := slices.Clone(found)
	want := normalizePinyin(preferPinyin)
	if want == "" {
		return out
	}
	slices.SortStableFunc(out, func(a, b Entry) int {
		return cmp.Compare(matchScore(a.Pinyin, want), matchScore(b.Pinyin, want))
	})
	return out
}

// Lookup implements enrich.Dictionary.
func (d *Dictionary) Lookup(headword, preferredPronunciation string) ([]enrich.Definition, error) {
	entries := d.Entries(headword, preferredPronunciation)
	defs := make([]enrich.Definition, 0, len(entries))
	for _, e := range entries {
		defs = append(defs, enrich.Definition{AltForm: e.Traditional, Pronunciation: e.Pinyin, Text: e.Definition})
	}
	return defs, nil
}

func matchScore(pinyin, want string) int {
	got := normalizePinyin(pinyin)
	switch {
	case got == want:
		return 0
	case strings.Contains(got, want) || strings.Contains(want, got):
		return 1
	default:
		return 2
	}
}

// normalizePinyin lowercases and drops spaces and neutral-tone digits.
func normalizePinyin(p string) string {
	p = strings.ToLower(p)
	p = strings.ReplaceAll(p, " ", "")
	return strings.ReplaceAll(p, "5", "")
}
