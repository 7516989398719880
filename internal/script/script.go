// Package script converts headword-script text into the alternate script
// used on the back of cards.
//
// The OpenCC converter reads OpenCC's plain-text dictionaries
// (STPhrases.txt and STCharacters.txt for simplified to traditional) and
// applies greedy longest-match replacement, phrases taking precedence over
// single characters.
package script

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"subcards/internal/cards"
)

// Converter kinds accepted by New.
const (
	KindNone   = "none"
	KindOpenCC = "opencc"
)

const (
	phrasesFile    = "STPhrases.txt"
	charactersFile = "STCharacters.txt"
)

// Identity leaves text unchanged.
type Identity = cards.Identity

// Table is a longest-match replacement converter.
type Table struct {
	entries map[string]string
	maxLen  int
}

// NewTable builds a converter from a key to replacement mapping.
func NewTable(entries map[string]string) *Table {
	t := &Table{entries: make(map[string]string, len(entries))}
	for k, v := range entries {
		t.add(k, v)
	}
	return t
}

func (t *Table) add(key, value string) {
	if key == "" {
		return
	}
	t.entries[key] = value
	if n := utf8.RuneCountInString(key); n > t.maxLen {
		t.maxLen = n
	}
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.entries)
}

// Convert implements cards.ScriptConverter.
func (t *Table) Convert(text string) string {
	if t == nil || len(t.entries) == 0 || text == "" {
		return text
	}
	runes := []rune(text)
	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(runes); {
		matched := false
		for n := min(t.maxLen, len(runes)-i); n > 0; n-- {
			if value, ok := t.entries[string(runes[i:i+n])]; ok {
				b.WriteString(value)
				i += n
				matched = true
				break
			}
		}
		if !matched {
			b.WriteRune(runes[i])
			i++
		}
	}
	return b.String()
}

// ReadDictionary merges an OpenCC text dictionary into t. Each line is
// "key<TAB>candidate [candidate ...]"; the first candidate wins. When
// override is false, existing keys are kept.
func (t *Table) ReadDictionary(r io.Reader, override bool) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, rest, ok := strings.Cut(line, "\t")
		if !ok {
			return fmt.Errorf("line %d: missing tab separator", lineNo)
		}
		candidates := strings.Fields(rest)
		if key == "" || len(candidates) == 0 {
			return fmt.Errorf("line %d: empty key or candidates", lineNo)
		}
		if _, exists := t.entries[key]; exists && !override {
			continue
		}
		t.add(key, candidates[0])
	}
	return scanner.Err()
}

// Load reads the OpenCC simplified to traditional dictionaries from dir.
// STCharacters.txt is required; STPhrases.txt is optional.
func Load(dir string) (*Table, error) {
	t := NewTable(nil)
	if err := readFile(t, filepath.Join(dir, charactersFile), true); err != nil {
		return nil, err
	}
	err := readFile(t, filepath.Join(dir, phrasesFile), true)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return t, nil
}

func readFile(t *Table, path string, override bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := t.ReadDictionary(f, override); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nil
}

// New returns the converter named by kind.
func New(kind, dir string) (cards.ScriptConverter, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", KindNone:
		return Identity{}, nil
	case KindOpenCC:
		if strings.TrimSpace(dir) == "" {
			return nil, errors.New("opencc converter requires a dictionary directory")
		}
		return Load(dir)
	default:
		return nil, fmt.Errorf("unknown script converter %q", kind)
	}
}
