package vocab

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// RowError describes a vocabulary row that was dropped.
type RowError struct {
	Row    int
	Reason string
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

// ReadExport parses a tab-separated vocabulary export with rows of the form
// "headword \t headword[altForm] \t pronunciation". The pronunciation column
// is optional. A missing or empty bracket means the alt-form is the
// headword. Rows with fewer than two usable fields are reported and skipped;
// only read failures are returned as an error.
func ReadExport(r io.Reader) ([]Observation, []RowError, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		observations []Observation
		rejected     []RowError
		row          int
	)
	for scanner.Scan() {
		row++
		line := scanner.Text()
		if row == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		obs, err := parseRow(line)
		if err != "" {
			rejected = append(rejected, RowError{Row: row, Reason: err})
			continue
		}
		observations = append(observations, obs)
	}
	if err := scanner.Err(); err != nil {
		return observations, rejected, fmt.Errorf("read vocabulary export: %w", err)
	}
	return observations, rejected, nil
}

func parseRow(line string) (Observation, string) {
	parts := strings.Split(line, "\t")
	if len(parts) < 2 {
		return Observation{}, "expected at least 2 tab-separated fields"
	}
	headword := strings.TrimSpace(parts[0])
	bracket := strings.TrimSpace(parts[1])
	if headword == "" {
		return Observation{}, "empty headword"
	}
	if bracket == "" {
		return Observation{}, "empty alt-form field"
	}
	obs := Observation{
		Headword: headword,
		AltForm:  parseAltForm(bracket, headword),
	}
	if len(parts) > 2 {
		obs.Pronunciation = strings.TrimSpace(parts[2])
	}
	return obs, ""
}

// parseAltForm extracts the bracketed alt-form from "word[alt]". Content
// before the bracket is ignored.
func parseAltForm(field, headword string) string {
	open := strings.IndexByte(field, '[')
	if open < 0 {
		return headword
	}
	rest := field[open+1:]
	end := strings.IndexByte(rest, ']')
	if end < 0 {
		return headword
	}
	if alt := strings.TrimSpace(rest[:end]); alt != "" {
		return alt
	}
	return headword
}
