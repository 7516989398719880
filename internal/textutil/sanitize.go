package textutil

import (
	"regexp"
	"strings"
)

var (
	htmlTagPattern     = regexp.MustCompile(`<[^>]*>`)
	overrideTagPattern = regexp.MustCompile(`\{[^}]*\}`)
)

// fieldReplacer removes characters that would break a tab-separated row.
var fieldReplacer = strings.NewReplacer(
	"\t", " ",
	"\r\n", "\n",
	"\r", "\n",
)

// SanitizeField prepares a value for a single TSV cell. Tabs become spaces
// and line breaks become newlineMarker. The result is trimmed.
func SanitizeField(value, newlineMarker string) string {
	value = fieldReplacer.Replace(value)
	value = strings.TrimSpace(value)
	if !strings.Contains(value, "\n") {
		return value
	}
	return strings.ReplaceAll(value, "\n", newlineMarker)
}

// StripTags removes HTML-style tags and ASS/SSA override blocks.
func StripTags(value string) string {
	if !strings.ContainsAny(value, "<{") {
		return value
	}
	value = htmlTagPattern.ReplaceAllString(value, "")
	return overrideTagPattern.ReplaceAllString(value, "")
}
