// Package cards renders vocabulary entries into flashcard rows and writes the
// tab-separated export.
package cards

import (
	"strings"

	"subcards/internal/textutil"
	"subcards/internal/vocab"
)

// ScriptConverter converts text from the headword script to the alt script.
type ScriptConverter interface {
	Convert(text string) string
}

// Identity returns text unchanged.
type Identity struct{}

// Convert implements ScriptConverter.
func (Identity) Convert(text string) string { return text }

// Header lists the export columns in order.
var Header = []string{
	"cloze_simplified",
	"cloze_traditional",
	"word_simplified",
	"word_traditional",
	"pinyin",
	"pinyin_variants",
	"is_name",
	"translation",
	"definition",
	"episode",
}

const (
	DefaultClozeTag      = "c1"
	DefaultNewlineMarker = "<br>"
)

// Card is one rendered export row.
type Card struct {
	Cloze                 string
	ClozeAlt              string
	Headword              string
	DisplayAltForm        string
	Pronunciation         string
	PronunciationVariants string
	Name                  string
	Translation           string
	Definition            string
	Unit                  string
}

// Fields returns the card values in Header order.
func (c Card) Fields() []string {
	return []string{
		c.Cloze,
		c.ClozeAlt,
		c.Headword,
		c.DisplayAltForm,
		c.Pronunciation,
		c.PronunciationVariants,
		c.Name,
		c.Translation,
		c.Definition,
		c.Unit,
	}
}

// Assembler renders entries into cards.
type Assembler struct {
	Converter     ScriptConverter
	ClozeTag      string
	NewlineMarker string
	IncludeEmpty  bool
}

// Assemble renders entry. It reports false when the entry has no example and
// IncludeEmpty is unset.
func (a Assembler) Assemble(entry *vocab.Entry) (Card, bool) {
	if !entry.HasExample() && !a.IncludeEmpty {
		return Card{}, false
	}
	conv := a.converter()
	tag := a.ClozeTag
	if tag == "" {
		tag = DefaultClozeTag
	}

	altHeadword := conv.Convert(entry.Headword)
	var sentence, altSentence, unit string
	if entry.Example != nil {
		sentence = entry.Example.Text
		altSentence = conv.Convert(sentence)
		unit = entry.Example.Unit
	}

	name := ""
	if entry.IsProperNoun {
		name = "yes"
	}

	card := Card{
		Cloze:                 Cloze(sentence, entry.Headword, tag),
		ClozeAlt:              Cloze(altSentence, altHeadword, tag),
		Headword:              entry.Headword,
		DisplayAltForm:        DisplayAltForm(altHeadword, entry.PrimaryAltForm, entry.AltFormVariants),
		Pronunciation:         entry.PrimaryPronunciation,
		PronunciationVariants: strings.Join(entry.PronunciationVariants, "; "),
		Name:                  name,
		Translation:           entry.TranslatedExample,
		Definition:            entry.Definition,
		Unit:                  unit,
	}
	return a.sanitize(card), true
}

func (a Assembler) converter() ScriptConverter {
	if a.Converter == nil {
		return Identity{}
	}
	return a.Converter
}

func (a Assembler) sanitize(card Card) Card {
	marker := a.NewlineMarker
	if marker == "" {
		marker = DefaultNewlineMarker
	}
	s := func(v string) string { return textutil.SanitizeField(v, marker) }
	return Card{
		Cloze:                 s(card.Cloze),
		ClozeAlt:              s(card.ClozeAlt),
		Headword:              s(card.Headword),
		DisplayAltForm:        s(card.DisplayAltForm),
		Pronunciation:         s(card.Pronunciation),
		PronunciationVariants: s(card.PronunciationVariants),
		Name:                  s(card.Name),
		Translation:           s(card.Translation),
		Definition:            s(card.Definition),
		Unit:                  s(card.Unit),
	}
}

// Cloze wraps the first occurrence of word in sentence with a cloze marker
// such as {{c1::word}}. Later occurrences are left alone.
func Cloze(sentence, word, tag string) string {
	if sentence == "" || word == "" {
		return sentence
	}
	return strings.Replace(sentence, word, "{{"+tag+"::"+word+"}}", 1)
}

// DisplayAltForm renders the converted headword followed by any recorded
// alt-forms that differ from it, e.g. "蘇 (囌)".
func DisplayAltForm(converted, primary string, variants []string) string {
	var extra []string
	seen := map[string]struct{}{converted: {}}
	for _, form := range append([]string{primary}, variants...) {
		if form == "" {
			continue
		}
		if _, ok := seen[form]; ok {
			continue
		}
		seen[form] = struct{}{}
		extra = append(extra, form)
	}
	if len(extra) == 0 {
		return converted
	}
	return converted + " (" + strings.Join(extra, "/") + ")"
}
