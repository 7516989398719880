package vocab

import (
	"iter"
	"log/slog"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"subcards/internal/logging"
)

// PreferenceTable maps a non-preferred alt-form to its preferred replacement.
type PreferenceTable map[string]string

func (p PreferenceTable) isPreferredValue(form string) bool {
	for _, preferred := range p {
		if preferred == form {
			return true
		}
	}
	return false
}

// Reconciler folds observations into canonical entries. It is not safe for
// concurrent use.
type Reconciler struct {
	prefs    PreferenceTable
	set      *Set
	logger   *slog.Logger
	finished bool
}

// NewReconciler returns a reconciler using a private copy of prefs.
func NewReconciler(prefs PreferenceTable, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = logging.NewNop()
	}
	normalized := make(PreferenceTable, len(prefs))
	for from, to := range prefs {
		normalized[normalizeForm(from)] = normalizeForm(to)
	}
	return &Reconciler{
		prefs:  normalized,
		set:    NewSet(),
		logger: logger,
	}
}

// Merge adds every observation and returns the post-processed set.
func (r *Reconciler) Merge(observations iter.Seq[Observation]) *Set {
	for obs := range observations {
		r.Add(obs)
	}
	return r.Finish()
}

// normalizeForm trims and NFC-normalizes a written form so it compares equal
// to corpus lines, which are normalized the same way.
func normalizeForm(form string) string {
	return norm.NFC.String(strings.TrimSpace(form))
}

// Add folds one observation into the set. Observations without a headword
// are dropped.
func (r *Reconciler) Add(obs Observation) {
	headword := normalizeForm(obs.Headword)
	altForm := normalizeForm(obs.AltForm)
	pron := strings.TrimSpace(obs.Pronunciation)
	if headword == "" {
		r.logger.Debug("observation without headword dropped")
		return
	}
	isName := isNameMarked(pron)

	entry, seen := r.set.Get(headword)
	if !seen {
		primary := altForm
		if primary == "" {
			primary = headword
		}
		r.set.insert(&Entry{
			Headword:             headword,
			PrimaryAltForm:       primary,
			PrimaryPronunciation: pron,
			IsProperNoun:         isName,
		})
		return
	}

	if altForm != "" && altForm != entry.PrimaryAltForm {
		entry.AltFormVariants = appendUnique(entry.AltFormVariants, altForm)
		if r.shouldPromote(entry.PrimaryAltForm, altForm) {
			promote(entry, altForm)
		}
	}

	if pron != "" && !strings.EqualFold(pron, entry.PrimaryPronunciation) {
		if !containsFold(entry.PronunciationVariants, pron) {
			entry.PronunciationVariants = append(entry.PronunciationVariants, pron)
		}
	}

	entry.IsProperNoun = entry.IsProperNoun || isName
}

// shouldPromote decides whether candidate replaces the current primary. The
// current primary must be a non-preferred form; the candidate must be its
// mapped preference or some other preferred form.
func (r *Reconciler) shouldPromote(current, candidate string) bool {
	preferred, nonPreferred := r.prefs[current]
	if !nonPreferred {
		return false
	}
	if preferred == candidate {
		return true
	}
	return r.prefs.isPreferredValue(candidate) && !r.prefs.isPreferredValue(current)
}

// Finish post-processes every entry once and returns the set. Further calls
// return the same set without reprocessing.
func (r *Reconciler) Finish() *Set {
	if r.finished {
		return r.set
	}
	r.finished = true
	for _, entry := range r.set.Entries() {
		if preferred, ok := r.prefs[entry.PrimaryAltForm]; ok && slices.Contains(entry.AltFormVariants, preferred) {
			promote(entry, preferred)
		}
		entry.AltFormVariants = slices.DeleteFunc(entry.AltFormVariants, func(v string) bool {
			return v == entry.PrimaryAltForm
		})
		entry.AltFormVariants = dedupe(entry.AltFormVariants)
	}
	return r.set
}

// promote makes form the primary alt-form. The old primary is demoted into
// the variants once and form leaves the variants.
func promote(entry *Entry, form string) {
	old := entry.PrimaryAltForm
	entry.AltFormVariants = slices.DeleteFunc(entry.AltFormVariants, func(v string) bool { return v == form })
	entry.AltFormVariants = appendUnique(entry.AltFormVariants, old)
	entry.PrimaryAltForm = form
}

// isNameMarked reports whether the pronunciation uses the proper-noun
// convention of a leading uppercase letter.
func isNameMarked(pron string) bool {
	if pron == "" {
		return false
	}
	r, _ := utf8.DecodeRuneInString(pron)
	return unicode.IsUpper(r)
}

func appendUnique(list []string, value string) []string {
	if slices.Contains(list, value) {
		return list
	}
	return append(list, value)
}

func containsFold(list []string, value string) bool {
	return slices.ContainsFunc(list, func(v string) bool { return strings.EqualFold(v, value) })
}

func dedupe(list []string) []string {
	if len(list) < 2 {
		return list
	}
	seen := make(map[string]struct{}, len(list))
	out := list[:0]
	for _, v := range list {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
