package language

import "strings"

type entry struct {
	code2   string   // ISO 639-1 (2-letter)
	code3   string   // ISO 639-2 primary (3-letter)
	alt3    string   // ISO 639-2 alternate (e.g. "fre" vs "fra")
	display string   // Human-readable name
	words   []string // Full word forms (e.g. "english")
}

var languages = []entry{
	{"en", "eng", "", "English", []string{"english"}},
	{"es", "spa", "", "Spanish", []string{"spanish"}},
	{"fr", "fra", "fre", "French", []string{"french"}},
	{"de", "deu", "ger", "German", []string{"german"}},
	{"it", "ita", "", "Italian", []string{"italian"}},
	{"pt", "por", "", "Portuguese", []string{"portuguese"}},
	{"ja", "jpn", "", "Japanese", []string{"japanese"}},
	{"ko", "kor", "", "Korean", []string{"korean"}},
	{"zh", "zho", "chi", "Chinese", []string{"chinese", "mandarin"}},
	{"ru", "rus", "", "Russian", []string{"russian"}},
	{"ar", "ara", "", "Arabic", []string{"arabic"}},
	{"nl", "nld", "dut", "Dutch", []string{"dutch"}},
	{"pl", "pol", "", "Polish", []string{"polish"}},
	{"sv", "swe", "", "Swedish", []string{"swedish"}},
	{"da", "dan", "", "Danish", []string{"danish"}},
	{"nb", "nob", "nor", "Norwegian", []string{"norwegian", "bokmal"}},
	{"fi", "fin", "", "Finnish", []string{"finnish"}},
	{"tr", "tur", "", "Turkish", []string{"turkish"}},
	{"uk", "ukr", "", "Ukrainian", []string{"ukrainian"}},
	{"id", "ind", "", "Indonesian", []string{"indonesian"}},
}

// Regional suffixes with a friendlier label than the raw subtag.
var regionLabels = map[string]string{
	"US":   "US",
	"GB":   "UK",
	"BR":   "Brazil",
	"PT":   "Portugal",
	"HANS": "Simplified",
	"HANT": "Traditional",
}

var (
	byCode2 map[string]*entry
	byCode3 map[string]*entry
	byWord  map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages)*2)
	byWord = make(map[string]*entry, len(languages))
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		if e.alt3 != "" {
			byCode3[e.alt3] = e
		}
		for _, w := range e.words {
			byWord[w] = e
		}
	}
	// "no" is the macrolanguage code; providers use the Bokmål code.
	byCode2["no"] = byCode2["nb"]
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if e, ok := byCode2[code]; ok {
		return e
	}
	if e, ok := byCode3[code]; ok {
		return e
	}
	if e, ok := byWord[code]; ok {
		return e
	}
	return nil
}

// split separates "en-us", "EN_US" or "zh-Hant" into base and region.
func split(code string) (string, string) {
	code = strings.TrimSpace(code)
	idx := strings.IndexAny(code, "-_")
	if idx < 0 {
		return code, ""
	}
	return strings.TrimSpace(code[:idx]), strings.ToUpper(strings.TrimSpace(code[idx+1:]))
}

// ToISO2 converts any recognized language code or word to ISO 639-1 (2-letter).
// Regional suffixes are dropped. Unknown 2-letter codes pass through; other
// unrecognized input returns an empty string.
func ToISO2(code string) string {
	base, _ := split(code)
	base = strings.ToLower(base)
	if base == "" {
		return ""
	}
	if e := lookup(base); e != nil {
		return e.code2
	}
	if len(base) == 2 {
		return base
	}
	return ""
}

// Normalize returns the uppercase provider form of a language code, keeping
// any regional suffix. Unrecognized input is upper-cased and returned as is
// so that newly supported provider codes keep working.
func Normalize(code string) string {
	base, region := split(code)
	if base == "" {
		return ""
	}
	iso := ToISO2(base)
	if iso == "" {
		iso = base
	}
	out := strings.ToUpper(iso)
	if region != "" {
		out += "-" + region
	}
	return out
}

// DisplayName returns a human-readable name such as "English" or
// "Chinese (Traditional)". Unknown codes are returned upper-cased; an empty
// code yields "Unknown".
func DisplayName(code string) string {
	base, region := split(code)
	if base == "" {
		return "Unknown"
	}
	e := lookup(base)
	if e == nil {
		return Normalize(code)
	}
	if region == "" {
		return e.display
	}
	label, ok := regionLabels[region]
	if !ok {
		label = region
	}
	return e.display + " (" + label + ")"
}
