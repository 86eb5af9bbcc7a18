// Package language classifies user input into the supported language set.
//
// Detection runs cheap, reliable checks first: Indic scripts are
// unambiguous at the Unicode-block level, so a script hit wins outright.
// Statistical identification only breaks ties between Latin-script
// languages, and a plain ASCII heuristic catches the remainder.
package language

import (
	"strings"
	"unicode"

	"github.com/abadojack/whatlanggo"
)

// Supported language codes and their display names. Unknown codes never
// leave this package as codes; they surface only through Name.
var languageNames = map[string]string{
	"ml": "Malayalam",
	"hi": "Hindi",
	"ta": "Tamil",
	"te": "Telugu",
	"kn": "Kannada",
	"en": "English",
}

// scriptRange is one Unicode block associated with a language.
type scriptRange struct {
	code string
	lo   rune
	hi   rune
}

// Checked in order; for mixed-script text the first matching block wins,
// which is deterministic but not linguistically meaningful.
var scriptRanges = []scriptRange{
	{"ml", 0x0D00, 0x0D7F}, // Malayalam
	{"hi", 0x0900, 0x097F}, // Devanagari
	{"ta", 0x0B80, 0x0BFF}, // Tamil
	{"te", 0x0C00, 0x0C7F}, // Telugu
	{"kn", 0x0C80, 0x0CFF}, // Kannada
}

var statCodes = map[whatlanggo.Lang]string{
	whatlanggo.Mal: "ml",
	whatlanggo.Hin: "hi",
	whatlanggo.Tam: "ta",
	whatlanggo.Tel: "te",
	whatlanggo.Kan: "kn",
	whatlanggo.Eng: "en",
}

// Detector identifies the language of short user queries.
type Detector struct{}

func NewDetector() *Detector { return &Detector{} }

// Supported reports whether code belongs to the closed language set.
func Supported(code string) bool {
	_, ok := languageNames[code]
	return ok
}

// Name returns the display name for a language code. Unknown codes are
// normalized at this display boundary.
func Name(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return "Unknown (" + code + ")"
}

// Codes returns the supported language codes.
func Codes() []string {
	out := make([]string, 0, len(languageNames))
	for code := range languageNames {
		out = append(out, code)
	}
	return out
}

// Detect returns the language code for text. Strategies in priority order:
// script match, statistical identification, ASCII heuristic, English default.
// Empty or whitespace-only input is English.
func (d *Detector) Detect(text string) string {
	if strings.TrimSpace(text) == "" {
		return "en"
	}
	if code := detectByScript(text); code != "" {
		return code
	}
	if code := detectStatistical(text); code != "" {
		return code
	}
	if likelyEnglish(text) {
		return "en"
	}
	return "en"
}

// Confidence scores a detection for text: 0.95 for a script match, 0.8 for a
// statistical match, 0.6 for the ASCII-English heuristic, 0.3 otherwise.
// Empty input scores 0.
func (d *Detector) Confidence(text, code string) float64 {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	if detectByScript(text) == code {
		return 0.95
	}
	if detectStatistical(text) == code {
		return 0.8
	}
	if code == "en" && likelyEnglish(text) {
		return 0.6
	}
	return 0.3
}

func detectByScript(text string) string {
	for _, sr := range scriptRanges {
		for _, r := range text {
			if r >= sr.lo && r <= sr.hi {
				return sr.code
			}
		}
	}
	return ""
}

func detectStatistical(text string) string {
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return ""
	}
	return statCodes[info.Lang] // "" when outside the supported set
}

// likelyEnglish reports whether more than 70% of the non-space characters
// are ASCII.
func likelyEnglish(text string) bool {
	var ascii, total int
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if r < 128 {
			ascii++
		}
	}
	if total == 0 {
		return true
	}
	return float64(ascii)/float64(total) > 0.7
}
