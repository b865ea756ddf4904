// Package classify labels short free-text fragments during lead collection.
//
// Cheap heuristics run first; only fragments none of them claim escalate to
// the LLM classification call.
package classify

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode"
)

// Label is the closed classification set shared by the heuristics, the LLM
// escalation and the stage machine.
type Label string

const (
	LabelName        Label = "name"
	LabelEmail       Label = "email"
	LabelCompany     Label = "company"
	LabelAffirmative Label = "affirmative"
	LabelMessage     Label = "message"
	LabelOther       Label = "other"
)

var (
	emailPattern  = regexp.MustCompile(`[\w.+-]+@[\w.-]+\.\w{2,}`)
	legalSuffixes = regexp.MustCompile(`(?i)\b(inc|corp|co|llc|ltd|plc|gmbh|pvt|sa|oy)\.?$`)

	companyKeywords = map[string]struct{}{
		"inc": {}, "corp": {}, "llc": {}, "ltd": {}, "gmbh": {},
	}

	// Generic business/service terms a visitor may type as an answer about
	// their company; never treat these as a personal name.
	nameDenyList = map[string]struct{}{
		"engineering": {}, "security": {}, "cloud": {}, "data": {},
		"application": {}, "services": {}, "products": {}, "solutions": {},
		"track": {}, "radar": {}, "ai": {}, "artificial": {},
		"intelligence": {}, "machine": {}, "learning": {},
	}

	affirmativeWords = map[string]struct{}{
		"yes": {}, "yeah": {}, "yep": {}, "sure": {}, "ok": {}, "okay": {},
		"certainly": {}, "absolutely": {}, "definitely": {},
	}

	affirmativePhrases = []string{
		"yes", "sure", "absolutely", "definitely", "ok", "okay",
		"yep", "yeah", "of course", "sounds good", "let's do it",
	}

	demoTriggers = []string{
		"book demo", "schedule demo", "demo", "live demo", "quick call",
		"book a demo", "schedule a demo", "connect me", "connect with",
		"speak to", "expert team",
	}
)

// IsEmail reports whether the text contains a syntactically valid e-mail
// address, not merely an @ sign.
func IsEmail(text string) bool {
	candidate := emailPattern.FindString(text)
	if candidate == "" {
		return false
	}
	_, err := mail.ParseAddress(candidate)
	return err == nil
}

// IsName accepts 1-4 purely alphabetic tokens that are neither a known
// business term nor an affirmative word.
func IsName(text string) bool {
	txt := strings.TrimSpace(text)
	if IsAffirmativeWord(txt) {
		return false
	}
	words := strings.Fields(txt)
	if len(words) < 1 || len(words) > 4 {
		return false
	}
	for _, w := range words {
		if !alphabetic(w) {
			return false
		}
		if _, banned := nameDenyList[strings.ToLower(w)]; banned {
			return false
		}
	}
	return true
}

// IsCompanyStrict accepts short phrases without an @ that carry a
// legal-entity suffix or a company keyword token.
func IsCompanyStrict(text string) bool {
	t := strings.TrimSpace(text)
	if strings.Contains(t, "@") {
		return false
	}
	words := strings.Fields(t)
	if len(words) < 1 || len(words) > 5 {
		return false
	}
	if legalSuffixes.MatchString(t) {
		return true
	}
	for _, w := range words {
		if _, ok := companyKeywords[strings.ToLower(w)]; ok {
			return true
		}
	}
	return false
}

// IsCompany is the loose variant: anything IsCompanyStrict accepts, plus
// short phrases containing at least one consonant that are not affirmative
// words. The stage machine applies this variant only once name and e-mail
// are already collected.
func IsCompany(text string) bool {
	t := strings.TrimSpace(text)
	if strings.Contains(t, "@") {
		return false
	}
	words := strings.Fields(t)
	if len(words) < 1 || len(words) > 5 {
		return false
	}
	if IsCompanyStrict(t) {
		return true
	}
	return hasConsonant(t) && !IsAffirmativeWord(t)
}

// IsAffirmativeWord checks exact membership in the yes-word list after
// trimming, case-insensitively.
func IsAffirmativeWord(text string) bool {
	_, ok := affirmativeWords[strings.ToLower(strings.TrimSpace(text))]
	return ok
}

// IsAffirmative additionally tolerates typos and short paraphrases via the
// fuzzy phrase list.
func IsAffirmative(text string) bool {
	if IsAffirmativeWord(text) {
		return true
	}
	return FuzzyContains(strings.TrimSpace(text), affirmativePhrases, FuzzThreshold)
}

// IsDemoRequest reports whether the text asks to book or schedule a demo,
// exactly or fuzzily.
func IsDemoRequest(text string) bool {
	return FuzzyContains(text, demoTriggers, FuzzThreshold)
}

func alphabetic(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func hasConsonant(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			continue
		}
		switch unicode.ToLower(r) {
		case 'a', 'e', 'i', 'o', 'u':
		default:
			return true
		}
	}
	return false
}
