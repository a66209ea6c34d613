// Package validate rejects gibberish and empty input before the rest of the
// pipeline runs. Validation is pure: it never errors and never mutates state.
package validate

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/shopgrove/concierge/internal/domain"
)

var (
	// Punctuation-only input, keeping $ and - out of the class so price
	// expressions like "$500-1000" are not swept up.
	rePunctOnly = regexp.MustCompile(`^[^a-zA-Z0-9$-]+$`)

	reDigit = regexp.MustCompile(`\d`)

	// Price or price-range expressions are always accepted.
	rePrice = regexp.MustCompile(`(?i)\$\s*\d|(\d[\d,]*(\.\d+)?k?\s*(-|to)\s*\d)|\b(under|over|below|above|budget|cheap|expensive)\b`)

	reWord = regexp.MustCompile(`[a-zA-Z]+`)
)

var greetings = map[string]struct{}{
	"hi": {}, "hello": {}, "hey": {}, "yo": {}, "sup": {}, "hiya": {},
	"hola": {}, "greetings": {}, "good morning": {}, "good afternoon": {},
	"good evening": {}, "howdy": {},
}

var shortIntents = map[string]struct{}{
	"help": {}, "next": {}, "reset": {}, "start": {}, "restart": {},
	"more": {}, "yes": {}, "no": {}, "ok": {}, "okay": {}, "sure": {},
	"skip": {}, "back": {}, "done": {}, "buy": {}, "checkout": {}, "show": {},
}

// Short tokens that fail the vowel heuristic but are real product vocabulary.
var shortTokenAllowlist = map[string]struct{}{
	"pc": {}, "gpu": {}, "cpu": {}, "ssd": {}, "hdd": {}, "ram": {},
	"rgb": {}, "hp": {}, "msi": {}, "mac": {}, "suv": {}, "4wd": {},
	"awd": {}, "rtx": {}, "gtx": {}, "nvme": {}, "lcd": {}, "hdr": {},
}

const (
	minVowelRatio = 0.2
	maxVowelRatio = 0.7
)

// Validator screens raw user messages.
type Validator struct{}

// New returns a Validator.
func New() *Validator { return &Validator{} }

// Validate reports whether the message should enter the pipeline. When it
// returns false, the second value is the clarification prompt to send back.
func (v *Validator) Validate(message string, activeDomain domain.Domain) (bool, string) {
	trimmed := strings.TrimSpace(message)
	lower := strings.ToLower(trimmed)

	if trimmed == "" {
		return false, "I didn't catch that. What are you shopping for?"
	}
	if len(trimmed) == 1 && unicode.IsLetter(rune(trimmed[0])) {
		return false, "Could you say a bit more about what you're looking for?"
	}
	if rePunctOnly.MatchString(trimmed) {
		return false, "I didn't catch that. Could you rephrase?"
	}

	// Digits mean prices or specs; always let those through.
	if reDigit.MatchString(trimmed) {
		return true, ""
	}
	if _, ok := greetings[lower]; ok {
		return true, ""
	}
	if _, ok := shortIntents[lower]; ok {
		return true, ""
	}
	if rePrice.MatchString(lower) {
		return true, ""
	}

	if len(trimmed) < 3 && activeDomain == domain.DomainNone {
		return false, "Could you say a bit more about what you're looking for?"
	}

	if looksLikeGibberish(lower) {
		return false, "That doesn't look like something I can search for. What kind of product do you want?"
	}
	return true, ""
}

// looksLikeGibberish applies a vowel-ratio heuristic over words of three or
// more letters. Keyboard-mashing ("asdjkl qweqwe") has almost no vowels or is
// all vowels; real words and known acronyms pass.
func looksLikeGibberish(lower string) bool {
	words := reWord.FindAllString(lower, -1)
	if len(words) == 0 {
		return true
	}
	sawCandidate := false
	for _, w := range words {
		if _, ok := shortTokenAllowlist[w]; ok {
			return false
		}
		if len(w) < 3 {
			continue
		}
		sawCandidate = true
		if r := vowelRatio(w); r >= minVowelRatio && r <= maxVowelRatio {
			return false
		}
	}
	// Only short tokens and none allowlisted: give the user the benefit of
	// the doubt.
	return sawCandidate
}

func vowelRatio(word string) float64 {
	vowels := 0
	for _, r := range word {
		switch r {
		case 'a', 'e', 'i', 'o', 'u', 'y':
			vowels++
		}
	}
	return float64(vowels) / float64(len(word))
}
