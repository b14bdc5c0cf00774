package chat

import (
	"strings"
	"unicode"
)

var apostrophes = strings.NewReplacer("\u2019", "'", "\u2018", "'", "\u02bc", "'")

// Words splits text into lowercase tokens, dropping punctuation. Typographic
// apostrophes count as '.
func Words(text string) []string {
	text = apostrophes.Replace(text)
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

// HasWord reports whether any token of text is one of words.
func HasWord(text string, words ...string) bool {
	for _, token := range Words(text) {
		for _, w := range words {
			if token == w {
				return true
			}
		}
	}
	return false
}

// HasPhrase matches multi-word phrases on normalized text.
func HasPhrase(text string, phrases ...string) bool {
	normalized := " " + strings.Join(Words(text), " ") + " "
	for _, p := range phrases {
		if strings.Contains(normalized, " "+p+" ") {
			return true
		}
	}
	return false
}

var negations = []string{"no", "not", "don't", "dont", "never", "decline", "refuse", "disagree", "nope"}

func IsNegated(text string) bool {
	return HasWord(text, negations...)
}

// IsAffirmative is a plain yes without any negation.
func IsAffirmative(text string) bool {
	if IsNegated(text) {
		return false
	}
	return HasWord(text, "yes", "yeah", "yep", "y", "sure", "ok", "okay", "correct", "same", "right") ||
		HasPhrase(text, "that's right", "thats right", "that's it", "still the same")
}
