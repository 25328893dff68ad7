package wordlist

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// FilterFunc returns true when a word should be kept.
type FilterFunc func(string) bool

// ForLang returns the word filter for a language code. English keeps
// lowercase ASCII words; other codes keep words made of letters only, since
// the generator adds its own punctuation.
func ForLang(lang string) FilterFunc {
	if strings.EqualFold(lang, "en") {
		return lowerASCII
	}
	return lettersOnly
}

// Length keeps words of at least min and at most max runes. A max of zero
// or less leaves the upper bound open.
func Length(min, max int) FilterFunc {
	return func(word string) bool {
		n := utf8.RuneCountInString(word)
		return n >= min && (max <= 0 || n <= max)
	}
}

// All keeps words accepted by every non-nil filter.
func All(filters ...FilterFunc) FilterFunc {
	return func(word string) bool {
		for _, keep := range filters {
			if keep != nil && !keep(word) {
				return false
			}
		}
		return true
	}
}

func lowerASCII(word string) bool {
	if word == "" {
		return false
	}
	for i := 0; i < len(word); i++ {
		if word[i] < 'a' || word[i] > 'z' {
			return false
		}
	}
	return true
}

func lettersOnly(word string) bool {
	if word == "" {
		return false
	}
	for _, r := range word {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
