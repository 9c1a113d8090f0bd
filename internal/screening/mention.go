package screening

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// negationWindow is how many words before a mention are checked for a negation.
const negationWindow = 3

var negations = map[string]bool{
	"no":      true,
	"not":     true,
	"without": true,
	"lack":    true,
	"lacks":   true,
	"lacking": true,
	"never":   true,
}

// mentions reports whether the lowercased text names term as a whole token
// at least once outside a negated clause. "+" and "#" count as token
// characters so c++ and c# do not match c.
func mentions(text, term string) bool {
	if term == "" {
		return false
	}

	for from := 0; from < len(text); {
		i := strings.Index(text[from:], term)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(term)

		if tokenStart(text, start) && tokenEnd(text, end) && !negated(text[:start]) {
			return true
		}

		_, size := utf8.DecodeRuneInString(text[start:])
		from = start + size
	}
	return false
}

func tokenRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#'
}

func tokenStart(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return !tokenRune(r)
}

func tokenEnd(text string, i int) bool {
	if i >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return !tokenRune(r)
}

// negated checks the last few words of the clause preceding a mention.
func negated(prefix string) bool {
	if cut := strings.LastIndexAny(prefix, ".,;:!?()|•\n"); cut >= 0 {
		prefix = prefix[cut+1:]
	}

	words := strings.FieldsFunc(prefix, func(r rune) bool { return !tokenRune(r) })
	if len(words) > negationWindow {
		words = words[len(words)-negationWindow:]
	}
	for _, w := range words {
		if negations[w] {
			return true
		}
	}
	return false
}
