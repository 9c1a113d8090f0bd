package extract

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	hyphenWrap   = regexp.MustCompile(`(\p{L})-[ \t]*\n[ \t]*(\p{Ll})`)
	shortNumeric = regexp.MustCompile(`^[0-9]{1,3}([./-][0-9]{1,3})?$`)
	emailLike    = regexp.MustCompile(`[^\s@]+@[^\s@]+\.[^\s@]+`)
	urlLike      = regexp.MustCompile(`(?i)(https?://|www\.)\S+|\b[a-z0-9-]+\.(com|org|net|io|dev|fr|me)(/\S*)?\b`)
)

// Normalize cleans raw PDF text: it joins words split by a line-wrap hyphen,
// trims every line, drops page furniture (punctuation-only lines and short
// numbers such as page counters) and collapses blank runs to one empty line.
// Lines carrying an email or URL are always kept.
func Normalize(raw string) string {
	text := strings.ReplaceAll(raw, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = hyphenWrap.ReplaceAllString(text, "$1$2")

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		if isNoise(line) {
			continue
		}
		out = append(out, line)
		blank = false
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}

func isNoise(line string) bool {
	if emailLike.MatchString(line) || urlLike.MatchString(line) {
		return false
	}
	if shortNumeric.MatchString(line) {
		return true
	}
	for _, r := range line {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
