package screening

import (
	"regexp"
	"strings"

	"github.com/spigell/cv-screener/internal/candidates"
)

const fallbackNameLines = 6

var (
	capitalizedName = regexp.MustCompile(`^\p{Lu}[\p{L}'’.-]+(?:\s+\p{Lu}[\p{L}'’.-]+){1,3}$`)
	lineSeparators  = regexp.MustCompile(`\s*[|•·,;:/]\s*|\s+-\s+|\s+–\s+`)
)

// Words that start a capitalised line but are not part of a name.
var notNameWords = map[string]bool{
	"curriculum": true, "vitae": true, "resume": true, "résumé": true, "cv": true,
	"profile": true, "profil": true, "summary": true, "contact": true,
	"experience": true, "expérience": true, "education": true, "formation": true,
	"skills": true, "compétences": true, "senior": true, "junior": true, "lead": true,
	"engineer": true, "developer": true, "développeur": true, "manager": true,
	"consultant": true, "designer": true, "analyst": true, "architect": true,
	"software": true, "backend": true, "frontend": true, "full": true, "data": true,
}

// FallbackName looks for a capitalised two to four word name in the first
// lines of the résumé. It returns candidates.UnknownName when nothing fits.
func FallbackName(text string) string {
	seen := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if seen == fallbackNameLines {
			break
		}
		seen++

		for _, segment := range lineSeparators.Split(line, -1) {
			segment = strings.Join(strings.Fields(segment), " ")
			if !capitalizedName.MatchString(segment) || hasNotNameWord(segment) {
				continue
			}
			return titleCase(segment)
		}
	}
	return candidates.UnknownName
}

func hasNotNameWord(segment string) bool {
	for _, w := range strings.Fields(segment) {
		if notNameWords[strings.ToLower(w)] {
			return true
		}
	}
	return false
}

// titleCase turns "JANE DOE" into "Jane Doe" and leaves mixed case alone.
func titleCase(name string) string {
	if name != strings.ToUpper(name) {
		return name
	}
	words := strings.Fields(strings.ToLower(name))
	for i, w := range words {
		r := []rune(w)
		r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
