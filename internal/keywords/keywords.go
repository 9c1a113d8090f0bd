// Package keywords computes a cheap lexical overlap between a job description
// and a résumé. Its output is a baseline that the model refines later.
package keywords

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MinTokenLength is the shortest token considered a keyword.
	MinTokenLength = 4
	// MaxFound caps the matched keyword list.
	MaxFound = 15
	// MaxMissing caps the missing keyword list.
	MaxMissing = 10
	// MaxOverlapScore caps the score derived from keyword overlap alone.
	MaxOverlapScore = 70
)

// StabilityError is reported when the analysis itself failed.
const StabilityError = "Stability analysis error"

// Analysis is the local keyword view of one résumé.
type Analysis struct {
	Found     []string `json:"found"`
	Missing   []string `json:"missing"`
	Stability string   `json:"stability"`

	// JobTerms and Matched are uncapped counts used for scoring.
	JobTerms int `json:"-"`
	Matched  int `json:"-"`
}

// Analyze never panics; an internal failure yields empty lists and StabilityError.
func Analyze(job, resume string) (a Analysis) {
	defer func() {
		if r := recover(); r != nil {
			a = Analysis{Found: []string{}, Missing: []string{}, Stability: StabilityError}
		}
	}()

	jobTerms := Tokenize(job)
	resumeTerms := Tokenize(resume)

	found := make([]string, 0)
	missing := make([]string, 0)
	for term := range jobTerms {
		if resumeTerms[term] {
			found = append(found, term)
		} else {
			missing = append(missing, term)
		}
	}
	sort.Strings(found)
	sort.Strings(missing)

	return Analysis{
		Found:     capList(found, MaxFound),
		Missing:   capList(missing, MaxMissing),
		Stability: Stability(resume),
		JobTerms:  len(jobTerms),
		Matched:   len(found),
	}
}

// Tokenize lower-cases text and splits it on anything that is not a letter,
// digit, '+' or '#'. Tokens shorter than MinTokenLength are dropped.
func Tokenize(text string) map[string]bool {
	terms := make(map[string]bool)
	var word strings.Builder
	flush := func() {
		w := word.String()
		word.Reset()
		if utf8.RuneCountInString(w) >= MinTokenLength {
			terms[w] = true
		}
	}
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#' {
			word.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return terms
}

// OverlapScore is the percentage of job terms found in the résumé, capped at MaxOverlapScore.
func OverlapScore(a Analysis) int {
	if a.JobTerms <= 0 {
		return 0
	}
	score := a.Matched * 100 / a.JobTerms
	if score > MaxOverlapScore {
		return MaxOverlapScore
	}
	return score
}

// Stability summarises the calendar years mentioned in a résumé.
func Stability(resume string) string {
	seen := make(map[int]bool)
	for _, field := range strings.FieldsFunc(resume, func(r rune) bool { return !unicode.IsDigit(r) }) {
		if len(field) != 4 {
			continue
		}
		year, err := strconv.Atoi(field)
		if err != nil {
			continue
		}
		if year >= 1900 && year <= 2099 {
			seen[year] = true
		}
	}

	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)

	switch {
	case len(years) > 2:
		return fmt.Sprintf("Career span %d-%d (%d distinct years mentioned)", years[0], years[len(years)-1], len(years))
	case len(years) > 0:
		parts := make([]string, len(years))
		for i, y := range years {
			parts[i] = strconv.Itoa(y)
		}
		return "Recent years mentioned: " + strings.Join(parts, ", ")
	default:
		return "Stability cannot be estimated (no dates found)"
	}
}

func capList(list []string, limit int) []string {
	if len(list) > limit {
		return list[:limit]
	}
	return list
}
