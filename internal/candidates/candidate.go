// Package candidates holds per-document screening results and ranks them.
package candidates

import (
	"encoding/json"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
)

const (
	// UnknownName is used when no candidate name could be resolved.
	UnknownName = "Name Unknown"
	// ExtractionErrorName is used for documents whose text could not be read.
	ExtractionErrorName = "Extraction Error"
)

// IsPlaceholderName reports whether name is one of the markers above or empty.
func IsPlaceholderName(name string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "", "n/a", "unknown", strings.ToLower(UnknownName), strings.ToLower(ExtractionErrorName), "erreur extraction", "nom inconnu":
		return true
	}
	return false
}

type Contact struct {
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	ProfileURL string `json:"profile_url"`
}

// Facts are the structured fields produced by screening.
type Facts struct {
	Contact         Contact  `json:"contact"`
	Languages       []string `json:"languages"`
	Credential      string   `json:"credential"`
	ExperienceYears float64  `json:"experience_years"`
}

// ATS is the keyword matching view of a résumé.
type ATS struct {
	MatchedKeywords []string `json:"matched_keywords"`
	MissingKeywords []string `json:"missing_keywords"`
	Stability       string   `json:"stability"`
	// Refined is false when the lists are the raw local heuristic output.
	Refined bool `json:"refined"`
}

// Result is the outcome for one document.
type Result struct {
	File  string `json:"file"`
	Order int    `json:"order"`

	Name  string `json:"name"`
	Score int    `json:"score"`

	Summary      string   `json:"summary"`
	Strengths    []string `json:"strengths"`
	Risks        []string `json:"risks"`
	Achievements []string `json:"achievements"`
	JobFit       string   `json:"job_fit"`
	TechFit      string   `json:"tech_fit"`

	// Facts is nil unless screening succeeded.
	Facts *Facts `json:"facts,omitempty"`
	ATS   ATS    `json:"ats"`

	WebPresence []string     `json:"web_presence"`
	Type        AnalysisType `json:"analysis_type"`
	// Error describes why extraction failed, if it did.
	Error string `json:"error,omitempty"`
}

// ClampScore bounds a score to 0..100.
func ClampScore(score int) int {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}

// Results is the collection produced by one run. Append is safe for
// concurrent use; the read methods expect the run to be finished.
type Results struct {
	RunID string    `json:"run_id"`
	Items []*Result `json:"items"`

	mu sync.Mutex
}

func NewResults(runID string) *Results {
	return &Results{RunID: runID}
}

func (r *Results) Append(result *Result) {
	if result == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Items = append(r.Items, result)
}

func (r *Results) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Items)
}

// Ranked returns the results by score, highest first. Equal scores keep upload order.
func (r *Results) Ranked() []*Result {
	r.mu.Lock()
	ranked := make([]*Result, len(r.Items))
	copy(ranked, r.Items)
	r.mu.Unlock()

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Order < ranked[j].Order
	})
	return ranked
}

func (r *Results) FindByFile(file string) *Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, res := range r.Items {
		if res.File == file {
			return res
		}
	}
	return nil
}

func (r *Results) CountByType() map[AnalysisType]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[AnalysisType]int, len(AnalysisTypes))
	for _, res := range r.Items {
		counts[res.Type]++
	}
	return counts
}

// AverageScore is the mean score of results that reached the model stages.
func (r *Results) AverageScore() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum, n int
	for _, res := range r.Items {
		if res.Type == ExtractionFailed {
			continue
		}
		sum += res.Score
		n++
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

// ReportByType groups the ranked results under their analysis caption.
func (r *Results) ReportByType() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for i, res := range r.Ranked() {
		key := res.Type.String()
		report[key] = append(report[key], map[string]string{
			"rank":    strconv.Itoa(i + 1),
			"file":    res.File,
			"name":    res.Name,
			"score":   strconv.Itoa(res.Score),
			"summary": res.Summary,
			"caption": res.Type.Caption(),
		})
	}
	return report
}

// DumpToTmpFile writes the ranked results as indented JSON to a temp file and returns its path.
func (r *Results) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "candidates_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	payload := struct {
		RunID string    `json:"run_id"`
		Items []*Result `json:"items"`
	}{RunID: r.RunID, Items: r.Ranked()}
	if err := enc.Encode(payload); err != nil {
		return "", err
	}
	return file.Name(), nil
}
