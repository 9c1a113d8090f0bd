package screening

import (
	"context"
	_ "embed"
	"encoding/json"
	"strings"

	"github.com/spigell/cv-screener/internal/ai"
	"github.com/spigell/cv-screener/internal/candidates"
	"github.com/spigell/cv-screener/internal/utils"
)

const (
	StageScreening   = "screening"
	StageRefinement  = "refinement"
	StageQualitative = "qualitative"
	StageWebPresence = "web-presence"
)

const (
	maxRefinedKeywords = 10
	maxStrengths       = 3
	maxRisks           = 2
	maxAchievements    = 3
)

//go:embed prompts/screening.md
var screeningTemplate string

//go:embed prompts/refinement.md
var refinementTemplate string

//go:embed prompts/qualitative.md
var qualitativeTemplate string

// Screening is the structured fact sheet returned by the first stage.
type Screening struct {
	Name    string `json:"name"`
	Contact struct {
		Email      string `json:"email"`
		Phone      string `json:"phone"`
		ProfileURL string `json:"profile_url"`
	} `json:"contact"`
	Languages       []string `json:"languages"`
	Credential      string   `json:"credential"`
	ExperienceYears float64  `json:"experience_years"`
}

var screeningSchema = schema{
	stage:    StageScreening,
	required: []string{"name", "contact", "languages", "credential", "experience_years"},
	nested:   map[string][]string{"contact": {"email", "phone", "profile_url"}},
}

// Facts converts the stage record into the result model.
func (s *Screening) Facts() *candidates.Facts {
	return &candidates.Facts{
		Contact: candidates.Contact{
			Email:      strings.TrimSpace(s.Contact.Email),
			Phone:      strings.TrimSpace(s.Contact.Phone),
			ProfileURL: strings.TrimSpace(s.Contact.ProfileURL),
		},
		Languages:       cleanList(s.Languages, 0),
		Credential:      strings.TrimSpace(s.Credential),
		ExperienceYears: s.ExperienceYears,
	}
}

// Refinement is the model-filtered keyword view.
type Refinement struct {
	Matched []string `json:"matched_keywords"`
	Missing []string `json:"missing_keywords"`
}

var refinementSchema = schema{
	stage:    StageRefinement,
	required: []string{"matched_keywords", "missing_keywords"},
}

// Qualitative is the scored narrative assessment.
type Qualitative struct {
	Score        int      `json:"score"`
	Summary      string   `json:"summary"`
	Strengths    []string `json:"strengths"`
	Risks        []string `json:"risks"`
	Achievements []string `json:"achievements"`
	JobFit       string   `json:"job_fit"`
	TechFit      string   `json:"tech_fit"`
}

var qualitativeSchema = schema{
	stage:    StageQualitative,
	required: []string{"score", "summary", "strengths", "risks", "job_fit", "tech_fit"},
}

type promptInput struct {
	job       string
	resume    string
	file      string
	found     []string
	missing   []string
	mustHave  []string
	screening *Screening
	maxJob    int
	maxResume int
}

func (in promptInput) render(template string) string {
	r := strings.NewReplacer(
		"{{JOB_DESCRIPTION}}", utils.TruncateRunes(in.job, in.maxJob),
		"{{RESUME_TEXT}}", utils.TruncateRunes(in.resume, in.maxResume),
		"{{FILE_NAME}}", in.file,
		"{{FOUND_KEYWORDS}}", joinOrNone(in.found),
		"{{MISSING_KEYWORDS}}", joinOrNone(in.missing),
		"{{MUST_HAVE}}", mustHaveText(in.mustHave),
		"{{SCREENING_JSON}}", screeningJSON(in.screening),
	)
	return r.Replace(template)
}

func (p *Pipeline) screen(ctx context.Context, in promptInput) (*Screening, error) {
	raw, err := p.gateway.Send(ctx, ai.Request{
		Prompt:      in.render(screeningTemplate),
		MaxTokens:   600,
		Temperature: 0.1,
		JSON:        true,
	})
	if err != nil {
		return nil, err
	}

	var out Screening
	if err := screeningSchema.decode(raw, &out); err != nil {
		return nil, err
	}
	out.Name = strings.TrimSpace(out.Name)
	return &out, nil
}

func (p *Pipeline) refine(ctx context.Context, in promptInput) (*Refinement, error) {
	raw, err := p.gateway.Send(ctx, ai.Request{
		Prompt:      in.render(refinementTemplate),
		MaxTokens:   400,
		Temperature: 0.1,
		JSON:        true,
	})
	if err != nil {
		return nil, err
	}

	var out Refinement
	if err := refinementSchema.decode(raw, &out); err != nil {
		return nil, err
	}
	out.Matched = cleanKeywords(out.Matched)
	out.Missing = cleanKeywords(out.Missing)
	return &out, nil
}

func (p *Pipeline) assess(ctx context.Context, in promptInput) (*Qualitative, error) {
	raw, err := p.gateway.Send(ctx, ai.Request{
		Prompt:      in.render(qualitativeTemplate),
		MaxTokens:   800,
		Temperature: 0.3,
		JSON:        true,
	})
	if err != nil {
		return nil, err
	}

	var out Qualitative
	if err := qualitativeSchema.decode(raw, &out); err != nil {
		return nil, err
	}
	out.Score = candidates.ClampScore(out.Score)
	out.Summary = strings.TrimSpace(out.Summary)
	out.Strengths = cleanList(out.Strengths, maxStrengths)
	out.Risks = cleanList(out.Risks, maxRisks)
	out.Achievements = cleanList(out.Achievements, maxAchievements)
	out.JobFit = strings.TrimSpace(out.JobFit)
	out.TechFit = strings.TrimSpace(out.TechFit)
	return &out, nil
}

// enforceMustHave moves every configured must-have term the résumé does not
// mention as a whole token into the missing list. Negated mentions such as
// "no Laravel" do not count.
func enforceMustHave(r *Refinement, mustHave []string, resume string) {
	lowerResume := strings.ToLower(resume)
	for _, term := range mustHave {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" || mentions(lowerResume, term) {
			continue
		}
		r.Matched = remove(r.Matched, term)
		if !contains(r.Missing, term) {
			r.Missing = append([]string{term}, r.Missing...)
		}
	}
	r.Matched = capStrings(r.Matched, maxRefinedKeywords)
	r.Missing = capStrings(r.Missing, maxRefinedKeywords)
}

func cleanKeywords(list []string) []string {
	out := make([]string, 0, len(list))
	for _, k := range list {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || contains(out, k) {
			continue
		}
		out = append(out, k)
	}
	return capStrings(out, maxRefinedKeywords)
}

func cleanList(list []string, limit int) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if limit > 0 {
		return capStrings(out, limit)
	}
	return out
}

func capStrings(list []string, limit int) []string {
	if len(list) > limit {
		return list[:limit]
	}
	return list
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func remove(list []string, v string) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		if item != v {
			out = append(out, item)
		}
	}
	return out
}

func joinOrNone(list []string) string {
	if len(list) == 0 {
		return "(none)"
	}
	return strings.Join(list, ", ")
}

func mustHaveText(list []string) string {
	if len(list) == 0 {
		return "Not provided: infer the must-have skills explicitly required by the job description."
	}
	return strings.Join(list, ", ")
}

func screeningJSON(s *Screening) string {
	if s == nil {
		return "{}"
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}
