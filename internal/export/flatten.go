// Package export turns ranked screening results into spreadsheet friendly files.
package export

import (
	"strconv"
	"strings"

	"github.com/spigell/cv-screener/internal/candidates"
)

// ListSeparator joins list-valued fields into one cell.
const ListSeparator = "; "

// Columns is the flattened header. Nested records use dotted keys.
var Columns = []string{
	"rank",
	"file",
	"name",
	"score",
	"analysis_type",
	"summary",
	"strengths",
	"risks",
	"achievements",
	"job_fit",
	"tech_fit",
	"contact.email",
	"contact.phone",
	"contact.profile_url",
	"facts.languages",
	"facts.credential",
	"facts.experience_years",
	"ats.matched_keywords",
	"ats.missing_keywords",
	"ats.stability",
	"ats.refined",
	"web_presence",
	"error",
}

// Flatten returns the header and one row per result in ranked order.
func Flatten(results *candidates.Results) ([]string, [][]string) {
	header := append([]string(nil), Columns...)
	if results == nil {
		return header, nil
	}

	ranked := results.Ranked()
	rows := make([][]string, 0, len(ranked))
	for i, res := range ranked {
		rows = append(rows, flattenResult(i+1, res))
	}
	return header, rows
}

func flattenResult(rank int, res *candidates.Result) []string {
	var (
		contact    candidates.Contact
		languages  []string
		credential string
		years      string
	)
	if res.Facts != nil {
		contact = res.Facts.Contact
		languages = res.Facts.Languages
		credential = res.Facts.Credential
		years = strconv.FormatFloat(res.Facts.ExperienceYears, 'f', -1, 64)
	}

	return []string{
		strconv.Itoa(rank),
		res.File,
		res.Name,
		strconv.Itoa(res.Score),
		res.Type.String(),
		res.Summary,
		join(res.Strengths),
		join(res.Risks),
		join(res.Achievements),
		res.JobFit,
		res.TechFit,
		contact.Email,
		contact.Phone,
		contact.ProfileURL,
		join(languages),
		credential,
		years,
		join(res.ATS.MatchedKeywords),
		join(res.ATS.MissingKeywords),
		res.ATS.Stability,
		strconv.FormatBool(res.ATS.Refined),
		join(res.WebPresence),
		res.Error,
	}
}

func join(list []string) string {
	return strings.Join(list, ListSeparator)
}
