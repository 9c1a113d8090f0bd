package candidates

import (
	"fmt"
	"strings"
)

// AnalysisType records how much of the pipeline produced data for a result.
type AnalysisType int

const (
	// Complete means structured screening and qualitative analysis both succeeded.
	Complete AnalysisType = iota + 1
	// ScreeningOnly means screening succeeded but qualitative analysis failed or was skipped.
	ScreeningOnly
	// BasicFallback means screening failed and name and score come from local heuristics.
	BasicFallback
	// ExtractionFailed means no usable text was extracted; no model was called.
	ExtractionFailed
)

// AnalysisTypes lists every tag in display order.
var AnalysisTypes = []AnalysisType{Complete, ScreeningOnly, BasicFallback, ExtractionFailed}

func (t AnalysisType) String() string {
	switch t {
	case Complete:
		return "complete"
	case ScreeningOnly:
		return "screening-only"
	case BasicFallback:
		return "basic-fallback"
	case ExtractionFailed:
		return "extraction-failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// Caption is the human readable label shown next to a result.
func (t AnalysisType) Caption() string {
	switch t {
	case Complete:
		return "Full analysis"
	case ScreeningOnly:
		return "Partial analysis: qualitative review unavailable, score is a baseline"
	case BasicFallback:
		return "Basic fallback: model screening failed, name and score estimated locally"
	case ExtractionFailed:
		return "Extraction failed: document text could not be read"
	default:
		return "Unknown analysis state"
	}
}

// Valid reports whether t is one of the declared tags.
func (t AnalysisType) Valid() bool {
	return t >= Complete && t <= ExtractionFailed
}

// ParseAnalysisType is the inverse of String.
func ParseAnalysisType(s string) (AnalysisType, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for _, t := range AnalysisTypes {
		if t.String() == needle {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown analysis type %q", s)
}

func (t AnalysisType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid analysis type %d", int(t))
	}
	return []byte(t.String()), nil
}

func (t *AnalysisType) UnmarshalText(b []byte) error {
	parsed, err := ParseAnalysisType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
