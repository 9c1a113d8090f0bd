package screening

import (
	"errors"
	"reflect"
	"testing"
)

func TestStripFences(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "plain", raw: `{"a":1}`, want: `{"a":1}`},
		{name: "json fence", raw: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "bare fence", raw: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "unterminated fence", raw: "```json\n{\"a\":1}", want: `{"a":1}`},
		{name: "prose around", raw: "Sure! Here it is: {\"a\":1} Hope it helps.", want: `{"a":1}`},
		{name: "fence with prose", raw: "Result:\n```json\n{\"a\":{\"b\":2}}\n```\nDone.", want: `{"a":{"b":2}}`},
		{name: "no object", raw: "nothing here", want: "nothing here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := StripFences(tt.raw); got != tt.want {
				t.Fatalf("StripFences(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestRepairJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "raw newline", raw: "{\"summary\":\"line one\nline two\"}", want: `{"summary":"line one\nline two"}`},
		{name: "inner quotes", raw: `{"summary":"he said "great" twice"}`, want: `{"summary":"he said \"great\" twice"}`},
		{name: "trailing comma", raw: `{"a":["x","y",],}`, want: `{"a":["x","y"]}`},
		{name: "escapes kept", raw: `{"a":"tab\there"}`, want: `{"a":"tab\there"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := repairJSON(tt.raw); got != tt.want {
				t.Fatalf("repairJSON(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestSchemaDecodeRepairsAndCoerces(t *testing.T) {
	t.Parallel()

	raw := "```json\n{\"score\": \"74\", \"summary\": \"Strong \"Go\" profile\nwith depth\",\n" +
		"\"strengths\": [\"Go\"], \"risks\": [], \"job_fit\": \"Good\", \"tech_fit\": \"Covers Go\",}\n```"

	var out Qualitative
	if err := qualitativeSchema.decode(raw, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Score != 74 {
		t.Fatalf("expected coerced score, got %d", out.Score)
	}
	if out.Summary != "Strong \"Go\" profile\nwith depth" {
		t.Fatalf("unexpected summary %q", out.Summary)
	}
	if !reflect.DeepEqual(out.Strengths, []string{"Go"}) {
		t.Fatalf("unexpected strengths %v", out.Strengths)
	}
}

func TestSchemaDecodeRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		schema schema
		out    any
		raw    string
	}{
		{name: "empty", schema: refinementSchema, out: &Refinement{}, raw: "  "},
		{name: "prose", schema: refinementSchema, out: &Refinement{}, raw: "The candidate matches Go."},
		{name: "missing key", schema: refinementSchema, out: &Refinement{}, raw: `{"matched_keywords": ["go"]}`},
		{name: "contact not object", schema: screeningSchema, out: &Screening{},
			raw: `{"name":"A B","contact":"none","languages":[],"credential":"","experience_years":1}`},
		{name: "missing nested key", schema: screeningSchema, out: &Screening{},
			raw: `{"name":"A B","contact":{"email":""},"languages":[],"credential":"","experience_years":1}`},
		{name: "wrong type", schema: qualitativeSchema, out: &Qualitative{},
			raw: `{"score":"high","summary":"","strengths":[],"risks":[],"job_fit":"","tech_fit":""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.schema.decode(tt.raw, tt.out)
			var validation *ValidationError
			if !errors.As(err, &validation) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if validation.Stage != tt.schema.stage {
				t.Fatalf("expected stage %s, got %s", tt.schema.stage, validation.Stage)
			}
		})
	}
}

func TestEnforceMustHave(t *testing.T) {
	t.Parallel()

	r := &Refinement{Matched: []string{"php", "laravel", "mysql"}, Missing: []string{"docker"}}
	enforceMustHave(r, []string{" Laravel ", "PHP", ""}, "PHP and MySQL developer")

	if !reflect.DeepEqual(r.Matched, []string{"php", "mysql"}) {
		t.Fatalf("unexpected matched %v", r.Matched)
	}
	if !reflect.DeepEqual(r.Missing, []string{"laravel", "docker"}) {
		t.Fatalf("unexpected missing %v", r.Missing)
	}
}

func TestEnforceMustHaveMatchesWholeTokens(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		mustHave []string
		resume   string
		missing  []string
	}{
		{
			name:     "substring of unrelated words",
			mustHave: []string{"go"},
			resume:   "Good communicator, worked at Google on JavaScript frontends.",
			missing:  []string{"go"},
		},
		{
			name:     "prefix of a longer language",
			mustHave: []string{"java"},
			resume:   "Senior JavaScript developer.",
			missing:  []string{"java"},
		},
		{
			name:     "negated mention",
			mustHave: []string{"laravel"},
			resume:   "PHP, MySQL, 2 years experience, no Laravel.",
			missing:  []string{"laravel"},
		},
		{
			name:     "negation a few words back",
			mustHave: []string{"kubernetes"},
			resume:   "Deployed services without Docker or Kubernetes.",
			missing:  []string{"kubernetes"},
		},
		{
			name:     "plain mentions",
			mustHave: []string{"go", "kubernetes"},
			resume:   "Backend engineer: Go, Kubernetes (EKS) and gRPC.",
			missing:  []string{},
		},
		{
			name:     "symbol languages",
			mustHave: []string{"c++", "c#", "c"},
			resume:   "Wrote C++ engines and C# tools.",
			missing:  []string{"c"},
		},
		{
			name:     "negated once then stated",
			mustHave: []string{"laravel"},
			resume:   "No Laravel at first job. Later built Laravel APIs for 3 years.",
			missing:  []string{},
		},
		{
			name:     "hyphenated and dotted tokens",
			mustHave: []string{"go", "node.js"},
			resume:   "Go-based services and Node.js tooling.",
			missing:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := &Refinement{Matched: append([]string(nil), tt.mustHave...), Missing: []string{}}
			enforceMustHave(r, tt.mustHave, tt.resume)

			if !reflect.DeepEqual(r.Missing, tt.missing) {
				t.Fatalf("expected missing %v, got %v", tt.missing, r.Missing)
			}
			for _, term := range tt.missing {
				if contains(r.Matched, term) {
					t.Fatalf("%q left in matched %v", term, r.Matched)
				}
			}
		})
	}
}
