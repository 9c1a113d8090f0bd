package screening

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// ValidationError means a stage answer could not be trusted: it did not parse
// as JSON even after repair, lacked required keys, or had wrongly typed values.
type ValidationError struct {
	Stage  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s stage: invalid model output: %s", e.Stage, e.Reason)
}

var (
	fencedBlock   = regexp.MustCompile("(?s)```[A-Za-z0-9_-]*[ \t]*\r?\n?(.*?)```")
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
)

// StripFences removes Markdown code fences and any prose around the JSON object.
func StripFences(raw string) string {
	text := strings.TrimSpace(raw)
	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	} else if m := fencedBlock.FindStringSubmatch(text + "```"); m != nil && strings.HasPrefix(text, "```") {
		// Unterminated fence.
		text = strings.TrimSpace(m[1])
	}

	if !strings.HasPrefix(text, "{") {
		start := strings.Index(text, "{")
		end := strings.LastIndex(text, "}")
		if start >= 0 && end > start {
			text = text[start : end+1]
		}
	}
	return strings.TrimSpace(text)
}

// repairJSON escapes raw control characters and stray quotes inside string
// literals and drops trailing commas. It does not try to fix structure.
func repairJSON(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 16)

	inString := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !inString {
			if c == '"' {
				inString = true
			}
			b.WriteByte(c)
			continue
		}

		switch c {
		case '\\':
			b.WriteByte(c)
			if i+1 < len(s) {
				i++
				b.WriteByte(s[i])
			}
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '"':
			if closesString(s[i+1:]) {
				inString = false
				b.WriteByte(c)
			} else {
				b.WriteString(`\"`)
			}
		default:
			b.WriteByte(c)
		}
	}

	return trailingComma.ReplaceAllString(b.String(), "$1")
}

// closesString reports whether a quote followed by rest ends a string literal.
func closesString(rest string) bool {
	rest = strings.TrimLeft(rest, " \t\r\n")
	if rest == "" {
		return true
	}
	switch rest[0] {
	case ',', '}', ']', ':':
		return true
	}
	return false
}

// schema lists the keys a stage answer must carry. Nested maps name the keys
// required inside an object-valued key.
type schema struct {
	stage    string
	required []string
	nested   map[string][]string
}

// decode parses raw model output into out following s.
func (s schema) decode(raw string, out any) error {
	cleaned := StripFences(raw)
	if cleaned == "" {
		return &ValidationError{Stage: s.stage, Reason: "empty answer"}
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		if errRepair := json.Unmarshal([]byte(repairJSON(cleaned)), &data); errRepair != nil {
			return &ValidationError{Stage: s.stage, Reason: fmt.Sprintf("not valid JSON: %v", err)}
		}
	}

	if missing := missingKeys(data, s.required); len(missing) > 0 {
		return &ValidationError{Stage: s.stage, Reason: "missing keys " + strings.Join(missing, ", ")}
	}
	for key, keys := range s.nested {
		obj, ok := data[key].(map[string]any)
		if !ok {
			return &ValidationError{Stage: s.stage, Reason: fmt.Sprintf("%q is not an object", key)}
		}
		if missing := missingKeys(obj, keys); len(missing) > 0 {
			return &ValidationError{Stage: s.stage, Reason: fmt.Sprintf("missing keys %s in %q", strings.Join(missing, ", "), key)}
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		TagName:          "json",
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("build %s decoder: %w", s.stage, err)
	}
	if err := decoder.Decode(data); err != nil {
		return &ValidationError{Stage: s.stage, Reason: err.Error()}
	}
	return nil
}

func missingKeys(data map[string]any, keys []string) []string {
	var missing []string
	for _, k := range keys {
		if _, ok := data[k]; !ok {
			missing = append(missing, k)
		}
	}
	return missing
}
