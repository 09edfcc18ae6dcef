package services

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// CleanJSON strips a Markdown code fence (```json or bare ```) around the
// model output. Text without a fence is only trimmed.
func CleanJSON(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return ""
	}

	fence := "```"
	if strings.Contains(cleaned, "```json") {
		fence = "```json"
	} else if !strings.Contains(cleaned, "```") {
		return cleaned
	}

	parts := strings.SplitN(cleaned, fence, 2)
	if len(parts) < 2 {
		return cleaned
	}
	body := parts[1]
	if end := strings.Index(body, "```"); end >= 0 {
		body = body[:end]
	}

	return strings.TrimSpace(body)
}

// ParsedJSON is the parse-or-default result of decoding a model response:
// either Value is set, or Error says why it could not be used.
type ParsedJSON struct {
	Value map[string]any
	Error string
	Raw   string
}

func (p ParsedJSON) OK() bool {
	return p.Error == "" && p.Value != nil
}

// SafeJSON never fails: empty input, invalid JSON, a non-object, a body that
// does not match schema, or an object carrying its own "error" key all come
// back as ParsedJSON with Error set.
func SafeJSON(raw, label string, schema *gojsonschema.Schema) ParsedJSON {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ParsedJSON{Error: fmt.Sprintf("Empty %s response", label)}
	}

	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return ParsedJSON{Error: fmt.Sprintf("Could not parse %s", label), Raw: raw}
	}

	obj, ok := decoded.(map[string]any)
	if !ok {
		return ParsedJSON{Error: fmt.Sprintf("Could not parse %s: not a JSON object", label), Raw: raw}
	}

	if schema != nil {
		result, err := schema.Validate(gojsonschema.NewGoLoader(obj))
		if err != nil {
			return ParsedJSON{Error: fmt.Sprintf("Could not validate %s: %v", label, err), Raw: raw}
		}
		if !result.Valid() {
			var msgs []string
			for _, e := range result.Errors() {
				msgs = append(msgs, e.String())
			}
			return ParsedJSON{Error: fmt.Sprintf("Invalid %s: %s", label, strings.Join(msgs, "; ")), Raw: raw}
		}
	}

	if errVal, exists := obj["error"]; exists && errVal != nil {
		return ParsedJSON{Value: obj, Error: fmt.Sprint(errVal), Raw: raw}
	}

	return ParsedJSON{Value: obj, Raw: raw}
}

const profileSchemaJSON = `{
  "type": "object",
  "properties": {
    "full_name": {"type": ["string", "null"]},
    "email": {"type": ["string", "null"]},
    "phone": {"type": ["string", "number", "null"]},
    "employment_details": {"type": ["array", "string", "null"]},
    "technical_skills": {"type": ["array", "string", "null"]},
    "soft_skills": {"type": ["array", "string", "null"]},
    "education": {"type": ["array", "object", "null"]},
    "age": {"type": ["string", "number", "null"]}
  }
}`

const atsSchemaJSON = `{
  "type": "object",
  "properties": {
    "ats_score": {"type": ["number", "string", "null"]},
    "match_percentage": {"type": ["number", "string", "null"]},
    "matching_keywords": {"type": ["array", "null"]},
    "missing_keywords": {"type": ["array", "null"]},
    "strengths": {"type": ["array", "null"]},
    "weaknesses": {"type": ["array", "null"]},
    "recommendations": {"type": ["array", "null"]},
    "overall_assessment": {"type": ["string", "null"]}
  }
}`

var (
	profileSchema = mustNewSchema(gojsonschema.NewStringLoader(profileSchemaJSON))
	atsSchema     = mustNewSchema(gojsonschema.NewStringLoader(atsSchemaJSON))
)

// mustNewSchema compiles an embedded schema and panics if it is invalid.
func mustNewSchema(loader gojsonschema.JSONLoader) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(loader)
	if err != nil {
		panic(err)
	}
	return schema
}

var plainNumber = regexp.MustCompile(`^\s*(-?\d+(?:\.\d+)?)\s*%?\s*$`)

// ToNumberOrNil coerces a model-supplied number, numeric string or
// percentage string ("83%") to a float. Anything else is nil.
func ToNumberOrNil(value any) *float64 {
	var f float64
	switch v := value.(type) {
	case nil:
		return nil
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case string:
		m := plainNumber.FindStringSubmatch(v)
		if m == nil {
			return nil
		}
		parsed, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// pickFirstNonEmpty returns the first key of m holding a non-blank scalar.
func pickFirstNonEmpty(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := scalarString(m[key]); s != "" {
			return s
		}
	}
	return ""
}

func scalarString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

func stringPtr(m map[string]any, keys ...string) *string {
	if s := pickFirstNonEmpty(m, keys...); s != "" {
		return &s
	}
	return nil
}

// stringList accepts a JSON array of scalars or a single comma separated string.
func stringList(value any) []string {
	out := []string{}
	switch v := value.(type) {
	case []any:
		for _, item := range v {
			if s := scalarString(item); s != "" {
				out = append(out, s)
			}
		}
	case string:
		for _, item := range strings.Split(v, ",") {
			if s := strings.TrimSpace(item); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
