// Package validate checks one phase's answers against a JSON Schema built
// from that phase's questions only.
package validate

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/abhisek/nutrify/internal/assessment"
)

// Phase coerces raw form input for a phase and validates it. On success it
// returns the normalized answers for exactly the phase's question ids.
// Optional questions left blank are omitted, except multi-select answers
// which are always present as a (possibly empty) list.
func Phase(phase assessment.Phase, input map[string]any) (assessment.Responses, error) {
	verr := &Error{}
	doc := make(map[string]any, len(phase.Questions))

	for _, q := range phase.Questions {
		v, present, err := coerce(q, input[q.ID])
		if err != nil {
			verr.add(q.ID, err.Error())
			continue
		}
		if present {
			doc[q.ID] = v
		}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(Schema(phase)),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return nil, fmt.Errorf("validate phase %q: %w", phase.Title, err)
	}

	if !result.Valid() {
		byID := make(map[string]assessment.Question, len(phase.Questions))
		for _, q := range phase.Questions {
			byID[q.ID] = q
		}
		for _, re := range result.Errors() {
			id := fieldID(re)
			q, ok := byID[id]
			if !ok {
				continue
			}
			verr.add(id, message(q, re))
		}
	}

	if len(verr.Fields) > 0 {
		return nil, verr
	}

	out := make(assessment.Responses, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out, nil
}

// Partial coerces whatever it can from a phase's input without enforcing
// required or range rules. Values that cannot be coerced are dropped. It
// backs explicit saves of a half-filled phase.
func Partial(phase assessment.Phase, input map[string]any) assessment.Responses {
	out := make(assessment.Responses, len(phase.Questions))
	for _, q := range phase.Questions {
		v, present, err := coerce(q, input[q.ID])
		if err != nil || !present {
			continue
		}
		if ss, ok := v.([]string); ok && len(ss) == 0 {
			continue
		}
		out[q.ID] = v
	}
	return out
}

// coerce converts one raw value to the shape its question expects.
// present is false when the value is blank.
func coerce(q assessment.Question, raw any) (any, bool, error) {
	switch q.Type {
	case assessment.TypeNumber:
		return coerceNumber(raw)
	case assessment.TypeMultiSelect:
		ss, err := coerceList(raw)
		return ss, true, err
	default:
		s, err := coerceString(raw)
		if err != nil {
			return nil, false, err
		}
		if q.Type == assessment.TypeSingleSelect {
			s = strings.TrimSpace(s)
		}
		if strings.TrimSpace(s) == "" {
			return nil, false, nil
		}
		return s, true, nil
	}
}

func coerceNumber(raw any) (any, bool, error) {
	switch t := raw.(type) {
	case nil:
		return nil, false, nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil, false, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || !finite(f) {
			return nil, false, fmt.Errorf("must be a number")
		}
		return f, true, nil
	default:
		v, ok := assessment.NormalizeValue(raw)
		if f, isNum := v.(float64); ok && isNum && finite(f) {
			return f, true, nil
		}
		return nil, false, fmt.Errorf("must be a number")
	}
}

// finite rejects NaN and the infinities, which ParseFloat accepts but JSON
// cannot carry.
func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func coerceString(raw any) (string, error) {
	switch t := raw.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case []string:
		if len(t) == 1 {
			return t[0], nil
		}
	case float64, int, int64:
		return assessment.FormatValue(mustNormalize(t)), nil
	}
	return "", fmt.Errorf("must be a single value")
}

func mustNormalize(v any) any {
	nv, _ := assessment.NormalizeValue(v)
	return nv
}

// coerceList accepts a list or a comma separated string, trims entries and
// drops blanks and repeats.
func coerceList(raw any) ([]string, error) {
	var items []string
	switch t := raw.(type) {
	case nil:
	case string:
		items = strings.Split(t, ",")
	case []string:
		items = t
	case []any:
		v, ok := assessment.NormalizeValue(t)
		if !ok {
			return nil, fmt.Errorf("must be a list of options")
		}
		items = v.([]string)
	default:
		return nil, fmt.Errorf("must be a list of options")
	}

	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" || seen[it] {
			continue
		}
		seen[it] = true
		out = append(out, it)
	}
	return out, nil
}

// fieldID maps a schema error to the question id it concerns.
func fieldID(re gojsonschema.ResultError) string {
	if re.Type() == "required" {
		if p, ok := re.Details()["property"].(string); ok {
			return p
		}
	}
	field := strings.TrimPrefix(re.Field(), "(root).")
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[:i]
	}
	return field
}

func message(q assessment.Question, re gojsonschema.ResultError) string {
	c := assessment.ParseConstraint(q.Validation)

	switch re.Type() {
	case "required":
		return "is required"
	case "number_gte", "number_gt":
		if lo, ok := numberMin(q, c); ok {
			return "must be at least " + assessment.FormatValue(lo)
		}
	case "number_lte", "number_lt":
		if c.Max != nil {
			return "must be at most " + assessment.FormatValue(*c.Max)
		}
	case "enum":
		return "must be one of: " + strings.Join(q.OptionValues(), ", ")
	case "array_min_items":
		return "select at least one option"
	case "string_gte":
		if c.MinLen != nil && *c.MinLen > 1 {
			return fmt.Sprintf("must be at least %d characters", *c.MinLen)
		}
		return "is required"
	case "string_lte":
		if c.MaxLen != nil {
			return fmt.Sprintf("must be at most %d characters", *c.MaxLen)
		}
	case "invalid_type":
		return "has the wrong type"
	}
	return re.Description()
}
