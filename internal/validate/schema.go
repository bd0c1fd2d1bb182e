package validate

import (
	"github.com/abhisek/nutrify/internal/assessment"
)

// numberFloor applies to required number questions without an explicit
// minimum in their validation string.
const numberFloor = 0.0

// Schema builds the JSON Schema for exactly one phase. Questions from other
// phases never appear in it, so future phases cannot block the current one.
func Schema(phase assessment.Phase) map[string]any {
	props := make(map[string]any, len(phase.Questions))
	required := make([]any, 0, len(phase.Questions))

	for _, q := range phase.Questions {
		props[q.ID] = questionSchema(q)
		// Multi-select values are always present as an array; their
		// "required" rule is expressed through minItems instead.
		if q.Required && q.Type != assessment.TypeMultiSelect {
			required = append(required, q.ID)
		}
	}

	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func questionSchema(q assessment.Question) map[string]any {
	c := assessment.ParseConstraint(q.Validation)

	switch q.Type {
	case assessment.TypeNumber:
		s := map[string]any{"type": "number"}
		if lo, ok := numberMin(q, c); ok {
			s["minimum"] = lo
		}
		if c.Max != nil {
			s["maximum"] = *c.Max
		}
		return s

	case assessment.TypeSingleSelect:
		return map[string]any{
			"type": "string",
			"enum": enumValues(q),
		}

	case assessment.TypeMultiSelect:
		s := map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "string",
				"enum": enumValues(q),
			},
		}
		if q.Required {
			s["minItems"] = 1
		}
		return s

	default:
		s := map[string]any{"type": "string"}
		if q.Required {
			s["minLength"] = 1
		}
		if c.MinLen != nil && (*c.MinLen > 1 || !q.Required) {
			s["minLength"] = *c.MinLen
		}
		if c.MaxLen != nil {
			s["maxLength"] = *c.MaxLen
		}
		return s
	}
}

// numberMin returns the effective lower bound of a number question.
func numberMin(q assessment.Question, c assessment.Constraint) (float64, bool) {
	if c.Min != nil {
		return *c.Min, true
	}
	if q.Required {
		return numberFloor, true
	}
	return 0, false
}

func enumValues(q assessment.Question) []any {
	out := make([]any, len(q.Options))
	for i, o := range q.Options {
		out[i] = o.Value
	}
	return out
}
