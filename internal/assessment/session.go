package assessment

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Type is the assessment type a session was started for.
type Type string

const (
	TypeBasic   Type = "basic"
	TypeDiet    Type = "diet"
	TypeFitness Type = "fitness"
	TypeHealth  Type = "health"
)

// AllTypes returns the known assessment types in display order.
func AllTypes() []Type {
	return []Type{TypeBasic, TypeDiet, TypeFitness, TypeHealth}
}

// ParseType validates an assessment type name.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllTypes() {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown assessment type %q", s)
}

// Status is the server-owned lifecycle state of a session.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusAbandoned  Status = "abandoned"
)

// Session is one in-progress or completed assessment instance. The client
// holds it as a cache; the server owns ID and Status.
type Session struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id,omitempty"`
	Type            Type       `json:"assessment_type"`
	Status          Status     `json:"status"`
	CurrentPhase    int        `json:"current_phase"`
	CurrentQuestion string     `json:"current_question,omitempty"`
	Responses       Responses  `json:"responses"`
	ResultID        string     `json:"result_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// IsCompleted reports whether the session reached its terminal state.
func (s *Session) IsCompleted() bool {
	return s != nil && s.Status == StatusCompleted
}

// Clone returns a deep copy, so callers can mutate it speculatively.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Responses = s.Responses.Clone()
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

// Result is the read-only output of a completed assessment.
type Result struct {
	ID              string    `json:"id,omitempty"`
	SessionID       string    `json:"session_id,omitempty"`
	Summary         string    `json:"summary"`
	Recommendations []string  `json:"recommendations"`
	DietPlanID      string    `json:"diet_plan_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Responses maps question ids to answer values. Values are string, float64
// or []string.
type Responses map[string]any

// Clone returns a copy that shares no slices with r.
func (r Responses) Clone() Responses {
	out := make(Responses, len(r))
	for k, v := range r {
		if ss, ok := v.([]string); ok {
			v = append([]string(nil), ss...)
		}
		out[k] = v
	}
	return out
}

// Merge returns a new map holding r overlaid with update. Later values for
// the same key overwrite earlier ones.
func (r Responses) Merge(update Responses) Responses {
	out := r.Clone()
	for k, v := range update.Clone() {
		out[k] = v
	}
	return out
}

// Pick returns the subset of r for the given ids.
func (r Responses) Pick(ids []string) Responses {
	out := make(Responses, len(ids))
	for _, id := range ids {
		if v, ok := r[id]; ok {
			out[id] = v
		}
	}
	return out
}

// UnmarshalJSON decodes responses and normalizes arrays to []string.
func (r *Responses) UnmarshalJSON(b []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(Responses, len(raw))
	for k, v := range raw {
		nv, ok := NormalizeValue(v)
		if !ok {
			return fmt.Errorf("response %q: unsupported value %T", k, v)
		}
		out[k] = nv
	}
	*r = out
	return nil
}

// NormalizeValue converts a decoded JSON value into one of the three answer
// shapes. Nested objects are rejected.
func NormalizeValue(v any) (any, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case []string:
		return append([]string(nil), t...), true
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

// FormatValue renders an answer value for display.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.4f", t), "0"), ".")
	case []string:
		return strings.Join(t, ", ")
	default:
		return fmt.Sprint(t)
	}
}
