package assessment

import (
	"encoding/json"
	"fmt"
	"strings"
)

// QuestionType is the normalized answer type of a question.
type QuestionType string

const (
	TypeText         QuestionType = "text"
	TypeNumber       QuestionType = "number"
	TypeSingleSelect QuestionType = "select"
	TypeMultiSelect  QuestionType = "multiselect"
)

// NormalizeType maps the wire spellings used by the platform onto the four
// answer types. Unknown spellings fall back to text.
func NormalizeType(s string) QuestionType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "number", "numeric", "integer":
		return TypeNumber
	case "select", "radio", "single-select", "single_select":
		return TypeSingleSelect
	case "multiselect", "checkbox", "multi-select", "multi_select":
		return TypeMultiSelect
	default:
		return TypeText
	}
}

// IsSelect reports whether the type carries an option list.
func (t QuestionType) IsSelect() bool {
	return t == TypeSingleSelect || t == TypeMultiSelect
}

// Option is one value/label pair of a select question.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// UnmarshalJSON accepts either {"value","label"} objects or bare strings,
// which some server-driven payloads use for simple option lists.
func (o *Option) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		o.Value, o.Label = s, s
		return nil
	}
	type plain Option
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return fmt.Errorf("decode option: %w", err)
	}
	if p.Label == "" {
		p.Label = p.Value
	}
	*o = Option(p)
	return nil
}

// Question is one answerable item. Questions are immutable once loaded.
type Question struct {
	ID          string       `json:"id"`
	Label       string       `json:"label"`
	Type        QuestionType `json:"type"`
	Required    bool         `json:"required"`
	Options     []Option     `json:"options,omitempty"`
	Validation  string       `json:"validation,omitempty"`
	Placeholder string       `json:"placeholder,omitempty"`
	HelpText    string       `json:"help_text,omitempty"`
}

// UnmarshalJSON normalizes the question type on decode.
func (q *Question) UnmarshalJSON(b []byte) error {
	type wire struct {
		ID          string   `json:"id"`
		Label       string   `json:"label"`
		Text        string   `json:"text"`
		Type        string   `json:"type"`
		Required    bool     `json:"required"`
		Options     []Option `json:"options"`
		Validation  string   `json:"validation"`
		Placeholder string   `json:"placeholder"`
		HelpText    string   `json:"help_text"`
	}
	var w wire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	label := w.Label
	if label == "" {
		label = w.Text
	}
	*q = Question{
		ID:          w.ID,
		Label:       label,
		Type:        NormalizeType(w.Type),
		Required:    w.Required,
		Options:     w.Options,
		Validation:  w.Validation,
		Placeholder: w.Placeholder,
		HelpText:    w.HelpText,
	}
	return nil
}

// OptionValues returns the option values in display order.
func (q Question) OptionValues() []string {
	out := make([]string, len(q.Options))
	for i, o := range q.Options {
		out[i] = o.Value
	}
	return out
}

// OptionLabel returns the label for value, or value itself when unknown.
func (q Question) OptionLabel(value string) string {
	for _, o := range q.Options {
		if o.Value == value {
			return o.Label
		}
	}
	return value
}

// Phase is an ordered group of questions presented together.
type Phase struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Questions   []Question `json:"questions"`
}

// QuestionIDs returns the ids of the phase's questions in order.
func (p Phase) QuestionIDs() []string {
	ids := make([]string, len(p.Questions))
	for i, q := range p.Questions {
		ids[i] = q.ID
	}
	return ids
}

// SingleQuestionPhase wraps one server-delivered question so it can flow
// through the same validator and controller as a catalog phase.
func SingleQuestionPhase(q Question) Phase {
	return Phase{
		Title:       q.Label,
		Description: q.HelpText,
		Questions:   []Question{q},
	}
}
