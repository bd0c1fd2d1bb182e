package wizard

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/nutrify/internal/assessment"
	"github.com/abhisek/nutrify/internal/ui/components"
	"github.com/abhisek/nutrify/internal/ui/theme"
	"github.com/abhisek/nutrify/internal/validate"
)

// field is one question rendered as either a text input or an option list.
type field struct {
	q      assessment.Question
	text   components.TextInput
	choice components.Choice
}

func (f *field) isChoice() bool { return f.q.Type.IsSelect() }

func (f *field) setError(msg string) {
	if f.isChoice() {
		f.choice.Error = msg
	} else {
		f.text.Error = msg
	}
}

func (f *field) value() any {
	if f.isChoice() {
		return f.choice.Value()
	}
	return f.text.Value()
}

// form holds the inputs for the phase on screen.
type form struct {
	fields []field
	focus  int
}

func newForm(phase assessment.Phase, values map[string]any) form {
	fs := make([]field, 0, len(phase.Questions))
	for _, q := range phase.Questions {
		f := field{q: q}
		v := values[q.ID]
		if q.Type.IsSelect() {
			f.choice = components.NewChoice(q.Options, q.Type == assessment.TypeMultiSelect)
			f.choice.SetValue(v)
		} else {
			f.text = components.NewTextInput(q.Placeholder, q.Type == assessment.TypeNumber, 0)
			f.text.SetValue(assessment.FormatValue(v))
		}
		fs = append(fs, f)
	}
	return form{fields: fs}
}

// values returns the raw input keyed by question id.
func (f form) values() map[string]any {
	out := make(map[string]any, len(f.fields))
	for i := range f.fields {
		out[f.fields[i].q.ID] = f.fields[i].value()
	}
	return out
}

// focusCmd focuses the current field and blurs the rest.
func (f *form) focusCmd() tea.Cmd {
	var cmd tea.Cmd
	for i := range f.fields {
		fl := &f.fields[i]
		active := i == f.focus
		if fl.isChoice() {
			fl.choice.Focused = active
			continue
		}
		if active {
			cmd = fl.text.Focus()
		} else {
			fl.text.Blur()
		}
	}
	return cmd
}

func (f *form) move(delta int) tea.Cmd {
	if len(f.fields) == 0 {
		return nil
	}
	f.focus = (f.focus + delta + len(f.fields)) % len(f.fields)
	return f.focusCmd()
}

// setErrors shows per-field messages and focuses the first failing field.
func (f *form) setErrors(verr *validate.Error) tea.Cmd {
	first := -1
	for i := range f.fields {
		msg := verr.Field(f.fields[i].q.ID)
		f.fields[i].setError(msg)
		if msg != "" && first < 0 {
			first = i
		}
	}
	if first >= 0 {
		f.focus = first
	}
	return f.focusCmd()
}

func (f *form) clearErrors() {
	for i := range f.fields {
		f.fields[i].setError("")
	}
}

// update forwards msg to the focused field.
func (f *form) update(msg tea.Msg) tea.Cmd {
	if f.focus >= len(f.fields) {
		return nil
	}
	fl := &f.fields[f.focus]
	var cmd tea.Cmd
	if fl.isChoice() {
		fl.choice, cmd = fl.choice.Update(msg)
	} else {
		fl.text, cmd = fl.text.Update(msg)
	}
	return cmd
}

func (f form) view(width int) string {
	labelStyle := lipgloss.NewStyle().Foreground(theme.Text).Bold(true)
	helpStyle := lipgloss.NewStyle().Foreground(theme.TextDim).Italic(true)

	var b strings.Builder
	for i, fl := range f.fields {
		label := fl.q.Label
		if fl.q.Required {
			label += lipgloss.NewStyle().Foreground(theme.Accent).Render(" *")
		}
		if i == f.focus {
			b.WriteString(theme.Selected.Render("▸ ") + labelStyle.Render(label))
		} else {
			b.WriteString("  " + labelStyle.Render(label))
		}
		b.WriteString("\n")
		if fl.q.HelpText != "" {
			b.WriteString(helpStyle.Width(width).Render("  "+fl.q.HelpText) + "\n")
		}
		if fl.isChoice() {
			b.WriteString(fl.choice.View())
		} else {
			b.WriteString("  " + fl.text.View() + "\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}
