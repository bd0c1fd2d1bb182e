package components

import (
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/nutrify/internal/ui/theme"
)

// TextInput wraps bubbles/textinput with Nutrify styling and an inline
// validation message.
type TextInput struct {
	Model       textinput.Model
	NumericOnly bool
	Error       string
}

// NewTextInput creates a blurred text input. charLimit 0 means unlimited.
func NewTextInput(placeholder string, numericOnly bool, charLimit int) TextInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	if charLimit > 0 {
		ti.CharLimit = charLimit
	}
	return TextInput{
		Model:       ti,
		NumericOnly: numericOnly,
	}
}

func (t TextInput) Init() tea.Cmd {
	return nil
}

// Update handles messages. In numeric mode only digits, one decimal point
// and a leading minus are accepted.
func (t TextInput) Update(msg tea.Msg) (TextInput, tea.Cmd) {
	if t.NumericOnly {
		if kmsg, ok := msg.(tea.KeyPressMsg); ok && len(kmsg.Text) == 1 && !t.acceptsNumeric(kmsg.Text[0]) {
			return t, nil
		}
	}

	var cmd tea.Cmd
	t.Model, cmd = t.Model.Update(msg)
	return t, cmd
}

func (t TextInput) acceptsNumeric(c byte) bool {
	v := t.Model.Value()
	switch {
	case c >= '0' && c <= '9':
		return true
	case c == '.':
		for i := 0; i < len(v); i++ {
			if v[i] == '.' {
				return false
			}
		}
		return true
	case c == '-':
		return v == ""
	}
	return false
}

func (t TextInput) View() string {
	view := t.Model.View()
	if t.Error != "" {
		view += "\n" + lipgloss.NewStyle().Foreground(theme.Error).Render("  "+t.Error)
	}
	return view
}

func (t TextInput) Value() string {
	return t.Model.Value()
}

func (t *TextInput) SetValue(v string) {
	t.Model.SetValue(v)
}

func (t *TextInput) Focus() tea.Cmd {
	return t.Model.Focus()
}

func (t *TextInput) Blur() {
	t.Model.Blur()
}
