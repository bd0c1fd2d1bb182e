package components

import (
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/nutrify/internal/assessment"
	"github.com/abhisek/nutrify/internal/ui/theme"
)

// Choice picks one option, or several when Multi is set. Space or enter
// on an option selects it; in multi mode it toggles.
type Choice struct {
	Options []assessment.Option
	Multi   bool
	Cursor  int
	Focused bool
	Error   string

	chosen map[string]bool
}

func NewChoice(options []assessment.Option, multi bool) Choice {
	return Choice{
		Options: options,
		Multi:   multi,
		chosen:  make(map[string]bool),
	}
}

// SetValue selects the options named by v, a string or []string. Values
// that are not options are ignored.
func (c *Choice) SetValue(v any) {
	c.chosen = make(map[string]bool)
	switch t := v.(type) {
	case string:
		c.choose(t)
	case []string:
		for _, s := range t {
			c.choose(s)
		}
	case []any:
		for _, s := range t {
			if str, ok := s.(string); ok {
				c.choose(str)
			}
		}
	}
}

func (c *Choice) choose(v string) {
	for i, o := range c.Options {
		if o.Value == v {
			c.chosen[v] = true
			if !c.Multi {
				c.Cursor = i
			}
			return
		}
	}
}

// Value returns the chosen value as a string (single) or []string in
// option order (multi). A single choice with nothing chosen returns "".
func (c Choice) Value() any {
	if c.Multi {
		out := []string{}
		for _, o := range c.Options {
			if c.chosen[o.Value] {
				out = append(out, o.Value)
			}
		}
		return out
	}
	for _, o := range c.Options {
		if c.chosen[o.Value] {
			return o.Value
		}
	}
	return ""
}

func (c Choice) Update(msg tea.Msg) (Choice, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok || !c.Focused || len(c.Options) == 0 {
		return c, nil
	}

	switch kmsg.String() {
	case "up", "k":
		if c.Cursor > 0 {
			c.Cursor--
		}
	case "down", "j":
		if c.Cursor < len(c.Options)-1 {
			c.Cursor++
		}
	case "space", " ", "x":
		v := c.Options[c.Cursor].Value
		if c.Multi {
			if c.chosen[v] {
				delete(c.chosen, v)
			} else {
				c.chosen[v] = true
			}
		} else {
			c.chosen = map[string]bool{v: true}
		}
	}
	return c, nil
}

func (c Choice) View() string {
	var s string
	for i, o := range c.Options {
		mark := "( )"
		if c.Multi {
			mark = "[ ]"
		}
		if c.chosen[o.Value] {
			mark = "(•)"
			if c.Multi {
				mark = "[x]"
			}
		}
		prefix := "  "
		if c.Focused && i == c.Cursor {
			prefix = "▸ "
		}
		line := prefix + mark + " " + o.Label

		style := theme.Unselected
		switch {
		case c.Focused && i == c.Cursor:
			style = theme.Selected
		case c.chosen[o.Value]:
			style = lipgloss.NewStyle().Foreground(theme.Secondary)
		}
		s += style.Render(line) + "\n"
	}
	if c.Error != "" {
		s += lipgloss.NewStyle().Foreground(theme.Error).Render("  "+c.Error) + "\n"
	}
	return s
}
