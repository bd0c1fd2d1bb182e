package components

import (
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"

	"github.com/abhisek/nutrify/internal/assessment"
)

func press(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

var goals = []assessment.Option{
	{Value: "loss", Label: "Lose weight"},
	{Value: "gain", Label: "Gain muscle"},
	{Value: "maintain", Label: "Maintain"},
}

func TestChoiceSingle(t *testing.T) {
	c := NewChoice(goals, false)
	c.Focused = true
	assert.Equal(t, "", c.Value())

	c, _ = c.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	c, _ = c.Update(tea.KeyPressMsg{Code: tea.KeySpace, Text: " "})
	assert.Equal(t, "gain", c.Value())

	c, _ = c.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	c, _ = c.Update(press('x'))
	assert.Equal(t, "maintain", c.Value(), "single choice replaces the previous pick")
}

func TestChoiceMulti(t *testing.T) {
	c := NewChoice(goals, true)
	c.Focused = true
	assert.Equal(t, []string{}, c.Value())

	c.SetValue([]string{"maintain", "unknown"})
	c, _ = c.Update(press('x'))
	assert.Equal(t, []string{"loss", "maintain"}, c.Value())

	c, _ = c.Update(press('x'))
	assert.Equal(t, []string{"maintain"}, c.Value(), "toggling twice deselects")
}

func TestChoiceIgnoresKeysWhenBlurred(t *testing.T) {
	c := NewChoice(goals, false)
	c, _ = c.Update(press('x'))
	assert.Equal(t, "", c.Value())
}

func TestNumericInput(t *testing.T) {
	ti := NewTextInput("", true, 0)
	ti.Focus()
	for _, r := range "-7a2.5.x" {
		ti, _ = ti.Update(press(r))
	}
	assert.Equal(t, "-72.5", ti.Value())
}

func TestStepProgress(t *testing.T) {
	assert.InDelta(t, 0.5, StepProgress("", 2, 4, 40).Percent, 1e-9)
	p := StepProgress("", 3, 0, 40)
	assert.Zero(t, p.Percent)
	assert.False(t, p.ShowPercent)
}

func TestMenuSkipsDisabled(t *testing.T) {
	ran := ""
	m := NewMenu([]MenuItem{
		{Label: "off", Disabled: true},
		{Label: "a", Action: func() tea.Cmd { ran = "a"; return nil }},
		{Label: "off2", Disabled: true},
		{Label: "b", Action: func() tea.Cmd { ran = "b"; return nil }},
	})
	assert.Equal(t, 1, m.Selected)

	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	assert.Equal(t, 3, m.Selected)
	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyUp})
	assert.Equal(t, 1, m.Selected)
	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	assert.Equal(t, "a", ran)
}
