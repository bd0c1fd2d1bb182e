package wizard

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/nutrify/internal/notify"
	"github.com/abhisek/nutrify/internal/ui/components"
	"github.com/abhisek/nutrify/internal/ui/theme"
	engine "github.com/abhisek/nutrify/internal/wizard"
)

func (s *WizardScreen) View(width, height int) string {
	cw := min(width-4, 72)

	var body string
	switch {
	case s.confirm:
		body = s.renderConfirm(cw)
	case s.snap.State == engine.StateActiveConflict:
		body = s.renderConflict(cw)
	case s.snap.State == engine.StateError:
		body = s.renderError(cw)
	case s.busy && !s.snap.HasStep:
		body = dim(cw, stateText(s.ctrl.State(), s.start.SessionID != ""))
	case s.snap.Session == nil:
		body = dim(cw, "No assessment in progress. Press R to start one.")
	case !s.snap.HasStep:
		body = s.renderFinish(cw)
	default:
		body = s.renderStep(cw)
	}

	var footer []string
	if s.busy && s.snap.HasStep {
		footer = append(footer, lipgloss.NewStyle().Foreground(theme.Secondary).Render(stateText(s.ctrl.State(), false)))
	}
	if s.status != "" {
		footer = append(footer, lipgloss.NewStyle().Foreground(theme.Warning).Render(s.status))
	}
	for _, n := range s.notes {
		footer = append(footer, notify.Format(n))
	}
	if len(footer) > 0 {
		body += "\n\n" + strings.Join(footer, "\n")
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Top,
		lipgloss.NewStyle().Width(cw).Render(body))
}

func (s *WizardScreen) renderStep(cw int) string {
	step := s.snap.Step

	var b strings.Builder
	label := fmt.Sprintf("Question %d", step.Number)
	if step.QuestionID == "" {
		label = fmt.Sprintf("Phase %d", step.Number)
	}
	if step.Total > 0 {
		label += fmt.Sprintf(" of %d", step.Total)
	}
	b.WriteString(components.StepProgress(label, step.Number-1, step.Total, cw).View())
	b.WriteString("\n\n")

	b.WriteString(theme.Title.Width(cw).Align(lipgloss.Left).Render(step.Phase.Title))
	b.WriteString("\n")
	if step.Phase.Description != "" && step.QuestionID == "" {
		b.WriteString(theme.Hint.Width(cw).Render(step.Phase.Description))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(s.form.view(cw))

	if step.Last {
		b.WriteString(theme.Hint.Render("This is the last step. Continuing submits the assessment."))
	}
	return b.String()
}

func (s *WizardScreen) renderConflict(cw int) string {
	msg := "You already have an assessment in progress"
	if s.snap.Conflict != "" {
		msg += fmt.Sprintf(" (session %s)", s.snap.Conflict)
	}
	msg += ".\n\nResume it, or discard it and start a new one. Discarding deletes its answers."
	return theme.Card.Width(cw).Render(
		theme.Warn.Render("Assessment already in progress") + "\n\n" +
			theme.Body.Render(msg))
}

func (s *WizardScreen) renderConfirm(cw int) string {
	return theme.Card.Width(cw).Render(
		theme.Incorrect.Render("Abandon this assessment?") + "\n\n" +
			theme.Body.Render("All answers will be discarded. This cannot be undone.") + "\n\n" +
			theme.Hint.Render("Press Y to abandon or N to keep going."))
}

func (s *WizardScreen) renderError(cw int) string {
	msg := "Something went wrong."
	if s.snap.Err != nil {
		msg = describe(s.snap.Err)
	}
	return theme.Card.Width(cw).Render(
		theme.Incorrect.Render("Could not load the assessment") + "\n\n" +
			theme.Body.Render(msg) + "\n\n" +
			theme.Hint.Render("Press R to try again."))
}

func (s *WizardScreen) renderFinish(cw int) string {
	n := 0
	if s.snap.Session != nil {
		n = len(s.snap.Session.Responses)
	}
	return theme.Card.Width(cw).Render(
		theme.Selected.Render("All questions answered") + "\n\n" +
			theme.Body.Render(fmt.Sprintf("%d answers recorded. Press Enter to submit the assessment.", n)))
}

func stateText(st engine.State, loading bool) string {
	switch st {
	case engine.StateLoading:
		return "Loading assessment..."
	case engine.StateCompleting:
		return "Submitting assessment..."
	case engine.StateSaving:
		if loading {
			return "Loading assessment..."
		}
		return "Saving..."
	}
	if loading {
		return "Loading assessment..."
	}
	return "Working..."
}

func dim(cw int, s string) string {
	return lipgloss.NewStyle().Width(cw).Align(lipgloss.Center).Foreground(theme.TextDim).
		Render("\n\n" + s)
}
