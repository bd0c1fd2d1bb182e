// Package result shows the outcome of a completed assessment.
package result

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/nutrify/internal/api"
	"github.com/abhisek/nutrify/internal/assessment"
	"github.com/abhisek/nutrify/internal/router"
	"github.com/abhisek/nutrify/internal/screen"
	"github.com/abhisek/nutrify/internal/ui/layout"
	"github.com/abhisek/nutrify/internal/ui/theme"
)

// Loader fetches the result. api.ErrNotFound means it is not ready yet.
type Loader func(ctx context.Context) (*assessment.Result, error)

type loadedMsg struct {
	owner *ResultScreen
	res   *assessment.Result
	err   error
}

// ResultScreen displays the summary and recommendations of a result.
type ResultScreen struct {
	title   string
	load    Loader
	res     *assessment.Result
	loading bool
	missing bool
	errMsg  string
}

var _ screen.Screen = (*ResultScreen)(nil)
var _ screen.KeyHintProvider = (*ResultScreen)(nil)

func New(title string, load Loader) *ResultScreen {
	return &ResultScreen{title: title, load: load}
}

func (s *ResultScreen) Init() tea.Cmd {
	return s.fetch()
}

func (s *ResultScreen) fetch() tea.Cmd {
	s.loading = true
	return func() tea.Msg {
		res, err := s.load(context.Background())
		return loadedMsg{owner: s, res: res, err: err}
	}
}

func (s *ResultScreen) Title() string {
	if s.title == "" {
		return "Results"
	}
	return s.title + " results"
}

func (s *ResultScreen) KeyHints() []layout.KeyHint {
	if s.missing || s.errMsg != "" {
		return []layout.KeyHint{
			{Key: "R", Description: "Check again"},
			{Key: "Esc", Description: "Home"},
		}
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: "Done"},
		{Key: "Esc", Description: "Home"},
	}
}

func (s *ResultScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.owner != s {
			return s, nil
		}
		s.loading = false
		s.missing = errors.Is(msg.err, api.ErrNotFound)
		s.errMsg = ""
		if msg.err != nil && !s.missing {
			s.errMsg = msg.err.Error()
		}
		if msg.err == nil {
			s.res = msg.res
		}
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "r", "R":
			if !s.loading && s.res == nil {
				return s, s.fetch()
			}
		}
	}
	return s, nil
}

func (s *ResultScreen) View(width, height int) string {
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)

	switch {
	case s.loading && s.res == nil:
		return center.Foreground(theme.TextDim).Render("\n\nFetching your results...")
	case s.missing:
		return center.Foreground(theme.TextDim).Italic(true).
			Render("\n\nAssessment complete! Your results are still being prepared.\nPress R to check again.")
	case s.errMsg != "":
		return center.Foreground(theme.Error).Render(fmt.Sprintf("\n\nError: %s", s.errMsg))
	case s.res == nil:
		return ""
	}

	cw := min(width-8, 72)
	var b strings.Builder

	b.WriteString(center.Foreground(theme.Primary).Bold(true).Render("Assessment complete!"))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
		theme.Card.Width(cw).Render(theme.Body.Render(s.res.Summary))))
	b.WriteString("\n\n")

	if len(s.res.Recommendations) > 0 {
		divider := lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", cw))
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			lipgloss.NewStyle().Foreground(theme.TextDim).Render("Recommendations")))
		b.WriteString("\n")
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, divider))
		b.WriteString("\n\n")

		var recs strings.Builder
		for i, r := range s.res.Recommendations {
			fmt.Fprintf(&recs, "%2d. %s\n", i+1, r)
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			theme.Body.Width(cw).Render(strings.TrimRight(recs.String(), "\n"))))
		b.WriteString("\n")
	}

	if s.res.DietPlanID != "" {
		b.WriteString("\n")
		b.WriteString(center.Foreground(theme.Secondary).
			Render(fmt.Sprintf("Your diet plan is ready (plan %s).", s.res.DietPlanID)))
	}

	return b.String()
}
