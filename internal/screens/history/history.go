package history

import (
	"context"
	"fmt"
	"image/color"
	"strings"

	tea "charm.land/bubbletea/v2"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/nutrify/internal/assessment"
	"github.com/abhisek/nutrify/internal/router"
	"github.com/abhisek/nutrify/internal/screen"
	"github.com/abhisek/nutrify/internal/store"
	"github.com/abhisek/nutrify/internal/ui/layout"
	"github.com/abhisek/nutrify/internal/ui/theme"
)

// Limit is how many cached sessions are listed.
const Limit = 50

type historyLoadedMsg struct {
	Sessions []*assessment.Session
	Err      error
}

// OpenFunc builds the screen for a selected session.
type OpenFunc func(s *assessment.Session) screen.Screen

// HistoryScreen lists locally cached sessions, most recently updated first.
type HistoryScreen struct {
	repo     store.SessionRepo
	open     OpenFunc
	sessions []*assessment.Session
	selected int
	loaded   bool
	errMsg   string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)
var _ screen.Revealer = (*HistoryScreen)(nil)

func New(repo store.SessionRepo, open OpenFunc) *HistoryScreen {
	return &HistoryScreen{repo: repo, open: open}
}

func (s *HistoryScreen) Init() tea.Cmd {
	repo := s.repo
	return func() tea.Msg {
		sessions, err := repo.List(context.Background(), Limit)
		return historyLoadedMsg{Sessions: sessions, Err: err}
	}
}

func (s *HistoryScreen) Revealed() tea.Cmd {
	return s.Init()
}

func (s *HistoryScreen) Title() string {
	return "History"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Open"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.sessions = msg.Sessions
		}
		s.loaded = true
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
			return s, nil
		case "down", "j":
			if s.selected < len(s.sessions)-1 {
				s.selected++
			}
			return s, nil
		case "enter":
			if s.open == nil || s.selected >= len(s.sessions) {
				return s, nil
			}
			next := s.open(s.sessions[s.selected])
			return s, func() tea.Msg { return router.PushScreenMsg{Screen: next} }
		}
	}
	return s, nil
}

func (s *HistoryScreen) View(width, height int) string {
	if s.errMsg != "" {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.Error).
			Render(fmt.Sprintf("\n\nError: %s", s.errMsg))
	}
	if !s.loaded {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).
			Render("\n\n  Loading history...")
	}
	if len(s.sessions) == 0 {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("\n\n  No assessments yet. Start one from the home screen!")
	}

	var b strings.Builder
	b.WriteString("\n")

	for i, sess := range s.sessions {
		prefix := "  "
		if i == s.selected {
			prefix = "> "
		}
		line := prefix + Row(sess)

		style := lipgloss.NewStyle().Foreground(statusColor(sess.Status))
		if i == s.selected {
			style = style.Bold(true)
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(line)))
		b.WriteString("\n")
	}

	return b.String()
}

// Row formats one session as a single history line.
func Row(sess *assessment.Session) string {
	when := sess.UpdatedAt
	if when.IsZero() {
		when = sess.CreatedAt
	}
	date := "unknown date"
	if !when.IsZero() {
		date = when.Local().Format("Jan 02, 2006 15:04")
	}
	progress := fmt.Sprintf("phase %d", max(sess.CurrentPhase, 1))
	if sess.CurrentQuestion != "" {
		progress = "question " + sess.CurrentQuestion
	}
	if sess.IsCompleted() {
		progress = "done"
	}
	return fmt.Sprintf("%s  %-8s %-12s %-14s %2d answers  %s",
		date, sess.Type, statusLabel(sess.Status), progress, len(sess.Responses), sess.ID)
}

func statusLabel(st assessment.Status) string {
	switch st {
	case assessment.StatusInProgress:
		return "in progress"
	case "":
		return "unknown"
	}
	return string(st)
}

func statusColor(st assessment.Status) color.Color {
	switch st {
	case assessment.StatusCompleted:
		return theme.Success
	case assessment.StatusAbandoned:
		return theme.TextDim
	default:
		return theme.Text
	}
}
