package home

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/nutrify/internal/assessment"
	"github.com/abhisek/nutrify/internal/router"
	"github.com/abhisek/nutrify/internal/screen"
	"github.com/abhisek/nutrify/internal/store"
	"github.com/abhisek/nutrify/internal/ui/components"
	"github.com/abhisek/nutrify/internal/ui/theme"
)

// Opener builds the screens the home menu navigates to.
type Opener interface {
	// Wizard starts a new assessment of type t, or continues sessionID when
	// it is non-empty.
	Wizard(t assessment.Type, sessionID string) screen.Screen
	History() screen.Screen
}

type lastSessionMsg struct {
	Session *assessment.Session
}

// HomeScreen lists the assessment types and offers to continue the most
// recent unfinished session.
type HomeScreen struct {
	open     Opener
	sessions store.SessionRepo
	types    []assessment.Type
	last     *assessment.Session
	menu     components.Menu
}

var _ screen.Screen = (*HomeScreen)(nil)
var _ screen.Revealer = (*HomeScreen)(nil)

// New creates the home screen. sessions may be nil when no cache is open.
func New(open Opener, sessions store.SessionRepo, types []assessment.Type) *HomeScreen {
	if len(types) == 0 {
		types = assessment.AllTypes()
	}
	h := &HomeScreen{open: open, sessions: sessions, types: types}
	h.menu = components.NewMenu(h.items())
	return h
}

func (h *HomeScreen) Init() tea.Cmd {
	if h.sessions == nil {
		return nil
	}
	repo := h.sessions
	return func() tea.Msg {
		list, err := repo.List(context.Background(), 20)
		if err != nil {
			return lastSessionMsg{}
		}
		for _, s := range list {
			if s.Status == assessment.StatusInProgress {
				return lastSessionMsg{Session: s}
			}
		}
		return lastSessionMsg{}
	}
}

// Revealed re-checks for an unfinished session after a wizard closes.
func (h *HomeScreen) Revealed() tea.Cmd {
	return h.Init()
}

func (h *HomeScreen) items() []components.MenuItem {
	push := func(s func() screen.Screen) func() tea.Cmd {
		return func() tea.Cmd {
			return func() tea.Msg { return router.PushScreenMsg{Screen: s()} }
		}
	}

	var items []components.MenuItem
	if h.last != nil {
		last := h.last
		items = append(items, components.MenuItem{
			Label:  "Continue " + typeLabel(last.Type) + " assessment",
			Detail: fmt.Sprintf("phase %d, %d answers", max(last.CurrentPhase, 1), len(last.Responses)),
			Action: push(func() screen.Screen { return h.open.Wizard(last.Type, last.ID) }),
		})
	}
	for _, t := range h.types {
		items = append(items, components.MenuItem{
			Label:  "Start " + typeLabel(t) + " assessment",
			Action: push(func() screen.Screen { return h.open.Wizard(t, "") }),
		})
	}
	items = append(items,
		components.MenuItem{Label: "History", Action: push(h.open.History)},
		components.MenuItem{Label: "Quit", Action: func() tea.Cmd { return tea.Quit }},
	)
	return items
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if m, ok := msg.(lastSessionMsg); ok {
		h.last = m.Session
		h.menu = components.NewMenu(h.items())
		return h, nil
	}
	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	cw := min(width-4, 64)

	var sections []string
	if height >= 20 {
		sections = append(sections, renderBanner(cw))
	}
	sections = append(sections,
		theme.Subtitle.Width(cw).Render("Client assessments for your nutrition plan"),
		theme.Card.Width(cw).Render(strings.TrimRight(h.menu.View(), "\n")),
	)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		strings.Join(sections, "\n\n"))
}

func (h *HomeScreen) Title() string {
	return "Home"
}

func typeLabel(t assessment.Type) string {
	s := string(t)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
