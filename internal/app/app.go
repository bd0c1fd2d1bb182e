// Package app is the root Bubble Tea model of the nutrify TUI.
package app

import (
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/nutrify/internal/assessment"
	"github.com/abhisek/nutrify/internal/notify"
	"github.com/abhisek/nutrify/internal/router"
	"github.com/abhisek/nutrify/internal/screen"
	"github.com/abhisek/nutrify/internal/screens/history"
	"github.com/abhisek/nutrify/internal/screens/home"
	wizscreen "github.com/abhisek/nutrify/internal/screens/wizard"
	"github.com/abhisek/nutrify/internal/store"
	"github.com/abhisek/nutrify/internal/ui/layout"
	"github.com/abhisek/nutrify/internal/wizard"
)

// Options wires the TUI to the platform.
type Options struct {
	// NewController builds a fresh controller for every wizard screen.
	NewController func() *wizard.Controller

	// Sessions backs the home and history screens.
	Sessions store.SessionRepo

	// Toasts receives API failures; screens drain it after each action.
	Toasts *notify.Queue

	// Types limits the assessment types offered on the home screen.
	Types []assessment.Type

	// Status is shown on the right of the header.
	Status string

	// Start opens a wizard straight away instead of the home menu.
	Start *wizscreen.Start
}

// opener builds screens for the home and history menus.
type opener struct {
	opts Options
}

func (o opener) Wizard(t assessment.Type, sessionID string) screen.Screen {
	return wizscreen.New(o.opts.NewController(), o.opts.Toasts, wizscreen.Start{Type: t, SessionID: sessionID})
}

func (o opener) History() screen.Screen {
	return history.New(o.opts.Sessions, func(s *assessment.Session) screen.Screen {
		return o.Wizard(s.Type, s.ID)
	})
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *router.Router
	status string
	width  int
	height int
}

func newAppModel(opts Options) AppModel {
	open := opener{opts: opts}
	r := router.New(home.New(open, opts.Sessions, opts.Types))
	if opts.Start != nil {
		r = router.New(open.Wizard(opts.Start.Type, opts.Start.SessionID))
	}
	return AppModel{router: r, status: opts.Status}
}

func (m AppModel) Init() tea.Cmd {
	return m.router.Active().Init()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if c, ok := m.router.Active().(screen.Capturer); ok && c.CapturesEsc() {
				break
			}
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	header := layout.RenderHeader(title, m.status, m.width)
	footer := layout.RenderFooter(m.hints(), m.width)

	contentHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	content := m.router.View(m.width, contentHeight)

	v.SetContent(layout.RenderFrame(header, content, footer, m.width, m.height))
	return v
}

func (m AppModel) hints() []layout.KeyHint {
	if p, ok := m.router.Active().(screen.KeyHintProvider); ok {
		return append(p.KeyHints(), layout.KeyHint{Key: "Ctrl+C", Description: "Quit"})
	}
	if m.router.Depth() > 1 {
		return []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(opts Options) error {
	_, err := tea.NewProgram(newAppModel(opts)).Run()
	return err
}
