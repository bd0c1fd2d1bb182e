package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/nutrify/internal/ui/layout"
)

// Screen is one page of the TUI. The router owns the stack of screens and
// forwards messages to the one on top.
type Screen interface {
	Init() tea.Cmd

	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the content area; header and footer are drawn by the app.
	View(width, height int) string

	// Title is shown in the header.
	Title() string
}

// KeyHintProvider lets a screen replace the default footer hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// Capturer is implemented by screens that consume esc themselves, for
// example to close a confirmation, instead of letting the app pop them.
type Capturer interface {
	CapturesEsc() bool
}

// Revealer is implemented by screens that reload when the screen above
// them is popped.
type Revealer interface {
	Revealed() tea.Cmd
}
