// Package wizard is the TUI front end of the assessment controller.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/nutrify/internal/api"
	"github.com/abhisek/nutrify/internal/assessment"
	"github.com/abhisek/nutrify/internal/notify"
	"github.com/abhisek/nutrify/internal/router"
	"github.com/abhisek/nutrify/internal/screen"
	"github.com/abhisek/nutrify/internal/screens/result"
	"github.com/abhisek/nutrify/internal/ui/layout"
	"github.com/abhisek/nutrify/internal/validate"
	engine "github.com/abhisek/nutrify/internal/wizard"
)

// maxToasts is how many notifications stay on screen.
const maxToasts = 3

// Start selects what the screen does first: continue SessionID when set,
// otherwise start a new session of Type.
type Start struct {
	Type      assessment.Type
	SessionID string
}

// WizardScreen renders one step at a time and runs controller actions as
// commands. While one is in flight every form key is ignored.
type WizardScreen struct {
	ctrl   *engine.Controller
	toasts *notify.Queue
	start  Start

	snap    engine.Snapshot
	form    form
	stepKey string
	busy    bool
	confirm bool // delete confirmation showing
	status  string
	notes   []notify.Notification
}

var _ screen.Screen = (*WizardScreen)(nil)
var _ screen.KeyHintProvider = (*WizardScreen)(nil)
var _ screen.Capturer = (*WizardScreen)(nil)

// New creates a wizard screen. toasts may be nil.
func New(ctrl *engine.Controller, toasts *notify.Queue, start Start) *WizardScreen {
	return &WizardScreen{ctrl: ctrl, toasts: toasts, start: start, snap: ctrl.Snapshot()}
}

func (s *WizardScreen) Init() tea.Cmd {
	return s.begin()
}

// begin loads or starts the session the screen was opened for.
func (s *WizardScreen) begin() tea.Cmd {
	if id := s.start.SessionID; id != "" {
		return s.run(actLoad, func(ctx context.Context) error { return s.ctrl.Init(ctx, id) })
	}
	t := s.start.Type
	return s.run(actStart, func(ctx context.Context) error { return s.ctrl.Start(ctx, t) })
}

func (s *WizardScreen) Title() string {
	t := s.start.Type
	if s.snap.Session != nil && s.snap.Session.Type != "" {
		t = s.snap.Session.Type
	}
	if t == "" {
		return "Assessment"
	}
	return fmt.Sprintf("%s assessment", typeTitle(t))
}

func (s *WizardScreen) CapturesEsc() bool {
	return s.confirm
}

func (s *WizardScreen) KeyHints() []layout.KeyHint {
	switch {
	case s.busy:
		return []layout.KeyHint{{Key: "Esc", Description: "Leave"}}
	case s.confirm:
		return []layout.KeyHint{
			{Key: "Y", Description: "Abandon"},
			{Key: "N", Description: "Keep going"},
		}
	case s.snap.State == engine.StateActiveConflict:
		return []layout.KeyHint{
			{Key: "R", Description: "Resume"},
			{Key: "D", Description: "Discard & start new"},
			{Key: "Esc", Description: "Cancel"},
		}
	case s.snap.State == engine.StateError || s.snap.Session == nil:
		return []layout.KeyHint{
			{Key: "R", Description: "Retry"},
			{Key: "Esc", Description: "Back"},
		}
	case !s.snap.HasStep:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Finish"},
			{Key: "Esc", Description: "Back"},
		}
	}
	hints := []layout.KeyHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Enter", Description: "Continue"},
	}
	if s.snap.Step.Number > 1 {
		hints = append(hints, layout.KeyHint{Key: "Ctrl+B", Description: "Previous"})
	}
	return append(hints,
		layout.KeyHint{Key: "Ctrl+S", Description: "Save"},
		layout.KeyHint{Key: "Ctrl+D", Description: "Abandon"},
		layout.KeyHint{Key: "Esc", Description: "Leave"},
	)
}

func (s *WizardScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case actionDoneMsg:
		return s.handleDone(msg)
	case tea.KeyPressMsg:
		return s.handleKey(msg)
	}
	if s.ready() {
		return s, s.form.update(msg)
	}
	return s, nil
}

// run executes f off the UI loop and reports back with actionDoneMsg.
func (s *WizardScreen) run(a action, f func(ctx context.Context) error) tea.Cmd {
	s.busy = true
	s.status = ""
	return func() tea.Msg {
		return actionDoneMsg{owner: s, action: a, err: f(context.Background())}
	}
}

func (s *WizardScreen) ready() bool {
	return !s.busy && !s.confirm && s.snap.State == engine.StateAwaitingInput && s.snap.HasStep
}

func (s *WizardScreen) handleDone(msg actionDoneMsg) (screen.Screen, tea.Cmd) {
	if msg.owner != s {
		return s, nil
	}
	s.busy = false
	s.drainToasts()
	s.snap = s.ctrl.Snapshot()

	if s.snap.State == engine.StateCompleted {
		return s, func() tea.Msg {
			return router.ReplaceScreenMsg{Screen: result.New(s.Title(), s.ctrl.Result)}
		}
	}
	if msg.action == actDelete && msg.err == nil {
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	}

	var verr *validate.Error
	switch {
	case errors.As(msg.err, &verr):
		return s, s.form.setErrors(verr)
	case msg.err != nil:
		if _, conflict := api.IsConflict(msg.err); !conflict {
			s.status = describe(msg.err)
		}
		// Keep what the user typed; only a changed step rebuilds the form.
		if s.snap.HasStep && s.snap.Step.Key() != s.stepKey {
			return s, s.rebuild()
		}
		return s, nil
	}
	return s, s.rebuild()
}

// rebuild recreates the form for the controller's current step.
func (s *WizardScreen) rebuild() tea.Cmd {
	if !s.snap.HasStep {
		s.form = form{}
		s.stepKey = ""
		return nil
	}
	s.form = newForm(s.snap.Step.Phase, s.snap.Values)
	s.stepKey = s.snap.Step.Key()
	return s.form.focusCmd()
}

func (s *WizardScreen) handleKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	if s.busy {
		return s, nil
	}
	key := msg.String()

	if s.confirm {
		switch key {
		case "y", "Y":
			s.confirm = false
			return s, s.run(actDelete, s.ctrl.Delete)
		case "n", "N", "esc":
			s.confirm = false
		}
		return s, nil
	}

	switch s.snap.State {
	case engine.StateActiveConflict:
		switch key {
		case "r", "R":
			return s, s.run(actResume, s.ctrl.ResumeConflict)
		case "d", "D":
			return s, s.run(actDiscard, s.ctrl.DiscardAndStart)
		}
		return s, nil
	case engine.StateError:
		if key == "r" || key == "R" {
			if s.snap.Session == nil {
				return s, s.begin()
			}
			return s, s.run(actReload, s.ctrl.Reload)
		}
		return s, nil
	}

	if s.snap.Session == nil {
		if key == "r" || key == "R" {
			return s, s.begin()
		}
		return s, nil
	}

	if !s.snap.HasStep {
		// Every answer is in; only completion is left.
		if key == "enter" {
			return s, s.run(actNext, func(ctx context.Context) error { return s.ctrl.Next(ctx, nil) })
		}
		return s, nil
	}

	switch key {
	case "tab":
		return s, s.form.move(1)
	case "shift+tab":
		return s, s.form.move(-1)
	case "enter":
		values := s.form.values()
		s.form.clearErrors()
		return s, s.run(actNext, func(ctx context.Context) error { return s.ctrl.Next(ctx, values) })
	case "ctrl+s":
		values := s.form.values()
		return s, s.run(actSave, func(ctx context.Context) error { return s.ctrl.Save(ctx, values) })
	case "ctrl+b", "pgup":
		return s, s.previous()
	case "ctrl+d":
		s.confirm = true
		return s, nil
	}
	return s, s.form.update(msg)
}

// previous never touches the server, so it runs inline.
func (s *WizardScreen) previous() tea.Cmd {
	s.status = ""
	if err := s.ctrl.Previous(s.form.values()); err != nil {
		s.status = describe(err)
		return nil
	}
	s.snap = s.ctrl.Snapshot()
	return s.rebuild()
}

func (s *WizardScreen) drainToasts() {
	if s.toasts == nil {
		return
	}
	s.notes = append(s.notes, s.toasts.Drain()...)
	if len(s.notes) > maxToasts {
		s.notes = s.notes[len(s.notes)-maxToasts:]
	}
}

// describe turns controller and API errors into a status line.
func describe(err error) string {
	switch {
	case errors.Is(err, engine.ErrBusy):
		return "Still working on the previous request."
	case errors.Is(err, engine.ErrPreviousUnavailable):
		return "There is no earlier step to go back to."
	case errors.Is(err, engine.ErrAlreadyCompleted):
		return "This assessment is already complete."
	case errors.Is(err, api.ErrNotFound):
		return "That assessment no longer exists."
	case errors.Is(err, api.ErrUnauthorized):
		return "Your session has expired. Run `nutrify login` and try again."
	}
	return err.Error()
}

func typeTitle(t assessment.Type) string {
	s := string(t)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
