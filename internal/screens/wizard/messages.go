package wizard

// action names the controller call a command ran.
type action int

const (
	actStart action = iota
	actLoad
	actNext
	actSave
	actDelete
	actResume
	actDiscard
	actReload
)

// actionDoneMsg carries the outcome of a controller call. owner lets a
// screen ignore results meant for a screen that has since been left.
type actionDoneMsg struct {
	owner  *WizardScreen
	action action
	err    error
}
