// Package prompt runs the assessment wizard as a line-oriented dialog on a
// plain reader and writer, for terminals where the TUI is not wanted.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/abhisek/nutrify/internal/api"
	"github.com/abhisek/nutrify/internal/assessment"
	"github.com/abhisek/nutrify/internal/validate"
	"github.com/abhisek/nutrify/internal/wizard"
)

// ErrInputClosed is returned when the input ends before the assessment does.
var ErrInputClosed = errors.New("input closed")

// Commands accepted in place of an answer.
const (
	cmdBack = ":back"
	cmdSave = ":save"
	cmdQuit = ":quit"
)

// Runner drives a controller from line input.
type Runner struct {
	ctrl *wizard.Controller
	in   *bufio.Scanner
	out  io.Writer
}

func New(ctrl *wizard.Controller, in io.Reader, out io.Writer) *Runner {
	return &Runner{ctrl: ctrl, in: bufio.NewScanner(in), out: out}
}

// Run continues sessionID when it is set, otherwise starts a new session
// of type t, and asks questions until the assessment completes or the user
// quits.
func (r *Runner) Run(ctx context.Context, t assessment.Type, sessionID string) error {
	var err error
	if sessionID != "" {
		err = r.ctrl.Init(ctx, sessionID)
	} else {
		err = r.ctrl.Start(ctx, t)
	}
	if _, ok := api.IsConflict(err); ok {
		quit, cerr := r.resolveConflict(ctx)
		if cerr != nil || quit {
			return cerr
		}
	} else if err != nil {
		return err
	}

	for {
		snap := r.ctrl.Snapshot()
		if snap.State == wizard.StateCompleted {
			return r.printResult(ctx, snap.Session)
		}
		if !snap.HasStep {
			r.printf("All questions answered. Submitting...\n")
			if err := r.ctrl.Next(ctx, nil); err != nil {
				return err
			}
			continue
		}

		values, command, err := r.ask(snap)
		if err != nil {
			return err
		}

		switch command {
		case cmdQuit:
			r.printf("Stopped. Unsaved answers on this step are discarded.\n")
			r.resumeHint(snap.Session)
			return nil
		case cmdBack:
			if err := r.ctrl.Previous(values); err != nil {
				r.printf("%s\n\n", describe(err))
			}
			continue
		case cmdSave:
			if err := r.ctrl.Save(ctx, values); err != nil {
				r.printf("Save failed: %s\n\n", describe(err))
				continue
			}
			r.printf("Saved.\n")
			r.resumeHint(snap.Session)
			r.printf("\n")
			continue
		}

		err = r.ctrl.Next(ctx, values)
		var verr *validate.Error
		switch {
		case errors.As(err, &verr):
			for _, id := range verr.Keys() {
				r.printf("  ✗ %s: %s\n", label(snap.Step.Phase, id), verr.Field(id))
			}
			r.printf("\n")
		case err != nil:
			r.printf("✗ %s\n\n", describe(err))
		}
	}
}

// ask prompts for every question of the step. An empty line keeps the
// current value.
func (r *Runner) ask(snap wizard.Snapshot) (map[string]any, string, error) {
	step := snap.Step
	unit := "Phase"
	if step.QuestionID != "" {
		unit = "Question"
	}
	heading := fmt.Sprintf("%s %d", unit, step.Number)
	if step.Total > 0 {
		heading += fmt.Sprintf("/%d", step.Total)
	}
	r.printf("── %s: %s ──\n", heading, step.Phase.Title)
	if step.Phase.Description != "" && step.QuestionID == "" {
		r.printf("%s\n", step.Phase.Description)
	}

	values := make(map[string]any, len(step.Phase.Questions))
	for id, v := range snap.Values {
		values[id] = v
	}

	for _, q := range step.Phase.Questions {
		r.printQuestion(q, snap.Values[q.ID])
		line, err := r.readLine()
		if err != nil {
			return nil, "", err
		}
		switch line {
		case cmdBack, cmdSave, cmdQuit:
			return values, line, nil
		case "":
			continue
		}
		values[q.ID] = parseAnswer(q, line)
	}
	r.printf("\n")
	return values, "", nil
}

func (r *Runner) printQuestion(q assessment.Question, current any) {
	text := q.Label
	if q.Required {
		text += " *"
	}
	r.printf("\n%s\n", text)
	if q.HelpText != "" {
		r.printf("  %s\n", q.HelpText)
	}
	for i, o := range q.Options {
		r.printf("  %d) %s\n", i+1, o.Label)
	}
	if q.Type == assessment.TypeMultiSelect {
		r.printf("  (comma separated)\n")
	}
	if cur := assessment.FormatValue(current); cur != "" {
		r.printf("[%s] ", cur)
	}
	r.printf("> ")
}

// parseAnswer maps option numbers to option values. Anything else is passed
// through for the validator to judge.
func parseAnswer(q assessment.Question, line string) any {
	if !q.Type.IsSelect() {
		return line
	}
	if q.Type == assessment.TypeSingleSelect {
		return optionValue(q, line)
	}
	var out []string
	for _, part := range strings.Split(line, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, optionValue(q, part))
		}
	}
	return out
}

func optionValue(q assessment.Question, s string) string {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil && n >= 1 && n <= len(q.Options) {
		return q.Options[n-1].Value
	}
	return s
}

func (r *Runner) resolveConflict(ctx context.Context) (quit bool, err error) {
	snap := r.ctrl.Snapshot()
	r.printf("You already have an assessment in progress (session %s).\n", snap.Conflict)
	for {
		r.printf("[r]esume it, [d]iscard it and start over, or [q]uit: ")
		line, err := r.readLine()
		if err != nil {
			return false, err
		}
		switch strings.ToLower(line) {
		case "r", "resume":
			return false, r.ctrl.ResumeConflict(ctx)
		case "d", "discard":
			return false, r.ctrl.DiscardAndStart(ctx)
		case "q", "quit":
			r.ctrl.CancelConflict()
			return true, nil
		}
	}
}

func (r *Runner) printResult(ctx context.Context, sess *assessment.Session) error {
	r.printf("Assessment complete.\n\n")
	res, err := r.ctrl.Result(ctx)
	if errors.Is(err, api.ErrNotFound) {
		r.printf("Your results are still being prepared.\n")
		if sess != nil {
			r.printf("Check again with: nutrify result %s\n", sess.ID)
		}
		return nil
	}
	if err != nil {
		return err
	}
	PrintResult(r.out, res)
	return nil
}

// PrintResult writes a result as plain text.
func PrintResult(w io.Writer, res *assessment.Result) {
	fmt.Fprintf(w, "Summary\n%s\n", res.Summary)
	if len(res.Recommendations) > 0 {
		fmt.Fprintf(w, "\nRecommendations\n")
		for i, rec := range res.Recommendations {
			fmt.Fprintf(w, "  %d. %s\n", i+1, rec)
		}
	}
	if res.DietPlanID != "" {
		fmt.Fprintf(w, "\nDiet plan: %s\n", res.DietPlanID)
	}
}

func (r *Runner) resumeHint(sess *assessment.Session) {
	if sess != nil && sess.ID != "" {
		r.printf("Resume later with: nutrify assess --session %s\n", sess.ID)
	}
}

func (r *Runner) readLine() (string, error) {
	if !r.in.Scan() {
		if err := r.in.Err(); err != nil {
			return "", err
		}
		return "", ErrInputClosed
	}
	return strings.TrimSpace(r.in.Text()), nil
}

func (r *Runner) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

func label(p assessment.Phase, id string) string {
	for _, q := range p.Questions {
		if q.ID == id {
			return q.Label
		}
	}
	return id
}

func describe(err error) string {
	switch {
	case errors.Is(err, wizard.ErrPreviousUnavailable):
		return "There is no earlier step."
	case errors.Is(err, api.ErrUnauthorized):
		return "Your session has expired. Run `nutrify login` and try again."
	}
	return err.Error()
}
