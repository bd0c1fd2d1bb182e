package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/nutrify/internal/api"
	"github.com/abhisek/nutrify/internal/assessment"
	"github.com/abhisek/nutrify/internal/catalog"
	"github.com/abhisek/nutrify/internal/prompt"
	"github.com/abhisek/nutrify/internal/wizard"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show your active server-driven assessment",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		st, err := e.client.AssessmentStatus(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if !st.Active || st.Session == nil {
			fmt.Fprintln(out, "No assessment in progress.")
			return nil
		}
		printSession(out, st.Session)
		fmt.Fprintf(out, "\nContinue with: nutrify assess --mode server --session %s\n", st.Session.ID)
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a session and its answers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		sess, err := e.client.GetAssessment(ctx, args[0])
		if errors.Is(err, api.ErrNotFound) {
			return fmt.Errorf("session %s not found", args[0])
		}
		if err != nil {
			return err
		}
		if err := e.store.SessionRepo().Put(ctx, sess); err != nil {
			e.logger.Warn("cache session", zap.String("session_id", sess.ID), zap.Error(err))
		}
		printSession(cmd.OutOrStdout(), sess)
		return nil
	},
}

var resultCmd = &cobra.Command{
	Use:   "result <id>",
	Short: "Print the result of a completed assessment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		res, err := e.client.GetResult(ctx, args[0])
		if errors.Is(err, api.ErrNotFound) {
			cached, cerr := e.store.ResultRepo().Get(ctx, args[0])
			if cerr != nil || cached == nil {
				fmt.Fprintln(out, "No result yet. The platform may still be preparing it.")
				return nil
			}
			res = cached
		} else if err != nil {
			return err
		} else if err := e.store.ResultRepo().Put(ctx, args[0], res); err != nil {
			e.logger.Warn("cache result", zap.String("session_id", args[0]), zap.Error(err))
		}
		prompt.PrintResult(out, res)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Abandon a session and discard its answers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes && !confirm(os.Stdin, cmd.OutOrStdout(), fmt.Sprintf("Abandon session %s? All answers are discarded.", id)) {
			fmt.Fprintln(cmd.OutOrStdout(), "Kept.")
			return nil
		}

		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		if e.cfg.Mode() == wizard.ModeServer {
			err = e.client.AbandonAssessment(ctx, id)
		} else {
			err = e.client.DeleteAssessment(ctx, id)
		}
		if err != nil {
			return err
		}
		if err := e.store.SessionRepo().Delete(ctx, id); err != nil {
			e.logger.Warn("forget session", zap.String("session_id", id), zap.Error(err))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Session %s abandoned.\n", id)
		return nil
	},
}

func init() {
	deleteCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	deleteCmd.Flags().String("mode", "", "Wizard mode the session was started in: static or server")
}

func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N] ", question)
	sc := bufio.NewScanner(in)
	if !sc.Scan() {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(sc.Text())) {
	case "y", "yes":
		return true
	}
	return false
}

func printSession(w io.Writer, s *assessment.Session) {
	fmt.Fprintf(w, "Session:  %s\n", s.ID)
	fmt.Fprintf(w, "Type:     %s\n", s.Type)
	fmt.Fprintf(w, "Status:   %s\n", s.Status)
	if s.CurrentQuestion != "" {
		fmt.Fprintf(w, "Question: %s\n", s.CurrentQuestion)
	} else if s.CurrentPhase > 0 {
		fmt.Fprintf(w, "Phase:    %d\n", s.CurrentPhase)
	}
	if !s.CreatedAt.IsZero() {
		fmt.Fprintf(w, "Started:  %s\n", s.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	if s.CompletedAt != nil {
		fmt.Fprintf(w, "Finished: %s\n", s.CompletedAt.Local().Format("2006-01-02 15:04"))
	}
	if s.ResultID != "" {
		fmt.Fprintf(w, "Result:   %s\n", s.ResultID)
	}

	if len(s.Responses) == 0 {
		return
	}
	labels := questionLabels(s.Type)
	ids := make([]string, 0, len(s.Responses))
	for id := range s.Responses {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fmt.Fprintf(w, "\nAnswers\n%s\n", strings.Repeat("─", 48))
	for _, id := range ids {
		name := id
		if l, ok := labels[id]; ok {
			name = l
		}
		fmt.Fprintf(w, "  %-32s  %s\n", truncate(name, 32), assessment.FormatValue(s.Responses[id]))
	}
}

// questionLabels maps question ids to labels from the built-in catalog.
// Server-driven sessions may use ids it does not know.
func questionLabels(t assessment.Type) map[string]string {
	out := make(map[string]string)
	cat, err := catalog.Get(t)
	if err != nil {
		return out
	}
	for _, p := range cat.Phases {
		for _, q := range p.Questions {
			out[q.ID] = q.Label
		}
	}
	return out
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
