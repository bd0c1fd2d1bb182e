package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/nutrify/internal/screens/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List locally cached sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		sessions, err := e.store.SessionRepo().List(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No sessions cached yet.")
			return nil
		}
		for _, s := range sessions {
			fmt.Fprintln(out, history.Row(s))
		}
		fmt.Fprintf(out, "\n%d sessions\n", len(sessions))
		return nil
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", history.Limit, "Number of sessions to show")
}
