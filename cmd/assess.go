package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/nutrify/internal/prompt"
	wizscreen "github.com/abhisek/nutrify/internal/screens/wizard"
)

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Take an assessment",
	Long: `Start a new assessment or continue an existing one.

Without --session a new session of --type is started. If one is already in
progress you can resume it or discard it and start over. --plain asks the
questions line by line instead of opening the TUI.`,
	RunE: runAssess,
}

func init() {
	assessCmd.Flags().StringP("type", "t", "", "Assessment type: basic, diet, fitness or health")
	assessCmd.Flags().StringP("session", "s", "", "Continue this session id")
	assessCmd.Flags().String("mode", "", "Wizard mode: static or server")
	assessCmd.Flags().Bool("plain", false, "Use a line-oriented prompt instead of the TUI")
}

func runAssess(cmd *cobra.Command, args []string) error {
	sessionID, _ := cmd.Flags().GetString("session")
	plain, _ := cmd.Flags().GetBool("plain")

	if !plain {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return runApp(cmd, &wizscreen.Start{Type: cfg.AssessmentType(), SessionID: sessionID})
	}

	e, err := openEnv(cmd, false)
	if err != nil {
		return err
	}
	defer e.Close()

	r := prompt.New(e.newController(), os.Stdin, cmd.OutOrStdout())
	return r.Run(cmd.Context(), e.cfg.AssessmentType(), sessionID)
}
