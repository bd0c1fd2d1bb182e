package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/nutrify/internal/app"
	wizscreen "github.com/abhisek/nutrify/internal/screens/wizard"
)

// runApp opens the environment and launches the TUI. A non-nil start opens
// the wizard directly.
func runApp(cmd *cobra.Command, start *wizscreen.Start) error {
	e, err := openEnv(cmd, true)
	if err != nil {
		return err
	}
	defer e.Close()

	err = app.Run(app.Options{
		NewController: e.newController,
		Sessions:      e.store.SessionRepo(),
		Toasts:        e.toasts,
		Status:        e.status(cmd.Context()),
		Start:         start,
	})
	if err != nil {
		return fmt.Errorf("run TUI: %w", err)
	}
	return nil
}
