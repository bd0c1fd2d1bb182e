package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/nutrify/internal/selfupdate"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update nutrify to the latest version",
	RunE: func(cmd *cobra.Command, args []string) error {
		checkOnly, _ := cmd.Flags().GetBool("check")
		rollback, _ := cmd.Flags().GetBool("rollback")
		target, _ := cmd.Flags().GetString("to")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		checker := selfupdate.NewChecker(
			selfupdate.WithTimeout(2*time.Minute),
			selfupdate.WithRepo(cfg.Update.Owner, cfg.Update.Repo),
		)

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()

		if rollback {
			if err := checker.Rollback(); err != nil {
				return err
			}
			fmt.Println("Restored the previous nutrify binary.")
			return nil
		}

		if checkOnly {
			res, err := checker.Check(ctx, &selfupdate.CheckInput{Version: version})
			if err != nil {
				return err
			}
			if res.UpdateAvailable {
				fmt.Printf("nutrify %s is available (running %s): %s\n", res.LatestVersion, res.CurrentVersion, res.ReleaseURL)
			} else {
				fmt.Println("Already running the latest version.")
			}
			return nil
		}

		err = checker.Update(ctx, &selfupdate.UpdateInput{
			CurrentVersion: version,
			TargetVersion:  target,
		}, func(p selfupdate.UpdateProgress) {
			fmt.Println(p.Message)
		})

		if err == nil {
			return nil
		}

		if errors.Is(err, selfupdate.ErrDevBuild) {
			fmt.Println("Cannot update a development build. Install a release build first.")
			return nil
		}
		if errors.Is(err, selfupdate.ErrAlreadyLatest) {
			if target != "" {
				fmt.Printf("Already running %s.\n", target)
			} else {
				fmt.Println("Already running the latest version.")
			}
			return nil
		}
		if os.IsPermission(err) {
			return fmt.Errorf("%w\n\nTry running: sudo nutrify update", err)
		}

		return err
	},
}

func init() {
	updateCmd.Flags().Bool("check", false, "Only report whether a newer release exists")
	updateCmd.Flags().String("to", "", "Install this release instead of the latest (e.g. v1.4.0)")
	updateCmd.Flags().Bool("rollback", false, "Restore the binary replaced by the last update")
	updateCmd.MarkFlagsMutuallyExclusive("check", "rollback", "to")
}
