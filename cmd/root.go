package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "nutrify",
	Short: "Client assessments for the Nutrify diet-planning platform",
	Long: `Nutrify walks clients through multi-phase assessments (basic, diet, fitness,
health) against the Nutrify API and shows the plan summary once the platform has
prepared it.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd, nil)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Path to a config file (default $XDG_CONFIG_HOME/nutrify/config.yaml)")
	flags.String("db", "", "Path to the SQLite cache (overrides NUTRIFY_DB)")
	flags.String("api-url", "", "Nutrify API base URL")
	flags.String("log-level", "", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(assessCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(resultCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(aiProviderCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(versionCmd)
}
