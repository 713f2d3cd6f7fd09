package cmd

import (
	"github.com/spf13/cobra"

	"github.com/lexiquest/lexiquest/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "lexiquest",
	Short: "Reading games and screening tests for dyslexic learners",
	Long: `LexiQuest is a terminal app with short reading games (word jumble, memory
match, spelling bee) and adaptive speech and listening tests.

Results are scored by the service at api_base_url. Run "lexiquest devserver"
for a local stand-in, or set offline = true to save results without sending.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd, nil)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides LEXIQUEST_DB env var)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default $XDG_CONFIG_HOME/lexiquest/config.toml)")
	rootCmd.PersistentFlags().String("results-dir", "", "Directory for saved results files (default current directory)")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(riskCmd)
	rootCmd.AddCommand(contentCmd)
	rootCmd.AddCommand(devserverCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then LEXIQUEST_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}
