package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lexiquest/lexiquest/internal/app"
	"github.com/lexiquest/lexiquest/internal/screen"
	"github.com/lexiquest/lexiquest/internal/screens/welcome"
)

// runApp opens the environment and launches the TUI. When initial is set,
// the screen it returns opens over the home menu.
func runApp(cmd *cobra.Command, initial func(*env) (screen.Screen, error)) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	resultsDir, _ := cmd.Flags().GetString("results-dir")
	opts := app.Options{
		Home:   e.homeDeps(resultsDir),
		Status: fmt.Sprintf("Player %d", e.cfg.UserID),
	}
	switch {
	case initial != nil:
		s, err := initial(e)
		if err != nil {
			return err
		}
		opts.Initial = s
	case firstRun(e):
		opts.Initial = welcome.New(e.client == nil)
	}
	return app.Run(opts)
}

// firstRun reports whether the journal has no sessions yet.
func firstRun(e *env) bool {
	n, err := e.profile.SessionsPlayed(context.Background())
	return err == nil && n == 0
}
