package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lexiquest/lexiquest/internal/activity"
	"github.com/lexiquest/lexiquest/internal/screen"
	"github.com/lexiquest/lexiquest/internal/screens/play"
)

var playCmd = &cobra.Command{
	Use:       "play <jumble|memory|spelling>",
	Short:     "Start a game",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"jumble", "memory", "spelling"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return startActivity(cmd, args[0], activity.KindGame)
	},
}

var testCmd = &cobra.Command{
	Use:       "test <speech|listening>",
	Short:     "Start an adaptive reading test",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"speech", "listening"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return startActivity(cmd, args[0], activity.KindTest)
	},
}

func startActivity(cmd *cobra.Command, name string, kind activity.Kind) error {
	sub, err := activity.ParseSubKind(name)
	if err != nil {
		return err
	}
	if sub.Kind() != kind {
		return fmt.Errorf("%s is a %s, not a %s", sub.DisplayName(), sub.Kind(), kind)
	}
	resultsDir, _ := cmd.Flags().GetString("results-dir")
	return runApp(cmd, func(e *env) (screen.Screen, error) {
		ctrl, err := e.newController(sub)
		if err != nil {
			return nil, fmt.Errorf("start %s: %w", sub.DisplayName(), err)
		}
		return play.New(ctrl, play.Options{ResultsDir: resultsDir, Logger: e.logger}), nil
	})
}
