package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lexiquest/lexiquest/internal/activity"
	"github.com/lexiquest/lexiquest/internal/pool"
)

var contentCmd = &cobra.Command{
	Use:   "content",
	Short: "Inspect practice and test content",
}

var contentPreviewCmd = &cobra.Command{
	Use:   "preview <activity>",
	Short: "Print the prompts an activity would draw",
	Long: `Draw prompts the way a session would, without starting one.

Games draw from the local lists. Tests ask the scoring service for adaptive
content first, then the LLM generator if one is configured, then the
built-in lists. No session is recorded.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sub, err := activity.ParseSubKind(args[0])
		if err != nil {
			return err
		}
		count, _ := cmd.Flags().GetInt("count")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if p, _ := cmd.Flags().GetString("pack"); p != "" {
			cfg.ContentPack = p
		}
		if cmd.Flags().Changed("difficulty") {
			cfg.Difficulty, _ = cmd.Flags().GetFloat64("difficulty")
		}
		d := activity.Difficulty(cfg.Difficulty).Clamp()

		e, err := newEnv(cmd, cfg)
		if err != nil {
			return err
		}
		defer e.Close()

		fmt.Printf("%s at %.1f (%s)\n", sub.DisplayName(), float64(d), d.Label())
		fmt.Println(strings.Repeat("─", 48))

		switch {
		case sub == activity.MemoryMatch:
			for _, p := range e.pool.Pairs() {
				fmt.Printf("%-10s %s\n", p.Key, p.Emoji)
			}
		case pool.ModeFor(sub) == pool.FixedSet:
			set, err := e.pool.Draw(context.Background(), sub, cfg.UserID, d)
			if err != nil {
				return fmt.Errorf("draw %s: %w", sub.DisplayName(), err)
			}
			for i, p := range set.Prompts {
				fmt.Printf("%2d. %s\n", i+1, p.Text)
			}
			fmt.Printf("\nSource: %s\n", set.Source)
			if set.Degraded {
				fmt.Printf("Adaptive content unavailable: %v\n", set.Err)
			}
		default:
			for i := range count {
				p, err := e.pool.Next(sub, d)
				if err != nil {
					return fmt.Errorf("draw %s: %w", sub.DisplayName(), err)
				}
				fmt.Printf("%2d. %s\n", i+1, p.Text)
			}
		}
		return nil
	},
}

var contentCheckCmd = &cobra.Command{
	Use:   "check <pack.yaml>",
	Short: "Validate a content pack",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := pool.LoadPack(args[0], pool.Builtin())
		if err != nil {
			return err
		}
		fmt.Printf("OK: %d jumble, %d spelling, %d pairs, %d speech, %d listening\n",
			len(c.Jumble), len(c.Spelling), len(c.Pairs), len(c.Speech), len(c.Listening))
		return nil
	},
}

func init() {
	contentPreviewCmd.Flags().IntP("count", "n", 5, "Number of game prompts to draw")
	contentPreviewCmd.Flags().String("pack", "", "Content pack to use instead of the configured one")
	contentPreviewCmd.Flags().Float64("difficulty", float64(activity.DefaultDifficulty), "Difficulty to draw at")

	contentCmd.AddCommand(contentPreviewCmd)
	contentCmd.AddCommand(contentCheckCmd)
}
