package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lexiquest/lexiquest/internal/scoring"
)

var riskCmd = &cobra.Command{
	Use:   "risk",
	Short: "Ask the scoring service for a reading-risk screening",
	Long: `Fetch the rule-based screening the scoring service computes from the
player's stored test results. This is a screening aid, not a diagnosis.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.Offline {
			return errors.New("no scoring service: offline is set in the config")
		}
		client := scoring.NewClient(cfg.APIBaseURL,
			scoring.WithTimeout(cfg.RequestTimeout),
			scoring.WithLogger(cfg.NewLogger()))

		ctx := context.Background()
		r, err := client.PredictRisk(ctx, cfg.UserID)
		if err != nil {
			return fmt.Errorf("predict risk: %w", err)
		}

		fmt.Printf("Player:             %d\n", cfg.UserID)
		fmt.Printf("Speech score:       %.0f%%\n", r.SpeechScore*100)
		fmt.Printf("Listening score:    %.0f%%\n", r.ListeningScore*100)
		fmt.Printf("Words per minute:   %.0f\n", r.WordsPerMinute)
		fmt.Printf("Risk probability:   %.0f%%\n", r.DyslexiaProbability*100)
		if r.IsAtRisk {
			fmt.Println("Result:             at risk, consider a specialist assessment")
		} else {
			fmt.Println("Result:             not at risk")
		}

		if show, _ := cmd.Flags().GetBool("progress"); !show {
			return nil
		}
		p, err := client.Progress(ctx, cfg.UserID)
		if err != nil {
			return fmt.Errorf("fetch progress: %w", err)
		}
		printProgress(p)
		return nil
	},
}

func printProgress(p *scoring.Progress) {
	sep := strings.Repeat("─", 48)
	fmt.Println()
	fmt.Println("Test results")
	fmt.Println(sep)
	if len(p.TestResults) == 0 {
		fmt.Println("(none)")
	}
	for _, t := range p.TestResults {
		fmt.Printf("%-20s  %-10s  %5.0f%%\n", t.Date, t.TestType, t.Score)
	}

	fmt.Println()
	fmt.Println("Game scores")
	fmt.Println(sep)
	if len(p.GameScores) == 0 {
		fmt.Println("(none)")
	}
	for _, g := range p.GameScores {
		fmt.Printf("%-20s  %-14s  %5d  level %d\n", g.Date, g.GameType, g.Score, g.Level)
	}
}

func init() {
	riskCmd.Flags().Bool("progress", false, "Also list stored test results and game scores")
}
