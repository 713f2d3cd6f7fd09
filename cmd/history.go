package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lexiquest/lexiquest/internal/activity"
	"github.com/lexiquest/lexiquest/internal/report"
	"github.com/lexiquest/lexiquest/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List submitted sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		name, _ := cmd.Flags().GetString("activity")

		opts := store.QueryOpts{Limit: limit}
		if name != "" {
			sub, err := activity.ParseSubKind(name)
			if err != nil {
				return err
			}
			opts.Activity = string(sub)
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := context.Background()
		sessions, err := s.SessionRepo().ListSessions(ctx, opts)
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		if len(sessions) == 0 {
			fmt.Println("No sessions yet.")
			return nil
		}

		fmt.Printf("%-36s  %-16s  %-15s  %5s  %5s  %8s\n",
			"ID", "Submitted", "Activity", "Score", "Level", "Accuracy")
		fmt.Println(strings.Repeat("─", 96))
		for _, r := range sessions {
			acc := "-"
			if r.MeanAccuracy != nil {
				acc = fmt.Sprintf("%.0f%%", *r.MeanAccuracy*100)
			}
			fmt.Printf("%-36s  %-16s  %-15s  %5d  %5d  %8s\n",
				r.ID,
				r.SubmittedAt.Local().Format("2006-01-02 15:04"),
				activity.SubKind(r.Activity).DisplayName(),
				r.Score,
				r.Level,
				acc,
			)
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print the results report of one session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		rec, err := s.SessionRepo().GetSession(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}
		return report.Render(os.Stdout, report.FromRecord(*rec))
	},
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize sessions per activity",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		sums, err := s.SessionRepo().Summaries(context.Background())
		if err != nil {
			return fmt.Errorf("summarize sessions: %w", err)
		}
		if len(sums) == 0 {
			fmt.Println("No sessions yet.")
			return nil
		}

		fmt.Printf("%-15s  %8s  %5s  %7s  %8s  %s\n",
			"Activity", "Sessions", "Best", "Average", "Accuracy", "Last played")
		fmt.Println(strings.Repeat("─", 72))
		for _, a := range sums {
			acc := "-"
			if a.AvgAccuracy != nil {
				acc = fmt.Sprintf("%.0f%%", *a.AvgAccuracy*100)
			}
			fmt.Printf("%-15s  %8d  %5d  %7.1f  %8s  %s\n",
				activity.SubKind(a.Activity).DisplayName(),
				a.Sessions, a.BestScore, a.AvgScore, acc,
				a.LastPlayedAt.Local().Format("2006-01-02"),
			)
		}
		return nil
	},
}

// openStore opens the journal without the rest of the environment.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Number of sessions to show")
	historyCmd.Flags().StringP("activity", "a", "", "Only this activity (e.g. jumble, speech)")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyStatsCmd)
}
