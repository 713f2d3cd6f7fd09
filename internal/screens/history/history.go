// Package history lists journaled sessions and opens their reports.
package history

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"charm.land/lipgloss/v2"

	"github.com/lexiquest/lexiquest/internal/activity"
	"github.com/lexiquest/lexiquest/internal/router"
	"github.com/lexiquest/lexiquest/internal/screen"
	"github.com/lexiquest/lexiquest/internal/screens/summary"
	"github.com/lexiquest/lexiquest/internal/store"
	"github.com/lexiquest/lexiquest/internal/ui/layout"
	"github.com/lexiquest/lexiquest/internal/ui/theme"
)

// PageSize is how many sessions the screen loads.
const PageSize = 50

type historyLoadedMsg struct {
	Sessions  []store.SessionRecord
	Summaries []store.ActivitySummary
	Err       error
}

type sessionLoadedMsg struct {
	Record *store.SessionRecord
	Err    error
}

// HistoryScreen displays past sessions, newest first.
type HistoryScreen struct {
	repo store.SessionRepo
	opts summary.Options

	sessions  []store.SessionRecord
	summaries []store.ActivitySummary
	selected  int
	loaded    bool
	errMsg    string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates a new HistoryScreen. opts configures the report screens it
// opens.
func New(repo store.SessionRepo, opts summary.Options) *HistoryScreen {
	return &HistoryScreen{repo: repo, opts: opts}
}

func (s *HistoryScreen) Init() tea.Cmd {
	repo := s.repo
	return func() tea.Msg {
		ctx := context.Background()
		sessions, err := repo.ListSessions(ctx, store.QueryOpts{Limit: PageSize})
		if err != nil {
			return historyLoadedMsg{Err: err}
		}
		sums, err := repo.Summaries(ctx)
		if err != nil {
			return historyLoadedMsg{Err: err}
		}
		return historyLoadedMsg{Sessions: sessions, Summaries: sums}
	}
}

func (s *HistoryScreen) Title() string {
	return "History"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Report"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.sessions = msg.Sessions
			s.summaries = msg.Summaries
			s.selected = min(s.selected, max(len(s.sessions)-1, 0))
		}
		s.loaded = true
		return s, nil

	case sessionLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		next := summary.NewRecord(*msg.Record, s.opts)
		return s, func() tea.Msg { return router.PushScreenMsg{Screen: next} }

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
		case "down", "j":
			if s.selected < len(s.sessions)-1 {
				s.selected++
			}
		case "enter":
			if len(s.sessions) == 0 {
				return s, nil
			}
			repo, id := s.repo, s.sessions[s.selected].ID
			return s, func() tea.Msg {
				rec, err := repo.GetSession(context.Background(), id)
				return sessionLoadedMsg{Record: rec, Err: err}
			}
		}
	}
	return s, nil
}

func (s *HistoryScreen) View(width, height int) string {
	if s.errMsg != "" {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.Error).
			Render(fmt.Sprintf("\n\nError: %s", s.errMsg))
	}
	if !s.loaded {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).
			Render("\n\n  Loading history...")
	}
	if len(s.sessions) == 0 {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("\n\n  No sessions yet. Play a game to get started!")
	}

	var b strings.Builder
	b.WriteString("\n")

	for _, sum := range s.summaries {
		sub := activity.SubKind(sum.Activity)
		line := fmt.Sprintf("%-15s %3d played   best %3d", sub.DisplayName(), sum.Sessions, sum.BestScore)
		if sum.AvgAccuracy != nil {
			line = fmt.Sprintf("%-15s %3d played   avg accuracy %.0f%%", sub.DisplayName(), sum.Sessions, *sum.AvgAccuracy*100)
		}
		b.WriteString(layout.Centered(width, lipgloss.NewStyle().Foreground(theme.Secondary).Render(line)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	// Keep the selection on screen.
	rows := max(height-len(s.summaries)-4, 3)
	start := 0
	if s.selected >= rows {
		start = s.selected - rows + 1
	}
	end := min(start+rows, len(s.sessions))

	for i := start; i < end; i++ {
		rec := s.sessions[i]
		prefix := "  "
		if i == s.selected {
			prefix = "> "
		}
		line := prefix + sessionLine(rec)

		style := lipgloss.NewStyle().Foreground(theme.Text)
		if i == s.selected {
			style = style.Foreground(theme.Primary).Bold(true)
		}
		b.WriteString(layout.Centered(width, style.Render(line)))
		b.WriteString("\n")
	}

	return b.String()
}

func sessionLine(rec store.SessionRecord) string {
	sub := activity.SubKind(rec.Activity)
	date := rec.SubmittedAt.Local().Format("Jan 02, 2006 15:04")
	if sub.Kind() == activity.KindTest {
		acc := "-"
		if rec.MeanAccuracy != nil {
			acc = fmt.Sprintf("%.0f%%", *rec.MeanAccuracy*100)
		}
		return fmt.Sprintf("%s  %-15s accuracy %s", date, sub.DisplayName(), acc)
	}
	return fmt.Sprintf("%s  %-15s score %d  level %d", date, sub.DisplayName(), rec.Score, rec.Level)
}
