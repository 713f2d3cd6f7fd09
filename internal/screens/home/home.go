// Package home is the arcade-style main menu.
package home

import (
	"context"
	"log/slog"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/lexiquest/lexiquest/internal/activity"
	"github.com/lexiquest/lexiquest/internal/profile"
	"github.com/lexiquest/lexiquest/internal/router"
	"github.com/lexiquest/lexiquest/internal/screen"
	"github.com/lexiquest/lexiquest/internal/screens/history"
	"github.com/lexiquest/lexiquest/internal/screens/play"
	"github.com/lexiquest/lexiquest/internal/screens/summary"
	"github.com/lexiquest/lexiquest/internal/session"
	"github.com/lexiquest/lexiquest/internal/store"
	"github.com/lexiquest/lexiquest/internal/ui/components"
	"github.com/lexiquest/lexiquest/internal/ui/layout"
	"github.com/lexiquest/lexiquest/internal/ui/theme"
)

// Deps are the collaborators the home screen hands to the screens it opens.
type Deps struct {
	// NewController builds a controller for one activity.
	NewController func(activity.SubKind) (*session.Controller, error)

	// Profile is optional; without it History is disabled and the stats
	// bar shows the default level.
	Profile *profile.Profile

	ResultsDir string
	Logger     *slog.Logger

	// Offline is set when no scoring service is configured.
	Offline bool
}

type statsMsg struct {
	Difficulty activity.Difficulty
	Played     int
	PlayedAt   time.Time
}

// HomeScreen is the main home screen of the application.
type HomeScreen struct {
	deps Deps
	menu components.Menu

	difficulty activity.Difficulty
	played     int
	playedAt   time.Time
	notice     string
	now        func() time.Time
}

var _ screen.Screen = (*HomeScreen)(nil)
var _ screen.KeyHintProvider = (*HomeScreen)(nil)

// New creates a new HomeScreen.
func New(deps Deps) *HomeScreen {
	h := &HomeScreen{deps: deps, difficulty: activity.DefaultDifficulty, now: time.Now}

	var items []components.MenuItem
	for _, sub := range activity.AllSubKinds() {
		items = append(items, components.MenuItem{
			Label:  strings.ToUpper(sub.DisplayName()),
			Action: func() tea.Cmd { return h.start(sub) },
		})
	}
	items = append(items,
		components.MenuItem{
			Label:    "HISTORY",
			Disabled: deps.Profile == nil,
			Action: func() tea.Cmd {
				next := history.New(deps.Profile.Sessions(), h.summaryOptions())
				return func() tea.Msg { return router.PushScreenMsg{Screen: next} }
			},
		},
		components.MenuItem{Label: "EXIT", Action: func() tea.Cmd { return tea.Quit }},
	)
	h.menu = components.NewMenu(items)
	return h
}

func (h *HomeScreen) summaryOptions() summary.Options {
	return summary.Options{ResultsDir: h.deps.ResultsDir, Logger: h.deps.Logger}
}

func (h *HomeScreen) start(sub activity.SubKind) tea.Cmd {
	if h.deps.NewController == nil {
		return nil
	}
	ctrl, err := h.deps.NewController(sub)
	if err != nil {
		h.notice = "Could not start " + sub.DisplayName() + ": " + err.Error()
		return nil
	}
	h.notice = ""
	next := play.New(ctrl, play.Options{ResultsDir: h.deps.ResultsDir, Logger: h.deps.Logger})
	return func() tea.Msg { return router.PushScreenMsg{Screen: next} }
}

// Init refreshes the stats bar; it runs again each time the player comes
// back to the home screen.
func (h *HomeScreen) Init() tea.Cmd {
	p := h.deps.Profile
	if p == nil {
		return nil
	}
	return func() tea.Msg {
		ctx := context.Background()
		msg := statsMsg{Difficulty: p.Difficulty(ctx)}
		msg.Played, _ = p.SessionsPlayed(ctx)
		if recent, err := p.Sessions().ListSessions(ctx, store.QueryOpts{Limit: 1}); err == nil && len(recent) > 0 {
			msg.PlayedAt = recent[0].SubmittedAt
		}
		return msg
	}
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if m, ok := msg.(statsMsg); ok {
		h.difficulty, h.played, h.playedAt = m.Difficulty, m.Played, m.PlayedAt
		return h, nil
	}
	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) mascot() MascotVariant {
	switch {
	case h.deps.Offline:
		return MascotAlert
	case !h.playedAt.IsZero() && sameDay(h.playedAt, h.now()):
		return MascotCelebrating
	}
	return MascotIdle
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Local().Date()
	by, bm, bd := b.Local().Date()
	return ay == by && am == bm && ad == bd
}

func (h *HomeScreen) View(width, height int) string {
	// height is the content area; add back header and footer.
	compact := layout.IsCompact(width, height+8)
	cw := components.ContentWidth(width)

	var sections []string
	sections = append(sections, renderTitle(cw, compact))
	if !compact {
		sections = append(sections, renderMascotBox(h.mascot(), cw))
	}
	sections = append(sections, renderStatsBar(h.difficulty, h.played, cw, compact))
	if h.deps.Offline {
		sections = append(sections, renderOfflineBanner(cw))
	}
	if h.notice != "" {
		sections = append(sections, lipgloss.NewStyle().Width(cw).Align(lipgloss.Center).
			Foreground(theme.Error).Render(h.notice))
	}
	sections = append(sections, components.ArcadeMenu(
		h.menu.Labels(), h.menu.Selected, h.menu.DisabledSet(), cw, compact))

	return components.CabinetFrame(strings.Join(sections, "\n\n"), width, height)
}

func (h *HomeScreen) Title() string {
	return "Home"
}

func (h *HomeScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Choose"},
		{Key: "Enter", Description: "Play"},
		{Key: "1-7", Description: "Jump"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}
