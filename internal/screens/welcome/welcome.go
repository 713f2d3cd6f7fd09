// Package welcome is the first-run introduction shown over the home menu
// until the player has finished a session.
package welcome

import (
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/lexiquest/lexiquest/internal/activity"
	"github.com/lexiquest/lexiquest/internal/router"
	"github.com/lexiquest/lexiquest/internal/screen"
	"github.com/lexiquest/lexiquest/internal/screens/home"
	"github.com/lexiquest/lexiquest/internal/ui/theme"
)

const (
	tickInterval = 100 * time.Millisecond
	sparkleAt    = 500 * time.Millisecond
	introAt      = 1500 * time.Millisecond
	readyAt      = 2500 * time.Millisecond
)

var sparkleFrames = []string{"★", "✦"}

var blurbs = map[activity.SubKind]string{
	activity.WordJumble:    "put the words back in order",
	activity.MemoryMatch:   "find the word that goes with each picture",
	activity.SpellingBee:   "listen, then spell the word",
	activity.SpeechTest:    "read sentences out loud",
	activity.ListeningTest: "type the sentence you hear",
}

type tickMsg time.Time

// Screen animates the mascot, then lists the activities. Any key after
// the intro closes it.
type Screen struct {
	offline bool
	elapsed time.Duration
	ticks   int
	closed  bool
}

var _ screen.Screen = (*Screen)(nil)

// New creates the intro. offline adds a note that results stay local.
func New(offline bool) *Screen {
	return &Screen{offline: offline}
}

func (w *Screen) Title() string { return "Welcome" }

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (w *Screen) Init() tea.Cmd { return tick() }

func (w *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg.(type) {
	case tickMsg:
		if w.elapsed >= readyAt {
			return w, nil
		}
		w.elapsed += tickInterval
		w.ticks++
		return w, tick()

	case tea.KeyPressMsg:
		if w.elapsed < readyAt || w.closed {
			return w, nil
		}
		w.closed = true
		return w, func() tea.Msg { return router.PopScreenMsg{} }
	}
	return w, nil
}

func (w *Screen) View(width, height int) string {
	art := lipgloss.NewStyle().Foreground(theme.Primary).Render(home.RenderMascot(home.MascotCelebrating))

	if w.elapsed >= sparkleAt {
		s := sparkleFrames[w.ticks%len(sparkleFrames)]
		a := lipgloss.NewStyle().Foreground(theme.Accent).Render(s)
		b := lipgloss.NewStyle().Foreground(theme.Secondary).Render(s)
		lines := strings.Split(art, "\n")
		for i := 0; i < len(lines); i += 3 {
			lines[i] = a + "  " + lines[i] + "  " + b
			a, b = b, a
		}
		art = strings.Join(lines, "\n")
	}

	sections := []string{art}
	if w.elapsed >= introAt {
		title := lipgloss.NewStyle().Foreground(theme.ArcadeYellow).Bold(true).Render("Welcome to LexiQuest!")
		sections = append(sections, "", title, "", w.activityList())
		if w.offline {
			sections = append(sections, "", lipgloss.NewStyle().Foreground(theme.Accent).
				Render("Results will be saved on this computer only."))
		}
	}
	if w.elapsed >= readyAt {
		sections = append(sections, "", lipgloss.NewStyle().Foreground(theme.TextDim).Italic(true).
			Render("press any key to start"))
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, strings.Join(sections, "\n"))
}

func (w *Screen) activityList() string {
	name := lipgloss.NewStyle().Foreground(theme.Text).Bold(true)
	var b strings.Builder
	for i, sub := range activity.AllSubKinds() {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(name.Render(sub.DisplayName()) + "  " + blurbs[sub])
	}
	return b.String()
}
