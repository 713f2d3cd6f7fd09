// Package summary shows a finished session: the score or mean accuracy,
// every trial with its answer, and actions to submit, save or replay.
package summary

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/lexiquest/lexiquest/internal/activity"
	"github.com/lexiquest/lexiquest/internal/report"
	"github.com/lexiquest/lexiquest/internal/router"
	"github.com/lexiquest/lexiquest/internal/screen"
	"github.com/lexiquest/lexiquest/internal/session"
	"github.com/lexiquest/lexiquest/internal/store"
	"github.com/lexiquest/lexiquest/internal/ui/components"
	"github.com/lexiquest/lexiquest/internal/ui/layout"
	"github.com/lexiquest/lexiquest/internal/ui/theme"
)

// Options configures the screen.
type Options struct {
	ResultsDir string
	Logger     *slog.Logger

	// Restart builds the screen for another round of the same activity.
	// Play again is hidden when nil.
	Restart func() screen.Screen
}

type submitDoneMsg struct {
	Err error
}

// Screen displays one session report.
type Screen struct {
	ctrl *session.Controller // nil for journaled sessions
	rep  report.Report
	opts Options
	menu components.Menu

	submitting bool
	submitted  bool
	submitErr  string
	status     string
	statusOK   bool

	handedOff bool
	mu        sync.Mutex // guards closed against a starting submission
	closed    bool
	cancel    context.CancelFunc
	inflight  sync.WaitGroup
	closeOnce sync.Once
}

var (
	_ screen.Screen          = (*Screen)(nil)
	_ screen.KeyHintProvider = (*Screen)(nil)
	_ screen.BackInterceptor = (*Screen)(nil)
	_ router.Closer          = (*Screen)(nil)
)

// New shows the completed session of ctrl and submits it.
func New(ctrl *session.Controller, opts Options) *Screen {
	s := &Screen{ctrl: ctrl, opts: withDefaults(opts)}
	if sess := ctrl.Session(); sess != nil {
		s.rep = report.FromSession(sess)
		s.submitted = sess.Phase == session.PhaseSubmitted
	}
	s.buildMenu()
	return s
}

// NewRecord shows a journaled session read-only.
func NewRecord(rec store.SessionRecord, opts Options) *Screen {
	opts.Restart = nil
	s := &Screen{rep: report.FromRecord(rec), opts: withDefaults(opts), submitted: true}
	s.buildMenu()
	return s
}

func withDefaults(opts Options) Options {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return opts
}

func (s *Screen) buildMenu() {
	var items []components.MenuItem
	if s.ctrl != nil && !s.submitted {
		items = append(items, components.MenuItem{
			Label:    "Send results",
			Action:   s.submit,
			Disabled: s.submitting,
		})
	}
	items = append(items, components.MenuItem{Label: "Save results", Action: s.save})
	if s.ctrl != nil && s.opts.Restart != nil {
		items = append(items, components.MenuItem{Label: "Play again", Action: s.restart, Disabled: s.submitting})
	}
	if s.ctrl != nil {
		items = append(items, components.MenuItem{
			Label:    "Home",
			Action:   func() tea.Cmd { return func() tea.Msg { return router.PopToRootMsg{} } },
			Disabled: s.submitting,
		})
	} else {
		items = append(items, components.MenuItem{
			Label:  "Back",
			Action: func() tea.Cmd { return func() tea.Msg { return router.PopScreenMsg{} } },
		})
	}
	selected := s.menu.Selected
	s.menu = components.NewMenu(items)
	if selected < len(items) && !items[selected].Disabled {
		s.menu.Selected = selected
	}
}

func (s *Screen) Init() tea.Cmd {
	if s.ctrl != nil && !s.submitted {
		return s.submit()
	}
	return nil
}

func (s *Screen) Title() string {
	return s.rep.Activity.DisplayName() + " Results"
}

func (s *Screen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Choose"},
		{Key: "Enter", Description: "Select"},
	}
}

// InterceptsBack holds the screen open while results are being sent.
func (s *Screen) InterceptsBack() bool {
	return s.submitting
}

// Close abandons the controller unless it went on to another round. A
// submission still in flight is canceled and waited for first, since it
// writes to the session.
func (s *Screen) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		if s.cancel != nil {
			s.cancel()
		}
		s.inflight.Wait()
		if s.ctrl != nil && !s.handedOff {
			s.ctrl.Abandon()
		}
	})
}

func (s *Screen) submit() tea.Cmd {
	if s.submitting {
		return nil
	}
	s.submitting = true
	s.submitErr = ""
	s.status = "Sending results..."
	s.statusOK = true
	s.buildMenu()
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	ctrl := s.ctrl
	return func() tea.Msg {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return submitDoneMsg{Err: context.Canceled}
		}
		s.inflight.Add(1)
		s.mu.Unlock()
		defer s.inflight.Done()
		return submitDoneMsg{Err: ctrl.Submit(ctx)}
	}
}

func (s *Screen) save() tea.Cmd {
	path, err := s.writeReport()
	if err != nil {
		s.opts.Logger.Warn("save results failed", "err", err)
		s.status, s.statusOK = "Could not save results: "+err.Error(), false
		return nil
	}
	s.status, s.statusOK = "Saved to "+path, true
	return nil
}

func (s *Screen) writeReport() (string, error) {
	var buf bytes.Buffer
	if err := report.Render(&buf, s.rep); err != nil {
		return "", err
	}
	dir := s.opts.ResultsDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create results dir: %w", err)
	}
	path := filepath.Join(dir, report.Filename(s.rep))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write results: %w", err)
	}
	return path, nil
}

func (s *Screen) restart() tea.Cmd {
	s.handedOff = true
	next := s.opts.Restart()
	return func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case submitDoneMsg:
		s.submitting = false
		if msg.Err != nil {
			s.submitErr = msg.Err.Error()
			s.status, s.statusOK = "Results were not sent. Choose Send results to try again.", false
		} else {
			s.submitted = true
			if sess := s.ctrl.Session(); sess != nil {
				s.rep = report.FromSession(sess)
			}
			s.status, s.statusOK = "Results sent!", true
		}
		s.buildMenu()
		return s, nil

	case tea.KeyMsg:
		var cmd tea.Cmd
		s.menu, cmd = s.menu.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *Screen) View(width, height int) string {
	r := s.rep
	center := func(str string) string { return layout.Centered(width, str) }
	cw := components.ContentWidth(width)

	var sections []string
	sections = append(sections, center(lipgloss.NewStyle().Foreground(theme.ArcadeYellow).Bold(true).Render(headline(r))))

	var stats string
	if r.Activity.Kind() == activity.KindTest {
		stats = fmt.Sprintf("Items: %d", len(r.Trials))
		if r.MeanAccuracy != nil {
			stats += fmt.Sprintf("    Accuracy: %.0f%%", *r.MeanAccuracy*100)
		}
		if r.NewDifficulty != nil {
			stats += fmt.Sprintf("    Next level: %s", r.NewDifficulty.Label())
		}
	} else {
		stats = fmt.Sprintf("Score: %d    Level: %d    Correct: %d    Moves: %d of %d",
			r.Score, r.Level, r.Correct(), len(r.Trials), r.TurnLimit)
	}
	sections = append(sections, center(theme.Body.Render(stats)))
	if r.Degraded {
		sections = append(sections, center(theme.Hint.Render("Practice content was used for this session.")))
	}

	// Leave room for the header, stats and menu.
	rows := max(height-len(s.menu.Items)-12, 3)
	sections = append(sections, center(components.ArcadeCard(trialLines(r, rows), cw)))

	if s.status != "" {
		style := theme.Incorrect
		if s.statusOK {
			style = theme.Hint
		}
		sections = append(sections, center(style.Render(s.status)))
	}
	if s.submitErr != "" {
		sections = append(sections, center(theme.Hint.Render(s.submitErr)))
	}

	sections = append(sections, center(components.ArcadeMenu(
		s.menu.Labels(), s.menu.Selected, s.menu.DisabledSet(), cw, layout.IsCompact(width, height))))

	return "\n" + strings.Join(sections, "\n\n")
}

func headline(r report.Report) string {
	if r.Activity.Kind() == activity.KindTest {
		return "Test complete!"
	}
	switch c := r.Correct(); {
	case c == 0:
		return "Good try! Practice makes progress."
	case c*2 >= len(r.Trials):
		return "Great job!"
	}
	return "Well done, keep going!"
}

func trialLines(r report.Report, rows int) string {
	var lines []string
	for i, t := range r.Trials {
		if i == rows-1 && len(r.Trials) > rows {
			lines = append(lines, theme.Hint.Render(fmt.Sprintf("...and %d more (save results to see all)", len(r.Trials)-i)))
			break
		}
		lines = append(lines, trialLine(r.Activity, i+1, t))
	}
	if len(lines) == 0 {
		return theme.Hint.Render("No answers recorded.")
	}
	return strings.Join(lines, "\n")
}

func trialLine(sub activity.SubKind, n int, t report.Trial) string {
	answer := ""
	if t.Candidate != nil {
		answer = *t.Candidate
	}
	switch {
	case sub == activity.MemoryMatch:
		mark := theme.Incorrect.Render("✗")
		if t.Correct {
			mark = theme.Correct.Render("✓")
		}
		return fmt.Sprintf("%d. %s + %s %s", n, t.Prompt, answer, mark)
	case sub.Kind() == activity.KindTest:
		line := fmt.Sprintf("%d. %q", n, answer)
		if t.Accuracy != nil {
			line += fmt.Sprintf("  %.0f%%", *t.Accuracy*100)
		}
		return line
	case t.Skipped:
		return fmt.Sprintf("%d. %s %s", n, t.Prompt, theme.Hint.Render("(skipped)"))
	case t.Correct:
		return fmt.Sprintf("%d. %s %s", n, t.Prompt, theme.Correct.Render("✓"))
	}
	return fmt.Sprintf("%d. %s %s", n, t.Prompt, theme.Incorrect.Render("✗ "+answer))
}
