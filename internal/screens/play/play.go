// Package play is the screen that runs one activity session: it presents
// each trial, takes the child's answer and hands the finished session to
// the summary screen.
package play

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/lexiquest/lexiquest/internal/activity"
	"github.com/lexiquest/lexiquest/internal/router"
	"github.com/lexiquest/lexiquest/internal/screen"
	"github.com/lexiquest/lexiquest/internal/screens/summary"
	"github.com/lexiquest/lexiquest/internal/session"
	"github.com/lexiquest/lexiquest/internal/speech"
	"github.com/lexiquest/lexiquest/internal/trial"
	"github.com/lexiquest/lexiquest/internal/ui/components"
)

// Options configures the screen.
type Options struct {
	// ResultsDir is where the summary saves result files.
	ResultsDir string
	Logger     *slog.Logger
}

// Screen runs one session of a controller.
type Screen struct {
	ctrl *session.Controller
	sub  activity.SubKind
	opts Options

	started bool
	pres    trial.Presentation
	tiles   components.Tiles
	input   components.TextInput

	feedback   string
	feedbackOK bool
	notice     string
	errMsg     string

	busy        bool
	pauseGen    int
	confirmQuit bool
	handedOff   bool

	listening bool
	preparing bool
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

var (
	_ screen.Screen          = (*Screen)(nil)
	_ screen.KeyHintProvider = (*Screen)(nil)
	_ screen.BackInterceptor = (*Screen)(nil)
	_ router.Closer          = (*Screen)(nil)
)

// New creates the screen. The session starts when the screen is pushed.
func New(ctrl *session.Controller, opts Options) *Screen {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	sub := ctrl.Activity()
	return &Screen{
		ctrl:  ctrl,
		sub:   sub,
		opts:  opts,
		input: components.NewTextInput(placeholder(sub), 200),
		done:  make(chan struct{}),
	}
}

func placeholder(sub activity.SubKind) string {
	switch sub {
	case activity.SpellingBee:
		return "Type the word you heard..."
	case activity.ListeningTest:
		return "Type the sentence you heard..."
	case activity.SpeechTest:
		return "Your reading appears here..."
	}
	return ""
}

// Init fetches the session's content off the update loop. The session
// itself begins when startedMsg arrives, so closing the screen first leaves
// the controller abandoned.
func (s *Screen) Init() tea.Cmd {
	if s.started || s.preparing {
		return nil
	}
	s.preparing = true
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	ctrl, d := s.ctrl, s.ctrl.Difficulty()
	return func() tea.Msg {
		dr, err := ctrl.Prepare(ctx, d)
		return startedMsg{Draw: dr, Err: err}
	}
}

func (s *Screen) Title() string {
	return s.sub.DisplayName()
}

// InterceptsBack keeps Esc for the quit confirmation while a session runs.
func (s *Screen) InterceptsBack() bool {
	return s.started && s.errMsg == "" && s.ctrl.Phase() == session.PhaseInProgress
}

// Close releases the session unless it was handed to the summary.
func (s *Screen) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.cancel != nil {
			s.cancel()
		}
		if !s.handedOff {
			s.ctrl.Abandon()
		}
	})
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case startedMsg:
		s.preparing = false
		err := msg.Err
		if err == nil {
			err = s.ctrl.Begin(msg.Draw)
		}
		if err != nil {
			s.errMsg = err.Error()
			return s, nil
		}
		s.started = true
		if sess := s.ctrl.Session(); sess != nil && sess.Degraded {
			s.notice = "Practice sentences are being used today."
		}
		return s, s.presentCurrent()

	case presentMsg:
		return s, s.present()

	case delayDoneMsg:
		if msg.gen != s.pauseGen {
			return s, nil
		}
		s.busy = false
		return s, msg.then(s)

	case playbackMsg:
		if msg.Result.Err != nil && !msg.Result.Canceled {
			s.notice = "The prompt could not be spoken. Press Ctrl+R to try again."
		}
		return s, nil

	case speechEventMsg:
		return s, s.handleSpeech(msg.Event)

	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	if s.started && s.usesInput() {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *Screen) usesInput() bool {
	return s.sub == activity.SpellingBee || s.sub.Kind() == activity.KindTest
}

// presentCurrent shows the current trial. Spelling words are spoken after a
// short pause so the child is ready to listen.
func (s *Screen) presentCurrent() tea.Cmd {
	if s.sub == activity.SpellingBee {
		s.input.Reset()
		return tea.Batch(
			s.input.Init(),
			tea.Tick(session.SpellingPromptDelay, func(time.Time) tea.Msg { return presentMsg{} }),
		)
	}
	return s.present()
}

func (s *Screen) present() tea.Cmd {
	pr, err := s.ctrl.Present(context.Background())
	if err != nil {
		if errors.Is(err, activity.ErrNotInProgress) {
			return nil
		}
		s.errMsg = err.Error()
		return nil
	}
	s.pres = pr

	switch s.sub {
	case activity.WordJumble:
		s.tiles = components.NewTiles(nil, 0)
		s.syncJumble()
		return nil
	case activity.MemoryMatch:
		s.syncBoard()
		return nil
	case activity.SpellingBee:
		return waitPlayback(pr.Playback)
	}
	s.input.Reset()
	return tea.Batch(s.input.Init(), waitPlayback(pr.Playback))
}

// pauseThen shows feedback for d and then runs then. Keys are ignored
// while paused.
func (s *Screen) pauseThen(d time.Duration, then func(*Screen) tea.Cmd) tea.Cmd {
	s.pauseGen++
	s.busy = true
	return pause(s.pauseGen, d, then)
}

// afterTurn moves on once feedback has been shown.
func afterTurn(s *Screen) tea.Cmd {
	if s.ctrl.Phase() == session.PhaseCompleted {
		return s.finish()
	}
	s.feedback = ""
	return s.presentCurrent()
}

func (s *Screen) setFeedback(ok bool, format string, args ...any) {
	s.feedbackOK = ok
	s.feedback = fmt.Sprintf(format, args...)
}

func (s *Screen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.errMsg != "" {
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	}

	if s.confirmQuit {
		switch key {
		case "y", "Y":
			s.confirmQuit = false
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "n", "N", "esc":
			s.confirmQuit = false
		}
		return s, nil
	}

	if !s.started || s.busy {
		return s, nil
	}
	if key == "esc" {
		s.confirmQuit = true
		return s, nil
	}

	switch s.sub {
	case activity.WordJumble:
		return s, s.jumbleKey(msg)
	case activity.MemoryMatch:
		return s, s.memoryKey(msg)
	case activity.SpellingBee:
		return s, s.spellingKey(msg)
	}
	return s, s.testKey(msg)
}

func (s *Screen) syncJumble() {
	j := s.ctrl.Jumble()
	if j == nil {
		return
	}
	cursor := s.tiles.Cursor
	s.tiles = components.NewTiles(j.Words(), 6)
	for i := range s.tiles.States {
		if !j.Available(i) {
			s.tiles.States[i] = components.TileUsed
		}
	}
	s.tiles.Cursor = min(cursor, max(len(s.tiles.Labels)-1, 0))
}

func (s *Screen) jumbleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "backspace":
		if n := len(s.ctrl.Jumble().Selected()); n > 0 {
			_ = s.ctrl.RemoveWord(n - 1)
			s.syncJumble()
		}
		return nil
	case "c":
		if len(s.ctrl.Jumble().Selected()) == 0 {
			s.notice = "Pick the words in order first."
			return nil
		}
		o, err := s.ctrl.CheckJumble()
		if err != nil {
			s.notice = err.Error()
			return nil
		}
		s.notice = ""
		if o.Correct {
			s.setFeedback(true, "Correct! +%d", session.PointsPerCorrect)
			return s.pauseThen(session.CorrectDelay, afterTurn)
		}
		s.setFeedback(false, "Not quite. Try a different order!")
		s.syncJumble()
		if s.ctrl.Phase() == session.PhaseCompleted {
			return s.pauseThen(session.SkipDelay, afterTurn)
		}
		return nil
	case "s":
		o, err := s.ctrl.Skip()
		if err != nil {
			s.notice = err.Error()
			return nil
		}
		s.setFeedback(false, "Skipped. The sentence was: %s", o.Prompt)
		return s.pauseThen(session.SkipDelay, afterTurn)
	}

	var idx int
	s.tiles, idx = s.tiles.Update(msg)
	if idx >= 0 {
		if err := s.ctrl.SelectWord(idx); err == nil {
			s.syncJumble()
		}
	}
	return nil
}

func (s *Screen) syncBoard() {
	b := s.ctrl.Board()
	if b == nil {
		return
	}
	cards := b.Cards()
	labels := make([]string, len(cards))
	cursor := s.tiles.Cursor
	s.tiles = components.NewTiles(labels, 4)
	for i, c := range cards {
		switch {
		case b.IsMatched(i):
			s.tiles.Labels[i] = c.Label
			s.tiles.States[i] = components.TileUsed
		case b.IsUp(i):
			s.tiles.Labels[i] = c.Label
			s.tiles.States[i] = components.TileRevealed
			if b.Pending() {
				s.tiles.States[i] = components.TileWrong
			}
		default:
			s.tiles.Labels[i] = "?"
		}
	}
	s.tiles.Cursor = min(cursor, len(cards)-1)
}

func (s *Screen) memoryKey(msg tea.KeyMsg) tea.Cmd {
	var idx int
	s.tiles, idx = s.tiles.Update(msg)
	if idx < 0 {
		return nil
	}
	res, o, err := s.ctrl.Flip(idx)
	if err != nil || !res.Flipped {
		return nil
	}
	s.feedback = ""
	s.syncBoard()
	if o == nil {
		return nil
	}
	if o.Correct {
		s.setFeedback(true, "Match! +%d", session.PointsPerCorrect)
		if s.ctrl.Phase() == session.PhaseCompleted {
			return s.pauseThen(session.CorrectDelay, afterTurn)
		}
		return nil
	}
	s.setFeedback(false, "No match. Remember where they are!")
	return s.pauseThen(session.FlipBackDelay, func(s *Screen) tea.Cmd {
		s.ctrl.FlipBack()
		s.syncBoard()
		if s.ctrl.Phase() == session.PhaseCompleted {
			return s.finish()
		}
		s.feedback = ""
		return nil
	})
}

func (s *Screen) spellingKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		answer := strings.TrimSpace(s.input.Value())
		if answer == "" {
			s.notice = "Type the word you heard."
			return nil
		}
		o, err := s.ctrl.CheckSpelling(answer)
		if err != nil {
			s.notice = err.Error()
			return nil
		}
		s.notice = ""
		s.input.Mark(o.Correct)
		if o.Correct {
			s.setFeedback(true, "Correct! +%d", session.PointsPerCorrect)
			return s.pauseThen(session.CorrectDelay, afterTurn)
		}
		s.setFeedback(false, "Not quite. Listen again and have another go!")
		if s.ctrl.Phase() == session.PhaseCompleted {
			return s.pauseThen(session.SkipDelay, afterTurn)
		}
		s.input.Reset()
		return s.replay()
	case "ctrl+r":
		return s.replay()
	case "ctrl+s":
		o, err := s.ctrl.Skip()
		if err != nil {
			s.notice = err.Error()
			return nil
		}
		s.setFeedback(false, "Skipped. The word was: %s", o.Prompt)
		return s.pauseThen(session.SkipDelay, afterTurn)
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return cmd
}

func (s *Screen) replay() tea.Cmd {
	ch, err := s.ctrl.Replay(context.Background())
	if err != nil {
		return nil
	}
	if ch == nil {
		s.notice = "Spoken prompts are turned off."
		return nil
	}
	return waitPlayback(ch)
}

func (s *Screen) testKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		if s.ctrl.Recording() {
			if t := s.ctrl.StopRecording(); t != "" {
				s.input.SetValue(t)
			}
			s.notice = "Check your answer and press Enter."
			return nil
		}
		_, err := s.ctrl.Answer(s.input.Value())
		var vErr *activity.ValidationError
		if errors.As(err, &vErr) {
			s.notice = "Please answer before moving on."
			return nil
		}
		if err != nil {
			s.notice = err.Error()
			return nil
		}
		s.notice = ""
		if s.ctrl.Phase() == session.PhaseCompleted {
			return s.finish()
		}
		return s.present()
	case "ctrl+r":
		if s.sub == activity.ListeningTest {
			return s.replay()
		}
		return s.toggleRecording()
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return cmd
}

func (s *Screen) toggleRecording() tea.Cmd {
	if s.ctrl.Recording() {
		if t := s.ctrl.StopRecording(); t != "" {
			s.input.SetValue(t)
		}
		s.notice = "Check your answer and press Enter."
		return nil
	}

	err := s.ctrl.StartRecording(context.Background())
	var permErr *activity.PermissionError
	switch {
	case err == nil:
		s.notice = "Listening... read the sentence aloud, then press Ctrl+R."
		return s.armSpeech()
	case errors.Is(err, trial.ErrNoRecognizer):
		s.notice = "Speech recognition is not set up. Type what you read instead."
	case errors.As(err, &permErr):
		s.notice = "Microphone access was denied. Allow it and press Ctrl+R to try again."
	default:
		s.notice = "Could not start recording: " + err.Error()
	}
	return nil
}

// armSpeech keeps one reader on the adapter's event channel.
func (s *Screen) armSpeech() tea.Cmd {
	if s.listening {
		return nil
	}
	s.listening = true
	return waitSpeech(s.ctrl.SpeechEvents(), s.done)
}

func (s *Screen) handleSpeech(ev speech.Event) tea.Cmd {
	s.listening = false
	switch ev.Kind {
	case speech.EventTranscript:
		s.input.SetValue(ev.Transcript)
	case speech.EventError:
		s.notice = "I couldn't hear that. Press Ctrl+R to try again."
	case speech.EventEnded:
		s.notice = "Check your answer and press Enter."
	}
	return s.armSpeech()
}

// finish hands the completed session to the summary screen.
func (s *Screen) finish() tea.Cmd {
	s.handedOff = true
	ctrl, opts := s.ctrl, s.opts
	next := summary.New(ctrl, summary.Options{
		ResultsDir: opts.ResultsDir,
		Logger:     opts.Logger,
		Restart:    func() screen.Screen { return New(ctrl, opts) },
	})
	return func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }
}
