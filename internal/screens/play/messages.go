package play

import (
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/lexiquest/lexiquest/internal/session"
	"github.com/lexiquest/lexiquest/internal/speech"
)

// startedMsg carries the content drawn for the session.
type startedMsg struct {
	Draw *session.Draw
	Err  error
}

// presentMsg asks the screen to present the current trial.
type presentMsg struct{}

// delayDoneMsg ends a feedback pause. gen ties it to the pause that
// scheduled it so a stale tick is ignored.
type delayDoneMsg struct {
	gen  int
	then func(*Screen) tea.Cmd
}

// playbackMsg reports that a spoken prompt finished.
type playbackMsg struct {
	Result speech.PlaybackResult
}

// speechEventMsg carries one event from the speech input adapter.
type speechEventMsg struct {
	Event speech.Event
}

func waitPlayback(ch <-chan speech.PlaybackResult) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		res, ok := <-ch
		if !ok {
			return nil
		}
		return playbackMsg{Result: res}
	}
}

// waitSpeech reads the next adapter event, giving up when done closes.
func waitSpeech(ch <-chan speech.Event, done <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case ev := <-ch:
			return speechEventMsg{Event: ev}
		case <-done:
			return nil
		}
	}
}

func pause(gen int, d time.Duration, then func(*Screen) tea.Cmd) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return delayDoneMsg{gen: gen, then: then}
	})
}
