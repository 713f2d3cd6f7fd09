// Package trial holds the per-trial mechanics of every activity and the
// Runner that presents prompts through the session's speech adapters.
package trial

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/lexiquest/lexiquest/internal/activity"
	"github.com/lexiquest/lexiquest/internal/speech"
)

// ErrNoRecognizer is returned when recording is requested but no speech
// recognition backend is configured. Callers fall back to typed answers.
var ErrNoRecognizer = errors.New("speech recognition unavailable")

// Presentation is what the presenter needs to show one trial.
type Presentation struct {
	Prompt activity.Prompt

	// ShowText is false when the prompt must only be heard.
	ShowText bool

	// Playback yields the result of speaking the prompt, or is nil when
	// nothing was spoken.
	Playback <-chan speech.PlaybackResult

	Jumble *Jumble
	Board  *Board
}

// Runner presents trials for one activity. It owns the session's speech
// adapters and must be closed when the session ends.
type Runner struct {
	sub    activity.SubKind
	in     *speech.Input
	out    *speech.Output
	logger *slog.Logger
}

// NewRunner builds adapters for the backends this activity uses.
func NewRunner(sub activity.SubKind, b speech.Backends, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	r := &Runner{sub: sub, logger: logger}
	if sub == activity.SpeechTest && b.CanRecord() {
		r.in = speech.NewInput(b.Microphone, b.Recognizer, b.Language, logger)
	}
	if speaks(sub) && b.CanSpeak() {
		voice := speech.DefaultVoice
		if b.Language != "" {
			voice.Lang = b.Language
		}
		r.out = speech.NewOutput(b.Synthesizer, voice, logger)
	}
	return r
}

func speaks(sub activity.SubKind) bool {
	return sub == activity.SpellingBee || sub == activity.ListeningTest
}

// Present speaks the prompt when the activity calls for it and reports
// whether its text may be shown.
func (r *Runner) Present(ctx context.Context, p activity.Prompt) Presentation {
	pr := Presentation{Prompt: p, ShowText: !speaks(r.sub)}
	if speaks(r.sub) {
		pr.Playback = r.Speak(ctx, p.Text)
	}
	return pr
}

// Speak plays text, cancelling anything already playing. It returns nil
// when no synthesizer is configured.
func (r *Runner) Speak(ctx context.Context, text string) <-chan speech.PlaybackResult {
	if r.out == nil {
		return nil
	}
	return r.out.Play(ctx, text)
}

// Playing reports whether a prompt is being spoken.
func (r *Runner) Playing() bool {
	return r.out != nil && r.out.Playing()
}

// CanSpeak reports whether prompts are spoken aloud.
func (r *Runner) CanSpeak() bool { return r.out != nil }

// CanRecord reports whether spoken answers can be captured.
func (r *Runner) CanRecord() bool { return r.in != nil }

// Recording reports whether the input adapter is busy.
func (r *Runner) Recording() bool {
	return r.in != nil && r.in.State() != speech.StateIdle
}

// StartRecording begins capturing a spoken answer.
func (r *Runner) StartRecording(ctx context.Context) error {
	if r.sub != activity.SpeechTest {
		return activity.ErrWrongActivity
	}
	if r.in == nil {
		return ErrNoRecognizer
	}
	return r.in.Start(ctx)
}

// StopRecording ends capture and returns the transcript. It is a no-op when
// nothing is being recorded.
func (r *Runner) StopRecording() string {
	if r.in == nil {
		return ""
	}
	return r.in.Stop()
}

// Transcript returns the live transcript of the current recording.
func (r *Runner) Transcript() string {
	if r.in == nil {
		return ""
	}
	return r.in.Transcript()
}

// Events returns input adapter events, or nil when recording is unavailable.
func (r *Runner) Events() <-chan speech.Event {
	if r.in == nil {
		return nil
	}
	return r.in.Events()
}

// Close tears down both adapters, releasing any open stream.
func (r *Runner) Close() {
	if r.in != nil {
		r.in.Close()
	}
	if r.out != nil {
		r.out.Close()
	}
}
