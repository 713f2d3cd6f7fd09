package session

import (
	"context"
	"strings"

	"github.com/lexiquest/lexiquest/internal/activity"
	"github.com/lexiquest/lexiquest/internal/speech"
)

// Answer records the candidate for the current test item and moves to the
// next one. Blank answers are rejected without using a turn.
func (c *Controller) Answer(candidate string) (activity.TrialOutcome, error) {
	if err := c.requireActivity(activity.SpeechTest, activity.ListeningTest); err != nil {
		return activity.TrialOutcome{}, err
	}
	if strings.TrimSpace(candidate) == "" {
		return activity.TrialOutcome{}, &activity.ValidationError{Field: "answer", Reason: "an answer is required"}
	}
	c.runner.StopRecording()

	c.itemTimes = append(c.itemTimes, c.cfg.Now().Sub(c.itemStart))
	o := c.finalize(activity.TrialOutcome{
		PromptID:  c.current.ID,
		Prompt:    c.current.Text,
		Candidate: &candidate,
	})
	if c.phase == PhaseInProgress {
		c.current = c.sess.Prompts[len(c.sess.Turns)]
		c.itemStart = c.cfg.Now()
	}
	return o, nil
}

// StartRecording begins capturing a spoken answer. A permission or capture
// failure leaves the turn count unchanged and may be retried.
func (c *Controller) StartRecording(ctx context.Context) error {
	if err := c.requireActivity(activity.SpeechTest); err != nil {
		return err
	}
	return c.runner.StartRecording(ctx)
}

// StopRecording ends capture and returns the transcript for the user to
// confirm with Answer.
func (c *Controller) StopRecording() string {
	if c.runner == nil {
		return ""
	}
	return c.runner.StopRecording()
}

// Recording reports whether an answer is being captured.
func (c *Controller) Recording() bool {
	return c.runner != nil && c.runner.Recording()
}

// Transcript returns the live transcript of the current recording.
func (c *Controller) Transcript() string {
	if c.runner == nil {
		return ""
	}
	return c.runner.Transcript()
}

// SpeechEvents returns input adapter events for the current session.
func (c *Controller) SpeechEvents() <-chan speech.Event {
	if c.runner == nil {
		return nil
	}
	return c.runner.Events()
}

// Replay speaks the current prompt again for spoken activities.
func (c *Controller) Replay(ctx context.Context) (<-chan speech.PlaybackResult, error) {
	if err := c.requireActivity(activity.SpellingBee, activity.ListeningTest); err != nil {
		return nil, err
	}
	return c.runner.Speak(ctx, c.current.Text), nil
}
