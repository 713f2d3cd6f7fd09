package session

import (
	"github.com/lexiquest/lexiquest/internal/activity"
	"github.com/lexiquest/lexiquest/internal/trial"
)

// SelectWord moves the i-th scrambled word into the answer.
func (c *Controller) SelectWord(i int) error {
	if err := c.requireActivity(activity.WordJumble); err != nil {
		return err
	}
	return c.jumble.Select(i)
}

// RemoveWord returns the word at answer position pos to the scrambled row.
func (c *Controller) RemoveWord(pos int) error {
	if err := c.requireActivity(activity.WordJumble); err != nil {
		return err
	}
	return c.jumble.Remove(pos)
}

// CheckJumble checks the assembled sentence. A correct answer scores and
// moves to a new sentence; an incorrect one uses up the turn but leaves the
// same sentence for another try.
func (c *Controller) CheckJumble() (activity.TrialOutcome, error) {
	if err := c.requireActivity(activity.WordJumble); err != nil {
		return activity.TrialOutcome{}, err
	}
	candidate := c.jumble.Candidate()
	o := c.finalize(activity.TrialOutcome{
		PromptID:  c.current.ID,
		Prompt:    c.current.Text,
		Candidate: &candidate,
		Correct:   c.jumble.Check(),
	})
	if o.Correct && c.phase == PhaseInProgress {
		if err := c.advance(); err != nil {
			return o, err
		}
	}
	return o, nil
}

// CheckSpelling checks a typed spelling, ignoring case.
func (c *Controller) CheckSpelling(candidate string) (activity.TrialOutcome, error) {
	if err := c.requireActivity(activity.SpellingBee); err != nil {
		return activity.TrialOutcome{}, err
	}
	o := c.finalize(activity.TrialOutcome{
		PromptID:  c.current.ID,
		Prompt:    c.current.Text,
		Candidate: &candidate,
		Correct:   trial.CheckSpelling(candidate, c.current.Text),
	})
	if o.Correct && c.phase == PhaseInProgress {
		if err := c.advance(); err != nil {
			return o, err
		}
	}
	return o, nil
}

// Skip gives up on the current jumble or spelling word. It uses a turn and
// scores nothing.
func (c *Controller) Skip() (activity.TrialOutcome, error) {
	if err := c.requireActivity(activity.WordJumble, activity.SpellingBee); err != nil {
		return activity.TrialOutcome{}, err
	}
	o := c.finalize(activity.TrialOutcome{
		PromptID: c.current.ID,
		Prompt:   c.current.Text,
		Skipped:  true,
	})
	if c.phase == PhaseInProgress {
		if err := c.advance(); err != nil {
			return o, err
		}
	}
	return o, nil
}

// advance draws the next prompt for a random-draw game.
func (c *Controller) advance() error {
	p, err := c.cfg.Pool.Next(c.cfg.Activity, c.sess.Difficulty)
	if err != nil {
		return err
	}
	c.current = p
	if c.cfg.Activity == activity.WordJumble {
		c.jumble = trial.NewJumble(p, c.cfg.Pool.Rand())
	}
	return nil
}

// Flip turns card i face up. When it is the second card of an attempt the
// attempt is finalized as a turn and its outcome returned; otherwise the
// outcome is nil. A mismatched pair stays face up until FlipBack.
func (c *Controller) Flip(i int) (trial.FlipResult, *activity.TrialOutcome, error) {
	if err := c.requireActivity(activity.MemoryMatch); err != nil {
		return trial.FlipResult{}, nil, err
	}
	res := c.board.Flip(i)
	if !res.Attempt {
		return res, nil, nil
	}

	cards := c.board.Cards()
	first, second := cards[res.First], cards[res.Second]
	candidate := second.Label
	o := c.finalize(activity.TrialOutcome{
		PromptID:  first.PairKey + "/" + second.PairKey,
		Prompt:    first.Label,
		Candidate: &candidate,
		Correct:   res.Match,
	})
	if c.phase == PhaseInProgress && c.board.Solved() {
		c.complete()
	}
	return res, &o, nil
}

// FlipBack turns a mismatched pair face down again.
func (c *Controller) FlipBack() {
	if c.board != nil {
		c.board.FlipBack()
	}
}
