package session

import (
	"context"

	"github.com/lexiquest/lexiquest/internal/activity"
	"github.com/lexiquest/lexiquest/internal/scoring"
	"github.com/lexiquest/lexiquest/internal/store"
)

// Submit sends the completed session to the scoring service. Games send one
// aggregate score; tests send their items and then report the mean accuracy
// to update the user's difficulty. Nothing changes on failure: the session
// stays Completed and the whole submission may be retried.
func (c *Controller) Submit(ctx context.Context) error {
	if c.phase != PhaseCompleted {
		return activity.ErrNotCompleted
	}
	if c.cfg.Gateway == nil {
		return ErrNoGateway
	}
	sess := c.sess

	if sess.Kind() == activity.KindGame {
		elapsed := sess.Elapsed().Seconds()
		err := c.cfg.Gateway.SubmitGameScore(ctx, scoring.GameScore{
			UserID:    c.cfg.UserID,
			GameType:  string(sess.Activity),
			Score:     sess.Score,
			Level:     sess.Level(),
			TimeTaken: &elapsed,
		})
		if err != nil {
			c.logger.Warn("game score submission failed", "session", sess.ID, "err", err)
			return err
		}
	} else {
		items := make([]scoring.Item, len(sess.Turns))
		for i, t := range sess.Turns {
			items[i] = scoring.Item{Prompt: t.Prompt, Candidate: t.CandidateText()}
			if i < len(c.itemTimes) {
				items[i].TimeTaken = c.itemTimes[i]
			}
		}
		results, err := c.cfg.Gateway.SubmitItems(ctx, sess.Activity, c.cfg.UserID, items)
		if err != nil {
			c.logger.Warn("test submission failed", "session", sess.ID, "err", err)
			return err
		}
		mean := scoring.MeanAccuracy(results)
		newD, err := c.cfg.Gateway.UpdateDifficulty(ctx, c.cfg.UserID, mean)
		if err != nil {
			c.logger.Warn("difficulty update failed", "session", sess.ID, "err", err)
			return err
		}
		sess.Results = results
		sess.MeanAccuracy = mean
		sess.NewDifficulty = newD
		c.difficulty = newD
	}

	sess.SubmittedAt = c.cfg.Now()
	sess.Phase = PhaseSubmitted
	c.phase = PhaseSubmitted
	c.logger.Info("session submitted", "session", sess.ID, "score", sess.Score, "mean_accuracy", sess.MeanAccuracy)

	if c.cfg.Journal != nil {
		if err := c.cfg.Journal.RecordSession(ctx, Record(sess)); err != nil {
			c.logger.Warn("journal write failed", "session", sess.ID, "err", err)
		}
	}
	return nil
}

// Record converts a session into its journal form.
func Record(s *Session) store.SessionRecord {
	rec := store.SessionRecord{
		ID:          s.ID,
		Activity:    string(s.Activity),
		Kind:        s.Kind().String(),
		Score:       s.Score,
		Level:       s.Level(),
		TurnLimit:   s.TurnLimit,
		Difficulty:  float64(s.Difficulty),
		Degraded:    s.Degraded,
		StartedAt:   s.StartedAt,
		CompletedAt: s.CompletedAt,
		SubmittedAt: s.SubmittedAt,
	}
	if s.Kind() == activity.KindTest && s.Phase == PhaseSubmitted {
		mean := s.MeanAccuracy
		nd := float64(s.NewDifficulty)
		rec.MeanAccuracy = &mean
		rec.NewDifficulty = &nd
	}
	rec.Trials = make([]store.TrialRecord, len(s.Turns))
	for i, t := range s.Turns {
		rec.Trials[i] = store.TrialRecord{
			TurnIndex: t.TurnIndex,
			PromptID:  t.PromptID,
			Prompt:    t.Prompt,
			Candidate: t.Candidate,
			Correct:   t.Correct,
			Skipped:   t.Skipped,
		}
	}
	return rec
}
