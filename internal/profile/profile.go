// Package profile keeps the learner's local state between runs: the
// session journal and the last difficulty the scoring service reported.
package profile

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/lexiquest/lexiquest/internal/activity"
	"github.com/lexiquest/lexiquest/internal/store"
)

// SnapshotVersion is written into every saved snapshot.
const SnapshotVersion = 1

// KeepSnapshots is how many difficulty snapshots survive a prune.
const KeepSnapshots = 10

// Profile journals submitted sessions and remembers the difficulty. It
// satisfies session.Journal.
type Profile struct {
	sessions store.SessionRepo
	snaps    store.SnapshotRepo
	userID   int
	fallback activity.Difficulty
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Profile.
type Option func(*Profile)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(p *Profile) { p.logger = l } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(p *Profile) { p.now = now } }

// New creates a profile for userID. fallback is used until the scoring
// service has reported a difficulty.
func New(sessions store.SessionRepo, snaps store.SnapshotRepo, userID int, fallback activity.Difficulty, opts ...Option) *Profile {
	p := &Profile{
		sessions: sessions,
		snaps:    snaps,
		userID:   userID,
		fallback: fallback.Clamp(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Difficulty returns the last reported difficulty for this user. Snapshots
// written for another user id are ignored.
func (p *Profile) Difficulty(ctx context.Context) activity.Difficulty {
	snap, err := p.snaps.Latest(ctx)
	if err != nil {
		p.logger.Warn("read difficulty snapshot", "err", err)
		return p.fallback
	}
	if snap == nil || snap.Data.UserID != p.userID || snap.Data.Difficulty == 0 {
		return p.fallback
	}
	return activity.Difficulty(snap.Data.Difficulty).Clamp()
}

// RecordSession journals rec and, for tests that updated the difficulty,
// snapshots the new value.
func (p *Profile) RecordSession(ctx context.Context, rec store.SessionRecord) error {
	if err := p.sessions.RecordSession(ctx, rec); err != nil {
		return err
	}
	if rec.NewDifficulty == nil {
		return nil
	}
	return p.SaveDifficulty(ctx, activity.Difficulty(*rec.NewDifficulty))
}

// SaveDifficulty snapshots d and prunes old snapshots.
func (p *Profile) SaveDifficulty(ctx context.Context, d activity.Difficulty) error {
	err := p.snaps.Save(ctx, &store.Snapshot{
		Timestamp: p.now(),
		Data: store.SnapshotData{
			Version:    SnapshotVersion,
			UserID:     p.userID,
			Difficulty: float64(d.Clamp()),
		},
	})
	if err != nil {
		return err
	}
	if err := p.snaps.Prune(ctx, KeepSnapshots); err != nil {
		p.logger.Warn("prune snapshots", "err", err)
	}
	return nil
}

// SessionsPlayed counts journaled sessions across all activities.
func (p *Profile) SessionsPlayed(ctx context.Context) (int, error) {
	sums, err := p.sessions.Summaries(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, s := range sums {
		n += s.Sessions
	}
	return n, nil
}

// Sessions exposes the journal for the history views.
func (p *Profile) Sessions() store.SessionRepo { return p.sessions }
