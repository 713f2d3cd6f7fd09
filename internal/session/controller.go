// Package session implements the session controller: the state machine that
// draws content, runs trials up to the turn ceiling, keeps score and submits
// the finished session.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lexiquest/lexiquest/internal/activity"
	"github.com/lexiquest/lexiquest/internal/pool"
	"github.com/lexiquest/lexiquest/internal/scoring"
	"github.com/lexiquest/lexiquest/internal/speech"
	"github.com/lexiquest/lexiquest/internal/store"
	"github.com/lexiquest/lexiquest/internal/trial"
)

// ErrNoGateway is returned by Submit when no scoring service is configured.
var ErrNoGateway = errors.New("no scoring service configured")

// Gateway is the part of the scoring client the controller needs.
type Gateway interface {
	SubmitItems(ctx context.Context, sub activity.SubKind, userID int, items []scoring.Item) ([]scoring.TrialResult, error)
	UpdateDifficulty(ctx context.Context, userID int, meanAccuracy float64) (activity.Difficulty, error)
	SubmitGameScore(ctx context.Context, gs scoring.GameScore) error
}

// Journal records submitted sessions locally.
type Journal interface {
	RecordSession(ctx context.Context, rec store.SessionRecord) error
}

// Config holds the controller's collaborators.
type Config struct {
	Activity   activity.SubKind
	UserID     int
	Difficulty activity.Difficulty

	Pool    *pool.Pool
	Gateway Gateway
	Speech  speech.Backends
	Journal Journal // optional
	Logger  *slog.Logger
	Now     func() time.Time
}

// Controller runs one activity at a time. It is driven from a single
// goroutine (the TUI update loop) and is not safe for concurrent use.
type Controller struct {
	cfg        Config
	difficulty activity.Difficulty
	logger     *slog.Logger

	phase  Phase
	sess   *Session
	runner *trial.Runner

	current   activity.Prompt
	jumble    *trial.Jumble
	board     *trial.Board
	itemStart time.Time
	itemTimes []time.Duration
}

// New creates a controller in PhaseNotStarted.
func New(cfg Config) (*Controller, error) {
	if !cfg.Activity.Valid() {
		return nil, &activity.ValidationError{Field: "activity", Reason: fmt.Sprintf("unknown activity %q", cfg.Activity)}
	}
	if cfg.Pool == nil {
		return nil, &activity.ValidationError{Field: "pool", Reason: "a trial pool is required"}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	d := cfg.Difficulty
	if d == 0 {
		d = activity.DefaultDifficulty
	}
	return &Controller{
		cfg:        cfg,
		difficulty: d,
		logger:     cfg.Logger.With("activity", string(cfg.Activity)),
	}, nil
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase { return c.phase }

// Activity returns the activity this controller runs.
func (c *Controller) Activity() activity.SubKind { return c.cfg.Activity }

// Session returns the current session, or nil before Start and after
// Abandon. The returned value must not be modified.
func (c *Controller) Session() *Session { return c.sess }

// Difficulty returns the user's difficulty as last reported by the
// scoring service.
func (c *Controller) Difficulty() activity.Difficulty { return c.difficulty }

// Current returns the prompt of the trial being run.
func (c *Controller) Current() activity.Prompt { return c.current }

// Jumble returns the word-jumble trial state, or nil for other activities.
func (c *Controller) Jumble() *trial.Jumble { return c.jumble }

// Board returns the memory-match board, or nil for other activities.
func (c *Controller) Board() *trial.Board { return c.board }

// Runner returns the trial runner of the current session.
func (c *Controller) Runner() *trial.Runner { return c.runner }

// Draw is content fetched by Prepare for a session that has not begun.
type Draw struct {
	activity   activity.SubKind
	difficulty activity.Difficulty
	set        pool.Set
}

// Start draws content and begins a session. It is valid before the first
// session and after one has completed; a restart discards the previous
// session and draws fresh content.
func (c *Controller) Start(ctx context.Context) error {
	if err := c.startable(); err != nil {
		return err
	}
	dr, err := c.Prepare(ctx, c.difficulty)
	if err != nil {
		return err
	}
	return c.Begin(dr)
}

func (c *Controller) startable() error {
	switch c.phase {
	case PhaseInProgress:
		return activity.ErrAlreadyStarted
	case PhaseAbandoned:
		return activity.ErrAbandoned
	}
	return nil
}

// Prepare fetches what a session needs before it can begin: the fixed
// prompt set for a test, which may wait on the network, and nothing for a
// game. It reads no session state and may run off the goroutine that
// drives the controller.
func (c *Controller) Prepare(ctx context.Context, d activity.Difficulty) (*Draw, error) {
	sub := c.cfg.Activity
	dr := &Draw{activity: sub, difficulty: d}
	if sub.Kind() != activity.KindTest {
		return dr, nil
	}
	set, err := c.cfg.Pool.Draw(ctx, sub, c.cfg.UserID, d)
	if err != nil {
		return nil, fmt.Errorf("draw test content: %w", err)
	}
	dr.set = set
	return dr, nil
}

// Begin starts a session from a prepared draw. Like Start it fails once
// the controller has been abandoned, so a draw that arrives after its
// screen closed is dropped.
func (c *Controller) Begin(dr *Draw) error {
	if err := c.startable(); err != nil {
		return err
	}
	sub := c.cfg.Activity
	if dr == nil || dr.activity != sub {
		return errors.New("session: draw was prepared for another activity")
	}
	sess := &Session{
		ID:         uuid.NewString(),
		Activity:   sub,
		Phase:      PhaseInProgress,
		TurnLimit:  TurnLimit(sub),
		Difficulty: dr.difficulty,
	}

	var (
		first  activity.Prompt
		jumble *trial.Jumble
		board  *trial.Board
	)
	rng := c.cfg.Pool.Rand()
	switch sub {
	case activity.WordJumble, activity.SpellingBee:
		p, err := c.cfg.Pool.Next(sub, dr.difficulty)
		if err != nil {
			return fmt.Errorf("draw prompt: %w", err)
		}
		first = p
		if sub == activity.WordJumble {
			jumble = trial.NewJumble(p, rng)
		}
	case activity.MemoryMatch:
		b, err := trial.Deal(c.cfg.Pool.Pairs(), PairsPerBoard, rng)
		if err != nil {
			return fmt.Errorf("deal board: %w", err)
		}
		board = b
	default:
		set := dr.set
		if len(set.Prompts) != TestItemLimit {
			return fmt.Errorf("draw test content: got %d prompts, need %d", len(set.Prompts), TestItemLimit)
		}
		sess.Prompts = set.Prompts
		sess.ContentSource = set.Source
		sess.Degraded = set.Degraded
		sess.ContentErr = set.Err
		if set.Source == pool.SourceRemote {
			sess.Difficulty = set.Difficulty
		}
		first = set.Prompts[0]
		if set.Degraded {
			c.logger.Warn("using fallback test content", "source", set.Source, "err", set.Err)
		}
	}

	if c.runner != nil {
		c.runner.Close()
	}
	c.runner = trial.NewRunner(sub, c.cfg.Speech, c.cfg.Logger)
	c.sess = sess
	c.current = first
	c.jumble = jumble
	c.board = board
	c.itemTimes = c.itemTimes[:0]
	c.itemStart = c.cfg.Now()
	sess.StartedAt = c.itemStart
	c.phase = PhaseInProgress

	c.logger.Info("session started", "session", sess.ID, "difficulty", float64(sess.Difficulty))
	return nil
}

// Present readies the current trial for display, speaking its prompt when
// the activity calls for it.
func (c *Controller) Present(ctx context.Context) (trial.Presentation, error) {
	if c.phase != PhaseInProgress {
		return trial.Presentation{}, activity.ErrNotInProgress
	}
	if c.board != nil {
		return trial.Presentation{Board: c.board}, nil
	}
	pr := c.runner.Present(ctx, c.current)
	pr.Jumble = c.jumble
	if c.cfg.Activity.Kind() == activity.KindTest {
		c.itemStart = c.cfg.Now()
	}
	return pr, nil
}

// Abandon discards the session and releases its adapters. A controller
// cannot be restarted after Abandon.
func (c *Controller) Abandon() {
	if c.phase == PhaseAbandoned {
		return
	}
	if c.runner != nil {
		c.runner.Close()
	}
	if c.sess != nil {
		c.logger.Info("session abandoned", "session", c.sess.ID, "phase", c.phase, "turns", len(c.sess.Turns))
	}
	c.phase = PhaseAbandoned
	c.sess = nil
	c.jumble = nil
	c.board = nil
}

func (c *Controller) requireActivity(subs ...activity.SubKind) error {
	if c.phase != PhaseInProgress {
		return activity.ErrNotInProgress
	}
	for _, s := range subs {
		if s == c.cfg.Activity {
			return nil
		}
	}
	return activity.ErrWrongActivity
}

// finalize appends an outcome and completes the session when the ceiling
// is reached.
func (c *Controller) finalize(o activity.TrialOutcome) activity.TrialOutcome {
	if len(c.sess.Turns) >= c.sess.TurnLimit {
		panic("session: turn appended past ceiling")
	}
	o.TurnIndex = len(c.sess.Turns)
	c.sess.Turns = append(c.sess.Turns, o)
	if o.Correct && c.sess.Kind() == activity.KindGame {
		c.sess.Score += PointsPerCorrect
	}
	if len(c.sess.Turns) == c.sess.TurnLimit {
		c.complete()
	}
	return o
}

func (c *Controller) complete() {
	c.runner.StopRecording()
	c.phase = PhaseCompleted
	c.sess.Phase = PhaseCompleted
	c.sess.CompletedAt = c.cfg.Now()
	c.logger.Info("session completed", "session", c.sess.ID,
		"turns", len(c.sess.Turns), "score", c.sess.Score, "correct", c.sess.CorrectCount())
}
