package session

import (
	"time"

	"github.com/lexiquest/lexiquest/internal/activity"
	"github.com/lexiquest/lexiquest/internal/pool"
	"github.com/lexiquest/lexiquest/internal/scoring"
)

// Phase is the lifecycle position of a session.
type Phase int

const (
	// PhaseNotStarted means Start has not been called.
	PhaseNotStarted Phase = iota
	// PhaseInProgress means trials are being run.
	PhaseInProgress
	// PhaseCompleted means the turn ceiling was reached or the board solved.
	PhaseCompleted
	// PhaseSubmitted means the scoring service accepted the results.
	PhaseSubmitted
	// PhaseAbandoned means the session was discarded and its adapters closed.
	PhaseAbandoned
)

func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not-started"
	case PhaseInProgress:
		return "in-progress"
	case PhaseCompleted:
		return "completed"
	case PhaseSubmitted:
		return "submitted"
	case PhaseAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// Turn ceilings and scoring.
const (
	GameTurnLimit    = 11
	TestItemLimit    = pool.TestItems
	PointsPerCorrect = 10
	PairsPerBoard    = 6
)

// Presentation delays. The presenter waits these out before asking the
// controller for the next trial.
const (
	CorrectDelay        = 1500 * time.Millisecond
	SkipDelay           = 1 * time.Second
	FlipBackDelay       = 1 * time.Second
	SpellingPromptDelay = 500 * time.Millisecond
)

// LevelDivisor returns the points per level for a game, or 0 for tests.
func LevelDivisor(sub activity.SubKind) int {
	switch sub {
	case activity.WordJumble:
		return 50
	case activity.MemoryMatch:
		return 60
	case activity.SpellingBee:
		return 100
	}
	return 0
}

// TurnLimit returns the turn ceiling for an activity.
func TurnLimit(sub activity.SubKind) int {
	if sub.Kind() == activity.KindTest {
		return TestItemLimit
	}
	return GameTurnLimit
}

// Session is the record of one run of an activity.
type Session struct {
	ID        string
	Activity  activity.SubKind
	Phase     Phase
	TurnLimit int

	// Turns holds finalized trials in order. len(Turns) never exceeds
	// TurnLimit.
	Turns []activity.TrialOutcome
	Score int

	// Difficulty is the level the session's content was drawn at.
	Difficulty activity.Difficulty

	// Prompts is the fixed prompt list of a test.
	Prompts       []activity.Prompt
	ContentSource pool.Source
	Degraded      bool
	ContentErr    error

	StartedAt   time.Time
	CompletedAt time.Time
	SubmittedAt time.Time

	// Set by a successful test submission.
	Results       []scoring.TrialResult
	MeanAccuracy  float64
	NewDifficulty activity.Difficulty
}

// Kind returns Game or Test.
func (s *Session) Kind() activity.Kind { return s.Activity.Kind() }

// Level is floor(score/divisor)+1 for games and 0 for tests.
func (s *Session) Level() int {
	div := LevelDivisor(s.Activity)
	if div == 0 {
		return 0
	}
	return s.Score/div + 1
}

// CorrectCount counts correct trials.
func (s *Session) CorrectCount() int {
	n := 0
	for _, t := range s.Turns {
		if t.Correct {
			n++
		}
	}
	return n
}

// Elapsed is the time from start to completion, or zero while running.
func (s *Session) Elapsed() time.Duration {
	if s.CompletedAt.IsZero() {
		return 0
	}
	return s.CompletedAt.Sub(s.StartedAt)
}

// Done reports whether the session reached Completed or Submitted.
func (s *Session) Done() bool {
	return s.Phase == PhaseCompleted || s.Phase == PhaseSubmitted
}
