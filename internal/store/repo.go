package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// QueryOpts configures journal queries with filtering and pagination.
type QueryOpts struct {
	Limit    int       // max results (0 = unlimited)
	After    int64     // sequence > After
	Before   int64     // sequence < Before
	From     time.Time // timestamp >= From
	To       time.Time // timestamp <= To
	Activity string    // only this activity ("" = all)
}

// TrialRecord is one journaled trial outcome.
type TrialRecord struct {
	TurnIndex int
	PromptID  string
	Prompt    string
	Candidate *string // nil when skipped
	Correct   bool
	Skipped   bool
}

// SessionRecord is a submitted session as kept in the journal.
type SessionRecord struct {
	ID         string
	Sequence   int64
	Activity   string
	Kind       string
	Score      int
	Level      int
	TurnLimit  int
	Difficulty float64
	Degraded   bool

	// Set for tests only.
	MeanAccuracy  *float64
	NewDifficulty *float64

	StartedAt   time.Time
	CompletedAt time.Time
	SubmittedAt time.Time

	// Trials is filled by GetSession; ListSessions leaves it nil.
	Trials []TrialRecord
}

// Correct counts correct trials.
func (r SessionRecord) Correct() int {
	n := 0
	for _, t := range r.Trials {
		if t.Correct {
			n++
		}
	}
	return n
}

// ActivitySummary aggregates journaled sessions of one activity.
type ActivitySummary struct {
	Activity     string
	Sessions     int
	BestScore    int
	AvgScore     float64
	AvgAccuracy  *float64 // tests only
	LastPlayedAt time.Time
}

// SessionRepo is the journal of submitted sessions.
type SessionRepo interface {
	// RecordSession stores a session and its trials atomically.
	RecordSession(ctx context.Context, rec SessionRecord) error

	// ListSessions returns sessions newest first, without trials.
	ListSessions(ctx context.Context, opts QueryOpts) ([]SessionRecord, error)

	// GetSession returns one session with its trials, or ErrNotFound.
	GetSession(ctx context.Context, id string) (*SessionRecord, error)

	// Summaries aggregates sessions per activity.
	Summaries(ctx context.Context) ([]ActivitySummary, error)
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEvent is a stored LLM request event.
type LLMRequestEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// EventRepo provides append and query access to LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error)

	// GetLLMEvent returns one event, or nil if it does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEvent, error)
}

// SnapshotData is the locally cached learner profile.
type SnapshotData struct {
	Version int `json:"version"`
	UserID  int `json:"user_id"`

	// Difficulty is the last value the scoring service reported.
	Difficulty float64 `json:"difficulty"`
}

// Snapshot is a point-in-time capture of the learner profile.
type Snapshot struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	Data      SnapshotData
}

// SnapshotRepo manages profile snapshots.
type SnapshotRepo interface {
	// Save stores a new snapshot.
	Save(ctx context.Context, snap *Snapshot) error

	// Latest returns the most recent snapshot, or nil if none exist.
	Latest(ctx context.Context) (*Snapshot, error)

	// Prune deletes all but the N most recent snapshots.
	Prune(ctx context.Context, keep int) error
}
