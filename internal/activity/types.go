// Package activity holds the data model shared by the engine: the activity
// kinds, prompts, trial outcomes, the difficulty scale and the error types
// callers tell apart.
package activity

import "fmt"

// Kind separates turn-limited mini-games from multi-item adaptive tests.
type Kind int

const (
	KindGame Kind = iota
	KindTest
)

func (k Kind) String() string {
	switch k {
	case KindGame:
		return "game"
	case KindTest:
		return "test"
	default:
		return "unknown"
	}
}

// SubKind identifies the concrete activity a session runs.
type SubKind string

const (
	WordJumble    SubKind = "word_jumble"
	MemoryMatch   SubKind = "memory_match"
	SpellingBee   SubKind = "spelling_bee"
	SpeechTest    SubKind = "speech_test"
	ListeningTest SubKind = "listening_test"
)

// AllSubKinds lists every activity in menu order.
func AllSubKinds() []SubKind {
	return []SubKind{WordJumble, MemoryMatch, SpellingBee, SpeechTest, ListeningTest}
}

// Kind returns whether the activity is a game or a test.
func (s SubKind) Kind() Kind {
	switch s {
	case SpeechTest, ListeningTest:
		return KindTest
	default:
		return KindGame
	}
}

// Valid reports whether s is a known activity.
func (s SubKind) Valid() bool {
	for _, k := range AllSubKinds() {
		if k == s {
			return true
		}
	}
	return false
}

// DisplayName returns the human-readable activity name.
func (s SubKind) DisplayName() string {
	switch s {
	case WordJumble:
		return "Word Jumble"
	case MemoryMatch:
		return "Memory Match"
	case SpellingBee:
		return "Spelling Bee"
	case SpeechTest:
		return "Speech Test"
	case ListeningTest:
		return "Listening Test"
	default:
		return string(s)
	}
}

// ParseSubKind accepts both wire names ("word_jumble") and CLI names ("word-jumble", "jumble").
func ParseSubKind(s string) (SubKind, error) {
	switch s {
	case "word_jumble", "word-jumble", "jumble":
		return WordJumble, nil
	case "memory_match", "memory-match", "memory":
		return MemoryMatch, nil
	case "spelling_bee", "spelling-bee", "spelling":
		return SpellingBee, nil
	case "speech_test", "speech-test", "speech":
		return SpeechTest, nil
	case "listening_test", "listening-test", "listening":
		return ListeningTest, nil
	}
	return "", fmt.Errorf("unknown activity %q", s)
}

// Prompt is a sentence or word drawn from a trial pool. Prompts are values
// and are never mutated after being drawn.
type Prompt struct {
	ID         string
	Text       string
	Difficulty Difficulty
}

// TrialOutcome is the record of one finalized trial. It is created when the
// trial is checked or skipped and is owned by the session thereafter.
type TrialOutcome struct {
	PromptID string
	Prompt   string

	// Candidate is nil when the trial was skipped.
	Candidate *string

	Correct   bool
	Skipped   bool
	TurnIndex int
}

// CandidateText returns the candidate answer or "" for skipped trials.
func (o TrialOutcome) CandidateText() string {
	if o.Candidate == nil {
		return ""
	}
	return *o.Candidate
}
