package activity

import (
	"errors"
	"fmt"
	"testing"
)

func TestDifficultyLabel(t *testing.T) {
	tests := []struct {
		d    Difficulty
		want string
	}{
		{0.5, "Beginner"},
		{1.0, "Beginner"},
		{1.29, "Beginner"},
		{1.3, "Easy"},
		{1.79, "Easy"},
		{1.8, "Medium"},
		{2.3, "Hard"},
		{2.79, "Hard"},
		{2.8, "Expert"},
		{3.0, "Expert"},
	}
	for _, tt := range tests {
		if got := tt.d.Label(); got != tt.want {
			t.Errorf("Difficulty(%v).Label() = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestDifficultyClampAndFraction(t *testing.T) {
	if got := Difficulty(0.1).Clamp(); got != MinDifficulty {
		t.Errorf("Clamp low = %v, want %v", got, MinDifficulty)
	}
	if got := Difficulty(9).Clamp(); got != MaxDifficulty {
		t.Errorf("Clamp high = %v, want %v", got, MaxDifficulty)
	}
	if got := MinDifficulty.Fraction(); got != 0 {
		t.Errorf("Fraction(min) = %v, want 0", got)
	}
	if got := MaxDifficulty.Fraction(); got != 1 {
		t.Errorf("Fraction(max) = %v, want 1", got)
	}
}

func TestSubKind(t *testing.T) {
	for _, sk := range AllSubKinds() {
		if !sk.Valid() {
			t.Errorf("%s should be valid", sk)
		}
		parsed, err := ParseSubKind(string(sk))
		if err != nil || parsed != sk {
			t.Errorf("ParseSubKind(%q) = %q, %v", sk, parsed, err)
		}
	}
	if WordJumble.Kind() != KindGame || SpeechTest.Kind() != KindTest {
		t.Error("unexpected kind mapping")
	}
	if _, err := ParseSubKind("chess"); err == nil {
		t.Error("expected error for unknown activity")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"permission", &PermissionError{}, true},
		{"capture", &CaptureError{NoSpeech: true}, true},
		{"scoring wrapped", fmt.Errorf("submit: %w", &ScoringError{Endpoint: "x", StatusCode: 500}), true},
		{"validation", &ValidationError{Field: "answer", Reason: "empty"}, false},
		{"plain", errors.New("boom"), false},
	}
	for _, tt := range tests {
		if got := IsRetryable(tt.err); got != tt.want {
			t.Errorf("%s: IsRetryable = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestScoringErrorMessage(t *testing.T) {
	decode := errors.New("decode response: unexpected EOF")
	tests := []struct {
		err  *ScoringError
		want string
	}{
		{&ScoringError{Endpoint: "speech-test", StatusCode: 500, Message: "db down"}, "scoring speech-test: status 500: db down"},
		{&ScoringError{Endpoint: "speech-test", StatusCode: 200, Err: decode}, "scoring speech-test: status 200: decode response: unexpected EOF"},
		{&ScoringError{Endpoint: "speech-test", StatusCode: 502}, "scoring speech-test: status 502"},
		{&ScoringError{Endpoint: "speech-test", Err: errors.New("connection refused")}, "scoring speech-test: connection refused"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestTrialOutcomeCandidateText(t *testing.T) {
	if got := (TrialOutcome{Skipped: true}).CandidateText(); got != "" {
		t.Errorf("skipped CandidateText = %q, want empty", got)
	}
	ans := "cat"
	if got := (TrialOutcome{Candidate: &ans}).CandidateText(); got != "cat" {
		t.Errorf("CandidateText = %q, want cat", got)
	}
}
