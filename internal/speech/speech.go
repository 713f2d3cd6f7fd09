// Package speech wraps the asynchronous speech backends used by trials:
// a permission-gated microphone feeding a streaming recognizer, and a
// text-to-speech synthesizer. Backends are interfaces so the engine can run
// against command-line tools, remote services or scripted fakes.
package speech

import (
	"context"
	"errors"
)

// DefaultLanguage is the recognition and synthesis locale.
const DefaultLanguage = "en-US"

// Sentinel conditions reported by backends.
var (
	// ErrPermissionDenied is returned by Microphone.Acquire when access is refused.
	ErrPermissionDenied = errors.New("microphone permission denied")

	// ErrNoSpeech is delivered by a Recognizer when it heard nothing.
	ErrNoSpeech = errors.New("no speech detected")

	ErrRecording = errors.New("recording already in progress")
	ErrClosed    = errors.New("speech adapter closed")
)

// Stream is an acquired capture device. Close stops its tracks.
type Stream interface {
	Close() error
}

// Microphone grants capture streams. Acquire blocks while the user or OS
// decides on permission.
type Microphone interface {
	Acquire(ctx context.Context) (Stream, error)
}

// Result is one update from a recognizer. A non-nil Err is terminal.
type Result struct {
	Text  string
	Final bool
	Err   error
}

// Recognizer turns a stream into transcript updates. The returned channel
// is closed when recognition ends, either because ctx was cancelled or
// because the backend finished.
type Recognizer interface {
	Recognize(ctx context.Context, s Stream, lang string) (<-chan Result, error)
}

// Voice holds the fixed presentation parameters for synthesis.
type Voice struct {
	Rate  float64
	Pitch float64
	Lang  string
}

// DefaultVoice is slowed down and slightly raised for young listeners.
var DefaultVoice = Voice{Rate: 0.8, Pitch: 1.2, Lang: DefaultLanguage}

// Synthesizer speaks text and blocks until playback ends. Cancelling ctx
// must stop playback.
type Synthesizer interface {
	Speak(ctx context.Context, text string, v Voice) error
}

// Backends bundles what a session needs to build its adapters. Any field
// may be nil; the matching adapter is then unavailable.
type Backends struct {
	Microphone  Microphone
	Recognizer  Recognizer
	Synthesizer Synthesizer
	Language    string
}

// CanRecord reports whether speech capture is possible.
func (b Backends) CanRecord() bool {
	return b.Microphone != nil && b.Recognizer != nil
}

// CanSpeak reports whether prompts can be spoken aloud.
func (b Backends) CanSpeak() bool {
	return b.Synthesizer != nil
}
