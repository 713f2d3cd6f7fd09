package speech

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/lexiquest/lexiquest/internal/activity"
)

// State is the input adapter's lifecycle position.
type State int

const (
	StateIdle State = iota
	StateRequestingPermission
	StateListening
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequestingPermission:
		return "requesting-permission"
	case StateListening:
		return "listening"
	default:
		return "unknown"
	}
}

// EventKind classifies input adapter events.
type EventKind int

const (
	// EventTranscript carries the current best full-utterance guess.
	EventTranscript EventKind = iota
	// EventError carries a retryable *activity.CaptureError. The adapter is Idle.
	EventError
	// EventEnded reports that the recognizer finished on its own.
	EventEnded
)

// Event is delivered on Input.Events.
type Event struct {
	Kind       EventKind
	Transcript string
	Err        error
}

const eventBuffer = 32

// Input is the speech input adapter. It owns at most one capture stream at a
// time and releases it on every exit path.
type Input struct {
	mic    Microphone
	rec    Recognizer
	lang   string
	logger *slog.Logger

	events chan Event
	closed chan struct{}

	mu      sync.Mutex
	state   State
	gen     uint64
	cancel  context.CancelFunc
	done    chan struct{}
	finals  []string
	interim string
	isShut  bool
}

// NewInput builds an input adapter over the given backends.
func NewInput(mic Microphone, rec Recognizer, lang string, logger *slog.Logger) *Input {
	if lang == "" {
		lang = DefaultLanguage
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Input{
		mic:    mic,
		rec:    rec,
		lang:   lang,
		logger: logger,
		events: make(chan Event, eventBuffer),
		closed: make(chan struct{}),
	}
}

// Events returns the adapter's event channel. It is never closed.
func (in *Input) Events() <-chan Event { return in.events }

// State returns the current lifecycle state.
func (in *Input) State() State {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.state
}

// Transcript returns the finalized segments plus the latest interim segment.
func (in *Input) Transcript() string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.transcriptLocked()
}

func (in *Input) transcriptLocked() string {
	parts := make([]string, 0, len(in.finals)+1)
	for _, f := range in.finals {
		if f = strings.TrimSpace(f); f != "" {
			parts = append(parts, f)
		}
	}
	if i := strings.TrimSpace(in.interim); i != "" {
		parts = append(parts, i)
	}
	return strings.Join(parts, " ")
}

// Start requests the microphone and begins listening. It blocks until
// permission is decided. A denial returns *activity.PermissionError and
// leaves the adapter Idle. Callers must Stop a previous recording first.
func (in *Input) Start(ctx context.Context) error {
	in.mu.Lock()
	if in.isShut {
		in.mu.Unlock()
		return ErrClosed
	}
	if in.state != StateIdle {
		in.mu.Unlock()
		return ErrRecording
	}
	in.gen++
	gen := in.gen
	runCtx, cancel := context.WithCancel(ctx)
	in.state = StateRequestingPermission
	in.cancel = cancel
	in.done = nil
	in.finals = nil
	in.interim = ""
	in.mu.Unlock()

	stream, err := in.mic.Acquire(runCtx)
	if err != nil {
		cancel()
		in.resetIfCurrent(gen)
		if errors.Is(err, ErrPermissionDenied) {
			in.logger.Info("microphone permission denied")
			return &activity.PermissionError{Err: err}
		}
		if runCtx.Err() != nil {
			return nil
		}
		return &activity.CaptureError{Err: err}
	}
	release := releaseOnce(stream, in.logger)

	results, err := in.rec.Recognize(runCtx, stream, in.lang)
	if err != nil {
		cancel()
		release()
		in.resetIfCurrent(gen)
		return &activity.CaptureError{Err: err}
	}

	in.mu.Lock()
	if in.gen != gen {
		// Stopped while the permission prompt was up.
		in.mu.Unlock()
		cancel()
		release()
		return nil
	}
	done := make(chan struct{})
	in.state = StateListening
	in.done = done
	in.mu.Unlock()

	go in.listen(cancel, gen, results, release, done)
	return nil
}

func (in *Input) listen(cancel context.CancelFunc, gen uint64, results <-chan Result, release func(), done chan struct{}) {
	defer close(done)
	defer release()
	defer cancel()

	var capErr error
	for r := range results {
		if r.Err != nil {
			capErr = r.Err
			break
		}
		in.mu.Lock()
		if in.gen != gen {
			in.mu.Unlock()
			return
		}
		if r.Final {
			in.finals = append(in.finals, r.Text)
			in.interim = ""
		} else {
			in.interim = r.Text
		}
		text := in.transcriptLocked()
		in.mu.Unlock()
		in.emit(Event{Kind: EventTranscript, Transcript: text}, false)
	}

	in.mu.Lock()
	if in.gen != gen {
		in.mu.Unlock()
		return
	}
	in.state = StateIdle
	in.cancel = nil
	in.done = nil
	text := in.transcriptLocked()
	in.mu.Unlock()

	cancel()
	release()

	if capErr != nil {
		in.logger.Debug("recognizer error", "err", capErr)
		in.emit(Event{
			Kind:       EventError,
			Transcript: text,
			Err:        &activity.CaptureError{NoSpeech: errors.Is(capErr, ErrNoSpeech), Err: capErr},
		}, true)
		return
	}
	in.emit(Event{Kind: EventEnded, Transcript: text}, true)
}

// emit delivers ev. Transcript updates are dropped when the buffer is full
// since each one replaces the last; terminal events wait for a reader or Close.
func (in *Input) emit(ev Event, terminal bool) {
	if !terminal {
		select {
		case in.events <- ev:
		default:
			in.logger.Debug("dropping transcript update")
		}
		return
	}
	select {
	case in.events <- ev:
	case <-in.closed:
	}
}

// Stop ends the current recording and returns its transcript. Stopping an
// Idle adapter is a no-op returning "".
func (in *Input) Stop() string {
	in.mu.Lock()
	if in.state == StateIdle {
		in.mu.Unlock()
		return ""
	}
	in.gen++
	cancel, done := in.cancel, in.done
	text := in.transcriptLocked()
	in.state = StateIdle
	in.cancel = nil
	in.done = nil
	in.finals = nil
	in.interim = ""
	in.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	return text
}

// Close stops any recording and refuses further starts.
func (in *Input) Close() {
	in.Stop()
	in.mu.Lock()
	defer in.mu.Unlock()
	if !in.isShut {
		in.isShut = true
		close(in.closed)
	}
}

func (in *Input) resetIfCurrent(gen uint64) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.gen == gen {
		in.state = StateIdle
		in.cancel = nil
	}
}

func releaseOnce(s Stream, logger *slog.Logger) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			if err := s.Close(); err != nil {
				logger.Warn("release microphone stream", "err", err)
			}
		})
	}
}
