package speech

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
)

// PlaybackResult reports how an utterance ended.
type PlaybackResult struct {
	Text     string
	Canceled bool
	Err      error
}

// Output is the speech output adapter. At most one utterance plays at a time.
type Output struct {
	synth  Synthesizer
	voice  Voice
	logger *slog.Logger

	mu      sync.Mutex
	gen     uint64
	playing bool
	cancel  context.CancelFunc
	done    chan struct{}
	isShut  bool
}

// NewOutput builds an output adapter speaking with voice.
func NewOutput(synth Synthesizer, voice Voice, logger *slog.Logger) *Output {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Output{synth: synth, voice: voice, logger: logger}
}

// Play cancels any in-flight utterance, waits for it to stop, then speaks
// text. The returned channel yields exactly one result and is then closed.
func (o *Output) Play(ctx context.Context, text string) <-chan PlaybackResult {
	res := make(chan PlaybackResult, 1)

	o.Cancel()

	o.mu.Lock()
	if o.isShut {
		o.mu.Unlock()
		res <- PlaybackResult{Text: text, Err: ErrClosed}
		close(res)
		return res
	}
	o.gen++
	gen := o.gen
	playCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	o.playing = true
	o.cancel = cancel
	o.done = done
	o.mu.Unlock()

	go func() {
		defer close(done)
		defer cancel()

		err := o.synth.Speak(playCtx, text, o.voice)
		canceled := playCtx.Err() != nil && (err == nil || errors.Is(err, context.Canceled))

		o.mu.Lock()
		if o.gen == gen {
			o.playing = false
			o.cancel = nil
			o.done = nil
		}
		o.mu.Unlock()

		r := PlaybackResult{Text: text, Canceled: canceled}
		if err != nil && !canceled {
			o.logger.Warn("speech synthesis failed", "err", err)
			r.Err = err
		}
		res <- r
		close(res)
	}()
	return res
}

// Playing reports whether an utterance is in flight.
func (o *Output) Playing() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.playing
}

// Cancel stops the in-flight utterance, if any, and waits for it to end.
func (o *Output) Cancel() {
	o.mu.Lock()
	cancel, done := o.cancel, o.done
	o.gen++
	o.playing = false
	o.cancel = nil
	o.done = nil
	o.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Close cancels playback and refuses further utterances.
func (o *Output) Close() {
	o.Cancel()
	o.mu.Lock()
	o.isShut = true
	o.mu.Unlock()
}
