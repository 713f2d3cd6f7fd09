package speech

import (
	"context"
	"sync"
	"time"
)

// MockMicrophone is a deterministic Microphone for testing. It records how
// many streams were acquired and released.
type MockMicrophone struct {
	mu       sync.Mutex
	Err      error
	acquired int
	released int
}

func (m *MockMicrophone) Acquire(ctx context.Context) (Stream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.acquired++
	return &mockStream{mic: m}, nil
}

// SetErr changes the error returned by subsequent Acquire calls.
func (m *MockMicrophone) SetErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Err = err
}

// Acquired returns the number of streams handed out.
func (m *MockMicrophone) Acquired() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acquired
}

// Released returns the number of streams closed.
func (m *MockMicrophone) Released() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.released
}

type mockStream struct {
	mic  *MockMicrophone
	once sync.Once
}

func (s *mockStream) Close() error {
	s.once.Do(func() {
		s.mic.mu.Lock()
		s.mic.released++
		s.mic.mu.Unlock()
	})
	return nil
}

// MockRecognizer replays a script of results for every Recognize call.
// Unless EndAfterScript is set it then keeps listening until cancelled,
// like continuous browser recognition.
type MockRecognizer struct {
	Script         []Result
	EndAfterScript bool
	Err            error

	mu    sync.Mutex
	calls int
}

func (r *MockRecognizer) Recognize(ctx context.Context, _ Stream, _ string) (<-chan Result, error) {
	r.mu.Lock()
	r.calls++
	script := append([]Result(nil), r.Script...)
	r.mu.Unlock()

	if r.Err != nil {
		return nil, r.Err
	}

	out := make(chan Result)
	go func() {
		defer close(out)
		for _, res := range script {
			select {
			case out <- res:
			case <-ctx.Done():
				return
			}
			if res.Err != nil {
				return
			}
		}
		if r.EndAfterScript {
			return
		}
		<-ctx.Done()
	}()
	return out, nil
}

// Calls returns the number of Recognize calls.
func (r *MockRecognizer) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// MockSynthesizer records spoken text. With Delay set it blocks until the
// delay elapses or the context is cancelled.
type MockSynthesizer struct {
	Delay time.Duration
	Err   error

	mu     sync.Mutex
	spoken []string
}

func (s *MockSynthesizer) Speak(ctx context.Context, text string, _ Voice) error {
	s.mu.Lock()
	s.spoken = append(s.spoken, text)
	delay, err := s.Delay, s.Err
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// SetDelay changes the playback duration of subsequent utterances.
func (s *MockSynthesizer) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Delay = d
}

// Spoken returns every text passed to Speak, in order.
func (s *MockSynthesizer) Spoken() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.spoken...)
}
