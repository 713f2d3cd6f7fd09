package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// MockReply is one scripted reply. Err, when set, is returned instead.
type MockReply struct {
	JSON json.RawMessage
	Err  error
}

// Mock replays scripted replies in order and records requests. Once the
// script runs out it fails with *UnavailableError.
type Mock struct {
	mu       sync.Mutex
	script   []MockReply
	requests []Request
}

// NewMock creates a Mock with the given script.
func NewMock(replies ...MockReply) *Mock {
	return &Mock{script: replies}
}

func (m *Mock) Model() string { return "mock" }

func (m *Mock) Complete(_ context.Context, req Request) (*Completion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)

	if len(m.script) == 0 {
		return nil, &UnavailableError{Provider: "mock"}
	}
	next := m.script[0]
	m.script = m.script[1:]
	if next.Err != nil {
		return nil, next.Err
	}
	return &Completion{
		JSON:         next.JSON,
		Model:        "mock",
		InputTokens:  len(req.System+req.Prompt) / 4,
		OutputTokens: len(next.JSON) / 4,
	}, nil
}

// Requests returns a copy of the requests seen so far.
func (m *Mock) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}
