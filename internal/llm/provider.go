// Package llm asks a hosted language model for structured JSON. It backs
// the generated test content used when the scoring service cannot supply
// adaptive sentences.
package llm

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Provider turns one prompt into one JSON document.
type Provider interface {
	Complete(ctx context.Context, req Request) (*Completion, error)

	// Model is the configured model ID.
	Model() string
}

// Request is a single-turn prompt.
type Request struct {
	// Purpose labels the request in the event journal, e.g. "test-content".
	Purpose string

	System string
	Prompt string

	// Schema, when set, asks the provider for JSON matching it and the
	// reply is checked before it is returned.
	Schema *Schema

	MaxTokens   int
	Temperature float64
}

// Schema is a named JSON Schema. The compiled form is built on first use.
type Schema struct {
	// Name is sent as the schema or tool name, e.g. "test-sentences".
	Name        string
	Description string
	Definition  map[string]any

	once     sync.Once
	compiled *jsonschema.Schema
	err      error
}

// Completion is a provider's reply.
type Completion struct {
	// JSON is the reply body. Without a Schema it is whatever text the
	// model produced.
	JSON json.RawMessage

	// Model is the model that actually served the request.
	Model string

	InputTokens  int
	OutputTokens int
}
