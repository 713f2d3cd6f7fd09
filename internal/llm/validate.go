package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

func (s *Schema) compile() (*jsonschema.Schema, error) {
	s.once.Do(func() {
		// The compiler wants decoded JSON values, not Go maps of arbitrary
		// types, so round-trip the definition.
		raw, err := json.Marshal(s.Definition)
		if err != nil {
			s.err = fmt.Errorf("marshal schema %q: %w", s.Name, err)
			return
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
		if err != nil {
			s.err = fmt.Errorf("decode schema %q: %w", s.Name, err)
			return
		}
		url := "mem://" + s.Name + ".json"
		c := jsonschema.NewCompiler()
		if err := c.AddResource(url, doc); err != nil {
			s.err = fmt.Errorf("add schema %q: %w", s.Name, err)
			return
		}
		s.compiled, s.err = c.Compile(url)
	})
	return s.compiled, s.err
}

// Check validates raw against the schema.
func (s *Schema) Check(raw json.RawMessage) error {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return &InvalidOutputError{Raw: raw, Err: fmt.Errorf("not JSON: %w", err)}
	}
	compiled, err := s.compile()
	if err != nil {
		return err
	}
	if err := compiled.Validate(doc); err != nil {
		return &InvalidOutputError{Raw: raw, Err: err}
	}
	return nil
}

// finish validates a reply body and builds the Completion.
func finish(req Request, body string, truncated bool, model string, in, out int) (*Completion, error) {
	raw := json.RawMessage(body)
	if truncated {
		return nil, fmt.Errorf("%w (%d tokens)", ErrTruncated, req.MaxTokens)
	}
	if req.Schema != nil {
		if err := req.Schema.Check(raw); err != nil {
			return nil, err
		}
	}
	return &Completion{JSON: raw, Model: model, InputTokens: in, OutputTokens: out}, nil
}
