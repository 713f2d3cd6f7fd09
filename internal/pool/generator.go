package pool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lexiquest/lexiquest/internal/activity"
	"github.com/lexiquest/lexiquest/internal/llm"
)

// sentenceSchema is the JSON schema for generated test content.
var sentenceSchema = &llm.Schema{
	Name:        "test-sentences",
	Description: "Sentences for a child's reading-aloud or listening test",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"sentences": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "string",
				},
				"description": "Plain sentences, one per test item",
			},
		},
		"required":             []any{"sentences"},
		"additionalProperties": false,
	},
}

const generatorSystemPrompt = `You write practice sentences for children aged 6-11 who are being screened for dyslexia.

Rules:
- Use plain words a child knows. No names, numbers written as digits, or abbreviations.
- Each sentence is a single line with ordinary punctuation.
- Match the requested difficulty: Beginner sentences have 5-7 short words, Expert sentences up to 15 words with longer words.
- Never repeat a sentence.`

// LLMGenerator produces test sentences with an LLM provider.
type LLMGenerator struct {
	provider    llm.Provider
	maxTokens   int
	temperature float64
}

// NewLLMGenerator creates a generator over provider.
func NewLLMGenerator(provider llm.Provider) *LLMGenerator {
	return &LLMGenerator{provider: provider, maxTokens: 1024, temperature: 0.7}
}

type sentencesOutput struct {
	Sentences []string `json:"sentences"`
}

func (g *LLMGenerator) Generate(ctx context.Context, sub activity.SubKind, d activity.Difficulty, n int) ([]string, error) {
	req := llm.Request{
		Purpose:     "test-content",
		System:      generatorSystemPrompt,
		Prompt:      buildGeneratorMessage(sub, d, n),
		Schema:      sentenceSchema,
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	}

	resp, err := g.provider.Complete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("LLM generation failed: %w", err)
	}

	var out sentencesOutput
	if err := json.Unmarshal(resp.JSON, &out); err != nil {
		return nil, fmt.Errorf("failed to parse LLM response: %w", err)
	}
	if len(out.Sentences) < n {
		return nil, fmt.Errorf("LLM returned %d sentences, want %d", len(out.Sentences), n)
	}
	return out.Sentences[:n], nil
}

func buildGeneratorMessage(sub activity.SubKind, d activity.Difficulty, n int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Test: %s\n", sub.DisplayName())
	switch sub {
	case activity.SpeechTest:
		b.WriteString("The child reads each sentence aloud.\n")
	case activity.ListeningTest:
		b.WriteString("Each sentence is spoken to the child, who types what they heard. Avoid punctuation other than a final period.\n")
	}
	fmt.Fprintf(&b, "Difficulty: %s (%.1f on a 0.5-3.0 scale)\n", d.Label(), float64(d))
	fmt.Fprintf(&b, "Sentences needed: %d\n", n)
	return b.String()
}
