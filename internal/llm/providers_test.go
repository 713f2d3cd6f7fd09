package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func serve(t *testing.T, status int, body any, seen *map[string]any) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, seen)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func openAIReply(content, finish string) map[string]any {
	return map[string]any{
		"id":     "chatcmpl-test",
		"object": "chat.completion",
		"model":  "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": finish,
		}},
		"usage": map[string]any{"prompt_tokens": 40, "completion_tokens": 25, "total_tokens": 65},
	}
}

func TestOpenAI_Complete(t *testing.T) {
	var seen map[string]any
	url := serve(t, http.StatusOK, openAIReply(`{"sentences":["The cat sat on the mat."]}`, "stop"), &seen)
	p, err := NewOpenAI(OpenAIConfig{APIKey: "k", Model: "gpt-mini", BaseURL: url + "/v1"})
	require.NoError(t, err)

	c, err := p.Complete(context.Background(), Request{
		System:    "You write reading practice for children.",
		Prompt:    "Write one sentence.",
		Schema:    sentencesSchema(),
		MaxTokens: 256,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"sentences":["The cat sat on the mat."]}`, string(c.JSON))
	assert.Equal(t, 40, c.InputTokens)
	assert.Equal(t, 25, c.OutputTokens)

	assert.Equal(t, "gpt-4o-mini", seen["model"])
	msgs, _ := seen["messages"].([]any)
	assert.Len(t, msgs, 2, "system and user message")
	format, _ := seen["response_format"].(map[string]any)
	assert.Equal(t, "json_schema", format["type"])
}

func TestOpenAI_SchemaMismatch(t *testing.T) {
	url := serve(t, http.StatusOK, openAIReply(`{"words":[]}`, "stop"), nil)
	p, err := NewOpenAI(OpenAIConfig{APIKey: "k", BaseURL: url + "/v1"})
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), Request{Prompt: "x", Schema: sentencesSchema()})
	var inv *InvalidOutputError
	assert.ErrorAs(t, err, &inv)
}

func TestOpenAI_Truncated(t *testing.T) {
	url := serve(t, http.StatusOK, openAIReply(`{"sentences":["The`, "length"), nil)
	p, err := NewOpenAI(OpenAIConfig{APIKey: "k", BaseURL: url + "/v1"})
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), Request{Prompt: "x", Schema: sentencesSchema(), MaxTokens: 5})
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestOpenAI_StatusErrors(t *testing.T) {
	apiErr := map[string]any{"error": map[string]any{"message": "nope", "type": "x"}}
	tests := []struct {
		status int
		check  func(t *testing.T, err error)
	}{
		{http.StatusTooManyRequests, func(t *testing.T, err error) {
			var rl *RateLimitError
			assert.ErrorAs(t, err, &rl)
		}},
		{http.StatusUnauthorized, func(t *testing.T, err error) {
			var rej *RejectedError
			assert.ErrorAs(t, err, &rej)
		}},
		{http.StatusServiceUnavailable, func(t *testing.T, err error) {
			var un *UnavailableError
			assert.ErrorAs(t, err, &un)
		}},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			url := serve(t, tt.status, apiErr, nil)
			p, err := NewOpenAI(OpenAIConfig{APIKey: "k", BaseURL: url + "/v1"})
			require.NoError(t, err)
			_, err = p.Complete(context.Background(), Request{Prompt: "x"})
			tt.check(t, err)
		})
	}
}

func TestNewOpenRouterDefaults(t *testing.T) {
	_, err := NewOpenRouter(OpenRouterConfig{})
	assert.ErrorContains(t, err, "openrouter: API key is required")

	p, err := NewOpenRouter(OpenRouterConfig{APIKey: "k", Model: "meta-llama/llama-3-8b"})
	require.NoError(t, err)
	assert.Equal(t, "openrouter", p.name)
	assert.Equal(t, "meta-llama/llama-3-8b", p.Model())
}

func anthropicReply(text, stop string) map[string]any {
	return map[string]any{
		"id":          "msg_test",
		"type":        "message",
		"role":        "assistant",
		"content":     []map[string]any{{"type": "text", "text": text}},
		"model":       "claude-haiku-4-5-20251001",
		"stop_reason": stop,
		"usage":       map[string]any{"input_tokens": 50, "output_tokens": 30},
	}
}

func TestAnthropic_Complete(t *testing.T) {
	var seen map[string]any
	url := serve(t, http.StatusOK, anthropicReply(`{"sentences":["We like to read."]}`, "end_turn"), &seen)
	p, err := NewAnthropic(AnthropicConfig{APIKey: "k", Model: "claude-haiku"}, option.WithBaseURL(url))
	require.NoError(t, err)

	c, err := p.Complete(context.Background(), Request{
		System:    "sys",
		Prompt:    "Write one sentence.",
		Schema:    sentencesSchema(),
		MaxTokens: 256,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"sentences":["We like to read."]}`, string(c.JSON))
	assert.Equal(t, 50, c.InputTokens)
	assert.Equal(t, "claude-haiku-4-5-20251001", seen["model"])
}

func TestAnthropic_Truncated(t *testing.T) {
	url := serve(t, http.StatusOK, anthropicReply(`{"sent`, "max_tokens"), nil)
	p, err := NewAnthropic(AnthropicConfig{APIKey: "k"}, option.WithBaseURL(url), option.WithMaxRetries(0))
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), Request{Prompt: "x", MaxTokens: 5})
	assert.True(t, errors.Is(err, ErrTruncated))
}

func TestAnthropic_RateLimit(t *testing.T) {
	body := map[string]any{"type": "error", "error": map[string]any{"type": "rate_limit_error", "message": "slow down"}}
	url := serve(t, http.StatusTooManyRequests, body, nil)
	p, err := NewAnthropic(AnthropicConfig{APIKey: "k"}, option.WithBaseURL(url), option.WithMaxRetries(0))
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), Request{Prompt: "x", MaxTokens: 5})
	var rl *RateLimitError
	assert.ErrorAs(t, err, &rl)
}

func TestGeminiSchema(t *testing.T) {
	s := geminiSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"sentences": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"level":     map[string]any{"type": "string", "enum": []any{"Beginner", "Expert"}},
		},
		"required":             []any{"sentences"},
		"additionalProperties": false,
	})

	assert.Equal(t, genai.TypeObject, s.Type)
	require.Len(t, s.Properties, 2)
	assert.Equal(t, genai.TypeArray, s.Properties["sentences"].Type)
	assert.Equal(t, genai.TypeString, s.Properties["sentences"].Items.Type)
	assert.Equal(t, []string{"Beginner", "Expert"}, s.Properties["level"].Enum)
	assert.Equal(t, []string{"sentences"}, s.Required)
}
