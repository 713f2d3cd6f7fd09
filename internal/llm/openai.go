package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenAI talks to the Chat Completions API of OpenAI or any compatible
// service, including OpenRouter.
type OpenAI struct {
	name   string
	client *openai.Client
	model  string
}

// NewOpenAI creates an OpenAI provider.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	return newOpenAICompatible("openai", cfg.APIKey, cfg.BaseURL, modelID("openai", cfg.Model))
}

// NewOpenRouter creates a provider for OpenRouter's OpenAI-compatible API.
func NewOpenRouter(cfg OpenRouterConfig) (*OpenAI, error) {
	base := cfg.BaseURL
	if base == "" {
		base = openRouterBaseURL
	}
	return newOpenAICompatible("openrouter", cfg.APIKey, base, cfg.Model)
}

func newOpenAICompatible(name, key, baseURL, model string) (*OpenAI, error) {
	if key == "" {
		return nil, fmt.Errorf("%s: API key is required", name)
	}
	c := openai.DefaultConfig(key)
	if baseURL != "" {
		c.BaseURL = baseURL
	}
	return &OpenAI{name: name, client: openai.NewClientWithConfig(c), model: model}, nil
}

func (p *OpenAI) Model() string { return p.model }

func (p *OpenAI) Complete(ctx context.Context, req Request) (*Completion, error) {
	var msgs []openai.ChatCompletionMessage
	if req.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})

	chat := openai.ChatCompletionRequest{
		Model:               p.model,
		Messages:            msgs,
		MaxCompletionTokens: req.MaxTokens,
		Temperature:         float32(req.Temperature),
	}
	if req.Schema != nil {
		def, err := json.Marshal(req.Schema.Definition)
		if err != nil {
			return nil, fmt.Errorf("marshal schema %q: %w", req.Schema.Name, err)
		}
		chat.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   req.Schema.Name,
				Schema: json.RawMessage(def),
				Strict: true,
			},
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, chat)
	if err != nil {
		status := 0
		var apiErr *openai.APIError
		var reqErr *openai.RequestError
		switch {
		case errors.As(err, &apiErr):
			status = apiErr.HTTPStatusCode
		case errors.As(err, &reqErr):
			status = reqErr.HTTPStatusCode
		}
		return nil, classify(p.name, status, err)
	}
	if len(resp.Choices) == 0 {
		return nil, &InvalidOutputError{Err: errors.New("reply has no choices")}
	}

	choice := resp.Choices[0]
	return finish(req, choice.Message.Content, choice.FinishReason == openai.FinishReasonLength,
		resp.Model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
}
