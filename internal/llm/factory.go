package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lexiquest/lexiquest/internal/store"
)

// NewProvider builds the configured provider wrapped as
// retry → journal → provider. events may be nil to skip journaling.
func NewProvider(ctx context.Context, cfg Config, events store.EventRepo, logger *slog.Logger) (Provider, error) {
	if cfg.Provider == "auto" {
		found, ok := DiscoverConfig()
		if !ok {
			return nil, errors.New("llm provider auto: no API key found in the environment")
		}
		found.Retry, found.Timeout = cfg.Retry, cfg.Timeout
		cfg = found
	}

	var (
		p   Provider
		err error
	)
	switch cfg.Provider {
	case "anthropic":
		p, err = NewAnthropic(cfg.Anthropic)
	case "openai":
		p, err = NewOpenAI(cfg.OpenAI)
	case "gemini":
		p, err = NewGemini(ctx, cfg.Gemini)
	case "openrouter":
		p, err = NewOpenRouter(cfg.OpenRouter)
	case "mock":
		return NewMock(), nil
	case "":
		return nil, errors.New("no llm provider configured")
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	if events != nil {
		p = WithJournal(p, cfg.Provider, events, logger)
	}
	return WithRetry(p, cfg.Retry, cfg.Timeout), nil
}
