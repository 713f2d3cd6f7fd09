package llm

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/lexiquest/lexiquest/internal/store"
)

// journaled records every call in the event journal.
type journaled struct {
	inner  Provider
	name   string
	events store.EventRepo
	logger *slog.Logger
}

// WithJournal wraps p so each call is appended to events. name is the
// provider name stored with the event.
func WithJournal(p Provider, name string, events store.EventRepo, logger *slog.Logger) Provider {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &journaled{inner: p, name: name, events: events, logger: logger}
}

func (j *journaled) Model() string { return j.inner.Model() }

func (j *journaled) Complete(ctx context.Context, req Request) (*Completion, error) {
	start := time.Now()
	c, err := j.inner.Complete(ctx, req)

	ev := store.LLMRequestEventData{
		Provider:    j.name,
		Model:       j.inner.Model(),
		Purpose:     req.Purpose,
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: describe(req),
	}
	if ev.Purpose == "" {
		ev.Purpose = "unknown"
	}
	if c != nil {
		ev.Model = c.Model
		ev.InputTokens, ev.OutputTokens = c.InputTokens, c.OutputTokens
		ev.ResponseBody = string(c.JSON)
	}
	if err != nil {
		ev.ErrorMessage = err.Error()
	}

	j.logger.Debug("llm call", "provider", j.name, "model", ev.Model, "purpose", ev.Purpose,
		"latency_ms", ev.LatencyMs, "ok", ev.Success)
	// Journal failures are logged, never returned.
	if jerr := j.events.AppendLLMRequest(ctx, ev); jerr != nil {
		j.logger.Warn("journal llm call", "error", jerr)
	}
	return c, err
}

// describe renders a request for the journal.
func describe(req Request) string {
	var b strings.Builder
	if req.System != "" {
		b.WriteString("[system]\n" + req.System + "\n\n")
	}
	b.WriteString("[prompt]\n" + req.Prompt + "\n")
	if req.Schema != nil {
		if def, err := json.Marshal(req.Schema.Definition); err == nil {
			b.WriteString("\n[schema " + req.Schema.Name + "]\n" + string(def) + "\n")
		}
	}
	return b.String()
}
