// Package pool supplies trial prompts. Games draw at random with
// replacement from in-memory lists; tests receive a fixed ordered set
// fetched from the content service, generated, or taken from a fallback.
package pool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"

	"github.com/lexiquest/lexiquest/internal/activity"
	"github.com/lexiquest/lexiquest/internal/trial"
)

// TestItems is the fixed number of prompts in an adaptive test.
const TestItems = 5

// Mode is how an activity draws prompts.
type Mode int

const (
	RandomDraw Mode = iota
	FixedSet
)

func (m Mode) String() string {
	if m == FixedSet {
		return "fixed-set"
	}
	return "random-draw"
}

// ModeFor returns the draw mode of an activity.
func ModeFor(sub activity.SubKind) Mode {
	if sub.Kind() == activity.KindTest {
		return FixedSet
	}
	return RandomDraw
}

// Source names where a fixed set came from.
type Source string

const (
	SourceRemote    Source = "remote"
	SourceGenerated Source = "generated"
	SourceBuiltin   Source = "builtin"
)

// ContentSource fetches adaptive test content for a user.
type ContentSource interface {
	FetchContent(ctx context.Context, sub activity.SubKind, userID int, d activity.Difficulty) ([]string, activity.Difficulty, error)
}

// Generator produces n fresh prompts at a difficulty.
type Generator interface {
	Generate(ctx context.Context, sub activity.SubKind, d activity.Difficulty, n int) ([]string, error)
}

// Set is the ordered prompt list of one adaptive test.
type Set struct {
	Prompts    []activity.Prompt
	Difficulty activity.Difficulty
	Source     Source

	// Degraded is set when adaptive content was unavailable. Err then holds
	// the *activity.ContentFetchError explaining why.
	Degraded bool
	Err      error
}

// Pool draws prompts. It is not safe for concurrent use.
type Pool struct {
	content Content
	source  ContentSource
	gen     Generator
	rng     *rand.Rand
	logger  *slog.Logger
}

// Option configures a Pool.
type Option func(*Pool)

// WithContentSource enables adaptive content for tests.
func WithContentSource(s ContentSource) Option { return func(p *Pool) { p.source = s } }

// WithGenerator adds a generated-content step before the built-in fallback.
func WithGenerator(g Generator) Option { return func(p *Pool) { p.gen = g } }

// WithRand fixes the random source.
func WithRand(r *rand.Rand) Option { return func(p *Pool) { p.rng = r } }

// WithLogger sets the pool's logger.
func WithLogger(l *slog.Logger) Option { return func(p *Pool) { p.logger = l } }

// New creates a Pool over content.
func New(content Content, opts ...Option) *Pool {
	p := &Pool{
		content: content,
		rng:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Rand exposes the pool's random source so trials shuffle reproducibly
// alongside it.
func (p *Pool) Rand() *rand.Rand { return p.rng }

// Pairs returns the memory-match catalog.
func (p *Pool) Pairs() []trial.Pair {
	return append([]trial.Pair(nil), p.content.Pairs...)
}

// Next draws one game prompt uniformly at random. Successive draws are
// independent and may repeat.
func (p *Pool) Next(sub activity.SubKind, d activity.Difficulty) (activity.Prompt, error) {
	var list []string
	switch sub {
	case activity.WordJumble:
		list = p.content.Jumble
	case activity.SpellingBee:
		list = p.content.Spelling
	default:
		return activity.Prompt{}, fmt.Errorf("%s does not draw single prompts", sub)
	}
	if len(list) == 0 {
		return activity.Prompt{}, fmt.Errorf("no %s content available", sub)
	}
	i := p.rng.IntN(len(list))
	return activity.Prompt{
		ID:         fmt.Sprintf("%s:%d", sub, i),
		Text:       list[i],
		Difficulty: d,
	}, nil
}

// Draw returns the fixed prompt set for a test. When the content source and
// generator both fail, the built-in list is used and the set is marked
// degraded; Draw only fails if that list is too short.
func (p *Pool) Draw(ctx context.Context, sub activity.SubKind, userID int, d activity.Difficulty) (Set, error) {
	if ModeFor(sub) != FixedSet {
		return Set{}, fmt.Errorf("%s does not use a fixed set", sub)
	}

	var causes []error
	if p.source != nil {
		texts, level, err := p.source.FetchContent(ctx, sub, userID, d)
		if err == nil {
			texts, err = takeItems(texts)
		}
		if err == nil {
			if level <= 0 {
				level = d
			}
			return Set{Prompts: newPrompts(texts, level), Difficulty: level, Source: SourceRemote}, nil
		}
		p.logger.Warn("adaptive content fetch failed", "activity", sub, "err", err)
		causes = append(causes, fmt.Errorf("fetch: %w", err))
	} else {
		causes = append(causes, errors.New("no content service configured"))
	}

	if p.gen != nil {
		texts, err := p.gen.Generate(ctx, sub, d, TestItems)
		if err == nil {
			texts, err = takeItems(texts)
		}
		if err == nil {
			return Set{
				Prompts:    newPrompts(texts, d),
				Difficulty: d,
				Source:     SourceGenerated,
				Degraded:   true,
				Err:        &activity.ContentFetchError{Err: errors.Join(causes...)},
			}, nil
		}
		p.logger.Warn("content generation failed", "activity", sub, "err", err)
		causes = append(causes, fmt.Errorf("generate: %w", err))
	}

	fallback := p.content.Speech
	if sub == activity.ListeningTest {
		fallback = p.content.Listening
	}
	if len(fallback) < TestItems {
		causes = append(causes, fmt.Errorf("built-in list has %d items, need %d", len(fallback), TestItems))
		return Set{}, &activity.ContentFetchError{Err: errors.Join(causes...)}
	}
	prompts := make([]activity.Prompt, 0, TestItems)
	for i, text := range fallback[:TestItems] {
		prompts = append(prompts, activity.Prompt{
			ID:         fmt.Sprintf("%s:fallback:%d", sub, i),
			Text:       text,
			Difficulty: d,
		})
	}
	return Set{
		Prompts:    prompts,
		Difficulty: d,
		Source:     SourceBuiltin,
		Degraded:   true,
		Err:        &activity.ContentFetchError{Err: errors.Join(causes...)},
	}, nil
}

// takeItems trims and checks a content list, keeping the first TestItems.
func takeItems(texts []string) ([]string, error) {
	out := make([]string, 0, TestItems)
	for _, t := range texts {
		if t = normalize(t); t != "" {
			out = append(out, t)
		}
		if len(out) == TestItems {
			return out, nil
		}
	}
	return nil, fmt.Errorf("got %d usable items, need %d", len(out), TestItems)
}

func newPrompts(texts []string, d activity.Difficulty) []activity.Prompt {
	out := make([]activity.Prompt, len(texts))
	for i, t := range texts {
		out[i] = activity.Prompt{ID: uuid.NewString(), Text: t, Difficulty: d}
	}
	return out
}

// normalize collapses runs of whitespace so prompts split cleanly on " ".
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
