package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lexiquest/lexiquest/internal/activity"
	"github.com/lexiquest/lexiquest/internal/config"
	"github.com/lexiquest/lexiquest/internal/llm"
	"github.com/lexiquest/lexiquest/internal/pool"
	"github.com/lexiquest/lexiquest/internal/profile"
	"github.com/lexiquest/lexiquest/internal/scoring"
	"github.com/lexiquest/lexiquest/internal/screens/home"
	"github.com/lexiquest/lexiquest/internal/session"
	"github.com/lexiquest/lexiquest/internal/speech"
	"github.com/lexiquest/lexiquest/internal/store"
)

// env is everything a command needs to run activities for one player.
type env struct {
	cfg     config.Config
	logger  *slog.Logger
	store   *store.Store
	profile *profile.Profile
	client  *scoring.Client // nil when offline
	pool    *pool.Pool
	speech  speech.Backends
}

// loadConfig reads the file named by --config (or the default location)
// and validates it.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// loadContent returns the built-in content, extended by the configured
// content pack when there is one.
func loadContent(path string) (pool.Content, error) {
	if path == "" {
		return pool.Builtin(), nil
	}
	c, err := pool.LoadPack(path, pool.Builtin())
	if err != nil {
		return c, fmt.Errorf("load content pack: %w", err)
	}
	return c, nil
}

// openEnv wires config, journal, scoring client, trial pool and speech
// backends. The caller must Close it.
func openEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return newEnv(cmd, cfg)
}

func newEnv(cmd *cobra.Command, cfg config.Config) (*env, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	e := &env{cfg: cfg, logger: cfg.NewLogger()}

	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	e.store, err = store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	e.profile = profile.New(e.store.SessionRepo(), e.store.SnapshotRepo(), cfg.UserID,
		activity.Difficulty(cfg.Difficulty), profile.WithLogger(e.logger))

	if !cfg.Offline {
		e.client = scoring.NewClient(cfg.APIBaseURL,
			scoring.WithTimeout(cfg.RequestTimeout),
			scoring.WithPolicy(cfg.Policy()),
			scoring.WithLogger(e.logger))
	}

	content, err := loadContent(cfg.ContentPack)
	if err != nil {
		e.Close()
		return nil, err
	}
	opts := []pool.Option{pool.WithLogger(e.logger)}
	if e.client != nil {
		opts = append(opts, pool.WithContentSource(e.client))
	}
	if cfg.LLM.Enabled() {
		provider, err := llm.NewProvider(ctx, cfg.LLM, e.store.EventRepo(), e.logger)
		if err != nil {
			fmt.Fprintln(os.Stderr, "LLM provider not configured:", err)
			fmt.Fprintln(os.Stderr, "Generated test content will be unavailable.")
		} else {
			opts = append(opts, pool.WithGenerator(pool.NewLLMGenerator(provider)))
		}
	}
	e.pool = pool.New(content, opts...)

	e.speech = e.speechBackends()
	return e, nil
}

func (e *env) speechBackends() speech.Backends {
	b := speech.Backends{Language: e.cfg.Speech.Language}
	if cmdline := e.cfg.Speech.TTSCommand; cmdline != "" {
		synth, err := speech.NewExecSynthesizer(cmdline)
		if err != nil {
			e.logger.Warn("spoken prompts disabled", "error", err)
		} else {
			b.Synthesizer = synth
		}
	}
	if cmdline := e.cfg.Speech.RecognizerCommand; cmdline != "" {
		rec, err := speech.NewCommandRecognizer(cmdline)
		if err != nil {
			e.logger.Warn("speech recognition disabled", "error", err)
		} else {
			b.Recognizer = rec
			b.Microphone = speech.OpenMicrophone{}
		}
	}
	return b
}

func (e *env) Close() {
	if e.store != nil {
		e.store.Close()
	}
}

// newController builds a controller for one activity at the player's
// current difficulty.
func (e *env) newController(sub activity.SubKind) (*session.Controller, error) {
	cfg := session.Config{
		Activity:   sub,
		UserID:     e.cfg.UserID,
		Difficulty: e.profile.Difficulty(context.Background()),
		Pool:       e.pool,
		Speech:     e.speech,
		Journal:    e.profile,
		Logger:     e.logger,
	}
	// A nil *scoring.Client must not reach the interface field.
	if e.client != nil {
		cfg.Gateway = e.client
	}
	return session.New(cfg)
}

func (e *env) homeDeps(resultsDir string) home.Deps {
	return home.Deps{
		NewController: e.newController,
		Profile:       e.profile,
		ResultsDir:    resultsDir,
		Logger:        e.logger,
		Offline:       e.client == nil,
	}
}
