// Package config loads lexiquest settings from defaults, an optional TOML
// file and LEXIQUEST_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/lexiquest/lexiquest/internal/activity"
	"github.com/lexiquest/lexiquest/internal/llm"
	"github.com/lexiquest/lexiquest/internal/scoring"
)

// Config holds all lexiquest configuration.
type Config struct {
	APIBaseURL     string        `toml:"api_base_url"`
	UserID         int           `toml:"user_id"`
	Difficulty     float64       `toml:"difficulty"`
	Batching       string        `toml:"batching"`
	RequestTimeout time.Duration `toml:"request_timeout"`
	ContentPack    string        `toml:"content_pack"`
	LogLevel       string        `toml:"log_level"`
	Offline        bool          `toml:"offline"`

	Speech    SpeechConfig    `toml:"speech"`
	Devserver DevserverConfig `toml:"devserver"`
	LLM       llm.Config      `toml:"llm"`
}

// SpeechConfig selects the speech backends.
type SpeechConfig struct {
	// TTSCommand speaks prompts, e.g. "espeak-ng" or "say". Empty mutes
	// spoken prompts.
	TTSCommand string `toml:"tts_command"`
	// RecognizerCommand streams JSON transcript lines. Empty means answers
	// are typed.
	RecognizerCommand string `toml:"recognizer_command"`
	Language          string `toml:"language"`
}

// DevserverConfig configures the local stand-in scoring service.
type DevserverConfig struct {
	Addr string `toml:"addr"`
}

// DefaultConfig returns config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		APIBaseURL:     "http://localhost:5000",
		UserID:         1,
		Difficulty:     float64(activity.DefaultDifficulty),
		Batching:       string(scoring.PerItem),
		RequestTimeout: scoring.DefaultTimeout,
		LogLevel:       "warn",
		Speech: SpeechConfig{
			TTSCommand: "espeak-ng",
			Language:   "en-US",
		},
		Devserver: DevserverConfig{
			Addr: "127.0.0.1:5000",
		},
		LLM: llm.DefaultConfig(),
	}
}

// Load reads the config file at path, or the first standard path that
// exists when path is empty, then applies environment overrides. A missing
// file is not an error; a missing explicit path is.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else {
		for _, p := range configPaths() {
			if _, err := os.Stat(p); err == nil {
				if _, err := toml.DecodeFile(p, &cfg); err != nil {
					return cfg, fmt.Errorf("parse config %s: %w", p, err)
				}
				break
			}
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}
	cfg.ContentPack = expandHome(cfg.ContentPack)
	return cfg, nil
}

// Parse decodes TOML text over the defaults without reading the
// environment.
func Parse(data string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.Decode(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overlays LEXIQUEST_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("LEXIQUEST_API_URL"); v != "" {
		c.APIBaseURL = v
	}
	if v := os.Getenv("LEXIQUEST_USER_ID"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LEXIQUEST_USER_ID: %w", err)
		}
		c.UserID = id
	}
	if v := os.Getenv("LEXIQUEST_BATCHING"); v != "" {
		c.Batching = v
	}
	if v := os.Getenv("LEXIQUEST_CONTENT_PACK"); v != "" {
		c.ContentPack = v
	}
	if v := os.Getenv("LEXIQUEST_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("LEXIQUEST_TTS_COMMAND"); v != "" {
		c.Speech.TTSCommand = v
	}
	if v := os.Getenv("LEXIQUEST_RECOGNIZER_COMMAND"); v != "" {
		c.Speech.RecognizerCommand = v
	}
	c.LLM.ApplyEnv()
	return nil
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	var errs []error
	if !c.Offline {
		u, err := url.Parse(c.APIBaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("api_base_url %q must be an http(s) URL", c.APIBaseURL))
		}
	}
	if c.UserID <= 0 {
		errs = append(errs, fmt.Errorf("user_id must be positive, got %d", c.UserID))
	}
	d := activity.Difficulty(c.Difficulty)
	if d != d.Clamp() {
		errs = append(errs, fmt.Errorf("difficulty %.2f outside [%.1f, %.1f]", c.Difficulty,
			float64(activity.MinDifficulty), float64(activity.MaxDifficulty)))
	}
	if _, err := scoring.ParsePolicy(c.Batching); err != nil {
		errs = append(errs, err)
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request_timeout must be positive"))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if err := c.LLM.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Policy returns the parsed batching policy.
func (c Config) Policy() scoring.Policy {
	p, err := scoring.ParsePolicy(c.Batching)
	if err != nil {
		return scoring.PerItem
	}
	return p
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

// NewLogger returns a text logger on stderr at the configured level.
func (c Config) NewLogger() *slog.Logger {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// DefaultPath returns the config file location under XDG_CONFIG_HOME.
func DefaultPath() string {
	paths := configPaths()
	if len(paths) == 0 {
		return ""
	}
	return paths[0]
}

func configPaths() []string {
	var paths []string

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, "lexiquest", "config.toml"))
	}

	home, _ := os.UserHomeDir()
	if home != "" {
		paths = append(paths, filepath.Join(home, ".config", "lexiquest", "config.toml"))
	}

	return paths
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
