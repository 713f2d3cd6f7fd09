package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lexiquest/lexiquest/internal/scoring"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"LEXIQUEST_API_URL", "LEXIQUEST_USER_ID", "LEXIQUEST_BATCHING",
		"LEXIQUEST_CONTENT_PACK", "LEXIQUEST_LOG_LEVEL", "LEXIQUEST_TTS_COMMAND",
		"LEXIQUEST_RECOGNIZER_COMMAND", "LEXIQUEST_LLM_PROVIDER",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
}

func TestDefaultConfigValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestParse(t *testing.T) {
	cfg, err := Parse(`
api_base_url = "https://scores.example.org"
user_id = 42
batching = "batch"
request_timeout = "5s"

[speech]
tts_command = "say"

[llm]
provider = "mock"

[llm.retry]
max_attempts = 2
`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.APIBaseURL != "https://scores.example.org" || cfg.UserID != 42 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Policy() != scoring.Batch {
		t.Errorf("Policy = %v, want batch", cfg.Policy())
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("RequestTimeout = %v", cfg.RequestTimeout)
	}
	if cfg.Speech.TTSCommand != "say" || cfg.Speech.Language != "en-US" {
		t.Errorf("Speech = %+v", cfg.Speech)
	}
	if cfg.LLM.Provider != "mock" || cfg.LLM.Retry.MaxAttempts != 2 {
		t.Errorf("LLM = %+v", cfg.LLM)
	}
	// Unset nested values keep their defaults.
	if cfg.LLM.Anthropic.Model != "claude-haiku" {
		t.Errorf("Anthropic.Model = %q", cfg.LLM.Anthropic.Model)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad url", func(c *Config) { c.APIBaseURL = "localhost:5000" }, "api_base_url"},
		{"offline skips url", func(c *Config) { c.APIBaseURL = ""; c.Offline = true }, ""},
		{"zero user", func(c *Config) { c.UserID = 0 }, "user_id"},
		{"difficulty high", func(c *Config) { c.Difficulty = 3.5 }, "difficulty"},
		{"bad batching", func(c *Config) { c.Batching = "sometimes" }, "batching policy"},
		{"bad timeout", func(c *Config) { c.RequestTimeout = 0 }, "request_timeout"},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "log level"},
		{"llm key missing", func(c *Config) { c.LLM.Provider = "gemini" }, "GEMINI_API_KEY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("user_id = 7\nbatching = \"batch\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LEXIQUEST_BATCHING", "per-item")
	t.Setenv("LEXIQUEST_API_URL", "http://127.0.0.1:9999")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.UserID != 7 {
		t.Errorf("UserID = %d, want 7 from file", cfg.UserID)
	}
	if cfg.Batching != "per-item" {
		t.Errorf("Batching = %q, want env override", cfg.Batching)
	}
	if cfg.APIBaseURL != "http://127.0.0.1:9999" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
}

func TestLoad_StandardPath(t *testing.T) {
	clearEnv(t)
	dir := os.Getenv("XDG_CONFIG_HOME")
	if err := os.MkdirAll(filepath.Join(dir, "lexiquest"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "lexiquest", "config.toml"), []byte("user_id = 9\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.UserID != 9 {
		t.Errorf("UserID = %d, want 9", cfg.UserID)
	}
	if DefaultPath() != filepath.Join(dir, "lexiquest", "config.toml") {
		t.Errorf("DefaultPath = %q", DefaultPath())
	}
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected error for missing explicit path")
	}

	t.Setenv("LEXIQUEST_USER_ID", "abc")
	if _, err := Load(""); err == nil {
		t.Error("expected error for non-numeric user id")
	}
}
