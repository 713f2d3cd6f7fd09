package pool

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/lexiquest/lexiquest/internal/trial"
)

// PackMajor is the content pack format major version this build reads.
const PackMajor = "v1"

// Pack is the YAML content pack format. Lists left empty keep the
// built-in content.
type Pack struct {
	Version   string     `yaml:"version"`
	Name      string     `yaml:"name,omitempty"`
	Jumble    []string   `yaml:"jumble,omitempty"`
	Spelling  []string   `yaml:"spelling,omitempty"`
	Pairs     []packPair `yaml:"pairs,omitempty"`
	Speech    []string   `yaml:"speech,omitempty"`
	Listening []string   `yaml:"listening,omitempty"`
}

type packPair struct {
	Key   string `yaml:"key"`
	Emoji string `yaml:"emoji"`
}

// minPairs is the number of pairs dealt on a memory-match board.
const minPairs = 6

// LoadPack reads a content pack file and overlays it on base.
func LoadPack(path string, base Content) (Content, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read content pack: %w", err)
	}
	return ParsePack(data, base)
}

// ParsePack decodes and validates a pack and overlays it on base.
func ParsePack(data []byte, base Content) (Content, error) {
	var pk Pack
	if err := yaml.Unmarshal(data, &pk); err != nil {
		return base, fmt.Errorf("parse content pack: %w", err)
	}
	if err := pk.Validate(); err != nil {
		return base, err
	}

	out := base
	if len(pk.Jumble) > 0 {
		out.Jumble = normalizeAll(pk.Jumble)
	}
	if len(pk.Spelling) > 0 {
		out.Spelling = normalizeAll(pk.Spelling)
	}
	if len(pk.Pairs) > 0 {
		out.Pairs = make([]trial.Pair, len(pk.Pairs))
		for i, p := range pk.Pairs {
			out.Pairs[i] = trial.Pair{Key: strings.ToUpper(strings.TrimSpace(p.Key)), Emoji: p.Emoji}
		}
	}
	if len(pk.Speech) > 0 {
		out.Speech = normalizeAll(pk.Speech)
	}
	if len(pk.Listening) > 0 {
		out.Listening = normalizeAll(pk.Listening)
	}
	return out, nil
}

// Validate checks the version and list sizes.
func (pk Pack) Validate() error {
	v := pk.Version
	if v != "" && !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return fmt.Errorf("content pack version %q is not a semantic version", pk.Version)
	}
	if major := semver.Major(v); major != PackMajor {
		return fmt.Errorf("content pack version %s is not supported (want %s.x.y)", pk.Version, PackMajor)
	}

	for _, s := range pk.Jumble {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("content pack: empty jumble sentence")
		}
	}
	for _, w := range pk.Spelling {
		if w = strings.TrimSpace(w); w == "" || strings.Contains(w, " ") {
			return fmt.Errorf("content pack: spelling entries must be single words, got %q", w)
		}
	}
	if n := len(pk.Pairs); n > 0 && n < minPairs {
		return fmt.Errorf("content pack: need at least %d pairs, got %d", minPairs, n)
	}
	seen := map[string]bool{}
	for _, p := range pk.Pairs {
		key := strings.ToUpper(strings.TrimSpace(p.Key))
		if key == "" || p.Emoji == "" {
			return fmt.Errorf("content pack: pair needs both key and emoji")
		}
		if seen[key] {
			return fmt.Errorf("content pack: duplicate pair %q", key)
		}
		seen[key] = true
	}
	for _, list := range [][]string{pk.Speech, pk.Listening} {
		for _, s := range list {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("content pack: empty test sentence")
			}
		}
	}
	if n := len(pk.Speech); n > 0 && n < TestItems {
		return fmt.Errorf("content pack: need at least %d speech sentences, got %d", TestItems, n)
	}
	if n := len(pk.Listening); n > 0 && n < TestItems {
		return fmt.Errorf("content pack: need at least %d listening sentences, got %d", TestItems, n)
	}
	return nil
}

func normalizeAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = normalize(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
