package trial

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/lexiquest/lexiquest/internal/activity"
)

// Scramble returns the prompt's space-separated words in random order. The
// result is always a permutation of strings.Split(text, " ") and may equal
// the original order.
func Scramble(text string, rng *rand.Rand) []string {
	words := strings.Split(text, " ")
	rng.Shuffle(len(words), func(i, j int) { words[i], words[j] = words[j], words[i] })
	return words
}

// Jumble is one word-jumble trial: scrambled word slots the player picks
// from in order to rebuild the sentence.
type Jumble struct {
	prompt    activity.Prompt
	scrambled []string
	used      []bool
	picked    []int // indexes into scrambled, in pick order
}

// NewJumble scrambles p's words.
func NewJumble(p activity.Prompt, rng *rand.Rand) *Jumble {
	s := Scramble(p.Text, rng)
	return &Jumble{
		prompt:    p,
		scrambled: s,
		used:      make([]bool, len(s)),
	}
}

// Prompt returns the sentence being rebuilt.
func (j *Jumble) Prompt() activity.Prompt { return j.prompt }

// Words returns the scrambled word slots.
func (j *Jumble) Words() []string {
	return append([]string(nil), j.scrambled...)
}

// Available reports whether slot i can still be picked.
func (j *Jumble) Available(i int) bool {
	return i >= 0 && i < len(j.used) && !j.used[i]
}

// Select appends slot i to the candidate.
func (j *Jumble) Select(i int) error {
	if i < 0 || i >= len(j.scrambled) {
		return fmt.Errorf("word %d out of range", i)
	}
	if j.used[i] {
		return fmt.Errorf("word %d already chosen", i)
	}
	j.used[i] = true
	j.picked = append(j.picked, i)
	return nil
}

// Remove takes the word at candidate position pos out of the candidate and
// makes its slot available again.
func (j *Jumble) Remove(pos int) error {
	if pos < 0 || pos >= len(j.picked) {
		return fmt.Errorf("position %d out of range", pos)
	}
	j.used[j.picked[pos]] = false
	j.picked = append(j.picked[:pos], j.picked[pos+1:]...)
	return nil
}

// Selected returns the candidate words in pick order.
func (j *Jumble) Selected() []string {
	out := make([]string, len(j.picked))
	for k, i := range j.picked {
		out[k] = j.scrambled[i]
	}
	return out
}

// Candidate joins the picked words with single spaces.
func (j *Jumble) Candidate() string {
	return strings.Join(j.Selected(), " ")
}

// Check reports whether the candidate equals the prompt exactly.
func (j *Jumble) Check() bool {
	return j.Candidate() == j.prompt.Text
}

// Clear returns every picked word to the pool, keeping the scramble.
func (j *Jumble) Clear() {
	j.picked = nil
	for i := range j.used {
		j.used[i] = false
	}
}
