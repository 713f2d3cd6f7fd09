package trial

import (
	"context"
	"errors"
	"math/rand/v2"
	"slices"
	"strings"
	"testing"

	"github.com/lexiquest/lexiquest/internal/activity"
	"github.com/lexiquest/lexiquest/internal/speech"
)

func testRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func TestScrambleIsPermutation(t *testing.T) {
	sentences := []string{
		"The cat sleeps on the soft mat",
		"My dog plays with a red ball",
		"the the the",
		"Hello",
		"Wait, what? Yes!",
	}
	for seed := uint64(0); seed < 20; seed++ {
		rng := testRNG(seed)
		for _, s := range sentences {
			got := Scramble(s, rng)
			want := strings.Split(s, " ")
			slices.Sort(got)
			slices.Sort(want)
			if !slices.Equal(got, want) {
				t.Fatalf("Scramble(%q) multiset = %v, want %v", s, got, want)
			}
		}
	}
}

func TestJumble_ReassembleCorrect(t *testing.T) {
	p := activity.Prompt{ID: "p1", Text: "Birds fly high in the blue sky"}
	j := NewJumble(p, testRNG(7))

	// Pick slots in the order that rebuilds the sentence.
	words := j.Words()
	for _, w := range strings.Split(p.Text, " ") {
		picked := false
		for i, sw := range words {
			if sw == w && j.Available(i) {
				if err := j.Select(i); err != nil {
					t.Fatalf("select %d: %v", i, err)
				}
				picked = true
				break
			}
		}
		if !picked {
			t.Fatalf("word %q not available", w)
		}
	}

	if got := j.Candidate(); got != p.Text {
		t.Errorf("Candidate() = %q, want %q", got, p.Text)
	}
	if !j.Check() {
		t.Error("Check() = false for correctly reassembled sentence")
	}
}

func TestJumble_CaseSensitive(t *testing.T) {
	j := NewJumble(activity.Prompt{Text: "Sun"}, testRNG(1))
	if err := j.Select(0); err != nil {
		t.Fatal(err)
	}
	if !j.Check() {
		t.Fatal("single word should check")
	}

	lower := NewJumble(activity.Prompt{Text: "sun"}, testRNG(1))
	lower.scrambled[0] = "Sun"
	_ = lower.Select(0)
	if lower.Check() {
		t.Error("check must be case-sensitive")
	}
}

func TestJumble_SelectAndRemove(t *testing.T) {
	j := NewJumble(activity.Prompt{Text: "a b c"}, testRNG(3))

	if err := j.Select(0); err != nil {
		t.Fatal(err)
	}
	if err := j.Select(0); err == nil {
		t.Error("selecting a used slot should fail")
	}
	if j.Available(0) {
		t.Error("slot 0 should be unavailable")
	}
	if err := j.Select(2); err != nil {
		t.Fatal(err)
	}
	if err := j.Remove(0); err != nil {
		t.Fatal(err)
	}
	if !j.Available(0) {
		t.Error("slot 0 should be available after removal")
	}
	if got := j.Selected(); len(got) != 1 || got[0] != j.Words()[2] {
		t.Errorf("Selected() = %v", got)
	}
	if err := j.Remove(5); err == nil {
		t.Error("removing out of range should fail")
	}

	j.Clear()
	if j.Candidate() != "" {
		t.Errorf("Candidate() after Clear = %q", j.Candidate())
	}
}

func testCatalog() []Pair {
	return []Pair{
		{"CAT", "🐱"}, {"DOG", "🐶"}, {"SUN", "☀️"}, {"STAR", "⭐"},
		{"BOOK", "📚"}, {"BALL", "⚽"}, {"FISH", "🐠"}, {"BIRD", "🐦"},
	}
}

func TestDeal_BoardShape(t *testing.T) {
	for seed := uint64(0); seed < 10; seed++ {
		b, err := Deal(testCatalog(), 6, testRNG(seed))
		if err != nil {
			t.Fatal(err)
		}
		cards := b.Cards()
		if len(cards) != 12 {
			t.Fatalf("board has %d cards, want 12", len(cards))
		}
		faces := map[string][2]int{}
		for _, c := range cards {
			f := faces[c.PairKey]
			f[c.Face]++
			faces[c.PairKey] = f
		}
		if len(faces) != 6 {
			t.Fatalf("board has %d distinct pairs, want 6", len(faces))
		}
		for key, f := range faces {
			if f[FaceWord] != 1 || f[FaceEmoji] != 1 {
				t.Errorf("pair %s faces = %v, want one word and one emoji", key, f)
			}
		}
	}

	if _, err := Deal(testCatalog(), 9, testRNG(0)); err == nil {
		t.Error("dealing more pairs than the catalog holds should fail")
	}
}

// positions returns the two card indexes for each pair key.
func positions(b *Board) map[string][]int {
	out := map[string][]int{}
	for i, c := range b.Cards() {
		out[c.PairKey] = append(out[c.PairKey], i)
	}
	return out
}

func TestBoard_FlipRules(t *testing.T) {
	b, err := Deal(testCatalog(), 2, testRNG(11))
	if err != nil {
		t.Fatal(err)
	}
	pos := positions(b)
	var keys []string
	for k := range pos {
		keys = append(keys, k)
	}
	a, other := pos[keys[0]], pos[keys[1]]

	if r := b.Flip(a[0]); !r.Flipped || r.Attempt {
		t.Fatalf("first flip = %+v", r)
	}
	if r := b.Flip(a[0]); r.Flipped {
		t.Error("flipping a face-up card should be a no-op")
	}
	r := b.Flip(other[0])
	if !r.Attempt || r.Match {
		t.Fatalf("mismatch flip = %+v", r)
	}
	if !b.Pending() {
		t.Fatal("mismatch should leave two cards up")
	}
	if r := b.Flip(other[1]); r.Flipped {
		t.Error("flipping while two cards are up should be a no-op")
	}
	b.FlipBack()
	if b.Pending() {
		t.Fatal("FlipBack should turn cards down")
	}

	b.Flip(a[0])
	if r := b.Flip(a[1]); !r.Match {
		t.Fatalf("matching flip = %+v", r)
	}
	if r := b.Flip(a[0]); r.Flipped {
		t.Error("flipping a matched card should be a no-op")
	}
	if r := b.Flip(-1); r.Flipped {
		t.Error("out-of-range flip should be a no-op")
	}

	b.Flip(other[0])
	b.Flip(other[1])
	if !b.Solved() || b.MatchedCards() != 4 {
		t.Errorf("solved = %v, matched = %d", b.Solved(), b.MatchedCards())
	}
}

func TestCheckSpelling(t *testing.T) {
	tests := []struct {
		candidate, prompt string
		want              bool
	}{
		{"cat", "cat", true},
		{"CAT", "cat", true},
		{"Banana", "banana", true},
		{"banan", "banana", false},
		{"cat ", "cat", false},
		{"", "cat", false},
	}
	for _, tt := range tests {
		if got := CheckSpelling(tt.candidate, tt.prompt); got != tt.want {
			t.Errorf("CheckSpelling(%q, %q) = %v, want %v", tt.candidate, tt.prompt, got, tt.want)
		}
	}
}

func TestRunner_ListeningSpeaksAndHidesText(t *testing.T) {
	synth := &speech.MockSynthesizer{}
	r := NewRunner(activity.ListeningTest, speech.Backends{Synthesizer: synth}, nil)
	defer r.Close()

	p := activity.Prompt{Text: "Please pass the salt and pepper to me"}
	pr := r.Present(context.Background(), p)
	if pr.ShowText {
		t.Error("listening prompts must not be shown")
	}
	if pr.Playback == nil {
		t.Fatal("expected playback")
	}
	if res := <-pr.Playback; res.Err != nil {
		t.Fatalf("playback: %v", res.Err)
	}
	if got := synth.Spoken(); len(got) != 1 || got[0] != p.Text {
		t.Errorf("spoken = %v", got)
	}
}

func TestRunner_SpeechTestRecording(t *testing.T) {
	mic := &speech.MockMicrophone{}
	rec := &speech.MockRecognizer{Script: []speech.Result{{Text: "she sells", Final: true}}}
	r := NewRunner(activity.SpeechTest, speech.Backends{Microphone: mic, Recognizer: rec}, nil)

	pr := r.Present(context.Background(), activity.Prompt{Text: "She sells seashells"})
	if !pr.ShowText || pr.Playback != nil {
		t.Errorf("speech test presentation = %+v", pr)
	}
	if err := r.StartRecording(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !r.Recording() {
		t.Error("Recording() should be true")
	}
	r.Close()
	if mic.Released() != 1 {
		t.Errorf("Close should release the stream, released = %d", mic.Released())
	}
	if r.StopRecording() != "" {
		t.Error("StopRecording after Close should be a no-op")
	}
}

func TestRunner_RecordingUnavailable(t *testing.T) {
	r := NewRunner(activity.SpeechTest, speech.Backends{}, nil)
	if err := r.StartRecording(context.Background()); !errors.Is(err, ErrNoRecognizer) {
		t.Errorf("err = %v, want ErrNoRecognizer", err)
	}
	g := NewRunner(activity.WordJumble, speech.Backends{}, nil)
	if err := g.StartRecording(context.Background()); !errors.Is(err, activity.ErrWrongActivity) {
		t.Errorf("err = %v, want ErrWrongActivity", err)
	}
}
