package trial

import (
	"fmt"
	"math/rand/v2"
)

// Pair is one memory-match catalog entry.
type Pair struct {
	Key   string
	Emoji string
}

// Face is which side of a pair a card shows.
type Face int

const (
	FaceWord Face = iota
	FaceEmoji
)

// Card is one board position.
type Card struct {
	PairKey string
	Face    Face
	Label   string
}

// FlipResult describes what a Flip did.
type FlipResult struct {
	// Flipped is false when the click was a no-op.
	Flipped bool

	// Attempt is true when this flip revealed the second card of a pair
	// attempt. First and Second are then the two revealed positions.
	Attempt       bool
	Match         bool
	First, Second int
}

// Board is a dealt memory-match board of 2K cards.
type Board struct {
	cards   []Card
	matched []bool
	up      []int
}

// Deal picks k pairs at random from catalog and lays out a shuffled board
// with a word card and an emoji card for each.
func Deal(catalog []Pair, k int, rng *rand.Rand) (*Board, error) {
	if k <= 0 || k > len(catalog) {
		return nil, fmt.Errorf("cannot deal %d pairs from a catalog of %d", k, len(catalog))
	}
	order := rng.Perm(len(catalog))[:k]
	cards := make([]Card, 0, 2*k)
	for _, idx := range order {
		p := catalog[idx]
		cards = append(cards,
			Card{PairKey: p.Key, Face: FaceWord, Label: p.Key},
			Card{PairKey: p.Key, Face: FaceEmoji, Label: p.Emoji},
		)
	}
	rng.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
	return &Board{cards: cards, matched: make([]bool, len(cards))}, nil
}

// Cards returns the board layout.
func (b *Board) Cards() []Card {
	return append([]Card(nil), b.cards...)
}

// Pairs returns K.
func (b *Board) Pairs() int { return len(b.cards) / 2 }

// IsUp reports whether card i is face up and not yet matched.
func (b *Board) IsUp(i int) bool {
	for _, u := range b.up {
		if u == i {
			return true
		}
	}
	return false
}

// IsMatched reports whether card i has been matched.
func (b *Board) IsMatched(i int) bool {
	return i >= 0 && i < len(b.matched) && b.matched[i]
}

// Pending reports whether a mismatched pair is waiting to flip back.
func (b *Board) Pending() bool { return len(b.up) == 2 }

// Flip reveals card i. Out-of-range, face-up or matched cards, and any click
// while two cards are face up, are no-ops.
func (b *Board) Flip(i int) FlipResult {
	if i < 0 || i >= len(b.cards) || len(b.up) == 2 || b.matched[i] || b.IsUp(i) {
		return FlipResult{}
	}
	b.up = append(b.up, i)
	if len(b.up) < 2 {
		return FlipResult{Flipped: true}
	}

	first, second := b.up[0], b.up[1]
	res := FlipResult{Flipped: true, Attempt: true, First: first, Second: second}
	if b.cards[first].PairKey == b.cards[second].PairKey {
		res.Match = true
		b.matched[first] = true
		b.matched[second] = true
		b.up = nil
	}
	return res
}

// FlipBack turns a mismatched pair face down again.
func (b *Board) FlipBack() {
	b.up = nil
}

// MatchedCards returns the number of matched cards.
func (b *Board) MatchedCards() int {
	n := 0
	for _, m := range b.matched {
		if m {
			n++
		}
	}
	return n
}

// Solved reports whether every pair has been matched.
func (b *Board) Solved() bool {
	return b.MatchedCards() == len(b.cards)
}
