package session

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/lexiquest/lexiquest/internal/activity"
	"github.com/lexiquest/lexiquest/internal/pool"
	"github.com/lexiquest/lexiquest/internal/scoring"
	"github.com/lexiquest/lexiquest/internal/speech"
	"github.com/lexiquest/lexiquest/internal/store"
)

type fakeGateway struct {
	games      []scoring.GameScore
	items      [][]scoring.Item
	means      []float64
	accuracies []float64
	newD       activity.Difficulty
	gameErr    error
	itemsErr   error
	updateErr  error
}

func (g *fakeGateway) SubmitItems(_ context.Context, _ activity.SubKind, _ int, items []scoring.Item) ([]scoring.TrialResult, error) {
	g.items = append(g.items, items)
	if g.itemsErr != nil {
		return nil, g.itemsErr
	}
	out := make([]scoring.TrialResult, len(items))
	for i := range items {
		if i < len(g.accuracies) {
			out[i].Accuracy = g.accuracies[i]
		}
	}
	return out, nil
}

func (g *fakeGateway) UpdateDifficulty(_ context.Context, _ int, mean float64) (activity.Difficulty, error) {
	g.means = append(g.means, mean)
	if g.updateErr != nil {
		return 0, g.updateErr
	}
	return g.newD, nil
}

func (g *fakeGateway) SubmitGameScore(_ context.Context, gs scoring.GameScore) error {
	g.games = append(g.games, gs)
	return g.gameErr
}

type fakeJournal struct {
	records []store.SessionRecord
}

func (j *fakeJournal) RecordSession(_ context.Context, rec store.SessionRecord) error {
	j.records = append(j.records, rec)
	return nil
}

// tickClock advances one second per reading.
type tickClock struct{ t time.Time }

func (c *tickClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func testContent() pool.Content {
	c := pool.Builtin()
	c.Jumble = []string{"the cat sat on the mat", "we like to read books"}
	c.Spelling = []string{"friend", "because"}
	return c
}

func newTestController(t *testing.T, sub activity.SubKind, gw Gateway, backends speech.Backends) *Controller {
	t.Helper()
	p := pool.New(testContent(), pool.WithRand(rand.New(rand.NewPCG(3, 4))))
	clock := &tickClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	c, err := New(Config{
		Activity: sub,
		UserID:   1,
		Pool:     p,
		Gateway:  gw,
		Speech:   backends,
		Now:      clock.Now,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Abandon)
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return c
}

// solveJumble picks scrambled slots in sentence order.
func solveJumble(t *testing.T, c *Controller) {
	t.Helper()
	j := c.Jumble()
	words := j.Words()
	for _, want := range strings.Split(j.Prompt().Text, " ") {
		found := false
		for i, w := range words {
			if w == want && j.Available(i) {
				if err := c.SelectWord(i); err != nil {
					t.Fatalf("SelectWord(%d): %v", i, err)
				}
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("word %q not available", want)
		}
	}
}

func TestWordJumble_ScoreAndLevel(t *testing.T) {
	gw := &fakeGateway{}
	c := newTestController(t, activity.WordJumble, gw, speech.Backends{})

	for range 6 {
		solveJumble(t, c)
		o, err := c.CheckJumble()
		if err != nil {
			t.Fatalf("CheckJumble: %v", err)
		}
		if !o.Correct {
			t.Fatalf("expected correct outcome for %q", o.Prompt)
		}
	}
	for range 5 {
		if _, err := c.Skip(); err != nil {
			t.Fatalf("Skip: %v", err)
		}
	}

	if c.Phase() != PhaseCompleted {
		t.Fatalf("Phase = %v, want completed", c.Phase())
	}
	s := c.Session()
	if s.Score != 60 {
		t.Errorf("Score = %d, want 60", s.Score)
	}
	if s.Level() != 2 {
		t.Errorf("Level = %d, want 2", s.Level())
	}
	if len(s.Turns) != GameTurnLimit {
		t.Errorf("turns = %d, want %d", len(s.Turns), GameTurnLimit)
	}
	for i, o := range s.Turns {
		if o.TurnIndex != i {
			t.Errorf("turn %d has index %d", i, o.TurnIndex)
		}
	}

	if _, err := c.Skip(); !errors.Is(err, activity.ErrNotInProgress) {
		t.Errorf("Skip after completion: err = %v, want ErrNotInProgress", err)
	}

	if err := c.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(gw.games) != 1 {
		t.Fatalf("game submissions = %d, want 1", len(gw.games))
	}
	got := gw.games[0]
	if got.GameType != "word_jumble" || got.Score != 60 || got.Level != 2 {
		t.Errorf("submitted %+v", got)
	}
	if got.TimeTaken == nil || *got.TimeTaken <= 0 {
		t.Error("expected positive time_taken")
	}
	if c.Phase() != PhaseSubmitted {
		t.Errorf("Phase = %v, want submitted", c.Phase())
	}
}

func TestWordJumble_WrongAnswerKeepsSentence(t *testing.T) {
	c := newTestController(t, activity.WordJumble, nil, speech.Backends{})
	before := c.Current()

	// Pick slots in scrambled order until the candidate is wrong.
	j := c.Jumble()
	for i := range j.Words() {
		_ = c.SelectWord(i)
	}
	if j.Check() {
		if err := c.RemoveWord(0); err != nil {
			t.Fatal(err)
		}
	}

	o, err := c.CheckJumble()
	if err != nil {
		t.Fatal(err)
	}
	if o.Correct {
		t.Fatal("expected incorrect outcome")
	}
	if len(c.Session().Turns) != 1 {
		t.Errorf("turns = %d, want 1", len(c.Session().Turns))
	}
	if c.Current() != before {
		t.Errorf("prompt changed after wrong answer: %q -> %q", before.Text, c.Current().Text)
	}
	if c.Session().Score != 0 {
		t.Errorf("Score = %d, want 0", c.Session().Score)
	}
}

func TestSpellingBee(t *testing.T) {
	c := newTestController(t, activity.SpellingBee, nil, speech.Backends{})

	word := c.Current().Text
	o, err := c.CheckSpelling(strings.ToUpper(word))
	if err != nil {
		t.Fatal(err)
	}
	if !o.Correct {
		t.Errorf("expected %q to match %q ignoring case", strings.ToUpper(word), word)
	}

	wrong := c.Current()
	o, err = c.CheckSpelling("xyz")
	if err != nil {
		t.Fatal(err)
	}
	if o.Correct {
		t.Error("expected incorrect spelling")
	}
	if c.Current() != wrong {
		t.Error("word changed after wrong spelling")
	}

	pr, err := c.Present(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if pr.ShowText {
		t.Error("spelling word must not be shown")
	}

	if _, err := c.CheckJumble(); !errors.Is(err, activity.ErrWrongActivity) {
		t.Errorf("CheckJumble on spelling: err = %v", err)
	}
}

func TestMemoryMatch_EarlyCompletion(t *testing.T) {
	gw := &fakeGateway{}
	c := newTestController(t, activity.MemoryMatch, gw, speech.Backends{})

	byKey := map[string][]int{}
	for i, card := range c.Board().Cards() {
		byKey[card.PairKey] = append(byKey[card.PairKey], i)
	}
	if len(byKey) != PairsPerBoard {
		t.Fatalf("pairs = %d, want %d", len(byKey), PairsPerBoard)
	}

	// One mismatch first.
	var keys []string
	for k := range byKey {
		keys = append(keys, k)
	}
	if _, o, _ := c.Flip(byKey[keys[0]][0]); o != nil {
		t.Fatal("first card of an attempt must not finalize a turn")
	}
	res, o, err := c.Flip(byKey[keys[1]][0])
	if err != nil || o == nil {
		t.Fatalf("second flip: outcome %v, err %v", o, err)
	}
	if res.Match || o.Correct {
		t.Error("expected mismatch")
	}
	if _, o, _ := c.Flip(byKey[keys[2]][0]); o != nil {
		t.Error("flip while two cards are up must be a no-op")
	}
	c.FlipBack()

	for _, k := range keys {
		c.Flip(byKey[k][0])
		c.Flip(byKey[k][1])
	}

	if c.Phase() != PhaseCompleted {
		t.Fatalf("Phase = %v, want completed", c.Phase())
	}
	s := c.Session()
	if len(s.Turns) != 7 {
		t.Errorf("turns = %d, want 7", len(s.Turns))
	}
	if s.Score != 60 {
		t.Errorf("Score = %d, want 60", s.Score)
	}
	if s.Level() != 2 {
		t.Errorf("Level = %d, want 2", s.Level())
	}
}

func TestMemoryMatch_TurnCeiling(t *testing.T) {
	c := newTestController(t, activity.MemoryMatch, nil, speech.Backends{})

	cards := c.Board().Cards()
	a, b := 0, 1
	for cards[a].PairKey == cards[b].PairKey {
		b++
	}
	for i := range GameTurnLimit {
		if c.Phase() != PhaseInProgress {
			t.Fatalf("completed early after %d turns", i)
		}
		c.Flip(a)
		c.Flip(b)
		c.FlipBack()
	}
	if c.Phase() != PhaseCompleted {
		t.Fatalf("Phase = %v, want completed", c.Phase())
	}
	if n := len(c.Session().Turns); n != GameTurnLimit {
		t.Errorf("turns = %d, want %d", n, GameTurnLimit)
	}
	if _, _, err := c.Flip(a); !errors.Is(err, activity.ErrNotInProgress) {
		t.Errorf("Flip after completion: err = %v", err)
	}
}

func TestListeningTest_SubmitsMeanAccuracy(t *testing.T) {
	gw := &fakeGateway{accuracies: []float64{0.8, 0.6, 1.0, 0.4, 0.9}, newD: 1.6}
	c := newTestController(t, activity.ListeningTest, gw, speech.Backends{})
	s := c.Session()

	if !s.Degraded || s.ContentSource != pool.SourceBuiltin {
		t.Errorf("expected builtin degraded content, got %v degraded=%v", s.ContentSource, s.Degraded)
	}
	if len(s.Prompts) != TestItemLimit {
		t.Fatalf("prompts = %d, want %d", len(s.Prompts), TestItemLimit)
	}

	var vErr *activity.ValidationError
	if _, err := c.Answer("   "); !errors.As(err, &vErr) {
		t.Fatalf("blank answer: err = %v, want ValidationError", err)
	}
	if len(s.Turns) != 0 {
		t.Fatalf("blank answer consumed a turn")
	}

	for i := range TestItemLimit {
		if c.Current() != s.Prompts[i] {
			t.Fatalf("item %d: prompt out of order", i)
		}
		if _, err := c.Answer("answer"); err != nil {
			t.Fatalf("Answer %d: %v", i, err)
		}
	}
	if c.Phase() != PhaseCompleted {
		t.Fatalf("Phase = %v, want completed", c.Phase())
	}
	for _, o := range s.Turns {
		if o.Correct {
			t.Error("tests have no local correctness")
		}
	}

	if err := c.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(gw.means) != 1 || gw.means[0] < 0.7399 || gw.means[0] > 0.7401 {
		t.Errorf("UpdateDifficulty means = %v, want [0.74]", gw.means)
	}
	if c.Difficulty() != 1.6 {
		t.Errorf("Difficulty = %v, want 1.6", c.Difficulty())
	}
	if len(gw.items[0]) != TestItemLimit || gw.items[0][2].Prompt != s.Prompts[2].Text {
		t.Errorf("submitted items %+v", gw.items[0])
	}
}

func TestSubmitFailure_StaysCompleted(t *testing.T) {
	gw := &fakeGateway{itemsErr: &activity.ScoringError{Endpoint: "/api/listening-test", StatusCode: 500}}
	j := &fakeJournal{}
	p := pool.New(testContent())
	c, err := New(Config{Activity: activity.ListeningTest, Pool: p, Gateway: gw, Journal: j})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Abandon()
	if err := c.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	for range TestItemLimit {
		if _, err := c.Answer("words"); err != nil {
			t.Fatal(err)
		}
	}

	err = c.Submit(context.Background())
	if !activity.IsRetryable(err) {
		t.Fatalf("Submit err = %v, want retryable scoring error", err)
	}
	if c.Phase() != PhaseCompleted {
		t.Errorf("Phase = %v, want completed", c.Phase())
	}
	if c.Session().Results != nil || len(j.records) != 0 {
		t.Error("failed submission left partial state")
	}

	gw.itemsErr = nil
	gw.newD = 1.2
	if err := c.Submit(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(gw.items) != 2 {
		t.Errorf("submissions = %d, want 2 (whole-session retry)", len(gw.items))
	}
	if len(j.records) != 1 || len(j.records[0].Trials) != TestItemLimit {
		t.Errorf("journal records = %+v", j.records)
	}
	if err := c.Submit(context.Background()); !errors.Is(err, activity.ErrNotCompleted) {
		t.Errorf("second submit: err = %v", err)
	}
}

func TestSpeechTest_PermissionDeniedThenRetry(t *testing.T) {
	mic := &speech.MockMicrophone{Err: speech.ErrPermissionDenied}
	rec := &speech.MockRecognizer{Script: []speech.Result{{Text: "the sun is hot", Final: true}}}
	c := newTestController(t, activity.SpeechTest, &fakeGateway{}, speech.Backends{Microphone: mic, Recognizer: rec})

	var pErr *activity.PermissionError
	if err := c.StartRecording(context.Background()); !errors.As(err, &pErr) {
		t.Fatalf("StartRecording err = %v, want PermissionError", err)
	}
	if n := len(c.Session().Turns); n != 0 {
		t.Fatalf("turns = %d after denial, want 0", n)
	}
	if c.Recording() {
		t.Fatal("adapter should be idle after denial")
	}

	mic.SetErr(nil)
	if err := c.StartRecording(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for c.Transcript() == "" && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	text := c.StopRecording()
	if text != "the sun is hot" {
		t.Fatalf("transcript = %q", text)
	}
	if _, err := c.Answer(text); err != nil {
		t.Fatal(err)
	}
	if got := c.Session().Turns[0].CandidateText(); got != "the sun is hot" {
		t.Errorf("candidate = %q", got)
	}
	if mic.Released() != mic.Acquired() {
		t.Errorf("released %d of %d streams", mic.Released(), mic.Acquired())
	}
}

func TestRestartAndAbandon(t *testing.T) {
	c := newTestController(t, activity.SpellingBee, nil, speech.Backends{})

	if err := c.Start(context.Background()); !errors.Is(err, activity.ErrAlreadyStarted) {
		t.Fatalf("Start while running: err = %v", err)
	}
	for range GameTurnLimit {
		if _, err := c.Skip(); err != nil {
			t.Fatal(err)
		}
	}
	first := c.Session().ID

	if err := c.Submit(context.Background()); !errors.Is(err, ErrNoGateway) {
		t.Errorf("Submit without gateway: err = %v", err)
	}

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if c.Session().ID == first {
		t.Error("restart reused the session")
	}
	if len(c.Session().Turns) != 0 || c.Session().Score != 0 {
		t.Error("restart kept old turns")
	}

	c.Abandon()
	if c.Phase() != PhaseAbandoned || c.Session() != nil {
		t.Errorf("after Abandon: phase %v session %v", c.Phase(), c.Session())
	}
	if err := c.Start(context.Background()); !errors.Is(err, activity.ErrAbandoned) {
		t.Errorf("Start after Abandon: err = %v", err)
	}
}

// slowSource blocks until released or canceled.
type slowSource struct{ release chan struct{} }

func (s slowSource) FetchContent(ctx context.Context, _ activity.SubKind, _ int, d activity.Difficulty) ([]string, activity.Difficulty, error) {
	select {
	case <-s.release:
		return []string{"a cat", "a dog", "a hen", "a pig", "a cow"}, d, nil
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	}
}

func TestAbandonWhilePreparing(t *testing.T) {
	src := slowSource{release: make(chan struct{})}
	c, err := New(Config{
		Activity: activity.SpeechTest,
		Pool:     pool.New(testContent(), pool.WithContentSource(src)),
	})
	if err != nil {
		t.Fatal(err)
	}

	d := c.Difficulty()
	drawn := make(chan *Draw, 1)
	go func() {
		dr, err := c.Prepare(context.Background(), d)
		if err != nil {
			t.Errorf("Prepare: %v", err)
		}
		drawn <- dr
	}()

	c.Abandon()
	close(src.release)
	dr := <-drawn

	if err := c.Begin(dr); !errors.Is(err, activity.ErrAbandoned) {
		t.Fatalf("Begin after Abandon: err = %v", err)
	}
	if c.Phase() != PhaseAbandoned || c.Session() != nil || c.Runner() != nil {
		t.Errorf("after late draw: phase %v session %v runner %v", c.Phase(), c.Session(), c.Runner())
	}
}

func TestStart_ShortFallbackList(t *testing.T) {
	content := testContent()
	content.Listening = content.Listening[:TestItemLimit-1]
	c, err := New(Config{Activity: activity.ListeningTest, Pool: pool.New(content)})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(c.Abandon)

	err = c.Start(context.Background())
	var cfe *activity.ContentFetchError
	if !errors.As(err, &cfe) {
		t.Fatalf("Start: err = %v, want ContentFetchError", err)
	}
	if c.Phase() != PhaseNotStarted || c.Session() != nil {
		t.Errorf("after failed start: phase %v session %v", c.Phase(), c.Session())
	}
	if _, err := c.Answer("anything"); !errors.Is(err, activity.ErrNotInProgress) {
		t.Errorf("Answer: err = %v", err)
	}
}

func TestBegin_RejectsForeignDraw(t *testing.T) {
	p := pool.New(testContent())
	jumble, _ := New(Config{Activity: activity.WordJumble, Pool: p})
	spelling, _ := New(Config{Activity: activity.SpellingBee, Pool: p})

	dr, err := jumble.Prepare(context.Background(), activity.DefaultDifficulty)
	if err != nil {
		t.Fatal(err)
	}
	if err := spelling.Begin(dr); err == nil {
		t.Error("expected an error for a draw prepared by another activity")
	}
	if err := jumble.Begin(dr); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	jumble.Abandon()
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{Activity: "chess", Pool: pool.New(pool.Builtin())}); err == nil {
		t.Error("expected error for unknown activity")
	}
	if _, err := New(Config{Activity: activity.WordJumble}); err == nil {
		t.Error("expected error for missing pool")
	}
}

func TestLevelDivisors(t *testing.T) {
	tests := []struct {
		sub   activity.SubKind
		score int
		want  int
	}{
		{activity.WordJumble, 0, 1},
		{activity.WordJumble, 110, 3},
		{activity.MemoryMatch, 60, 2},
		{activity.MemoryMatch, 59, 1},
		{activity.SpellingBee, 110, 2},
		{activity.SpeechTest, 100, 0},
	}
	for _, tt := range tests {
		s := &Session{Activity: tt.sub, Score: tt.score}
		if got := s.Level(); got != tt.want {
			t.Errorf("%s score %d: Level = %d, want %d", tt.sub, tt.score, got, tt.want)
		}
	}
}
