package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func countRows(t *testing.T, s *Store, table string) int {
	t.Helper()
	var n int
	if err := s.DB().QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func strPtr(s string) *string      { return &s }
func floatPtr(f float64) *float64 { return &f }

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)
	for _, table := range []string{"sessions", "trial_outcomes", "llm_request_events", "snapshots", "global_sequence"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s: %v", table, err)
		}
	}
}

func testRecord(id, activity string, score int, submitted time.Time) SessionRecord {
	return SessionRecord{
		ID:          id,
		Activity:    activity,
		Kind:        "game",
		Score:       score,
		Level:       score/50 + 1,
		TurnLimit:   11,
		Difficulty:  1.0,
		StartedAt:   submitted.Add(-2 * time.Minute),
		CompletedAt: submitted.Add(-time.Second),
		SubmittedAt: submitted,
		Trials: []TrialRecord{
			{TurnIndex: 0, PromptID: "word_jumble:1", Prompt: "the cat sat", Candidate: strPtr("the cat sat"), Correct: true},
			{TurnIndex: 1, PromptID: "word_jumble:2", Prompt: "a dog ran", Skipped: true},
		},
	}
}

func TestRecordAndGetSession(t *testing.T) {
	s := openTestStore(t)
	repo := s.SessionRepo()
	ctx := context.Background()

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	rec := testRecord("s1", "word_jumble", 10, at)
	if err := repo.RecordSession(ctx, rec); err != nil {
		t.Fatalf("record: %v", err)
	}

	got, err := repo.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Score != 10 || got.Level != 1 || got.Activity != "word_jumble" {
		t.Errorf("got %+v", got)
	}
	if !got.SubmittedAt.Equal(at) {
		t.Errorf("SubmittedAt = %v, want %v", got.SubmittedAt, at)
	}
	if got.MeanAccuracy != nil {
		t.Error("games have no mean accuracy")
	}
	if len(got.Trials) != 2 {
		t.Fatalf("trials = %d, want 2", len(got.Trials))
	}
	if got.Trials[0].Candidate == nil || *got.Trials[0].Candidate != "the cat sat" {
		t.Errorf("trial 0 candidate = %v", got.Trials[0].Candidate)
	}
	if got.Trials[1].Candidate != nil || !got.Trials[1].Skipped {
		t.Errorf("trial 1 = %+v, want skipped with nil candidate", got.Trials[1])
	}
	if got.Correct() != 1 {
		t.Errorf("Correct = %d, want 1", got.Correct())
	}

	if _, err := repo.GetSession(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing session: err = %v, want ErrNotFound", err)
	}
}

func TestRecordSessionIsAtomic(t *testing.T) {
	s := openTestStore(t)
	repo := s.SessionRepo()
	ctx := context.Background()

	rec := testRecord("dup", "word_jumble", 0, time.Now())
	rec.Trials[1].TurnIndex = 0 // duplicate key fails the second insert
	if err := repo.RecordSession(ctx, rec); err == nil {
		t.Fatal("expected error for duplicate turn index")
	}
	if n := countRows(t, s, "sessions"); n != 0 {
		t.Errorf("sessions = %d after failed insert, want 0", n)
	}
	if n := countRows(t, s, "trial_outcomes"); n != 0 {
		t.Errorf("trial_outcomes = %d after failed insert, want 0", n)
	}
}

func TestListSessionsAndSummaries(t *testing.T) {
	s := openTestStore(t)
	repo := s.SessionRepo()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, r := range []SessionRecord{
		testRecord("a", "word_jumble", 30, base),
		testRecord("b", "memory_match", 60, base.Add(time.Hour)),
		testRecord("c", "word_jumble", 70, base.Add(2*time.Hour)),
	} {
		if err := repo.RecordSession(ctx, r); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}
	test := testRecord("d", "listening_test", 0, base.Add(3*time.Hour))
	test.Kind = "test"
	test.MeanAccuracy = floatPtr(0.74)
	test.NewDifficulty = floatPtr(1.6)
	if err := repo.RecordSession(ctx, test); err != nil {
		t.Fatalf("record test: %v", err)
	}

	all, err := repo.ListSessions(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 4 || all[0].ID != "d" || all[3].ID != "a" {
		t.Errorf("list order = %v", ids(all))
	}
	if all[0].Trials != nil {
		t.Error("ListSessions should not load trials")
	}

	jumbles, err := repo.ListSessions(ctx, QueryOpts{Activity: "word_jumble", Limit: 1})
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(jumbles) != 1 || jumbles[0].ID != "c" {
		t.Errorf("filtered = %v, want [c]", ids(jumbles))
	}

	recent, err := repo.ListSessions(ctx, QueryOpts{From: base.Add(90 * time.Minute)})
	if err != nil {
		t.Fatalf("list from: %v", err)
	}
	if len(recent) != 2 {
		t.Errorf("from filter = %v, want [d c]", ids(recent))
	}

	sums, err := repo.Summaries(ctx)
	if err != nil {
		t.Fatalf("summaries: %v", err)
	}
	byActivity := map[string]ActivitySummary{}
	for _, sum := range sums {
		byActivity[sum.Activity] = sum
	}
	wj := byActivity["word_jumble"]
	if wj.Sessions != 2 || wj.BestScore != 70 || wj.AvgScore != 50 {
		t.Errorf("word_jumble summary = %+v", wj)
	}
	if wj.AvgAccuracy != nil {
		t.Error("games have no accuracy")
	}
	lt := byActivity["listening_test"]
	if lt.AvgAccuracy == nil || *lt.AvgAccuracy != 0.74 {
		t.Errorf("listening_test accuracy = %v", lt.AvgAccuracy)
	}
}

func ids(recs []SessionRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func TestLLMEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	for i, purpose := range []string{"test-content", "test-content", "other"} {
		err := repo.AppendLLMRequest(ctx, LLMRequestEventData{
			Provider:     "mock",
			Model:        "mock-model",
			Purpose:      purpose,
			InputTokens:  10 * (i + 1),
			OutputTokens: 5,
			LatencyMs:    120,
			Success:      i != 2,
			ErrorMessage: map[bool]string{true: "", false: "rate limited"}[i != 2],
			RequestBody:  `{"messages":[]}`,
			ResponseBody: `{"sentences":[]}`,
		})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	events, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 2})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if events[0].Purpose != "other" || events[0].Success {
		t.Errorf("newest event = %+v", events[0])
	}
	if events[0].Sequence <= events[1].Sequence {
		t.Error("events not newest first")
	}

	e, err := repo.GetLLMEvent(ctx, events[1].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if e.RequestBody != `{"messages":[]}` || e.ResponseBody != `{"sentences":[]}` {
		t.Errorf("bodies not stored: %+v", e)
	}

	missing, err := repo.GetLLMEvent(ctx, 999)
	if err != nil || missing != nil {
		t.Errorf("missing event = %v, %v", missing, err)
	}
}

func TestSnapshotSaveAndLatest(t *testing.T) {
	s := openTestStore(t)
	repo := s.SnapshotRepo()
	ctx := context.Background()

	snap, err := repo.Latest(ctx)
	if err != nil {
		t.Fatalf("latest (empty): %v", err)
	}
	if snap != nil {
		t.Fatal("expected nil snapshot when none exist")
	}

	now := time.Now().UTC().Truncate(time.Second)
	err = repo.Save(ctx, &Snapshot{
		Sequence:  42,
		Timestamp: now,
		Data:      SnapshotData{Version: 1, UserID: 3, Difficulty: 1.6},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	snap, err = repo.Latest(ctx)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if snap == nil {
		t.Fatal("expected non-nil snapshot")
	}
	if snap.Sequence != 42 {
		t.Errorf("sequence = %d, want 42", snap.Sequence)
	}
	if snap.Data.Difficulty != 1.6 || snap.Data.UserID != 3 {
		t.Errorf("data = %+v", snap.Data)
	}
	if !snap.Timestamp.Equal(now) {
		t.Errorf("timestamp = %v, want %v", snap.Timestamp, now)
	}
}

func TestSnapshotPrune(t *testing.T) {
	s := openTestStore(t)
	repo := s.SnapshotRepo()
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 7; i++ {
		err := repo.Save(ctx, &Snapshot{
			Sequence:  int64(i + 1),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Data:      SnapshotData{Version: 1},
		})
		if err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}

	if err := repo.Prune(ctx, 5); err != nil {
		t.Fatalf("prune: %v", err)
	}
	if n := countRows(t, s, "snapshots"); n != 5 {
		t.Errorf("remaining snapshots = %d, want 5", n)
	}

	snap, err := repo.Latest(ctx)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if snap.Sequence != 7 {
		t.Errorf("latest sequence = %d, want 7", snap.Sequence)
	}

	// Fewer than keep is a no-op.
	if err := repo.Prune(ctx, 10); err != nil {
		t.Fatalf("prune: %v", err)
	}
	if n := countRows(t, s, "snapshots"); n != 5 {
		t.Errorf("remaining snapshots = %d, want 5", n)
	}
}

func TestSequenceSharedAcrossTables(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.EventRepo().AppendLLMRequest(ctx, LLMRequestEventData{Provider: "mock"}); err != nil {
		t.Fatal(err)
	}
	if err := s.SessionRepo().RecordSession(ctx, testRecord("x", "word_jumble", 0, time.Now())); err != nil {
		t.Fatal(err)
	}
	if err := s.EventRepo().AppendLLMRequest(ctx, LLMRequestEventData{Provider: "mock"}); err != nil {
		t.Fatal(err)
	}

	events, _ := s.EventRepo().QueryLLMEvents(ctx, QueryOpts{})
	sess, _ := s.SessionRepo().GetSession(ctx, "x")
	if len(events) != 2 || sess == nil {
		t.Fatalf("events %d, session %v", len(events), sess)
	}
	if !(events[1].Sequence < sess.Sequence && sess.Sequence < events[0].Sequence) {
		t.Errorf("sequences not interleaved: %d %d %d", events[1].Sequence, sess.Sequence, events[0].Sequence)
	}

	after, err := s.EventRepo().QueryLLMEvents(ctx, QueryOpts{After: sess.Sequence})
	if err != nil {
		t.Fatal(err)
	}
	if len(after) != 1 {
		t.Errorf("events after session = %d, want 1", len(after))
	}
}

func TestDefaultDBPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LEXIQUEST_DB", "")
	t.Setenv("XDG_DATA_HOME", dir)

	p, err := DefaultDBPath()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "lexiquest", "lexiquest.db"); p != want {
		t.Errorf("path = %q, want %q", p, want)
	}

	custom := filepath.Join(dir, "nested", "x.db")
	t.Setenv("LEXIQUEST_DB", custom)
	p, err = DefaultDBPath()
	if err != nil {
		t.Fatal(err)
	}
	if p != custom {
		t.Errorf("path = %q, want %q", p, custom)
	}
}
