package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// sessionRepo implements SessionRepo.
type sessionRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

func (r *sessionRepo) RecordSession(ctx context.Context, rec SessionRecord) error {
	if rec.ID == "" {
		return errors.New("record session: missing id")
	}
	// The counter needs the connection, so take it before the transaction.
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO sessions
		(id, sequence, activity, kind, score, level, turn_limit, difficulty, degraded,
		 mean_accuracy, new_difficulty, started_at, completed_at, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, seqNum, rec.Activity, rec.Kind, rec.Score, rec.Level, rec.TurnLimit,
		rec.Difficulty, rec.Degraded, nullFloat(rec.MeanAccuracy), nullFloat(rec.NewDifficulty),
		toMillis(rec.StartedAt), toMillis(rec.CompletedAt), toMillis(rec.SubmittedAt),
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	for _, t := range rec.Trials {
		var candidate sql.NullString
		if t.Candidate != nil {
			candidate = sql.NullString{String: *t.Candidate, Valid: true}
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO trial_outcomes
			(session_id, turn_index, prompt_id, prompt, candidate, correct, skipped)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, t.TurnIndex, t.PromptID, t.Prompt, candidate, t.Correct, t.Skipped,
		)
		if err != nil {
			return fmt.Errorf("save trial %d: %w", t.TurnIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

const sessionColumns = `id, sequence, activity, kind, score, level, turn_limit, difficulty,
	degraded, mean_accuracy, new_difficulty, started_at, completed_at, submitted_at`

func (r *sessionRepo) ListSessions(ctx context.Context, opts QueryOpts) ([]SessionRecord, error) {
	where, args := opts.where("submitted_at")
	if opts.Activity != "" {
		if where == "" {
			where = " WHERE activity = ?"
		} else {
			where += " AND activity = ?"
		}
		args = append(args, opts.Activity)
	}
	q := `SELECT ` + sessionColumns + ` FROM sessions` + where + ` ORDER BY sequence DESC`
	if opts.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (r *sessionRepo) GetSession(ctx context.Context, id string) (*SessionRecord, error) {
	rec, err := scanSession(r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `SELECT turn_index, prompt_id, prompt, candidate, correct, skipped
		FROM trial_outcomes WHERE session_id = ? ORDER BY turn_index`, id)
	if err != nil {
		return nil, fmt.Errorf("query trials: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			t         TrialRecord
			candidate sql.NullString
		)
		if err := rows.Scan(&t.TurnIndex, &t.PromptID, &t.Prompt, &candidate, &t.Correct, &t.Skipped); err != nil {
			return nil, fmt.Errorf("scan trial: %w", err)
		}
		if candidate.Valid {
			s := candidate.String
			t.Candidate = &s
		}
		rec.Trials = append(rec.Trials, t)
	}
	return rec, rows.Err()
}

func (r *sessionRepo) Summaries(ctx context.Context) ([]ActivitySummary, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT activity, COUNT(*), MAX(score), AVG(score),
		AVG(mean_accuracy), MAX(submitted_at)
		FROM sessions GROUP BY activity ORDER BY activity`)
	if err != nil {
		return nil, fmt.Errorf("query summaries: %w", err)
	}
	defer rows.Close()

	var out []ActivitySummary
	for rows.Next() {
		var (
			s    ActivitySummary
			acc  sql.NullFloat64
			last int64
		)
		if err := rows.Scan(&s.Activity, &s.Sessions, &s.BestScore, &s.AvgScore, &acc, &last); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		if acc.Valid {
			v := acc.Float64
			s.AvgAccuracy = &v
		}
		s.LastPlayedAt = fromMillis(last)
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanSession(s scanner) (*SessionRecord, error) {
	var (
		rec                      SessionRecord
		mean, newD               sql.NullFloat64
		started, done, submitted int64
	)
	err := s.Scan(&rec.ID, &rec.Sequence, &rec.Activity, &rec.Kind, &rec.Score, &rec.Level,
		&rec.TurnLimit, &rec.Difficulty, &rec.Degraded, &mean, &newD, &started, &done, &submitted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	if mean.Valid {
		v := mean.Float64
		rec.MeanAccuracy = &v
	}
	if newD.Valid {
		v := newD.Float64
		rec.NewDifficulty = &v
	}
	rec.StartedAt = fromMillis(started)
	rec.CompletedAt = fromMillis(done)
	rec.SubmittedAt = fromMillis(submitted)
	return &rec, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
