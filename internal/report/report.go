// Package report renders a finished session as the plain-text results file
// a parent can save or print.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/lexiquest/lexiquest/internal/activity"
	"github.com/lexiquest/lexiquest/internal/session"
	"github.com/lexiquest/lexiquest/internal/store"
)

// Trial is one line item of a report.
type Trial struct {
	Prompt    string
	Candidate *string
	Correct   bool
	Skipped   bool
	Accuracy  *float64 // per-item scoring only
}

// Report is the printable summary of one session.
type Report struct {
	Activity  activity.SubKind
	Date      time.Time
	Score     int
	Level     int
	TurnLimit int
	Trials    []Trial
	Degraded  bool

	MeanAccuracy  *float64
	NewDifficulty *activity.Difficulty
}

// Correct counts correct trials.
func (r Report) Correct() int {
	n := 0
	for _, t := range r.Trials {
		if t.Correct {
			n++
		}
	}
	return n
}

// FromSession builds a report from a completed or submitted session.
func FromSession(s *session.Session) Report {
	r := Report{
		Activity:  s.Activity,
		Date:      s.CompletedAt,
		Score:     s.Score,
		Level:     s.Level(),
		TurnLimit: s.TurnLimit,
		Degraded:  s.Degraded,
	}
	perItem := len(s.Results) == len(s.Turns)
	for i, o := range s.Turns {
		t := Trial{Prompt: o.Prompt, Candidate: o.Candidate, Correct: o.Correct, Skipped: o.Skipped}
		if perItem {
			acc := s.Results[i].Accuracy
			t.Accuracy = &acc
		}
		r.Trials = append(r.Trials, t)
	}
	if s.Phase == session.PhaseSubmitted && s.Kind() == activity.KindTest {
		mean, nd := s.MeanAccuracy, s.NewDifficulty
		r.MeanAccuracy = &mean
		r.NewDifficulty = &nd
	}
	return r
}

// FromRecord builds a report from a journaled session.
func FromRecord(rec store.SessionRecord) Report {
	r := Report{
		Activity:     activity.SubKind(rec.Activity),
		Date:         rec.CompletedAt,
		Score:        rec.Score,
		Level:        rec.Level,
		TurnLimit:    rec.TurnLimit,
		Degraded:     rec.Degraded,
		MeanAccuracy: rec.MeanAccuracy,
	}
	if rec.NewDifficulty != nil {
		d := activity.Difficulty(*rec.NewDifficulty)
		r.NewDifficulty = &d
	}
	for _, t := range rec.Trials {
		r.Trials = append(r.Trials, Trial{Prompt: t.Prompt, Candidate: t.Candidate, Correct: t.Correct, Skipped: t.Skipped})
	}
	return r
}

// Filename is the suggested file name, e.g. word_jumble_results_2026-03-01.txt.
func Filename(r Report) string {
	return fmt.Sprintf("%s_results_%s.txt", r.Activity, r.Date.Format("2006-01-02"))
}

// Render writes r as text.
func Render(w io.Writer, r Report) error {
	var b strings.Builder
	test := r.Activity.Kind() == activity.KindTest

	title := r.Activity.DisplayName() + " Results"
	b.WriteString(title + "\n")
	b.WriteString(strings.Repeat("=", len(title)) + "\n\n")
	if !r.Date.IsZero() {
		fmt.Fprintf(&b, "Date: %s\n", r.Date.Format("2006-01-02 15:04"))
	}

	if test {
		fmt.Fprintf(&b, "Items: %d\n", len(r.Trials))
		if r.MeanAccuracy != nil {
			fmt.Fprintf(&b, "Mean Accuracy: %.0f%%\n", *r.MeanAccuracy*100)
		}
		if r.NewDifficulty != nil {
			fmt.Fprintf(&b, "New Difficulty: %.1f (%s)\n", float64(*r.NewDifficulty), r.NewDifficulty.Label())
		}
	} else {
		fmt.Fprintf(&b, "Final Score: %d\n", r.Score)
		fmt.Fprintf(&b, "Level: %d\n", r.Level)
		fmt.Fprintf(&b, "Correct: %d\n", r.Correct())
		fmt.Fprintf(&b, "Total Moves: %d of %d\n", len(r.Trials), r.TurnLimit)
	}
	if r.Degraded {
		b.WriteString("Note: practice content was used because adaptive content was unavailable.\n")
	}

	if test {
		b.WriteString("\nALL ITEMS WITH ANSWERS:\n\n")
	} else {
		b.WriteString("\nALL TRIALS WITH ANSWERS:\n\n")
	}
	for i, t := range r.Trials {
		writeTrial(&b, r.Activity, i+1, t)
		b.WriteString("\n")
	}

	if !test {
		b.WriteString("CORRECT ONLY:\n\n")
		n := 0
		for _, t := range r.Trials {
			if !t.Correct {
				continue
			}
			n++
			if r.Activity == activity.MemoryMatch {
				fmt.Fprintf(&b, "%d. %s + %s\n", n, t.Prompt, deref(t.Candidate))
			} else {
				fmt.Fprintf(&b, "%d. %s\n", n, t.Prompt)
			}
		}
		if n == 0 {
			b.WriteString("(none)\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeTrial(b *strings.Builder, sub activity.SubKind, n int, t Trial) {
	switch {
	case sub == activity.MemoryMatch:
		fmt.Fprintf(b, "%d. %s + %s\n", n, t.Prompt, deref(t.Candidate))
		if t.Correct {
			b.WriteString("   MATCH\n")
		} else {
			b.WriteString("   NO MATCH\n")
		}
	case sub.Kind() == activity.KindTest:
		fmt.Fprintf(b, "%d. %s\n", n, t.Prompt)
		fmt.Fprintf(b, "   Your answer: %q\n", deref(t.Candidate))
		if t.Accuracy != nil {
			fmt.Fprintf(b, "   Accuracy: %.0f%%\n", *t.Accuracy*100)
		}
	default:
		fmt.Fprintf(b, "%d. %s\n", n, t.Prompt)
		switch {
		case t.Skipped:
			b.WriteString("   SKIPPED\n")
		case t.Correct:
			b.WriteString("   CORRECT\n")
		default:
			b.WriteString("   INCORRECT\n")
		}
		if t.Candidate != nil {
			fmt.Fprintf(b, "   Your answer: %q\n", *t.Candidate)
		}
		fmt.Fprintf(b, "   Correct answer: %q\n", t.Prompt)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
