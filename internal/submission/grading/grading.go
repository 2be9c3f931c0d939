// Package grading holds the pure grading, streak and progress rules applied to
// every new submission. Nothing here touches storage or the clock.
package grading

import (
	"math"
	"strings"
	"time"

	"github.com/gokatarajesh/mathquest/internal/db/repository"
)

// Answer is one submitted answer.
type Answer struct {
	ProblemID int64
	Value     string
}

// Result is the grade of one answer that referenced a problem of the lesson.
type Result struct {
	ProblemID int64
	Answer    string
	IsCorrect bool
	XPAwarded int
}

// Summary aggregates a graded submission. TotalAnswers counts submitted
// answers, including those dropped for referencing unknown problems.
type Summary struct {
	Results        []Result
	CorrectAnswers int
	TotalAnswers   int
	TotalXPAwarded int
}

// IsCorrect decides one answer against one problem.
func IsCorrect(p repository.Problem, answer string) bool {
	switch p.Type {
	case repository.ProblemTypeMultipleChoice:
		for _, o := range p.Options {
			if o.Text == answer {
				return o.IsCorrect
			}
		}
		return false
	case repository.ProblemTypeInput:
		return strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(p.CorrectAnswer))
	default:
		return false
	}
}

// Grade grades every answer whose problem is in problems. Answers for other
// problem ids are skipped silently.
func Grade(problems []repository.Problem, answers []Answer) Summary {
	byID := make(map[int64]repository.Problem, len(problems))
	for _, p := range problems {
		byID[p.ID] = p
	}

	s := Summary{
		Results:      make([]Result, 0, len(answers)),
		TotalAnswers: len(answers),
	}
	for _, a := range answers {
		p, ok := byID[a.ProblemID]
		if !ok {
			continue
		}
		r := Result{ProblemID: p.ID, Answer: a.Value}
		if IsCorrect(p, a.Value) {
			r.IsCorrect = true
			r.XPAwarded = p.XPValue
			s.CorrectAnswers++
			s.TotalXPAwarded += p.XPValue
		}
		s.Results = append(s.Results, r)
	}
	return s
}

// Streak is the outcome of a streak transition.
type Streak struct {
	Current int
	Best    int
	// Extended is set when the submission started or lengthened the streak.
	Extended bool
}

// NextStreak applies one day of activity at now to the prior streak state.
// Only UTC calendar dates are compared. A last activity dated after now
// leaves the streak unchanged.
func NextStreak(current, best int, lastActivity *time.Time, now time.Time) Streak {
	next := Streak{Current: current}
	if lastActivity == nil {
		next.Current = 1
		next.Extended = true
	} else {
		switch days := daysBetween(*lastActivity, now); {
		case days == 1:
			next.Current = current + 1
			next.Extended = true
		case days >= 2:
			next.Current = 1
			next.Extended = true
		}
	}
	next.Best = max(best, next.Current)
	return next
}

func daysBetween(from, to time.Time) int {
	f := utcDate(from)
	t := utcDate(to)
	return int(t.Sub(f).Hours() / 24)
}

func utcDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ProgressPercent returns round(100*completed/total) clamped to [0, 100], or
// 0 for an empty lesson.
func ProgressPercent(completed, total int) int {
	if total <= 0 {
		return 0
	}
	pct := int(math.Round(100 * float64(completed) / float64(total)))
	return min(max(pct, 0), 100)
}

// IsCompleted reports whether completed covers the whole lesson.
func IsCompleted(completed, total int) bool {
	return completed >= total
}
