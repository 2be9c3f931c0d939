package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// GetAttempt looks up an attempt by its idempotency id.
func (q *Queries) GetAttempt(ctx context.Context, attemptID string) (Attempt, error) {
	var a Attempt
	err := q.db.QueryRow(ctx,
		`SELECT attempt_id, user_id, lesson_id, total_answers, created_at FROM attempts WHERE attempt_id = $1`,
		attemptID,
	).Scan(&a.ID, &a.UserID, &a.LessonID, &a.TotalAnswers, &a.CreatedAt)
	if err != nil {
		return Attempt{}, notFound(err)
	}
	return a, nil
}

// CreateAttempt inserts the attempt row. It reports false, without error,
// when the attempt id already exists: the first writer wins.
func (q *Queries) CreateAttempt(ctx context.Context, a Attempt) (bool, error) {
	tag, err := q.db.Exec(ctx, `
INSERT INTO attempts (attempt_id, user_id, lesson_id, total_answers, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (attempt_id) DO NOTHING`,
		a.ID, a.UserID, a.LessonID, a.TotalAnswers, a.CreatedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

var submissionCopyColumns = []string{"attempt_id", "user_id", "lesson_id", "problem_id", "user_answer", "is_correct", "xp_awarded", "created_at"}

// InsertSubmissions appends graded answers with COPY.
func (q *Queries) InsertSubmissions(ctx context.Context, subs []Submission) error {
	if len(subs) == 0 {
		return nil
	}
	n, err := q.db.CopyFrom(ctx, pgx.Identifier{"submissions"}, submissionCopyColumns,
		pgx.CopyFromSlice(len(subs), func(i int) ([]any, error) {
			s := subs[i]
			return []any{s.AttemptID, s.UserID, s.LessonID, s.ProblemID, s.UserAnswer, s.IsCorrect, s.XPAwarded, s.CreatedAt}, nil
		}))
	if err != nil {
		return err
	}
	if int(n) != len(subs) {
		return fmt.Errorf("copy submissions: wrote %d of %d rows", n, len(subs))
	}
	return nil
}

// CountCorrectByAttempt counts the correct answers recorded for an attempt.
func (q *Queries) CountCorrectByAttempt(ctx context.Context, attemptID string) (int, error) {
	var n int
	err := q.db.QueryRow(ctx, `SELECT COUNT(*) FROM submissions WHERE attempt_id = $1 AND is_correct`, attemptID).Scan(&n)
	return n, err
}

// ListSubmissionsByAttempt returns the recorded answers of an attempt in insert order.
func (q *Queries) ListSubmissionsByAttempt(ctx context.Context, attemptID string) ([]Submission, error) {
	rows, err := q.db.Query(ctx, `
SELECT id, attempt_id, user_id, lesson_id, problem_id, user_answer, is_correct, xp_awarded, created_at
FROM submissions
WHERE attempt_id = $1
ORDER BY id`, attemptID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Submission, error) {
		var s Submission
		err := row.Scan(&s.ID, &s.AttemptID, &s.UserID, &s.LessonID, &s.ProblemID, &s.UserAnswer, &s.IsCorrect, &s.XPAwarded, &s.CreatedAt)
		return s, err
	})
}
