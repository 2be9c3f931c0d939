package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
)

const progressColumns = `user_id, lesson_id, problems_completed, total_problems, progress_percent, completed, last_attempt_at`

// GetProgress fetches the progress row for (user, lesson).
func (q *Queries) GetProgress(ctx context.Context, userID, lessonID int64) (Progress, error) {
	row := q.db.QueryRow(ctx, `SELECT `+progressColumns+` FROM user_progress WHERE user_id = $1 AND lesson_id = $2`, userID, lessonID)
	p, err := scanProgress(row)
	if err != nil {
		return Progress{}, notFound(err)
	}
	return p, nil
}

// ListProgressByUser returns every progress row a user owns.
func (q *Queries) ListProgressByUser(ctx context.Context, userID int64) ([]Progress, error) {
	rows, err := q.db.Query(ctx, `SELECT `+progressColumns+` FROM user_progress WHERE user_id = $1 ORDER BY lesson_id`, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Progress, error) {
		return scanProgress(row)
	})
}

const upsertProgress = `
INSERT INTO user_progress (user_id, lesson_id, problems_completed, total_problems, progress_percent, completed, last_attempt_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (user_id, lesson_id) DO UPDATE SET
    problems_completed = EXCLUDED.problems_completed,
    total_problems = EXCLUDED.total_problems,
    progress_percent = EXCLUDED.progress_percent,
    completed = EXCLUDED.completed,
    last_attempt_at = EXCLUDED.last_attempt_at,
    updated_at = now()
RETURNING ` + progressColumns

// UpsertProgress creates or replaces the progress row for (user, lesson).
func (q *Queries) UpsertProgress(ctx context.Context, arg UpsertProgressParams) (Progress, error) {
	row := q.db.QueryRow(ctx, upsertProgress,
		arg.UserID, arg.LessonID, arg.ProblemsCompleted, arg.TotalProblems, arg.ProgressPercent, arg.Completed, arg.LastAttemptAt)
	return scanProgress(row)
}

func scanProgress(row scanner) (Progress, error) {
	var p Progress
	err := row.Scan(&p.UserID, &p.LessonID, &p.ProblemsCompleted, &p.TotalProblems, &p.ProgressPercent, &p.Completed, &p.LastAttemptAt)
	return p, err
}
