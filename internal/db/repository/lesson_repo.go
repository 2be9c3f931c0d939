package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const getLesson = `
SELECT id, title, description, order_index, created_at
FROM lessons
WHERE id = $1`

const listProblemsByLesson = `
SELECT id, lesson_id, type, question, correct_answer, xp_value, order_index
FROM problems
WHERE lesson_id = $1
ORDER BY order_index, id`

const listOptionsByLesson = `
SELECT o.id, o.problem_id, o.option_text, o.is_correct
FROM problem_options o
JOIN problems p ON p.id = o.problem_id
WHERE p.lesson_id = $1
ORDER BY o.id`

// GetLesson loads a lesson with every problem and option, correctness included.
func (q *Queries) GetLesson(ctx context.Context, lessonID int64) (Lesson, error) {
	var l Lesson
	err := q.db.QueryRow(ctx, getLesson, lessonID).Scan(&l.ID, &l.Title, &l.Description, &l.OrderIndex, &l.CreatedAt)
	if err != nil {
		return Lesson{}, notFound(err)
	}

	rows, err := q.db.Query(ctx, listProblemsByLesson, lessonID)
	if err != nil {
		return Lesson{}, fmt.Errorf("list problems: %w", err)
	}
	problems, err := pgx.CollectRows(rows, scanProblem)
	if err != nil {
		return Lesson{}, fmt.Errorf("scan problems: %w", err)
	}

	rows, err = q.db.Query(ctx, listOptionsByLesson, lessonID)
	if err != nil {
		return Lesson{}, fmt.Errorf("list options: %w", err)
	}
	options, err := pgx.CollectRows(rows, scanOption)
	if err != nil {
		return Lesson{}, fmt.Errorf("scan options: %w", err)
	}

	l.Problems = attachOptions(problems, options)
	return l, nil
}

const getProblem = `
SELECT id, lesson_id, type, question, correct_answer, xp_value, order_index
FROM problems
WHERE id = $1`

const listOptionsByProblem = `
SELECT id, problem_id, option_text, is_correct
FROM problem_options
WHERE problem_id = $1
ORDER BY id`

// GetProblem loads one problem with its options.
func (q *Queries) GetProblem(ctx context.Context, problemID int64) (Problem, error) {
	rows, err := q.db.Query(ctx, getProblem, problemID)
	if err != nil {
		return Problem{}, err
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanProblem)
	if err != nil {
		return Problem{}, notFound(err)
	}

	rows, err = q.db.Query(ctx, listOptionsByProblem, problemID)
	if err != nil {
		return Problem{}, fmt.Errorf("list options: %w", err)
	}
	p.Options, err = pgx.CollectRows(rows, scanOption)
	if err != nil {
		return Problem{}, fmt.Errorf("scan options: %w", err)
	}
	return p, nil
}

const listLessonSummaries = `
SELECT l.id, l.title, l.description, l.order_index, l.created_at,
       (SELECT COUNT(*) FROM problems p WHERE p.lesson_id = l.id) AS total_problems,
       up.problems_completed, up.total_problems, up.progress_percent, up.completed, up.last_attempt_at
FROM lessons l
LEFT JOIN user_progress up ON up.lesson_id = l.id AND up.user_id = $1
ORDER BY l.order_index, l.id`

// ListLessonSummaries returns the catalog ordered by order_index with the
// given user's progress joined in.
func (q *Queries) ListLessonSummaries(ctx context.Context, userID int64) ([]LessonSummary, error) {
	rows, err := q.db.Query(ctx, listLessonSummaries, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (LessonSummary, error) {
		var (
			s         LessonSummary
			completed *int
			total     *int
			percent   *int
			done      *bool
		)
		p := Progress{}
		if err := row.Scan(&s.ID, &s.Title, &s.Description, &s.OrderIndex, &s.CreatedAt, &s.TotalProblems,
			&completed, &total, &percent, &done, &p.LastAttemptAt); err != nil {
			return LessonSummary{}, err
		}
		if completed != nil {
			p.UserID = userID
			p.LessonID = s.ID
			p.ProblemsCompleted = *completed
			p.TotalProblems = deref(total)
			p.ProgressPercent = deref(percent)
			p.Completed = done != nil && *done
			s.Progress = &p
		}
		return s, nil
	})
}

// CountLessons returns the number of lessons in the catalog.
func (q *Queries) CountLessons(ctx context.Context) (int, error) {
	var n int
	err := q.db.QueryRow(ctx, `SELECT COUNT(*) FROM lessons`).Scan(&n)
	return n, err
}

func scanProblem(row pgx.CollectableRow) (Problem, error) {
	var p Problem
	err := row.Scan(&p.ID, &p.LessonID, &p.Type, &p.Question, &p.CorrectAnswer, &p.XPValue, &p.OrderIndex)
	return p, err
}

func scanOption(row pgx.CollectableRow) (Option, error) {
	var o Option
	err := row.Scan(&o.ID, &o.ProblemID, &o.Text, &o.IsCorrect)
	return o, err
}

func attachOptions(problems []Problem, options []Option) []Problem {
	byProblem := make(map[int64][]Option, len(problems))
	for _, o := range options {
		byProblem[o.ProblemID] = append(byProblem[o.ProblemID], o)
	}
	for i := range problems {
		problems[i].Options = byProblem[problems[i].ID]
	}
	return problems
}

func deref[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}
	return *v
}
