package submission

import (
	"context"

	"github.com/gokatarajesh/mathquest/internal/db/repository"
)

// Store is the data access the submission service needs outside of the
// write transaction.
type Store interface {
	GetAttempt(ctx context.Context, attemptID string) (repository.Attempt, error)
	GetLesson(ctx context.Context, lessonID int64) (repository.Lesson, error)
	GetUser(ctx context.Context, userID int64) (repository.User, error)
	GetProgress(ctx context.Context, userID, lessonID int64) (repository.Progress, error)
	CountCorrectByAttempt(ctx context.Context, attemptID string) (int, error)
	ListSubmissionsByAttempt(ctx context.Context, attemptID string) ([]repository.Submission, error)
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the write side, bound to one transaction. Everything done through a
// Tx commits together or not at all.
type Tx interface {
	CreateAttempt(ctx context.Context, a repository.Attempt) (bool, error)
	LockUser(ctx context.Context, userID int64) (repository.User, error)
	UpdateUserStats(ctx context.Context, arg repository.UpdateUserStatsParams) (repository.User, error)
	UpsertProgress(ctx context.Context, arg repository.UpsertProgressParams) (repository.Progress, error)
	InsertSubmissions(ctx context.Context, subs []repository.Submission) error
}

type postgresStore struct {
	*repository.Store
}

// NewPostgresStore adapts the pgx repository to Store.
func NewPostgresStore(s *repository.Store) Store {
	return postgresStore{Store: s}
}

func (p postgresStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	return p.Store.InTx(ctx, func(q *repository.Queries) error {
		return fn(q)
	})
}
