package repository

import (
	"context"
)

const userColumns = `id, name, email, total_xp, current_streak, best_streak, last_activity_date, created_at`

// GetUser fetches a user by id.
func (q *Queries) GetUser(ctx context.Context, userID int64) (User, error) {
	row := q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
	u, err := scanUser(row)
	if err != nil {
		return User{}, notFound(err)
	}
	return u, nil
}

// LockUser fetches a user and holds its row lock until the surrounding
// transaction ends. Only meaningful on transaction-bound Queries.
func (q *Queries) LockUser(ctx context.Context, userID int64) (User, error) {
	row := q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, userID)
	u, err := scanUser(row)
	if err != nil {
		return User{}, notFound(err)
	}
	return u, nil
}

const updateUserStats = `
UPDATE users
SET total_xp = $2,
    current_streak = $3,
    best_streak = $4,
    last_activity_date = $5,
    updated_at = now()
WHERE id = $1
RETURNING ` + userColumns

// UpdateUserStats writes the XP and streak counters.
func (q *Queries) UpdateUserStats(ctx context.Context, arg UpdateUserStatsParams) (User, error) {
	row := q.db.QueryRow(ctx, updateUserStats, arg.UserID, arg.TotalXP, arg.CurrentStreak, arg.BestStreak, arg.LastActivityDate)
	u, err := scanUser(row)
	if err != nil {
		return User{}, notFound(err)
	}
	return u, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.TotalXP, &u.CurrentStreak, &u.BestStreak, &u.LastActivityDate, &u.CreatedAt)
	return u, err
}
