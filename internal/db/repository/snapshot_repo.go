package repository

import "context"

// InsertLeaderboardSnapshot persists a serialized leaderboard window.
func (q *Queries) InsertLeaderboardSnapshot(ctx context.Context, arg InsertLeaderboardSnapshotParams) (LeaderboardSnapshot, error) {
	var s LeaderboardSnapshot
	err := q.db.QueryRow(ctx, `
INSERT INTO leaderboard_snapshots (time_window, generated_at, entries, source_hash)
VALUES ($1, $2, $3, $4)
RETURNING id, time_window, generated_at, entries, source_hash`,
		arg.TimeWindow, arg.GeneratedAt, arg.Entries, arg.SourceHash,
	).Scan(&s.ID, &s.TimeWindow, &s.GeneratedAt, &s.Entries, &s.SourceHash)
	return s, err
}

// LatestLeaderboardSnapshot returns the newest snapshot of a window.
func (q *Queries) LatestLeaderboardSnapshot(ctx context.Context, window string) (LeaderboardSnapshot, error) {
	var s LeaderboardSnapshot
	err := q.db.QueryRow(ctx, `
SELECT id, time_window, generated_at, entries, source_hash
FROM leaderboard_snapshots
WHERE time_window = $1
ORDER BY generated_at DESC
LIMIT 1`, window).Scan(&s.ID, &s.TimeWindow, &s.GeneratedAt, &s.Entries, &s.SourceHash)
	if err != nil {
		return LeaderboardSnapshot{}, notFound(err)
	}
	return s, nil
}
