package leaderboard

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, now *time.Time) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc := NewService(client, zerolog.Nop(), ServiceOptions{
		Clock: func() time.Time { return *now },
	})
	return svc, mr
}

func TestRecordXPAndTop(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	svc, _ := newTestService(t, &now)
	ctx := context.Background()

	require.NoError(t, svc.RecordXP(ctx, 1, "User 1", 20))
	require.NoError(t, svc.RecordXP(ctx, 2, "User 2", 30))
	require.NoError(t, svc.RecordXP(ctx, 1, "User 1", 20))
	require.NoError(t, svc.RecordXP(ctx, 3, "User 3", 0))

	for _, window := range []string{WindowDaily, WindowWeekly, WindowAllTime} {
		top, err := svc.Top(ctx, window, 10)
		require.NoError(t, err, window)
		assert.Equal(t, []Entry{
			{Rank: 1, UserID: 1, DisplayName: "User 1", XP: 40},
			{Rank: 2, UserID: 2, DisplayName: "User 2", XP: 30},
		}, top, window)
	}
}

func TestDailyWindowRollsOver(t *testing.T) {
	now := time.Date(2024, 3, 10, 23, 0, 0, 0, time.UTC)
	svc, mr := newTestService(t, &now)
	ctx := context.Background()

	require.NoError(t, svc.RecordXP(ctx, 1, "User 1", 10))
	assert.Greater(t, mr.TTL("lb:xp:daily:2024-03-10"), time.Duration(0))
	assert.Equal(t, time.Duration(0), mr.TTL("lb:xp:all_time"))

	now = now.Add(2 * time.Hour)
	top, err := svc.Top(ctx, WindowDaily, 10)
	require.NoError(t, err)
	assert.Empty(t, top)

	top, err = svc.Top(ctx, WindowAllTime, 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, 10, top[0].XP)
}

func TestTopUnknownWindow(t *testing.T) {
	now := time.Now()
	svc, _ := newTestService(t, &now)

	_, err := svc.Top(context.Background(), "monthly", 10)
	assert.ErrorIs(t, err, ErrUnknownWindow)
}

func TestResetClearsEveryWindow(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	svc, mr := newTestService(t, &now)
	ctx := context.Background()

	require.NoError(t, svc.RecordXP(ctx, 1, "User 1", 20))
	require.NoError(t, mr.Set("session:1", "kept"))

	removed, err := svc.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, removed)

	for _, window := range []string{WindowDaily, WindowWeekly, WindowAllTime} {
		top, err := svc.Top(ctx, window, 10)
		require.NoError(t, err, window)
		assert.Empty(t, top, window)
	}
	assert.False(t, mr.Exists("lb:xp:names"))
	assert.True(t, mr.Exists("session:1"))
}

func TestPeriodKey(t *testing.T) {
	at := time.Date(2024, 12, 30, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "2024-12-30", PeriodKey(WindowDaily, at))
	assert.Equal(t, "2025-W01", PeriodKey(WindowWeekly, at))
	assert.Equal(t, "", PeriodKey(WindowAllTime, at))
}
