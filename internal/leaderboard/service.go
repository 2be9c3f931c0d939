package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Supported leaderboard windows.
const (
	WindowDaily   = "daily"
	WindowWeekly  = "weekly"
	WindowAllTime = "all_time"
)

var defaultWindows = []string{WindowDaily, WindowWeekly, WindowAllTime}

// ErrUnknownWindow is returned for a window name outside the supported set.
var ErrUnknownWindow = errors.New("unknown leaderboard window")

// Entry is one ranked learner.
type Entry struct {
	Rank        int    `json:"rank"`
	UserID      int64  `json:"userId"`
	DisplayName string `json:"displayName"`
	XP          int    `json:"xp"`
}

// ServiceOptions configures leaderboard service behavior.
type ServiceOptions struct {
	TopN           int
	DailyTTL       time.Duration
	WeeklyTTL      time.Duration
	RedisKeyPrefix string
	Clock          func() time.Time
}

// Service keeps XP rankings in Redis sorted sets, one per window period.
// Daily and weekly sets are keyed by their UTC period and expire on their own.
type Service struct {
	redis     redis.UniversalClient
	logger    zerolog.Logger
	topN      int
	dailyTTL  time.Duration
	weeklyTTL time.Duration
	prefix    string
	now       func() time.Time
}

// NewService constructs a leaderboard service instance.
func NewService(client redis.UniversalClient, logger zerolog.Logger, opts ServiceOptions) *Service {
	topN := opts.TopN
	if topN <= 0 {
		topN = 100
	}
	prefix := opts.RedisKeyPrefix
	if prefix == "" {
		prefix = "lb:xp"
	}
	dailyTTL := opts.DailyTTL
	if dailyTTL <= 0 {
		dailyTTL = 48 * time.Hour
	}
	weeklyTTL := opts.WeeklyTTL
	if weeklyTTL <= 0 {
		weeklyTTL = 14 * 24 * time.Hour
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}

	return &Service{
		redis:     client,
		logger:    logger.With().Str("component", "leaderboard").Logger(),
		topN:      topN,
		dailyTTL:  dailyTTL,
		weeklyTTL: weeklyTTL,
		prefix:    prefix,
		now:       now,
	}
}

// RecordXP adds xp to the user's score in every window.
func (s *Service) RecordXP(ctx context.Context, userID int64, displayName string, xp int) error {
	if xp <= 0 {
		return nil
	}
	member := strconv.FormatInt(userID, 10)
	now := s.now()

	pipe := s.redis.TxPipeline()
	for _, window := range defaultWindows {
		key := s.leaderboardKey(window, now)
		pipe.ZIncrBy(ctx, key, float64(xp), member)
		if ttl := s.ttl(window); ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
	}
	pipe.HSet(ctx, s.namesKey(), member, displayName)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record leaderboard xp: %w", err)
	}
	return nil
}

// Top retrieves the top entries of the current period of window.
func (s *Service) Top(ctx context.Context, window string, limit int) ([]Entry, error) {
	if !IsValidWindow(window) {
		return nil, ErrUnknownWindow
	}
	if limit <= 0 || limit > s.topN {
		limit = s.topN
	}

	results, err := s.redis.ZRevRangeWithScores(ctx, s.leaderboardKey(window, s.now()), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch leaderboard: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	members := make([]string, len(results))
	for i, z := range results {
		members[i], _ = z.Member.(string)
	}
	names, err := s.redis.HMGet(ctx, s.namesKey(), members...).Result()
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to read leaderboard display names")
		names = make([]interface{}, len(members))
	}

	entries := make([]Entry, 0, len(results))
	for i, z := range results {
		userID, err := strconv.ParseInt(members[i], 10, 64)
		if err != nil {
			s.logger.Warn().Str("member", members[i]).Msg("skipping malformed leaderboard member")
			continue
		}
		name, _ := names[i].(string)
		entries = append(entries, Entry{
			Rank:        len(entries) + 1,
			UserID:      userID,
			DisplayName: name,
			XP:          int(z.Score),
		})
	}
	return entries, nil
}

// Reset deletes every leaderboard key under the prefix, including the names
// hash. It returns the number of keys removed.
func (s *Service) Reset(ctx context.Context) (int, error) {
	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := s.redis.Scan(ctx, cursor, s.prefix+":*", 200).Result()
		if err != nil {
			return removed, fmt.Errorf("scan leaderboard keys: %w", err)
		}
		if len(keys) > 0 {
			n, err := s.redis.Del(ctx, keys...).Result()
			if err != nil {
				return removed, fmt.Errorf("delete leaderboard keys: %w", err)
			}
			removed += int(n)
		}
		if next == 0 {
			return removed, nil
		}
		cursor = next
	}
}

func (s *Service) ttl(window string) time.Duration {
	switch window {
	case WindowDaily:
		return s.dailyTTL
	case WindowWeekly:
		return s.weeklyTTL
	default:
		return 0
	}
}

func (s *Service) leaderboardKey(window string, at time.Time) string {
	if period := PeriodKey(window, at); period != "" {
		return fmt.Sprintf("%s:%s:%s", s.prefix, window, period)
	}
	return fmt.Sprintf("%s:%s", s.prefix, window)
}

func (s *Service) namesKey() string {
	return s.prefix + ":names"
}

// PeriodKey names the UTC period of window containing at: a date for daily,
// an ISO week for weekly and nothing for all_time.
func PeriodKey(window string, at time.Time) string {
	at = at.UTC()
	switch window {
	case WindowDaily:
		return at.Format("2006-01-02")
	case WindowWeekly:
		year, week := at.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	default:
		return ""
	}
}

// IsValidWindow reports whether window is a supported leaderboard window.
func IsValidWindow(window string) bool {
	switch window {
	case WindowDaily, WindowWeekly, WindowAllTime:
		return true
	default:
		return false
	}
}
