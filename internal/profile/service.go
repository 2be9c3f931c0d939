// Package profile reports a learner's totals and lesson completion.
package profile

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gokatarajesh/mathquest/internal/db/repository"
)

// ErrNotFound is returned for an unknown user.
var ErrNotFound = errors.New("user not found")

// Store is the data access used by the profile service.
type Store interface {
	GetUser(ctx context.Context, userID int64) (repository.User, error)
	ListProgressByUser(ctx context.Context, userID int64) ([]repository.Progress, error)
	CountLessons(ctx context.Context) (int, error)
}

// Stats summarises a learner's activity.
type Stats struct {
	TotalXP            int        `json:"totalXp"`
	CurrentStreak      int        `json:"currentStreak"`
	BestStreak         int        `json:"bestStreak"`
	ProgressPercentage int        `json:"progressPercentage"`
	CompletedLessons   int        `json:"completedLessons"`
	TotalLessons       int        `json:"totalLessons"`
	LastActivityDate   *time.Time `json:"lastActivityDate"`
}

// Profile is the public user record.
type Profile struct {
	ID               int64      `json:"id"`
	Name             string     `json:"name"`
	Email            *string    `json:"email"`
	TotalXP          int        `json:"totalXp"`
	CurrentStreak    int        `json:"currentStreak"`
	BestStreak       int        `json:"bestStreak"`
	LastActivityDate *time.Time `json:"lastActivityDate"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// Service builds profile views.
type Service struct {
	store  Store
	logger zerolog.Logger
}

func NewService(store Store, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger.With().Str("component", "profile").Logger(),
	}
}

// Stats loads the user, their progress rows and the lesson count in parallel.
// ProgressPercentage is the rounded mean of the percents of lessons the user
// has started.
func (s *Service) Stats(ctx context.Context, userID int64) (Stats, error) {
	var (
		user         repository.User
		progress     []repository.Progress
		totalLessons int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = s.store.GetUser(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		progress, err = s.store.ListProgressByUser(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		totalLessons, err = s.store.CountLessons(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Stats{}, fmt.Errorf("user %d: %w", userID, ErrNotFound)
		}
		return Stats{}, fmt.Errorf("load profile stats: %w", err)
	}

	stats := Stats{
		TotalXP:          user.TotalXP,
		CurrentStreak:    user.CurrentStreak,
		BestStreak:       user.BestStreak,
		TotalLessons:     totalLessons,
		LastActivityDate: user.LastActivityDate,
	}
	sum := 0
	for _, p := range progress {
		if p.Completed {
			stats.CompletedLessons++
		}
		sum += p.ProgressPercent
	}
	if len(progress) > 0 {
		stats.ProgressPercentage = int(math.Round(float64(sum) / float64(len(progress))))
	}
	return stats, nil
}

// Profile returns the user record.
func (s *Service) Profile(ctx context.Context, userID int64) (Profile, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Profile{}, fmt.Errorf("user %d: %w", userID, ErrNotFound)
		}
		return Profile{}, fmt.Errorf("load user: %w", err)
	}
	return Profile{
		ID:               u.ID,
		Name:             u.Name,
		Email:            u.Email,
		TotalXP:          u.TotalXP,
		CurrentStreak:    u.CurrentStreak,
		BestStreak:       u.BestStreak,
		LastActivityDate: u.LastActivityDate,
		CreatedAt:        u.CreatedAt,
	}, nil
}
