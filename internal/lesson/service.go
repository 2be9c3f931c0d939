package lesson

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/gokatarajesh/mathquest/internal/db/repository"
	"github.com/gokatarajesh/mathquest/internal/metrics"
	"github.com/gokatarajesh/mathquest/internal/submission/grading"
)

// ContentCache defines cache behavior (implemented by Redis-backed Cache).
type ContentCache interface {
	Get(ctx context.Context, lessonID int64) (*Content, error)
	Set(ctx context.Context, content Content) error
}

// Store is the data access used by the lesson service.
type Store interface {
	ListLessonSummaries(ctx context.Context, userID int64) ([]repository.LessonSummary, error)
	GetLesson(ctx context.Context, lessonID int64) (repository.Lesson, error)
	GetUser(ctx context.Context, userID int64) (repository.User, error)
	GetProgress(ctx context.Context, userID, lessonID int64) (repository.Progress, error)
	UpsertProgress(ctx context.Context, arg repository.UpsertProgressParams) (repository.Progress, error)
}

// ServiceOptions configures the lesson service.
type ServiceOptions struct {
	Clock   func() time.Time
	Metrics *metrics.Metrics
}

// Service serves the lesson catalog and per-user lesson progress.
type Service struct {
	store   Store
	cache   ContentCache
	group   singleflight.Group
	now     func() time.Time
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

func NewService(store Store, cache ContentCache, opts ServiceOptions, logger zerolog.Logger) *Service {
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:   store,
		cache:   cache,
		now:     now,
		metrics: opts.Metrics,
		logger:  logger.With().Str("component", "lesson").Logger(),
	}
}

// List returns every lesson ordered by OrderIndex with the user's progress.
func (s *Service) List(ctx context.Context, userID int64) ([]Summary, error) {
	rows, err := s.store.ListLessonSummaries(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	out := make([]Summary, len(rows))
	for i, row := range rows {
		out[i] = summaryFromRow(row)
	}
	return out, nil
}

// Get returns a lesson with its problems and the user's progress. Users who
// never attempted the lesson get zeroed progress.
func (s *Service) Get(ctx context.Context, userID, lessonID int64) (Detail, error) {
	content, err := s.Content(ctx, lessonID)
	if err != nil {
		return Detail{}, err
	}

	detail := Detail{Content: content}
	row, err := s.store.GetProgress(ctx, userID, lessonID)
	switch {
	case err == nil:
		detail.UserProgress = progressFromRow(row)
	case errors.Is(err, repository.ErrNotFound):
		detail.UserProgress = Progress{TotalProblems: len(content.Problems)}
	default:
		return Detail{}, fmt.Errorf("load progress: %w", err)
	}
	return detail, nil
}

// Content returns the learner-facing lesson content, from cache when possible.
func (s *Service) Content(ctx context.Context, lessonID int64) (Content, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, lessonID)
		if err != nil {
			s.logger.Warn().Err(err).Int64("lesson_id", lessonID).Msg("lesson cache read failed")
		}
		if cached != nil {
			s.metrics.LessonCache(true)
			return *cached, nil
		}
		s.metrics.LessonCache(false)
	}

	v, err, _ := s.group.Do(strconv.FormatInt(lessonID, 10), func() (any, error) {
		l, err := s.store.GetLesson(ctx, lessonID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("lesson %d: %w", lessonID, ErrNotFound)
			}
			return nil, fmt.Errorf("load lesson: %w", err)
		}
		content := contentFromLesson(l)
		if s.cache != nil {
			if err := s.cache.Set(ctx, content); err != nil {
				s.logger.Warn().Err(err).Int64("lesson_id", lessonID).Msg("lesson cache write failed")
			}
		}
		return content, nil
	})
	if err != nil {
		return Content{}, err
	}
	return v.(Content), nil
}

// UpdateProgress overwrites the user's completed count for a lesson and
// derives percent and completion from the lesson's problem count.
func (s *Service) UpdateProgress(ctx context.Context, userID, lessonID int64, problemsCompleted int) (Progress, error) {
	if problemsCompleted < 0 {
		return Progress{}, ErrInvalidProgress
	}
	content, err := s.Content(ctx, lessonID)
	if err != nil {
		return Progress{}, err
	}
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Progress{}, fmt.Errorf("user %d: %w", userID, ErrNotFound)
		}
		return Progress{}, fmt.Errorf("load user: %w", err)
	}

	total := len(content.Problems)
	row, err := s.store.UpsertProgress(ctx, repository.UpsertProgressParams{
		UserID:            userID,
		LessonID:          lessonID,
		ProblemsCompleted: problemsCompleted,
		TotalProblems:     total,
		ProgressPercent:   grading.ProgressPercent(problemsCompleted, total),
		Completed:         grading.IsCompleted(problemsCompleted, total),
		LastAttemptAt:     s.now().UTC(),
	})
	if err != nil {
		return Progress{}, fmt.Errorf("upsert progress: %w", err)
	}
	return progressFromRow(row), nil
}
