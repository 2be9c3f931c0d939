package submission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/mathquest/internal/db/repository"
	"github.com/gokatarajesh/mathquest/internal/logging"
	"github.com/gokatarajesh/mathquest/internal/metrics"
	"github.com/gokatarajesh/mathquest/internal/submission/grading"
)

// XPRecorder receives XP gains once they are committed.
type XPRecorder interface {
	RecordXP(ctx context.Context, userID int64, displayName string, xp int) error
}

// ServiceOptions configures the submission service.
type ServiceOptions struct {
	Clock       func() time.Time
	Leaderboard XPRecorder
	Metrics     *metrics.Metrics
}

// Service grades submissions and accrues XP, streaks and lesson progress.
type Service struct {
	store       Store
	now         func() time.Time
	leaderboard XPRecorder
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewService creates a submission service.
func NewService(store Store, opts ServiceOptions, logger zerolog.Logger) *Service {
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:       store,
		now:         now,
		leaderboard: opts.Leaderboard,
		metrics:     opts.Metrics,
		logger:      logger.With().Str("component", "submission").Logger(),
	}
}

// Submit grades req and records the result atomically. A request whose
// attempt id was already recorded is answered from the stored outcome and
// changes nothing.
func (s *Service) Submit(ctx context.Context, req Request) (Outcome, error) {
	start := time.Now()
	out, err := s.submit(ctx, req)

	outcome := metrics.OutcomeGraded
	switch {
	case err != nil:
		outcome = metrics.OutcomeFailed
	case out.IsResubmission:
		outcome = metrics.OutcomeReplayed
	}
	s.metrics.ObserveSubmission(outcome, out.TotalXPAwarded, time.Since(start))
	return out, err
}

func (s *Service) submit(ctx context.Context, req Request) (Outcome, error) {
	if err := req.Validate(); err != nil {
		return Outcome{}, err
	}
	log := s.requestLogger(ctx).With().
		Str("attempt_id", req.AttemptID).
		Int64("lesson_id", req.LessonID).
		Logger()

	attempt, err := s.store.GetAttempt(ctx, req.AttemptID)
	switch {
	case err == nil:
		return s.replay(ctx, attempt)
	case !errors.Is(err, repository.ErrNotFound):
		return Outcome{}, fmt.Errorf("%w: lookup attempt: %w", ErrPersistence, err)
	}

	lesson, err := s.store.GetLesson(ctx, req.LessonID)
	if err != nil {
		return Outcome{}, lookupErr("lesson", req.LessonID, err)
	}
	if _, err := s.store.GetUser(ctx, req.UserID); err != nil {
		return Outcome{}, lookupErr("user", req.UserID, err)
	}

	summary := grading.Grade(lesson.Problems, req.Answers)
	totalProblems := len(lesson.Problems)
	now := s.now().UTC()

	var (
		updated  repository.User
		progress repository.Progress
		previous repository.User
		streak   grading.Streak
	)
	err = s.store.InTx(ctx, func(tx Tx) error {
		created, err := tx.CreateAttempt(ctx, repository.Attempt{
			ID:           req.AttemptID,
			UserID:       req.UserID,
			LessonID:     req.LessonID,
			TotalAnswers: summary.TotalAnswers,
			CreatedAt:    now,
		})
		if err != nil {
			return fmt.Errorf("create attempt: %w", err)
		}
		if !created {
			return errAttemptExists
		}

		previous, err = tx.LockUser(ctx, req.UserID)
		if err != nil {
			return fmt.Errorf("lock user: %w", err)
		}
		streak = grading.NextStreak(previous.CurrentStreak, previous.BestStreak, previous.LastActivityDate, now)

		updated, err = tx.UpdateUserStats(ctx, repository.UpdateUserStatsParams{
			UserID:           req.UserID,
			TotalXP:          previous.TotalXP + summary.TotalXPAwarded,
			CurrentStreak:    streak.Current,
			BestStreak:       streak.Best,
			LastActivityDate: now,
		})
		if err != nil {
			return fmt.Errorf("update user: %w", err)
		}

		progress, err = tx.UpsertProgress(ctx, repository.UpsertProgressParams{
			UserID:            req.UserID,
			LessonID:          req.LessonID,
			ProblemsCompleted: summary.CorrectAnswers,
			TotalProblems:     totalProblems,
			ProgressPercent:   grading.ProgressPercent(summary.CorrectAnswers, totalProblems),
			Completed:         grading.IsCompleted(summary.CorrectAnswers, totalProblems),
			LastAttemptAt:     now,
		})
		if err != nil {
			return fmt.Errorf("upsert progress: %w", err)
		}

		if err := tx.InsertSubmissions(ctx, submissionRecords(req, summary, now)); err != nil {
			return fmt.Errorf("insert submissions: %w", err)
		}
		return nil
	})
	if errors.Is(err, errAttemptExists) {
		log.Info().Msg("attempt recorded concurrently, replaying")
		attempt, err := s.store.GetAttempt(ctx, req.AttemptID)
		if err != nil {
			return Outcome{}, fmt.Errorf("%w: reload attempt: %w", ErrPersistence, err)
		}
		return s.replay(ctx, attempt)
	}
	if err != nil {
		log.Error().Err(err).Msg("submission rolled back")
		return Outcome{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	log.Info().
		Int("correct", summary.CorrectAnswers).
		Int("answers", summary.TotalAnswers).
		Int("xp_awarded", summary.TotalXPAwarded).
		Int("streak", updated.CurrentStreak).
		Msg("submission graded")

	s.recordLeaderboard(ctx, updated, summary.TotalXPAwarded)

	results := make([]ProblemResult, len(summary.Results))
	for i, r := range summary.Results {
		results[i] = ProblemResult{ProblemID: r.ProblemID, IsCorrect: r.IsCorrect, XPAwarded: r.XPAwarded}
	}
	return Outcome{
		AttemptID:      req.AttemptID,
		CorrectAnswers: summary.CorrectAnswers,
		TotalAnswers:   summary.TotalAnswers,
		TotalXPAwarded: summary.TotalXPAwarded,
		ProblemResults: results,
		User:           totals(updated),
		Progress:       snapshot(progress),
		PreviousXP:     previous.TotalXP,
		IsNewStreak:    streak.Extended,
	}, nil
}

// replay answers a known attempt from what was stored for it.
func (s *Service) replay(ctx context.Context, attempt repository.Attempt) (Outcome, error) {
	correct, err := s.store.CountCorrectByAttempt(ctx, attempt.ID)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: count correct: %w", ErrPersistence, err)
	}
	subs, err := s.store.ListSubmissionsByAttempt(ctx, attempt.ID)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: list submissions: %w", ErrPersistence, err)
	}
	user, err := s.store.GetUser(ctx, attempt.UserID)
	if err != nil {
		return Outcome{}, lookupErr("user", attempt.UserID, err)
	}

	var progress ProgressSnapshot
	row, err := s.store.GetProgress(ctx, attempt.UserID, attempt.LessonID)
	switch {
	case err == nil:
		progress = snapshot(row)
	case errors.Is(err, repository.ErrNotFound):
		lesson, err := s.store.GetLesson(ctx, attempt.LessonID)
		if err != nil {
			return Outcome{}, lookupErr("lesson", attempt.LessonID, err)
		}
		progress = ProgressSnapshot{TotalProblems: len(lesson.Problems)}
	default:
		return Outcome{}, fmt.Errorf("%w: load progress: %w", ErrPersistence, err)
	}

	results := make([]ProblemResult, len(subs))
	for i, sub := range subs {
		results[i] = ProblemResult{ProblemID: sub.ProblemID, IsCorrect: sub.IsCorrect}
	}

	log := s.requestLogger(ctx)
	log.Info().
		Str("attempt_id", attempt.ID).
		Int("correct", correct).
		Msg("replayed submission")

	return Outcome{
		AttemptID:      attempt.ID,
		CorrectAnswers: correct,
		TotalAnswers:   attempt.TotalAnswers,
		ProblemResults: results,
		User:           totals(user),
		Progress:       progress,
		IsResubmission: true,
		PreviousXP:     user.TotalXP,
	}, nil
}

func (s *Service) recordLeaderboard(ctx context.Context, user repository.User, xp int) {
	if s.leaderboard == nil || xp <= 0 {
		return
	}
	if err := s.leaderboard.RecordXP(ctx, user.ID, user.Name, xp); err != nil {
		s.logger.Warn().Err(err).Int64("user_id", user.ID).Msg("leaderboard update failed")
	}
}

func (s *Service) requestLogger(ctx context.Context) zerolog.Logger {
	if l := logging.FromContext(ctx); l.GetLevel() != zerolog.Disabled {
		return l.With().Str("component", "submission").Logger()
	}
	return s.logger
}

func submissionRecords(req Request, summary grading.Summary, now time.Time) []repository.Submission {
	records := make([]repository.Submission, len(summary.Results))
	for i, r := range summary.Results {
		records[i] = repository.Submission{
			AttemptID:  req.AttemptID,
			UserID:     req.UserID,
			LessonID:   req.LessonID,
			ProblemID:  r.ProblemID,
			UserAnswer: r.Answer,
			IsCorrect:  r.IsCorrect,
			XPAwarded:  r.XPAwarded,
			CreatedAt:  now,
		}
	}
	return records
}

func lookupErr(kind string, id int64, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
	}
	return fmt.Errorf("%w: load %s: %w", ErrPersistence, kind, err)
}

func totals(u repository.User) UserTotals {
	return UserTotals{TotalXP: u.TotalXP, CurrentStreak: u.CurrentStreak, BestStreak: u.BestStreak}
}

func snapshot(p repository.Progress) ProgressSnapshot {
	return ProgressSnapshot{
		ProblemsCompleted: p.ProblemsCompleted,
		TotalProblems:     p.TotalProblems,
		ProgressPercent:   p.ProgressPercent,
		Completed:         p.Completed,
	}
}
