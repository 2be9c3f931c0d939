// Package hint produces tutoring hints for wrong answers.
package hint

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/mathquest/internal/db/repository"
	"github.com/gokatarajesh/mathquest/internal/metrics"
	"github.com/gokatarajesh/mathquest/internal/submission/grading"
)

// Canned replies.
const (
	MessageCorrect  = "Great job! Your answer is actually correct! 🎉"
	MessageEmpty    = "Let's think about this step by step. What's the first thing you need to do to solve this problem? 🤔"
	MessageFallback = "Don't worry, everyone makes mistakes! Take another look at the problem and try breaking it down into smaller steps. You've got this! 💪"
)

// Hint request outcomes reported to metrics.
const (
	resultCorrect   = "correct"
	resultGenerated = "generated"
	resultFallback  = "fallback"
)

// ErrNotFound is returned when the problem does not exist in the lesson.
var ErrNotFound = errors.New("problem not found")

// Prompt is what the model sees about a wrong answer.
type Prompt struct {
	Question   string
	Type       string
	Options    []string
	UserAnswer string
}

// Generator produces a hint for a wrong answer.
type Generator interface {
	Generate(ctx context.Context, p Prompt) (string, error)
}

// Store loads problems with their options.
type Store interface {
	GetProblem(ctx context.Context, problemID int64) (repository.Problem, error)
}

// Request asks for a hint on one answer.
type Request struct {
	UserID     int64
	LessonID   int64
	ProblemID  int64
	UserAnswer string
}

// Response is the hint payload.
type Response struct {
	Hint            string `json:"hint"`
	ProblemQuestion string `json:"problemQuestion"`
}

// ServiceOptions configure the hint service.
type ServiceOptions struct {
	Metrics *metrics.Metrics
}

// Service answers hint requests. A nil generator always yields the fallback.
type Service struct {
	store     Store
	generator Generator
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

func NewService(store Store, generator Generator, opts ServiceOptions, logger zerolog.Logger) *Service {
	return &Service{
		store:     store,
		generator: generator,
		metrics:   opts.Metrics,
		logger:    logger.With().Str("component", "hint").Logger(),
	}
}

// Hint returns a congratulation for a correct answer, otherwise a model hint.
// Model failures are logged and replaced with a canned hint.
func (s *Service) Hint(ctx context.Context, req Request) (Response, error) {
	p, err := s.store.GetProblem(ctx, req.ProblemID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Response{}, fmt.Errorf("problem %d: %w", req.ProblemID, ErrNotFound)
		}
		return Response{}, fmt.Errorf("load problem: %w", err)
	}
	if p.LessonID != req.LessonID {
		return Response{}, fmt.Errorf("problem %d not in lesson %d: %w", req.ProblemID, req.LessonID, ErrNotFound)
	}

	resp := Response{ProblemQuestion: p.Question}
	if grading.IsCorrect(p, req.UserAnswer) {
		s.metrics.Hint(resultCorrect)
		resp.Hint = MessageCorrect
		return resp, nil
	}

	resp.Hint = s.generate(ctx, p, req.UserAnswer)
	return resp, nil
}

func (s *Service) generate(ctx context.Context, p repository.Problem, answer string) string {
	if s.generator == nil {
		s.metrics.Hint(resultFallback)
		return MessageFallback
	}

	prompt := Prompt{Question: p.Question, Type: p.Type, UserAnswer: answer}
	for _, o := range p.Options {
		prompt.Options = append(prompt.Options, o.Text)
	}

	text, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		s.logger.Warn().Err(err).Int64("problem_id", p.ID).Msg("hint generation failed")
		s.metrics.Hint(resultFallback)
		return MessageFallback
	}
	s.metrics.Hint(resultGenerated)
	if text == "" {
		return MessageEmpty
	}
	return text
}
