package lesson

import (
	"errors"
	"time"

	"github.com/gokatarajesh/mathquest/internal/db/repository"
)

var (
	// ErrNotFound is returned for an unknown lesson or user.
	ErrNotFound = errors.New("not found")
	// ErrInvalidProgress rejects a negative completed count.
	ErrInvalidProgress = errors.New("problemsCompleted must be a non-negative integer")
)

// Summary is a catalog row with the caller's progress.
type Summary struct {
	ID                int64      `json:"id"`
	Title             string     `json:"title"`
	Description       *string    `json:"description"`
	OrderIndex        int        `json:"orderIndex"`
	CreatedAt         time.Time  `json:"createdAt"`
	TotalProblems     int        `json:"totalProblems"`
	CompletedProblems int        `json:"completedProblems"`
	ProgressPercent   int        `json:"progressPercent"`
	Completed         bool       `json:"completed"`
	LastAttemptAt     *time.Time `json:"lastAttemptAt"`
}

// Option is a multiple-choice option as shown to learners.
type Option struct {
	ID         int64  `json:"id"`
	ProblemID  int64  `json:"problemId"`
	OptionText string `json:"optionText"`
}

// Problem is a problem as shown to learners, without its answer.
type Problem struct {
	ID         int64    `json:"id"`
	LessonID   int64    `json:"lessonId"`
	Type       string   `json:"type"`
	Question   string   `json:"question"`
	XPValue    int      `json:"xpValue"`
	OrderIndex int      `json:"orderIndex"`
	Options    []Option `json:"options"`
}

// Content is the cacheable, user independent part of a lesson.
type Content struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	OrderIndex  int       `json:"orderIndex"`
	CreatedAt   time.Time `json:"createdAt"`
	Problems    []Problem `json:"problems"`
}

// Progress is one user's standing in one lesson.
type Progress struct {
	ProblemsCompleted int        `json:"problemsCompleted"`
	TotalProblems     int        `json:"totalProblems"`
	ProgressPercent   int        `json:"progressPercent"`
	Completed         bool       `json:"completed"`
	LastAttemptAt     *time.Time `json:"lastAttemptAt"`
}

// Detail is a lesson with its problems and the caller's progress.
type Detail struct {
	Content
	UserProgress Progress `json:"userProgress"`
}

func contentFromLesson(l repository.Lesson) Content {
	c := Content{
		ID:          l.ID,
		Title:       l.Title,
		Description: l.Description,
		OrderIndex:  l.OrderIndex,
		CreatedAt:   l.CreatedAt,
		Problems:    make([]Problem, len(l.Problems)),
	}
	for i, p := range l.Problems {
		opts := make([]Option, len(p.Options))
		for j, o := range p.Options {
			opts[j] = Option{ID: o.ID, ProblemID: o.ProblemID, OptionText: o.Text}
		}
		c.Problems[i] = Problem{
			ID:         p.ID,
			LessonID:   p.LessonID,
			Type:       p.Type,
			Question:   p.Question,
			XPValue:    p.XPValue,
			OrderIndex: p.OrderIndex,
			Options:    opts,
		}
	}
	return c
}

func summaryFromRow(s repository.LessonSummary) Summary {
	out := Summary{
		ID:            s.ID,
		Title:         s.Title,
		Description:   s.Description,
		OrderIndex:    s.OrderIndex,
		CreatedAt:     s.CreatedAt,
		TotalProblems: s.TotalProblems,
	}
	if p := s.Progress; p != nil {
		out.CompletedProblems = p.ProblemsCompleted
		out.ProgressPercent = p.ProgressPercent
		out.Completed = p.Completed
		out.LastAttemptAt = p.LastAttemptAt
	}
	return out
}

func progressFromRow(p repository.Progress) Progress {
	return Progress{
		ProblemsCompleted: p.ProblemsCompleted,
		TotalProblems:     p.TotalProblems,
		ProgressPercent:   p.ProgressPercent,
		Completed:         p.Completed,
		LastAttemptAt:     p.LastAttemptAt,
	}
}
