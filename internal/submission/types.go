package submission

import (
	"github.com/gokatarajesh/mathquest/internal/submission/grading"
)

// MaxAttemptIDLength bounds caller supplied idempotency tokens.
const MaxAttemptIDLength = 128

// Request is one lesson submission.
type Request struct {
	UserID    int64
	LessonID  int64
	AttemptID string
	Answers   []grading.Answer
}

// Validate checks the request shape.
func (r Request) Validate() error {
	if r.AttemptID == "" {
		return invalid("attemptId", "attemptId is required")
	}
	if len(r.AttemptID) > MaxAttemptIDLength {
		return invalid("attemptId", "attemptId must be at most %d characters", MaxAttemptIDLength)
	}
	if len(r.Answers) == 0 {
		return invalid("answers", "answers must be a non-empty array")
	}
	seen := make(map[int64]struct{}, len(r.Answers))
	for i, a := range r.Answers {
		if a.ProblemID <= 0 {
			return invalid("answers", "answers[%d].problemId must be a positive integer", i)
		}
		if _, dup := seen[a.ProblemID]; dup {
			return invalid("answers", "problem %d is answered more than once", a.ProblemID)
		}
		seen[a.ProblemID] = struct{}{}
	}
	return nil
}

// ProblemResult is the grade of one answered problem.
type ProblemResult struct {
	ProblemID int64 `json:"problemId"`
	IsCorrect bool  `json:"isCorrect"`
	XPAwarded int   `json:"xpAwarded"`
}

// UserTotals are the user's counters after the submission.
type UserTotals struct {
	TotalXP       int `json:"totalXp"`
	CurrentStreak int `json:"currentStreak"`
	BestStreak    int `json:"bestStreak"`
}

// ProgressSnapshot is the lesson progress after the submission.
type ProgressSnapshot struct {
	ProblemsCompleted int  `json:"problemsCompleted"`
	TotalProblems     int  `json:"totalProblems"`
	ProgressPercent   int  `json:"progressPercent"`
	Completed         bool `json:"completed"`
}

// Outcome is the result of Submit, for new and replayed attempts alike.
type Outcome struct {
	AttemptID      string
	CorrectAnswers int
	TotalAnswers   int
	TotalXPAwarded int
	ProblemResults []ProblemResult
	User           UserTotals
	Progress       ProgressSnapshot
	IsResubmission bool
	PreviousXP     int
	IsNewStreak    bool
}
