package repository

import "time"

// Problem types understood by the grader.
const (
	ProblemTypeMultipleChoice = "multiple_choice"
	ProblemTypeInput          = "input"
)

// Option is a multiple-choice option. IsCorrect never leaves the server.
type Option struct {
	ID        int64
	ProblemID int64
	Text      string
	IsCorrect bool
}

// Problem is a single gradable question within a lesson.
type Problem struct {
	ID            int64
	LessonID      int64
	Type          string
	Question      string
	CorrectAnswer string
	XPValue       int
	OrderIndex    int
	Options       []Option
}

// Lesson is a lesson with its full problem set, ordered by OrderIndex.
type Lesson struct {
	ID          int64
	Title       string
	Description *string
	OrderIndex  int
	CreatedAt   time.Time
	Problems    []Problem
}

// LessonSummary is a catalog row joined with one user's progress (nil when
// the user never attempted the lesson).
type LessonSummary struct {
	ID            int64
	Title         string
	Description   *string
	OrderIndex    int
	CreatedAt     time.Time
	TotalProblems int
	Progress      *Progress
}

// User carries the XP and streak counters.
type User struct {
	ID               int64
	Name             string
	Email            *string
	TotalXP          int
	CurrentStreak    int
	BestStreak       int
	LastActivityDate *time.Time
	CreatedAt        time.Time
}

// Progress is the per (user, lesson) progress row.
type Progress struct {
	UserID            int64
	LessonID          int64
	ProblemsCompleted int
	TotalProblems     int
	ProgressPercent   int
	Completed         bool
	LastAttemptAt     *time.Time
}

// Attempt is the idempotency record for one graded submission.
type Attempt struct {
	ID           string
	UserID       int64
	LessonID     int64
	TotalAnswers int
	CreatedAt    time.Time
}

// Submission is one append-only graded answer.
type Submission struct {
	ID         int64
	AttemptID  string
	UserID     int64
	LessonID   int64
	ProblemID  int64
	UserAnswer string
	IsCorrect  bool
	XPAwarded  int
	CreatedAt  time.Time
}

// UpdateUserStatsParams sets the accrual counters of a user.
type UpdateUserStatsParams struct {
	UserID           int64
	TotalXP          int
	CurrentStreak    int
	BestStreak       int
	LastActivityDate time.Time
}

// UpsertProgressParams creates or replaces a progress row.
type UpsertProgressParams struct {
	UserID            int64
	LessonID          int64
	ProblemsCompleted int
	TotalProblems     int
	ProgressPercent   int
	Completed         bool
	LastAttemptAt     time.Time
}

// LeaderboardSnapshot is a persisted copy of a Redis leaderboard window.
type LeaderboardSnapshot struct {
	ID          int64
	TimeWindow  string
	GeneratedAt time.Time
	Entries     []byte
	SourceHash  string
}

// InsertLeaderboardSnapshotParams holds a new snapshot row.
type InsertLeaderboardSnapshotParams struct {
	TimeWindow  string
	GeneratedAt time.Time
	Entries     []byte
	SourceHash  string
}
