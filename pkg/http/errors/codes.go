package errors

// Error codes for standardized error responses
const (
	// Validation errors
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeMissingField     = "missing_field"
	ErrCodeInvalidUserID    = "invalid_user_id"

	// Resource errors
	ErrCodeNotFound        = "not_found"
	ErrCodeLessonNotFound  = "lesson_not_found"
	ErrCodeUserNotFound    = "user_not_found"
	ErrCodeProblemNotFound = "problem_not_found"

	// Business logic errors
	ErrCodeSubmitFailed         = "submit_failed"
	ErrCodeProgressUpdateFailed = "progress_update_failed"
	ErrCodeProfileFetchFailed   = "profile_fetch_failed"
	ErrCodeLessonFetchFailed    = "lesson_fetch_failed"
	ErrCodeHintFailed           = "hint_failed"

	// Server errors
	ErrCodeInternalError      = "internal_error"
	ErrCodeServiceUnavailable = "service_unavailable"
	ErrCodeTimeout            = "timeout"

	// Leaderboard errors
	ErrCodeLeaderboardFetchFailed = "leaderboard_fetch_failed"
	ErrCodeUnknownWindow          = "unknown_leaderboard_window"
)
