package submission

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/mathquest/internal/auth"
	"github.com/gokatarajesh/mathquest/internal/submission/grading"
	httperrors "github.com/gokatarajesh/mathquest/pkg/http/errors"
	"github.com/gokatarajesh/mathquest/pkg/http/response"
)

const maxBodyBytes = 1 << 20

type submitBody struct {
	AttemptID string `json:"attemptId"`
	Answers   []struct {
		ProblemID *int64  `json:"problemId"`
		Answer    *string `json:"answer"`
	} `json:"answers"`
}

// ResultCounts mirrors the aggregate block of the submit response.
type ResultCounts struct {
	CorrectAnswers int `json:"correctAnswers"`
	TotalAnswers   int `json:"totalAnswers"`
	XPAwarded      int `json:"xpAwarded"`
}

// SubmitResponse is the JSON body of a successful submission.
type SubmitResponse struct {
	AttemptID      string           `json:"attemptId"`
	Results        ResultCounts     `json:"results"`
	ProblemResults []ProblemResult  `json:"problemResults"`
	User           UserTotals       `json:"user"`
	Progress       ProgressSnapshot `json:"progress"`
	IsResubmission bool             `json:"isResubmission"`
	PreviousXP     int              `json:"previousXp"`
	IsNewStreak    bool             `json:"isNewStreak"`
}

// HTTPHandlers exposes the submission endpoint.
type HTTPHandlers struct {
	svc    *Service
	logger zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for submissions.
func NewHTTPHandlers(svc *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		svc:    svc,
		logger: logger.With().Str("component", "submission_http").Logger(),
	}
}

// Submit handles POST /api/lessons/{lessonId}/submit
func (h *HTTPHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	lessonID, err := strconv.ParseInt(r.PathValue("lessonId"), 10, 64)
	if err != nil || lessonID <= 0 {
		httperrors.RespondValidationError(w, httperrors.ErrCodeInvalidRequest, "Invalid lesson ID", "lessonId")
		return
	}
	userID, ok := auth.UserID(r.Context())
	if !ok {
		httperrors.RespondValidationError(w, httperrors.ErrCodeInvalidUserID, "Invalid user ID", "userId")
		return
	}

	var body submitBody
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, "Invalid answer format. Each answer must have problemId and answer fields", "answers")
			return
		}
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	req := Request{
		UserID:    userID,
		LessonID:  lessonID,
		AttemptID: body.AttemptID,
		Answers:   make([]grading.Answer, 0, len(body.Answers)),
	}
	for _, a := range body.Answers {
		if a.ProblemID == nil || a.Answer == nil {
			httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "Invalid answer format. Each answer must have problemId and answer fields", "answers")
			return
		}
		req.Answers = append(req.Answers, grading.Answer{ProblemID: *a.ProblemID, Value: *a.Answer})
	}

	out, err := h.svc.Submit(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}

	problemResults := out.ProblemResults
	if problemResults == nil {
		problemResults = []ProblemResult{}
	}
	response.OK(w, SubmitResponse{
		AttemptID: out.AttemptID,
		Results: ResultCounts{
			CorrectAnswers: out.CorrectAnswers,
			TotalAnswers:   out.TotalAnswers,
			XPAwarded:      out.TotalXPAwarded,
		},
		ProblemResults: problemResults,
		User:           out.User,
		Progress:       out.Progress,
		IsResubmission: out.IsResubmission,
		PreviousXP:     out.PreviousXP,
		IsNewStreak:    out.IsNewStreak,
	})
}

func (h *HTTPHandlers) respondError(w http.ResponseWriter, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, verr.Message, verr.Field)
	case errors.Is(err, ErrNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, err.Error())
	case errors.Is(err, ErrPersistence):
		h.logger.Error().Err(err).Msg("submission not stored")
		httperrors.RespondInternalError(w, "Failed to record submission, please retry")
	default:
		h.logger.Error().Err(err).Msg("submit failed")
		httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeSubmitFailed, "Internal server error")
	}
}
