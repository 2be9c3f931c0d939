package hint

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/mathquest/internal/auth"
	httperrors "github.com/gokatarajesh/mathquest/pkg/http/errors"
	"github.com/gokatarajesh/mathquest/pkg/http/response"
)

const maxBodyBytes = 64 << 10

type hintBody struct {
	LessonID   *int64  `json:"lessonId"`
	ProblemID  *int64  `json:"problemId"`
	UserAnswer *string `json:"userAnswer"`
}

// HTTPHandlers provides the hint endpoint.
type HTTPHandlers struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHTTPHandlers(svc *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		svc:    svc,
		logger: logger.With().Str("component", "hint_http").Logger(),
	}
}

// Hint handles POST /api/ai/hint
func (h *HTTPHandlers) Hint(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var body hintBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, typeErr.Field+" has the wrong type", typeErr.Field)
			return
		}
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid request body")
		return
	}
	if body.LessonID == nil || body.ProblemID == nil || body.UserAnswer == nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeMissingField, "Missing required fields: lessonId, problemId, and userAnswer")
		return
	}
	if *body.LessonID <= 0 || *body.ProblemID <= 0 {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeValidationFailed, "Invalid lessonId or problemId")
		return
	}

	userID, _ := auth.UserID(r.Context())
	resp, err := h.svc.Hint(r.Context(), Request{
		UserID:     userID,
		LessonID:   *body.LessonID,
		ProblemID:  *body.ProblemID,
		UserAnswer: *body.UserAnswer,
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httperrors.RespondNotFound(w, httperrors.ErrCodeProblemNotFound, "Problem not found. Please try again.")
			return
		}
		h.logger.Error().Err(err).Int64("problem_id", *body.ProblemID).Msg("hint request failed")
		httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeHintFailed, "Internal server error. Unable to generate hint at this time.")
		return
	}
	response.OK(w, resp)
}
