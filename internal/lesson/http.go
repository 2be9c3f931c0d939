package lesson

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/mathquest/internal/auth"
	httperrors "github.com/gokatarajesh/mathquest/pkg/http/errors"
	"github.com/gokatarajesh/mathquest/pkg/http/response"
)

// HTTPHandlers provides REST endpoints for lessons.
type HTTPHandlers struct {
	svc    *Service
	logger zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for lesson endpoints.
func NewHTTPHandlers(svc *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		svc:    svc,
		logger: logger.With().Str("component", "lesson_http").Logger(),
	}
}

// List handles GET /api/lessons
func (h *HTTPHandlers) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	lessons, err := h.svc.List(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("list lessons failed")
		httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeLessonFetchFailed, "Failed to fetch lessons")
		return
	}
	response.OK(w, lessons)
}

// Get handles GET /api/lessons/{lessonId}
func (h *HTTPHandlers) Get(w http.ResponseWriter, r *http.Request) {
	lessonID, ok := lessonIDParam(w, r)
	if !ok {
		return
	}
	userID, _ := auth.UserID(r.Context())

	detail, err := h.svc.Get(r.Context(), userID, lessonID)
	if err != nil {
		h.respondError(w, err, httperrors.ErrCodeLessonFetchFailed)
		return
	}
	response.OK(w, detail)
}

type progressBody struct {
	ProblemsCompleted *int `json:"problemsCompleted"`
}

// UpdateProgress handles PUT /api/lessons/{lessonId}/progress
func (h *HTTPHandlers) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	lessonID, ok := lessonIDParam(w, r)
	if !ok {
		return
	}
	userID, _ := auth.UserID(r.Context())

	var body progressBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ProblemsCompleted == nil {
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, "Invalid problemsCompleted value", "problemsCompleted")
		return
	}

	progress, err := h.svc.UpdateProgress(r.Context(), userID, lessonID, *body.ProblemsCompleted)
	if err != nil {
		h.respondError(w, err, httperrors.ErrCodeProgressUpdateFailed)
		return
	}
	response.OK(w, progress)
}

func (h *HTTPHandlers) respondError(w http.ResponseWriter, err error, fallbackCode string) {
	switch {
	case errors.Is(err, ErrInvalidProgress):
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, err.Error(), "problemsCompleted")
	case errors.Is(err, ErrNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, err.Error())
	default:
		h.logger.Error().Err(err).Msg("lesson request failed")
		httperrors.RespondError(w, http.StatusInternalServerError, fallbackCode, "Internal server error")
	}
}

func lessonIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("lessonId"), 10, 64)
	if err != nil || id <= 0 {
		httperrors.RespondValidationError(w, httperrors.ErrCodeInvalidRequest, "Invalid lesson ID", "lessonId")
		return 0, false
	}
	return id, true
}
