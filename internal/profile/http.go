package profile

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/mathquest/internal/auth"
	httperrors "github.com/gokatarajesh/mathquest/pkg/http/errors"
	"github.com/gokatarajesh/mathquest/pkg/http/response"
)

// HTTPHandlers provides REST endpoints for profiles.
type HTTPHandlers struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHTTPHandlers(svc *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		svc:    svc,
		logger: logger.With().Str("component", "profile_http").Logger(),
	}
}

// Stats handles GET /api/profile and GET /api/profile/{userId}
func (h *HTTPHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.targetUser(w, r)
	if !ok {
		return
	}
	stats, err := h.svc.Stats(r.Context(), userID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	response.OK(w, stats)
}

// Profile handles GET /api/profile/user/{userId}
func (h *HTTPHandlers) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.targetUser(w, r)
	if !ok {
		return
	}
	p, err := h.svc.Profile(r.Context(), userID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	response.OK(w, p)
}

// targetUser prefers the {userId} path value over the request identity.
func (h *HTTPHandlers) targetUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	if raw := r.PathValue("userId"); raw != "" {
		id, err := auth.ParseUserID(raw)
		if err != nil {
			httperrors.RespondValidationError(w, httperrors.ErrCodeInvalidUserID, "Invalid user ID", "userId")
			return 0, false
		}
		return id, true
	}
	id, _ := auth.UserID(r.Context())
	return id, true
}

func (h *HTTPHandlers) respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		httperrors.RespondNotFound(w, httperrors.ErrCodeUserNotFound, "User not found")
		return
	}
	h.logger.Error().Err(err).Msg("profile request failed")
	httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeProfileFetchFailed, "Failed to fetch user statistics")
}
