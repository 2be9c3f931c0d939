package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/mathquest/internal/db/repository"
	httperrors "github.com/gokatarajesh/mathquest/pkg/http/errors"
	"github.com/gokatarajesh/mathquest/pkg/http/response"
)

// SnapshotReader loads the last persisted leaderboard of a window.
type SnapshotReader interface {
	LatestLeaderboardSnapshot(ctx context.Context, window string) (repository.LeaderboardSnapshot, error)
}

// View is the leaderboard payload returned to clients.
type View struct {
	Window      string  `json:"window"`
	Period      string  `json:"period,omitempty"`
	Top         []Entry `json:"top"`
	Source      string  `json:"source"`
	RetrievedAt string  `json:"retrievedAt"`
}

// HTTPHandler exposes REST endpoints for leaderboard queries.
type HTTPHandler struct {
	ranker    Ranker
	snapshots SnapshotReader
	logger    zerolog.Logger
}

// NewHTTPHandler constructs a leaderboard HTTP handler.
func NewHTTPHandler(ranker Ranker, snapshots SnapshotReader, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		ranker:    ranker,
		snapshots: snapshots,
		logger:    logger.With().Str("component", "leaderboard_http").Logger(),
	}
}

// HandleGet responds with the current leaderboard for a window.
// Route: GET /api/leaderboards/{window}?limit=10
func (h *HTTPHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	window := r.PathValue("window")
	if !IsValidWindow(window) {
		httperrors.RespondNotFound(w, httperrors.ErrCodeUnknownWindow, "unknown leaderboard window")
		return
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	ctx := r.Context()
	now := time.Now().UTC()
	view := View{
		Window:      window,
		Period:      PeriodKey(window, now),
		Source:      "redis",
		RetrievedAt: now.Format(time.RFC3339),
	}

	var fetchErr error
	if h.ranker != nil {
		view.Top, fetchErr = h.ranker.Top(ctx, window, limit)
		if fetchErr != nil {
			h.logger.Warn().Err(fetchErr).Str("window", window).Msg("redis leaderboard fetch failed")
		}
	}

	if len(view.Top) == 0 {
		if top, ok := h.snapshotFallback(ctx, window, limit); ok {
			view.Source = "snapshot"
			view.Top = top
		} else if fetchErr != nil {
			httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeLeaderboardFetchFailed, "leaderboard temporarily unavailable")
			return
		}
	}
	if view.Top == nil {
		view.Top = []Entry{}
	}

	response.OK(w, view)
}

func (h *HTTPHandler) snapshotFallback(ctx context.Context, window string, limit int) ([]Entry, bool) {
	if h.snapshots == nil {
		return nil, false
	}
	snap, err := h.snapshots.LatestLeaderboardSnapshot(ctx, window)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			h.logger.Warn().Err(err).Str("window", window).Msg("snapshot fetch failed")
		}
		return nil, false
	}

	var entries []Entry
	if err := json.Unmarshal(snap.Entries, &entries); err != nil {
		h.logger.Warn().Err(err).Msg("snapshot payload decode failed")
		return nil, false
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, true
}
