package server

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/mathquest/internal/auth"
	"github.com/gokatarajesh/mathquest/internal/config"
	"github.com/gokatarajesh/mathquest/internal/hint"
	"github.com/gokatarajesh/mathquest/internal/leaderboard"
	"github.com/gokatarajesh/mathquest/internal/lesson"
	"github.com/gokatarajesh/mathquest/internal/profile"
	"github.com/gokatarajesh/mathquest/internal/submission"
	httperrors "github.com/gokatarajesh/mathquest/pkg/http/errors"
	"github.com/gokatarajesh/mathquest/pkg/http/response"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers groups the API handlers mounted under /api.
type Handlers struct {
	Lessons     *lesson.HTTPHandlers
	Submissions *submission.HTTPHandlers
	Profiles    *profile.HTTPHandlers
	Hints       *hint.HTTPHandlers
	Leaderboard *leaderboard.HTTPHandler
}

// Deps are the infrastructure handles used by /api/ping.
type Deps struct {
	Postgres Pinger
	Redis    redis.UniversalClient
}

// NewHTTPServer wires every route with the shared middleware chain.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, deps Deps, h Handlers) *http.Server {
	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: NewRouter(cfg, logger, deps, h),
	}
}

// NewRouter builds the handler tree. Routes for nil handlers are skipped.
func NewRouter(cfg *config.App, logger zerolog.Logger, deps Deps, h Handlers) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	api := http.NewServeMux()
	api.HandleFunc("GET /api/ping", func(w http.ResponseWriter, r *http.Request) {
		if err := pingDependencies(r.Context(), deps); err != nil {
			logger.Error().Err(err).Msg("dependency ping failed")
			httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeServiceUnavailable, "upstream dependency unavailable")
			return
		}
		response.OK(w, map[string]bool{"pong": true})
	})

	if h.Lessons != nil {
		api.HandleFunc("GET /api/lessons", h.Lessons.List)
		api.HandleFunc("GET /api/lessons/{lessonId}", h.Lessons.Get)
		api.HandleFunc("PUT /api/lessons/{lessonId}/progress", h.Lessons.UpdateProgress)
	}
	if h.Submissions != nil {
		api.HandleFunc("POST /api/lessons/{lessonId}/submit", h.Submissions.Submit)
	}
	if h.Profiles != nil {
		api.HandleFunc("GET /api/profile", h.Profiles.Stats)
		api.HandleFunc("GET /api/profile/{userId}", h.Profiles.Stats)
		api.HandleFunc("GET /api/profile/user/{userId}", h.Profiles.Profile)
	}
	if h.Hints != nil {
		api.HandleFunc("POST /api/ai/hint", h.Hints.Hint)
	}
	if h.Leaderboard != nil {
		api.HandleFunc("GET /api/leaderboards/{window}", h.Leaderboard.HandleGet)
	}

	mux.Handle("/api/", auth.IdentityMiddleware(cfg.Runtime.DefaultUserID, logger)(api))

	var handler http.Handler = mux
	handler = withTimeout(cfg.Runtime.RequestTimeout)(handler)
	handler = withCORS(cfg.CORS)(handler)
	handler = withRequestLogging(logger)(handler)
	return handler
}

func pingDependencies(ctx context.Context, deps Deps) error {
	if deps.Postgres != nil {
		if err := deps.Postgres.Ping(ctx); err != nil {
			return err
		}
	}
	if deps.Redis != nil {
		if err := deps.Redis.Ping(ctx).Err(); err != nil {
			return err
		}
	}
	return nil
}
