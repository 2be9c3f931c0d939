package auth

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/mathquest/internal/logging"
	httperrors "github.com/gokatarajesh/mathquest/pkg/http/errors"
)

type userIDKey struct{}

// IdentityMiddleware resolves the acting user id and injects it into the
// request context. The id is trusted as given: it is read from the UserID or
// X-User-ID header, then the userId query parameter, and falls back to
// defaultUserID when none is present.
func IdentityMiddleware(defaultUserID int64, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := userIDFromRequest(r)
			userID := defaultUserID
			if raw != "" {
				id, err := ParseUserID(raw)
				if err != nil {
					logger.Debug().Str("user_id", raw).Msg("rejecting malformed user id")
					httperrors.RespondValidationError(w, httperrors.ErrCodeInvalidUserID, "user id must be a positive integer", "userId")
					return
				}
				userID = id
			}

			ctx := WithUserID(r.Context(), userID)
			reqLogger := logging.FromContext(ctx).With().Int64("user_id", userID).Logger()
			ctx = logging.IntoContext(ctx, reqLogger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func userIDFromRequest(r *http.Request) string {
	for _, h := range []string{"UserID", "X-User-ID"} {
		if v := strings.TrimSpace(r.Header.Get(h)); v != "" {
			return v
		}
	}
	return strings.TrimSpace(r.URL.Query().Get("userId"))
}

// ParseUserID parses a positive numeric user id.
func ParseUserID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, strconv.ErrRange
	}
	return id, nil
}

// WithUserID stores the acting user id in ctx.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserID returns the acting user id stored by IdentityMiddleware.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey{}).(int64)
	return id, ok
}
