package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/mkravec/tripmate/internal/common"
	"github.com/mkravec/tripmate/internal/server/auth"
)

type contextKey string

const userIDKey contextKey = "userID"

func userIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// auth validates the bearer access token and stores the caller's user id on
// the request context. Expired and malformed tokens both map to 401; the
// client reacts to 401 by refreshing and retrying once.
func (h *Handler) auth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(common.AuthorizationHeader)
		if !strings.HasPrefix(header, common.BearerPrefix) {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}

		userID, err := auth.GetUserIDFromToken(strings.TrimPrefix(header, common.BearerPrefix), h.jwtSecret)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	})
}
