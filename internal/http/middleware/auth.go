package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/tiktalkapp/tiktalk-service/internal/session"
	"github.com/tiktalkapp/tiktalk-service/internal/utils/response"
)

type contextKey string

const UserIDKey contextKey = "userID"

// Auth resolves the session cookie to a user id and rejects requests
// without a live session. Mutating routes sit behind this.
func Auth(sessions session.Store, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok, err := resolve(r, sessions, cookieName)
			if err != nil {
				response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(
					errors.New("session lookup failed")))
				return
			}
			if !ok {
				response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(
					errors.New("you must be logged in")))
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth resolves the session if present but lets anonymous requests
// through; read-only routes use it so ownership flags render as false.
func OptionalAuth(sessions session.Store, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok, err := resolve(r, sessions, cookieName)
			if err == nil && ok {
				r = r.WithContext(context.WithValue(r.Context(), UserIDKey, userID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func resolve(r *http.Request, sessions session.Store, cookieName string) (string, bool, error) {
	cookie, err := r.Cookie(cookieName)
	if err != nil || cookie.Value == "" {
		return "", false, nil
	}
	return sessions.Resolve(r.Context(), cookie.Value)
}

// GetUserIDFromContext extracts the resolved user id from the request context.
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}
