package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/tiktalkapp/tiktalk-service/internal/ratelimit"
	"github.com/tiktalkapp/tiktalk-service/internal/utils/response"
)

// RateLimit guards a mutating route with the sliding-window limiter, keyed
// by the authenticated user and the action name. Runs after Auth.
func RateLimit(limiter *ratelimit.SlidingWindow, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := GetUserIDFromContext(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			allowed, err := limiter.Allow(r.Context(), userID, action)
			if err != nil {
				// A broken limiter should not take writes down with it.
				slog.Error("rate limit check failed", slog.String("error", err.Error()), slog.String("action", action))
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				response.WriteJSON(w, http.StatusTooManyRequests, response.GeneralError(
					errors.New("too many requests, slow down")))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
