package middleware

import (
	"go-blog-app/internal/config"
	"net/http"

	"github.com/go-chi/httprate"
)

// RateLimit caps how many requests one client IP may make per window. It is
// the only brake on guessing the admin password, so it wraps every route.
func RateLimit(cfg config.RateLimitConfig) func(http.Handler) http.Handler {
	if cfg.Requests <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(cfg.Requests, cfg.Window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			WriteJSON(w, http.StatusTooManyRequests, errorBody{Message: "Too many requests"})
		}),
	)
}
