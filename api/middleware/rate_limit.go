package middleware

import (
	"net"
	"net/http"
	"time"

	"github.com/tractorbid/tractorbid-backend/api/responses"
	pkgerrors "github.com/tractorbid/tractorbid-backend/pkg/errors"
	"github.com/tractorbid/tractorbid-backend/pkg/logger"
	"github.com/tractorbid/tractorbid-backend/pkg/redis"
)

// RateLimit applies a fixed-window limit keyed by the authenticated user,
// falling back to the client IP for unauthenticated routes. Redis outages
// fail open so a cache blip never takes bidding down.
func RateLimit(scope string, limit int64, window time.Duration, client *redis.Client, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if client == nil || limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			key := scope + ":" + rateLimitSubject(r)
			allowed, count, err := client.FixedWindowAllow(ctx, key, limit, window)
			if err != nil {
				logg.Error(ctx, "rate limit check failed", err)
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				ctx = logg.WithFields(ctx, map[string]any{
					"rate_limit_scope": scope,
					"rate_limit_count": count,
				})
				logg.Warn(ctx, "rate limit exceeded")
				responses.WriteError(ctx, logg, w,
					pkgerrors.New(pkgerrors.CodeRateLimit, "too many requests, slow down"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func rateLimitSubject(r *http.Request) string {
	if userID := UserIDFromContext(r.Context()); userID != "" {
		return userID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
