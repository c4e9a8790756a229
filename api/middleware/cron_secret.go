package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/tractorbid/tractorbid-backend/api/responses"
	"github.com/tractorbid/tractorbid-backend/pkg/config"
	pkgerrors "github.com/tractorbid/tractorbid-backend/pkg/errors"
	"github.com/tractorbid/tractorbid-backend/pkg/logger"
)

// CronSecret gates the cron trigger endpoints behind a shared bearer secret.
// An unset secret passes requests through outside production so local runs
// can trigger sweeps without extra setup.
func CronSecret(cfg *config.Config, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			secret := cfg.Cron.Secret
			if secret == "" {
				if cfg.App.IsProd() {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cron secret not configured"))
					return
				}
				if logg != nil {
					logg.Warn(r.Context(), "cron secret unset, allowing request")
				}
				next.ServeHTTP(w, r)
				return
			}

			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid cron credentials"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
