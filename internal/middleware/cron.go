package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"taproom-services/internal/auth"

	"golang.org/x/crypto/bcrypt"
)

// CronAuth accepts the cron secret as a bearer token. The secret may be
// configured as a bcrypt hash.
func CronAuth(cronSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			secret := strings.TrimSpace(cronSecret)
			if secret == "" {
				writeAuthError(w, http.StatusForbidden, "Cron access is disabled")
				return
			}

			token := auth.ParseBearerToken(r.Header.Get("Authorization"))
			if token == "" || !cronTokenMatches(secret, token) {
				writeAuthError(w, http.StatusUnauthorized, "Invalid cron token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func cronTokenMatches(secret, token string) bool {
	if strings.HasPrefix(secret, "$2a$") || strings.HasPrefix(secret, "$2b$") || strings.HasPrefix(secret, "$2y$") {
		return bcrypt.CompareHashAndPassword([]byte(secret), []byte(token)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(secret)) == 1
}
