package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strings"

	"taproom-services/internal/auth"
)

type contextKey string

const authContextKey contextKey = "authContext"

type AuthContext struct {
	UserID string
	Role   auth.UserRole
	Email  string
	Name   string
}

func WithAuthContext(ctx context.Context, authCtx *AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, authCtx)
}

func GetAuthContext(ctx context.Context) (*AuthContext, bool) {
	ac, ok := ctx.Value(authContextKey).(*AuthContext)
	return ac, ok && ac != nil
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	writeAuthErrorDebug(w, status, message, "")
}

func writeAuthErrorDebug(w http.ResponseWriter, status int, message string, debug string) {
	code := "UNAUTHORIZED"
	if status == http.StatusForbidden {
		code = "FORBIDDEN"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload := map[string]any{
		"success": false,
		"error":   code,
		"message": message,
	}
	if os.Getenv("APP_ENV") == "development" && strings.TrimSpace(debug) != "" {
		payload["debug"] = debug
	}
	_ = json.NewEncoder(w).Encode(payload)
}

// AdminAuth admits requests carrying a valid HS256 bearer token with the
// ADMIN role.
func AdminAuth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.ParseBearerToken(r.Header.Get("Authorization"))
			claims, err := auth.VerifyAccessToken(token, jwtSecret)
			if err != nil {
				writeAuthErrorDebug(w, http.StatusUnauthorized, "Authorization token required", err.Error())
				return
			}
			if claims.Role != auth.RoleAdmin {
				writeAuthError(w, http.StatusForbidden, "Admin access required")
				return
			}

			ctx := WithAuthContext(r.Context(), &AuthContext{
				UserID: claims.UserID,
				Role:   claims.Role,
				Email:  claims.Email,
				Name:   claims.Name,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
