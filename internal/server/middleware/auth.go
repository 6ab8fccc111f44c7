package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/vodomat/fieldsync/internal/server/handlers"
)

// AuthMiddleware validates the bearer token and injects the identity
// claims into the request context. Pending tokens issued mid-login are
// rejected here; only the 2FA verify route accepts them, via
// AllowPending.
func AuthMiddleware(logger *slog.Logger, jwtConfig handlers.JWTConfig) func(http.Handler) http.Handler {
	return authMiddleware(logger, jwtConfig, false)
}

// AllowPending is AuthMiddleware for routes that accept a pending
// 2FA token in addition to a full one.
func AllowPending(logger *slog.Logger, jwtConfig handlers.JWTConfig) func(http.Handler) http.Handler {
	return authMiddleware(logger, jwtConfig, true)
}

func authMiddleware(logger *slog.Logger, jwtConfig handlers.JWTConfig, allowPending bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("missing Authorization header")
				http.Error(w, "Unauthorized: missing token", http.StatusUnauthorized)
				return
			}

			// Expected format: "Bearer <token>"
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				logger.Warn("invalid Authorization header format")
				http.Error(w, "Unauthorized: invalid token format", http.StatusUnauthorized)
				return
			}

			claims, err := handlers.ValidateAccessToken(jwtConfig, parts[1])
			if err != nil {
				logger.Warn("invalid access token", "error", err)
				http.Error(w, "Unauthorized: invalid token", http.StatusUnauthorized)
				return
			}

			if claims.Scope == handlers.ScopeTwoFactorPending && !allowPending {
				logger.Warn("pending token used outside 2FA verification",
					"user_id", claims.UserID, "path", r.URL.Path)
				http.Error(w, "Unauthorized: second factor required", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), handlers.UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, handlers.UsernameKey, claims.Username)
			ctx = context.WithValue(ctx, handlers.RoleKey, claims.Role)
			ctx = context.WithValue(ctx, handlers.ScopeKey, claims.Scope)

			logger.Debug("user authenticated",
				"user_id", claims.UserID, "username", claims.Username, "role", claims.Role)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects requests whose token role is not administrative.
// Must run after AuthMiddleware.
func RequireAdmin(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := handlers.GetRole(r.Context())
			if !ok || !role.IsAdmin() {
				userID, _ := handlers.GetUserID(r.Context())
				logger.Warn("admin route denied",
					"user_id", userID, "role", role, "path", r.URL.Path)
				http.Error(w, "Forbidden: administrative role required", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
