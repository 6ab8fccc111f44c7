package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vodomat/fieldsync/internal/models"
	"github.com/vodomat/fieldsync/internal/server/handlers"
)

// setupTestLogger creates a logger for testing
func setupTestLogger() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelError,
	}
	handler := slog.NewTextHandler(os.Stdout, opts)
	return slog.New(handler)
}

func testJWTConfig() handlers.JWTConfig {
	return handlers.JWTConfig{
		Secret:          []byte("test-secret-key"),
		AccessTokenTTL:  15 * time.Minute,
		PendingTokenTTL: 5 * time.Minute,
	}
}

func testUser(role models.Role) *models.User {
	return &models.User{
		ID:       "user123",
		Username: "testuser",
		Role:     role,
	}
}

// contextCheckHandler verifies the identity claims injected by the middleware
func contextCheckHandler(t *testing.T, expectedUserID, expectedUsername string, expectedRole models.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := handlers.GetUserID(r.Context())
		require.True(t, ok, "user_id should be in context")
		assert.Equal(t, expectedUserID, userID)

		username, ok := handlers.GetUsername(r.Context())
		require.True(t, ok, "username should be in context")
		assert.Equal(t, expectedUsername, username)

		role, ok := handlers.GetRole(r.Context())
		require.True(t, ok, "role should be in context")
		assert.Equal(t, expectedRole, role)

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

func TestAuthMiddleware_Success(t *testing.T) {
	logger := setupTestLogger()
	jwtConfig := testJWTConfig()

	token, _, err := handlers.GenerateAccessToken(jwtConfig, testUser(models.RoleTechnician))
	require.NoError(t, err)

	wrapped := AuthMiddleware(logger, jwtConfig)(
		contextCheckHandler(t, "user123", "testuser", models.RoleTechnician))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestAuthMiddleware_MissingAuthHeader(t *testing.T) {
	wrapped := AuthMiddleware(setupTestLogger(), testJWTConfig())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_InvalidHeaderFormat(t *testing.T) {
	wrapped := AuthMiddleware(setupTestLogger(), testJWTConfig())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

	tests := []string{
		"NotBearer token123",
		"Bearertoken123",
		"Bearer",
	}
	for _, header := range tests {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", header)

		w := httptest.NewRecorder()
		wrapped.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code, "header: %q", header)
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	wrapped := AuthMiddleware(setupTestLogger(), testJWTConfig())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")

	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_WrongSecret(t *testing.T) {
	signedWith := testJWTConfig()
	token, _, err := handlers.GenerateAccessToken(signedWith, testUser(models.RoleTechnician))
	require.NoError(t, err)

	validatedWith := testJWTConfig()
	validatedWith.Secret = []byte("a-different-secret")

	wrapped := AuthMiddleware(setupTestLogger(), validatedWith)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_PendingTokenRejected(t *testing.T) {
	jwtConfig := testJWTConfig()
	token, _, err := handlers.GeneratePendingToken(jwtConfig, testUser(models.RoleTechnician))
	require.NoError(t, err)

	wrapped := AuthMiddleware(setupTestLogger(), jwtConfig)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAllowPending_AcceptsPendingToken(t *testing.T) {
	jwtConfig := testJWTConfig()
	token, _, err := handlers.GeneratePendingToken(jwtConfig, testUser(models.RoleTechnician))
	require.NoError(t, err)

	wrapped := AllowPending(setupTestLogger(), jwtConfig)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope, ok := handlers.GetScope(r.Context())
			require.True(t, ok)
			assert.Equal(t, handlers.ScopeTwoFactorPending, scope)
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAdmin(t *testing.T) {
	logger := setupTestLogger()
	jwtConfig := testJWTConfig()

	tests := []struct {
		name       string
		role       models.Role
		wantStatus int
	}{
		{"super user allowed", models.RoleSuperUser, http.StatusOK},
		{"gospodar allowed", models.RoleGospodar, http.StatusOK},
		{"technician forbidden", models.RoleTechnician, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, _, err := handlers.GenerateAccessToken(jwtConfig, testUser(tt.role))
			require.NoError(t, err)

			wrapped := AuthMiddleware(logger, jwtConfig)(
				RequireAdmin(logger)(
					http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
						w.WriteHeader(http.StatusOK)
					})))

			req := httptest.NewRequest(http.MethodPost, "/api/v1/workday/open", nil)
			req.Header.Set("Authorization", "Bearer "+token)

			w := httptest.NewRecorder()
			wrapped.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestRequireAdmin_WithoutAuth(t *testing.T) {
	wrapped := RequireAdmin(setupTestLogger())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/workday/open", nil)
	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
