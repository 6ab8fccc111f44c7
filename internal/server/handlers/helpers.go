package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/vodomat/fieldsync/internal/models"
	"github.com/vodomat/fieldsync/pkg/api"
)

// contextKey is the type for request context keys
type contextKey string

const (
	// UserIDKey holds the authenticated user's id
	UserIDKey contextKey = "user_id"
	// UsernameKey holds the authenticated user's username
	UsernameKey contextKey = "username"
	// RoleKey holds the authenticated user's role
	RoleKey contextKey = "role"
	// ScopeKey holds the token scope (full or pending 2FA)
	ScopeKey contextKey = "scope"
)

// GetUserID extracts the user id from the request context
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}

// GetUsername extracts the username from the request context
func GetUsername(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(UsernameKey).(string)
	return username, ok
}

// GetRole extracts the role from the request context
func GetRole(ctx context.Context) (models.Role, bool) {
	role, ok := ctx.Value(RoleKey).(models.Role)
	return role, ok
}

// GetScope extracts the token scope from the request context
func GetScope(ctx context.Context) (string, bool) {
	scope, ok := ctx.Value(ScopeKey).(string)
	return scope, ok
}

// sendJSON writes a JSON response with the given status code
func sendJSON(logger *slog.Logger, w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// sendError writes the uniform error envelope. Every failure path is
// recovered here; nothing is allowed to crash the process.
func sendError(logger *slog.Logger, w http.ResponseWriter, message string, statusCode int) {
	sendJSON(logger, w, api.ErrorResponse{Success: false, Message: message}, statusCode)
}
