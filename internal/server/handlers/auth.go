package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/vodomat/fieldsync/internal/crypto"
	"github.com/vodomat/fieldsync/internal/server/storage"
	"github.com/vodomat/fieldsync/internal/validation"
	"github.com/vodomat/fieldsync/pkg/api"
)

// AuthHandler handles password authentication
type AuthHandler struct {
	logger      *slog.Logger
	userStorage storage.UserStorage
	jwtConfig   JWTConfig
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(logger *slog.Logger, userStorage storage.UserStorage, jwtConfig JWTConfig) *AuthHandler {
	return &AuthHandler{
		logger:      logger,
		userStorage: userStorage,
		jwtConfig:   jwtConfig,
	}
}

// Login handles POST /api/v1/auth/login. A correct password on a
// 2FA-enabled account does not authenticate the session: it returns a
// 2fa_required status with a restricted pending token that only the
// 2FA verify endpoint accepts.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode login request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := validation.ValidateUsername(req.Username); err != nil {
		h.logger.WarnContext(ctx, "invalid username", slog.String("username", req.Username), slog.Any("error", err))
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Password == "" {
		sendError(h.logger, w, "password is required", http.StatusBadRequest)
		return
	}

	user, err := h.userStorage.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			h.logger.WarnContext(ctx, "login failed: user not found", slog.String("username", req.Username))
			sendError(h.logger, w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	if !user.IsActive {
		h.logger.WarnContext(ctx, "login failed: user deactivated", slog.String("username", req.Username))
		sendError(h.logger, w, "account is deactivated", http.StatusForbidden)
		return
	}

	if err := crypto.VerifyPassword(req.Password, user.Password); err != nil {
		h.logger.WarnContext(ctx, "login failed: invalid password", slog.String("username", req.Username))
		sendError(h.logger, w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	if err := h.userStorage.UpdateLastLogin(ctx, user.ID, time.Now(), req.Device); err != nil {
		// Not critical, log and continue.
		h.logger.WarnContext(ctx, "failed to update last login", slog.Any("error", err))
	}

	if user.TwoFactorEnabled {
		pendingToken, expiresIn, err := GeneratePendingToken(h.jwtConfig, user)
		if err != nil {
			h.logger.ErrorContext(ctx, "failed to generate pending token", slog.Any("error", err))
			sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
			return
		}

		h.logger.InfoContext(ctx, "password accepted, awaiting second factor",
			slog.String("username", req.Username),
			slog.String("user_id", user.ID))

		sendJSON(h.logger, w, api.LoginResponse{
			Status:          api.LoginStatusTwoFactorRequired,
			AccessToken:     pendingToken,
			ExpiresIn:       expiresIn,
			UserID:          user.ID,
			Username:        user.Username,
			Role:            string(user.Role),
			WorkdayStatus:   string(user.WorkdayStatus),
			WorkdayClosedAt: user.WorkdayClosedAt,
		}, http.StatusOK)
		return
	}

	accessToken, expiresIn, err := GenerateAccessToken(h.jwtConfig, user)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate access token", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "user logged in successfully",
		slog.String("username", req.Username),
		slog.String("user_id", user.ID))

	sendJSON(h.logger, w, api.LoginResponse{
		Status:          api.LoginStatusOK,
		AccessToken:     accessToken,
		ExpiresIn:       expiresIn,
		UserID:          user.ID,
		Username:        user.Username,
		Role:            string(user.Role),
		WorkdayStatus:   string(user.WorkdayStatus),
		WorkdayClosedAt: user.WorkdayClosedAt,
	}, http.StatusOK)
}
