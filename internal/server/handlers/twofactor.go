package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/vodomat/fieldsync/internal/server/storage"
	"github.com/vodomat/fieldsync/internal/server/twofactor"
	"github.com/vodomat/fieldsync/pkg/api"
)

// TwoFactorService defines the engine interface used by the handler
type TwoFactorService interface {
	Setup(ctx context.Context, userID string) (*twofactor.SetupResult, error)
	Enable(ctx context.Context, userID, token, secret string, backupCodes []string) error
	Verify(ctx context.Context, userID, token string) (*twofactor.VerifyResult, error)
	Disable(ctx context.Context, userID, token string) error
}

// TwoFactorHandler handles 2FA enrollment and verification requests
type TwoFactorHandler struct {
	logger      *slog.Logger
	engine      TwoFactorService
	userStorage storage.UserStorage
	jwtConfig   JWTConfig
}

// NewTwoFactorHandler creates a new 2FA handler
func NewTwoFactorHandler(logger *slog.Logger, engine TwoFactorService, userStorage storage.UserStorage, jwtConfig JWTConfig) *TwoFactorHandler {
	return &TwoFactorHandler{
		logger:      logger,
		engine:      engine,
		userStorage: userStorage,
		jwtConfig:   jwtConfig,
	}
}

// Setup handles POST /api/v1/auth/2fa/setup. Generates enrollment
// material without persisting anything.
func (h *TwoFactorHandler) Setup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		sendError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	result, err := h.engine.Setup(ctx, userID)
	if err != nil {
		h.handleEngineError(ctx, w, err)
		return
	}

	sendJSON(h.logger, w, api.SetupTwoFactorResponse{
		Success:     true,
		Secret:      result.Secret,
		QRCode:      result.QRCode,
		BackupCodes: result.BackupCodes,
	}, http.StatusOK)
}

// Enable handles POST /api/v1/auth/2fa/enable. The token must verify
// against the supplied secret before anything is persisted.
func (h *TwoFactorHandler) Enable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		sendError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.EnableTwoFactorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Token == "" || req.Secret == "" {
		sendError(h.logger, w, "token and secret are required", http.StatusBadRequest)
		return
	}
	if len(req.BackupCodes) == 0 {
		sendError(h.logger, w, "backup codes are required", http.StatusBadRequest)
		return
	}

	if err := h.engine.Enable(ctx, userID, req.Token, req.Secret, req.BackupCodes); err != nil {
		h.handleEngineError(ctx, w, err)
		return
	}

	sendJSON(h.logger, w, api.EnableTwoFactorResponse{
		Success: true,
		Message: "two-factor authentication enabled",
	}, http.StatusOK)
}

// Verify handles POST /api/v1/auth/2fa/verify. Accepts a TOTP code or
// a one-time backup code. When called with a pending login token, a
// successful verification upgrades it to a full access token.
func (h *TwoFactorHandler) Verify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		sendError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.VerifyTwoFactorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Token == "" {
		sendError(h.logger, w, "token is required", http.StatusBadRequest)
		return
	}

	result, err := h.engine.Verify(ctx, userID, req.Token)
	if err != nil {
		h.handleEngineError(ctx, w, err)
		return
	}

	resp := api.VerifyTwoFactorResponse{
		Success:              true,
		UsedBackupCode:       result.UsedBackupCode,
		RemainingBackupCodes: result.RemainingBackupCodes,
	}

	// Upgrade a pending login to a fully authenticated session.
	if scope, _ := GetScope(ctx); scope == ScopeTwoFactorPending {
		user, err := h.userStorage.GetUserByID(ctx, userID)
		if err != nil {
			h.logger.ErrorContext(ctx, "failed to load user for token upgrade", slog.Any("error", err))
			sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
			return
		}

		accessToken, expiresIn, err := GenerateAccessToken(h.jwtConfig, user)
		if err != nil {
			h.logger.ErrorContext(ctx, "failed to generate access token", slog.Any("error", err))
			sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
			return
		}

		resp.AccessToken = accessToken
		resp.ExpiresIn = expiresIn

		h.logger.InfoContext(ctx, "second factor verified, session authenticated",
			slog.String("user_id", userID))
	}

	sendJSON(h.logger, w, resp, http.StatusOK)
}

// Disable handles POST /api/v1/auth/2fa/disable. Requires a valid
// current TOTP or backup code.
func (h *TwoFactorHandler) Disable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		sendError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.DisableTwoFactorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Token == "" {
		sendError(h.logger, w, "token is required", http.StatusBadRequest)
		return
	}

	if err := h.engine.Disable(ctx, userID, req.Token); err != nil {
		h.handleEngineError(ctx, w, err)
		return
	}

	sendJSON(h.logger, w, api.DisableTwoFactorResponse{
		Success: true,
		Message: "two-factor authentication disabled",
	}, http.StatusOK)
}

// handleEngineError maps engine errors to the error taxonomy: missing
// user is not-found, 2FA-not-enabled is a precondition failure and an
// invalid code is a generic invalid-credential response that does not
// reveal which check failed.
func (h *TwoFactorHandler) handleEngineError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrUserNotFound):
		sendError(h.logger, w, "user not found", http.StatusNotFound)
	case errors.Is(err, twofactor.ErrNotEnabled):
		sendError(h.logger, w, "two-factor authentication is not enabled", http.StatusPreconditionFailed)
	case errors.Is(err, twofactor.ErrInvalidCode):
		sendError(h.logger, w, "invalid verification code", http.StatusUnauthorized)
	default:
		h.logger.ErrorContext(ctx, "two-factor engine error", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
	}
}
