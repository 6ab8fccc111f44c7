package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/vodomat/fieldsync/internal/models"
	"github.com/vodomat/fieldsync/internal/server/storage"
	"github.com/vodomat/fieldsync/internal/validation"
	"github.com/vodomat/fieldsync/pkg/api"
)

// WorkdayHandler handles workday close/reopen requests
type WorkdayHandler struct {
	logger        *slog.Logger
	userStorage   storage.UserStorage
	ticketStorage storage.TicketStorage
	auditStorage  storage.AuditStorage
}

// NewWorkdayHandler creates a new workday handler
func NewWorkdayHandler(logger *slog.Logger, userStorage storage.UserStorage, ticketStorage storage.TicketStorage, auditStorage storage.AuditStorage) *WorkdayHandler {
	return &WorkdayHandler{
		logger:        logger,
		userStorage:   userStorage,
		ticketStorage: ticketStorage,
		auditStorage:  auditStorage,
	}
}

// Close handles POST /api/v1/workday/close. The caller closes their
// own workday; the client syncs all tickets before calling this. The
// in_progress check is repeated here against the resident collection.
func (h *WorkdayHandler) Close(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		sendError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.CloseWorkdayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	closedAt := req.ClosedAt
	if closedAt.IsZero() {
		closedAt = time.Now()
	}

	open, err := h.ticketStorage.CountInProgressByTechnician(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to count in progress tickets", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}
	if open > 0 {
		h.logger.WarnContext(ctx, "workday close rejected: open tickets",
			slog.String("user_id", userID), slog.Int("in_progress", open))
		sendError(h.logger, w, "cannot close workday with tickets in progress", http.StatusConflict)
		return
	}

	if err := h.userStorage.SetWorkdayStatus(ctx, userID, models.WorkdayClosed, closedAt); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			sendError(h.logger, w, "user not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to close workday", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "workday closed",
		slog.String("user_id", userID),
		slog.Time("closed_at", closedAt))

	sendJSON(h.logger, w, api.CloseWorkdayResponse{Success: true, Message: "workday closed"}, http.StatusOK)
}

// Open handles POST /api/v1/workday/open. Admin-only (enforced by
// middleware); requires a justification of at least 10 characters and
// appends an audit entry recording who reopened, for whom and why.
func (h *WorkdayHandler) Open(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	adminID, ok := GetUserID(ctx)
	if !ok {
		sendError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.OpenWorkdayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		sendError(h.logger, w, "user_id is required", http.StatusBadRequest)
		return
	}
	if err := validation.ValidateReopenReason(req.Reason); err != nil {
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	// The role check in middleware covers the token; the admin record
	// itself must still resolve so the audit entry can name them.
	admin, err := h.userStorage.GetUserByID(ctx, adminID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to resolve admin", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}
	if !admin.Role.IsAdmin() {
		sendError(h.logger, w, "administrative role required", http.StatusForbidden)
		return
	}

	if _, err := h.userStorage.GetUserByID(ctx, req.UserID); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			sendError(h.logger, w, "user not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to resolve user", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	if err := h.userStorage.SetWorkdayStatus(ctx, req.UserID, models.WorkdayOpen, now); err != nil {
		h.logger.ErrorContext(ctx, "failed to reopen workday", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	entry := &models.WorkdayAuditEntry{
		ID:        uuid.New().String(),
		UserID:    req.UserID,
		AdminID:   admin.ID,
		AdminName: admin.Name,
		Reason:    req.Reason,
		CreatedAt: now,
	}
	if err := h.auditStorage.AppendWorkdayAudit(ctx, entry); err != nil {
		h.logger.ErrorContext(ctx, "failed to append audit entry", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "workday reopened",
		slog.String("user_id", req.UserID),
		slog.String("admin_id", admin.ID),
		slog.String("reason", req.Reason))

	sendJSON(h.logger, w, api.OpenWorkdayResponse{Success: true, Message: "workday reopened"}, http.StatusOK)
}

// Audit handles GET /api/v1/workday/open, returning the reopen audit log
func (h *WorkdayHandler) Audit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entries, err := h.auditStorage.GetWorkdayAudit(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load audit log", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	out := make([]models.WorkdayAuditEntry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, *entry)
	}

	sendJSON(h.logger, w, api.WorkdayAuditResponse{Success: true, Entries: out}, http.StatusOK)
}
