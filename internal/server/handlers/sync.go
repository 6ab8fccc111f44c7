package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/vodomat/fieldsync/internal/models"
	"github.com/vodomat/fieldsync/internal/server/merge"
	"github.com/vodomat/fieldsync/internal/server/storage"
	"github.com/vodomat/fieldsync/pkg/api"
)

// SyncHandler handles push/pull of the resident collections. The merge
// is computed fully in memory and persisted in one transaction, so a
// failed write leaves the served state at the pre-merge snapshot.
// Pushes into the same collection are serialized: the read-merge-write
// cycle is not atomic on its own, and two concurrent pushes working
// from the same snapshot would have the later replace drop the earlier
// batch.
type SyncHandler struct {
	logger        *slog.Logger
	userStorage   storage.UserStorage
	ticketStorage storage.TicketStorage

	usersMu   sync.Mutex
	ticketsMu sync.Mutex
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(logger *slog.Logger, userStorage storage.UserStorage, ticketStorage storage.TicketStorage) *SyncHandler {
	return &SyncHandler{
		logger:        logger,
		userStorage:   userStorage,
		ticketStorage: ticketStorage,
	}
}

// PushUsers handles POST /api/v1/sync/users. Admin-only (enforced by
// middleware); applies the shallow per-field merge policy.
func (h *SyncHandler) PushUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.SyncUsersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode user sync request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Users == nil {
		sendError(h.logger, w, "users array is required", http.StatusBadRequest)
		return
	}
	for i := range req.Users {
		if req.Users[i].ID == "" {
			sendError(h.logger, w, "user id is required", http.StatusBadRequest)
			return
		}
		if req.Users[i].Role != nil && !req.Users[i].Role.Valid() {
			sendError(h.logger, w, "invalid user role", http.StatusBadRequest)
			return
		}
	}

	h.usersMu.Lock()
	defer h.usersMu.Unlock()

	existing, err := h.userStorage.GetAllUsers(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load resident users", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	merged := merge.Users(existing, req.Users)

	if err := h.userStorage.ReplaceUsers(ctx, merged); err != nil {
		h.logger.ErrorContext(ctx, "failed to persist merged users", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "user sync completed",
		slog.Int("pushed", len(req.Users)),
		slog.Int("total", len(merged)))

	sendJSON(h.logger, w, api.SyncUsersResponse{
		Success:     true,
		SyncedCount: len(req.Users),
		TotalUsers:  len(merged),
	}, http.StatusOK)
}

// PullUsers handles GET /api/v1/sync/users. Credential and 2FA
// material never leaves the server.
func (h *SyncHandler) PullUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	users, err := h.userStorage.GetAllUsers(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load resident users", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	sanitized := make([]models.User, 0, len(users))
	for _, user := range users {
		u := *user.Clone()
		u.Password = ""
		u.TwoFactorSecret = ""
		u.BackupCodes = nil
		u.BackupCodeSalt = ""
		sanitized = append(sanitized, u)
	}

	sendJSON(h.logger, w, api.GetUsersResponse{Success: true, Users: sanitized}, http.StatusOK)
}

// PushTickets handles POST /api/v1/sync/tickets with the
// last-writer-wins merge policy.
func (h *SyncHandler) PushTickets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.SyncTicketsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode ticket sync request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Tickets == nil {
		sendError(h.logger, w, "tickets array is required", http.StatusBadRequest)
		return
	}
	for i := range req.Tickets {
		if req.Tickets[i].ID == "" {
			sendError(h.logger, w, "ticket id is required", http.StatusBadRequest)
			return
		}
	}

	h.ticketsMu.Lock()
	defer h.ticketsMu.Unlock()

	existing, err := h.ticketStorage.GetAllTickets(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load resident tickets", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	merged := merge.Tickets(existing, req.Tickets, time.Now())

	if err := h.ticketStorage.ReplaceTickets(ctx, merged); err != nil {
		h.logger.ErrorContext(ctx, "failed to persist merged tickets", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "ticket sync completed",
		slog.Int("pushed", len(req.Tickets)),
		slog.Int("total", len(merged)))

	sendJSON(h.logger, w, api.SyncTicketsResponse{
		Success:      true,
		SyncedCount:  len(req.Tickets),
		TotalTickets: len(merged),
	}, http.StatusOK)
}

// PullTickets handles GET /api/v1/sync/tickets
func (h *SyncHandler) PullTickets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tickets, err := h.ticketStorage.GetAllTickets(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load resident tickets", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	out := make([]models.ServiceTicket, 0, len(tickets))
	for _, ticket := range tickets {
		out = append(out, *ticket)
	}

	sendJSON(h.logger, w, api.GetTicketsResponse{Success: true, Tickets: out}, http.StatusOK)
}
