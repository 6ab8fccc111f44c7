package workday

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	httpClient "github.com/vodomat/fieldsync/internal/client/api"
	"github.com/vodomat/fieldsync/internal/client/storage"
	clientsync "github.com/vodomat/fieldsync/internal/client/sync"
	"github.com/vodomat/fieldsync/internal/models"
	"github.com/vodomat/fieldsync/internal/validation"
	"github.com/vodomat/fieldsync/pkg/api"
)

// purgeRetention is how long completed and cancelled tickets stay on
// the device after their last change. Purging happens only on workday
// close, after the sync confirmed everything reached the server.
const purgeRetention = 3 * 24 * time.Hour

// ErrOpenTickets is returned when the workday cannot close because
// tickets are still in progress
var ErrOpenTickets = errors.New("tickets still in progress, complete or cancel them first")

// ErrNotAdmin is returned when a non-administrative session attempts
// to reopen a workday
var ErrNotAdmin = errors.New("administrative role required")

// Gate controls the technician's workday on this device
type Gate struct {
	apiClient httpClient.ClientAPI
	tickets   storage.TicketStorage
	sessions  storage.SessionStorage
	syncSvc   clientsync.Service
	logger    *slog.Logger
	now       func() time.Time
}

// NewGate creates a new workday gate
func NewGate(apiClient httpClient.ClientAPI, tickets storage.TicketStorage, sessions storage.SessionStorage, syncSvc clientsync.Service, logger *slog.Logger) *Gate {
	return &Gate{
		apiClient: apiClient,
		tickets:   tickets,
		sessions:  sessions,
		syncSvc:   syncSvc,
		logger:    logger,
		now:       time.Now,
	}
}

// CloseResult reports what happened during a workday close
type CloseResult struct {
	SyncResult    *clientsync.SyncResult
	PurgedTickets int
	ClosedAt      time.Time
}

// Close ends the technician's workday.
// 1. Refuses while any local ticket is in progress
// 2. Runs a full sync so every ticket reaches the server
// 3. Closes the workday on the server
// 4. Purges old terminal tickets from the device
// A failure in any step leaves the workday open.
func (g *Gate) Close(ctx context.Context) (*CloseResult, error) {
	session, err := g.sessions.GetSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	open, err := g.tickets.ListTicketsByStatus(ctx, models.TicketInProgress)
	if err != nil {
		return nil, fmt.Errorf("failed to check open tickets: %w", err)
	}
	for _, ticket := range open {
		if ticket.TechnicianID == session.UserID {
			return nil, fmt.Errorf("%w (%s)", ErrOpenTickets, ticket.ServiceNumber)
		}
	}

	// Everything must be on the server before the device forgets it.
	syncResult, err := g.syncSvc.Sync(ctx)
	if err != nil {
		return nil, fmt.Errorf("sync before close failed: %w", err)
	}

	closedAt := g.now().UTC()
	if _, err := g.apiClient.CloseWorkday(ctx, session.AccessToken, api.CloseWorkdayRequest{ClosedAt: closedAt}); err != nil {
		return nil, fmt.Errorf("server refused to close workday: %w", err)
	}

	purged, err := g.tickets.PurgeTerminalBefore(ctx, closedAt.Add(-purgeRetention))
	if err != nil {
		// The workday is already closed server-side; report the purge
		// failure but don't undo the close.
		g.logger.Warn("ticket purge failed", "error", err)
		purged = 0
	}

	session.WorkdayStatus = models.WorkdayClosed
	session.WorkdayClosedAt = &closedAt
	if err := g.sessions.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}

	g.logger.Info("workday closed",
		"user_id", session.UserID,
		"purged_tickets", purged)

	return &CloseResult{
		SyncResult:    syncResult,
		PurgedTickets: purged,
		ClosedAt:      closedAt,
	}, nil
}

// Open asks the server to reopen a technician's workday. Admin only;
// the server records the reason in its audit log.
func (g *Gate) Open(ctx context.Context, userID, reason string) error {
	session, err := g.sessions.GetSession(ctx)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	if !session.IsAdmin() {
		return ErrNotAdmin
	}
	if err := validation.ValidateReopenReason(reason); err != nil {
		return err
	}

	if _, err := g.apiClient.OpenWorkday(ctx, session.AccessToken, api.OpenWorkdayRequest{
		UserID: userID,
		Reason: reason,
	}); err != nil {
		return fmt.Errorf("server refused to reopen workday: %w", err)
	}

	// Reopening your own workday takes effect on this device at once.
	if userID == session.UserID {
		session.WorkdayStatus = models.WorkdayOpen
		session.WorkdayClosedAt = nil
		if err := g.sessions.SaveSession(ctx, session); err != nil {
			return fmt.Errorf("failed to update session: %w", err)
		}
	}

	g.logger.Info("workday reopened", "user_id", userID, "admin_id", session.UserID)

	return nil
}

// Audit fetches the server's reopen audit log (admin only)
func (g *Gate) Audit(ctx context.Context) ([]models.WorkdayAuditEntry, error) {
	session, err := g.sessions.GetSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if !session.IsAdmin() {
		return nil, ErrNotAdmin
	}

	resp, err := g.apiClient.GetWorkdayAudit(ctx, session.AccessToken)
	if err != nil {
		return nil, err
	}

	return resp.Entries, nil
}
