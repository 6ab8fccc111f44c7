package tickets

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vodomat/fieldsync/internal/client/storage"
	clientsync "github.com/vodomat/fieldsync/internal/client/sync"
	"github.com/vodomat/fieldsync/internal/models"
)

// ErrWorkdayClosed is returned when a technician with a closed workday
// tries to start a ticket
var ErrWorkdayClosed = errors.New("workday is closed, ask an administrator to reopen it")

// Service manages the local ticket collection on the device
type Service struct {
	tickets  storage.TicketStorage
	sessions storage.SessionStorage
	settings storage.SettingsStorage
	syncSvc  clientsync.Service
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new ticket service
func NewService(tickets storage.TicketStorage, sessions storage.SessionStorage, settings storage.SettingsStorage, syncSvc clientsync.Service, logger *slog.Logger) *Service {
	return &Service{
		tickets:  tickets,
		sessions: sessions,
		settings: settings,
		syncSvc:  syncSvc,
		logger:   logger,
		now:      time.Now,
	}
}

// Start creates a new in-progress ticket for the scanned dispenser.
// Blocked while the technician's workday is closed.
func (s *Service) Start(ctx context.Context, deviceCode string) (*models.ServiceTicket, error) {
	if deviceCode == "" {
		return nil, fmt.Errorf("device code is required")
	}

	session, err := s.sessions.GetSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session.WorkdayStatus == models.WorkdayClosed {
		return nil, ErrWorkdayClosed
	}

	now := s.now().UTC()

	serviceNumber, err := s.nextServiceNumber(ctx, session.Depot)
	if err != nil {
		return nil, err
	}

	ticket := &models.ServiceTicket{
		ID:             newTicketID(now),
		ServiceNumber:  serviceNumber,
		DeviceCode:     deviceCode,
		TechnicianID:   session.UserID,
		TechnicianName: session.Name,
		StartTime:      now,
		Status:         models.TicketInProgress,
		Operations:     []models.Operation{},
		SpareParts:     []models.SparePart{},
		CreatedAt:      now,
	}

	if err := s.tickets.SaveTicket(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to save ticket: %w", err)
	}

	s.logger.Info("ticket started",
		"ticket_id", ticket.ID,
		"service_number", ticket.ServiceNumber,
		"device_code", deviceCode)

	s.autoSync(ctx)

	return ticket, nil
}

// AddOperation logs a performed operation on an in-progress ticket
func (s *Service) AddOperation(ctx context.Context, ticketID, name, description string) (*models.ServiceTicket, error) {
	if name == "" {
		return nil, fmt.Errorf("operation name is required")
	}

	ticket, err := s.tickets.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status != models.TicketInProgress {
		return nil, models.ErrTicketNotInProgress
	}

	ticket.Operations = append(ticket.Operations, models.Operation{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
	})
	s.markUpdated(ticket)

	if err := s.tickets.SaveTicket(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to save ticket: %w", err)
	}

	return ticket, nil
}

// AddSparePart logs a used spare part on an in-progress ticket
func (s *Service) AddSparePart(ctx context.Context, ticketID, name string, quantity int) (*models.ServiceTicket, error) {
	if name == "" {
		return nil, fmt.Errorf("spare part name is required")
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive")
	}

	ticket, err := s.tickets.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status != models.TicketInProgress {
		return nil, models.ErrTicketNotInProgress
	}

	ticket.SpareParts = append(ticket.SpareParts, models.SparePart{
		ID:       uuid.New().String(),
		Name:     name,
		Quantity: quantity,
	})
	s.markUpdated(ticket)

	if err := s.tickets.SaveTicket(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to save ticket: %w", err)
	}

	return ticket, nil
}

// Complete finishes an in-progress ticket. At least one operation
// must be logged; the duration is derived from start and end time.
func (s *Service) Complete(ctx context.Context, ticketID string) (*models.ServiceTicket, error) {
	ticket, err := s.tickets.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	if err := ticket.Complete(s.now().UTC()); err != nil {
		return nil, err
	}

	if err := s.tickets.SaveTicket(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to save ticket: %w", err)
	}

	s.logger.Info("ticket completed",
		"ticket_id", ticket.ID,
		"duration_minutes", ticket.DurationMinutes)

	s.autoSync(ctx)

	return ticket, nil
}

// Cancel aborts an in-progress ticket with a reason. Cancelled is
// terminal.
func (s *Service) Cancel(ctx context.Context, ticketID, reason string) (*models.ServiceTicket, error) {
	ticket, err := s.tickets.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	if err := ticket.Cancel(reason, s.now().UTC()); err != nil {
		return nil, err
	}

	if err := s.tickets.SaveTicket(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to save ticket: %w", err)
	}

	s.logger.Info("ticket cancelled", "ticket_id", ticket.ID, "reason", reason)

	s.autoSync(ctx)

	return ticket, nil
}

// Reopen puts a completed ticket back in progress. Admin only; the
// caller role comes from the device session.
func (s *Service) Reopen(ctx context.Context, ticketID string) (*models.ServiceTicket, error) {
	session, err := s.sessions.GetSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if !session.IsAdmin() {
		return nil, fmt.Errorf("administrative role required to reopen tickets")
	}

	ticket, err := s.tickets.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	if err := ticket.Reopen(s.now().UTC()); err != nil {
		return nil, err
	}

	if err := s.tickets.SaveTicket(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to save ticket: %w", err)
	}

	return ticket, nil
}

// Get retrieves a single ticket by ID
func (s *Service) Get(ctx context.Context, ticketID string) (*models.ServiceTicket, error) {
	return s.tickets.GetTicket(ctx, ticketID)
}

// List returns all local tickets
func (s *Service) List(ctx context.Context) ([]*models.ServiceTicket, error) {
	return s.tickets.ListTickets(ctx)
}

// ListByStatus returns local tickets filtered by status
func (s *Service) ListByStatus(ctx context.Context, status models.TicketStatus) ([]*models.ServiceTicket, error) {
	return s.tickets.ListTicketsByStatus(ctx, status)
}

// markUpdated stamps the mutation time used for LWW ordering
func (s *Service) markUpdated(ticket *models.ServiceTicket) {
	now := s.now().UTC()
	ticket.UpdatedAt = &now
}

// nextServiceNumber issues the next depot-scoped service number,
// e.g. "BG-000042"
func (s *Service) nextServiceNumber(ctx context.Context, depot string) (string, error) {
	if depot == "" {
		depot = "HQ"
	}
	seq, err := s.tickets.NextServiceSequence(ctx, depot)
	if err != nil {
		return "", fmt.Errorf("failed to advance service sequence: %w", err)
	}
	return fmt.Sprintf("%s-%06d", depot, seq), nil
}

// autoSync pushes local changes in the background when the device has
// auto-sync enabled. Failures only get logged; the mutation itself
// already succeeded locally.
func (s *Service) autoSync(ctx context.Context) {
	settings, err := s.settings.GetSettings(ctx)
	if err != nil || !settings.AutoSyncEnabled {
		return
	}

	go func() {
		syncCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		if _, err := s.syncSvc.Sync(syncCtx); err != nil {
			s.logger.Debug("auto-sync skipped", "error", err)
		}
	}()
}

// newTicketID builds a client-generated ticket ID from the creation
// time and a random suffix, unique across offline devices
func newTicketID(at time.Time) string {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		// Extremely unlikely; fall back to a UUID.
		return uuid.New().String()
	}
	return fmt.Sprintf("%d-%s", at.UnixMilli(), hex.EncodeToString(suffix))
}
