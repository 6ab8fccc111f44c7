package storage

import (
	"context"

	"github.com/vodomat/fieldsync/internal/models"
)

// TicketStorage defines persistence for the resident ticket
// collection. The merge engine reads the whole collection, computes
// the merged result in memory and replaces the collection in a single
// transaction, so a failed write leaves both durable and served state
// at the pre-merge snapshot.
type TicketStorage interface {
	// GetAllTickets retrieves the resident ticket collection in
	// insertion order. Returns an empty slice when there are none.
	GetAllTickets(ctx context.Context) ([]*models.ServiceTicket, error)

	// GetTicketByID retrieves a ticket by ID.
	// Returns ErrTicketNotFound if it doesn't exist.
	GetTicketByID(ctx context.Context, id string) (*models.ServiceTicket, error)

	// ReplaceTickets atomically replaces the resident collection.
	ReplaceTickets(ctx context.Context, tickets []*models.ServiceTicket) error

	// CountTickets returns the resident collection size.
	CountTickets(ctx context.Context) (int, error)

	// CountInProgressByTechnician returns the number of in_progress
	// tickets held by a technician. Used by the workday close check.
	CountInProgressByTechnician(ctx context.Context, technicianID string) (int, error)
}

// AuditStorage defines persistence for the workday reopen audit log.
type AuditStorage interface {
	// AppendWorkdayAudit appends one audit entry.
	AppendWorkdayAudit(ctx context.Context, entry *models.WorkdayAuditEntry) error

	// GetWorkdayAudit returns all audit entries, newest first.
	GetWorkdayAudit(ctx context.Context) ([]*models.WorkdayAuditEntry, error)
}
