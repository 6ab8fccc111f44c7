package api

import (
	"time"

	"github.com/vodomat/fieldsync/internal/models"
)

// SyncUser is the wire form of a user record in a sync push. All
// mutable fields are pointers so the server-side shallow merge can
// distinguish "absent from the payload" from a zero value. Credential
// and 2FA material is deliberately not part of the sync surface.
type SyncUser struct {
	ID              string                `json:"id"`
	Username        *string               `json:"username,omitempty"`
	Password        *string               `json:"password,omitempty"` // argon2id PHC hash, computed on the client
	Name            *string               `json:"name,omitempty"`
	Role            *models.Role          `json:"role,omitempty"`
	Depot           *string               `json:"depot,omitempty"`
	IsActive        *bool                 `json:"is_active,omitempty"`
	CreatedAt       *time.Time            `json:"created_at,omitempty"`
	LastLoginAt     *time.Time            `json:"last_login_at,omitempty"`
	LastLoginDevice *string               `json:"last_login_device,omitempty"`
	IsOnline        *bool                 `json:"is_online,omitempty"`
	WorkdayStatus   *models.WorkdayStatus `json:"workday_status,omitempty"`
	WorkdayClosedAt *time.Time            `json:"workday_closed_at,omitempty"`
	WorkdayOpenedAt *time.Time            `json:"workday_opened_at,omitempty"`
}

// SyncUsersRequest represents POST /api/v1/sync/users.
type SyncUsersRequest struct {
	Users []SyncUser `json:"users"`
}

// SyncUsersResponse reports the merge result for a user push.
type SyncUsersResponse struct {
	Success     bool `json:"success"`
	SyncedCount int  `json:"synced_count"` // records in the pushed batch
	TotalUsers  int  `json:"total_users"`  // resident collection size after merge
}

// GetUsersResponse represents GET /api/v1/sync/users.
type GetUsersResponse struct {
	Success bool          `json:"success"`
	Users   []models.User `json:"users"`
}

// SyncTicketsRequest represents POST /api/v1/sync/tickets.
type SyncTicketsRequest struct {
	Tickets []models.ServiceTicket `json:"tickets"`
}

// SyncTicketsResponse reports the merge result for a ticket push.
type SyncTicketsResponse struct {
	Success      bool `json:"success"`
	SyncedCount  int  `json:"synced_count"`  // records in the pushed batch
	TotalTickets int  `json:"total_tickets"` // resident collection size after merge
}

// GetTicketsResponse represents GET /api/v1/sync/tickets.
type GetTicketsResponse struct {
	Success bool                   `json:"success"`
	Tickets []models.ServiceTicket `json:"tickets"`
}

// HealthResponse represents GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}
