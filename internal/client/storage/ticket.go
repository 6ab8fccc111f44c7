package storage

import (
	"context"
	"time"

	"github.com/vodomat/fieldsync/internal/models"
)

// TicketStorage defines the interface for the local ticket collection
type TicketStorage interface {
	// SaveTicket stores or updates a ticket
	SaveTicket(ctx context.Context, ticket *models.ServiceTicket) error

	// GetTicket retrieves a ticket by ID.
	// Returns ErrTicketNotFound if the ticket doesn't exist.
	GetTicket(ctx context.Context, id string) (*models.ServiceTicket, error)

	// ListTickets returns all local tickets ordered by creation time
	ListTickets(ctx context.Context) ([]*models.ServiceTicket, error)

	// ListTicketsByStatus returns all local tickets with the given status
	ListTicketsByStatus(ctx context.Context, status models.TicketStatus) ([]*models.ServiceTicket, error)

	// PurgeTerminalBefore removes completed and cancelled tickets whose
	// effective timestamp is older than the cutoff. Returns the number
	// of removed tickets. Called after a confirmed sync on workday close.
	PurgeTerminalBefore(ctx context.Context, cutoff time.Time) (int, error)

	// NextServiceSequence returns the next value of the depot-scoped
	// service number sequence
	NextServiceSequence(ctx context.Context, depot string) (uint64, error)
}

// UserStorage defines the interface for the local user directory
type UserStorage interface {
	// SaveUser stores or updates a user
	SaveUser(ctx context.Context, user *models.User) error

	// GetUserByID retrieves a user by ID.
	// Returns ErrUserNotFound if the user doesn't exist.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// GetUserByUsername retrieves a user by username
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// ListUsers returns all locally known users
	ListUsers(ctx context.Context) ([]*models.User, error)
}

// Settings holds device-level client configuration
type Settings struct {
	ServerURL       string `json:"server_url"`
	DeviceName      string `json:"device_name"`
	AutoSyncEnabled bool   `json:"auto_sync_enabled"`
}

// SettingsStorage defines the interface for device settings
type SettingsStorage interface {
	// SaveSettings stores the settings, replacing any previous ones
	SaveSettings(ctx context.Context, settings *Settings) error

	// GetSettings retrieves the stored settings.
	// Returns ErrSettingsNotFound if none were saved.
	GetSettings(ctx context.Context) (*Settings, error)
}
