package storage

import (
	"context"
	"time"

	"github.com/vodomat/fieldsync/internal/models"
)

// Session represents the logged-in technician on this device. The
// access token is kept locally so the app works offline; expiry is
// rechecked before any network call.
type Session struct {
	UserID           string               `json:"user_id"`
	Username         string               `json:"username"`
	Name             string               `json:"name"`
	Role             models.Role          `json:"role"`
	Depot            string               `json:"depot"`
	AccessToken      string               `json:"access_token"`
	TokenScope       string               `json:"token_scope"`
	ExpiresAt        int64                `json:"expires_at"`
	WorkdayStatus    models.WorkdayStatus `json:"workday_status"`
	WorkdayClosedAt  *time.Time           `json:"workday_closed_at,omitempty"`
	TwoFactorEnabled bool                 `json:"two_factor_enabled"`
}

// IsAdmin reports whether the session role has administrative rights
func (s *Session) IsAdmin() bool {
	return s.Role.IsAdmin()
}

// SessionStorage defines the interface for the device session
type SessionStorage interface {
	// SaveSession stores the session, replacing any previous one
	SaveSession(ctx context.Context, session *Session) error

	// GetSession retrieves the stored session.
	// Returns ErrSessionNotFound if nobody is logged in.
	GetSession(ctx context.Context) (*Session, error)

	// DeleteSession removes the stored session (logout)
	DeleteSession(ctx context.Context) error
}
