package storage

import (
	"context"
	"time"

	"github.com/vodomat/fieldsync/internal/models"
)

// TwoFactorMaterial bundles the fields persisted atomically when 2FA
// enrollment is committed or the whole set cleared on disable.
type TwoFactorMaterial struct {
	Enabled        bool
	Secret         string   // base32 TOTP secret, empty when disabling
	BackupCodes    []string // salted hashes, never plaintext
	BackupCodeSalt string   // base64
}

// UserStorage defines the credential store contract. All mutations are
// whole-record replace by id: a last writer fully overwrites the
// previous record.
type UserStorage interface {
	// CreateUser creates a new user in the storage.
	// Returns ErrUserAlreadyExists if username is taken.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByUsername retrieves user by username.
	// Returns ErrUserNotFound if user doesn't exist.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// GetUserByID retrieves user by ID.
	// Returns ErrUserNotFound if user doesn't exist.
	GetUserByID(ctx context.Context, userID string) (*models.User, error)

	// GetAllUsers retrieves the resident user collection in insertion
	// order. Returns an empty slice when there are no users.
	GetAllUsers(ctx context.Context) ([]*models.User, error)

	// UpsertUser replaces the full record for user.ID, inserting it
	// when absent.
	UpsertUser(ctx context.Context, user *models.User) error

	// ReplaceUsers atomically replaces the resident collection with
	// the given merge result. Commit or nothing, so a failed write
	// cannot leave a partial merge behind.
	ReplaceUsers(ctx context.Context, users []*models.User) error

	// CountUsers returns the resident collection size.
	CountUsers(ctx context.Context) (int, error)

	// SetTwoFactor atomically persists or clears the user's 2FA
	// material. Returns ErrUserNotFound if user doesn't exist.
	SetTwoFactor(ctx context.Context, userID string, material TwoFactorMaterial) error

	// UpdateLastLogin records a successful login.
	UpdateLastLogin(ctx context.Context, userID string, lastLogin time.Time, device string) error

	// SetWorkdayStatus transitions the user's workday state with the
	// matching closed/opened timestamp.
	SetWorkdayStatus(ctx context.Context, userID string, status models.WorkdayStatus, at time.Time) error
}
