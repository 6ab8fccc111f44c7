package models

import "time"

// Role represents the access level of a user.
type Role string

const (
	// RoleSuperUser has full administrative access, including user
	// management and workday overrides.
	RoleSuperUser Role = "super_user"
	// RoleGospodar is a depot supervisor with administrative access.
	RoleGospodar Role = "gospodar"
	// RoleTechnician is a field technician; no administrative access.
	RoleTechnician Role = "technician"
)

// IsAdmin reports whether the role grants administrative access.
func (r Role) IsAdmin() bool {
	return r == RoleSuperUser || r == RoleGospodar
}

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperUser, RoleGospodar, RoleTechnician:
		return true
	}
	return false
}

// WorkdayStatus represents the state of a technician's workday.
// The zero value means the workday was never opened or closed; for
// ticket creation purposes it is treated as open.
type WorkdayStatus string

const (
	WorkdayOpen      WorkdayStatus = "open"
	WorkdayClosed    WorkdayStatus = "closed"
	WorkdayUndefined WorkdayStatus = ""
)

// User represents an account in the system: identity, credential,
// role and operational status. Password holds an argon2id hash, never
// plaintext. TwoFactorSecret and BackupCodes are server-side only and
// are never included in sync payloads.
type User struct {
	ID              string     `json:"id"`                 // opaque stable identifier (UUID)
	Username        string     `json:"username"`           // unique across all users
	Password        string     `json:"password,omitempty"` // argon2id PHC-format hash
	Name            string     `json:"name"`               // display name
	Role            Role       `json:"role"`               // super_user, gospodar or technician
	Depot           string     `json:"depot"`              // home depot location
	IsActive        bool       `json:"is_active"`          // inactive users cannot log in
	CreatedAt       time.Time  `json:"created_at"`
	LastLoginAt     *time.Time `json:"last_login_at,omitempty"`
	LastLoginDevice string     `json:"last_login_device,omitempty"` // device label from the last login
	IsOnline        bool       `json:"is_online"`

	WorkdayStatus   WorkdayStatus `json:"workday_status"` // open, closed or unset
	WorkdayClosedAt *time.Time    `json:"workday_closed_at,omitempty"`
	WorkdayOpenedAt *time.Time    `json:"workday_opened_at,omitempty"`

	TwoFactorEnabled bool     `json:"two_factor_enabled"`
	TwoFactorSecret  string   `json:"two_factor_secret,omitempty"` // base32 TOTP secret
	BackupCodes      []string `json:"backup_codes,omitempty"`      // salted sha256 hashes, one-time use
	BackupCodeSalt   string   `json:"backup_code_salt,omitempty"`  // base64 salt for backup code hashing
}

// CanCreateTickets reports whether ticket creation is allowed for this
// user's workday state. An unset workday counts as open.
func (u *User) CanCreateTickets() bool {
	return u.WorkdayStatus != WorkdayClosed
}

// Clone creates a deep copy of the user.
func (u *User) Clone() *User {
	clone := *u
	if u.LastLoginAt != nil {
		t := *u.LastLoginAt
		clone.LastLoginAt = &t
	}
	if u.WorkdayClosedAt != nil {
		t := *u.WorkdayClosedAt
		clone.WorkdayClosedAt = &t
	}
	if u.WorkdayOpenedAt != nil {
		t := *u.WorkdayOpenedAt
		clone.WorkdayOpenedAt = &t
	}
	if u.BackupCodes != nil {
		clone.BackupCodes = make([]string, len(u.BackupCodes))
		copy(clone.BackupCodes, u.BackupCodes)
	}
	return &clone
}

// WorkdayAuditEntry records an administrative workday reopen.
type WorkdayAuditEntry struct {
	ID        string    `json:"id"`         // UUID of the entry
	UserID    string    `json:"user_id"`    // technician whose workday was reopened
	AdminID   string    `json:"admin_id"`   // administrator who authorized it
	AdminName string    `json:"admin_name"` // resolved at write time
	Reason    string    `json:"reason"`     // mandatory justification, at least 10 characters
	CreatedAt time.Time `json:"created_at"`
}
