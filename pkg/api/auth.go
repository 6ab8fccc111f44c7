package api

import "time"

// LoginRequest represents a password-step authentication request.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Device   string `json:"device,omitempty"` // device label, recorded as lastLoginDevice
}

// Login status values.
const (
	// LoginStatusOK means the session is fully authenticated.
	LoginStatusOK = "ok"
	// LoginStatusTwoFactorRequired means the password was accepted but
	// the session must be upgraded through /auth/2fa/verify before any
	// other endpoint accepts it.
	LoginStatusTwoFactorRequired = "2fa_required"
)

// LoginResponse represents the result of the password step. When
// Status is "2fa_required" AccessToken carries a restricted pending
// token accepted only by the 2FA verify endpoint. WorkdayStatus is the
// server-side state of the account's workday; a re-login must not lift
// a closed workday.
type LoginResponse struct {
	Status          string     `json:"status"`
	AccessToken     string     `json:"access_token"`
	ExpiresIn       int64      `json:"expires_in"` // access token lifetime in seconds
	UserID          string     `json:"user_id"`
	Username        string     `json:"username"`
	Role            string     `json:"role"`
	WorkdayStatus   string     `json:"workday_status"`
	WorkdayClosedAt *time.Time `json:"workday_closed_at,omitempty"`
}

// ErrorResponse is the uniform error envelope. Success is always false.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
