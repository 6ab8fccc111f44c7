package api

// SetupTwoFactorResponse represents POST /api/v1/auth/2fa/setup.
// Nothing is persisted by setup; the secret and the plaintext backup
// codes exist only in this response until enable commits them.
type SetupTwoFactorResponse struct {
	Success     bool     `json:"success"`
	Secret      string   `json:"secret"`       // base32 TOTP secret
	QRCode      string   `json:"qr_code"`      // PNG data URL of the otpauth:// URI
	BackupCodes []string `json:"backup_codes"` // plaintext, shown exactly once
}

// EnableTwoFactorRequest represents POST /api/v1/auth/2fa/enable.
// The caller proves possession of the secret with a current TOTP code;
// only then are the secret and hashed backup codes persisted.
type EnableTwoFactorRequest struct {
	Token       string   `json:"token"`  // 6-digit TOTP code
	Secret      string   `json:"secret"` // secret from setup, not yet persisted
	BackupCodes []string `json:"backup_codes"`
}

// EnableTwoFactorResponse represents the enable result.
type EnableTwoFactorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// VerifyTwoFactorRequest represents POST /api/v1/auth/2fa/verify.
// Token is either a 6-digit TOTP code or an 8-character backup code.
type VerifyTwoFactorRequest struct {
	Token string `json:"token"`
}

// VerifyTwoFactorResponse represents a successful verification. When a
// backup code was consumed UsedBackupCode is true and
// RemainingBackupCodes reports how many are left.
type VerifyTwoFactorResponse struct {
	Success              bool   `json:"success"`
	UsedBackupCode       bool   `json:"used_backup_code"`
	RemainingBackupCodes int    `json:"remaining_backup_codes"`
	AccessToken          string `json:"access_token,omitempty"` // full token when upgrading a pending login
	ExpiresIn            int64  `json:"expires_in,omitempty"`
}

// DisableTwoFactorRequest represents POST /api/v1/auth/2fa/disable.
// Disabling requires a valid current TOTP or backup code so a stolen
// session alone cannot strip 2FA from the account.
type DisableTwoFactorRequest struct {
	Token string `json:"token"`
}

// DisableTwoFactorResponse represents the disable result.
type DisableTwoFactorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
