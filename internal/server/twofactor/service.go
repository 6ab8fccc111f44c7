// Package twofactor implements the TOTP enrollment and verification
// engine. Enrollment is two-phase: setup generates material without
// persisting anything, enable commits it only after the caller proves
// possession of the secret with a valid current code.
package twofactor

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/vodomat/fieldsync/internal/crypto"
	"github.com/vodomat/fieldsync/internal/server/storage"
)

// Engine errors. ErrInvalidCode is deliberately generic: it does not
// reveal whether the TOTP check or the backup code lookup failed.
var (
	ErrNotEnabled  = errors.New("two-factor authentication is not enabled")
	ErrInvalidCode = errors.New("invalid verification code")
)

const (
	// Issuer is the fixed label shown in authenticator apps.
	Issuer = "FieldSync"
	// SecretSize is the TOTP secret size in bytes (160 bits).
	SecretSize = 20
	// BackupCodeCount is the number of backup codes generated per
	// enrollment.
	BackupCodeCount = 10
	// BackupCodeBytes is the entropy per backup code; rendered as 8
	// hex characters.
	BackupCodeBytes = 4
	// QRCodeSize is the rendered QR image size in pixels.
	QRCodeSize = 256
)

// totpOpts is the shared validation window: 30-second steps with a
// ±2 step skew, so codes stay valid across ±60s of clock drift.
var totpOpts = totp.ValidateOpts{
	Period:    30,
	Skew:      2,
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

// SetupResult contains freshly generated enrollment material. Nothing
// in it is persisted; the plaintext backup codes are shown exactly
// once and only their hashes are ever stored.
type SetupResult struct {
	Secret      string   // base32 TOTP secret
	QRCode      string   // PNG data URL of the otpauth:// URI
	BackupCodes []string // plaintext, one-time display
}

// VerifyResult reports a successful verification.
type VerifyResult struct {
	UsedBackupCode       bool
	RemainingBackupCodes int
}

// Service is the TOTP enrollment/verification engine.
type Service struct {
	logger *slog.Logger
	users  storage.UserStorage
	now    func() time.Time
}

// NewService creates a new two-factor engine.
func NewService(logger *slog.Logger, users storage.UserStorage) *Service {
	return &Service{
		logger: logger,
		users:  users,
		now:    time.Now,
	}
}

// Setup begins enrollment for a user: generates a secret, a scannable
// QR payload and backup codes. Persists nothing; the caller must
// confirm possession through Enable before anything is stored.
func (s *Service) Setup(ctx context.Context, userID string) (*SetupResult, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      Issuer,
		AccountName: user.Username,
		SecretSize:  SecretSize,
		Period:      totpOpts.Period,
		Digits:      totpOpts.Digits,
		Algorithm:   totpOpts.Algorithm,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate totp secret: %w", err)
	}

	png, err := qrcode.Encode(key.URL(), qrcode.Medium, QRCodeSize)
	if err != nil {
		return nil, fmt.Errorf("failed to render qr code: %w", err)
	}

	codes, err := generateBackupCodes(BackupCodeCount)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "two-factor setup material generated",
		slog.String("user_id", userID))

	return &SetupResult{
		Secret:      key.Secret(),
		QRCode:      "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
		BackupCodes: codes,
	}, nil
}

// Enable commits enrollment: verifies the candidate code against the
// not-yet-persisted secret and, on success, atomically stores the
// secret, the enabled flag and the hashed backup codes. On failure
// nothing is persisted and the caller must restart enrollment.
func (s *Service) Enable(ctx context.Context, userID, token, secret string, backupCodes []string) error {
	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		return err
	}
	if secret == "" {
		return fmt.Errorf("secret is required")
	}

	if !s.validateTOTP(token, secret) {
		return ErrInvalidCode
	}

	salt, err := crypto.GenerateBackupCodeSalt()
	if err != nil {
		return err
	}

	hashed := make([]string, 0, len(backupCodes))
	for _, code := range backupCodes {
		h, err := crypto.HashBackupCode(code, salt)
		if err != nil {
			return err
		}
		hashed = append(hashed, h)
	}

	material := storage.TwoFactorMaterial{
		Enabled:        true,
		Secret:         secret,
		BackupCodes:    hashed,
		BackupCodeSalt: salt,
	}
	if err := s.users.SetTwoFactor(ctx, userID, material); err != nil {
		return fmt.Errorf("failed to persist two-factor material: %w", err)
	}

	s.logger.InfoContext(ctx, "two-factor authentication enabled",
		slog.String("user_id", userID),
		slog.Int("backup_codes", len(hashed)))

	return nil
}

// Verify checks a candidate value against the user's enabled secret:
// first as a TOTP code within the ±2 step window, then as a one-time
// backup code. A matched backup code is consumed permanently.
func (s *Service) Verify(ctx context.Context, userID, token string) (*VerifyResult, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.TwoFactorEnabled || user.TwoFactorSecret == "" {
		return nil, ErrNotEnabled
	}

	if s.validateTOTP(token, user.TwoFactorSecret) {
		return &VerifyResult{RemainingBackupCodes: len(user.BackupCodes)}, nil
	}

	// TOTP failed; treat the value as a candidate backup code.
	candidate, err := crypto.HashBackupCode(token, user.BackupCodeSalt)
	if err != nil {
		return nil, ErrInvalidCode
	}

	for i, stored := range user.BackupCodes {
		if stored != candidate {
			continue
		}

		remaining := make([]string, 0, len(user.BackupCodes)-1)
		remaining = append(remaining, user.BackupCodes[:i]...)
		remaining = append(remaining, user.BackupCodes[i+1:]...)

		material := storage.TwoFactorMaterial{
			Enabled:        true,
			Secret:         user.TwoFactorSecret,
			BackupCodes:    remaining,
			BackupCodeSalt: user.BackupCodeSalt,
		}
		if err := s.users.SetTwoFactor(ctx, userID, material); err != nil {
			return nil, fmt.Errorf("failed to consume backup code: %w", err)
		}

		s.logger.WarnContext(ctx, "backup code consumed",
			slog.String("user_id", userID),
			slog.Int("remaining", len(remaining)))

		return &VerifyResult{
			UsedBackupCode:       true,
			RemainingBackupCodes: len(remaining),
		}, nil
	}

	return nil, ErrInvalidCode
}

// Disable turns off 2FA after a successful verification against the
// currently enabled secret, then clears all 2FA material. A stolen
// session without the authenticator cannot disable 2FA.
func (s *Service) Disable(ctx context.Context, userID, token string) error {
	if _, err := s.Verify(ctx, userID, token); err != nil {
		return err
	}

	if err := s.users.SetTwoFactor(ctx, userID, storage.TwoFactorMaterial{}); err != nil {
		return fmt.Errorf("failed to clear two-factor material: %w", err)
	}

	s.logger.InfoContext(ctx, "two-factor authentication disabled",
		slog.String("user_id", userID))

	return nil
}

// validateTOTP checks a 6-digit code against a secret within the
// shared skew window.
func (s *Service) validateTOTP(token, secret string) bool {
	ok, err := totp.ValidateCustom(token, secret, s.now().UTC(), totpOpts)
	return err == nil && ok
}

// generateBackupCodes generates n random codes, 8 hex characters each.
func generateBackupCodes(n int) ([]string, error) {
	codes := make([]string, 0, n)
	for i := 0; i < n; i++ {
		buf := make([]byte, BackupCodeBytes)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("failed to generate backup code: %w", err)
		}
		codes = append(codes, hex.EncodeToString(buf))
	}
	return codes, nil
}
