package crypto

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// BackupCodeSaltSize is the per-user salt size for backup code hashing.
const BackupCodeSaltSize = 16

// GenerateBackupCodeSalt generates a per-user salt for backup code
// hashing and returns it base64 encoded.
func GenerateBackupCodeSalt() (string, error) {
	salt, err := GenerateSalt(BackupCodeSaltSize)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(salt), nil
}

// HashBackupCode hashes a backup code with the user's salt. Backup
// codes are stored only in this form; the plaintext is shown to the
// user exactly once during enrollment.
func HashBackupCode(code, saltB64 string) (string, error) {
	if code == "" {
		return "", fmt.Errorf("backup code cannot be empty")
	}
	salt, err := base64.StdEncoding.DecodeString(saltB64)
	if err != nil {
		return "", fmt.Errorf("invalid backup code salt: %w", err)
	}

	h := sha256.New()
	h.Write(salt)
	h.Write([]byte(code))
	return hex.EncodeToString(h.Sum(nil)), nil
}
