package validation

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// UsernamePattern defines the accepted username format: latin letters,
// digits and underscores, 3-32 characters.
var UsernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,32}$`)

const (
	// MinUsernameLen is the minimum username length.
	MinUsernameLen = 3
	// MaxUsernameLen is the maximum username length.
	MaxUsernameLen = 32
	// MinPasswordLen is the minimum password length.
	MinPasswordLen = 8
	// MinReopenReasonLen is the minimum length of a workday reopen
	// justification.
	MinReopenReasonLen = 10
)

// ValidateUsername checks that a username matches the accepted format.
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username cannot be empty")
	}
	if len(username) < MinUsernameLen {
		return fmt.Errorf("username must be at least %d characters long", MinUsernameLen)
	}
	if len(username) > MaxUsernameLen {
		return fmt.Errorf("username must not exceed %d characters", MaxUsernameLen)
	}
	if !UsernamePattern.MatchString(username) {
		return fmt.Errorf("username can only contain letters (a-z, A-Z), numbers (0-9), and underscores (_)")
	}
	return nil
}

// ValidatePassword checks minimum password requirements.
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}
	if len(password) < MinPasswordLen {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLen)
	}
	return nil
}

// ValidateReopenReason checks the mandatory justification for an
// administrative workday reopen. Length is counted in runes so
// non-latin reasons are held to the same minimum.
func ValidateReopenReason(reason string) error {
	if utf8.RuneCountInString(reason) < MinReopenReasonLen {
		return fmt.Errorf("reopen reason must be at least %d characters long", MinReopenReasonLen)
	}
	return nil
}
