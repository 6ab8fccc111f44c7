package storage

import "errors"

// Common client storage errors
var (
	// ErrSessionNotFound indicates that no session exists (not logged in)
	ErrSessionNotFound = errors.New("session not found")

	// ErrTicketNotFound indicates that the ticket was not found
	ErrTicketNotFound = errors.New("ticket not found")

	// ErrUserNotFound indicates that the user was not found locally
	ErrUserNotFound = errors.New("user not found")

	// ErrSettingsNotFound indicates that no settings have been saved yet
	ErrSettingsNotFound = errors.New("settings not found")
)
