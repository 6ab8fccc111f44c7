package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/vodomat/fieldsync/internal/client/storage"
	"github.com/vodomat/fieldsync/internal/models"
	"github.com/vodomat/fieldsync/pkg/api"
)

func (c *Cli) runLogin(ctx context.Context) error {
	c.io.Println("=== Login ===")
	c.io.Println()

	username, err := c.io.ReadInput("Username: ")
	if err != nil {
		return fmt.Errorf("failed to read username: %w", err)
	}

	password, err := c.io.ReadPassword("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	c.io.Println()
	c.io.Println("Authenticating...")

	device, _ := os.Hostname()
	result, err := c.apiClient.Login(ctx, api.LoginRequest{
		Username: username,
		Password: password,
		Device:   device,
	})
	if err != nil {
		return err
	}

	accessToken := result.AccessToken
	expiresIn := result.ExpiresIn
	twoFactor := false

	if result.Status == api.LoginStatusTwoFactorRequired {
		c.io.Println()
		c.io.Println("Two-factor authentication is enabled for this account.")

		code, err := c.io.ReadInput("Enter 6-digit code (or 8-character backup code): ")
		if err != nil {
			return fmt.Errorf("failed to read code: %w", err)
		}

		verified, err := c.apiClient.VerifyTwoFactor(ctx, accessToken, api.VerifyTwoFactorRequest{Token: code})
		if err != nil {
			return err
		}

		accessToken = verified.AccessToken
		expiresIn = verified.ExpiresIn
		twoFactor = true

		if verified.UsedBackupCode {
			c.io.Printf("Backup code accepted. %d backup code(s) remaining.\n", verified.RemainingBackupCodes)
		}
	}

	// The workday state is owned by the server record. Seeding it from
	// the login response keeps a closed workday closed across re-logins.
	workday := models.WorkdayStatus(result.WorkdayStatus)
	if workday == "" {
		workday = models.WorkdayOpen
	}

	session := &storage.Session{
		UserID:           result.UserID,
		Username:         result.Username,
		Role:             models.Role(result.Role),
		AccessToken:      accessToken,
		TokenScope:       "full",
		ExpiresAt:        time.Now().Add(time.Duration(expiresIn) * time.Second).Unix(),
		WorkdayStatus:    workday,
		WorkdayClosedAt:  result.WorkdayClosedAt,
		TwoFactorEnabled: twoFactor,
	}

	if err := c.sessions.SaveSession(ctx, session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	c.io.Println()
	c.io.Println("Login successful!")
	c.io.Printf("Username: %s\n", result.Username)
	c.io.Printf("Role: %s\n", result.Role)
	c.io.Printf("Access token expires in: %d seconds\n", expiresIn)

	return nil
}
