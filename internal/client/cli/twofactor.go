package cli

import (
	"context"
	"fmt"

	"github.com/vodomat/fieldsync/pkg/api"
)

func (c *Cli) runTwoFactor(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing subcommand. Usage: fieldsync 2fa <setup|enable|disable>")
	}

	switch args[0] {
	case "setup":
		return c.runTwoFactorSetup(ctx)
	case "enable":
		return c.runTwoFactorEnable(ctx)
	case "disable":
		return c.runTwoFactorDisable(ctx)
	default:
		return fmt.Errorf("unknown 2fa subcommand: %s", args[0])
	}
}

// runTwoFactorSetup generates a secret and backup codes and immediately
// walks the user through confirmation. Nothing is active until the
// enable step succeeds.
func (c *Cli) runTwoFactorSetup(ctx context.Context) error {
	session, err := c.currentSession(ctx)
	if err != nil {
		return err
	}

	c.io.Println("=== Two-Factor Setup ===")
	c.io.Println()

	setup, err := c.apiClient.SetupTwoFactor(ctx, session.AccessToken)
	if err != nil {
		return err
	}

	c.io.Println("Scan this QR code with your authenticator app, or enter the secret manually:")
	c.io.Println()
	c.io.Printf("Secret: %s\n", setup.Secret)
	c.io.Printf("QR code (PNG data URL): %s\n", setup.QRCode)
	c.io.Println()
	c.io.Println("Backup codes (shown only once, store them safely):")
	for _, code := range setup.BackupCodes {
		c.io.Printf("  %s\n", code)
	}
	c.io.Println()

	token, err := c.io.ReadInput("Enter the 6-digit code from your app to confirm: ")
	if err != nil {
		return fmt.Errorf("failed to read code: %w", err)
	}

	if _, err := c.apiClient.EnableTwoFactor(ctx, session.AccessToken, api.EnableTwoFactorRequest{
		Token:       token,
		Secret:      setup.Secret,
		BackupCodes: setup.BackupCodes,
	}); err != nil {
		return err
	}

	session.TwoFactorEnabled = true
	if err := c.sessions.SaveSession(ctx, session); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	c.io.Println()
	c.io.Println("Two-factor authentication is now enabled.")
	return nil
}

// runTwoFactorEnable confirms a previously generated secret. Useful
// when the setup step was interrupted before confirmation.
func (c *Cli) runTwoFactorEnable(ctx context.Context) error {
	session, err := c.currentSession(ctx)
	if err != nil {
		return err
	}

	secret, err := c.io.ReadInput("Secret from setup: ")
	if err != nil {
		return fmt.Errorf("failed to read secret: %w", err)
	}
	token, err := c.io.ReadInput("6-digit code: ")
	if err != nil {
		return fmt.Errorf("failed to read code: %w", err)
	}

	if _, err := c.apiClient.EnableTwoFactor(ctx, session.AccessToken, api.EnableTwoFactorRequest{
		Token:  token,
		Secret: secret,
	}); err != nil {
		return err
	}

	session.TwoFactorEnabled = true
	if err := c.sessions.SaveSession(ctx, session); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	c.io.Println("Two-factor authentication is now enabled.")
	return nil
}

func (c *Cli) runTwoFactorDisable(ctx context.Context) error {
	session, err := c.currentSession(ctx)
	if err != nil {
		return err
	}

	token, err := c.io.ReadInput("Current 6-digit code (or backup code): ")
	if err != nil {
		return fmt.Errorf("failed to read code: %w", err)
	}

	if _, err := c.apiClient.DisableTwoFactor(ctx, session.AccessToken, api.DisableTwoFactorRequest{Token: token}); err != nil {
		return err
	}

	session.TwoFactorEnabled = false
	if err := c.sessions.SaveSession(ctx, session); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	c.io.Println("Two-factor authentication disabled.")
	return nil
}
