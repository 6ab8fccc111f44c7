package cli

import (
	"context"
	"fmt"

	"github.com/vodomat/fieldsync/internal/models"
)

func (c *Cli) runUsers(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing subcommand. Usage: fieldsync users <list|add|activate|deactivate|passwd>")
	}

	switch args[0] {
	case "list":
		return c.runUsersList(ctx)
	case "add":
		return c.runUsersAdd(ctx)
	case "activate":
		return c.runUsersSetActive(ctx, args[1:], true)
	case "deactivate":
		return c.runUsersSetActive(ctx, args[1:], false)
	case "passwd":
		return c.runUsersPasswd(ctx, args[1:])
	default:
		return fmt.Errorf("unknown users subcommand: %s", args[0])
	}
}

func (c *Cli) runUsersList(ctx context.Context) error {
	list, err := c.userSvc.List(ctx)
	if err != nil {
		return err
	}

	if len(list) == 0 {
		c.io.Println("No users in the local directory. Run 'fieldsync sync' to pull them.")
		return nil
	}

	c.io.Printf("Found %d user(s):\n", len(list))
	c.io.Println()
	for _, user := range list {
		state := "active"
		if !user.IsActive {
			state = "disabled"
		}
		c.io.Printf("%-16s %-12s %-8s %-8s %s\n",
			user.Username, user.Role, user.Depot, state, user.ID)
	}

	return nil
}

func (c *Cli) runUsersAdd(ctx context.Context) error {
	c.io.Println("=== Create User ===")
	c.io.Println()

	username, err := c.io.ReadInput("Username: ")
	if err != nil {
		return fmt.Errorf("failed to read username: %w", err)
	}

	name, err := c.io.ReadInput("Full name: ")
	if err != nil {
		return fmt.Errorf("failed to read name: %w", err)
	}

	roleInput, err := c.io.ReadInput("Role (technician/gospodar/super_user): ")
	if err != nil {
		return fmt.Errorf("failed to read role: %w", err)
	}

	depot, err := c.io.ReadInput("Depot code (e.g. BG): ")
	if err != nil {
		return fmt.Errorf("failed to read depot: %w", err)
	}

	password, err := c.io.ReadPassword("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	user, err := c.userSvc.Create(ctx, username, password, name, models.Role(roleInput), depot)
	if err != nil {
		return err
	}

	c.io.Println()
	c.io.Printf("User %s created (%s)\n", user.Username, user.ID)
	c.io.Println("The account reaches the server on the next sync.")

	return nil
}

func (c *Cli) runUsersSetActive(ctx context.Context, args []string, active bool) error {
	if len(args) == 0 {
		return fmt.Errorf("missing user ID")
	}

	if err := c.userSvc.SetActive(ctx, args[0], active); err != nil {
		return err
	}

	if active {
		c.io.Printf("User %s activated\n", args[0])
	} else {
		c.io.Printf("User %s deactivated\n", args[0])
	}
	return nil
}

func (c *Cli) runUsersPasswd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing user ID. Usage: fieldsync users passwd <user-id>")
	}

	password, err := c.io.ReadPassword("New password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	confirm, err := c.io.ReadPassword("Confirm password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	if err := c.userSvc.SetPassword(ctx, args[0], password); err != nil {
		return err
	}

	c.io.Println("Password updated.")
	return nil
}
