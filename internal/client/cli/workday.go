package cli

import (
	"context"
	"fmt"
)

func (c *Cli) runWorkday(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing subcommand. Usage: fieldsync workday <close|open|audit>")
	}

	switch args[0] {
	case "close":
		return c.runWorkdayClose(ctx)
	case "open":
		return c.runWorkdayOpen(ctx, args[1:])
	case "audit":
		return c.runWorkdayAudit(ctx)
	default:
		return fmt.Errorf("unknown workday subcommand: %s", args[0])
	}
}

func (c *Cli) runWorkdayClose(ctx context.Context) error {
	c.io.Println("=== Close Workday ===")
	c.io.Println()
	c.io.Println("Syncing tickets before closing...")

	result, err := c.gate.Close(ctx)
	if err != nil {
		return err
	}

	c.io.Println()
	c.io.Printf("Workday closed at %s\n", result.ClosedAt.Local().Format("2006-01-02 15:04"))
	c.io.Printf("  Synced tickets: %d\n", result.SyncResult.PushedTickets)
	if result.PurgedTickets > 0 {
		c.io.Printf("  Purged tickets: %d (older than 3 days, already on the server)\n", result.PurgedTickets)
	}
	c.io.Println()
	c.io.Println("New tickets are blocked until an administrator reopens the workday.")

	return nil
}

func (c *Cli) runWorkdayOpen(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing user ID. Usage: fieldsync workday open <user-id>")
	}

	reason, err := c.io.ReadInput("Reason (at least 10 characters): ")
	if err != nil {
		return fmt.Errorf("failed to read reason: %w", err)
	}

	if err := c.gate.Open(ctx, args[0], reason); err != nil {
		return err
	}

	c.io.Printf("Workday reopened for user %s\n", args[0])
	return nil
}

func (c *Cli) runWorkdayAudit(ctx context.Context) error {
	entries, err := c.gate.Audit(ctx)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		c.io.Println("No workday reopens recorded.")
		return nil
	}

	c.io.Printf("Found %d audit entr%s:\n", len(entries), plural(len(entries), "y", "ies"))
	c.io.Println()
	for _, entry := range entries {
		c.io.Printf("%s  user=%s  by %s\n",
			entry.CreatedAt.Local().Format("2006-01-02 15:04"), entry.UserID, entry.AdminName)
		c.io.Printf("  Reason: %s\n", entry.Reason)
	}

	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
