package cli

import (
	"context"
)

func (c *Cli) runSync(ctx context.Context) error {
	c.io.Println("=== Synchronization ===")
	c.io.Println()
	c.io.Println("Syncing with server...")

	result, err := c.syncSvc.Sync(ctx)
	if err != nil {
		return err
	}

	c.io.Println()
	c.io.Println("Sync complete!")
	c.io.Printf("  Pushed tickets: %d\n", result.PushedTickets)
	if result.PushedUsers > 0 {
		c.io.Printf("  Pushed users:   %d\n", result.PushedUsers)
	}
	c.io.Printf("  Pulled tickets: %d\n", result.PulledTickets)
	c.io.Printf("  Pulled users:   %d\n", result.PulledUsers)
	if result.KeptLocal > 0 {
		c.io.Printf("  Kept local:     %d (newer than server copy)\n", result.KeptLocal)
	}

	return nil
}
