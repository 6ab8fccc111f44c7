package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/vodomat/fieldsync/internal/client/storage"
	"github.com/vodomat/fieldsync/internal/models"
)

// currentSession returns the saved session or a login hint when there
// is none
func (c *Cli) currentSession(ctx context.Context) (*storage.Session, error) {
	session, err := c.sessions.GetSession(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return nil, fmt.Errorf("not logged in. Please run 'fieldsync login' first")
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

func (c *Cli) printTicket(ticket *models.ServiceTicket) {
	c.io.Printf("Ticket %s (%s)\n", ticket.ServiceNumber, ticket.ID)
	c.io.Printf("  Device:     %s\n", ticket.DeviceCode)
	c.io.Printf("  Technician: %s\n", ticket.TechnicianName)
	c.io.Printf("  Status:     %s\n", ticket.Status)
	c.io.Printf("  Started:    %s\n", ticket.StartTime.Local().Format("2006-01-02 15:04"))
	if ticket.EndTime != nil {
		c.io.Printf("  Finished:   %s (%d min)\n",
			ticket.EndTime.Local().Format("2006-01-02 15:04"), ticket.DurationMinutes)
	}
	if ticket.CancellationReason != "" {
		c.io.Printf("  Cancelled:  %s\n", ticket.CancellationReason)
	}
	if len(ticket.Operations) > 0 {
		c.io.Println("  Operations:")
		for i, op := range ticket.Operations {
			if op.Description != "" {
				c.io.Printf("    %d. %s (%s)\n", i+1, op.Name, op.Description)
			} else {
				c.io.Printf("    %d. %s\n", i+1, op.Name)
			}
		}
	}
	if len(ticket.SpareParts) > 0 {
		c.io.Println("  Spare parts:")
		for i, part := range ticket.SpareParts {
			c.io.Printf("    %d. %s x%d\n", i+1, part.Name, part.Quantity)
		}
	}
	if ticket.SyncedAt != nil {
		c.io.Printf("  Synced:     %s\n", ticket.SyncedAt.Local().Format("2006-01-02 15:04"))
	} else {
		c.io.Println("  Synced:     not yet")
	}
}
