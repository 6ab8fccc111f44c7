package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/vodomat/fieldsync/internal/models"
)

func (c *Cli) runStatus(ctx context.Context) error {
	c.io.Println("=== Status ===")
	c.io.Println()

	session, err := c.currentSession(ctx)
	if err != nil {
		return err
	}

	c.io.Printf("Logged in as: %s (%s)\n", session.Username, session.Role)
	if session.Depot != "" {
		c.io.Printf("Depot: %s\n", session.Depot)
	}

	expiresAt := time.Unix(session.ExpiresAt, 0)
	remaining := time.Until(expiresAt)
	if remaining > 0 {
		c.io.Printf("Token expires: %s (%s remaining)\n",
			expiresAt.Format(time.RFC3339), remaining.Round(time.Second))
	} else {
		c.io.Println("Token has expired. Please login again.")
	}

	switch session.WorkdayStatus {
	case models.WorkdayClosed:
		c.io.Println("Workday: closed")
		if session.WorkdayClosedAt != nil {
			c.io.Printf("Closed at: %s\n", session.WorkdayClosedAt.Local().Format("2006-01-02 15:04"))
		}
	default:
		c.io.Println("Workday: open")
	}

	tickets, err := c.ticketSvc.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tickets: %w", err)
	}

	inProgress := 0
	unsynced := 0
	for _, ticket := range tickets {
		if ticket.Status == models.TicketInProgress {
			inProgress++
		}
		if ticket.SyncedAt == nil {
			unsynced++
		}
	}

	c.io.Println()
	c.io.Printf("Local tickets: %d (%d in progress)\n", len(tickets), inProgress)
	if unsynced > 0 {
		c.io.Printf("Pending sync: %d ticket(s). Run 'fieldsync sync' to upload.\n", unsynced)
	} else {
		c.io.Println("All tickets synchronized with server.")
	}

	return nil
}
