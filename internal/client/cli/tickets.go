package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/vodomat/fieldsync/internal/models"
)

func (c *Cli) runTicket(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing subcommand. Usage: fieldsync ticket <start|op|part|complete|cancel|reopen|list|show>")
	}

	switch args[0] {
	case "start":
		return c.runTicketStart(ctx, args[1:])
	case "op":
		return c.runTicketOp(ctx, args[1:])
	case "part":
		return c.runTicketPart(ctx, args[1:])
	case "complete":
		return c.runTicketComplete(ctx, args[1:])
	case "cancel":
		return c.runTicketCancel(ctx, args[1:])
	case "reopen":
		return c.runTicketReopen(ctx, args[1:])
	case "list":
		return c.runTicketList(ctx, args[1:])
	case "show":
		return c.runTicketShow(ctx, args[1:])
	default:
		return fmt.Errorf("unknown ticket subcommand: %s", args[0])
	}
}

func (c *Cli) runTicketStart(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing device code. Usage: fieldsync ticket start <device-code>")
	}

	ticket, err := c.ticketSvc.Start(ctx, args[0])
	if err != nil {
		return err
	}

	c.io.Printf("Ticket %s started for device %s\n", ticket.ServiceNumber, ticket.DeviceCode)
	c.io.Printf("ID: %s\n", ticket.ID)
	return nil
}

func (c *Cli) runTicketOp(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: fieldsync ticket op <id> <name> [description]")
	}

	description := ""
	if len(args) > 2 {
		description = strings.Join(args[2:], " ")
	}

	ticket, err := c.ticketSvc.AddOperation(ctx, args[0], args[1], description)
	if err != nil {
		return err
	}

	c.io.Printf("Operation logged on %s (%d total)\n", ticket.ServiceNumber, len(ticket.Operations))
	return nil
}

func (c *Cli) runTicketPart(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: fieldsync ticket part <id> <name> <quantity>")
	}

	quantity, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("invalid quantity %q", args[2])
	}

	ticket, err := c.ticketSvc.AddSparePart(ctx, args[0], args[1], quantity)
	if err != nil {
		return err
	}

	c.io.Printf("Spare part logged on %s (%d total)\n", ticket.ServiceNumber, len(ticket.SpareParts))
	return nil
}

func (c *Cli) runTicketComplete(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing ticket ID. Usage: fieldsync ticket complete <id>")
	}

	ticket, err := c.ticketSvc.Complete(ctx, args[0])
	if err != nil {
		return err
	}

	c.io.Printf("Ticket %s completed (%d min)\n", ticket.ServiceNumber, ticket.DurationMinutes)
	return nil
}

func (c *Cli) runTicketCancel(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: fieldsync ticket cancel <id> <reason>")
	}

	ticket, err := c.ticketSvc.Cancel(ctx, args[0], strings.Join(args[1:], " "))
	if err != nil {
		return err
	}

	c.io.Printf("Ticket %s cancelled\n", ticket.ServiceNumber)
	return nil
}

func (c *Cli) runTicketReopen(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing ticket ID. Usage: fieldsync ticket reopen <id>")
	}

	ticket, err := c.ticketSvc.Reopen(ctx, args[0])
	if err != nil {
		return err
	}

	c.io.Printf("Ticket %s reopened, status is now %s\n", ticket.ServiceNumber, ticket.Status)
	return nil
}

func (c *Cli) runTicketList(ctx context.Context, args []string) error {
	var (
		list []*models.ServiceTicket
		err  error
	)

	if len(args) > 0 {
		status := models.TicketStatus(args[0])
		if !status.Valid() {
			return fmt.Errorf("unknown status %q. Use: in_progress, completed, or cancelled", args[0])
		}
		list, err = c.ticketSvc.ListByStatus(ctx, status)
	} else {
		list, err = c.ticketSvc.List(ctx)
	}
	if err != nil {
		return err
	}

	if len(list) == 0 {
		c.io.Println("No tickets found.")
		return nil
	}

	c.io.Printf("Found %d ticket(s):\n", len(list))
	c.io.Println()
	for _, ticket := range list {
		c.io.Printf("%-10s %-12s %-12s %s\n",
			ticket.ServiceNumber, ticket.Status, ticket.DeviceCode,
			ticket.StartTime.Local().Format("2006-01-02 15:04"))
	}

	return nil
}

func (c *Cli) runTicketShow(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing ticket ID. Usage: fieldsync ticket show <id>")
	}

	ticket, err := c.ticketSvc.Get(ctx, args[0])
	if err != nil {
		return err
	}

	c.printTicket(ticket)
	return nil
}
