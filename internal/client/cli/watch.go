package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	clientsync "github.com/vodomat/fieldsync/internal/client/sync"
)

// runWatch keeps pulling server changes in the background until
// interrupted. Meant for a terminal left open at the depot desk.
func (c *Cli) runWatch(ctx context.Context) error {
	if _, err := c.currentSession(ctx); err != nil {
		return err
	}

	poller := clientsync.NewPoller(c.syncSvc, clientsync.DefaultPollInterval, c.logger)
	poller.Start(ctx)
	defer poller.Stop()

	c.io.Printf("Watching for server changes every %s. Press Ctrl-C to stop.\n", clientsync.DefaultPollInterval)

	sigC := make(chan os.Signal, 1)
	signal.Notify(sigC, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigC)

	select {
	case <-sigC:
	case <-ctx.Done():
	}

	c.io.Println()
	c.io.Println("Stopped.")
	return nil
}
