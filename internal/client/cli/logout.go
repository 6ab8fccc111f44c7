package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/vodomat/fieldsync/internal/client/storage"
)

func (c *Cli) runLogout(ctx context.Context) error {
	if err := c.sessions.DeleteSession(ctx); err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			c.io.Println("Not logged in.")
			return nil
		}
		return fmt.Errorf("failed to delete session: %w", err)
	}

	c.io.Println("Logged out. Local tickets stay on the device until the next sync.")
	return nil
}
