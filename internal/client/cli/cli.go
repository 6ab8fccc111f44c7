package cli

import (
	"fmt"
	"log/slog"

	httpClient "github.com/vodomat/fieldsync/internal/client/api"
	"github.com/vodomat/fieldsync/internal/client/iocli"
	"github.com/vodomat/fieldsync/internal/client/storage"
	clientsync "github.com/vodomat/fieldsync/internal/client/sync"
	"github.com/vodomat/fieldsync/internal/client/tickets"
	"github.com/vodomat/fieldsync/internal/client/users"
	"github.com/vodomat/fieldsync/internal/client/workday"
)

// Cli wires the command dispatcher to the client services
type Cli struct {
	io        iocli.IO
	apiClient httpClient.ClientAPI
	sessions  storage.SessionStorage
	ticketSvc *tickets.Service
	userSvc   *users.Service
	syncSvc   clientsync.Service
	gate      *workday.Gate
	logger    *slog.Logger
}

func New(
	io iocli.IO,
	apiClient httpClient.ClientAPI,
	sessions storage.SessionStorage,
	ticketSvc *tickets.Service,
	userSvc *users.Service,
	syncSvc clientsync.Service,
	gate *workday.Gate,
	logger *slog.Logger,
) *Cli {
	return &Cli{
		io:        io,
		apiClient: apiClient,
		sessions:  sessions,
		ticketSvc: ticketSvc,
		userSvc:   userSvc,
		syncSvc:   syncSvc,
		gate:      gate,
		logger:    logger,
	}
}

func PrintUsage() {
	fmt.Println("FieldSync Client")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  fieldsync [OPTIONS] COMMAND")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version        Show version information")
	fmt.Println("  --server URL     Server URL (default: http://localhost:8080)")
	fmt.Println("  --db PATH        Path to local database (default: fieldsync-client.db)")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  login                          Login to server")
	fmt.Println("  logout                         End the local session")
	fmt.Println("  status                         Show session and workday status")
	fmt.Println("  sync                           Synchronize local data with server")
	fmt.Println("  watch                          Keep pulling server changes until stopped")
	fmt.Println()
	fmt.Println("  ticket start <device-code>     Open a service ticket for a dispenser")
	fmt.Println("  ticket op <id> <name> [desc]   Log a performed operation")
	fmt.Println("  ticket part <id> <name> <qty>  Log a used spare part")
	fmt.Println("  ticket complete <id>           Complete a ticket")
	fmt.Println("  ticket cancel <id> <reason>    Cancel a ticket")
	fmt.Println("  ticket reopen <id>             Reopen a completed ticket (admin)")
	fmt.Println("  ticket list [status]           List local tickets")
	fmt.Println("  ticket show <id>               Show full ticket details")
	fmt.Println()
	fmt.Println("  workday close                  Close the workday (syncs first)")
	fmt.Println("  workday open <user-id>         Reopen a workday (admin, reason required)")
	fmt.Println("  workday audit                  Show workday reopen history (admin)")
	fmt.Println()
	fmt.Println("  users list                     List users (admin)")
	fmt.Println("  users add                      Create a user (admin)")
	fmt.Println("  users activate <id>            Activate a user account (admin)")
	fmt.Println("  users deactivate <id>          Deactivate a user account (admin)")
	fmt.Println("  users passwd <id>              Reset a user's password (admin)")
	fmt.Println()
	fmt.Println("  2fa setup                      Generate a TOTP secret and backup codes")
	fmt.Println("  2fa enable                     Confirm and turn on two-factor auth")
	fmt.Println("  2fa disable                    Turn off two-factor auth")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  fieldsync login")
	fmt.Println("  fieldsync ticket start WD-4711")
	fmt.Println("  fieldsync ticket op 1714980000000-a3f1 \"filter change\"")
	fmt.Println("  fieldsync workday close")
	fmt.Println("  fieldsync --server https://example.com sync")
}
