package sync

import (
	"context"
	"fmt"
	"log/slog"

	httpClient "github.com/vodomat/fieldsync/internal/client/api"
	"github.com/vodomat/fieldsync/internal/client/storage"
	"github.com/vodomat/fieldsync/internal/models"
	"github.com/vodomat/fieldsync/pkg/api"
)

// Service defines the sync orchestrator interface
type Service interface {
	// Sync performs a full bidirectional synchronization with the server
	Sync(ctx context.Context) (*SyncResult, error)

	// Pull refreshes the local view from the server without pushing.
	// Used by the background poller.
	Pull(ctx context.Context) (*SyncResult, error)
}

// service handles synchronization between client and server
type service struct {
	apiClient httpClient.ClientAPI
	tickets   storage.TicketStorage
	users     storage.UserStorage
	sessions  storage.SessionStorage
	logger    *slog.Logger
}

// NewService creates a new sync service
func NewService(apiClient httpClient.ClientAPI, tickets storage.TicketStorage, users storage.UserStorage, sessions storage.SessionStorage, logger *slog.Logger) Service {
	return &service{
		apiClient: apiClient,
		tickets:   tickets,
		users:     users,
		sessions:  sessions,
		logger:    logger,
	}
}

// SyncResult contains sync operation results
type SyncResult struct {
	PushedUsers   int // user records uploaded (admin sessions only)
	PushedTickets int // tickets uploaded
	PulledUsers   int // user records refreshed from the server
	PulledTickets int // tickets refreshed from the server
	KeptLocal     int // pulled tickets discarded because the local copy was newer
}

// Sync performs full synchronization.
// 1. Probes server reachability
// 2. Pushes the user directory (admin sessions only)
// 3. Pushes all local tickets
// 4. Pulls the merged state back
// The first failing step aborts the whole run.
func (s *service) Sync(ctx context.Context) (*SyncResult, error) {
	session, err := s.sessions.GetSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if err := s.apiClient.Health(ctx); err != nil {
		return nil, fmt.Errorf("server unreachable: %w", err)
	}

	s.logger.Info("starting synchronization", "user_id", session.UserID)

	result := &SyncResult{}

	if session.IsAdmin() {
		pushed, err := s.pushUsers(ctx, session)
		if err != nil {
			return nil, fmt.Errorf("user push failed: %w", err)
		}
		result.PushedUsers = pushed
	}

	pushed, err := s.pushTickets(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("ticket push failed: %w", err)
	}
	result.PushedTickets = pushed

	if err := s.pull(ctx, session, result); err != nil {
		return nil, fmt.Errorf("pull failed: %w", err)
	}

	s.logger.Info("synchronization completed",
		"pushed_users", result.PushedUsers,
		"pushed_tickets", result.PushedTickets,
		"pulled_tickets", result.PulledTickets,
		"pulled_users", result.PulledUsers)

	return result, nil
}

// Pull refreshes the local view from the server without pushing
func (s *service) Pull(ctx context.Context) (*SyncResult, error) {
	session, err := s.sessions.GetSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if err := s.apiClient.Health(ctx); err != nil {
		return nil, fmt.Errorf("server unreachable: %w", err)
	}

	result := &SyncResult{}
	if err := s.pull(ctx, session, result); err != nil {
		return nil, fmt.Errorf("pull failed: %w", err)
	}

	return result, nil
}

func (s *service) pushUsers(ctx context.Context, session *storage.Session) (int, error) {
	localUsers, err := s.users.ListUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list local users: %w", err)
	}
	if len(localUsers) == 0 {
		return 0, nil
	}

	patches := make([]api.SyncUser, 0, len(localUsers))
	for _, user := range localUsers {
		patches = append(patches, userPatch(user))
	}

	resp, err := s.apiClient.PushUsers(ctx, session.AccessToken, api.SyncUsersRequest{Users: patches})
	if err != nil {
		return 0, err
	}

	s.logger.Debug("user directory pushed",
		"pushed", resp.SyncedCount, "total", resp.TotalUsers)

	return resp.SyncedCount, nil
}

func (s *service) pushTickets(ctx context.Context, session *storage.Session) (int, error) {
	localTickets, err := s.tickets.ListTickets(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list local tickets: %w", err)
	}

	batch := make([]models.ServiceTicket, 0, len(localTickets))
	for _, ticket := range localTickets {
		batch = append(batch, *ticket)
	}

	resp, err := s.apiClient.PushTickets(ctx, session.AccessToken, api.SyncTicketsRequest{Tickets: batch})
	if err != nil {
		return 0, err
	}

	s.logger.Debug("tickets pushed",
		"pushed", resp.SyncedCount, "total", resp.TotalTickets)

	return resp.SyncedCount, nil
}

// pull downloads the server state and merges it into local storage.
// A pulled ticket replaces the local copy only if it is at least as
// new; local edits made since the push are preserved.
func (s *service) pull(ctx context.Context, session *storage.Session, result *SyncResult) error {
	ticketsResp, err := s.apiClient.GetTickets(ctx, session.AccessToken)
	if err != nil {
		return err
	}

	for i := range ticketsResp.Tickets {
		incoming := &ticketsResp.Tickets[i]

		local, err := s.tickets.GetTicket(ctx, incoming.ID)
		if err == nil && local.Supersedes(incoming) && !incoming.Supersedes(local) {
			result.KeptLocal++
			continue
		}

		if err := s.tickets.SaveTicket(ctx, incoming); err != nil {
			return fmt.Errorf("failed to save pulled ticket %s: %w", incoming.ID, err)
		}
		result.PulledTickets++
	}

	usersResp, err := s.apiClient.GetUsers(ctx, session.AccessToken)
	if err != nil {
		return err
	}

	for i := range usersResp.Users {
		incoming := usersResp.Users[i]

		// The server strips credential and 2FA material from pulls;
		// keep whatever this device already knows.
		if local, err := s.users.GetUserByID(ctx, incoming.ID); err == nil {
			if incoming.Password == "" {
				incoming.Password = local.Password
			}
			if incoming.TwoFactorSecret == "" {
				incoming.TwoFactorSecret = local.TwoFactorSecret
				incoming.BackupCodes = local.BackupCodes
				incoming.BackupCodeSalt = local.BackupCodeSalt
			}
		}

		if err := s.users.SaveUser(ctx, &incoming); err != nil {
			return fmt.Errorf("failed to save pulled user %s: %w", incoming.ID, err)
		}
		result.PulledUsers++

		// The session mirrors the server record's workday state.
		// Without this an administrative reopen made on another device
		// would not reach the workday gate until the next login.
		if incoming.ID == session.UserID && incoming.WorkdayStatus != "" &&
			incoming.WorkdayStatus != session.WorkdayStatus {
			session.WorkdayStatus = incoming.WorkdayStatus
			session.WorkdayClosedAt = incoming.WorkdayClosedAt
			if err := s.sessions.SaveSession(ctx, session); err != nil {
				return fmt.Errorf("failed to update session workday state: %w", err)
			}
		}
	}

	return nil
}

// userPatch builds the full wire patch for a local user record
func userPatch(user *models.User) api.SyncUser {
	patch := api.SyncUser{
		ID:              user.ID,
		Username:        &user.Username,
		Name:            &user.Name,
		Role:            &user.Role,
		Depot:           &user.Depot,
		IsActive:        &user.IsActive,
		CreatedAt:       &user.CreatedAt,
		LastLoginAt:     user.LastLoginAt,
		LastLoginDevice: &user.LastLoginDevice,
		IsOnline:        &user.IsOnline,
		WorkdayStatus:   &user.WorkdayStatus,
		WorkdayClosedAt: user.WorkdayClosedAt,
		WorkdayOpenedAt: user.WorkdayOpenedAt,
	}

	// Never push an empty credential over a resident one.
	if user.Password != "" {
		patch.Password = &user.Password
	}

	return patch
}
