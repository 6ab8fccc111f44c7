package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vodomat/fieldsync/internal/client/storage"
	clientsync "github.com/vodomat/fieldsync/internal/client/sync"
	"github.com/vodomat/fieldsync/internal/crypto"
	"github.com/vodomat/fieldsync/internal/models"
	"github.com/vodomat/fieldsync/internal/validation"
)

// ErrNotAdmin is returned when a non-administrative session attempts
// user management
var ErrNotAdmin = errors.New("administrative role required")

// ErrUsernameTaken is returned when the username already exists locally
var ErrUsernameTaken = errors.New("username already taken")

// Service manages the local user directory. All mutations are
// admin-only and reach the server on the next push.
type Service struct {
	users    storage.UserStorage
	sessions storage.SessionStorage
	settings storage.SettingsStorage
	syncSvc  clientsync.Service
	logger   *slog.Logger
}

// NewService creates a new user management service
func NewService(users storage.UserStorage, sessions storage.SessionStorage, settings storage.SettingsStorage, syncSvc clientsync.Service, logger *slog.Logger) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		settings: settings,
		syncSvc:  syncSvc,
		logger:   logger,
	}
}

// Create adds a new user to the local directory. The password is
// hashed on the device; plaintext never leaves it.
func (s *Service) Create(ctx context.Context, username, password, name string, role models.Role, depot string) (*models.User, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}

	if err := validation.ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, fmt.Errorf("invalid role %q", role)
	}

	if _, err := s.users.GetUserByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:        uuid.New().String(),
		Username:  username,
		Password:  hash,
		Name:      name,
		Role:      role,
		Depot:     depot,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.users.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	s.logger.Info("user created", "username", username, "role", role)

	s.autoPush(ctx)

	return user, nil
}

// SetActive enables or disables a user account
func (s *Service) SetActive(ctx context.Context, userID string, active bool) error {
	if err := s.requireAdmin(ctx); err != nil {
		return err
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	user.IsActive = active
	if err := s.users.SaveUser(ctx, user); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}

	s.logger.Info("user activation changed", "user_id", userID, "active", active)

	s.autoPush(ctx)

	return nil
}

// SetPassword resets a user's password
func (s *Service) SetPassword(ctx context.Context, userID, password string) error {
	if err := s.requireAdmin(ctx); err != nil {
		return err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return err
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.Password = hash
	if err := s.users.SaveUser(ctx, user); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}

	s.autoPush(ctx)

	return nil
}

// List returns the locally known users
func (s *Service) List(ctx context.Context) ([]*models.User, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.users.ListUsers(ctx)
}

func (s *Service) requireAdmin(ctx context.Context) error {
	session, err := s.sessions.GetSession(ctx)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	if !session.IsAdmin() {
		return ErrNotAdmin
	}
	return nil
}

// autoPush syncs the directory in the background when auto-sync is
// enabled. A failed push only gets logged; the change stays local and
// reaches the server on the next explicit sync.
func (s *Service) autoPush(ctx context.Context) {
	settings, err := s.settings.GetSettings(ctx)
	if err != nil || !settings.AutoSyncEnabled {
		return
	}

	go func() {
		syncCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		if _, err := s.syncSvc.Sync(syncCtx); err != nil {
			s.logger.Debug("auto-push skipped", "error", err)
		}
	}()
}
