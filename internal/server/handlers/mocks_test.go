package handlers

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/vodomat/fieldsync/internal/models"
	"github.com/vodomat/fieldsync/internal/server/storage"
)

// setupTestLogger creates a logger for testing
func setupTestLogger() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelError, // Only show errors in tests
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// memUserStorage is an in-memory UserStorage preserving insertion order
type memUserStorage struct {
	users []*models.User
	// failReplace forces persistence errors for failure-path tests
	failReplace bool
}

func (m *memUserStorage) find(id string) *models.User {
	for _, u := range m.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (m *memUserStorage) CreateUser(ctx context.Context, user *models.User) error {
	for _, u := range m.users {
		if u.Username == user.Username {
			return storage.ErrUserAlreadyExists
		}
	}
	m.users = append(m.users, user.Clone())
	return nil
}

func (m *memUserStorage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u.Clone(), nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (m *memUserStorage) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	if u := m.find(userID); u != nil {
		return u.Clone(), nil
	}
	return nil, storage.ErrUserNotFound
}

func (m *memUserStorage) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	out := make([]*models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u.Clone())
	}
	return out, nil
}

func (m *memUserStorage) UpsertUser(ctx context.Context, user *models.User) error {
	for i, u := range m.users {
		if u.ID == user.ID {
			m.users[i] = user.Clone()
			return nil
		}
	}
	m.users = append(m.users, user.Clone())
	return nil
}

func (m *memUserStorage) ReplaceUsers(ctx context.Context, users []*models.User) error {
	if m.failReplace {
		return errors.New("disk full")
	}
	replaced := make([]*models.User, 0, len(users))
	for _, u := range users {
		replaced = append(replaced, u.Clone())
	}
	m.users = replaced
	return nil
}

func (m *memUserStorage) CountUsers(ctx context.Context) (int, error) {
	return len(m.users), nil
}

func (m *memUserStorage) SetTwoFactor(ctx context.Context, userID string, material storage.TwoFactorMaterial) error {
	u := m.find(userID)
	if u == nil {
		return storage.ErrUserNotFound
	}
	u.TwoFactorEnabled = material.Enabled
	u.TwoFactorSecret = material.Secret
	u.BackupCodes = material.BackupCodes
	u.BackupCodeSalt = material.BackupCodeSalt
	return nil
}

func (m *memUserStorage) UpdateLastLogin(ctx context.Context, userID string, lastLogin time.Time, device string) error {
	u := m.find(userID)
	if u == nil {
		return storage.ErrUserNotFound
	}
	t := lastLogin
	u.LastLoginAt = &t
	u.LastLoginDevice = device
	u.IsOnline = true
	return nil
}

func (m *memUserStorage) SetWorkdayStatus(ctx context.Context, userID string, status models.WorkdayStatus, at time.Time) error {
	u := m.find(userID)
	if u == nil {
		return storage.ErrUserNotFound
	}
	t := at
	u.WorkdayStatus = status
	switch status {
	case models.WorkdayClosed:
		u.WorkdayClosedAt = &t
	case models.WorkdayOpen:
		u.WorkdayOpenedAt = &t
	}
	return nil
}

// memTicketStorage is an in-memory TicketStorage preserving insertion order
type memTicketStorage struct {
	tickets     []*models.ServiceTicket
	failReplace bool
}

func (m *memTicketStorage) GetAllTickets(ctx context.Context) ([]*models.ServiceTicket, error) {
	out := make([]*models.ServiceTicket, 0, len(m.tickets))
	for _, t := range m.tickets {
		out = append(out, t.Clone())
	}
	return out, nil
}

func (m *memTicketStorage) GetTicketByID(ctx context.Context, id string) (*models.ServiceTicket, error) {
	for _, t := range m.tickets {
		if t.ID == id {
			return t.Clone(), nil
		}
	}
	return nil, storage.ErrTicketNotFound
}

func (m *memTicketStorage) ReplaceTickets(ctx context.Context, tickets []*models.ServiceTicket) error {
	if m.failReplace {
		return errors.New("disk full")
	}
	replaced := make([]*models.ServiceTicket, 0, len(tickets))
	for _, t := range tickets {
		replaced = append(replaced, t.Clone())
	}
	m.tickets = replaced
	return nil
}

func (m *memTicketStorage) CountTickets(ctx context.Context) (int, error) {
	return len(m.tickets), nil
}

func (m *memTicketStorage) CountInProgressByTechnician(ctx context.Context, technicianID string) (int, error) {
	count := 0
	for _, t := range m.tickets {
		if t.TechnicianID == technicianID && t.Status == models.TicketInProgress {
			count++
		}
	}
	return count, nil
}

// memAuditStorage is an in-memory AuditStorage
type memAuditStorage struct {
	entries []*models.WorkdayAuditEntry
}

func (m *memAuditStorage) AppendWorkdayAudit(ctx context.Context, entry *models.WorkdayAuditEntry) error {
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memAuditStorage) GetWorkdayAudit(ctx context.Context) ([]*models.WorkdayAuditEntry, error) {
	out := make([]*models.WorkdayAuditEntry, len(m.entries))
	for i, j := 0, len(m.entries)-1; j >= 0; i, j = i+1, j-1 {
		out[i] = m.entries[j]
	}
	return out, nil
}

// testJWTConfig returns a JWT config for handler tests
func testJWTConfig() JWTConfig {
	return JWTConfig{
		Secret:          []byte("test-secret-key-for-handler-tests"),
		AccessTokenTTL:  time.Hour,
		PendingTokenTTL: 5 * time.Minute,
	}
}
