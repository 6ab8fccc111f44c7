package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/vodomat/fieldsync/internal/client/storage"
	clientsync "github.com/vodomat/fieldsync/internal/client/sync"
	"github.com/vodomat/fieldsync/internal/models"
	"github.com/vodomat/fieldsync/pkg/api"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// ioMock scripts terminal input and captures output
type ioMock struct {
	inputs  []string
	outputs []string
}

func (m *ioMock) Println(a ...any) {
	m.outputs = append(m.outputs, fmt.Sprintln(a...))
}

func (m *ioMock) Printf(format string, a ...any) {
	m.outputs = append(m.outputs, fmt.Sprintf(format, a...))
}

func (m *ioMock) ReadInput(prompt string) (string, error) {
	return m.pop()
}

func (m *ioMock) ReadPassword(prompt string) (string, error) {
	return m.pop()
}

func (m *ioMock) pop() (string, error) {
	if len(m.inputs) == 0 {
		return "", errors.New("no scripted input left")
	}
	next := m.inputs[0]
	m.inputs = m.inputs[1:]
	return next, nil
}

func (m *ioMock) output() string {
	return strings.Join(m.outputs, "")
}

type memSession struct {
	session *storage.Session
}

func (m *memSession) SaveSession(ctx context.Context, s *storage.Session) error {
	m.session = s
	return nil
}

func (m *memSession) GetSession(ctx context.Context) (*storage.Session, error) {
	if m.session == nil {
		return nil, storage.ErrSessionNotFound
	}
	return m.session, nil
}

func (m *memSession) DeleteSession(ctx context.Context) error {
	m.session = nil
	return nil
}

type memSettings struct {
	settings *storage.Settings
}

func (m *memSettings) SaveSettings(ctx context.Context, s *storage.Settings) error {
	m.settings = s
	return nil
}

func (m *memSettings) GetSettings(ctx context.Context) (*storage.Settings, error) {
	if m.settings == nil {
		return nil, storage.ErrSettingsNotFound
	}
	return m.settings, nil
}

type memTickets struct {
	byID map[string]*models.ServiceTicket
	seq  map[string]uint64
}

func newMemTickets() *memTickets {
	return &memTickets{
		byID: make(map[string]*models.ServiceTicket),
		seq:  make(map[string]uint64),
	}
}

func (m *memTickets) SaveTicket(ctx context.Context, t *models.ServiceTicket) error {
	m.byID[t.ID] = t.Clone()
	return nil
}

func (m *memTickets) GetTicket(ctx context.Context, id string) (*models.ServiceTicket, error) {
	if t, ok := m.byID[id]; ok {
		return t.Clone(), nil
	}
	return nil, storage.ErrTicketNotFound
}

func (m *memTickets) ListTickets(ctx context.Context) ([]*models.ServiceTicket, error) {
	out := make([]*models.ServiceTicket, 0, len(m.byID))
	for _, t := range m.byID {
		out = append(out, t.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memTickets) ListTicketsByStatus(ctx context.Context, status models.TicketStatus) ([]*models.ServiceTicket, error) {
	all, _ := m.ListTickets(ctx)
	out := make([]*models.ServiceTicket, 0)
	for _, t := range all {
		if t.Status == status {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memTickets) PurgeTerminalBefore(ctx context.Context, cutoff time.Time) (int, error) {
	return 0, nil
}

func (m *memTickets) NextServiceSequence(ctx context.Context, depot string) (uint64, error) {
	m.seq[depot]++
	return m.seq[depot], nil
}

type stubSync struct {
	result  *clientsync.SyncResult
	syncErr error
}

func (s *stubSync) Sync(ctx context.Context) (*clientsync.SyncResult, error) {
	if s.syncErr != nil {
		return nil, s.syncErr
	}
	if s.result != nil {
		return s.result, nil
	}
	return &clientsync.SyncResult{}, nil
}

func (s *stubSync) Pull(ctx context.Context) (*clientsync.SyncResult, error) {
	return &clientsync.SyncResult{}, nil
}

// apiMock implements the client API with scripted responses
type apiMock struct {
	loginFunc   func(ctx context.Context, req api.LoginRequest) (*api.LoginResponse, error)
	verifyFunc  func(ctx context.Context, token string, req api.VerifyTwoFactorRequest) (*api.VerifyTwoFactorResponse, error)
	setupFunc   func(ctx context.Context, token string) (*api.SetupTwoFactorResponse, error)
	enableFunc  func(ctx context.Context, token string, req api.EnableTwoFactorRequest) (*api.EnableTwoFactorResponse, error)
	disableFunc func(ctx context.Context, token string, req api.DisableTwoFactorRequest) (*api.DisableTwoFactorResponse, error)
}

func (a *apiMock) Health(ctx context.Context) error { return nil }

func (a *apiMock) Login(ctx context.Context, req api.LoginRequest) (*api.LoginResponse, error) {
	if a.loginFunc == nil {
		return nil, errors.New("login not scripted")
	}
	return a.loginFunc(ctx, req)
}

func (a *apiMock) SetupTwoFactor(ctx context.Context, token string) (*api.SetupTwoFactorResponse, error) {
	if a.setupFunc == nil {
		return nil, errors.New("setup not scripted")
	}
	return a.setupFunc(ctx, token)
}

func (a *apiMock) EnableTwoFactor(ctx context.Context, token string, req api.EnableTwoFactorRequest) (*api.EnableTwoFactorResponse, error) {
	if a.enableFunc == nil {
		return nil, errors.New("enable not scripted")
	}
	return a.enableFunc(ctx, token, req)
}

func (a *apiMock) VerifyTwoFactor(ctx context.Context, token string, req api.VerifyTwoFactorRequest) (*api.VerifyTwoFactorResponse, error) {
	if a.verifyFunc == nil {
		return nil, errors.New("verify not scripted")
	}
	return a.verifyFunc(ctx, token, req)
}

func (a *apiMock) DisableTwoFactor(ctx context.Context, token string, req api.DisableTwoFactorRequest) (*api.DisableTwoFactorResponse, error) {
	if a.disableFunc == nil {
		return nil, errors.New("disable not scripted")
	}
	return a.disableFunc(ctx, token, req)
}

func (a *apiMock) PushUsers(ctx context.Context, token string, req api.SyncUsersRequest) (*api.SyncUsersResponse, error) {
	return nil, errors.New("not scripted")
}

func (a *apiMock) GetUsers(ctx context.Context, token string) (*api.GetUsersResponse, error) {
	return nil, errors.New("not scripted")
}

func (a *apiMock) PushTickets(ctx context.Context, token string, req api.SyncTicketsRequest) (*api.SyncTicketsResponse, error) {
	return nil, errors.New("not scripted")
}

func (a *apiMock) GetTickets(ctx context.Context, token string) (*api.GetTicketsResponse, error) {
	return nil, errors.New("not scripted")
}

func (a *apiMock) CloseWorkday(ctx context.Context, token string, req api.CloseWorkdayRequest) (*api.CloseWorkdayResponse, error) {
	return &api.CloseWorkdayResponse{Success: true}, nil
}

func (a *apiMock) OpenWorkday(ctx context.Context, token string, req api.OpenWorkdayRequest) (*api.OpenWorkdayResponse, error) {
	return &api.OpenWorkdayResponse{Success: true}, nil
}

func (a *apiMock) GetWorkdayAudit(ctx context.Context, token string) (*api.WorkdayAuditResponse, error) {
	return &api.WorkdayAuditResponse{Success: true}, nil
}
