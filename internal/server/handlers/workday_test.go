package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vodomat/fieldsync/internal/models"
	"github.com/vodomat/fieldsync/pkg/api"
)

func workdayRequest(t *testing.T, path string, userID string, body any) *http.Request {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	ctx := context.WithValue(req.Context(), UserIDKey, userID)
	return req.WithContext(ctx)
}

func TestWorkdayHandler_Close_Success(t *testing.T) {
	users := &memUserStorage{users: []*models.User{{
		ID:            "u1",
		Username:      "petar",
		Role:          models.RoleTechnician,
		WorkdayStatus: models.WorkdayOpen,
	}}}
	done := &models.ServiceTicket{ID: "t1", TechnicianID: "u1", Status: models.TicketCompleted}
	tickets := &memTicketStorage{tickets: []*models.ServiceTicket{done}}
	handler := NewWorkdayHandler(setupTestLogger(), users, tickets, &memAuditStorage{})

	closedAt := time.Date(2025, 3, 10, 17, 30, 0, 0, time.UTC)
	w := httptest.NewRecorder()
	handler.Close(w, workdayRequest(t, "/api/v1/workday/close", "u1", api.CloseWorkdayRequest{ClosedAt: closedAt}))
	require.Equal(t, http.StatusOK, w.Code)

	stored, err := users.GetUserByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, models.WorkdayClosed, stored.WorkdayStatus)
	require.NotNil(t, stored.WorkdayClosedAt)
	assert.True(t, stored.WorkdayClosedAt.Equal(closedAt))
}

func TestWorkdayHandler_Close_BlockedByInProgressTickets(t *testing.T) {
	users := &memUserStorage{users: []*models.User{{
		ID:            "u1",
		Username:      "petar",
		Role:          models.RoleTechnician,
		WorkdayStatus: models.WorkdayOpen,
	}}}
	open := &models.ServiceTicket{ID: "t1", TechnicianID: "u1", Status: models.TicketInProgress}
	tickets := &memTicketStorage{tickets: []*models.ServiceTicket{open}}
	handler := NewWorkdayHandler(setupTestLogger(), users, tickets, &memAuditStorage{})

	w := httptest.NewRecorder()
	handler.Close(w, workdayRequest(t, "/api/v1/workday/close", "u1", api.CloseWorkdayRequest{}))
	assert.Equal(t, http.StatusConflict, w.Code)

	// Workday state is untouched on rejection.
	stored, err := users.GetUserByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, models.WorkdayOpen, stored.WorkdayStatus)
	assert.Nil(t, stored.WorkdayClosedAt)
}

func TestWorkdayHandler_Close_OtherTechnicianTicketsIgnored(t *testing.T) {
	users := &memUserStorage{users: []*models.User{
		{ID: "u1", Username: "petar", Role: models.RoleTechnician},
	}}
	foreign := &models.ServiceTicket{ID: "t1", TechnicianID: "u2", Status: models.TicketInProgress}
	tickets := &memTicketStorage{tickets: []*models.ServiceTicket{foreign}}
	handler := NewWorkdayHandler(setupTestLogger(), users, tickets, &memAuditStorage{})

	w := httptest.NewRecorder()
	handler.Close(w, workdayRequest(t, "/api/v1/workday/close", "u1", api.CloseWorkdayRequest{}))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWorkdayHandler_Close_Unauthenticated(t *testing.T) {
	handler := NewWorkdayHandler(setupTestLogger(), &memUserStorage{}, &memTicketStorage{}, &memAuditStorage{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/workday/close", bytes.NewReader([]byte(`{}`)))
	w := httptest.NewRecorder()
	handler.Close(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWorkdayHandler_Open_Success(t *testing.T) {
	users := &memUserStorage{users: []*models.User{
		{ID: "admin1", Username: "boss", Name: "Gazda", Role: models.RoleGospodar},
		{ID: "u1", Username: "petar", Role: models.RoleTechnician, WorkdayStatus: models.WorkdayClosed},
	}}
	audit := &memAuditStorage{}
	handler := NewWorkdayHandler(setupTestLogger(), users, &memTicketStorage{}, audit)

	w := httptest.NewRecorder()
	handler.Open(w, workdayRequest(t, "/api/v1/workday/open", "admin1", api.OpenWorkdayRequest{
		UserID: "u1",
		Reason: "forgot to log completed visit",
	}))
	require.Equal(t, http.StatusOK, w.Code)

	stored, err := users.GetUserByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, models.WorkdayOpen, stored.WorkdayStatus)
	assert.NotNil(t, stored.WorkdayOpenedAt)

	require.Len(t, audit.entries, 1)
	entry := audit.entries[0]
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "u1", entry.UserID)
	assert.Equal(t, "admin1", entry.AdminID)
	assert.Equal(t, "Gazda", entry.AdminName)
	assert.Equal(t, "forgot to log completed visit", entry.Reason)
}

func TestWorkdayHandler_Open_ReasonLength(t *testing.T) {
	users := &memUserStorage{users: []*models.User{
		{ID: "admin1", Username: "boss", Role: models.RoleSuperUser},
		{ID: "u1", Username: "petar", Role: models.RoleTechnician},
	}}
	handler := NewWorkdayHandler(setupTestLogger(), users, &memTicketStorage{}, &memAuditStorage{})

	// Nine characters is one short of the minimum.
	w := httptest.NewRecorder()
	handler.Open(w, workdayRequest(t, "/api/v1/workday/open", "admin1", api.OpenWorkdayRequest{
		UserID: "u1",
		Reason: "123456789",
	}))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	handler.Open(w, workdayRequest(t, "/api/v1/workday/open", "admin1", api.OpenWorkdayRequest{
		UserID: "u1",
		Reason: "1234567890",
	}))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWorkdayHandler_Open_NonAdminForbidden(t *testing.T) {
	users := &memUserStorage{users: []*models.User{
		{ID: "u1", Username: "petar", Role: models.RoleTechnician},
		{ID: "u2", Username: "marko", Role: models.RoleTechnician, WorkdayStatus: models.WorkdayClosed},
	}}
	audit := &memAuditStorage{}
	handler := NewWorkdayHandler(setupTestLogger(), users, &memTicketStorage{}, audit)

	w := httptest.NewRecorder()
	handler.Open(w, workdayRequest(t, "/api/v1/workday/open", "u1", api.OpenWorkdayRequest{
		UserID: "u2",
		Reason: "please let me reopen this",
	}))
	assert.Equal(t, http.StatusForbidden, w.Code)

	stored, err := users.GetUserByID(context.Background(), "u2")
	require.NoError(t, err)
	assert.Equal(t, models.WorkdayClosed, stored.WorkdayStatus)
	assert.Empty(t, audit.entries)
}

func TestWorkdayHandler_Open_TargetNotFound(t *testing.T) {
	users := &memUserStorage{users: []*models.User{
		{ID: "admin1", Username: "boss", Role: models.RoleGospodar},
	}}
	handler := NewWorkdayHandler(setupTestLogger(), users, &memTicketStorage{}, &memAuditStorage{})

	w := httptest.NewRecorder()
	handler.Open(w, workdayRequest(t, "/api/v1/workday/open", "admin1", api.OpenWorkdayRequest{
		UserID: "ghost",
		Reason: "reopening a missing user",
	}))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWorkdayHandler_Open_MissingUserID(t *testing.T) {
	users := &memUserStorage{users: []*models.User{
		{ID: "admin1", Username: "boss", Role: models.RoleGospodar},
	}}
	handler := NewWorkdayHandler(setupTestLogger(), users, &memTicketStorage{}, &memAuditStorage{})

	w := httptest.NewRecorder()
	handler.Open(w, workdayRequest(t, "/api/v1/workday/open", "admin1", api.OpenWorkdayRequest{
		Reason: "no target user given",
	}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWorkdayHandler_Audit_NewestFirst(t *testing.T) {
	audit := &memAuditStorage{}
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"a1", "a2"} {
		require.NoError(t, audit.AppendWorkdayAudit(context.Background(), &models.WorkdayAuditEntry{
			ID:        id,
			UserID:    "u1",
			AdminID:   "admin1",
			Reason:    "reopened after review",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	handler := NewWorkdayHandler(setupTestLogger(), &memUserStorage{}, &memTicketStorage{}, audit)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/workday/open", nil)
	w := httptest.NewRecorder()
	handler.Audit(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp api.WorkdayAuditResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, "a2", resp.Entries[0].ID)
	assert.Equal(t, "a1", resp.Entries[1].ID)
}
