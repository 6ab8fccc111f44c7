package api

import (
	"time"

	"github.com/vodomat/fieldsync/internal/models"
)

// CloseWorkdayRequest represents POST /api/v1/workday/close.
type CloseWorkdayRequest struct {
	ClosedAt time.Time `json:"closed_at"`
}

// CloseWorkdayResponse represents the close result.
type CloseWorkdayResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// OpenWorkdayRequest represents POST /api/v1/workday/open. Reopening
// is admin-only and every reopen is recorded in the audit log.
type OpenWorkdayRequest struct {
	UserID string `json:"user_id"` // technician whose workday is reopened
	Reason string `json:"reason"`  // at least 10 characters
}

// OpenWorkdayResponse represents the reopen result.
type OpenWorkdayResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// WorkdayAuditResponse represents GET /api/v1/workday/open.
type WorkdayAuditResponse struct {
	Success bool                       `json:"success"`
	Entries []models.WorkdayAuditEntry `json:"entries"`
}
