package models

import (
	"errors"
	"math"
	"time"
)

// TicketStatus represents the lifecycle state of a service ticket.
type TicketStatus string

const (
	TicketInProgress TicketStatus = "in_progress"
	TicketCompleted  TicketStatus = "completed"
	TicketCancelled  TicketStatus = "cancelled"
)

// Valid reports whether the status is one of the known lifecycle states.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketInProgress, TicketCompleted, TicketCancelled:
		return true
	}
	return false
}

// Ticket state machine errors.
var (
	ErrTicketNotInProgress  = errors.New("ticket is not in progress")
	ErrTicketNotCompleted   = errors.New("ticket is not completed")
	ErrNoOperations         = errors.New("ticket has no logged operations")
	ErrNoCancellationReason = errors.New("cancellation reason is required")
)

// Operation is one maintenance operation performed during a visit.
type Operation struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// SparePart is one spare part consumed during a visit.
type SparePart struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// ServiceTicket represents one maintenance visit to a water dispenser.
// Tickets are created on the client and reconciled on the server with a
// last-writer-wins policy keyed on UpdatedAt (CreatedAt when a ticket
// was never updated).
type ServiceTicket struct {
	ID                 string       `json:"id"`             // client-generated, time+random composite
	ServiceNumber      string       `json:"service_number"` // depot-scoped sequence, e.g. "BG-000042"
	DeviceCode         string       `json:"device_code"`    // scanned or manually entered dispenser code
	TechnicianID       string       `json:"technician_id"`
	TechnicianName     string       `json:"technician_name"`
	StartTime          time.Time    `json:"start_time"`
	EndTime            *time.Time   `json:"end_time,omitempty"`         // set on completion
	DurationMinutes    int          `json:"duration_minutes,omitempty"` // derived, rounded to nearest minute
	Status             TicketStatus `json:"status"`
	Operations         []Operation  `json:"operations"`  // ordered as logged
	SpareParts         []SparePart  `json:"spare_parts"` // ordered as logged
	CancellationReason string       `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          *time.Time   `json:"updated_at,omitempty"` // set on every mutation after creation
	SyncedAt           *time.Time   `json:"synced_at,omitempty"`  // stamped by the server on merge
}

// EffectiveTimestamp returns the timestamp used for conflict
// resolution: UpdatedAt when set, CreatedAt otherwise.
func (t *ServiceTicket) EffectiveTimestamp() time.Time {
	if t.UpdatedAt != nil {
		return *t.UpdatedAt
	}
	return t.CreatedAt
}

// Supersedes reports whether this (incoming) ticket wins a merge
// against the existing one. Ties favor the incoming record, so pushing
// the same batch twice is idempotent.
func (t *ServiceTicket) Supersedes(existing *ServiceTicket) bool {
	return !t.EffectiveTimestamp().Before(existing.EffectiveTimestamp())
}

// Complete transitions the ticket to completed. Requires the ticket to
// be in progress with at least one logged operation. DurationMinutes is
// derived from the start/end interval, rounded to the nearest minute.
func (t *ServiceTicket) Complete(endTime time.Time) error {
	if t.Status != TicketInProgress {
		return ErrTicketNotInProgress
	}
	if len(t.Operations) == 0 {
		return ErrNoOperations
	}
	t.EndTime = &endTime
	t.DurationMinutes = DurationMinutes(t.StartTime, endTime)
	t.Status = TicketCompleted
	t.touch(endTime)
	return nil
}

// Cancel transitions the ticket to cancelled. Cancelled is terminal.
func (t *ServiceTicket) Cancel(reason string, at time.Time) error {
	if t.Status != TicketInProgress {
		return ErrTicketNotInProgress
	}
	if reason == "" {
		return ErrNoCancellationReason
	}
	t.CancellationReason = reason
	t.Status = TicketCancelled
	t.touch(at)
	return nil
}

// Reopen transitions a completed ticket back to in progress. Callers
// must verify the acting user holds an administrative role.
func (t *ServiceTicket) Reopen(at time.Time) error {
	if t.Status != TicketCompleted {
		return ErrTicketNotCompleted
	}
	t.Status = TicketInProgress
	t.EndTime = nil
	t.DurationMinutes = 0
	t.touch(at)
	return nil
}

// touch records a mutation timestamp for LWW ordering.
func (t *ServiceTicket) touch(at time.Time) {
	ts := at
	t.UpdatedAt = &ts
}

// Clone creates a deep copy of the ticket.
func (t *ServiceTicket) Clone() *ServiceTicket {
	clone := *t
	if t.EndTime != nil {
		v := *t.EndTime
		clone.EndTime = &v
	}
	if t.UpdatedAt != nil {
		v := *t.UpdatedAt
		clone.UpdatedAt = &v
	}
	if t.SyncedAt != nil {
		v := *t.SyncedAt
		clone.SyncedAt = &v
	}
	if t.Operations != nil {
		clone.Operations = make([]Operation, len(t.Operations))
		copy(clone.Operations, t.Operations)
	}
	if t.SpareParts != nil {
		clone.SpareParts = make([]SparePart, len(t.SpareParts))
		copy(clone.SpareParts, t.SpareParts)
	}
	return &clone
}

// DurationMinutes returns the interval between start and end rounded
// to the nearest whole minute.
func DurationMinutes(start, end time.Time) int {
	return int(math.Round(end.Sub(start).Minutes()))
}
