package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vodomat/fieldsync/internal/models"
	"github.com/vodomat/fieldsync/internal/server/storage"
)

const ticketColumns = `id, service_number, device_code, technician_id, technician_name,
	start_time, end_time, duration_minutes, status, operations, spare_parts,
	cancellation_reason, created_at, updated_at, synced_at`

// GetAllTickets retrieves the resident ticket collection in insertion order
func (s *Storage) GetAllTickets(ctx context.Context) ([]*models.ServiceTicket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets ORDER BY rowid`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tickets: %w", err)
	}
	defer rows.Close()

	tickets := []*models.ServiceTicket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tickets: %w", err)
	}

	return tickets, nil
}

// GetTicketByID retrieves a ticket by ID
func (s *Storage) GetTicketByID(ctx context.Context, id string) (*models.ServiceTicket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = ?`
	return scanTicket(s.db.QueryRowContext(ctx, query, id))
}

// ReplaceTickets atomically replaces the resident collection. The
// merge result is computed fully in memory before this call; commit or
// nothing, so a failed write cannot leave a partial merge behind.
func (s *Storage) ReplaceTickets(ctx context.Context, tickets []*models.ServiceTicket) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM tickets`); err != nil {
		return fmt.Errorf("failed to clear tickets: %w", err)
	}

	query := `
		INSERT INTO tickets (` + ticketColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	for _, ticket := range tickets {
		operations, err := json.Marshal(ticket.Operations)
		if err != nil {
			return fmt.Errorf("failed to marshal operations: %w", err)
		}
		spareParts, err := json.Marshal(ticket.SpareParts)
		if err != nil {
			return fmt.Errorf("failed to marshal spare parts: %w", err)
		}

		_, err = tx.ExecContext(ctx, query,
			ticket.ID,
			ticket.ServiceNumber,
			ticket.DeviceCode,
			ticket.TechnicianID,
			ticket.TechnicianName,
			ticket.StartTime,
			ticket.EndTime,
			ticket.DurationMinutes,
			string(ticket.Status),
			string(operations),
			string(spareParts),
			ticket.CancellationReason,
			ticket.CreatedAt,
			ticket.UpdatedAt,
			ticket.SyncedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert ticket %s: %w", ticket.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tickets: %w", err)
	}

	return nil
}

// CountTickets returns the resident collection size
func (s *Storage) CountTickets(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tickets`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count tickets: %w", err)
	}
	return count, nil
}

// CountInProgressByTechnician returns the number of in_progress
// tickets held by a technician
func (s *Storage) CountInProgressByTechnician(ctx context.Context, technicianID string) (int, error) {
	query := `SELECT COUNT(*) FROM tickets WHERE technician_id = ? AND status = ?`

	var count int
	err := s.db.QueryRowContext(ctx, query, technicianID, string(models.TicketInProgress)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count in progress tickets: %w", err)
	}
	return count, nil
}

// scanTicket reads one ticket row
func scanTicket(row scanner) (*models.ServiceTicket, error) {
	ticket := &models.ServiceTicket{}
	var (
		endTime    sql.NullTime
		updatedAt  sql.NullTime
		syncedAt   sql.NullTime
		operations string
		spareParts string
	)

	err := row.Scan(
		&ticket.ID,
		&ticket.ServiceNumber,
		&ticket.DeviceCode,
		&ticket.TechnicianID,
		&ticket.TechnicianName,
		&ticket.StartTime,
		&endTime,
		&ticket.DurationMinutes,
		&ticket.Status,
		&operations,
		&spareParts,
		&ticket.CancellationReason,
		&ticket.CreatedAt,
		&updatedAt,
		&syncedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to scan ticket: %w", err)
	}

	if endTime.Valid {
		ticket.EndTime = &endTime.Time
	}
	if updatedAt.Valid {
		ticket.UpdatedAt = &updatedAt.Time
	}
	if syncedAt.Valid {
		ticket.SyncedAt = &syncedAt.Time
	}

	if err := json.Unmarshal([]byte(operations), &ticket.Operations); err != nil {
		return nil, fmt.Errorf("failed to unmarshal operations: %w", err)
	}
	if err := json.Unmarshal([]byte(spareParts), &ticket.SpareParts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal spare parts: %w", err)
	}

	return ticket, nil
}
