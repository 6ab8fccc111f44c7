package sqlite

import (
	"context"
	"fmt"

	"github.com/vodomat/fieldsync/internal/models"
)

// AppendWorkdayAudit appends one workday reopen audit entry
func (s *Storage) AppendWorkdayAudit(ctx context.Context, entry *models.WorkdayAuditEntry) error {
	query := `
		INSERT INTO workday_audit (id, user_id, admin_id, admin_name, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.UserID,
		entry.AdminID,
		entry.AdminName,
		entry.Reason,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}

	return nil
}

// GetWorkdayAudit returns all audit entries, newest first
func (s *Storage) GetWorkdayAudit(ctx context.Context) ([]*models.WorkdayAuditEntry, error) {
	query := `
		SELECT id, user_id, admin_id, admin_name, reason, created_at
		FROM workday_audit
		ORDER BY created_at DESC, rowid DESC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	entries := []*models.WorkdayAuditEntry{}
	for rows.Next() {
		entry := &models.WorkdayAuditEntry{}
		err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.AdminID,
			&entry.AdminName,
			&entry.Reason,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit entries: %w", err)
	}

	return entries, nil
}
